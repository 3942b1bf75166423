package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/tray.report/internal/align"
	"github.com/banshee-data/tray.report/internal/monitoring"
	"github.com/banshee-data/tray.report/internal/nutrition"
	"github.com/banshee-data/tray.report/internal/version"
)

func TestMain(m *testing.M) {
	restore := monitoring.Mute()
	code := m.Run()
	restore()
	os.Exit(code)
}

type fakeLookup map[string]nutrition.Facts

func (f fakeLookup) Lookup(_ context.Context, dish string, grams float64) (nutrition.Portion, error) {
	per100, ok := f[dish]
	if !ok {
		return nutrition.Portion{}, nutrition.ErrDishNotFound
	}
	return nutrition.Portion{
		DishName:      dish,
		CanteenName:   "North Hall",
		CookingMethod: "steamed",
		RecipeWeightG: 100,
		ActualWeightG: grams,
		Facts:         per100.Scale(grams / 100),
	}, nil
}

func sampleAlignment(t *testing.T) []align.AlignedFood {
	t.Helper()
	mk := func(name string, x1 float64) align.DetectedFood {
		f, err := align.NewDetectedFood(name, align.BBox{x1, 0, x1 + 20, 20}, 0.9)
		require.NoError(t, err)
		return f
	}
	return []align.AlignedFood{
		{Food: mk("rice", 0), Weight: 150, WeightEventIndex: 1, ConfidenceScore: 0.9, DetectionIndex: 0},
		{Food: mk("tofu", 40), Weight: 40, WeightEventIndex: align.NoEventIndex, ConfidenceScore: 0.3, DetectionIndex: 1},
	}
}

func TestBuild(t *testing.T) {
	aligned := sampleAlignment(t)
	metrics := align.Evaluate(aligned, nil)
	lookup := fakeLookup{"rice": {EnergyKcal: 130, ProteinG: 2}}

	r, err := Build(context.Background(), aligned, metrics, lookup)
	require.NoError(t, err)

	_, err = uuid.Parse(r.RunID)
	assert.NoError(t, err)
	assert.False(t, r.CreatedAt.IsZero())
	assert.Equal(t, version.Version, r.Version)
	assert.Equal(t, metrics, r.Metrics)
	require.Len(t, r.Foods, 2)

	rice := r.Foods[0]
	assert.Equal(t, "rice", rice.ClassName)
	assert.True(t, rice.Matched)
	assert.Equal(t, 1, rice.WeightEventIndex)
	require.NotNil(t, rice.Nutrition)
	assert.InDelta(t, 195, rice.Nutrition.EnergyKcal, 1e-9)
	assert.Equal(t, "steamed", rice.Nutrition.CookingMethod)
	assert.InDelta(t, 100, rice.Nutrition.RecipeWeightG, 1e-9)
	assert.Empty(t, rice.NutritionError)

	tofu := r.Foods[1]
	assert.False(t, tofu.Matched)
	assert.Nil(t, tofu.Nutrition)
	assert.Contains(t, tofu.NutritionError, "dish not found")

	require.NotNil(t, r.NutritionTotal)
	assert.InDelta(t, 195, r.NutritionTotal.EnergyKcal, 1e-9)
	assert.InDelta(t, 3, r.NutritionTotal.ProteinG, 1e-9)
}

func TestBuild_WithoutLookup(t *testing.T) {
	r, err := Build(context.Background(), sampleAlignment(t), align.Metrics{}, nil)
	require.NoError(t, err)
	assert.Nil(t, r.NutritionTotal)
	for _, it := range r.Foods {
		assert.Nil(t, it.Nutrition)
		assert.Empty(t, it.NutritionError)
	}
}

func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Build(ctx, sampleAlignment(t), align.Metrics{}, fakeLookup{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuild_RunIDsDiffer(t *testing.T) {
	a, err := Build(context.Background(), nil, align.Metrics{}, nil)
	require.NoError(t, err)
	b, err := Build(context.Background(), nil, align.Metrics{}, nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Empty(t, a.Foods)
}

func TestWriteJSON_Shape(t *testing.T) {
	aligned := sampleAlignment(t)
	r, err := Build(context.Background(), aligned, align.Evaluate(aligned, []float64{140, 50}), nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, r))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	foods := doc["foods"].([]any)
	require.Len(t, foods, 2)
	first := foods[0].(map[string]any)
	for _, key := range []string{"class_name", "weight", "weight_event_index", "confidence_score", "bbox"} {
		assert.Contains(t, first, key)
	}
	assert.NotContains(t, first, "nutrition")
	assert.Contains(t, doc, "version")

	metrics := doc["metrics"].(map[string]any)
	for _, key := range []string{"total_foods", "matched_foods", "unmatched_foods", "avg_confidence", "total_weight", "mean_relative_error", "max_relative_error"} {
		assert.Contains(t, metrics, key)
	}
}

func TestWriteJSON_NutritionShape(t *testing.T) {
	aligned := sampleAlignment(t)
	lookup := fakeLookup{"rice": {EnergyKcal: 130, CalciumMg: 10, VitaminCMg: 2}}
	r, err := Build(context.Background(), aligned, align.Evaluate(aligned, nil), lookup)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, r))

	var doc struct {
		Foods []struct {
			Nutrition map[string]any `json:"nutrition"`
		} `json:"foods"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.NotEmpty(t, doc.Foods)
	n := doc.Foods[0].Nutrition
	for _, key := range []string{"dish_name", "canteen_name", "cooking_method", "recipe_weight_g", "actual_weight_g", "energy_kcal", "calcium_mg", "vitamin_c_mg"} {
		assert.Contains(t, n, key)
	}
	assert.InDelta(t, 15.0, n["calcium_mg"], 1e-9)
	assert.InDelta(t, 3.0, n["vitamin_c_mg"], 1e-9)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteJSON_Error(t *testing.T) {
	assert.Error(t, WriteJSON(failingWriter{}, Report{}))
}

func TestWriteChart(t *testing.T) {
	dir := t.TempDir()
	aligned := sampleAlignment(t)
	for _, name := range []string{"chart.png", "chart.svg"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteChart(path, aligned, align.DefaultDensityFactor))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	assert.Error(t, WriteChart(filepath.Join(dir, "empty.png"), nil, 0.1))
}

func TestRenderHTML(t *testing.T) {
	aligned := sampleAlignment(t)
	r, err := Build(context.Background(), aligned, align.Evaluate(aligned, nil), nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, r))
	html := buf.String()
	assert.True(t, strings.Contains(html, "<html"), "expected an HTML document")
	assert.Contains(t, html, "Item weights")
	assert.Contains(t, html, "1 rice")
	assert.Contains(t, html, r.RunID)
}

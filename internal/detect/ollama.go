package detect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/banshee-data/tray.report/internal/align"
)

// ErrNoJSON is returned when the model reply holds no JSON object.
var ErrNoJSON = errors.New("no JSON object in model reply")

const detectPrompt = `You are inspecting a photo of a canteen tray seen from above.
List every separate food item on the tray.
Reply with JSON only, no prose, in exactly this shape:
{"items":[{"class_name":"<dish name>","confidence":<0..1>,"box":[x1,y1,x2,y2]}]}
Box coordinates are fractions of the image width and height, with 0,0 at the top left.`

// chatter is the part of *api.Client the detector uses.
type chatter interface {
	Chat(ctx context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error
}

// OllamaDetector asks an Ollama vision model to locate food items.
type OllamaDetector struct {
	client  chatter
	model   string
	maxDim  int
	timeout time.Duration
}

// NewOllamaDetector connects to the Ollama server at rawURL. Images larger
// than maxDim on either side are shrunk before upload; a positive timeout
// bounds each request that does not already carry a deadline.
func NewOllamaDetector(rawURL, model string, maxDim int, timeout time.Duration) (*OllamaDetector, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid ollama URL %q: need scheme and host", rawURL)
	}
	if model == "" {
		return nil, errors.New("ollama model must be set")
	}
	base := &url.URL{Scheme: u.Scheme, Host: u.Host}
	return &OllamaDetector{
		client:  api.NewClient(base, http.DefaultClient),
		model:   model,
		maxDim:  maxDim,
		timeout: timeout,
	}, nil
}

// Detect sends img to the model and converts its reply into detections in
// img's pixel space. Items with unusable boxes are dropped.
func (d *OllamaDetector) Detect(ctx context.Context, img image.Image) ([]align.DetectedFood, error) {
	if _, ok := ctx.Deadline(); !ok && d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	sent := shrink(img, d.maxDim)
	jpeg, err := encodeJPEG(sent)
	if err != nil {
		return nil, err
	}

	stream := false
	req := &api.ChatRequest{
		Model: d.model,
		Messages: []api.Message{{
			Role:    "user",
			Content: detectPrompt,
			Images:  []api.ImageData{api.ImageData(jpeg)},
		}},
		Format:  json.RawMessage(`"json"`),
		Stream:  &stream,
		Options: map[string]any{"temperature": 0},
	}

	var reply strings.Builder
	err = d.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		reply.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat error: %w", err)
	}
	if reply.Len() == 0 {
		return nil, errors.New("empty response from ollama")
	}
	return parseReply(reply.String(), img.Bounds(), sent.Bounds())
}

type modelItem struct {
	ClassName  string    `json:"class_name"`
	Class      string    `json:"class"`
	Confidence *float64  `json:"confidence"`
	Box        []float64 `json:"box"`
}

// parseReply decodes the model's item list. Boxes given as fractions map onto
// orig; boxes given in pixels are taken to be in the uploaded image's space
// and rescaled to orig.
func parseReply(raw string, orig, sent image.Rectangle) ([]align.DetectedFood, error) {
	raw = sanitizeModelJSON(raw)
	if !strings.HasPrefix(raw, "{") {
		return nil, ErrNoJSON
	}
	var reply struct {
		Items []modelItem `json:"items"`
	}
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return nil, fmt.Errorf("failed to parse model reply: %w", err)
	}

	foods := make([]align.DetectedFood, 0, len(reply.Items))
	for i, it := range reply.Items {
		name := it.ClassName
		if name == "" {
			name = it.Class
		}
		if name == "" || len(it.Box) != 4 {
			logf("dropping item %d: missing class or box", i)
			continue
		}
		conf := 0.5
		if it.Confidence != nil {
			conf = math.Max(0, math.Min(1, *it.Confidence))
		}
		f, err := align.NewDetectedFood(name, toPixels(it.Box, orig, sent), conf)
		if err != nil {
			logf("dropping item %d (%s): %v", i, name, err)
			continue
		}
		foods = append(foods, f)
	}
	return foods, nil
}

func toPixels(box []float64, orig, sent image.Rectangle) align.BBox {
	normalised := true
	for _, v := range box {
		if v > 1 {
			normalised = false
			break
		}
	}

	w, h := float64(orig.Dx()), float64(orig.Dy())
	sx, sy := w, h
	if !normalised {
		sx = w / float64(sent.Dx())
		sy = h / float64(sent.Dy())
	}
	clamp := func(v, limit float64) float64 { return math.Max(0, math.Min(limit, v)) }
	return align.BBox{
		float64(orig.Min.X) + clamp(box[0]*sx, w),
		float64(orig.Min.Y) + clamp(box[1]*sy, h),
		float64(orig.Min.X) + clamp(box[2]*sx, w),
		float64(orig.Min.Y) + clamp(box[3]*sy, h),
	}
}

var (
	reBlockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment  = regexp.MustCompile(`(?m)^\s*//.*$`)
	reTrailComma   = regexp.MustCompile(`,(\s*[}\]])`)
)

// sanitizeModelJSON strips code fences, comments and trailing commas, and
// keeps only the outermost object.
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.Trim(strings.TrimSpace(raw), "`")

	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reLineComment.ReplaceAllString(raw, "")
	raw = reTrailComma.ReplaceAllString(raw, "$1")

	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}

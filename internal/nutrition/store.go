// Package nutrition stores canteen recipes and per-ingredient nutrition facts
// in sqlite and scales them to the weight of a served portion.
package nutrition

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/tray.report/internal/monitoring"
)

var logf = monitoring.Component("nutrition")

// ErrDishNotFound is returned when no dish or alias matches the name, or the
// dish has no recipe weight to scale against.
var ErrDishNotFound = errors.New("dish not found")

// Facts holds nutrient amounts, per 100 g for an ingredient or absolute for
// a portion.
type Facts struct {
	EnergyKcal    float64 `json:"energy_kcal"`
	ProteinG      float64 `json:"protein_g"`
	FatG          float64 `json:"fat_g"`
	CarbohydrateG float64 `json:"carbohydrate_g"`
	FiberG        float64 `json:"fiber_g"`
	SodiumMg      float64 `json:"sodium_mg"`
	CalciumMg     float64 `json:"calcium_mg"`
	VitaminCMg    float64 `json:"vitamin_c_mg"`
}

// Add returns f + o.
func (f Facts) Add(o Facts) Facts {
	return Facts{
		EnergyKcal:    f.EnergyKcal + o.EnergyKcal,
		ProteinG:      f.ProteinG + o.ProteinG,
		FatG:          f.FatG + o.FatG,
		CarbohydrateG: f.CarbohydrateG + o.CarbohydrateG,
		FiberG:        f.FiberG + o.FiberG,
		SodiumMg:      f.SodiumMg + o.SodiumMg,
		CalciumMg:     f.CalciumMg + o.CalciumMg,
		VitaminCMg:    f.VitaminCMg + o.VitaminCMg,
	}
}

// Scale returns f multiplied by k.
func (f Facts) Scale(k float64) Facts {
	return Facts{
		EnergyKcal:    f.EnergyKcal * k,
		ProteinG:      f.ProteinG * k,
		FatG:          f.FatG * k,
		CarbohydrateG: f.CarbohydrateG * k,
		FiberG:        f.FiberG * k,
		SodiumMg:      f.SodiumMg * k,
		CalciumMg:     f.CalciumMg * k,
		VitaminCMg:    f.VitaminCMg * k,
	}
}

// Ingredient is a raw ingredient with its nutrition per 100 g.
type Ingredient struct {
	Name    string
	Per100g Facts
}

// RecipeLine is the amount of one ingredient in a dish's reference recipe.
type RecipeLine struct {
	Ingredient string
	Grams      float64
}

// Dish describes a dish and its reference recipe. CanteenID 0 leaves the
// dish unassigned. Aliases are the detector class names that refer to it.
type Dish struct {
	CanteenID     int64
	Name          string
	CookingMethod string
	Aliases       []string
	Recipe        []RecipeLine
}

// Portion is the nutrition of one served portion of a dish.
type Portion struct {
	DishName      string  `json:"dish_name"`
	CanteenName   string  `json:"canteen_name,omitempty"`
	CookingMethod string  `json:"cooking_method,omitempty"`
	RecipeWeightG float64 `json:"recipe_weight_g"`
	ActualWeightG float64 `json:"actual_weight_g"`
	Facts
}

// Lookup returns the nutrition of a portion of dish weighing grams.
type Lookup interface {
	Lookup(ctx context.Context, dish string, grams float64) (Portion, error)
}

// Store is a sqlite-backed Lookup.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and migrates it to
// the latest schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// pragmas are per connection
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// AddCanteen records a canteen and returns its id. Adding an existing name
// returns the existing id.
func (s *Store) AddCanteen(ctx context.Context, name, location string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, errors.New("canteen name must be set")
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO canteens (name, location) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		name, location); err != nil {
		return 0, fmt.Errorf("failed to insert canteen: %w", err)
	}
	var id int64
	if err := s.db.QueryRowContext(ctx, `SELECT canteen_id FROM canteens WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to read canteen id: %w", err)
	}
	return id, nil
}

// AddIngredient records an ingredient, replacing its nutrition facts if it
// already exists, and returns its id.
func (s *Store) AddIngredient(ctx context.Context, ing Ingredient) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	id, err := upsertIngredient(ctx, tx, ing)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit ingredient: %w", err)
	}
	return id, nil
}

func upsertIngredient(ctx context.Context, tx *sql.Tx, ing Ingredient) (int64, error) {
	name := strings.TrimSpace(ing.Name)
	if name == "" {
		return 0, errors.New("ingredient name must be set")
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ingredients (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name); err != nil {
		return 0, fmt.Errorf("failed to insert ingredient: %w", err)
	}
	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT ingredient_id FROM ingredients WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to read ingredient id: %w", err)
	}
	f := ing.Per100g
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO nutrition_facts
			(ingredient_id, energy_kcal, protein_g, fat_g, carbohydrate_g, fiber_g, sodium_mg,
			 calcium_mg, vitamin_c_mg)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ingredient_id) DO UPDATE SET
			energy_kcal = excluded.energy_kcal,
			protein_g = excluded.protein_g,
			fat_g = excluded.fat_g,
			carbohydrate_g = excluded.carbohydrate_g,
			fiber_g = excluded.fiber_g,
			sodium_mg = excluded.sodium_mg,
			calcium_mg = excluded.calcium_mg,
			vitamin_c_mg = excluded.vitamin_c_mg`,
		id, f.EnergyKcal, f.ProteinG, f.FatG, f.CarbohydrateG, f.FiberG, f.SodiumMg,
		f.CalciumMg, f.VitaminCMg); err != nil {
		return 0, fmt.Errorf("failed to store nutrition facts for %s: %w", name, err)
	}
	return id, nil
}

// AddDish records a dish with its reference recipe and aliases. Recipe
// ingredients must already exist.
func (s *Store) AddDish(ctx context.Context, d Dish) (int64, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return 0, errors.New("dish name must be set")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	var canteen any
	if d.CanteenID != 0 {
		canteen = d.CanteenID
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO dishes (canteen_id, name, cooking_method) VALUES (?, ?, ?)`,
		canteen, name, strings.TrimSpace(d.CookingMethod))
	if err != nil {
		return 0, fmt.Errorf("failed to insert dish %s: %w", name, err)
	}
	dishID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read dish id: %w", err)
	}

	for _, line := range d.Recipe {
		if math.IsNaN(line.Grams) || math.IsInf(line.Grams, 0) || line.Grams < 0 {
			return 0, fmt.Errorf("dish %s: invalid amount %v for %s", name, line.Grams, line.Ingredient)
		}
		var ingID int64
		err := tx.QueryRowContext(ctx, `SELECT ingredient_id FROM ingredients WHERE name = ?`,
			strings.TrimSpace(line.Ingredient)).Scan(&ingID)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("dish %s: unknown ingredient %q", name, line.Ingredient)
		}
		if err != nil {
			return 0, fmt.Errorf("failed to look up ingredient %s: %w", line.Ingredient, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO dish_ingredients (dish_id, ingredient_id, grams) VALUES (?, ?, ?)
			ON CONFLICT(dish_id, ingredient_id) DO UPDATE SET grams = grams + excluded.grams`,
			dishID, ingID, line.Grams); err != nil {
			return 0, fmt.Errorf("failed to add %s to dish %s: %w", line.Ingredient, name, err)
		}
	}

	for _, alias := range d.Aliases {
		alias = strings.TrimSpace(alias)
		if alias == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO dish_aliases (alias, dish_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
			alias, dishID); err != nil {
			return 0, fmt.Errorf("failed to add alias %s: %w", alias, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit dish: %w", err)
	}
	return dishID, nil
}

// Lookup resolves dish by name or alias, case-insensitively, and scales each
// recipe ingredient's facts by grams / total recipe weight. When several
// dishes share a name the earliest recorded wins.
func (s *Store) Lookup(ctx context.Context, dish string, grams float64) (Portion, error) {
	if math.IsNaN(grams) || math.IsInf(grams, 0) || grams < 0 {
		return Portion{}, fmt.Errorf("invalid portion weight %v", grams)
	}
	dish = strings.TrimSpace(dish)

	p := Portion{ActualWeightG: grams}
	var dishID int64
	err := s.db.QueryRowContext(ctx, `
		SELECT d.dish_id, d.name, d.cooking_method, COALESCE(c.name, '')
		FROM dishes d
		LEFT JOIN canteens c ON c.canteen_id = d.canteen_id
		WHERE d.dish_id = (
			SELECT dish_id FROM dishes WHERE name = ?1
			UNION
			SELECT dish_id FROM dish_aliases WHERE alias = ?1
			ORDER BY dish_id LIMIT 1)`, dish).Scan(&dishID, &p.DishName, &p.CookingMethod, &p.CanteenName)
	if errors.Is(err, sql.ErrNoRows) {
		return Portion{}, fmt.Errorf("%w: %q", ErrDishNotFound, dish)
	}
	if err != nil {
		return Portion{}, fmt.Errorf("failed to look up dish %s: %w", dish, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT di.grams,
			COALESCE(nf.energy_kcal, 0), COALESCE(nf.protein_g, 0), COALESCE(nf.fat_g, 0),
			COALESCE(nf.carbohydrate_g, 0), COALESCE(nf.fiber_g, 0), COALESCE(nf.sodium_mg, 0),
			COALESCE(nf.calcium_mg, 0), COALESCE(nf.vitamin_c_mg, 0)
		FROM dish_ingredients di
		LEFT JOIN nutrition_facts nf ON nf.ingredient_id = di.ingredient_id
		WHERE di.dish_id = ?`, dishID)
	if err != nil {
		return Portion{}, fmt.Errorf("failed to read recipe for %s: %w", dish, err)
	}
	defer rows.Close()

	var perRecipe Facts
	for rows.Next() {
		var g float64
		var f Facts
		if err := rows.Scan(&g, &f.EnergyKcal, &f.ProteinG, &f.FatG, &f.CarbohydrateG, &f.FiberG,
			&f.SodiumMg, &f.CalciumMg, &f.VitaminCMg); err != nil {
			return Portion{}, fmt.Errorf("failed to scan recipe line: %w", err)
		}
		p.RecipeWeightG += g
		perRecipe = perRecipe.Add(f.Scale(g / 100))
	}
	if err := rows.Err(); err != nil {
		return Portion{}, fmt.Errorf("failed to read recipe for %s: %w", dish, err)
	}
	if p.RecipeWeightG <= 0 {
		return Portion{}, fmt.Errorf("%w: %q has no recipe weight", ErrDishNotFound, dish)
	}
	p.Facts = perRecipe.Scale(grams / p.RecipeWeightG)
	return p, nil
}

package units

import (
	"math"
	"testing"
)

func TestToGrams(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		unit     string
		expected float64
	}{
		{"grams", 120, G, 120},
		{"empty unit is grams", 120, "", 120},
		{"kilograms", 0.25, KG, 250},
		{"ounces", 1, OZ, 28.3495},
		{"pounds", 1, LB, 453.592},
		{"zero", 0, KG, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ToGrams(tt.value, tt.unit)
			if err != nil {
				t.Fatalf("ToGrams(%f, %s) error = %v", tt.value, tt.unit, err)
			}
			if math.Abs(result-tt.expected) > 0.001 {
				t.Errorf("ToGrams(%f, %s) = %f, want %f", tt.value, tt.unit, result, tt.expected)
			}
		})
	}

	if _, err := ToGrams(1, "stone"); err == nil {
		t.Error("expected error for unknown unit")
	}
}

func TestParseMass(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"120", 120},
		{"120g", 120},
		{" 0.12 kg ", 120},
		{"4OZ", 4 * 28.349523125},
		{"2 lbs", 2 * 453.59237},
		{"-3.5g", -3.5},
	}
	for _, tt := range tests {
		got, err := ParseMass(tt.in)
		if err != nil {
			t.Errorf("ParseMass(%q) error = %v", tt.in, err)
			continue
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ParseMass(%q) = %f, want %f", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "g", "12 parsecs", "abc"} {
		if _, err := ParseMass(bad); err == nil {
			t.Errorf("ParseMass(%q) expected error", bad)
		}
	}
}

func TestIsValid(t *testing.T) {
	for _, u := range ValidUnits {
		if !IsValid(u) {
			t.Errorf("IsValid(%q) = false", u)
		}
	}
	if IsValid("mph") {
		t.Error("IsValid(mph) = true")
	}
	if got := GetValidUnitsString(); got != "g, kg, oz, lb" {
		t.Errorf("GetValidUnitsString() = %q", got)
	}
}

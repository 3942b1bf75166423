// Package units provides shared constants and conversion for the mass units
// tray scales report in.
package units

import (
	"fmt"
	"strconv"
	"strings"
)

// Unit constants
const (
	G  = "g"
	KG = "kg"
	OZ = "oz"
	LB = "lb"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{G, KG, OZ, LB}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return strings.Join(ValidUnits, ", ")
}

// ToGrams converts a mass in the given units to grams.
// Everything downstream of the scale works in grams.
func ToGrams(v float64, unit string) (float64, error) {
	switch unit {
	case G, "":
		return v, nil
	case KG:
		return v * 1000, nil
	case OZ:
		return v * 28.349523125, nil
	case LB:
		return v * 453.59237, nil
	default:
		return 0, fmt.Errorf("unknown mass unit %q: expected one of %s", unit, GetValidUnitsString())
	}
}

// ParseMass parses a reading such as "120", "120g", "0.12 kg" or "4.2oz"
// and returns grams. A bare number is taken as grams.
func ParseMass(s string) (float64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	i := len(s)
	for i > 0 && s[i-1] >= 'a' && s[i-1] <= 'z' {
		i--
	}
	num, unit := strings.TrimSpace(s[:i]), s[i:]
	if unit == "lbs" {
		unit = LB
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid mass %q: %w", s, err)
	}
	return ToGrams(v, unit)
}

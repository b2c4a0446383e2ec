package units

import (
	"math"
	"testing"
)

func TestConvertEnergy(t *testing.T) {
	tests := []struct {
		name     string
		energyEV float64
		units    string
		expected float64
	}{
		{"1 eV to meV", 1.0, MEV, 1000.0},
		{"1 eV to eV", 1.0, EV, 1.0},
		{"unknown units default to eV", 2.5, "unknown", 2.5},
		{"0 eV to meV", 0.0, MEV, 0.0},
		{"one rydberg", 13.605693122994, RY, 1.0},
		{"one hartree", 27.211386245988, HA, 1.0},
		{"silicon gap 1.12 eV to meV", 1.12, MEV, 1120.0},
		{"negative energy to Ry", -27.211386245988, RY, -2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertEnergy(tt.energyEV, tt.units)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("ConvertEnergy(%f, %s) = %f, want %f", tt.energyEV, tt.units, result, tt.expected)
			}
		})
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"valid eV", EV, true},
		{"valid meV", MEV, true},
		{"valid Ry", RY, true},
		{"valid Ha", HA, true},
		{"invalid unit", "invalid", false},
		{"empty string", "", false},
		{"case sensitive", "ev", false},
		{"megaelectronvolt is not millielectronvolt", "MeV", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValid(tt.unit)
			if result != tt.expected {
				t.Errorf("IsValid(%s) = %v, want %v", tt.unit, result, tt.expected)
			}
		})
	}
}

func TestGetValidUnitsString(t *testing.T) {
	expected := "eV, meV, Ry, Ha"
	result := GetValidUnitsString()
	if result != expected {
		t.Errorf("GetValidUnitsString() = %s, want %s", result, expected)
	}
}

func TestRoundTrip(t *testing.T) {
	// Ry and Ha use exact reciprocal factors, so converting back must be
	// stable to float precision.
	for _, unit := range []string{RY, HA} {
		v := ConvertEnergy(1.0, unit)
		var back float64
		switch unit {
		case RY:
			back = v * 13.605693122994
		case HA:
			back = v * 27.211386245988
		}
		if math.Abs(back-1.0) > 1e-12 {
			t.Errorf("round trip through %s drifted: %v", unit, back)
		}
	}
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name     string
		energy   float64
		from     string
		to       string
		expected float64
	}{
		{"Ry to eV", 1.0, RY, EV, 13.605693122994},
		{"Ha to Ry", 1.0, HA, RY, 2.0},
		{"eV to meV", 1.5, EV, MEV, 1500.0},
		{"meV to eV", 250.0, MEV, EV, 0.25},
		{"same units", 3.2, EV, EV, 3.2},
		{"unknown source treated as eV", 2.0, "bogus", MEV, 2000.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Convert(tt.energy, tt.from, tt.to)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("Convert(%f, %s, %s) = %f, want %f", tt.energy, tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

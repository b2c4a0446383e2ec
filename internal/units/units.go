// Package units provides shared constants and conversion for energy units
package units

// Unit constants. Matching is case-sensitive: meV is a millielectronvolt,
// MeV would be a megaelectronvolt.
const (
	EV  = "eV"
	MEV = "meV"
	RY  = "Ry"
	HA  = "Ha"
)

// Conversion factors to electronvolts (CODATA 2018).
const (
	evPerRy = 13.605693122994
	evPerHa = 27.211386245988
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{EV, MEV, RY, HA}

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
	return "eV, meV, Ry, Ha"
}

// ToEV converts an energy from the given units to electronvolts.
func ToEV(energy float64, sourceUnits string) float64 {
	switch sourceUnits {
	case MEV:
		return energy / 1000.0
	case RY:
		return energy * evPerRy
	case HA:
		return energy * evPerHa
	default:
		return energy // eV, or anything unrecognised
	}
}

// Convert converts an energy between two units, going through eV.
func Convert(energy float64, fromUnits, toUnits string) float64 {
	return ConvertEnergy(ToEV(energy, fromUnits), toUnits)
}

// ConvertEnergy converts an energy from electronvolts to the target units.
// Band energies are stored in eV.
func ConvertEnergy(energyEV float64, targetUnits string) float64 {
	switch targetUnits {
	case MEV:
		return energyEV * 1000.0
	case RY:
		return energyEV / evPerRy
	case HA:
		return energyEV / evPerHa
	case EV:
		return energyEV // no conversion needed
	default:
		return energyEV // default to eV if unknown unit
	}
}

package bands

import (
	"fmt"
	"sort"
)

// Recognised bravais lattice names.
const (
	LatticeCubic        = "cubic"
	LatticeFCC          = "fcc"
	LatticeBCC          = "bcc"
	LatticeHexagonal    = "hexagonal"
	LatticeTetragonal   = "tetragonal"
	LatticeOrthorhombic = "orthorhombic"
)

// specialPoints holds the textbook fractional coordinates of the
// high-symmetry points per bravais lattice. Gamma is named G.
var specialPoints = map[string]map[string][3]float64{
	LatticeCubic: {
		"G": {0, 0, 0},
		"X": {0, 0.5, 0},
		"M": {0.5, 0.5, 0},
		"R": {0.5, 0.5, 0.5},
	},
	LatticeFCC: {
		"G": {0, 0, 0},
		"X": {0.5, 0, 0.5},
		"W": {0.5, 0.25, 0.75},
		"K": {0.375, 0.375, 0.75},
		"L": {0.5, 0.5, 0.5},
		"U": {0.625, 0.25, 0.625},
	},
	LatticeBCC: {
		"G": {0, 0, 0},
		"H": {0.5, -0.5, 0.5},
		"N": {0, 0, 0.5},
		"P": {0.25, 0.25, 0.25},
	},
	LatticeHexagonal: {
		"G": {0, 0, 0},
		"M": {0.5, 0, 0},
		"K": {1.0 / 3.0, 1.0 / 3.0, 0},
		"A": {0, 0, 0.5},
		"L": {0.5, 0, 0.5},
		"H": {1.0 / 3.0, 1.0 / 3.0, 0.5},
	},
	LatticeTetragonal: {
		"G": {0, 0, 0},
		"X": {0, 0.5, 0},
		"M": {0.5, 0.5, 0},
		"Z": {0, 0, 0.5},
		"R": {0, 0.5, 0.5},
		"A": {0.5, 0.5, 0.5},
	},
	LatticeOrthorhombic: {
		"G": {0, 0, 0},
		"X": {0.5, 0, 0},
		"Y": {0, 0.5, 0},
		"Z": {0, 0, 0.5},
		"S": {0.5, 0.5, 0},
		"T": {0, 0.5, 0.5},
		"U": {0.5, 0, 0.5},
		"R": {0.5, 0.5, 0.5},
	},
}

// defaultPaths lists the conventional walk through the special points.
var defaultPaths = map[string][]string{
	LatticeCubic:        {"G", "X", "M", "G", "R", "X"},
	LatticeFCC:          {"G", "X", "W", "K", "G", "L"},
	LatticeBCC:          {"G", "H", "N", "G", "P", "H"},
	LatticeHexagonal:    {"G", "M", "K", "G", "A", "L", "H", "A"},
	LatticeTetragonal:   {"G", "X", "M", "G", "Z", "R", "A", "Z"},
	LatticeOrthorhombic: {"G", "X", "S", "Y", "G", "Z", "U", "R", "T", "Z"},
}

// Lattices returns the recognised bravais lattice names in sorted order.
func Lattices() []string {
	names := make([]string, 0, len(specialPoints))
	for name := range specialPoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SpecialPoints returns the high-symmetry points of the given bravais
// lattice in fractional coordinates.
func SpecialPoints(bravais string) (map[string][3]float64, error) {
	table, ok := specialPoints[bravais]
	if !ok {
		return nil, fmt.Errorf("unknown bravais lattice %q (known: %v)", bravais, Lattices())
	}
	out := make(map[string][3]float64, len(table))
	for name, p := range table {
		out[name] = p
	}
	return out, nil
}

// DefaultPath returns the conventional segment list for the lattice, as
// from/to pairs of special-point names.
func DefaultPath(bravais string) ([][2]string, error) {
	walk, ok := defaultPaths[bravais]
	if !ok {
		return nil, fmt.Errorf("unknown bravais lattice %q (known: %v)", bravais, Lattices())
	}
	segments := make([][2]string, 0, len(walk)-1)
	for i := 1; i < len(walk); i++ {
		segments = append(segments, [2]string{walk[i-1], walk[i]})
	}
	return segments, nil
}

// BuildPath fills ks with a polyline through named special points of its
// bravais lattice, perSegment points per segment with shared endpoints
// collapsed, and labels the joints. Disconnected consecutive segments keep
// both endpoints, which places their labels on adjacent indices.
func BuildPath(ks *KpointSet, segments [][2]string, perSegment int) error {
	if perSegment < 2 {
		return fmt.Errorf("need at least 2 points per segment, got %d", perSegment)
	}
	if len(segments) == 0 {
		return fmt.Errorf("empty path")
	}
	bravais, ok := ks.BravaisLattice()
	if !ok {
		return fmt.Errorf("bravais lattice not set")
	}
	table, err := SpecialPoints(bravais)
	if err != nil {
		return err
	}

	var points [][3]float64
	var labels []Label
	for si, seg := range segments {
		from, ok := table[seg[0]]
		if !ok {
			return fmt.Errorf("no special point %q in %s lattice", seg[0], bravais)
		}
		to, ok := table[seg[1]]
		if !ok {
			return fmt.Errorf("no special point %q in %s lattice", seg[1], bravais)
		}

		start := 0
		if si > 0 && segments[si-1][1] == seg[0] {
			// continues from the previous endpoint, already emitted
			start = 1
		}
		for i := start; i < perSegment; i++ {
			t := float64(i) / float64(perSegment-1)
			points = append(points, [3]float64{
				from[0] + t*(to[0]-from[0]),
				from[1] + t*(to[1]-from[1]),
				from[2] + t*(to[2]-from[2]),
			})
			if i == start && start == 0 {
				labels = append(labels, Label{Index: len(points) - 1, Name: seg[0]})
			}
		}
		labels = append(labels, Label{Index: len(points) - 1, Name: seg[1]})
	}

	if err := ks.SetPoints(points, nil); err != nil {
		return err
	}
	return ks.SetLabels(labels)
}

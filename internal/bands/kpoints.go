package bands

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Label marks a high-symmetry point at a position in a k-point sequence.
type Label struct {
	Index int
	Name  string
}

// KpointSet is an ordered set of reciprocal-space sampling points together
// with the lattice they are defined against. Points are stored in fractional
// coordinates of the reciprocal cell; without a cell they are taken as plain
// cartesian coordinates in inverse ångström.
type KpointSet struct {
	cell    [3][3]float64 // row vectors, ångström
	hasCell bool
	pbc     [3]bool
	points  [][3]float64
	weights []float64
	labels  []Label
	bravais string
}

// NewKpointSet returns an empty set with fully periodic boundary conditions.
func NewKpointSet() *KpointSet {
	return &KpointSet{pbc: [3]bool{true, true, true}}
}

func cellVolume(c [3][3]float64) float64 {
	// scalar triple product a1 . (a2 x a3)
	return c[0][0]*(c[1][1]*c[2][2]-c[1][2]*c[2][1]) -
		c[0][1]*(c[1][0]*c[2][2]-c[1][2]*c[2][0]) +
		c[0][2]*(c[1][0]*c[2][1]-c[1][1]*c[2][0])
}

// SetCell sets the real-space cell as three row vectors in ångström.
func (k *KpointSet) SetCell(cell [3][3]float64) error {
	if math.Abs(cellVolume(cell)) < 1e-12 {
		return fmt.Errorf("cell has zero volume")
	}
	k.cell = cell
	k.hasCell = true
	return nil
}

// Cell returns the real-space cell and whether one has been set.
func (k *KpointSet) Cell() ([3][3]float64, bool) {
	return k.cell, k.hasCell
}

// SetPBC sets the periodic boundary conditions along the three cell axes.
func (k *KpointSet) SetPBC(pbc [3]bool) { k.pbc = pbc }

// PBC returns the periodic boundary conditions.
func (k *KpointSet) PBC() [3]bool { return k.pbc }

// SetBravaisLattice records the bravais lattice name (see SpecialPoints for
// the recognised names).
func (k *KpointSet) SetBravaisLattice(name string) { k.bravais = name }

// BravaisLattice returns the recorded lattice name, if any.
func (k *KpointSet) BravaisLattice() (string, bool) {
	return k.bravais, k.bravais != ""
}

// NumKpoints returns the number of stored points.
func (k *KpointSet) NumKpoints() int { return len(k.points) }

// SetPoints stores points in fractional coordinates. weights may be nil;
// when given it must have one entry per point. Any previously set labels
// are cleared since their indices no longer refer to anything meaningful.
func (k *KpointSet) SetPoints(points [][3]float64, weights []float64) error {
	if weights != nil && len(weights) != len(points) {
		return fmt.Errorf("%d weights for %d kpoints", len(weights), len(points))
	}
	k.points = append([][3]float64(nil), points...)
	if weights == nil {
		k.weights = nil
	} else {
		k.weights = append([]float64(nil), weights...)
	}
	k.labels = nil
	return nil
}

// SetPointsCartesian stores points given in cartesian coordinates
// (inverse ångström), converting them to fractional. Requires a cell.
func (k *KpointSet) SetPointsCartesian(points [][3]float64, weights []float64) error {
	if !k.hasCell {
		return fmt.Errorf("cannot accept cartesian kpoints without a cell")
	}
	// frac_j = cart . a_j / 2pi for row vectors a_j.
	frac := make([][3]float64, len(points))
	for i, p := range points {
		for j := 0; j < 3; j++ {
			frac[i][j] = (p[0]*k.cell[j][0] + p[1]*k.cell[j][1] + p[2]*k.cell[j][2]) / (2 * math.Pi)
		}
	}
	return k.SetPoints(frac, weights)
}

// Points returns a copy of the stored fractional coordinates.
func (k *KpointSet) Points() [][3]float64 {
	return append([][3]float64(nil), k.points...)
}

// PointsCartesian returns the points in cartesian coordinates
// (inverse ångström). Requires a cell.
func (k *KpointSet) PointsCartesian() ([][3]float64, error) {
	rec, err := k.ReciprocalCell()
	if err != nil {
		return nil, err
	}
	out := make([][3]float64, len(k.points))
	for i, p := range k.points {
		for c := 0; c < 3; c++ {
			out[i][c] = p[0]*rec[0][c] + p[1]*rec[1][c] + p[2]*rec[2][c]
		}
	}
	return out, nil
}

// Weights returns the per-point weights and whether any were set.
func (k *KpointSet) Weights() ([]float64, bool) {
	if k.weights == nil {
		return nil, false
	}
	return append([]float64(nil), k.weights...), true
}

// SetLabels attaches names to point indices. Indices must be strictly
// increasing and within range.
func (k *KpointSet) SetLabels(labels []Label) error {
	prev := -1
	for _, l := range labels {
		if l.Index < 0 || l.Index >= len(k.points) {
			return fmt.Errorf("label %q index %d out of range [0,%d)", l.Name, l.Index, len(k.points))
		}
		if l.Index <= prev {
			return fmt.Errorf("label indices must be strictly increasing, got %d after %d", l.Index, prev)
		}
		prev = l.Index
	}
	k.labels = append([]Label(nil), labels...)
	return nil
}

// Labels returns a copy of the stored labels.
func (k *KpointSet) Labels() []Label {
	return append([]Label(nil), k.labels...)
}

// ReciprocalCell returns the reciprocal lattice vectors as rows,
// 2pi (cell^-1)^T, so that b_i . a_j = 2pi delta_ij.
func (k *KpointSet) ReciprocalCell() ([3][3]float64, error) {
	var rec [3][3]float64
	if !k.hasCell {
		return rec, fmt.Errorf("no cell set")
	}
	flat := make([]float64, 0, 9)
	for i := 0; i < 3; i++ {
		flat = append(flat, k.cell[i][0], k.cell[i][1], k.cell[i][2])
	}
	var inv mat.Dense
	if err := inv.Inverse(mat.NewDense(3, 3, flat)); err != nil {
		return rec, fmt.Errorf("inverting cell: %w", err)
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rec[i][j] = 2 * math.Pi * inv.At(j, i)
		}
	}
	return rec, nil
}

// Clone returns a deep copy of the set.
func (k *KpointSet) Clone() *KpointSet {
	c := &KpointSet{
		cell:    k.cell,
		hasCell: k.hasCell,
		pbc:     k.pbc,
		bravais: k.bravais,
	}
	c.points = append([][3]float64(nil), k.points...)
	if k.weights != nil {
		c.weights = append([]float64(nil), k.weights...)
	}
	if k.labels != nil {
		c.labels = append([]Label(nil), k.labels...)
	}
	return c
}

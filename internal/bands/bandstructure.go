// Package bands models electronic band structures: energies (and optional
// occupations) per band over an ordered set of reciprocal-space points.
// It provides the band-gap analysis used to classify metals and insulators
// and exporters for the common plotting formats.
package bands

import (
	"fmt"

	"github.com/borellim/bandkit/internal/ndarray"
	"github.com/borellim/bandkit/internal/units"
)

// Array names used when a band structure is flattened into a generic
// array bundle for storage.
const (
	ArrayBands       = "bands"
	ArrayOccupations = "occupations"
	ArrayKpoints     = "kpoints"
	ArrayWeights     = "weights"
)

// BandStructure holds band energies on a k-point set. The energies array is
// either nk x nb, or nspin x nk x nb for spin-polarised data; occupations,
// when present, have the same shape. Unknown energies are NaN.
type BandStructure struct {
	KpointSet

	energies    *ndarray.Array
	occupations *ndarray.Array
	units       string
	bandLabels  []string

	uuid        string
	label       string
	description string
}

// NewBandStructure returns an empty band structure in eV with fully
// periodic boundary conditions.
func NewBandStructure() *BandStructure {
	bs := &BandStructure{units: units.EV}
	bs.pbc = [3]bool{true, true, true}
	return bs
}

// SetKpointSet replaces the embedded k-point set with a deep copy of ks.
// Any stored bands are cleared since their k dimension no longer matches
// anything meaningful.
func (b *BandStructure) SetKpointSet(ks *KpointSet) {
	b.KpointSet = *ks.Clone()
	b.energies = nil
	b.occupations = nil
	b.bandLabels = nil
}

// SetBands stores the band energies. The k-points must be set first; the
// array must be rank 2 (nk x nb) or rank 3 (nspin x nk x nb) with the
// k dimension matching NumKpoints and at least one band. Stored
// occupations are cleared unless their shape still matches; band labels
// are cleared unless their count still matches.
func (b *BandStructure) SetBands(a *ndarray.Array) error {
	if a == nil {
		return fmt.Errorf("nil bands array")
	}
	nk := b.NumKpoints()
	if nk == 0 {
		return fmt.Errorf("set the kpoints before the bands")
	}
	var kdim, nb int
	switch a.Rank() {
	case 2:
		kdim, nb = a.Dim(0), a.Dim(1)
	case 3:
		kdim, nb = a.Dim(1), a.Dim(2)
		if a.Dim(0) == 0 {
			return fmt.Errorf("no spin channels in rank-3 bands array")
		}
	default:
		return fmt.Errorf("bands must be rank 2 or 3, got rank %d", a.Rank())
	}
	if kdim != nk {
		return fmt.Errorf("bands have %d kpoints, the kpoint set has %d", kdim, nk)
	}
	if nb == 0 {
		return fmt.Errorf("bands array has no bands")
	}

	b.energies = a
	if b.occupations != nil && !sameShape(b.occupations, a) {
		b.occupations = nil
	}
	if b.bandLabels != nil && len(b.bandLabels) != b.numArrays() {
		b.bandLabels = nil
	}
	return nil
}

func sameShape(a, b *ndarray.Array) bool {
	as, bs := a.Shape(), b.Shape()
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// SetOccupations stores per-state occupation numbers. The bands must be set
// first and the shape must match theirs exactly.
func (b *BandStructure) SetOccupations(a *ndarray.Array) error {
	if a == nil {
		b.occupations = nil
		return nil
	}
	if b.energies == nil {
		return fmt.Errorf("set the bands before the occupations")
	}
	if !sameShape(a, b.energies) {
		return fmt.Errorf("occupations shape %v does not match bands shape %v", a.Shape(), b.energies.Shape())
	}
	b.occupations = a
	return nil
}

// numArrays is the number of stored band arrays: one per spin channel for
// rank-3 data, one otherwise.
func (b *BandStructure) numArrays() int {
	if b.energies != nil && b.energies.Rank() == 3 {
		return b.energies.Dim(0)
	}
	return 1
}

// SetBandLabels names the stored band arrays (e.g. spin channels). The
// count must match the number of stored arrays; nil clears.
func (b *BandStructure) SetBandLabels(labels []string) error {
	if labels == nil {
		b.bandLabels = nil
		return nil
	}
	if b.energies == nil {
		return fmt.Errorf("set the bands before the band labels")
	}
	if len(labels) != b.numArrays() {
		return fmt.Errorf("%d band labels for %d band arrays", len(labels), b.numArrays())
	}
	b.bandLabels = append([]string(nil), labels...)
	return nil
}

// SetUnits records the energy units of the stored bands. Empty resets to eV.
func (b *BandStructure) SetUnits(u string) {
	if u == "" {
		u = units.EV
	}
	b.units = u
}

// Units returns the energy units of the stored bands.
func (b *BandStructure) Units() string { return b.units }

// Bands returns the stored energies array, or nil when none are set.
func (b *BandStructure) Bands() *ndarray.Array { return b.energies }

// Occupations returns the stored occupations, if any.
func (b *BandStructure) Occupations() (*ndarray.Array, bool) {
	if b.occupations == nil {
		return nil, false
	}
	return b.occupations, true
}

// BandLabels returns a copy of the band array labels.
func (b *BandStructure) BandLabels() []string {
	return append([]string(nil), b.bandLabels...)
}

// NumSpins returns the number of spin channels (1 for rank-2 data).
func (b *BandStructure) NumSpins() int {
	if b.energies == nil {
		return 0
	}
	return b.numArrays()
}

// NumBands returns the number of bands per spin channel.
func (b *BandStructure) NumBands() int {
	if b.energies == nil {
		return 0
	}
	return b.energies.Dim(b.energies.Rank() - 1)
}

// UUID returns the archive identity, empty for unsaved structures.
func (b *BandStructure) UUID() string { return b.uuid }

// SetUUID records the archive identity. Assigned on save and load.
func (b *BandStructure) SetUUID(id string) { b.uuid = id }

// Label returns the human-readable name.
func (b *BandStructure) Label() string { return b.label }

// SetLabel sets the human-readable name.
func (b *BandStructure) SetLabel(l string) { b.label = l }

// Description returns the free-form description.
func (b *BandStructure) Description() string { return b.description }

// SetDescription sets the free-form description.
func (b *BandStructure) SetDescription(d string) { b.description = d }

// Validate cross-checks the stored pieces: k-points present, bands present
// with matching k dimension, occupations and labels consistent.
func (b *BandStructure) Validate() error {
	if b.NumKpoints() == 0 {
		return fmt.Errorf("no kpoints stored")
	}
	if b.energies == nil {
		return fmt.Errorf("no bands stored")
	}
	kdim := b.energies.Dim(0)
	if b.energies.Rank() == 3 {
		kdim = b.energies.Dim(1)
	}
	if kdim != b.NumKpoints() {
		return fmt.Errorf("bands have %d kpoints, the kpoint set has %d", kdim, b.NumKpoints())
	}
	if b.occupations != nil && !sameShape(b.occupations, b.energies) {
		return fmt.Errorf("occupations shape %v does not match bands shape %v",
			b.occupations.Shape(), b.energies.Shape())
	}
	if b.bandLabels != nil && len(b.bandLabels) != b.numArrays() {
		return fmt.Errorf("%d band labels for %d band arrays", len(b.bandLabels), b.numArrays())
	}
	return nil
}

// flattenSpins returns the energies as nk rows. Spin-polarised data is
// joined per k-point, spin channels concatenated along the band axis.
func flattenSpins(a *ndarray.Array) [][]float64 {
	if a.Rank() == 2 {
		out, _ := a.Slice2D()
		return out
	}
	ns, nk, nb := a.Dim(0), a.Dim(1), a.Dim(2)
	out := make([][]float64, nk)
	data := a.Data()
	for k := 0; k < nk; k++ {
		row := make([]float64, 0, ns*nb)
		for s := 0; s < ns; s++ {
			base := (s*nk + k) * nb
			row = append(row, data[base:base+nb]...)
		}
		out[k] = row
	}
	return out
}

// ToBundle flattens the structure into a generic array bundle using the
// Array* names. Scalar attributes (units, cell, labels) are not part of the
// bundle; the caller persists them alongside.
func (b *BandStructure) ToBundle() (*ndarray.Bundle, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	bundle := ndarray.NewBundle()
	if err := bundle.SetArray(ArrayBands, b.energies); err != nil {
		return nil, err
	}
	if b.occupations != nil {
		if err := bundle.SetArray(ArrayOccupations, b.occupations); err != nil {
			return nil, err
		}
	}
	kpts := b.Points()
	flat := make([]float64, 0, 3*len(kpts))
	for _, p := range kpts {
		flat = append(flat, p[0], p[1], p[2])
	}
	ka, err := ndarray.FromData(flat, len(kpts), 3)
	if err != nil {
		return nil, err
	}
	if err := bundle.SetArray(ArrayKpoints, ka); err != nil {
		return nil, err
	}
	if w, ok := b.Weights(); ok {
		if err := bundle.SetArray(ArrayWeights, ndarray.FromSlice1D(w)); err != nil {
			return nil, err
		}
	}
	return bundle, nil
}

package bands

import (
	"encoding/json"
	"fmt"

	"github.com/borellim/bandkit/internal/ndarray"
)

// Document is the on-disk interchange form of a band structure. K-points
// are fractional unless Cartesian is set; bands and occupations are nk x nb
// arrays, or nspin x nk x nb when spin-polarised.
type Document struct {
	Label          string          `json:"label,omitempty"`
	Description    string          `json:"description,omitempty"`
	Units          string          `json:"units,omitempty"`
	Cell           *[3][3]float64  `json:"cell,omitempty"`
	PBC            *[3]bool        `json:"pbc,omitempty"`
	BravaisLattice string          `json:"bravais_lattice,omitempty"`
	Kpoints        [][3]float64    `json:"kpoints"`
	Cartesian      bool            `json:"cartesian,omitempty"`
	Weights        []float64       `json:"weights,omitempty"`
	Labels         []labelPair     `json:"labels,omitempty"`
	Bands          json.RawMessage `json:"bands"`
	Occupations    json.RawMessage `json:"occupations,omitempty"`
	BandLabels     []string        `json:"band_labels,omitempty"`
}

// labelPair serialises a path label as the two-element array [index, name].
type labelPair struct {
	Index int
	Name  string
}

func (l labelPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{l.Index, l.Name})
}

func (l *labelPair) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("a label is an [index, name] pair, got %d elements", len(raw))
	}
	if err := json.Unmarshal(raw[0], &l.Index); err != nil {
		return fmt.Errorf("label index: %w", err)
	}
	if err := json.Unmarshal(raw[1], &l.Name); err != nil {
		return fmt.Errorf("label name: %w", err)
	}
	return nil
}

// decodeArrayField parses a JSON number matrix of rank 2 or 3.
func decodeArrayField(raw json.RawMessage) (*ndarray.Array, error) {
	var r2 [][]float64
	if err := json.Unmarshal(raw, &r2); err == nil {
		return ndarray.FromSlice2D(r2)
	}
	var r3 [][][]float64
	if err := json.Unmarshal(raw, &r3); err == nil {
		return ndarray.FromSlice3D(r3)
	}
	return nil, fmt.Errorf("expected a 2- or 3-dimensional number array")
}

// DecodeDocument parses an interchange document and builds a fully
// validated band structure from it.
func DecodeDocument(data []byte) (*BandStructure, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing band document: %w", err)
	}
	if len(doc.Kpoints) == 0 {
		return nil, fmt.Errorf("band document has no kpoints")
	}
	if len(doc.Bands) == 0 {
		return nil, fmt.Errorf("band document has no bands")
	}

	ks := NewKpointSet()
	if doc.Cell != nil {
		if err := ks.SetCell(*doc.Cell); err != nil {
			return nil, fmt.Errorf("cell: %w", err)
		}
	}
	if doc.PBC != nil {
		ks.SetPBC(*doc.PBC)
	}
	if doc.BravaisLattice != "" {
		ks.SetBravaisLattice(doc.BravaisLattice)
	}
	if doc.Cartesian {
		if err := ks.SetPointsCartesian(doc.Kpoints, doc.Weights); err != nil {
			return nil, fmt.Errorf("kpoints: %w", err)
		}
	} else {
		if err := ks.SetPoints(doc.Kpoints, doc.Weights); err != nil {
			return nil, fmt.Errorf("kpoints: %w", err)
		}
	}
	if len(doc.Labels) > 0 {
		labels := make([]Label, len(doc.Labels))
		for i, l := range doc.Labels {
			labels[i] = Label{Index: l.Index, Name: l.Name}
		}
		if err := ks.SetLabels(labels); err != nil {
			return nil, fmt.Errorf("labels: %w", err)
		}
	}

	bs := NewBandStructure()
	bs.SetKpointSet(ks)
	bs.SetLabel(doc.Label)
	bs.SetDescription(doc.Description)
	bs.SetUnits(doc.Units)

	earr, err := decodeArrayField(doc.Bands)
	if err != nil {
		return nil, fmt.Errorf("bands: %w", err)
	}
	if err := bs.SetBands(earr); err != nil {
		return nil, fmt.Errorf("bands: %w", err)
	}
	if len(doc.Occupations) > 0 {
		oarr, err := decodeArrayField(doc.Occupations)
		if err != nil {
			return nil, fmt.Errorf("occupations: %w", err)
		}
		if err := bs.SetOccupations(oarr); err != nil {
			return nil, fmt.Errorf("occupations: %w", err)
		}
	}
	if len(doc.BandLabels) > 0 {
		if err := bs.SetBandLabels(doc.BandLabels); err != nil {
			return nil, fmt.Errorf("band_labels: %w", err)
		}
	}

	if err := bs.Validate(); err != nil {
		return nil, err
	}
	return bs, nil
}

// EncodeDocument renders the band structure as an indented interchange
// document, the lossless inverse of DecodeDocument. K-points are written
// fractional. Arrays with unknown (NaN) entries cannot be encoded.
func EncodeDocument(b *BandStructure) ([]byte, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	doc := Document{
		Label:       b.Label(),
		Description: b.Description(),
		Units:       b.Units(),
		Kpoints:     b.Points(),
		BandLabels:  b.BandLabels(),
	}
	if cell, ok := b.Cell(); ok {
		doc.Cell = &cell
	}
	pbc := b.PBC()
	doc.PBC = &pbc
	if bravais, ok := b.BravaisLattice(); ok {
		doc.BravaisLattice = bravais
	}
	if w, ok := b.Weights(); ok {
		doc.Weights = w
	}
	for _, l := range b.Labels() {
		doc.Labels = append(doc.Labels, labelPair{Index: l.Index, Name: l.Name})
	}

	var err error
	if doc.Bands, err = encodeArrayField(b.Bands()); err != nil {
		return nil, fmt.Errorf("bands: %w", err)
	}
	if occ, ok := b.Occupations(); ok {
		if doc.Occupations, err = encodeArrayField(occ); err != nil {
			return nil, fmt.Errorf("occupations: %w", err)
		}
	}

	return json.MarshalIndent(doc, "", "  ")
}

func encodeArrayField(a *ndarray.Array) (json.RawMessage, error) {
	if a.HasNaN() {
		return nil, fmt.Errorf("array has unknown (NaN) entries, which JSON cannot carry")
	}
	if a.Rank() == 3 {
		rows, err := a.Slice3D()
		if err != nil {
			return nil, err
		}
		return json.Marshal(rows)
	}
	rows, err := a.Slice2D()
	if err != nil {
		return nil, err
	}
	return json.Marshal(rows)
}

package bands

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/borellim/bandkit/internal/ndarray"
)

// Generator produces synthetic band structures for testing and demos.
type Generator struct {
	Seed      int64   // rng seed, same seed gives the same bands
	Bands     int     // bands per spin channel
	Spins     int     // 1 or 2
	Gap       float64 // eV between valence top and conduction bottom
	Bandwidth float64 // eV dispersion of each band
	Noise     float64 // eV amplitude of random jitter
	Occupied  int     // filled bands per spin channel
}

// NewGenerator creates a generator for a small unpolarised insulator.
func NewGenerator() *Generator {
	return &Generator{
		Seed:      1,
		Bands:     4,
		Spins:     1,
		Gap:       1.5,
		Bandwidth: 2.0,
		Noise:     0.02,
		Occupied:  2,
	}
}

// Generate builds cosine-dispersion bands over the path described by ks.
// The occupied manifold tops out at zero, the empty manifold starts at
// Gap; occupations are full/empty (2 per state, or 1 when spin-polarised).
func (g *Generator) Generate(ks *KpointSet) (*BandStructure, error) {
	nk := ks.NumKpoints()
	if nk == 0 {
		return nil, fmt.Errorf("the kpoint set has no points")
	}
	if g.Bands < 1 {
		return nil, fmt.Errorf("need at least one band, got %d", g.Bands)
	}
	if g.Spins != 1 && g.Spins != 2 {
		return nil, fmt.Errorf("spins must be 1 or 2, got %d", g.Spins)
	}
	if g.Occupied < 0 || g.Occupied > g.Bands {
		return nil, fmt.Errorf("%d occupied bands out of %d", g.Occupied, g.Bands)
	}

	// path parameter, normalised to [0,1]
	points := ks.Points()
	t := make([]float64, nk)
	for i := 1; i < nk; i++ {
		dx := points[i][0] - points[i-1][0]
		dy := points[i][1] - points[i-1][1]
		dz := points[i][2] - points[i-1][2]
		t[i] = t[i-1] + math.Sqrt(dx*dx+dy*dy+dz*dz)
	}
	if total := t[nk-1]; total > 0 {
		for i := range t {
			t[i] /= total
		}
	}

	rng := rand.New(rand.NewSource(g.Seed))
	fill := 2.0
	if g.Spins == 2 {
		fill = 1.0
	}

	energies := make([]float64, 0, g.Spins*nk*g.Bands)
	occupations := make([]float64, 0, g.Spins*nk*g.Bands)
	for s := 0; s < g.Spins; s++ {
		for k := 0; k < nk; k++ {
			wave := (1 - math.Cos(2*math.Pi*t[k])) * g.Bandwidth / 4
			for j := 0; j < g.Bands; j++ {
				var e float64
				if j < g.Occupied {
					depth := float64(g.Occupied - 1 - j)
					e = -depth*g.Bandwidth/2 - wave
				} else {
					lift := float64(j - g.Occupied)
					e = g.Gap + lift*g.Bandwidth/2 + wave
				}
				e += g.Noise * (2*rng.Float64() - 1)
				energies = append(energies, e)
				if j < g.Occupied {
					occupations = append(occupations, fill)
				} else {
					occupations = append(occupations, 0)
				}
			}
		}
	}

	shape := []int{nk, g.Bands}
	if g.Spins == 2 {
		shape = []int{2, nk, g.Bands}
	}
	earr, err := ndarray.FromData(energies, shape...)
	if err != nil {
		return nil, err
	}
	oarr, err := ndarray.FromData(occupations, shape...)
	if err != nil {
		return nil, err
	}

	bs := NewBandStructure()
	bs.SetKpointSet(ks)
	if err := bs.SetBands(earr); err != nil {
		return nil, err
	}
	if err := bs.SetOccupations(oarr); err != nil {
		return nil, err
	}
	if g.Spins == 2 {
		if err := bs.SetBandLabels([]string{"up", "down"}); err != nil {
			return nil, err
		}
	}
	return bs, nil
}

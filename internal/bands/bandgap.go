package bands

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// GapOptions selects the input for the band-gap search. At most one of
// NumberElectrons and FermiEnergy may be set; with neither, stored
// occupations are required.
type GapOptions struct {
	NumberElectrons *int
	FermiEnergy     *float64
}

// Metallicity is the outcome of a band-gap search. The zero value is a
// metal: no gap exists, GapValid is false. A semimetal has a valid gap of
// exactly zero; an insulator a positive one.
type Metallicity struct {
	Insulator bool    `json:"is_insulator"`
	Gap       float64 `json:"gap"`
	GapValid  bool    `json:"gap_valid"`
}

// nint rounds half away from zero.
func nint(x float64) int {
	if x > 0 {
		return int(x + 0.5)
	}
	return int(x - 0.5)
}

// FindBandgap guesses whether the band structure describes an insulator.
//
// The default analysis reads the stored occupations to infer the electron
// count and the occupied manifold. Occupations from a smeared calculation
// can leak into the conduction bands, so when the electron count is known
// prefer passing NumberElectrons; with FermiEnergy set the analysis runs on
// level extrema instead and needs no occupations. The k-point grid is
// assumed dense enough that a valence/conduction intersection, if present,
// is actually sampled.
func FindBandgap(bs *BandStructure, opts GapOptions) (Metallicity, error) {
	var none Metallicity
	if opts.NumberElectrons != nil && opts.FermiEnergy != nil {
		return none, fmt.Errorf("specify either the number of electrons or the fermi energy, but not both")
	}

	stored := bs.Bands()
	if stored == nil {
		return none, fmt.Errorf("cannot do a band analysis without bands")
	}
	if stored.HasNaN() {
		return none, fmt.Errorf("bands contain unknown energies")
	}

	// Spin-polarised data is joined per k-point before any analysis.
	eband := flattenSpins(stored)
	nk := len(eband)
	rank := stored.Rank()

	if opts.FermiEnergy != nil {
		return gapFromFermi(eband, *opts.FermiEnergy)
	}

	var homo, lumo []float64
	var numberElectrons int

	if opts.NumberElectrons == nil {
		occArr, ok := bs.Occupations()
		if !ok {
			return none, fmt.Errorf("cannot determine metallicity without either the fermi energy or occupations")
		}
		if occArr.HasNaN() {
			return none, fmt.Errorf("occupations contain unknown values")
		}
		occ := flattenSpins(occArr)

		// Sort the states of every k-point by energy, occupations
		// following: joining spin channels leaves them unsorted.
		type state struct{ e, o float64 }
		for k := range eband {
			states := make([]state, len(eband[k]))
			for i := range eband[k] {
				states[i] = state{eband[k][i], occ[k][i]}
			}
			sort.SliceStable(states, func(i, j int) bool { return states[i].e < states[j].e })
			for i, s := range states {
				eband[k][i], occ[k][i] = s.e, s.o
			}
		}

		total := 0.0
		for _, row := range occ {
			for _, o := range row {
				total += o
			}
		}
		numberElectrons = int(math.Round(total / float64(nk)))

		homoIdx := make([]int, nk)
		for k, row := range occ {
			last := -1
			for i, o := range row {
				if nint(o) > 0 {
					last = i
				}
			}
			if last < 0 {
				return none, fmt.Errorf("no occupied states at kpoint %d", k)
			}
			homoIdx[k] = last
		}
		for k := 1; k < nk; k++ {
			if homoIdx[k] != homoIdx[0] {
				// the highest occupied level changes across k-points,
				// so valence and conduction bands intersect
				return none, nil
			}
		}

		homo = make([]float64, nk)
		lumo = make([]float64, nk)
		for k := range eband {
			h := homoIdx[k]
			if h+1 >= len(eband[k]) {
				return none, fmt.Errorf("to tell a metal from an insulator, need more bands than the number of electrons")
			}
			homo[k] = eband[k][h]
			lumo[k] = eband[k][h+1]
		}
	} else {
		numberElectrons = *opts.NumberElectrons
		if numberElectrons < 1 {
			return none, fmt.Errorf("number of electrons must be positive, got %d", numberElectrons)
		}
		for k := range eband {
			sort.Float64s(eband[k])
		}

		// Zero-temperature filling: 2 electrons per band, or 1 for
		// spin-polarised data where each channel is its own band.
		electronsPerBand := 4 - rank
		h := numberElectrons/electronsPerBand - 1
		l := numberElectrons / electronsPerBand
		if h < 0 {
			// a single electron in an unpolarised calculation half-fills
			// the lowest band
			return none, nil
		}
		if l >= len(eband[0]) {
			return none, fmt.Errorf("to tell a metal from an insulator, need more bands than the number of electrons")
		}
		homo = make([]float64, nk)
		lumo = make([]float64, nk)
		for k := range eband {
			homo[k] = eband[k][h]
			lumo[k] = eband[k][l]
		}
	}

	if numberElectrons%2 == 1 && rank == 2 {
		// an odd electron count without spin polarisation half-fills the
		// top occupied band
		return none, nil
	}

	gap := floats.Min(lumo) - floats.Max(homo)
	switch {
	case gap == 0:
		return Metallicity{Gap: 0, GapValid: true}, nil
	case gap < 0:
		return none, nil
	default:
		return Metallicity{Insulator: true, Gap: gap, GapValid: true}, nil
	}
}

// gapFromFermi classifies on per-level extrema: a level crossed by the
// fermi energy means a metal, a level touching it from both sides a
// semimetal (this only triggers when the touching point is actually
// sampled), otherwise the gap spans the extrema bracketing the fermi
// energy.
func gapFromFermi(eband [][]float64, fermi float64) (Metallicity, error) {
	var none Metallicity
	for k := range eband {
		sort.Float64s(eband[k])
	}
	nb := len(eband[0])

	maxs := make([]float64, nb)
	mins := make([]float64, nb)
	for i := 0; i < nb; i++ {
		maxs[i] = math.Inf(-1)
		mins[i] = math.Inf(1)
		for k := range eband {
			if eband[k][i] > maxs[i] {
				maxs[i] = eband[k][i]
			}
			if eband[k][i] < mins[i] {
				mins[i] = eband[k][i]
			}
		}
	}

	if fermi > floats.Max(maxs) {
		return none, fmt.Errorf("the fermi energy is above all band energies")
	}
	if fermi < floats.Min(mins) {
		return none, fmt.Errorf("the fermi energy is below all band energies")
	}

	for i := 0; i < nb; i++ {
		if mins[i] < fermi && fermi < maxs[i] {
			return none, nil
		}
	}

	touchesFromBelow := false
	touchesFromAbove := false
	for i := 0; i < nb; i++ {
		if maxs[i] == fermi {
			touchesFromBelow = true
		}
		if mins[i] == fermi {
			touchesFromAbove = true
		}
	}
	if touchesFromBelow && touchesFromAbove {
		return Metallicity{Gap: 0, GapValid: true}, nil
	}

	homo := math.Inf(-1)
	for i := 0; i < nb; i++ {
		if maxs[i] < fermi && maxs[i] > homo {
			homo = maxs[i]
		}
	}
	if math.IsInf(homo, -1) {
		return none, fmt.Errorf("no band maximum below the fermi energy")
	}
	lumo := math.Inf(1)
	for i := 0; i < nb; i++ {
		if mins[i] > fermi && mins[i] < lumo {
			lumo = mins[i]
		}
	}
	if math.IsInf(lumo, 1) {
		return none, fmt.Errorf("no band minimum above the fermi energy")
	}

	gap := lumo - homo
	if gap <= 0 {
		return none, fmt.Errorf("internal inconsistency: non-positive gap %g from level analysis", gap)
	}
	return Metallicity{Insulator: true, Gap: gap, GapValid: true}, nil
}

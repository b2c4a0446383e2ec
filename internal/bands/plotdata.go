package bands

import (
	"math"
)

// axisLabel is a plot label placed at an x coordinate on the path axis.
type axisLabel struct {
	X    float64
	Name string
}

// plotInfo carries everything the exporters draw: the cumulative path
// coordinate, the spin-flattened band matrix and the merged axis labels.
type plotInfo struct {
	X      []float64
	Bands  [][]float64 // nk rows, all spin channels joined
	Labels []axisLabel
	// Filename is the main data file path, referenced by batch exports.
	Filename string
}

// buildPlotInfo assembles the plot data. Distances along the x axis use
// cartesian coordinates when requested and a cell is available, otherwise
// the stored coordinates. Two consecutively labelled points mark a path
// discontinuity and contribute zero distance, which stacks their labels on
// the same x coordinate; stacked labels merge as "a|b". grace switches the
// Gamma escape needed by xmgrace string syntax.
func (b *BandStructure) buildPlotInfo(cartesian, grace bool) (*plotInfo, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	kpoints := b.Points()
	if cartesian {
		if cart, err := b.PointsCartesian(); err == nil {
			kpoints = cart
		}
	}

	labels := b.Labels()
	labelled := make(map[int]bool, len(labels))
	for _, l := range labels {
		labelled[l.Index] = true
	}

	x := make([]float64, len(kpoints))
	for i := 1; i < len(kpoints); i++ {
		d := 0.0
		if !(labelled[i] && labelled[i-1]) {
			dx := kpoints[i][0] - kpoints[i-1][0]
			dy := kpoints[i][1] - kpoints[i-1][1]
			dz := kpoints[i][2] - kpoints[i-1][2]
			d = math.Sqrt(dx*dx + dy*dy + dz*dz)
		}
		x[i] = x[i-1] + d
	}

	placed := make([]axisLabel, len(labels))
	for i, l := range labels {
		placed[i] = axisLabel{X: x[l.Index], Name: l.Name}
	}

	var merged []axisLabel
	if len(placed) > 0 {
		merged = append(merged, placed[0])
		j := 0
		for i := 1; i < len(placed); i++ {
			if grace && merged[j].Name == "G" {
				merged[j].Name = `\xG`
			}
			if placed[i].X == placed[i-1].X {
				merged[j].Name += "|" + placed[i].Name
			} else {
				merged = append(merged, placed[i])
				j++
			}
		}
		if grace && merged[j].Name == "G" {
			merged[j].Name = `\xG`
		}
	}

	return &plotInfo{
		X:      x,
		Bands:  flattenSpins(b.energies),
		Labels: merged,
	}, nil
}

// transpose returns the band matrix as one row per band.
func transpose(bands [][]float64) [][]float64 {
	if len(bands) == 0 {
		return nil
	}
	nb := len(bands[0])
	out := make([][]float64, nb)
	for j := 0; j < nb; j++ {
		row := make([]float64, len(bands))
		for i := range bands {
			row[i] = bands[i][j]
		}
		out[j] = row
	}
	return out
}

// matrixMinMax returns the extrema over the whole band matrix.
func matrixMinMax(bands [][]float64) (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, row := range bands {
		for _, v := range row {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	return min, max
}

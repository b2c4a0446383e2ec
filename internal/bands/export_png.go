package bands

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// preparePNG draws the band structure as a line plot, one line per band,
// coloured by spin channel, with the axis labels as x ticks.
func preparePNG(b *BandStructure, info *plotInfo, o *ExportOptions) (string, map[string]string, error) {
	p := plot.New()
	p.Title.Text = o.Title
	p.X.Label.Text = ""
	p.Y.Label.Text = fmt.Sprintf("Dispersion (%s)", b.Units())

	shifted := make([][]float64, len(info.Bands))
	for i, row := range info.Bands {
		r := make([]float64, len(row))
		for j, v := range row {
			r[j] = v - o.YOrigin
		}
		shifted[i] = r
	}
	theBands := transpose(shifted)

	yMin, yMax := matrixMinMax(shifted)
	if o.YMin != nil {
		yMin = *o.YMin
	}
	if o.YMax != nil {
		yMax = *o.YMax
	}
	p.X.Min = floats.Min(info.X)
	p.X.Max = floats.Max(info.X)
	p.Y.Min = yMin
	p.Y.Max = yMax

	if len(info.Labels) > 0 {
		ticks := make([]plot.Tick, 0, len(info.Labels))
		for _, l := range info.Labels {
			ticks = append(ticks, plot.Tick{Value: l.X, Label: l.Name})
		}
		p.X.Tick.Marker = plot.ConstantTicks(ticks)
	}

	// vertical guide at every axis label
	for _, l := range info.Labels {
		guide, err := plotter.NewLine(plotter.XYs{{X: l.X, Y: yMin}, {X: l.X, Y: yMax}})
		if err != nil {
			return "", nil, err
		}
		guide.Color = color.Gray{Y: 0xb0}
		guide.Width = vg.Points(0.5)
		p.Add(guide)
	}

	nb := b.NumBands()
	colors := spinColors(b.NumSpins())
	for j, band := range theBands {
		pts := make(plotter.XYs, len(info.X))
		for k, xv := range info.X {
			pts[k] = plotter.XY{X: xv, Y: band[k]}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return "", nil, err
		}
		line.Color = colors[j/nb]
		line.Width = vg.Points(1)
		p.Add(line)
		if j == 0 && o.Legend != "" {
			p.Legend.Add(o.Legend, line)
			p.Legend.Top = true
		}
	}

	wt, err := p.WriterTo(14*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return "", nil, err
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return "", nil, err
	}
	return buf.String(), nil, nil
}

// spinColors creates a palette of distinct colors, one per spin channel.
// Unpolarised data plots in black.
func spinColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []color.Color{color.Black}
	}

	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64

	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}

	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}

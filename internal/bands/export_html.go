package bands

import (
	"bytes"
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// prepareHTML renders a standalone interactive page with one line series
// per band, using go-echarts.
func prepareHTML(b *BandStructure, info *plotInfo, o *ExportOptions) (string, map[string]string, error) {
	title := o.Title
	if title == "" {
		title = b.Label()
	}
	if title == "" {
		title = "Band structure"
	}

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

	xMax := 0.0
	if n := len(info.X); n > 0 {
		xMax = info.X[n-1]
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("points=%d bands=%d", len(info.Bands), len(theBands))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Min: 0, Max: xMax, Name: "k-point path"}),
		charts.WithYAxisOpts(opts.YAxis{Min: yMin, Max: yMax, Name: fmt.Sprintf("Dispersion (%s)", b.Units()), NameLocation: "middle", NameGap: 40}),
	)

	nb := b.NumBands()
	bandLabels := b.BandLabels()
	for j, band := range theBands {
		data := make([]opts.LineData, len(info.X))
		for k, xv := range info.X {
			data[k] = opts.LineData{Value: []interface{}{xv, band[k]}}
		}
		name := fmt.Sprintf("band %d", j+1)
		if len(bandLabels) > 0 {
			name = fmt.Sprintf("%s band %d", bandLabels[j/nb], j%nb+1)
		}
		line.AddSeries(name, data,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	}

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return "", nil, err
	}
	return buf.String(), nil, nil
}

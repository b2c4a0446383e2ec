package bands

import (
	"embed"
	"fmt"
	"math"
	"strconv"
	"strings"
	"text/template"

	"gonum.org/v1/gonum/floats"
)

//go:embed templates/*.tmpl
var graceTemplateFS embed.FS

var graceTemplates = template.Must(template.ParseFS(graceTemplateFS, "templates/*.tmpl"))

// maxGraceColors is the highest colour index defined in the grace colour map.
const maxGraceColors = 15

func renderGrace(name string, data interface{}) (string, error) {
	var sb strings.Builder
	if err := graceTemplates.ExecuteTemplate(&sb, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return sb.String(), nil
}

// ytickSpacing picks the major tick spacing on the y axis: the power of ten
// just below the plotted span, written the way grace expects it.
func ytickSpacing(span float64) string {
	if span <= 0 {
		return "1"
	}
	exp := int(math.Log10(span))
	if exp >= 0 {
		return strconv.Itoa(int(math.Pow10(exp)))
	}
	return floatString(math.Pow10(exp))
}

// prepareAgr renders a complete xmgrace project file, one xy set per band.
func prepareAgr(b *BandStructure, info *plotInfo, o *ExportOptions) (string, map[string]string, error) {
	color := o.colorIndex()
	if color > maxGraceColors {
		return "", nil, fmt.Errorf("color number %d is too high (at most %d)", color, maxGraceColors)
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
	xMin := floats.Min(info.X)
	xMax := floats.Max(info.X)

	var singles strings.Builder
	for i, l := range info.Labels {
		s, err := renderGrace("xtick.agr.tmpl", struct {
			Index int
			Coord string
			Name  string
		}{i, floatString(l.X), l.Name})
		if err != nil {
			return "", nil, err
		}
		singles.WriteString(s)
	}
	xticks, err := renderGrace("xticks.agr.tmpl", struct {
		NumLabels    int
		SingleXticks string
	}{len(info.Labels), singles.String()})
	if err != nil {
		return "", nil, err
	}

	sets := make([]string, len(theBands))
	var descs strings.Builder
	for i, band := range theBands {
		var data strings.Builder
		for k, xv := range info.X {
			fmt.Fprintf(&data, "%.8f\t%.8f\n", xv, band[k])
		}
		legend := ""
		if i == 0 {
			legend = o.Legend
		}
		desc, err := renderGrace("set-description.agr.tmpl", struct {
			SetNumber   int
			Linewidth   string
			ColorNumber int
			Legend      string
		}{i + o.SetOffset, "2.0", color, legend})
		if err != nil {
			return "", nil, err
		}
		descs.WriteString(desc)

		set, err := renderGrace("set-data.agr.tmpl", struct {
			SetNumber int
			XYData    string
		}{i + o.SetOffset, data.String()})
		if err != nil {
			return "", nil, err
		}
		sets[i] = set
	}

	graphs, err := renderGrace("graph.agr.tmpl", struct {
		XMinLim, YMinLim, XMaxLim, YMaxLim string
		Title                              string
		YAxisLabel                         string
		XTicks                             string
		YTickSpacing                       string
		SetDescriptions                    string
	}{
		floatString(xMin), floatString(yMin), floatString(xMax), floatString(yMax),
		o.Title,
		fmt.Sprintf("Dispersion (%s)", b.Units()),
		xticks,
		ytickSpacing(yMax - yMin),
		descs.String(),
	})
	if err != nil {
		return "", nil, err
	}

	out, err := renderGrace("project.agr.tmpl", struct {
		Graphs string
		Sets   string
	}{graphs, strings.Join(sets, "&\n")})
	if err != nil {
		return "", nil, err
	}
	return out, nil, nil
}

// prepareAgrBatch renders the band data as gnuplot-style blocks plus one
// vertical line per axis label, and a grace batch script as an extra file.
// Plot it with: xmgrace -batch batch.dat
func prepareAgrBatch(b *BandStructure, info *plotInfo, o *ExportOptions) (string, map[string]string, error) {
	numBands := len(info.Bands[0])
	numLabels := len(info.Labels)

	yMin, yMax := matrixMinMax(info.Bands)
	xMin := floats.Min(info.X)
	xMax := floats.Max(info.X)

	rawData, _, err := prepareDat2(b, info, o)
	if err != nil {
		return "", nil, err
	}
	for _, l := range info.Labels {
		rawData += fmt.Sprintf("%s\t%s\n%s\t%s\n",
			floatString(l.X), floatString(yMin), floatString(l.X), floatString(yMax))
	}

	filename := info.Filename
	if filename == "" {
		filename = "bands.dat"
	}

	batch := []string{
		fmt.Sprintf(`READ XY "%s"`, filename),
		fmt.Sprintf("world %s, %s, %s, %s",
			floatString(xMin), floatString(yMin), floatString(xMax), floatString(yMax)),
		`yaxis label "Dispersion"`,
		"xaxis  tick place both",
		"xaxis  tick spec type both",
		fmt.Sprintf("xaxis  tick spec %d", numLabels),
	}
	for i, l := range info.Labels {
		batch = append(batch, fmt.Sprintf("xaxis  tick major %d, %s", i, floatString(l.X)))
		batch = append(batch, fmt.Sprintf(`xaxis  ticklabel %d, "%s"`, i, l.Name))
	}
	batch = append(batch,
		"yaxis  tick minor ticks 3",
		"frame linewidth 2.0",
		`map font 4 to "Helvetica", "Helvetica"`,
		"yaxis  label font 4",
		"xaxis  label font 4",
	)
	for i := 0; i < numBands; i++ {
		batch = append(batch, fmt.Sprintf("s%d line color 1", i))
		batch = append(batch, fmt.Sprintf("s%d linewidth 1", i))
	}
	for i := numBands; i < numBands+numLabels; i++ {
		batch = append(batch, fmt.Sprintf("s%d line color 1", i))
		batch = append(batch, fmt.Sprintf("s%d linewidth 2", i))
	}

	extra := map[string]string{"batch.dat": strings.Join(batch, "\n") + "\n"}
	return rawData, extra, nil
}

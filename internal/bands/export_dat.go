package bands

import (
	"fmt"
	"strings"
)

// prepareDat1 writes one row per kpoint: the path coordinate followed by
// every band energy at that point.
func prepareDat1(b *BandStructure, info *plotInfo, o *ExportOptions) (string, map[string]string, error) {
	rows := make([]string, 0, len(info.X))
	for i, xv := range info.X {
		cols := make([]string, 0, 1+len(info.Bands[i]))
		cols = append(cols, fmt.Sprintf("%.8f", xv))
		for _, e := range info.Bands[i] {
			cols = append(cols, fmt.Sprintf("%.8f", e))
		}
		rows = append(rows, strings.Join(cols, "\t"))
	}
	return strings.Join(rows, "\n") + "\n", nil, nil
}

// prepareDat2 writes gnuplot-style blocks, one per band, separated by two
// blank lines.
func prepareDat2(b *BandStructure, info *plotInfo, o *ExportOptions) (string, map[string]string, error) {
	var rows []string
	for _, band := range transpose(info.Bands) {
		for i, xv := range info.X {
			rows = append(rows, fmt.Sprintf("%.8f\t%.8f", xv, band[i]))
		}
		rows = append(rows, "", "")
	}
	return strings.Join(rows, "\n"), nil, nil
}

package bands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/borellim/bandkit/internal/security"
	"github.com/borellim/bandkit/internal/units"
	"github.com/borellim/bandkit/internal/version"
)

// ExportOptions tune the exporters. The zero value (and a nil pointer) give
// the defaults: comment header on, cartesian distances on.
type ExportOptions struct {
	// Format selects the exporter; empty lets Export detect it from the
	// file extension (".dat" selects dat_1).
	Format string
	// Comments prepends the informational header to the text formats.
	Comments *bool
	// Cartesian computes x-axis distances in cartesian coordinates; this
	// falls back to the stored coordinates when no cell is set.
	Cartesian *bool
	// Overwrite lets Export replace existing files.
	Overwrite bool
	// Units converts the band energies from the stored units before
	// rendering; empty keeps them as stored.
	Units string

	// Grace tuning, used by the agr exporter.
	Title      string
	Legend     string   // applied to the first set only
	SetOffset  int      // added to all grace set numbers
	ColorIndex int      // grace colour of the band lines, 1..15
	YMin       *float64 // y axis limits, band extrema when nil
	YMax       *float64
	YOrigin    float64 // subtracted from all band energies
}

func (o *ExportOptions) comments() bool {
	return o == nil || o.Comments == nil || *o.Comments
}

func (o *ExportOptions) cartesianDistances() bool {
	return o == nil || o.Cartesian == nil || *o.Cartesian
}

func (o *ExportOptions) overwrite() bool {
	return o != nil && o.Overwrite
}

func (o *ExportOptions) colorIndex() int {
	if o == nil || o.ColorIndex == 0 {
		return 1
	}
	return o.ColorIndex
}

// preparer renders plot data into the main file body plus any extra files
// keyed by file name relative to the main file.
type preparer func(b *BandStructure, info *plotInfo, o *ExportOptions) (string, map[string]string, error)

type exportFormat struct {
	prepare preparer
	grace   bool // labels need the xmgrace Gamma escape
	text    bool // the comment header applies
}

var formatRegistry = map[string]exportFormat{
	"agr":       {prepareAgr, true, true},
	"agr_batch": {prepareAgrBatch, true, true},
	"dat_1":     {prepareDat1, false, true},
	"dat_2":     {prepareDat2, false, true},
	"json":      {prepareJSON, false, false},
	"png":       {preparePNG, false, false},
	"html":      {prepareHTML, false, false},
}

// ExportFormats returns the recognised format names in sorted order.
func ExportFormats() []string {
	names := make([]string, 0, len(formatRegistry))
	for name := range formatRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExportString renders the band structure in the named format. The second
// return value maps extra file names (relative to the main file) to their
// contents; only multi-file formats use it.
func ExportString(b *BandStructure, format string, opts *ExportOptions) (string, map[string]string, error) {
	return exportString(b, format, opts, "")
}

func exportString(b *BandStructure, format string, opts *ExportOptions, path string) (string, map[string]string, error) {
	ef, ok := formatRegistry[format]
	if !ok {
		return "", nil, fmt.Errorf("unknown export format %q (valid: %s)", format, strings.Join(ExportFormats(), ", "))
	}

	o := opts
	if o == nil {
		o = &ExportOptions{}
	}

	info, err := b.buildPlotInfo(o.cartesianDistances(), ef.grace)
	if err != nil {
		return "", nil, err
	}
	info.Filename = path

	if target := o.Units; target != "" && target != b.Units() {
		if !units.IsValid(target) {
			return "", nil, fmt.Errorf("unknown units %q (valid: %s)", target, units.GetValidUnitsString())
		}
		if !units.IsValid(b.Units()) {
			return "", nil, fmt.Errorf("cannot convert from stored units %q", b.Units())
		}
		for _, row := range info.Bands {
			for i, v := range row {
				row[i] = units.Convert(v, b.Units(), target)
			}
		}
		// Shallow copy so the axis labels pick up the target units
		// without touching the caller's structure.
		converted := *b
		converted.units = target
		b = &converted
	}

	body, extra, err := ef.prepare(b, info, o)
	if err != nil {
		return "", nil, err
	}

	if ef.text && o.comments() {
		body = commentHeader(b, info) + body
	}
	return body, extra, nil
}

// Export writes the band structure to path, detecting the format from the
// extension unless opts names one. Extra files of multi-file formats land
// next to the main file and must stay inside its directory. Existing files
// are only replaced with opts.Overwrite.
func Export(b *BandStructure, path string, opts *ExportOptions) error {
	if path == "" {
		return fmt.Errorf("empty export path")
	}

	format := ""
	if opts != nil {
		format = opts.Format
	}
	if format == "" {
		ext := strings.TrimPrefix(filepath.Ext(path), ".")
		if ext == "" {
			return fmt.Errorf("cannot recognise the file format from %q", path)
		}
		format = ext
		if ext == "dat" {
			format = "dat_1"
		}
	}

	if _, err := os.Stat(path); err == nil && !opts.overwrite() {
		return fmt.Errorf("a file already exists at %s", path)
	}

	body, extra, err := exportString(b, format, opts, path)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	extraNames := make([]string, 0, len(extra))
	for name := range extra {
		extraNames = append(extraNames, name)
	}
	sort.Strings(extraNames)
	for _, name := range extraNames {
		target := filepath.Join(dir, name)
		if err := security.ValidatePathWithinDirectory(target, dir); err != nil {
			return fmt.Errorf("extra file %q: %w", name, err)
		}
		if _, err := os.Stat(target); err == nil && !opts.overwrite() {
			return fmt.Errorf("a file already exists at %s", target)
		}
		if err := os.WriteFile(target, []byte(extra[name]), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", target, err)
		}
	}

	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// commentHeader is the informational preamble of the text formats.
func commentHeader(b *BandStructure, info *plotInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Created with bandkit %s\n#\n", version.Version)
	if b.UUID() != "" {
		fmt.Fprintf(&sb, "# Dumped from BandStructure UUID=%s\n", b.UUID())
	} else {
		sb.WriteString("# Dumped from BandStructure\n")
	}
	sb.WriteString("#\tpoints\tbands\n")
	nb := 0
	if len(info.Bands) > 0 {
		nb = len(info.Bands[0])
	}
	fmt.Fprintf(&sb, "#\t%d\t%d\n", len(info.Bands), nb)
	sb.WriteString("# \tlabel\tpoint\n")
	for _, l := range info.Labels {
		fmt.Fprintf(&sb, "#\t%s\t%.8f\n", l.Name, l.X)
	}
	sb.WriteString("\n")
	return sb.String()
}

// floatString formats v the way a plain decimal literal reads: 12
// significant digits with a trailing .0 kept on integral values.
func floatString(v float64) string {
	s := strconv.FormatFloat(v, 'g', 12, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

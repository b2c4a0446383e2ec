package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/borellim/bandkit/internal/archive"
	"github.com/borellim/bandkit/internal/bands"
	"github.com/borellim/bandkit/internal/httputil"
	"github.com/borellim/bandkit/internal/security"
	"github.com/borellim/bandkit/internal/units"
)

// loadBands fetches the band structure named by the uuid query parameter,
// writing the error response itself when the load fails.
func (ws *WebServer) loadBands(w http.ResponseWriter, r *http.Request) (*bands.BandStructure, bool) {
	id := r.URL.Query().Get("uuid")
	if id == "" {
		httputil.BadRequest(w, "missing 'uuid' parameter")
		return nil, false
	}

	bs, _, err := ws.archive.Nodes().LoadBands(id)
	if err != nil {
		switch {
		case errors.Is(err, archive.ErrNotFound):
			httputil.NotFound(w, err.Error())
		case errors.Is(err, archive.ErrWrongNodeType):
			httputil.BadRequest(w, err.Error())
		default:
			httputil.InternalServerError(w, fmt.Sprintf("load bands: %v", err))
		}
		return nil, false
	}
	return bs, true
}

// boolParam reads an optional boolean query parameter, nil when absent.
func boolParam(q url.Values, name string) (*bool, error) {
	v := q.Get(name)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fmt.Errorf("invalid '%s' parameter: %s", name, v)
	}
	return &b, nil
}

func validExportFormat(format string) bool {
	for _, f := range bands.ExportFormats() {
		if f == format {
			return true
		}
	}
	return false
}

// exportContentType maps a format name to its MIME type.
func exportContentType(format string) string {
	switch format {
	case "json":
		return "application/json"
	case "html":
		return "text/html; charset=utf-8"
	case "png":
		return "image/png"
	default:
		return "text/plain; charset=utf-8"
	}
}

// exportFilename builds the download name from the node uuid and format.
func exportFilename(id, format string) string {
	ext := format
	switch format {
	case "dat_1", "dat_2":
		ext = "dat"
	case "agr_batch":
		ext = "agr"
	}
	if len(id) > 8 {
		id = id[:8]
	}
	return security.SanitizeFilename(fmt.Sprintf("bands-%s.%s", id, ext))
}

// handleBands returns the visualiser document for one band structure.
// Query params:
//
//	uuid (required)
func (ws *WebServer) handleBands(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	bs, ok := ws.loadBands(w, r)
	if !ok {
		return
	}

	body, _, err := bands.ExportString(bs, "json", nil)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render bands: %v", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

// handleBandsExport serves one band structure in an export format as an
// attachment download.
// Query params:
//
//	uuid (required)
//	format (optional, default json)
//	comments (optional bool) - include the informational header
//	cartesian (optional bool) - cartesian x-axis distances
func (ws *WebServer) handleBandsExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = "json"
	}
	if !validExportFormat(format) {
		httputil.BadRequest(w, fmt.Sprintf("unknown export format %q (valid: %s)", format, strings.Join(bands.ExportFormats(), ", ")))
		return
	}

	opts := &bands.ExportOptions{}
	var err error
	if opts.Comments, err = boolParam(q, "comments"); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if opts.Cartesian, err = boolParam(q, "cartesian"); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	bs, ok := ws.loadBands(w, r)
	if !ok {
		return
	}

	body, extra, err := bands.ExportString(bs, format, opts)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("export bands: %v", err))
		return
	}
	if len(extra) > 0 {
		httputil.BadRequest(w, fmt.Sprintf("format %q writes multiple files, use 'bandctl export' instead", format))
		return
	}

	w.Header().Set("Content-Type", exportContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", exportFilename(bs.UUID(), format)))
	_, _ = w.Write([]byte(body))
}

// handleBandsGap runs the band-gap analysis on one band structure.
// Query params:
//
//	uuid (required)
//	electrons (optional int) - electron count instead of stored occupations
//	fermi (optional float) - fermi level in the stored units
//	units (optional, default the stored units) - units of the returned gap
//
// electrons and fermi are mutually exclusive; with neither, the stored
// occupations drive the analysis.
func (ws *WebServer) handleBandsGap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	q := r.URL.Query()
	var opts bands.GapOptions
	if e := q.Get("electrons"); e != "" {
		n, err := strconv.Atoi(e)
		if err != nil || n < 0 {
			httputil.BadRequest(w, fmt.Sprintf("invalid 'electrons' parameter: %s", e))
			return
		}
		opts.NumberElectrons = &n
	}
	if f := q.Get("fermi"); f != "" {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			httputil.BadRequest(w, fmt.Sprintf("invalid 'fermi' parameter: %s", f))
			return
		}
		opts.FermiEnergy = &v
	}

	target := q.Get("units")
	if target != "" && !units.IsValid(target) {
		httputil.BadRequest(w, fmt.Sprintf("invalid 'units' parameter: %s (valid: %s)", target, units.GetValidUnitsString()))
		return
	}

	bs, ok := ws.loadBands(w, r)
	if !ok {
		return
	}

	met, err := bands.FindBandgap(bs, opts)
	if err != nil {
		httputil.BadRequest(w, fmt.Sprintf("band gap analysis: %v", err))
		return
	}

	stored := bs.Units()
	switch {
	case target == "" || target == stored:
		target = stored
	case !units.IsValid(stored):
		httputil.BadRequest(w, fmt.Sprintf("cannot convert gap from stored units %q", stored))
		return
	case met.GapValid:
		met.Gap = units.Convert(met.Gap, stored, target)
	}

	httputil.WriteJSONOK(w, struct {
		bands.Metallicity
		Units string `json:"units"`
	}{met, target})
}

package api

import (
	"fmt"
	"net/http"

	"github.com/borellim/bandkit/internal/bands"
	"github.com/borellim/bandkit/internal/httputil"
)

// handleBandsChart renders an interactive echarts page for one band
// structure. This is a debugging-only endpoint (no auth) to eyeball a stored
// node without exporting it first.
// Query params:
//
//	uuid (required)
//	title (optional) - chart title, defaults to the node label
func (ws *WebServer) handleBandsChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	bs, ok := ws.loadBands(w, r)
	if !ok {
		return
	}

	opts := &bands.ExportOptions{Title: r.URL.Query().Get("title")}
	doc, _, err := bands.ExportString(bs, "html", opts)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(doc))
}

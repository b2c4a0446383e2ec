// Package api serves the band archive over HTTP. It exposes node listing,
// import and deletion, the exporter formats as downloads, band-gap analysis
// and an interactive chart page, plus the optional admin surface of the
// archive itself.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/borellim/bandkit/internal/archive"
	"github.com/borellim/bandkit/internal/httputil"
	"github.com/borellim/bandkit/internal/version"
)

// WebServer handles the HTTP interface to a band archive.
type WebServer struct {
	addr    string
	archive *archive.Archive
	server  *http.Server
}

// WebServerConfig contains configuration options for the web server.
type WebServerConfig struct {
	Addr    string
	Archive *archive.Archive
	// EnableAdmin attaches the tailsql console and backup endpoint.
	EnableAdmin bool
	// DBPath labels the database in the admin console; only read when
	// EnableAdmin is set.
	DBPath string
}

// NewWebServer creates a new web server with the provided configuration.
func NewWebServer(config WebServerConfig) (*WebServer, error) {
	ws := &WebServer{
		addr:    config.Addr,
		archive: config.Archive,
	}

	mux := ws.setupRoutes()
	if config.EnableAdmin {
		if err := ws.archive.AttachAdminRoutes(mux, config.DBPath); err != nil {
			return nil, fmt.Errorf("attach admin routes: %w", err)
		}
	}

	ws.server = &http.Server{
		Addr:    ws.addr,
		Handler: mux,
	}

	return ws, nil
}

// Start begins the HTTP server in a goroutine and handles graceful shutdown
func (ws *WebServer) Start(ctx context.Context) error {
	// Start server in a goroutine so it doesn't block
	go func() {
		log.Printf("Starting HTTP server on %s", ws.addr)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Wait for context cancellation to shut down server
	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	// Create a shutdown context with a shorter timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		// Force close the server if graceful shutdown fails
		if err := ws.server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}

	log.Printf("HTTP server routine stopped")
	return nil
}

// setupRoutes configures the HTTP routes and handlers
func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/", ws.handleHome)
	mux.HandleFunc("/api/nodes", ws.handleNodes)
	mux.HandleFunc("/api/nodes/get", ws.handleNodeGet)
	mux.HandleFunc("/api/nodes/delete", ws.handleNodeDelete)
	mux.HandleFunc("/api/bands", ws.handleBands)
	mux.HandleFunc("/api/bands/export", ws.handleBandsExport)
	mux.HandleFunc("/api/bands/gap", ws.handleBandsGap)
	mux.HandleFunc("/debug/bands/chart", ws.handleBandsChart)

	return mux
}

// handleHealth handles the health check endpoint
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := ws.archive.Nodes().Count()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("count nodes: %v", err))
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"status": "ok",
		"nodes":  count,
	})
}

// handleHome serves a plain text banner listing the available routes.
func (ws *WebServer) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "bandkit %s - band structure archive\n\n", version.Version)
	fmt.Fprintln(w, "GET  /health")
	fmt.Fprintln(w, "GET  /api/nodes?type=&limit=")
	fmt.Fprintln(w, "POST /api/nodes")
	fmt.Fprintln(w, "GET  /api/nodes/get?uuid=")
	fmt.Fprintln(w, "POST /api/nodes/delete?uuid=")
	fmt.Fprintln(w, "GET  /api/bands?uuid=")
	fmt.Fprintln(w, "GET  /api/bands/export?uuid=&format=")
	fmt.Fprintln(w, "GET  /api/bands/gap?uuid=")
	fmt.Fprintln(w, "GET  /debug/bands/chart?uuid=")
}

// Close shuts down the web server
func (ws *WebServer) Close() error {
	if ws.server != nil {
		return ws.server.Close()
	}
	return nil
}

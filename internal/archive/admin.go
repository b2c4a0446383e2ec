package archive

import (
	"compress/gzip"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"

	"github.com/borellim/bandkit/internal/security"
)

// AttachAdminRoutes mounts the admin surface on mux: a read-only SQL
// console under /admin/tailsql/, the tsweb debug index under /debug/,
// and a gzipped database backup download at /admin/backup. dbPath is
// only used to label the console.
func (a *Archive) AttachAdminRoutes(mux *http.ServeMux, dbPath string) error {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/admin/tailsql/",
	})
	if err != nil {
		return fmt.Errorf("failed to create tailsql server: %w", err)
	}
	tsql.SetDB("sqlite://"+dbPath, a.DB, &tailsql.DBOptions{
		Label: "Bandkit Archive",
	})
	mux.Handle("/admin/tailsql/", tsql.NewMux())
	debug.URL("/admin/tailsql/", "SQL live debugging")

	mux.HandleFunc("/admin/backup", a.handleBackup)
	debug.URL("/admin/backup", "Create and download a backup of the database now")

	return nil
}

// handleBackup snapshots the database with VACUUM INTO and streams the
// result back gzipped. The snapshot file is removed once sent.
func (a *Archive) handleBackup(w http.ResponseWriter, r *http.Request) {
	name := fmt.Sprintf("bandkit-backup-%d.db", time.Now().Unix())
	backupPath := filepath.Join(os.TempDir(), name)
	if err := security.ValidatePathWithinDirectory(backupPath, os.TempDir()); err != nil {
		http.Error(w, fmt.Sprintf("Invalid backup path: %v", err), http.StatusInternalServerError)
		return
	}

	if _, err := a.Exec("VACUUM INTO ?", backupPath); err != nil {
		http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
		return
	}

	backupFile, err := os.Open(backupPath)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
		return
	}
	defer func() {
		backupFile.Close()
		if err := os.Remove(backupPath); err != nil {
			log.Printf("failed to remove backup file: %v", err)
		}
	}()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name))
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Encoding", "gzip")

	gzipWriter := gzip.NewWriter(w)
	defer gzipWriter.Close()
	if _, err := io.Copy(gzipWriter, backupFile); err != nil {
		log.Printf("failed to stream backup: %v", err)
	}
}

// Package archive stores band-structure nodes in SQLite together with
// the users and computers that produced them. Array payloads live in a
// side table as compressed blobs so node rows stay small enough to
// browse through the admin SQL console.
package archive

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

var (
	// ErrNotFound is wrapped by store lookups that match no row.
	ErrNotFound = errors.New("not found")
	// ErrWrongNodeType is wrapped by LoadBands when the node exists but
	// does not hold band data.
	ErrWrongNodeType = errors.New("wrong node type")
)

// DefaultUserEmail is the user every import falls back to when no
// explicit email is given.
const DefaultUserEmail = "test@localhost"

// Archive is an open bandkit database. It embeds *sql.DB so callers can
// run ad-hoc queries next to the typed stores.
type Archive struct {
	*sql.DB
}

// Open opens (creating if needed) the archive at path. Fresh databases
// get the full schema applied and are baselined at the latest migration
// version; existing ones are left for the migration tooling to bring
// forward.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %s: %w", pragma, err)
		}
	}

	a := &Archive{db}
	if err := a.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

// OpenInMemory opens a private in-memory archive, used by tests and by
// one-shot CLI invocations that never touch disk. The pool is pinned to
// a single connection because every connection to :memory: would
// otherwise get its own empty database.
func OpenInMemory() (*Archive, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open in-memory archive: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec PRAGMA foreign_keys=ON: %w", err)
	}

	a := &Archive{db}
	if err := a.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

// initSchema applies schema.sql on a fresh database and records the
// baseline migration version so `bandctl migrate` sees it as current.
// Databases that already carry a nodes table are left untouched.
func (a *Archive) initSchema() error {
	var n int
	err := a.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'nodes'`).Scan(&n)
	if err != nil {
		return fmt.Errorf("inspect schema: %w", err)
	}
	if n > 0 {
		return nil
	}

	if _, err := a.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	latest, err := GetLatestMigrationVersion()
	if err != nil {
		return err
	}
	if err := a.BaselineAtVersion(latest); err != nil {
		return err
	}
	log.Printf("initialized archive schema at migration version %d", latest)
	return nil
}

// Users returns a store over the users table.
func (a *Archive) Users() *UserStore { return NewUserStore(a.DB) }

// Computers returns a store over the computers table.
func (a *Archive) Computers() *ComputerStore { return NewComputerStore(a.DB) }

// Nodes returns a store over the nodes and node_arrays tables.
func (a *Archive) Nodes() *NodeStore { return NewNodeStore(a.DB) }

const busyMaxAttempts = 5

// isSQLiteBusy reports whether err is a transient SQLite lock error
// worth retrying. The driver surfaces these as plain error strings.
func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy runs fn up to busyMaxAttempts times with doubling backoff
// while it keeps failing with a busy error. Any other error is returned
// to the caller unchanged.
func retryOnBusy(fn func() error) error {
	delay := 10 * time.Millisecond
	var err error
	for attempt := 0; attempt < busyMaxAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(delay)
			delay *= 2
		}
		err = fn()
		if err == nil || !isSQLiteBusy(err) {
			return err
		}
	}
	return fmt.Errorf("database still busy after %d attempts: %w", busyMaxAttempts, err)
}

// Package ingest watches a drop directory and imports interchange documents
// into the archive. Files are picked up on startup and on filesystem events,
// debounced per file so half-written uploads settle before the import runs.
package ingest

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/borellim/bandkit/internal/archive"
	"github.com/borellim/bandkit/internal/bands"
	"github.com/borellim/bandkit/internal/security"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but
// may be replaced by SetLogger. Tests or production code can redirect or
// mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// processedDir is where successfully imported files move to, inside the
// watched directory.
const processedDir = "processed"

// DefaultDebounce spaces the import from the last write event on a file.
const DefaultDebounce = 500 * time.Millisecond

// Watcher imports *.json interchange documents dropped into Dir. Imported
// files move to Dir/processed; files that fail to import stay put so they
// can be fixed and saved again.
type Watcher struct {
	Dir       string
	Store     *archive.NodeStore
	UserEmail string        // owner of imported nodes, archive default when empty
	Debounce  time.Duration // delay between the last write and the import

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewWatcher creates a watcher over dir with the default debounce.
func NewWatcher(dir string, store *archive.NodeStore, userEmail string) *Watcher {
	return &Watcher{
		Dir:       dir,
		Store:     store,
		UserEmail: userEmail,
		Debounce:  DefaultDebounce,
		timers:    make(map[string]*time.Timer),
	}
}

// Start imports the documents already in the directory, then blocks watching
// for new ones until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if w.Dir == "" {
		return fmt.Errorf("no ingest directory configured")
	}
	if err := os.MkdirAll(filepath.Join(w.Dir, processedDir), 0o755); err != nil {
		return fmt.Errorf("create processed directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.Dir, err)
	}

	Logf("watching %s for band structure documents", w.Dir)
	w.scanExisting()

	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Only import on Write or Create events
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				if !w.wants(event.Name) {
					continue
				}
				w.scheduleImport(event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			Logf("watcher error: %v", err)
		}
	}
}

// wants reports whether the path is a document the watcher should import.
func (w *Watcher) wants(path string) bool {
	if !strings.HasSuffix(path, ".json") {
		return false
	}
	// Never re-import what was already moved aside.
	if filepath.Base(filepath.Dir(path)) == processedDir {
		return false
	}
	return true
}

// scanExisting imports the *.json files already present, in name order.
func (w *Watcher) scanExisting() {
	matches, err := filepath.Glob(filepath.Join(w.Dir, "*.json"))
	if err != nil {
		Logf("scan %s: %v", w.Dir, err)
		return
	}
	sort.Strings(matches)
	for _, path := range matches {
		w.importFile(path)
	}
}

// scheduleImport (re)arms the per-file debounce timer.
func (w *Watcher) scheduleImport(path string) {
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.importFile(path)
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

// importFile decodes one document, stores it and moves the file aside.
// Failures only log: a bad file stays in the drop directory.
func (w *Watcher) importFile(path string) {
	if err := security.ValidatePathWithinDirectory(path, w.Dir); err != nil {
		Logf("skipping %s: %v", path, err)
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		// The file may have vanished between the event and the import.
		Logf("read %s: %v", path, err)
		return
	}

	bs, err := bands.DecodeDocument(data)
	if err != nil {
		Logf("skipping %s: %v", path, err)
		return
	}

	rec, err := w.Store.SaveBands(bs, w.UserEmail, "")
	if err != nil {
		Logf("import %s: %v", path, err)
		return
	}

	dest := filepath.Join(w.Dir, processedDir, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		Logf("move %s to %s: %v", path, dest, err)
		return
	}
	Logf("imported %s as node %s", filepath.Base(path), rec.UUID)
}

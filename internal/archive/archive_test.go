package archive

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestOpenInMemory(t *testing.T) {
	a, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory failed: %v", err)
	}
	defer a.Close()

	n, err := a.Nodes().Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected empty archive, got %d nodes", n)
	}

	status, err := a.GetMigrationStatus()
	if err != nil {
		t.Fatalf("GetMigrationStatus failed: %v", err)
	}
	if !status["schema_migrations_exists"].(bool) {
		t.Error("expected schema_migrations table to exist")
	}
	if status["dirty"].(bool) {
		t.Error("fresh archive should not be dirty")
	}

	latest, err := GetLatestMigrationVersion()
	if err != nil {
		t.Fatalf("GetLatestMigrationVersion failed: %v", err)
	}
	if status["current_version"].(uint) != latest {
		t.Errorf("fresh archive baselined at %v, want %d", status["current_version"], latest)
	}
}

func TestOpenReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	a, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := a.Users().GetOrCreate("reopen@localhost"); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Second open must not re-apply the schema or re-baseline.
	a, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer a.Close()

	u, err := a.Users().ByEmail("reopen@localhost")
	if err != nil {
		t.Fatalf("ByEmail after reopen failed: %v", err)
	}
	if u.Email != "reopen@localhost" {
		t.Errorf("email mismatch: got %s", u.Email)
	}
}

func TestMigrateDownUp(t *testing.T) {
	a, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory failed: %v", err)
	}
	defer a.Close()

	latest, err := GetLatestMigrationVersion()
	if err != nil {
		t.Fatalf("GetLatestMigrationVersion failed: %v", err)
	}

	version, dirty, err := a.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != latest || dirty {
		t.Fatalf("fresh archive at version %d (dirty=%v), want %d", version, dirty, latest)
	}

	// Up on a current database is a no-op.
	if err := a.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp on current database failed: %v", err)
	}

	if err := a.MigrateDown(); err != nil {
		t.Fatalf("MigrateDown failed: %v", err)
	}
	version, _, err = a.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion after down failed: %v", err)
	}
	if version != latest-1 {
		t.Errorf("after down: version %d, want %d", version, latest-1)
	}

	if err := a.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}
	version, _, err = a.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion after up failed: %v", err)
	}
	if version != latest {
		t.Errorf("after up: version %d, want %d", version, latest)
	}
}

func TestBaselineTwice(t *testing.T) {
	a, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory failed: %v", err)
	}
	defer a.Close()

	err = a.BaselineAtVersion(1)
	if err == nil || !strings.Contains(err.Error(), "already has migrations applied") {
		t.Errorf("expected baseline conflict error, got %v", err)
	}
}

func TestCheckAndPromptMigrations(t *testing.T) {
	a, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory failed: %v", err)
	}
	defer a.Close()

	exit, err := a.CheckAndPromptMigrations()
	if err != nil {
		t.Fatalf("CheckAndPromptMigrations on current database failed: %v", err)
	}
	if exit {
		t.Error("current database should not request exit")
	}

	if err := a.MigrateDown(); err != nil {
		t.Fatalf("MigrateDown failed: %v", err)
	}
	exit, err = a.CheckAndPromptMigrations()
	if !exit {
		t.Error("outdated database should request exit")
	}
	if err == nil || !strings.Contains(err.Error(), "out of date") {
		t.Errorf("expected out-of-date error, got %v", err)
	}
}

func TestIsSQLiteBusy(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"database is locked", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"bare SQLITE_BUSY", errors.New("SQLITE_BUSY"), true},
		{"unrelated error", errors.New("no such table: nodes"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isSQLiteBusy(tt.err); got != tt.expected {
				t.Errorf("isSQLiteBusy(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestRetryOnBusy(t *testing.T) {
	busyErr := errors.New("database is locked (5) (SQLITE_BUSY)")

	t.Run("success on first try", func(t *testing.T) {
		calls := 0
		err := retryOnBusy(func() error {
			calls++
			return nil
		})
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})

	t.Run("success after retries", func(t *testing.T) {
		calls := 0
		start := time.Now()
		err := retryOnBusy(func() error {
			calls++
			if calls < 3 {
				return busyErr
			}
			return nil
		})
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		if calls != 3 {
			t.Errorf("expected 3 calls, got %d", calls)
		}
		// Two backoff sleeps of at least 10ms and 20ms.
		if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
			t.Errorf("expected at least 30ms of backoff, got %v", elapsed)
		}
	})

	t.Run("non-busy error returned unchanged", func(t *testing.T) {
		calls := 0
		testErr := errors.New("no such table: nodes")
		err := retryOnBusy(func() error {
			calls++
			return testErr
		})
		if err != testErr {
			t.Errorf("expected identical error %v, got %v", testErr, err)
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := retryOnBusy(func() error {
			calls++
			return busyErr
		})
		if err == nil {
			t.Error("expected error, got nil")
		}
		if calls != busyMaxAttempts {
			t.Errorf("expected %d calls, got %d", busyMaxAttempts, calls)
		}
		if !errors.Is(err, busyErr) {
			t.Errorf("expected wrapped busy error, got %v", err)
		}
	})
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is where the server looks for its configuration
// when no -config flag is given.
const DefaultConfigPath = "bandkit.json"

// ServerConfig is the root configuration for the bandkit server. All
// fields are optional; the Get* methods supply defaults for anything
// omitted, so partial config files are safe.
type ServerConfig struct {
	ListenAddr       *string `json:"listen_addr,omitempty"`
	DBPath           *string `json:"db_path,omitempty"`
	IngestDir        *string `json:"ingest_dir,omitempty"`
	IngestDebounceMS *int    `json:"ingest_debounce_ms,omitempty"`
	DefaultUserEmail *string `json:"default_user_email,omitempty"`
	EnableAdmin      *bool   `json:"enable_admin,omitempty"`
}

// Helper functions to create pointers
func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }
func ptrBool(v bool) *bool       { return &v }

// EmptyServerConfig returns a ServerConfig with all fields unset.
func EmptyServerConfig() *ServerConfig {
	return &ServerConfig{}
}

// LoadServerConfig loads a ServerConfig from a JSON file. The file must
// have a .json extension and stay under the max file size.
func LoadServerConfig(path string) (*ServerConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyServerConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to path as indented JSON, atomically
// via a temp file in the same directory.
func (c *ServerConfig) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".bandkit-config-*")
	if err != nil {
		return fmt.Errorf("failed to create temp config file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp config file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration values are usable.
func (c *ServerConfig) Validate() error {
	if c.ListenAddr != nil && *c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty when set")
	}
	if c.IngestDebounceMS != nil && *c.IngestDebounceMS < 0 {
		return fmt.Errorf("ingest_debounce_ms must be non-negative, got %d", *c.IngestDebounceMS)
	}
	if c.DefaultUserEmail != nil && *c.DefaultUserEmail == "" {
		return fmt.Errorf("default_user_email must not be empty when set")
	}
	return nil
}

// GetListenAddr returns the listen address or the default.
func (c *ServerConfig) GetListenAddr() string {
	if c.ListenAddr == nil || *c.ListenAddr == "" {
		return ":8343" // default
	}
	return *c.ListenAddr
}

// GetDBPath returns the database path or the default.
func (c *ServerConfig) GetDBPath() string {
	if c.DBPath == nil || *c.DBPath == "" {
		return "bandkit.db" // default
	}
	return *c.DBPath
}

// GetIngestDir returns the watched import directory. Empty means the
// ingest watcher is disabled.
func (c *ServerConfig) GetIngestDir() string {
	if c.IngestDir == nil {
		return ""
	}
	return *c.IngestDir
}

// GetIngestDebounce returns the ingest debounce as a time.Duration.
func (c *ServerConfig) GetIngestDebounce() time.Duration {
	if c.IngestDebounceMS == nil {
		return 500 * time.Millisecond // default
	}
	return time.Duration(*c.IngestDebounceMS) * time.Millisecond
}

// GetDefaultUserEmail returns the user imports are attributed to when
// the import itself names none.
func (c *ServerConfig) GetDefaultUserEmail() string {
	if c.DefaultUserEmail == nil || *c.DefaultUserEmail == "" {
		return "test@localhost" // default
	}
	return *c.DefaultUserEmail
}

// GetEnableAdmin reports whether the admin routes should be mounted.
func (c *ServerConfig) GetEnableAdmin() bool {
	if c.EnableAdmin == nil {
		return false // default: admin surface off
	}
	return *c.EnableAdmin
}

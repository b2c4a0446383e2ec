package archive

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Computer is a row in the computers table: a machine a band structure
// was computed on.
type Computer struct {
	ComputerID int64  `json:"computer_id"`
	UUID       string `json:"uuid"`
	Name       string `json:"name"`
	Hostname   string `json:"hostname"`
	Transport  string `json:"transport"`
	Scheduler  string `json:"scheduler"`
	Workdir    string `json:"workdir"`
	Enabled    bool   `json:"enabled"`
	CreatedAt  int64  `json:"created_at"`
}

type ComputerStore struct {
	db *sql.DB
}

func NewComputerStore(db *sql.DB) *ComputerStore {
	return &ComputerStore{db: db}
}

// GetOrCreate returns the computer with the given name, creating it with
// the supplied settings on first sight. Empty transport and scheduler
// fall back to "local" and "direct".
func (s *ComputerStore) GetOrCreate(name, hostname, transport, scheduler, workdir string) (*Computer, error) {
	if name == "" {
		return nil, fmt.Errorf("empty computer name")
	}
	c, err := s.ByName(name)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if transport == "" {
		transport = "local"
	}
	if scheduler == "" {
		scheduler = "direct"
	}
	id := uuid.New().String()
	now := time.Now().UnixNano()
	insertErr := retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO computers (uuid, name, hostname, transport, scheduler, workdir, enabled, created_at)
			VALUES (?, ?, ?, ?, ?, ?, 1, ?)`,
			id, name, hostname, transport, scheduler, workdir, now)
		return err
	})
	if insertErr != nil {
		if c, err := s.ByName(name); err == nil {
			return c, nil
		}
		return nil, fmt.Errorf("insert computer %s: %w", name, insertErr)
	}
	return s.ByName(name)
}

func (s *ComputerStore) ByName(name string) (*Computer, error) {
	row := s.db.QueryRow(`
		SELECT computer_id, uuid, name, hostname, transport, scheduler, workdir, enabled, created_at
		FROM computers WHERE name = ?`,
		name)
	c, err := scanComputer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("computer %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query computer %s: %w", name, err)
	}
	return c, nil
}

func (s *ComputerStore) List() ([]*Computer, error) {
	rows, err := s.db.Query(`
		SELECT computer_id, uuid, name, hostname, transport, scheduler, workdir, enabled, created_at
		FROM computers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query computers: %w", err)
	}
	defer rows.Close()

	var computers []*Computer
	for rows.Next() {
		c, err := scanComputer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan computer: %w", err)
		}
		computers = append(computers, c)
	}
	return computers, rows.Err()
}

func scanComputer(row rowScanner) (*Computer, error) {
	var c Computer
	err := row.Scan(&c.ComputerID, &c.UUID, &c.Name, &c.Hostname, &c.Transport, &c.Scheduler, &c.Workdir, &c.Enabled, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

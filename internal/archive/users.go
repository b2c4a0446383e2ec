package archive

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// User is a row in the users table. Nodes reference their creator
// through user_id.
type User struct {
	UserID      int64  `json:"user_id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Institution string `json:"institution"`
	CreatedAt   int64  `json:"created_at"`
}

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// GetOrCreate returns the user with the given email, creating an empty
// profile for it on first sight. Safe to race: a concurrent insert of
// the same email is resolved by re-reading.
func (s *UserStore) GetOrCreate(email string) (*User, error) {
	if email == "" {
		return nil, fmt.Errorf("empty user email")
	}
	u, err := s.ByEmail(email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now().UnixNano()
	insertErr := retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO users (email, first_name, last_name, institution, created_at)
			VALUES (?, '', '', '', ?)`,
			email, now)
		return err
	})
	if insertErr != nil {
		// Lost a race with another writer, or a real failure.
		if u, err := s.ByEmail(email); err == nil {
			return u, nil
		}
		return nil, fmt.Errorf("insert user %s: %w", email, insertErr)
	}
	return s.ByEmail(email)
}

func (s *UserStore) ByEmail(email string) (*User, error) {
	row := s.db.QueryRow(`
		SELECT user_id, email, first_name, last_name, institution, created_at
		FROM users WHERE email = ?`,
		email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query user %s: %w", email, err)
	}
	return u, nil
}

func (s *UserStore) List() ([]*User, error) {
	rows, err := s.db.Query(`
		SELECT user_id, email, first_name, last_name, institution, created_at
		FROM users ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	err := row.Scan(&u.UserID, &u.Email, &u.FirstName, &u.LastName, &u.Institution, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// SQLStore implements Repository over database/sql. The schema sticks to
// types both sqlite and postgres accept, and every statement uses $n
// placeholders, which both drivers understand.
type SQLStore struct {
	db         *sql.DB
	schemaOnce sync.Once
	schemaErr  error
}

// NewPostgresStore connects via the pgx stdlib driver.
func NewPostgresStore(dsn string) (*SQLStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// NewSQLiteStore opens (creating if absent) a sqlite database at path.
func NewSQLiteStore(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc/sqlite serializes writes; a single connection avoids
	// table-lock errors under concurrent handlers.
	db.SetMaxOpenConns(1)
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) ensureSchema() error {
	if s == nil || s.db == nil {
		return fmt.Errorf("db is nil")
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(`
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    api_key TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS components (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    prompt TEXT NOT NULL DEFAULT '',
    code TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_components_user_id ON components(user_id);
CREATE TABLE IF NOT EXISTS revisions (
    id TEXT PRIMARY KEY,
    component_id TEXT NOT NULL,
    prompt TEXT NOT NULL DEFAULT '',
    code TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_revisions_component_id ON revisions(component_id);
`)
	})
	return s.schemaErr
}

func (s *SQLStore) CreateUser(ctx context.Context, email, passwordHash string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return User{}, fmt.Errorf("email is required")
	}
	if err := s.ensureSchema(); err != nil {
		return User{}, err
	}
	u := User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email=$1)`, email).Scan(&exists); err != nil {
		return User{}, err
	}
	if exists {
		return User{}, ErrDuplicate
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO users (id, email, password_hash, api_key, created_at)
VALUES ($1, $2, $3, '', $4)
`, u.ID, u.Email, u.PasswordHash, u.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *SQLStore) UserByEmail(ctx context.Context, email string) (User, error) {
	if err := s.ensureSchema(); err != nil {
		return User{}, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, api_key, created_at FROM users WHERE email=$1`, email))
}

func (s *SQLStore) UserByID(ctx context.Context, id string) (User, error) {
	if err := s.ensureSchema(); err != nil {
		return User{}, err
	}
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, api_key, created_at FROM users WHERE id=$1`, id))
}

func (s *SQLStore) scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.APIKey, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return User{}, ErrNotFound
	}
	return u, err
}

func (s *SQLStore) SetAPIKey(ctx context.Context, userID, apiKey string) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET api_key=$1 WHERE id=$2`, apiKey, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) CreateComponent(ctx context.Context, c Component) (Component, error) {
	if strings.TrimSpace(c.UserID) == "" {
		return Component{}, fmt.Errorf("user_id is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return Component{}, fmt.Errorf("name is required")
	}
	if err := s.ensureSchema(); err != nil {
		return Component{}, err
	}
	now := time.Now()
	c.ID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now
	_, err := s.db.ExecContext(ctx, `
INSERT INTO components (id, user_id, name, description, prompt, code, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, c.ID, c.UserID, c.Name, c.Description, c.Prompt, c.Code, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return Component{}, err
	}
	return c, nil
}

func (s *SQLStore) ListComponents(ctx context.Context, userID string) ([]Component, error) {
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, user_id, name, description, prompt, code, created_at, updated_at
FROM components WHERE user_id=$1 ORDER BY created_at
`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Component
	for rows.Next() {
		var c Component
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Description,
			&c.Prompt, &c.Code, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetComponent(ctx context.Context, id string) (Component, error) {
	if err := s.ensureSchema(); err != nil {
		return Component{}, err
	}
	var c Component
	err := s.db.QueryRowContext(ctx, `
SELECT id, user_id, name, description, prompt, code, created_at, updated_at
FROM components WHERE id=$1
`, id).Scan(&c.ID, &c.UserID, &c.Name, &c.Description,
		&c.Prompt, &c.Code, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return Component{}, ErrNotFound
	}
	return c, err
}

func (s *SQLStore) AppendRevision(ctx context.Context, componentID, prompt, code string) (Revision, error) {
	if err := s.ensureSchema(); err != nil {
		return Revision{}, err
	}
	rev := Revision{
		ID:          uuid.NewString(),
		ComponentID: componentID,
		Prompt:      prompt,
		Code:        code,
		CreatedAt:   time.Now(),
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Revision{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
UPDATE components SET prompt=$1, code=$2, updated_at=$3 WHERE id=$4
`, prompt, code, rev.CreatedAt, componentID)
	if err != nil {
		return Revision{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Revision{}, err
	}
	if n == 0 {
		return Revision{}, ErrNotFound
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO revisions (id, component_id, prompt, code, created_at)
VALUES ($1, $2, $3, $4, $5)
`, rev.ID, rev.ComponentID, rev.Prompt, rev.Code, rev.CreatedAt)
	if err != nil {
		return Revision{}, err
	}
	if err := tx.Commit(); err != nil {
		return Revision{}, err
	}
	return rev, nil
}

func (s *SQLStore) ListRevisions(ctx context.Context, componentID string) ([]Revision, error) {
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, component_id, prompt, code, created_at
FROM revisions WHERE component_id=$1 ORDER BY created_at
`, componentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Revision
	for rows.Next() {
		var r Revision
		if err := rows.Scan(&r.ID, &r.ComponentID, &r.Prompt, &r.Code, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) Close() error { return s.db.Close() }

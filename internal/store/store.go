// Package store persists users, components, and their revision history.
// Backends share one Repository contract: memory for tests, sqlite for
// single-node deployments, postgres for everything else.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	// APIKey is the user's own completion-provider key; empty until set.
	APIKey    string
	CreatedAt time.Time
}

type Component struct {
	ID          string
	UserID      string
	Name        string
	Description string
	// Prompt is the request that produced the current code.
	Prompt    string
	Code      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Revision is one history entry for a component. Revisions are append-only;
// the component row always mirrors the newest one.
type Revision struct {
	ID          string
	ComponentID string
	Prompt      string
	Code        string
	CreatedAt   time.Time
}

type Repository interface {
	CreateUser(ctx context.Context, email, passwordHash string) (User, error)
	UserByEmail(ctx context.Context, email string) (User, error)
	UserByID(ctx context.Context, id string) (User, error)
	SetAPIKey(ctx context.Context, userID, apiKey string) error

	CreateComponent(ctx context.Context, c Component) (Component, error)
	ListComponents(ctx context.Context, userID string) ([]Component, error)
	GetComponent(ctx context.Context, id string) (Component, error)

	AppendRevision(ctx context.Context, componentID, prompt, code string) (Revision, error)
	ListRevisions(ctx context.Context, componentID string) ([]Revision, error)

	Close() error
}

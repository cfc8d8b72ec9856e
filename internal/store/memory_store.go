package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemoryStore struct {
	mu         sync.RWMutex
	users      map[string]User
	components map[string]Component
	revisions  map[string][]Revision
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]User),
		components: make(map[string]Component),
		revisions:  make(map[string][]Revision),
	}
}

func (s *MemoryStore) CreateUser(_ context.Context, email, passwordHash string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return User{}, fmt.Errorf("email is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return User{}, ErrDuplicate
		}
	}
	u := User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *MemoryStore) UserByEmail(_ context.Context, email string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *MemoryStore) UserByID(_ context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *MemoryStore) SetAPIKey(_ context.Context, userID, apiKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.APIKey = apiKey
	s.users[userID] = u
	return nil
}

func (s *MemoryStore) CreateComponent(_ context.Context, c Component) (Component, error) {
	if strings.TrimSpace(c.UserID) == "" {
		return Component{}, fmt.Errorf("user_id is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return Component{}, fmt.Errorf("name is required")
	}
	now := time.Now()
	c.ID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now
	s.mu.Lock()
	s.components[c.ID] = c
	s.mu.Unlock()
	return c, nil
}

func (s *MemoryStore) ListComponents(_ context.Context, userID string) ([]Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Component
	for _, c := range s.components {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) GetComponent(_ context.Context, id string) (Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.components[id]
	if !ok {
		return Component{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) AppendRevision(_ context.Context, componentID, prompt, code string) (Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.components[componentID]
	if !ok {
		return Revision{}, ErrNotFound
	}
	rev := Revision{
		ID:          uuid.NewString(),
		ComponentID: componentID,
		Prompt:      prompt,
		Code:        code,
		CreatedAt:   time.Now(),
	}
	s.revisions[componentID] = append(s.revisions[componentID], rev)
	c.Prompt = prompt
	c.Code = code
	c.UpdatedAt = rev.CreatedAt
	s.components[componentID] = c
	return rev, nil
}

func (s *MemoryStore) ListRevisions(_ context.Context, componentID string) ([]Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	revs := s.revisions[componentID]
	return append([]Revision(nil), revs...), nil
}

func (s *MemoryStore) Close() error { return nil }

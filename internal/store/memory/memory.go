// Package memory provides an in-memory store used as the default data
// backend and as the test double for the SQLite repository.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"expenso/internal/core"
	"expenso/internal/store"
)

type Store struct {
	mu    sync.Mutex
	txs   map[string]core.Transaction
	users map[string]userRecord
	audit []store.AuditEntry
	hub   *store.Hub

	// now is swappable in tests for deterministic CreatedAt values.
	now func() time.Time
}

type userRecord struct {
	user core.User
	hash string
}

func New() *Store {
	return &Store{
		txs:   make(map[string]core.Transaction),
		users: make(map[string]userRecord),
		hub:   store.NewHub(),
		now:   time.Now,
	}
}

var _ store.Store = (*Store)(nil)

// Insert stores the transaction and returns the assigned id.
func (s *Store) Insert(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	t.ID = uuid.NewString()
	t.CreatedAt = s.now()

	s.mu.Lock()
	s.txs[t.ID] = t
	s.mu.Unlock()

	s.hub.Changed(t.OwnerID, s.load)
	return t.ID, nil
}

func (s *Store) Update(_ context.Context, id string, patch core.TransactionPatch) error {
	s.mu.Lock()
	t, ok := s.txs[id]
	if !ok {
		s.mu.Unlock()
		return store.ErrNotFound
	}
	if err := patch.Validate(t.Kind); err != nil {
		s.mu.Unlock()
		return err
	}
	s.txs[id] = patch.Apply(t)
	s.mu.Unlock()

	s.hub.Changed(t.OwnerID, s.load)
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	t, ok := s.txs[id]
	if !ok {
		s.mu.Unlock()
		return store.ErrNotFound
	}
	delete(s.txs, id)
	s.mu.Unlock()

	s.hub.Changed(t.OwnerID, s.load)
	return nil
}

func (s *Store) Get(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[id]
	if !ok {
		return core.Transaction{}, store.ErrNotFound
	}
	return t, nil
}

func (s *Store) List(_ context.Context, scope store.Scope) ([]core.Transaction, error) {
	list, err := s.load(scope)
	return list, err
}

// Watch opens a live subscription primed with the current result set.
func (s *Store) Watch(_ context.Context, scope store.Scope) (*store.Subscription, error) {
	initial, err := s.load(scope)
	if err != nil {
		return nil, err
	}
	return s.hub.Subscribe(scope, initial), nil
}

// load builds the scoped result set in the same order the SQLite
// repository queries it: date descending, newest insert first within a
// date, id as the final tie-break so the order is total.
func (s *Store) load(scope store.Scope) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0, len(s.txs))
	for _, t := range s.txs {
		if scope.Includes(t.OwnerID) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.After(b.Date.Time)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (s *Store) CreateUser(_ context.Context, u core.User, passwordHash string) (string, error) {
	if err := u.Validate(); err != nil {
		return "", err
	}
	email := strings.ToLower(strings.TrimSpace(u.Email))

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.users {
		if strings.ToLower(rec.user.Email) == email {
			return "", store.ErrEmailTaken
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = s.now()
	s.users[u.ID] = userRecord{user: u, hash: passwordHash}
	return u.ID, nil
}

func (s *Store) GetUser(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[id]
	if !ok {
		return core.User{}, store.ErrNotFound
	}
	return rec.user, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.users {
		if strings.ToLower(rec.user.Email) == email {
			return rec.user, nil
		}
	}
	return core.User{}, store.ErrNotFound
}

func (s *Store) Credentials(_ context.Context, email string) (string, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range s.users {
		if strings.ToLower(rec.user.Email) == email {
			return id, rec.hash, nil
		}
	}
	return "", "", store.ErrNotFound
}

func (s *Store) ListUsers(_ context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.User, 0, len(s.users))
	for _, rec := range s.users {
		out = append(out, rec.user)
	}
	return out, nil
}

func (s *Store) SetAdmin(_ context.Context, id string, isAdmin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	rec.user.IsAdmin = isAdmin
	s.users[id] = rec
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return store.ErrNotFound
	}
	// Transactions owned by the user are intentionally kept.
	delete(s.users, id)
	return nil
}

func (s *Store) RecordAudit(_ context.Context, e store.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, e)
	return nil
}

// AuditTrail returns a copy of the recorded audit entries.
func (s *Store) AuditTrail() []store.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.AuditEntry, len(s.audit))
	copy(out, s.audit)
	return out
}

// Close implements the backend cleanup contract; nothing to release.
func (s *Store) Close() error {
	return nil
}

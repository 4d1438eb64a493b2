// Package store defines the ports the application core depends on for
// persistence and live change notifications. Implementations live in
// internal/storage (SQLite) and internal/store/memory.
package store

import (
	"context"
	"errors"
	"time"

	"expenso/internal/core"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrEmailTaken = errors.New("email already registered")
)

// Scope selects which transactions a listing or subscription covers:
// a single owner, or every owner for administrative views.
type Scope struct {
	OwnerID string
}

// ScopeAll covers transactions of every owner.
var ScopeAll = Scope{}

// OwnerScope restricts to a single owner's transactions.
func OwnerScope(ownerID string) Scope {
	return Scope{OwnerID: ownerID}
}

// All reports whether the scope is unrestricted.
func (s Scope) All() bool {
	return s.OwnerID == ""
}

// Includes reports whether a transaction owned by ownerID falls in scope.
func (s Scope) Includes(ownerID string) bool {
	return s.All() || s.OwnerID == ownerID
}

func (s Scope) String() string {
	if s.All() {
		return "all"
	}
	return s.OwnerID
}

// AuditEntry records one applied mutation for the audit trail.
type AuditEntry struct {
	TransactionID string
	OwnerID       string
	Action        string // "created", "updated" or "deleted"
	OccurredAt    time.Time
}

type (
	TransactionWriter interface {
		// Insert stores a new transaction and returns the assigned id.
		// ID and CreatedAt on the argument are ignored.
		Insert(ctx context.Context, t core.Transaction) (string, error)

		// Update applies only the non-nil patch fields to an existing
		// transaction. Kind is never changed.
		Update(ctx context.Context, id string, patch core.TransactionPatch) error

		// Delete removes a transaction permanently.
		Delete(ctx context.Context, id string) error
	}

	TransactionLister interface {
		// List returns every transaction in scope, one full scan.
		List(ctx context.Context, scope Scope) ([]core.Transaction, error)

		Get(ctx context.Context, id string) (core.Transaction, error)
	}

	// TransactionWatcher provides the live feed: each delivered snapshot
	// is the complete current result set for the scope, never a diff.
	TransactionWatcher interface {
		Watch(ctx context.Context, scope Scope) (*Subscription, error)
	}

	UserStore interface {
		// CreateUser stores the profile document together with the
		// password hash held by the auth layer.
		CreateUser(ctx context.Context, u core.User, passwordHash string) (string, error)

		GetUser(ctx context.Context, id string) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)

		// Credentials returns the user id and password hash for a login
		// attempt. ErrNotFound when the email is unknown.
		Credentials(ctx context.Context, email string) (id, passwordHash string, err error)

		ListUsers(ctx context.Context) ([]core.User, error)
		SetAdmin(ctx context.Context, id string, isAdmin bool) error

		// DeleteUser removes the profile document only. The user's
		// transactions are left in place (no cascade).
		DeleteUser(ctx context.Context, id string) error
	}

	AuditRecorder interface {
		RecordAudit(ctx context.Context, e AuditEntry) error
	}
)

// Store is the unified backend interface assembled by the factory.
type Store interface {
	TransactionWriter
	TransactionLister
	TransactionWatcher
	UserStore
	AuditRecorder
}

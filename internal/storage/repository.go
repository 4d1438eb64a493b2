// Package storage implements the store ports on SQLite. The repository
// doubles as the change-notification source: every committed mutation
// re-queries the affected scopes and broadcasts full snapshots to the
// active subscriptions.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"expenso/internal/core"
	"expenso/internal/store"
)

type SQLiteRepository struct {
	db  *sql.DB
	hub *store.Hub
}

var _ store.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:  db,
		hub: store.NewHub(),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Insert implements store.TransactionWriter.
func (r *SQLiteRepository) Insert(ctx context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	createdAt := time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, owner_id, kind, title, amount_cents, category, tx_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, t.OwnerID, string(t.Kind), t.Title, t.Amount.Cents, t.Category, t.Date.ISO(), createdAt)
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"owner_id", t.OwnerID,
		"kind", string(t.Kind),
		"amount_cents", t.Amount.Cents,
		"category", t.Category)

	r.notify(t.OwnerID)
	return id, nil
}

// Update implements store.TransactionWriter. Only non-nil patch fields
// are written; kind is never part of the statement.
func (r *SQLiteRepository) Update(ctx context.Context, id string, patch core.TransactionPatch) error {
	current, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := patch.Validate(current.Kind); err != nil {
		return err
	}

	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Amount != nil {
		sets = append(sets, "amount_cents = ?")
		args = append(args, patch.Amount.Cents)
	}
	if patch.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *patch.Category)
	}
	if patch.Date != nil {
		sets = append(sets, "tx_date = ?")
		args = append(args, patch.Date.ISO())
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx,
		"UPDATE transactions SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}

	r.notify(current.OwnerID)
	return nil
}

// Delete implements store.TransactionWriter. Hard delete, no recovery.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	current, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, "owner_id", current.OwnerID)
	r.notify(current.OwnerID)
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, kind, title, amount_cents, category, tx_date, created_at
		 FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, store.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// List implements store.TransactionLister: one full scan per call,
// newest date first.
func (r *SQLiteRepository) List(ctx context.Context, scope store.Scope) ([]core.Transaction, error) {
	query := `SELECT id, owner_id, kind, title, amount_cents, category, tx_date, created_at
	          FROM transactions`
	args := []any{}
	if !scope.All() {
		query += " WHERE owner_id = ?"
		args = append(args, scope.OwnerID)
	}
	query += " ORDER BY tx_date DESC, created_at DESC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Watch implements store.TransactionWatcher.
func (r *SQLiteRepository) Watch(ctx context.Context, scope store.Scope) (*store.Subscription, error) {
	initial, err := r.List(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("prime subscription: %w", err)
	}
	return r.hub.Subscribe(scope, initial), nil
}

// notify pushes fresh snapshots to every subscription whose scope
// includes the changed owner.
func (r *SQLiteRepository) notify(ownerID string) {
	r.hub.Changed(ownerID, func(scope store.Scope) ([]core.Transaction, error) {
		return r.List(context.Background(), scope)
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t         core.Transaction
		kind      string
		dateStr   string
		createdAt time.Time
	)
	if err := row.Scan(&t.ID, &t.OwnerID, &kind, &t.Title, &t.Amount.Cents, &t.Category, &dateStr, &createdAt); err != nil {
		return core.Transaction{}, err
	}
	t.Kind = core.Kind(kind)
	t.CreatedAt = createdAt
	d, err := core.ParseDate(dateStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored date %q: %w", dateStr, err)
	}
	t.Date = d
	return t, nil
}

// CreateUser implements store.UserStore.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User, passwordHash string) (string, error) {
	if err := u.Validate(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	createdAt := time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, full_name, email, password_hash, is_admin, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, u.FullName, strings.TrimSpace(u.Email), passwordHash, boolToInt(u.IsAdmin), createdAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return "", store.ErrEmailTaken
		}
		return "", fmt.Errorf("insert user: %w", err)
	}

	slog.InfoContext(ctx, "User created", "id", id, "email", u.Email)
	return id, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, full_name, email, is_admin, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, full_name, email, is_admin, created_at FROM users WHERE email = ? COLLATE NOCASE`,
		strings.TrimSpace(email))
	return scanUser(row)
}

func (r *SQLiteRepository) Credentials(ctx context.Context, email string) (string, string, error) {
	var id, hash string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, password_hash FROM users WHERE email = ? COLLATE NOCASE`,
		strings.TrimSpace(email)).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", store.ErrNotFound
	}
	if err != nil {
		return "", "", fmt.Errorf("get credentials: %w", err)
	}
	return id, hash, nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, full_name, email, is_admin, created_at FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []core.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SetAdmin(ctx context.Context, id string, isAdmin bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_admin = ? WHERE id = ?`, boolToInt(isAdmin), id)
	if err != nil {
		return fmt.Errorf("set admin flag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteUser removes the profile row only; the user's transactions stay.
func (r *SQLiteRepository) DeleteUser(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// RecordAudit implements store.AuditRecorder.
func (r *SQLiteRepository) RecordAudit(ctx context.Context, e store.AuditEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (transaction_id, owner_id, action, occurred_at) VALUES (?, ?, ?, ?)`,
		e.TransactionID, e.OwnerID, e.Action, e.OccurredAt.UTC())
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

func scanUser(row rowScanner) (core.User, error) {
	var (
		u       core.User
		isAdmin int64
	)
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &isAdmin, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, store.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	u.IsAdmin = isAdmin != 0
	return u, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

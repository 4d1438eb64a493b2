package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

type (
	// Kind distinguishes money coming in from money going out.
	Kind string

	// Date is a calendar date; the time-of-day component is always zero.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is a single income or expense record owned by a user.
	Transaction struct {
		ID        string
		OwnerID   string
		Kind      Kind
		Title     string
		Amount    Money
		Category  string
		Date      Date
		CreatedAt time.Time
	}

	// TransactionPatch carries the mutable fields of a transaction.
	// Nil fields are left untouched; Kind is immutable after creation.
	TransactionPatch struct {
		Title    *string
		Amount   *Money
		Category *string
		Date     *Date
	}

	// User mirrors the account document kept next to the auth identity.
	User struct {
		ID        string
		FullName  string
		Email     string
		IsAdmin   bool
		CreatedAt time.Time
	}
)

var (
	ErrInvalidKind     = errors.New("invalid transaction kind")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyTitle      = errors.New("empty title")
	ErrInvalidCategory = errors.New("invalid category for kind")
	ErrZeroDate        = errors.New("date is required")
	ErrEmptyName       = errors.New("empty full name")
	ErrEmptyEmail      = errors.New("empty email")
	ErrEmptyPatch      = errors.New("no fields to update")
)

// ExpenseCategories and IncomeCategories are the fixed category sets.
// Order matters: it is the order shown in the category selects.
var (
	ExpenseCategories = []string{"Rent", "Food", "Shopping", "Transport", "Entertainment", "Bills", "Healthcare", "Other"}
	IncomeCategories  = []string{"Salary", "Freelance", "Investment", "Gift", "Other"}
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

// Categories returns the category set valid for this kind.
func (k Kind) Categories() []string {
	if k == Income {
		return IncomeCategories
	}
	return ExpenseCategories
}

// ValidCategory reports whether name belongs to the category set for k.
func (k Kind) ValidCategory(name string) bool {
	for _, c := range k.Categories() {
		if c == name {
			return true
		}
	}
	return false
}

// NewDate creates a Date from year, month, day at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO calendar date (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrZeroDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// ISO returns the date formatted as 2006-01-02.
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}

// MonthLabel returns the short English month name ("Jan").
// The year is deliberately not part of the label; months from different
// years share a bucket in the monthly breakdown.
func (d Date) MonthLabel() string {
	return d.Format("Jan")
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if len(strings.TrimSpace(t.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(t.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Kind.ValidCategory(t.Category) {
		return ErrInvalidCategory
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	return nil
}

// Validate checks the provided fields of a patch against the kind of the
// transaction being updated. An all-nil patch is rejected.
func (p TransactionPatch) Validate(kind Kind) error {
	if p.Title == nil && p.Amount == nil && p.Category == nil && p.Date == nil {
		return ErrEmptyPatch
	}
	if p.Title != nil {
		if len(strings.TrimSpace(*p.Title)) == 0 {
			return ErrEmptyTitle
		}
		if len(*p.Title) > 200 {
			return errors.New("title too long (max 200 characters)")
		}
	}
	if p.Amount != nil {
		if err := p.Amount.Validate(); err != nil {
			return err
		}
	}
	if p.Category != nil && !kind.ValidCategory(*p.Category) {
		return ErrInvalidCategory
	}
	if p.Date != nil {
		if err := p.Date.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Apply returns a copy of t with the patch fields set. ID, OwnerID, Kind
// and CreatedAt are never changed.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	return t
}

func (u User) Validate() error {
	if len(strings.TrimSpace(u.FullName)) == 0 {
		return ErrEmptyName
	}
	if len(strings.TrimSpace(u.Email)) == 0 {
		return ErrEmptyEmail
	}
	return nil
}

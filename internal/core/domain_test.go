package core

import (
	"testing"
	"time"
)

func TestKindValidCategory(t *testing.T) {
	if !Expense.ValidCategory("Food") {
		t.Fatalf("Food should be a valid expense category")
	}
	if Expense.ValidCategory("Salary") {
		t.Fatalf("Salary is an income category, not an expense one")
	}
	if !Income.ValidCategory("Salary") {
		t.Fatalf("Salary should be a valid income category")
	}
	if Kind("transfer").Valid() {
		t.Fatalf("unknown kind should be invalid")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Kind:     Expense,
		Title:    "Groceries",
		Amount:   Money{Cents: 4250},
		Category: "Food",
		Date:     NewDate(2025, 3, 14),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{Kind: "transfer", Title: "a", Amount: Money{Cents: 1}, Category: "Food", Date: NewDate(2025, 1, 1)},
		{Kind: Expense, Title: "", Amount: Money{Cents: 1}, Category: "Food", Date: NewDate(2025, 1, 1)},
		{Kind: Expense, Title: "a", Amount: Money{Cents: 0}, Category: "Food", Date: NewDate(2025, 1, 1)},
		{Kind: Expense, Title: "a", Amount: Money{Cents: 1}, Category: "Salary", Date: NewDate(2025, 1, 1)},
		{Kind: Expense, Title: "a", Amount: Money{Cents: 1}, Category: "Food", Date: Date{Time: time.Time{}}},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestPatchValidateAndApply(t *testing.T) {
	orig := Transaction{
		ID:       "t1",
		OwnerID:  "u1",
		Kind:     Expense,
		Title:    "Groceries",
		Amount:   Money{Cents: 4250},
		Category: "Food",
		Date:     NewDate(2025, 3, 14),
	}

	amount := Money{Cents: 5000}
	p := TransactionPatch{Amount: &amount}
	if err := p.Validate(orig.Kind); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	got := p.Apply(orig)
	if got.Amount.Cents != 5000 {
		t.Fatalf("amount not applied: %d", got.Amount.Cents)
	}
	if got.Title != orig.Title || got.Category != orig.Category || got.Date != orig.Date || got.Kind != orig.Kind {
		t.Fatalf("patch touched fields it should not have: %+v", got)
	}

	if err := (TransactionPatch{}).Validate(orig.Kind); err != ErrEmptyPatch {
		t.Fatalf("expected ErrEmptyPatch, got %v", err)
	}

	badCat := "Salary"
	if err := (TransactionPatch{Category: &badCat}).Validate(Expense); err != ErrInvalidCategory {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}

	zero := Money{Cents: 0}
	if err := (TransactionPatch{Amount: &zero}).Validate(Expense); err != ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-07-09")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d.Year() != 2025 || d.Month() != time.July || d.Day() != 9 {
		t.Fatalf("unexpected date: %v", d)
	}
	if d.MonthLabel() != "Jul" {
		t.Fatalf("unexpected month label: %q", d.MonthLabel())
	}
	if _, err := ParseDate("not-a-date"); err == nil {
		t.Fatalf("expected error")
	}
}

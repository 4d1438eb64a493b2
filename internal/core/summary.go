package core

import (
	"math"
	"sort"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// MonthTotal holds the income/expense subtotals for one month label.
type MonthTotal struct {
	Label   string // short month name, e.g. "Jan"
	Income  Money
	Expense Money
}

// Summary is the full statistics view derived from a transaction list.
type Summary struct {
	TotalIncome  Money
	TotalExpense Money
	Balance      Money
	// SavingsRate is (income-expense)/income as a percentage, rounded
	// half-up to one decimal. Zero when there is no income.
	SavingsRate float64
	Count       int
	// Monthly buckets in first-seen order. Labels carry no year, so the
	// same month from different years shares a bucket.
	Monthly []MonthTotal
	// ByCategory sums expense transactions only, in first-seen order.
	ByCategory []CategoryAmount
}

// Summarize computes the dashboard statistics for a transaction list.
// It is a pure function: it never mutates its input and is deterministic
// for a given list.
func Summarize(list []Transaction) Summary {
	s := Summary{Count: len(list)}

	monthIdx := map[string]int{}
	catIdx := map[string]int{}

	for _, t := range list {
		label := t.Date.MonthLabel()
		mi, ok := monthIdx[label]
		if !ok {
			mi = len(s.Monthly)
			monthIdx[label] = mi
			s.Monthly = append(s.Monthly, MonthTotal{Label: label})
		}

		switch t.Kind {
		case Income:
			s.TotalIncome.Cents += t.Amount.Cents
			s.Monthly[mi].Income.Cents += t.Amount.Cents
		default:
			s.TotalExpense.Cents += t.Amount.Cents
			s.Monthly[mi].Expense.Cents += t.Amount.Cents

			ci, ok := catIdx[t.Category]
			if !ok {
				ci = len(s.ByCategory)
				catIdx[t.Category] = ci
				s.ByCategory = append(s.ByCategory, CategoryAmount{Name: t.Category})
			}
			s.ByCategory[ci].Amount.Cents += t.Amount.Cents
		}
	}

	s.Balance = Money{Cents: s.TotalIncome.Cents - s.TotalExpense.Cents}
	if s.TotalIncome.Cents > 0 {
		rate := float64(s.TotalIncome.Cents-s.TotalExpense.Cents) / float64(s.TotalIncome.Cents) * 100
		s.SavingsRate = math.Round(rate*10) / 10
	}
	return s
}

// CategoriesByAmount returns the category breakdown sorted largest first,
// as shown in the analytics breakdown list. The receiver is not modified.
func (s Summary) CategoriesByAmount() []CategoryAmount {
	out := make([]CategoryAmount, len(s.ByCategory))
	copy(out, s.ByCategory)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.Cents > out[j].Amount.Cents
	})
	return out
}

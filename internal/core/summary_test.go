package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tx(kind Kind, cents int64, category string, date Date) Transaction {
	return Transaction{
		Kind:     kind,
		Title:    "t",
		Amount:   Money{Cents: cents},
		Category: category,
		Date:     date,
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, int64(0), s.TotalIncome.Cents)
	assert.Equal(t, int64(0), s.TotalExpense.Cents)
	assert.Equal(t, int64(0), s.Balance.Cents)
	assert.Equal(t, 0.0, s.SavingsRate)
	assert.Equal(t, 0, s.Count)
	assert.Empty(t, s.Monthly)
	assert.Empty(t, s.ByCategory)
}

func TestSummarizeScenario(t *testing.T) {
	list := []Transaction{
		tx(Income, 100000, "Salary", NewDate(2025, 1, 10)),
		tx(Expense, 40000, "Food", NewDate(2025, 1, 20)),
	}
	s := Summarize(list)

	assert.Equal(t, int64(100000), s.TotalIncome.Cents)
	assert.Equal(t, int64(40000), s.TotalExpense.Cents)
	assert.Equal(t, int64(60000), s.Balance.Cents)
	assert.Equal(t, 60.0, s.SavingsRate)

	require.Len(t, s.ByCategory, 1)
	assert.Equal(t, "Food", s.ByCategory[0].Name)
	assert.Equal(t, int64(40000), s.ByCategory[0].Amount.Cents)

	require.Len(t, s.Monthly, 1)
	assert.Equal(t, "Jan", s.Monthly[0].Label)
	assert.Equal(t, int64(100000), s.Monthly[0].Income.Cents)
	assert.Equal(t, int64(40000), s.Monthly[0].Expense.Cents)
}

func TestSummarizeKindsAreDisjoint(t *testing.T) {
	list := []Transaction{
		tx(Income, 500, "Salary", NewDate(2025, 2, 1)),
		tx(Income, 700, "Gift", NewDate(2025, 2, 2)),
		tx(Expense, 300, "Rent", NewDate(2025, 2, 3)),
		tx(Expense, 200, "Food", NewDate(2025, 2, 4)),
	}
	s := Summarize(list)

	var total int64
	for _, tr := range list {
		total += tr.Amount.Cents
	}
	// Every element counted in exactly one of the two totals.
	assert.Equal(t, total, s.TotalIncome.Cents+s.TotalExpense.Cents)
	assert.Equal(t, s.TotalIncome.Cents-s.TotalExpense.Cents, s.Balance.Cents)
}

func TestSummarizeSavingsRateZeroIncome(t *testing.T) {
	list := []Transaction{
		tx(Expense, 9999, "Shopping", NewDate(2025, 5, 5)),
	}
	s := Summarize(list)
	assert.Equal(t, 0.0, s.SavingsRate)
	assert.Equal(t, int64(-9999), s.Balance.Cents)
}

func TestSummarizeCategoryBreakdownSumsToExpenses(t *testing.T) {
	list := []Transaction{
		tx(Expense, 1000, "Food", NewDate(2025, 3, 1)),
		tx(Expense, 2500, "Rent", NewDate(2025, 3, 2)),
		tx(Expense, 500, "Food", NewDate(2025, 3, 3)),
		tx(Income, 4000, "Salary", NewDate(2025, 3, 4)), // excluded from categories
	}
	s := Summarize(list)

	var catSum int64
	for _, c := range s.ByCategory {
		catSum += c.Amount.Cents
	}
	assert.Equal(t, s.TotalExpense.Cents, catSum)
	require.Len(t, s.ByCategory, 2)
}

func TestSummarizeMonthLabelsMergeAcrossYears(t *testing.T) {
	// "Jan" from two different years lands in the same bucket.
	list := []Transaction{
		tx(Expense, 100, "Food", NewDate(2024, 1, 10)),
		tx(Expense, 200, "Food", NewDate(2025, 1, 10)),
	}
	s := Summarize(list)
	require.Len(t, s.Monthly, 1)
	assert.Equal(t, "Jan", s.Monthly[0].Label)
	assert.Equal(t, int64(300), s.Monthly[0].Expense.Cents)
}

func TestSummarizeSavingsRateRounding(t *testing.T) {
	// 1/3 saved -> 33.333...% -> 33.3 at one decimal.
	list := []Transaction{
		tx(Income, 300, "Salary", NewDate(2025, 6, 1)),
		tx(Expense, 200, "Food", NewDate(2025, 6, 2)),
	}
	s := Summarize(list)
	assert.Equal(t, 33.3, s.SavingsRate)
}

func TestCategoriesByAmountSortsDescending(t *testing.T) {
	list := []Transaction{
		tx(Expense, 100, "Food", NewDate(2025, 3, 1)),
		tx(Expense, 900, "Rent", NewDate(2025, 3, 2)),
		tx(Expense, 400, "Transport", NewDate(2025, 3, 3)),
	}
	s := Summarize(list)
	sorted := s.CategoriesByAmount()
	require.Len(t, sorted, 3)
	assert.Equal(t, "Rent", sorted[0].Name)
	assert.Equal(t, "Transport", sorted[1].Name)
	assert.Equal(t, "Food", sorted[2].Name)
	// Original slice keeps first-seen order.
	assert.Equal(t, "Food", s.ByCategory[0].Name)
}

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleList() []Transaction {
	return []Transaction{
		{ID: "1", OwnerID: "u1", Kind: Expense, Title: "Weekly groceries", Category: "Food", Amount: Money{Cents: 4500}, Date: NewDate(2025, 3, 1)},
		{ID: "2", OwnerID: "u1", Kind: Income, Title: "March salary", Category: "Salary", Amount: Money{Cents: 300000}, Date: NewDate(2025, 3, 2)},
		{ID: "3", OwnerID: "u2", Kind: Expense, Title: "Bus pass", Category: "Transport", Amount: Money{Cents: 7000}, Date: NewDate(2025, 3, 3)},
	}
}

func TestFilterIdentity(t *testing.T) {
	list := sampleList()
	got := Filter{Query: "", Kind: FilterAll, Category: FilterAll}.Apply(list, nil)
	assert.Equal(t, list, got)

	// Zero-value filter behaves the same.
	got = Filter{}.Apply(list, nil)
	assert.Equal(t, list, got)
}

func TestFilterIdempotent(t *testing.T) {
	list := sampleList()
	f := Filter{Query: "gro", Kind: "expense"}
	once := f.Apply(list, nil)
	twice := f.Apply(once, nil)
	assert.Equal(t, once, twice)
}

func TestFilterByQuery(t *testing.T) {
	list := sampleList()

	// Title match, case-insensitive.
	got := Filter{Query: "GROCERIES"}.Apply(list, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)

	// Category substring match.
	got = Filter{Query: "trans"}.Apply(list, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].ID)

	got = Filter{Query: "no such thing"}.Apply(list, nil)
	assert.Empty(t, got)
}

func TestFilterByKindAndCategory(t *testing.T) {
	list := sampleList()

	got := Filter{Kind: "income"}.Apply(list, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)

	got = Filter{Category: "Food"}.Apply(list, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)

	// Conditions combine with AND.
	got = Filter{Query: "groceries", Kind: "income"}.Apply(list, nil)
	assert.Empty(t, got)
}

func TestFilterOwnerNameLookup(t *testing.T) {
	list := sampleList()
	names := map[string]string{"u1": "Ada Lovelace", "u2": "Grace Hopper"}
	lookup := func(id string) string { return names[id] }

	got := Filter{Query: "grace"}.Apply(list, lookup)
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].ID)

	// Without the lookup the same query matches nothing.
	got = Filter{Query: "grace"}.Apply(list, nil)
	assert.Empty(t, got)
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	list := sampleList()
	orig := sampleList()
	_ = Filter{Query: "salary"}.Apply(list, nil)
	assert.Equal(t, orig, list)
}

package core

import "strings"

// FilterAll is the wildcard value for the kind and category filters.
const FilterAll = "all"

// Filter describes the search box and the two dropdown filters of the
// transactions view. Zero value matches everything.
type Filter struct {
	// Query is matched case-insensitively as a substring of the title,
	// the category, and (when an owner lookup is supplied) the owner's
	// display name.
	Query    string
	Kind     string // "all", "income" or "expense"
	Category string // "all" or a category name
}

// OwnerNameFunc resolves an owner id to a display name for admin views.
// It may return "" when the owner is unknown.
type OwnerNameFunc func(ownerID string) string

// Apply produces the derived view list. It never mutates the input; the
// result is a fresh slice (possibly empty, never nil). Applying the same
// filter to its own output yields an equal list.
func (f Filter) Apply(list []Transaction, ownerName OwnerNameFunc) []Transaction {
	out := make([]Transaction, 0, len(list))
	q := strings.ToLower(strings.TrimSpace(f.Query))

	for _, t := range list {
		if q != "" && !matchesQuery(t, q, ownerName) {
			continue
		}
		if f.Kind != "" && f.Kind != FilterAll && string(t.Kind) != f.Kind {
			continue
		}
		if f.Category != "" && f.Category != FilterAll && t.Category != f.Category {
			continue
		}
		out = append(out, t)
	}
	return out
}

func matchesQuery(t Transaction, q string, ownerName OwnerNameFunc) bool {
	if strings.Contains(strings.ToLower(t.Title), q) {
		return true
	}
	if strings.Contains(strings.ToLower(t.Category), q) {
		return true
	}
	if ownerName != nil {
		if name := ownerName(t.OwnerID); name != "" && strings.Contains(strings.ToLower(name), q) {
			return true
		}
	}
	return false
}

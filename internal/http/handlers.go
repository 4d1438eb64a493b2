package http

import (
	"log/slog"
	"net/http"

	"expenso/internal/core"
	"expenso/internal/store"
)

// dashboardData feeds the index page: summary cards plus the most recent
// records.
type dashboardData struct {
	User              core.User
	Summary           core.Summary
	Recent            []core.Transaction
	ExpenseCategories []string
	IncomeCategories  []string
	FeedStale         bool
}

const recentLimit = 5

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		NotFoundError("Page not found").Write(w)
		return
	}
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	u := currentUser(r)
	scope := store.OwnerScope(u.ID)

	list, err := s.snapshotFor(r.Context(), scope)
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard snapshot error", "error", err, "owner_id", u.ID)
		InternalServerError("Could not load transactions").Write(w)
		return
	}
	summary, err := s.summaryFor(r.Context(), scope)
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard summary error", "error", err, "owner_id", u.ID)
		InternalServerError("Could not load summary").Write(w)
		return
	}

	recent := list
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}

	data := dashboardData{
		User:              u,
		Summary:           summary,
		Recent:            recent,
		ExpenseCategories: core.ExpenseCategories,
		IncomeCategories:  core.IncomeCategories,
		FeedStale:         s.feedStale(r, scope),
	}
	s.render(w, r, "index.html", data)
}

// transactionsData feeds the filterable list partial.
type transactionsData struct {
	User              core.User
	Transactions      []core.Transaction
	Filter            core.Filter
	ExpenseCategories []string
	IncomeCategories  []string
	FeedStale         bool
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListTransactions(w, r)
	case http.MethodPost:
		s.handleCreateTransaction(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	scope := store.OwnerScope(u.ID)

	list, err := s.snapshotFor(r.Context(), scope)
	if err != nil {
		slog.ErrorContext(r.Context(), "List snapshot error", "error", err, "owner_id", u.ID)
		InternalServerError("Could not load transactions").Write(w)
		return
	}

	filter := filterFromQuery(r)
	filtered := filter.Apply(list, nil)

	data := transactionsData{
		User:              u,
		Transactions:      filtered,
		Filter:            filter,
		ExpenseCategories: core.ExpenseCategories,
		IncomeCategories:  core.IncomeCategories,
		FeedStale:         s.feedStale(r, scope),
	}
	s.render(w, r, "transactions.html", data)
}

// analyticsData feeds the analytics partial.
type analyticsData struct {
	User       core.User
	Summary    core.Summary
	Categories []core.CategoryAmount
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	u := currentUser(r)
	summary, err := s.summaryFor(r.Context(), store.OwnerScope(u.ID))
	if err != nil {
		slog.ErrorContext(r.Context(), "Analytics summary error", "error", err, "owner_id", u.ID)
		InternalServerError("Could not load analytics").Write(w)
		return
	}

	data := analyticsData{
		User:       u,
		Summary:    summary,
		Categories: summary.CategoriesByAmount(),
	}
	s.render(w, r, "analytics.html", data)
}

// feedStale reports whether the scope's feed last errored, meaning the
// rendered list may lag the store.
func (s *Server) feedStale(r *http.Request, scope store.Scope) bool {
	f, err := s.feedFor(r.Context(), scope)
	if err != nil {
		return true
	}
	return f.Err() != nil
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "template", name)
		InternalServerError("templates not loaded").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", name)
	}
}

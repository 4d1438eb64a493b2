package http

import (
	"errors"
	"log/slog"
	"net/http"

	"expenso/internal/core"
	"expenso/internal/store"
)

type adminDashboardData struct {
	User       core.User
	Summary    core.Summary
	UserCount  int
	Categories []core.CategoryAmount
}

func (s *Server) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	summary, err := s.summaryFor(r.Context(), store.ScopeAll)
	if err != nil {
		slog.ErrorContext(r.Context(), "Admin summary error", "error", err)
		InternalServerError("Could not load platform summary").Write(w)
		return
	}
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Admin user list error", "error", err)
		InternalServerError("Could not load users").Write(w)
		return
	}

	data := adminDashboardData{
		User:       currentUser(r),
		Summary:    summary,
		UserCount:  len(users),
		Categories: summary.CategoriesByAmount(),
	}
	s.render(w, r, "admin.html", data)
}

type adminTransactionsData struct {
	User         core.User
	Transactions []core.Transaction
	OwnerNames   map[string]string
	Filter       core.Filter
	FeedStale    bool
}

func (s *Server) handleAdminTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	list, err := s.snapshotFor(r.Context(), store.ScopeAll)
	if err != nil {
		slog.ErrorContext(r.Context(), "Admin snapshot error", "error", err)
		InternalServerError("Could not load transactions").Write(w)
		return
	}
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Admin user list error", "error", err)
		InternalServerError("Could not load users").Write(w)
		return
	}

	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.FullName
	}
	// Deleted owners keep their transactions; show the raw id for those.
	for _, t := range list {
		if _, ok := names[t.OwnerID]; !ok {
			names[t.OwnerID] = t.OwnerID
		}
	}

	// Admin search also matches the resolved owner name.
	filter := filterFromQuery(r)
	filtered := filter.Apply(list, func(ownerID string) string { return names[ownerID] })

	data := adminTransactionsData{
		User:         currentUser(r),
		Transactions: filtered,
		OwnerNames:   names,
		Filter:       filter,
		FeedStale:    s.feedStale(r, store.ScopeAll),
	}
	s.render(w, r, "admin_transactions.html", data)
}

type adminUsersData struct {
	User  core.User
	Users []core.User
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Admin user list error", "error", err)
		InternalServerError("Could not load users").Write(w)
		return
	}

	s.render(w, r, "admin_users.html", adminUsersData{User: currentUser(r), Users: users})
}

// handleAdminUserAction routes /admin/users/{id}/toggle-admin and
// /admin/users/{id}/delete.
func (s *Server) handleAdminUserAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}

	id, action := pathSuffix(r.URL.Path, "/admin/users/")
	if id == "" {
		NotFoundError("User not found").Write(w)
		return
	}

	switch action {
	case "toggle-admin":
		s.handleToggleAdmin(w, r, id)
	case "delete":
		s.handleDeleteUser(w, r, id)
	default:
		NotFoundError("Unknown action").Write(w)
	}
}

func (s *Server) handleToggleAdmin(w http.ResponseWriter, r *http.Request, id string) {
	admin := currentUser(r)
	if id == admin.ID {
		UnprocessableEntityError("You cannot change your own admin role").Write(w)
		return
	}

	target, err := s.store.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFoundError("User not found").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "User lookup error", "error", err, "owner_id", id)
		InternalServerError("Could not load user").Write(w)
		return
	}

	if err := s.store.SetAdmin(r.Context(), id, !target.IsAdmin); err != nil {
		slog.ErrorContext(r.Context(), "Toggle admin error", "error", err, "owner_id", id)
		InternalServerError("Could not update user").Write(w)
		return
	}
	if target.IsAdmin {
		// Demotion ends any admin sessions immediately.
		s.sessions.DestroyUser(id)
	}

	slog.InfoContext(r.Context(), "Admin role toggled", "owner_id", id, "is_admin", !target.IsAdmin)
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request, id string) {
	admin := currentUser(r)
	if id == admin.ID {
		UnprocessableEntityError("You cannot delete your own account").Write(w)
		return
	}

	// Profile only; the user's transactions stay in the ledger.
	if err := s.store.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFoundError("User not found").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "User delete error", "error", err, "owner_id", id)
		InternalServerError("Could not delete user").Write(w)
		return
	}
	s.sessions.DestroyUser(id)

	slog.InfoContext(r.Context(), "User deleted", "owner_id", id)
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}

func (s *Server) handleAdminExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if s.exporter == nil {
		UnprocessableEntityError("Export is not configured").Write(w)
		return
	}

	list, err := s.store.List(r.Context(), store.ScopeAll)
	if err != nil {
		slog.ErrorContext(r.Context(), "Export list error", "error", err)
		InternalServerError("Could not load transactions").Write(w)
		return
	}
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Export user list error", "error", err)
		InternalServerError("Could not load users").Write(w)
		return
	}

	if err := s.exporter.Export(r.Context(), users, list); err != nil {
		slog.ErrorContext(r.Context(), "Sheets export error", "error", err, "count", len(list))
		InternalServerError("Export failed").Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Exported transactions", "count", len(list))
	NewHTMXResponse().
		TriggerSuccessNotification("Export complete").
		BodyHTML(`<div class="success">Exported</div>`).
		Write(w)
}

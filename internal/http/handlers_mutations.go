package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"expenso/internal/core"
	"expenso/internal/store"
)

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "url", r.URL.Path)
		ErrorResponse(http.StatusBadRequest, "Invalid request format").Write(w)
		return
	}

	u := currentUser(r)

	kind := core.Kind(sanitizeInput(r.Form.Get("kind")))
	title := sanitizeInput(r.Form.Get("title"))
	category := sanitizeInput(r.Form.Get("category"))
	amountStr := strings.TrimSpace(r.Form.Get("amount"))
	dateStr := strings.TrimSpace(r.Form.Get("date"))

	cents, err := core.ParseDecimalToCents(amountStr)
	if err != nil {
		UnprocessableEntityError("Invalid amount").Write(w)
		return
	}
	date, err := core.ParseDate(dateStr)
	if err != nil {
		UnprocessableEntityError("Invalid date").Write(w)
		return
	}

	t := core.Transaction{
		OwnerID:  u.ID,
		Kind:     kind,
		Title:    title,
		Amount:   core.Money{Cents: cents},
		Category: category,
		Date:     date,
	}
	if err := t.Validate(); err != nil {
		UnprocessableEntityError("Invalid transaction: " + err.Error()).Write(w)
		return
	}

	id, err := s.txs.Create(r.Context(), t)
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction create error", "error", err, "owner_id", u.ID)
		InternalServerError("Could not save transaction").Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Transaction created",
		"transaction_id", id,
		"owner_id", u.ID,
		"kind", string(kind),
		"amount_cents", cents)

	NewHTMXResponse().
		TriggerTransactionChanged("created").
		TriggerSuccessNotification("Transaction saved").
		BodyHTML(`<div class="success">Saved</div>`).
		Write(w)
}

// handleTransactionAction routes /transactions/{id}/update and
// /transactions/{id}/delete.
func (s *Server) handleTransactionAction(w http.ResponseWriter, r *http.Request) {
	id, action := pathSuffix(r.URL.Path, "/transactions/")
	if id == "" {
		NotFoundError("Transaction not found").Write(w)
		return
	}

	switch {
	case action == "update" && r.Method == http.MethodPost:
		s.handleUpdateTransaction(w, r, id)
	case action == "delete" && (r.Method == http.MethodPost || r.Method == http.MethodDelete):
		s.handleDeleteTransaction(w, r, id)
	default:
		NotFoundError("Unknown action").Write(w)
	}
}

// mayTouch checks the transaction exists and belongs to the caller.
// Admins may touch any record.
func (s *Server) mayTouch(w http.ResponseWriter, r *http.Request, id string) bool {
	u := currentUser(r)
	t, err := s.txs.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFoundError("Transaction not found").Write(w)
		} else {
			slog.ErrorContext(r.Context(), "Transaction lookup error", "error", err, "transaction_id", id)
			InternalServerError("Could not load transaction").Write(w)
		}
		return false
	}
	if !u.IsAdmin && t.OwnerID != u.ID {
		NotFoundError("Transaction not found").Write(w)
		return false
	}
	return true
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, id string) {
	if err := r.ParseForm(); err != nil {
		ErrorResponse(http.StatusBadRequest, "Invalid request format").Write(w)
		return
	}
	if !s.mayTouch(w, r, id) {
		return
	}

	var patch core.TransactionPatch
	if r.Form.Has("title") {
		title := sanitizeInput(r.Form.Get("title"))
		patch.Title = &title
	}
	if v := strings.TrimSpace(r.Form.Get("amount")); v != "" {
		cents, err := core.ParseDecimalToCents(v)
		if err != nil {
			UnprocessableEntityError("Invalid amount").Write(w)
			return
		}
		patch.Amount = &core.Money{Cents: cents}
	}
	if r.Form.Has("category") {
		category := sanitizeInput(r.Form.Get("category"))
		patch.Category = &category
	}
	if v := strings.TrimSpace(r.Form.Get("date")); v != "" {
		date, err := core.ParseDate(v)
		if err != nil {
			UnprocessableEntityError("Invalid date").Write(w)
			return
		}
		patch.Date = &date
	}

	if err := s.txs.Update(r.Context(), id, patch); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			NotFoundError("Transaction not found").Write(w)
		case errors.Is(err, core.ErrEmptyPatch),
			errors.Is(err, core.ErrInvalidAmount),
			errors.Is(err, core.ErrEmptyTitle),
			errors.Is(err, core.ErrInvalidCategory),
			errors.Is(err, core.ErrZeroDate):
			UnprocessableEntityError("Invalid update: " + err.Error()).Write(w)
		default:
			slog.ErrorContext(r.Context(), "Transaction update error", "error", err, "transaction_id", id)
			InternalServerError("Could not update transaction").Write(w)
		}
		return
	}

	slog.InfoContext(r.Context(), "Transaction updated", "transaction_id", id)

	NewHTMXResponse().
		TriggerTransactionChanged("updated").
		TriggerSuccessNotification("Transaction updated").
		BodyHTML(`<div class="success">Updated</div>`).
		Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, id string) {
	if !s.mayTouch(w, r, id) {
		return
	}

	if err := s.txs.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFoundError("Transaction not found").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Transaction delete error", "error", err, "transaction_id", id)
		InternalServerError("Could not delete transaction").Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Transaction deleted", "transaction_id", id)

	NewHTMXResponse().
		TriggerTransactionChanged("deleted").
		TriggerSuccessNotification("Transaction deleted").
		BodyHTML(`<div class="success">Deleted</div>`).
		Write(w)
}

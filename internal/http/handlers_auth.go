package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"expenso/internal/auth"
)

type authPageData struct {
	Error string
	Email string
	Name  string
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "signup.html", authPageData{})
	case http.MethodPost:
		s.handleSignupSubmit(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) handleSignupSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		ErrorResponse(http.StatusBadRequest, "Invalid request format").Write(w)
		return
	}

	name := sanitizeInput(r.Form.Get("full_name"))
	email := sanitizeInput(r.Form.Get("email"))
	password := r.Form.Get("password")

	u, err := s.auth.SignUp(r.Context(), name, email, password)
	if err != nil {
		msg := "Could not create account"
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, auth.ErrEmailInUse):
			msg, status = "That email is already registered", http.StatusUnprocessableEntity
		case errors.Is(err, auth.ErrInvalidEmail):
			msg, status = "That email address does not look valid", http.StatusUnprocessableEntity
		case errors.Is(err, auth.ErrWeakPassword):
			msg, status = "Password must be at least 6 characters", http.StatusUnprocessableEntity
		default:
			slog.ErrorContext(r.Context(), "Signup error", "error", err, "user_email", email)
		}
		w.WriteHeader(status)
		s.render(w, r, "signup.html", authPageData{Error: msg, Email: email, Name: name})
		return
	}

	slog.InfoContext(r.Context(), "Account created", "owner_id", u.ID, "user_email", u.Email, "is_admin", u.IsAdmin)
	s.startSession(w, r, u.ID)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "login.html", authPageData{})
	case http.MethodPost:
		s.handleLoginSubmit(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		ErrorResponse(http.StatusBadRequest, "Invalid request format").Write(w)
		return
	}

	email := sanitizeInput(r.Form.Get("email"))
	password := r.Form.Get("password")

	u, err := s.auth.SignIn(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			w.WriteHeader(http.StatusUnauthorized)
			s.render(w, r, "login.html", authPageData{Error: "Invalid email or password", Email: email})
			return
		}
		slog.ErrorContext(r.Context(), "Login error", "error", err, "user_email", email)
		w.WriteHeader(http.StatusInternalServerError)
		s.render(w, r, "login.html", authPageData{Error: "Could not sign in", Email: email})
		return
	}

	slog.InfoContext(r.Context(), "Signed in", "owner_id", u.ID)
	s.startSession(w, r, u.ID)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}

	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		s.sessions.Destroy(c.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, userID string) {
	token, err := s.sessions.Create(userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Session create error", "error", err, "owner_id", userID)
		InternalServerError("Could not start session").Write(w)
		return
	}

	secure := r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

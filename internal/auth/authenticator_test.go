package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"expenso/internal/store/memory"
)

func TestSignUpAndSignIn(t *testing.T) {
	a := NewAuthenticator(memory.New(), "")
	ctx := context.Background()

	u, err := a.SignUp(ctx, "Ada Lovelace", "ada@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if u.ID == "" {
		t.Error("expected assigned user id")
	}
	if u.IsAdmin {
		t.Error("regular sign-up should not grant admin")
	}

	got, err := a.SignIn(ctx, "ada@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("SignIn user id = %q, want %q", got.ID, u.ID)
	}
}

func TestSignUpValidation(t *testing.T) {
	a := NewAuthenticator(memory.New(), "")
	ctx := context.Background()

	if _, err := a.SignUp(ctx, "Bob", "not-an-email", "secret1"); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("bad email: got %v, want ErrInvalidEmail", err)
	}
	if _, err := a.SignUp(ctx, "Bob", "bob@example.com", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("short password: got %v, want ErrWeakPassword", err)
	}

	if _, err := a.SignUp(ctx, "Bob", "bob@example.com", "secret1"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if _, err := a.SignUp(ctx, "Robert", "BOB@example.com", "secret2"); !errors.Is(err, ErrEmailInUse) {
		t.Errorf("duplicate email: got %v, want ErrEmailInUse", err)
	}
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	a := NewAuthenticator(memory.New(), "")
	ctx := context.Background()

	if _, err := a.SignUp(ctx, "Ada", "ada@example.com", "secret1"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	if _, err := a.SignIn(ctx, "ada@example.com", "wrongpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v, want ErrInvalidCredentials", err)
	}
	if _, err := a.SignIn(ctx, "nobody@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: got %v, want ErrInvalidCredentials", err)
	}
}

func TestAdminBootstrap(t *testing.T) {
	a := NewAuthenticator(memory.New(), "Admin@Example.com")
	ctx := context.Background()

	u, err := a.SignUp(ctx, "Root", "admin@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if !u.IsAdmin {
		t.Error("configured admin email should sign up as admin")
	}
}

func TestSessionLifecycle(t *testing.T) {
	sm := NewSessionManager(SessionConfig{TTL: time.Hour, CleanupInterval: time.Hour})
	defer sm.Stop()

	token, err := sm.Create("user-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id, ok := sm.Resolve(token); !ok || id != "user-1" {
		t.Errorf("Resolve = %q, %v; want user-1, true", id, ok)
	}

	sm.Destroy(token)
	if _, ok := sm.Resolve(token); ok {
		t.Error("destroyed token should not resolve")
	}
}

func TestSessionExpiry(t *testing.T) {
	sm := NewSessionManager(SessionConfig{TTL: -time.Second, CleanupInterval: time.Hour})
	defer sm.Stop()

	token, err := sm.Create("user-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, ok := sm.Resolve(token); ok {
		t.Error("expired token should not resolve")
	}
}

func TestDestroyUserDropsAllSessions(t *testing.T) {
	sm := NewSessionManager(SessionConfig{TTL: time.Hour, CleanupInterval: time.Hour})
	defer sm.Stop()

	t1, _ := sm.Create("user-1")
	t2, _ := sm.Create("user-1")
	t3, _ := sm.Create("user-2")

	sm.DestroyUser("user-1")
	if _, ok := sm.Resolve(t1); ok {
		t.Error("t1 should be gone")
	}
	if _, ok := sm.Resolve(t2); ok {
		t.Error("t2 should be gone")
	}
	if _, ok := sm.Resolve(t3); !ok {
		t.Error("t3 belongs to another user and should survive")
	}
}

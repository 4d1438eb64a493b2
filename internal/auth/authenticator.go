// Package auth implements local email/password accounts and the session
// layer on top of them. Password hashes never leave this package or the
// store's credentials table.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"expenso/internal/core"
	"expenso/internal/store"
)

const minPasswordLength = 6

var (
	ErrEmailInUse         = errors.New("email already in use")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Authenticator creates accounts and verifies logins against the user
// store. A non-empty adminEmail grants admin on sign-up for that address.
type Authenticator struct {
	users      store.UserStore
	adminEmail string
}

func NewAuthenticator(users store.UserStore, adminEmail string) *Authenticator {
	return &Authenticator{
		users:      users,
		adminEmail: strings.ToLower(strings.TrimSpace(adminEmail)),
	}
}

// SignUp registers a new account. The email must parse as an address and
// be unused, the password must meet the minimum length.
func (a *Authenticator) SignUp(ctx context.Context, fullName, email, password string) (core.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if _, err := mail.ParseAddress(email); err != nil {
		return core.User{}, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return core.User{}, ErrWeakPassword
	}

	u := core.User{
		FullName: strings.TrimSpace(fullName),
		Email:    email,
		IsAdmin:  a.adminEmail != "" && email == a.adminEmail,
	}
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	id, err := a.users.CreateUser(ctx, u, string(hash))
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return core.User{}, ErrEmailInUse
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	u.ID = id

	return a.users.GetUser(ctx, id)
}

// SignIn verifies the password for the given email. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (a *Authenticator) SignIn(ctx context.Context, email, password string) (core.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	id, hash, err := a.users.Credentials(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return core.User{}, ErrInvalidCredentials
		}
		return core.User{}, fmt.Errorf("load credentials: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return core.User{}, ErrInvalidCredentials
	}

	return a.users.GetUser(ctx, id)
}

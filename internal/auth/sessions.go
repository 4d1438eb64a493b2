package auth

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// SessionManager tracks logged-in browsers. Sessions live in memory only;
// a restart logs everyone out.
type SessionManager struct {
	mu           sync.Mutex
	sessions     map[string]*sessionInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once

	ttl             time.Duration
	cleanupInterval time.Duration
}

type sessionInfo struct {
	userID    string
	expiresAt time.Time
}

// SessionConfig holds session manager configuration
type SessionConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

// DefaultSessionConfig returns sensible defaults
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		TTL:             24 * time.Hour,
		CleanupInterval: 15 * time.Minute,
	}
}

// NewSessionManager creates a session manager and starts its cleanup loop
func NewSessionManager(config SessionConfig) *SessionManager {
	if config.TTL == 0 {
		config.TTL = DefaultSessionConfig().TTL
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultSessionConfig().CleanupInterval
	}

	sm := &SessionManager{
		sessions:        make(map[string]*sessionInfo),
		stopCleanup:     make(chan struct{}),
		ttl:             config.TTL,
		cleanupInterval: config.CleanupInterval,
	}
	go sm.startCleanup()
	return sm
}

// Create mints a new opaque token bound to the user id.
func (sm *SessionManager) Create(userID string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sessions[token] = &sessionInfo{
		userID:    userID,
		expiresAt: time.Now().Add(sm.ttl),
	}
	return token, nil
}

// Resolve returns the user id for a token. Expired tokens are removed on
// the spot.
func (sm *SessionManager) Resolve(token string) (string, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	s, ok := sm.sessions[token]
	if !ok {
		return "", false
	}
	if time.Now().After(s.expiresAt) {
		delete(sm.sessions, token)
		return "", false
	}
	return s.userID, true
}

// Destroy invalidates a single token. Unknown tokens are a no-op.
func (sm *SessionManager) Destroy(token string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, token)
}

// DestroyUser invalidates every session belonging to the user, for
// account deletion and admin demotion.
func (sm *SessionManager) DestroyUser(userID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for token, s := range sm.sessions {
		if s.userID == userID {
			delete(sm.sessions, token)
		}
	}
}

// ActiveSessions returns the number of currently tracked sessions
func (sm *SessionManager) ActiveSessions() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.sessions)
}

// startCleanup runs periodic cleanup to remove expired sessions
func (sm *SessionManager) startCleanup() {
	ticker := time.NewTicker(sm.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sm.cleanupExpired()
		case <-sm.stopCleanup:
			return
		}
	}
}

func (sm *SessionManager) cleanupExpired() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	now := time.Now()
	for token, s := range sm.sessions {
		if now.After(s.expiresAt) {
			delete(sm.sessions, token)
		}
	}
}

// Stop gracefully shuts down the cleanup goroutine
func (sm *SessionManager) Stop() {
	sm.shutdownOnce.Do(func() {
		close(sm.stopCleanup)
	})
}

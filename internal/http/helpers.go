package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"expenso/internal/core"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// filterFromQuery builds the list filter from request query parameters.
func filterFromQuery(r *http.Request) core.Filter {
	q := r.URL.Query()
	return core.Filter{
		Query:    sanitizeInput(q.Get("q")),
		Kind:     sanitizeInput(q.Get("kind")),
		Category: sanitizeInput(q.Get("category")),
	}
}

// pathSuffix splits "/prefix/{id}/action" into id and action.
func pathSuffix(path, prefix string) (id, action string) {
	rest := strings.TrimPrefix(path, prefix)
	parts := strings.SplitN(rest, "/", 2)
	id = parts[0]
	if len(parts) == 2 {
		action = parts[1]
	}
	return id, action
}

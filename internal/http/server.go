// Package http serves the dashboard UI. Pages are rendered server-side
// from embedded templates; htmx swaps in the list and analytics partials.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"expenso/internal/auth"
	"expenso/internal/cache"
	"expenso/internal/core"
	"expenso/internal/export"
	"expenso/internal/feed"
	"expenso/internal/middleware/ratelimit"
	"expenso/internal/services"
	"expenso/internal/store"
	appweb "expenso/web"
)

const sessionCookie = "expenso_session"

type Server struct {
	http.Server
	templates *template.Template

	store    store.Store
	txs      *services.TransactionService
	auth     *auth.Authenticator
	sessions *auth.SessionManager
	exporter export.Exporter

	rateLimiter *ratelimit.Limiter

	// Per-scope feeds keep a live transaction list; handlers render from
	// feed snapshots, never from responses to their own writes.
	feedsMu sync.Mutex
	feeds   map[string]*feed.Feed

	summaryCache *cache.LRUCache[core.Summary]
	listCache    *cache.LRUCache[[]core.Transaction]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, st store.Store, txs *services.TransactionService, authn *auth.Authenticator, sessions *auth.SessionManager, exporter export.Exporter) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:        st,
		txs:          txs,
		auth:         authn,
		sessions:     sessions,
		exporter:     exporter,
		rateLimiter:  ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		feeds:        make(map[string]*feed.Feed),
		summaryCache: cache.NewLRUCache[core.Summary](100, 5*time.Minute),
		listCache:    cache.NewLRUCache[[]core.Transaction](200, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.Register(s.listCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.HandleFunc("/signup", s.withRequestContext(s.handleSignup))
	mux.HandleFunc("/login", s.withRequestContext(s.handleLogin))
	mux.HandleFunc("/logout", s.withRequestContext(s.handleLogout))

	mux.HandleFunc("/", s.withRequestContext(s.requireUser(s.handleDashboard)))
	mux.HandleFunc("/transactions", s.withRequestContext(s.requireUser(s.handleTransactions)))
	mux.HandleFunc("/analytics", s.withRequestContext(s.requireUser(s.handleAnalytics)))
	mux.HandleFunc("/transactions/", s.withRequestContext(s.requireUser(s.handleTransactionAction)))

	mux.HandleFunc("/admin", s.withRequestContext(s.requireAdmin(s.handleAdminDashboard)))
	mux.HandleFunc("/admin/transactions", s.withRequestContext(s.requireAdmin(s.handleAdminTransactions)))
	mux.HandleFunc("/admin/users", s.withRequestContext(s.requireAdmin(s.handleAdminUsers)))
	mux.HandleFunc("/admin/users/", s.withRequestContext(s.requireAdmin(s.handleAdminUserAction)))
	mux.HandleFunc("/admin/export", s.withRequestContext(s.requireAdmin(s.handleAdminExport)))

	return s
}

// feedFor returns (opening if needed) the live feed for a scope. Feeds
// invalidate the scope's caches whenever a new snapshot lands.
func (s *Server) feedFor(ctx context.Context, scope store.Scope) (*feed.Feed, error) {
	s.feedsMu.Lock()
	defer s.feedsMu.Unlock()

	key := scope.String()
	if f, ok := s.feeds[key]; ok {
		return f, nil
	}

	// Feeds outlive the opening request.
	f, err := feed.Open(context.WithoutCancel(ctx), s.store, scope)
	if err != nil {
		return nil, err
	}
	f.OnChange(func() {
		s.summaryCache.Delete(key)
		s.listCache.Delete(key)
	})
	s.feeds[key] = f
	return f, nil
}

// snapshotFor returns the cached transaction list for a scope, falling
// back to the feed snapshot. The returned slice must not be mutated.
func (s *Server) snapshotFor(ctx context.Context, scope store.Scope) ([]core.Transaction, error) {
	key := scope.String()
	if list, ok := s.listCache.Get(key); ok {
		return list, nil
	}

	f, err := s.feedFor(ctx, scope)
	if err != nil {
		return nil, err
	}
	if err := f.Err(); err != nil {
		slog.WarnContext(ctx, "Feed in error state, serving stale snapshot", "scope", key, "error", err)
	}
	list := f.Snapshot()
	s.listCache.Set(key, list)
	return list, nil
}

// summaryFor computes (or returns the cached) summary for a scope.
func (s *Server) summaryFor(ctx context.Context, scope store.Scope) (core.Summary, error) {
	key := scope.String()
	if sum, ok := s.summaryCache.Get(key); ok {
		return sum, nil
	}

	list, err := s.snapshotFor(ctx, scope)
	if err != nil {
		return core.Summary{}, err
	}
	sum := core.Summarize(list)
	s.summaryCache.Set(key, sum)
	return sum, nil
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		s.cacheManager.Stop()
		s.summaryCache.Purge()
		s.listCache.Purge()

		s.feedsMu.Lock()
		for _, f := range s.feeds {
			f.Close()
		}
		s.feeds = make(map[string]*feed.Feed)
		s.feedsMu.Unlock()

		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.List(r.Context(), store.ScopeAll); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money": func(m core.Money) string { return m.Format() },
	}
}

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"passenger-rights-bot/internal/catalog"
	"passenger-rights-bot/internal/chat"
	"passenger-rights-bot/internal/config"
	"passenger-rights-bot/internal/db"
	"passenger-rights-bot/internal/logger"
	"passenger-rights-bot/internal/resolver"
	"passenger-rights-bot/internal/store"
	"passenger-rights-bot/internal/types"
)

type Server struct {
	router   *chi.Mux
	cfg      config.Config
	catalog  *catalog.Catalog
	chat     *chat.Service
	sessions *store.MemoryStore
	database *db.DB
}

// NewServer loads the catalog, connects the optional stats database and
// builds the HTTP router.
func NewServer(ctx context.Context, cfg config.Config) (*Server, error) {
	cat, err := catalog.LoadFile(cfg.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	logger.Info(logger.Fields{
		"version": cat.Version(),
		"policy":  cfg.BaggagePolicy,
		"rules":   len(cat.Rules()),
	}, "response catalog loaded")

	sessions := store.NewMemoryStore(cfg.SessionTTL)

	var (
		database *db.DB
		stats    store.StatsStore
	)
	if cfg.DatabaseURL != "" {
		database, err = db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		logger.Info(nil, "database connection established")

		if err := database.RunMigrations(ctx); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		stats = store.NewDatabaseStore(database)
	} else {
		logger.Warn(nil, "DB_URL not provided, keeping resolution stats in memory")
		stats = store.NewMemoryStats()
	}

	svc := chat.NewService(resolver.New(cat, cfg.BaggagePolicy), sessions, stats)
	s := New(cfg, cat, svc, sessions)
	s.database = database
	return s, nil
}

// New builds a server around already constructed dependencies.
func New(cfg config.Config, cat *catalog.Catalog, svc *chat.Service, sessions *store.MemoryStore) *Server {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With", "X-Session-Id"},
		ExposedHeaders:   []string{"X-Session-Id", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s := &Server{
		router:   r,
		cfg:      cfg,
		catalog:  cat,
		chat:     svc,
		sessions: sessions,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)
	// Chat
	s.router.Post("/api/chat", s.handleChat)
	s.router.Get("/api/chat/history", s.handleHistory)
	s.router.Delete("/api/chat/history", s.handleResetChat)
	// Rights panel
	s.router.Get("/api/rights", s.handleRights)
	s.router.Post("/api/rights/toggle", s.handleToggleRights)
	// Catalog
	s.router.Get("/api/templates", s.handleTemplates)
	s.router.Get("/api/templates/{key}", s.handleTemplate)
	s.router.Get("/api/rules", s.handleRules)
	s.router.Get("/api/stats", s.handleStats)
}

func (s *Server) Router() http.Handler { return s.router }

// Close releases the stats database, if any.
func (s *Server) Close() error {
	if s.database == nil {
		return nil
	}
	return s.database.Close()
}

// RunJanitor evicts idle sessions every interval until ctx is done.
func (s *Server) RunJanitor(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.sessions.EvictIdle(); n > 0 {
				logger.Debug(logger.Fields{"evicted": n, "live": s.sessions.Len()}, "evicted idle sessions")
			}
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "catalog": s.catalog.Version()}
	if s.database != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.database.HealthCheck(ctx); err != nil {
			logger.FromContext(r.Context()).WithError(err).Warn("database health check failed")
			status["database"] = "unavailable"
		} else {
			status["database"] = "ok"
		}
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, types.ErrorResponse{Error: msg})
}

func newSessionID() string {
	return "s_" + uuid.NewString()
}

// getSessionID retrieves the session ID from cookie or header/query parameter
func getSessionID(r *http.Request) string {
	if cookie, err := GetSessionCookie(r); err == nil && cookie != "" {
		return cookie
	}
	if sid := r.Header.Get("X-Session-Id"); sid != "" {
		return sid
	}
	if sid := r.URL.Query().Get("sessionId"); sid != "" {
		return sid
	}
	return ""
}

// getOrCreateSessionID gets existing session ID or creates a new one, setting the cookie
func (s *Server) getOrCreateSessionID(w http.ResponseWriter, r *http.Request) string {
	sid := getSessionID(r)
	if sid == "" {
		sid = newSessionID()
		logger.FromContext(r.Context()).WithField("session", sid).Debug("creating new session")
	}
	// Refresh the cookie so it tracks the idle TTL
	SetSessionCookie(w, sid, s.cfg.SessionTTL, s.cfg.SecureCookies)
	w.Header().Set("X-Session-Id", sid)
	return sid
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.FromContext(r.Context()).WithFields(logger.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).String(),
		}).Info("request handled")
	})
}

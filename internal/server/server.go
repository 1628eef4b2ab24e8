package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Server owns the HTTP surface and the wired core components.
type Server struct {
	cfg      *Config
	db       *sql.DB
	registry *Registry
	store    *ContentStore
	svc      *Service
	auth     *Auth
	audit    *Auditor

	httpServer *http.Server
}

// NewServer wires the core components behind the routes.
func NewServer(cfg *Config, db *sql.DB) (*Server, error) {
	store, err := NewContentStore(cfg.ContentDir, cfg.MaxUploadBytes)
	if err != nil {
		return nil, err
	}

	registry := NewRegistry(db)
	audit := NewAuditor(db)
	auth := NewAuth(registry, NewSessionStore(cfg.SessionTTL), audit)

	s := &Server{
		cfg:      cfg,
		db:       db,
		registry: registry,
		store:    store,
		svc:      NewService(store, registry),
		auth:     auth,
		audit:    audit,
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)

	// Public surface.
	r.Get("/healthz", s.healthHandler)
	r.Get("/api/files", s.listFilesHandler)
	r.Get("/d/{id}", s.downloadHandler)
	r.Post("/api/login", s.auth.loginHandler())

	// Session-gated surface.
	r.Group(func(r chi.Router) {
		r.Use(s.auth.requireAuth)
		r.Post("/api/logout", s.auth.logoutHandler())
		r.Post("/api/upload", s.uploadHandler)
		r.Delete("/api/files/{id}", s.deleteFileHandler)
		r.Post("/api/password", s.changePasswordHandler)
	})

	return r
}

// Handler exposes the assembled router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.httpServer.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// securityHeadersMiddleware adds baseline security headers to all
// responses.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

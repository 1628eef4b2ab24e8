package server

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

// newTestDB opens a temporary SQLite database with the schema applied.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := RunMigrations(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return db
}

// newTestService builds a Service over a temp content dir and a temp
// registry. maxBytes bounds uploads; pass 0 for no limit.
func newTestService(t *testing.T, maxBytes int64) (*Service, *Registry, *ContentStore) {
	t.Helper()

	db := newTestDB(t)
	registry := NewRegistry(db)
	store, err := NewContentStore(t.TempDir(), maxBytes)
	if err != nil {
		t.Fatalf("new content store: %v", err)
	}
	return NewService(store, registry), registry, store
}

// newTestServer builds a fully wired Server with a bootstrap admin
// account ("admin" / password).
func newTestServer(t *testing.T, password string) *Server {
	t.Helper()

	db := newTestDB(t)
	cfg := &Config{
		Addr:           ":0",
		ContentDir:     t.TempDir(),
		DatabasePath:   "unused",
		MaxUploadBytes: 1 << 20,
		SessionTTL:     time.Hour,
		BootstrapUser:  "admin",
		Version:        "test",
	}

	if err := NewRegistry(db).EnsureBootstrapAccount(t.Context(), cfg.BootstrapUser, password); err != nil {
		t.Fatalf("bootstrap account: %v", err)
	}

	srv, err := NewServer(cfg, db)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv
}

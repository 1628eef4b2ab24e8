package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"filehost/internal/server"
)

func main() {
	cfg, err := server.LoadConfig()
	if err != nil {
		server.Error("bad configuration", nil, err)
		os.Exit(1)
	}

	db, err := server.OpenDB(cfg.DatabasePath)
	if err != nil {
		server.Error("db open failed", map[string]any{"path": cfg.DatabasePath}, err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := server.RunMigrations(db); err != nil {
		server.Error("migration failed", nil, err)
		os.Exit(1)
	}
	server.Info("migrations complete", nil)

	// First boot creates the admin account; later boots are a no-op, so
	// the password only has to be set until then.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = server.NewRegistry(db).EnsureBootstrapAccount(ctx, cfg.BootstrapUser, cfg.BootstrapPassword)
	cancel()
	if err != nil {
		server.Error("bootstrap account failed", map[string]any{"user": cfg.BootstrapUser}, err)
		os.Exit(1)
	}

	srv, err := server.NewServer(cfg, db)
	if err != nil {
		server.Error("server init failed", nil, err)
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		server.Info("starting", map[string]any{"addr": cfg.Addr, "version": cfg.Version})
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		server.Info("shutting down", map[string]any{"signal": sig.String()})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			server.Error("shutdown error", nil, err)
			os.Exit(1)
		}
		server.Info("shutdown complete", nil)
	case err := <-errCh:
		if err != nil {
			server.Error("server error", nil, err)
			os.Exit(1)
		}
	}
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	clipboardadapter "github.com/ericfisherdev/vaultpanel/internal/adapter/driven/clipboard"
	postgresadapter "github.com/ericfisherdev/vaultpanel/internal/adapter/driven/postgres"
	sqliteadapter "github.com/ericfisherdev/vaultpanel/internal/adapter/driven/sqlite"
	supabaseadapter "github.com/ericfisherdev/vaultpanel/internal/adapter/driven/supabase"
	httphandler "github.com/ericfisherdev/vaultpanel/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/vaultpanel/internal/adapter/driving/web"
	"github.com/ericfisherdev/vaultpanel/internal/application"
	"github.com/ericfisherdev/vaultpanel/internal/config"
	"github.com/ericfisherdev/vaultpanel/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"supabase_url", cfg.SupabaseURL,
		"persist_session", cfg.PersistsSession(),
		"direct_database", cfg.UsesDirectDatabase(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open the local database holding the encrypted session.
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	version, err := sqliteadapter.RunMigrations(db.Writer)
	if err != nil {
		return err
	}
	slog.Info("database ready", "path", db.Path(), "schema_version", version)

	sessionStore, err := sqliteadapter.NewSessionRepo(db, cfg.SecretKey)
	if err != nil {
		return err
	}
	if !cfg.PersistsSession() {
		slog.Info("VAULTPANEL_SECRET_KEY not set, sessions will not survive restarts")
	}

	// 4. Wire backend adapters.
	client, err := supabaseadapter.NewClient(
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		&http.Client{Timeout: cfg.HTTPTimeout},
		slog.Default(),
	)
	if err != nil {
		return err
	}
	auth := supabaseadapter.NewAuth(client, sessionStore, slog.Default())
	functions := supabaseadapter.NewFunctions(client)

	var entries driven.EntryStore = supabaseadapter.NewEntryRepo(client, auth)
	if cfg.UsesDirectDatabase() {
		pg, err := postgresadapter.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer closeDB(pg)
		entries = postgresadapter.NewEntryRepo(pg)
		slog.Info("entries served from postgres")
	}

	clip := clipboardadapter.NewSystem()
	if !clip.Available() {
		slog.Warn("no system clipboard available, copy will report an error")
	}

	go auth.Start(ctx)

	// 5. Start the dispatch loop and wire the views. The loop outlives the
	// signal context so in-flight requests can finish during Shutdown.
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	defer stopDispatch()
	dispatch := application.NewDispatcher()
	go dispatch.Run(dispatchCtx)

	notifier := application.NewNotifier(cfg.ToastDuration)
	sessions := application.NewSessionController(auth, dispatch, slog.Default())
	authSvc := application.NewAuthService(auth, dispatch, notifier, slog.Default())
	vaultSvc := application.NewVaultService(sessions, entries, auth, functions, clip, dispatch, notifier, slog.Default())
	panel := application.NewPanel(dispatch, sessions, authSvc, vaultSvc, notifier)

	if err := sessions.Initialize(ctx); err != nil {
		return err
	}
	defer sessions.Close()

	// 6. Register API and GUI routes.
	mux := http.NewServeMux()
	httphandler.RegisterRoutes(mux, httphandler.NewHandler(panel, cfg.PersistsSession(), slog.Default()))
	webhandler.RegisterRoutes(mux, webhandler.NewHandler(panel, sessions, authSvc, vaultSvc, cfg.SecureCookies, slog.Default()))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.Wrap(mux, slog.Default()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Sign-up and account deletion wait on the backend.
		WriteTimeout: cfg.HTTPTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
			stop()
		}
	}()

	slog.Info("vaultpanel started", "listen_addr", cfg.ListenAddr)

	// 7. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}
	stopDispatch()

	slog.Info("shutdown complete")
	return nil
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		slog.Error("error closing postgres", "error", err)
	}
}

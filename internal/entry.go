// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/vaultkeep/vaultkeep/internal/ai"
	"github.com/vaultkeep/vaultkeep/internal/api"
	"github.com/vaultkeep/vaultkeep/internal/auth"
	"github.com/vaultkeep/vaultkeep/internal/crypto"
	"github.com/vaultkeep/vaultkeep/internal/docservice"
	"github.com/vaultkeep/vaultkeep/internal/enrich"
	"github.com/vaultkeep/vaultkeep/internal/extract"
	"github.com/vaultkeep/vaultkeep/internal/mcpserver"
	"github.com/vaultkeep/vaultkeep/internal/noteservice"
	"github.com/vaultkeep/vaultkeep/internal/searchservice"
	"github.com/vaultkeep/vaultkeep/internal/sse"
	"github.com/vaultkeep/vaultkeep/internal/storage"
	"github.com/vaultkeep/vaultkeep/internal/store"
)

// services bundles everything built from a validated config.
type services struct {
	store    *store.Store
	notes    *noteservice.Service
	docs     *docservice.Service
	search   *searchservice.Service
	uploads  *storage.Uploads
	pipeline *enrich.Pipeline
	tokens   *auth.Tokens
	logger   *slog.Logger
}

func buildServices(cfg *Config) (*services, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	st, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	uploads, err := storage.NewUploads(cfg.Uploads.Dir)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("init uploads: %w", err)
	}

	cipher, err := crypto.NewCipher(cfg.Crypto.Secret)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("init cipher: %w", err)
	}

	aiClient, err := ai.NewClient(ai.Config{
		BaseURL:   cfg.AI.BaseURL,
		APIKeyEnv: cfg.AI.APIKeyEnv,
		Model:     cfg.AI.Model,
		Timeout:   cfg.AI.Timeout(),
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("init ai client: %w", err)
	}

	pipeline := enrich.New(st, aiClient, extract.FromFile, cfg.Enrich.Workers, logger)
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())

	return &services{
		store:    st,
		notes:    noteservice.NewService(st, cipher, aiClient, logger),
		docs:     docservice.NewService(st, uploads, pipeline),
		search:   searchservice.NewService(st, aiClient),
		uploads:  uploads,
		pipeline: pipeline,
		tokens:   tokens,
		logger:   logger,
	}, nil
}

// Run starts the HTTP server and the enrichment pipeline with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	svcs, err := buildServices(cfg)
	if err != nil {
		return err
	}
	defer svcs.store.Close()

	logger := svcs.logger
	logger.Info("configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("uploads_dir", cfg.Uploads.Dir),
		slog.String("log_level", cfg.App.LogLevel.String()))

	broker := sse.NewBroker()
	defer broker.Close()

	svcs.pipeline.OnEnriched = func(job enrich.Job) {
		doc, err := svcs.store.DocumentByID(context.Background(), job.DocID, job.OwnerID)
		if err != nil {
			return
		}
		broker.PublishDocumentEnriched(job.OwnerID, doc.ID, doc.OriginalName)
	}

	h := api.NewHandler(svcs.notes, svcs.docs, svcs.search, svcs.store, svcs.tokens, logger)
	apiRouter := api.NewRouter(h, svcs.tokens, svcs.store, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return svcs.pipeline.Run(gCtx)
	})

	if cfg.Uploads.Watch {
		watcher := enrich.NewWatcher(svcs.uploads.Root(), svcs.store.DocumentByStoredName, svcs.pipeline, logger)
		g.Go(func() error {
			if err := watcher.Run(gCtx); err != nil {
				logger.Warn("uploads watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("server stopped")
	return nil
}

// RunMCP serves the MCP stdio server scoped to the configured account.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	if cfg.MCP.OwnerEmail == "" {
		return fmt.Errorf("mcp: owner_email is required")
	}

	svcs, err := buildServices(cfg)
	if err != nil {
		return err
	}
	defer svcs.store.Close()

	owner, err := svcs.store.UserByEmail(ctx, cfg.MCP.OwnerEmail)
	if err != nil {
		return fmt.Errorf("mcp: resolve owner %s: %w", cfg.MCP.OwnerEmail, err)
	}

	// Tool calls may trigger enrichment re-runs; keep the pipeline alive for
	// the duration of the stdio session.
	pipelineCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(pipelineCtx)
	g.Go(func() error {
		return svcs.pipeline.Run(gCtx)
	})

	srv := mcpserver.New(svcs.notes, svcs.docs, svcs.search, owner.ID)
	svcs.logger.Info("starting MCP stdio server", slog.String("owner", cfg.MCP.OwnerEmail))
	serveErr := srv.ServeStdio()

	cancel()
	if err := g.Wait(); err != nil && serveErr == nil {
		serveErr = err
	}
	return serveErr
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/terra-clan/skillify/internal/api"
	"github.com/terra-clan/skillify/internal/auth"
	"github.com/terra-clan/skillify/internal/cleanup"
	"github.com/terra-clan/skillify/internal/content"
	"github.com/terra-clan/skillify/internal/planner"
	"github.com/terra-clan/skillify/internal/storage"
	"github.com/terra-clan/skillify/internal/workspace"
)

var serveOpts struct {
	memoryAccounts bool
	skipMigrations bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveOpts.memoryAccounts, "memory-accounts", false, "keep accounts in memory instead of PostgreSQL (development only)")
	serveCmd.Flags().BoolVar(&serveOpts.skipMigrations, "skip-migrations", false, "do not apply database migrations on start")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	slog.Info("starting skillify",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer initCancel()

	accounts, err := openAccounts(initCtx, cfg.Database.DSN, cfg.Database.MigrationsDir, int32(cfg.Database.MaxOpenConns), int32(cfg.Database.MaxIdleConns))
	if err != nil {
		return err
	}
	defer accounts.Close()

	redisClient, err := auth.NewRedisClient(initCtx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	slog.Info("redis connected successfully", "address", cfg.Redis.Address)

	authService := auth.NewService(
		accounts,
		auth.NewSessionStore(redisClient),
		auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		auth.WithSessionTTL(cfg.Auth.SessionTTL),
	)

	// Load content, overrides on top of the embedded defaults
	loader := content.NewLoader()
	if cfg.Content.Dir != "" {
		err = loader.LoadFromDir(cfg.Content.Dir)
	} else {
		err = loader.LoadDefaults()
	}
	if err != nil {
		return fmt.Errorf("failed to load content: %w", err)
	}

	workspaces := workspace.NewManager(authService, loader.Catalog(), workspace.Options{
		Planner: planner.Options{
			CVDelay:        cfg.Flows.CVProcessingDelay,
			DreamJobDelay:  cfg.Flows.DreamJobDelay,
			MaxUploadBytes: cfg.Uploads.MaxBytes,
		},
		ChatTypingDelay: cfg.Flows.ChatTypingDelay,
	})
	defer workspaces.Close()

	server := api.NewServer(cfg.Server, authService, workspaces, cfg.Uploads.MaxBytes, map[string]api.Pinger{
		"redis":    authService,
		"accounts": accounts,
	})
	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // the events stream is long-lived; handlers set their own deadlines
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return cleanup.NewCleaner(workspaces, cfg.Cleanup.Interval, cfg.Cleanup.IdleTimeout).Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("skillify stopped")
	return nil
}

func openAccounts(ctx context.Context, dsn, migrationsDir string, maxOpen, maxIdle int32) (storage.AccountRepository, error) {
	if serveOpts.memoryAccounts {
		slog.Warn("accounts are kept in memory and lost on restart")
		return storage.NewMemoryRepository(), nil
	}

	if !serveOpts.skipMigrations {
		slog.Info("running database migrations", "dir", migrationsDir)
		if _, err := storage.MigrateDir(ctx, dsn, migrationsDir); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	repo, err := storage.NewPostgresRepository(ctx, storage.PostgresConfig{
		DSN:          dsn,
		MaxOpenConns: maxOpen,
		MaxIdleConns: maxIdle,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create database repository: %w", err)
	}
	slog.Info("database connected successfully")
	return repo, nil
}

package main

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

	"github.com/aretw0/lattice/internal/config"
	"github.com/aretw0/lattice/internal/presentation/tui"
	httpadapter "github.com/aretw0/lattice/pkg/adapters/http"
	"github.com/aretw0/lattice/pkg/adapters/memory"
	redisadapter "github.com/aretw0/lattice/pkg/adapters/redis"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/observability"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the development backend",
	Long:  `Serves the posts/comments API (register, login, users, posts, comments) and /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			if cfg.Server.Addr, err = cmd.Flags().GetString("addr"); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("store") {
			if cfg.Server.Store, err = cmd.Flags().GetString("store"); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		repo, tokens, closeStore, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		sessions := session.NewManager(repo, tokens,
			session.WithTTL(cfg.Server.SessionTTL),
			session.WithLogger(logger),
		)
		if err := seed(ctx, cfg, repo, sessions, logger); err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics, err := observability.NewHTTPMetrics(reg)
		if err != nil {
			return err
		}

		origins, err := cmd.Flags().GetStringSlice("allow-origin")
		if err != nil {
			return err
		}
		handler := httpadapter.NewHandler(repo, sessions,
			httpadapter.WithLogger(logger),
			httpadapter.WithMetrics(metrics, reg),
			httpadapter.WithAllowedOrigins(origins...),
		)

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			tui.PrintBanner(cmd.ErrOrStderr())
			logger.Info("backend listening", "addr", srv.Addr, "store", cfg.Server.Store)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("shutting down", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("graceful shutdown did not complete", "err", err)
				return srv.Close()
			}
			return nil
		}
	},
}

func openStore(ctx context.Context, cfg config.Config) (ports.Repository, ports.TokenStore, func(), error) {
	if cfg.Server.Store != config.StoreRedis {
		return memory.NewRepository(), memory.NewTokenStore(), func() {}, nil
	}

	client := redisadapter.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, nil, fmt.Errorf("redis at %s: %w", cfg.Redis.Addr, err)
	}
	opts := []redisadapter.Option{
		redisadapter.WithPrefix(cfg.Redis.Prefix),
		redisadapter.WithTTL(cfg.Server.SessionTTL),
	}
	repo := redisadapter.NewRepository(client, opts...)
	return repo, redisadapter.NewTokenStore(client, opts...), func() { _ = repo.Close() }, nil
}

// seed creates the admin account when a password is configured and, with
// server.seed, a welcome post.
func seed(ctx context.Context, cfg config.Config, repo ports.Repository, sessions *session.Manager, logger *slog.Logger) error {
	admin := cfg.Server.Admin
	if admin.Password == "" {
		logger.Warn("no admin password configured; posts cannot be created")
		return nil
	}
	if admin.Username != session.AdminUsername {
		return fmt.Errorf("server.admin.username must be %q", session.AdminUsername)
	}

	u, err := sessions.EnsureUser(ctx, admin.Username, admin.Password)
	if err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	if !cfg.Server.Seed {
		return nil
	}

	posts, err := repo.ListPosts(ctx)
	if err != nil {
		return err
	}
	if len(posts) > 0 {
		return nil
	}
	_, err = repo.CreatePost(ctx, domain.PostDraft{
		Title:    "Welcome",
		Body:     "The development backend is up.",
		AuthorID: u.ID,
	})
	return err
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":5000", "Address to listen on")
	serveCmd.Flags().String("store", config.StoreMemory, "Storage backend: memory or redis")
	serveCmd.Flags().StringSlice("allow-origin", nil, "Origins allowed to make credentialed cross-origin requests")
}

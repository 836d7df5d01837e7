package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/presentation/tui"
	"github.com/aretw0/lattice/internal/telemetry"
	"github.com/aretw0/lattice/pkg/actions"
	httpadapter "github.com/aretw0/lattice/pkg/adapters/http"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// cliSession bundles what the client commands need: a logged-in store and a renderer.
type cliSession struct {
	client *lattice.Client
	render tui.Renderer
	out    io.Writer
	close  func()
}

func openSession(cmd *cobra.Command) (*cliSession, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()

	closers := []func(){}
	opts := []lattice.Option{
		lattice.WithLogger(logger),
		lattice.WithBase(actions.Base(cfg.DebugEnabled(actions.Debug))),
	}
	if cfg.Trace {
		tp, err := telemetry.Init(ctx, telemetry.Config{ServiceName: "lattice", ServiceVersion: lattice.Version, Writer: os.Stderr})
		if err != nil {
			return nil, err
		}
		closers = append(closers, func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Warn("failed to flush spans", "err", err)
			}
		})
		opts = append(opts, lattice.WithTracerProvider(tp))
	}

	hooks := fetchLogHooks(logger)
	metricsPath, err := cmd.Flags().GetString("metrics")
	if err != nil {
		return nil, err
	}
	if metricsPath != "" {
		reg := prometheus.NewRegistry()
		m, err := observability.NewStoreMetrics(reg)
		if err != nil {
			return nil, err
		}
		hooks = m.Hooks().Merge(hooks)
		closers = append(closers, func() {
			if err := prometheus.WriteToTextfile(metricsPath, reg); err != nil {
				logger.Warn("failed to write metrics", "path", metricsPath, "err", err)
			}
		})
	}
	opts = append(opts, lattice.WithLifecycleHooks(hooks))

	hc, err := httpadapter.NewClient(cfg.Origin)
	if err != nil {
		return nil, err
	}
	user, err := cmd.Flags().GetString("user")
	if err != nil {
		return nil, err
	}
	if user != "" {
		password, err := cmd.Flags().GetString("password")
		if err != nil {
			return nil, err
		}
		u, err := hc.Login(ctx, user, password)
		if err != nil {
			return nil, fmt.Errorf("login as %s: %w", user, err)
		}
		logger.Debug("logged in", "user_id", u.ID, "username", u.Username)
	}
	opts = append(opts, lattice.WithFetcher(hc))

	client, err := lattice.New(opts...)
	if err != nil {
		return nil, err
	}

	out := cmd.OutOrStdout()
	render, err := rendererFor(out)
	if err != nil {
		return nil, err
	}

	return &cliSession{
		client: client,
		render: render,
		out:    out,
		close: func() {
			for _, fn := range closers {
				fn()
			}
		},
	}, nil
}

// fetchLogHooks logs every settled request at debug level.
func fetchLogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnFetchSettle: func(ctx context.Context, e *domain.FetchEvent) {
			logger.DebugContext(ctx, "request settled",
				"domain", e.Domain,
				"method", e.Method,
				"path", e.Path,
				"duration", e.Duration,
				"err", e.Err,
			)
		},
	}
}

// rendererFor styles output for terminals and leaves piped output plain.
func rendererFor(w io.Writer) (tui.Renderer, error) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return tui.Plain, nil
	}
	width := 80
	if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols > 0 {
		width = cols
	}
	return tui.NewRenderer(true, width)
}

func (s *cliSession) print(markdown string) error {
	rendered, err := s.render(markdown)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(s.out, rendered)
	return err
}

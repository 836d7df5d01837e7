package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/lattice/internal/config"
	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "lattice",
	Short:         "Posts and comments client with a development backend",
	Long:          `lattice fetches posts and comments into a client-side store, posts comments, and can serve the backend API it talks to.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		tui.Fail(os.Stderr, fmt.Sprintf("Error: %v", err))
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	f := rootCmd.PersistentFlags()
	f.String("config", "", "Path to a YAML config file")
	f.String("origin", "", "Backend origin, e.g. http://localhost:5000")
	f.String("log-level", "", "Log level: debug, info, warn, error")
	f.String("log-format", "", "Log format: text or json")
	f.Bool("trace", false, "Print OpenTelemetry spans to stderr")
	f.String("user", "", "Log in as this user before fetching")
	f.String("password", "", "Password for --user")
	f.String("metrics", "", "Write store and fetch metrics to this file on exit (Prometheus text format)")
}

// loadConfig reads --config and applies the flags that were set explicitly.
// Root persistent flags are merged first so it also works before cobra has parsed cmd.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cmd.InheritedFlags()
	flags := cmd.Flags()

	path, err := flags.GetString("config")
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	for name, dst := range map[string]*string{
		"origin":     &cfg.Origin,
		"log-level":  &cfg.Log.Level,
		"log-format": &cfg.Log.Format,
	} {
		if !flags.Changed(name) {
			continue
		}
		if *dst, err = flags.GetString(name); err != nil {
			return config.Config{}, err
		}
	}
	if flags.Changed("trace") {
		if cfg.Trace, err = flags.GetBool("trace"); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.New(level, logging.Format(cfg.Log.Format)), nil
}

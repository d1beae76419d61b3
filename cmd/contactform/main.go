package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-contactform/pkg/config"
	"github.com/goliatone/go-contactform/pkg/prefill"
)

// app holds global flags and the logger shared by subcommands.
type app struct {
	configPath string
	endpoint   string
	prefill    string
	locale     string
	verbose    bool

	logger *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "contactform",
		Short: "Collect and submit company contact updates",
		Long: `contactform manages the company contact update form: an ordered list of
contacts with per-field validation, submitted to an intake endpoint with
retries and exponential backoff.

Run without a subcommand to fill the form interactively.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.logger != nil {
				return nil
			}
			cfg := zap.NewProductionConfig()
			cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			if a.verbose {
				cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := cfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInteractive(cmd, "")
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	flags.StringVar(&a.endpoint, "endpoint", "", "intake endpoint URL (overrides config)")
	flags.StringVar(&a.prefill, "prefill", "", "query string used to prefill the form; accepted keys: "+strings.Join(prefill.Keys(), ", "))
	flags.StringVar(&a.locale, "locale", "", "message locale: pt-BR or en (overrides config)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(a.newRunCmd(), a.newSubmitCmd(), a.newValidateCmd())
	return root
}

// loadConfig reads the config file, when given, and applies flag overrides.
func (a *app) loadConfig() (config.Config, error) {
	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.LoadFile(a.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if a.endpoint != "" {
		cfg.Endpoint = a.endpoint
	}
	if a.prefill != "" {
		cfg.Prefill = a.prefill
	}
	if a.locale != "" {
		cfg.Locale = a.locale
	}
	return cfg, cfg.Validate()
}

func (a *app) log() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

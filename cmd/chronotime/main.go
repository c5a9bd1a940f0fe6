package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/LeaOLLER/Chronotime/internal/config"
	"github.com/LeaOLLER/Chronotime/internal/logging"
	"github.com/LeaOLLER/Chronotime/internal/metrics"
	"github.com/LeaOLLER/Chronotime/internal/store"
	"github.com/LeaOLLER/Chronotime/internal/tabs"
	"github.com/LeaOLLER/Chronotime/internal/tracker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	var compact bool

	root := &cobra.Command{
		Use:           "chronotime",
		Short:         "Stopwatch widget that logs categorised work sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWidget(cmd.Context(), configPath, compact)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	root.Flags().BoolVar(&compact, "compact", false, "start the widget in compact mode")

	root.AddCommand(newRunCmd(&configPath))
	root.AddCommand(newStatsCmd(&configPath))
	root.AddCommand(newReportCmd(&configPath))
	root.AddCommand(newSessionsCmd(&configPath))
	root.AddCommand(newTagsCmd(&configPath))
	root.AddCommand(newExportCmd(&configPath))
	root.AddCommand(newDigestCmd(&configPath))
	root.AddCommand(newConfigCmd(&configPath))
	root.AddCommand(newServeCmd(&configPath))
	return root
}

// app is the shared wiring every command starts from.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   store.Store
	metrics *metrics.Metrics
}

func loadApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.Data, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &app{cfg: cfg, logger: logger, store: st, metrics: metrics.New()}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing store failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// provider builds the tab provider selected by tabs.provider. ext receives
// pushes from the tab server and is part of the chain for auto and extension.
func (a *app) provider(ext *tabs.Extension) tabs.Provider {
	scan := tabs.NewProcScan(a.cfg.Tabs.Browser, a.logger)
	switch a.cfg.Tabs.Provider {
	case config.ProviderNone:
		return tabs.Nop{}
	case config.ProviderExtension:
		return ext
	case config.ProviderProcScan:
		return scan
	default:
		return tabs.Chain{ext, scan}
	}
}

func (a *app) tracker(ctx context.Context, provider tabs.Provider) (*tracker.Tracker, error) {
	return tracker.New(ctx, tracker.Options{
		Store:           a.store,
		Categories:      a.cfg.CategoryNames(),
		DefaultCategory: a.cfg.DefaultCategory,
		Provider:        provider,
		Accumulator:     tabs.NewAccumulator(),
		Metrics:         a.metrics,
		Logger:          a.logger,
	})
}

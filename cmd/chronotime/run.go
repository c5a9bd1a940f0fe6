package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/LeaOLLER/Chronotime/internal/config"
	"github.com/LeaOLLER/Chronotime/internal/digest"
	"github.com/LeaOLLER/Chronotime/internal/store"
	"github.com/LeaOLLER/Chronotime/internal/tabs"
	"github.com/LeaOLLER/Chronotime/internal/tabserver"
	"github.com/LeaOLLER/Chronotime/internal/tags"
	"github.com/LeaOLLER/Chronotime/internal/ui"
)

func newRunCmd(configPath *string) *cobra.Command {
	var compact bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open the stopwatch widget with the tab server and weekly digest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWidget(cmd.Context(), *configPath, compact)
		},
	}
	cmd.Flags().BoolVar(&compact, "compact", false, "start in compact mode")
	return cmd
}

func newTabServer(a *app, ext *tabs.Extension, status tabserver.StatusSource) (*tabserver.Server, error) {
	return tabserver.New(ext, status, a.metrics, a.logger, tabserver.Config{
		Host:      a.cfg.Server.Host,
		Port:      a.cfg.Server.Port,
		RateLimit: a.cfg.Server.RateLimit,
		Burst:     a.cfg.Server.Burst,
	})
}

// runWidget runs the TUI until the user quits. The tab server and the digest
// scheduler live exactly as long as the widget; a failing server is logged and
// does not take the widget down.
func runWidget(ctx context.Context, configPath string, compact bool) error {
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	ext := tabs.NewExtension(a.cfg.Tabs.StaleAfter)
	tr, err := a.tracker(ctx, a.provider(ext))
	if err != nil {
		return err
	}
	tm, err := tags.Load(a.cfg.Tags.File)
	if err != nil {
		a.logger.Warn("tags unavailable", zap.Error(err))
		tm = nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if a.cfg.Server.Enabled {
		srv, err := newTabServer(a, ext, tr)
		if err != nil {
			return err
		}
		g.Go(func() error {
			if err := srv.Run(gctx); err != nil {
				a.logger.Error("tab server stopped", zap.Error(err))
			}
			return nil
		})
	}

	if a.cfg.Digest.Enabled {
		weekday, err := config.ParseWeekday(a.cfg.Digest.Weekday)
		if err != nil {
			return err
		}
		sched := &digest.Scheduler{
			Sender:  digest.NewWebhook(a.cfg.Digest.WebhookURL),
			Source:  tr.Log,
			Weekday: weekday,
			Hour:    a.cfg.Digest.Hour,
			Logger:  a.logger,
		}
		g.Go(func() error { return sched.Run(gctx) })
	}

	g.Go(func() error {
		defer cancel()
		model := ui.New(gctx, ui.Options{
			Tracker: tr,
			Config:  a.cfg,
			Tags:    tm,
			Logger:  a.logger,
			Compact: compact,
		})
		_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(gctx)).Run()
		// a signal kills the program without the quit key; save what is pending
		if cerr := tr.Close(context.Background()); cerr != nil {
			a.logger.Error("saving pending session failed", zap.Error(cerr))
			if err == nil {
				err = cerr
			}
		}
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	})

	return g.Wait()
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run only the tab server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			srv, err := newTabServer(a, tabs.NewExtension(a.cfg.Tabs.StaleAfter), nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", srv.Addr())
			return srv.Run(cmd.Context())
		},
	}
}

func newStatsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Browse statistics; refreshes when the session log changes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			tr, err := a.tracker(ctx, tabs.Nop{})
			if err != nil {
				return err
			}

			opts := ui.StatsOptions{
				Config:     a.cfg,
				Logger:     a.logger,
				Standalone: true,
				Reload:     tr.Reload,
			}
			path := a.cfg.Data.File
			if a.cfg.Data.Backend == config.BackendSQLite {
				path = a.cfg.Data.SQLitePath
			}
			if w, err := store.NewWatcher(path, a.logger); err != nil {
				a.logger.Warn("live refresh disabled", zap.Error(err))
			} else if err := w.Start(ctx); err != nil {
				a.logger.Warn("live refresh disabled", zap.Error(err))
				w.Close()
			} else {
				defer w.Close()
				opts.Changes = w.Changes()
			}

			viewer := ui.NewViewer(ctx, tr, opts)
			_, err = tea.NewProgram(viewer, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		},
	}
}

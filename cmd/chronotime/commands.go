package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/LeaOLLER/Chronotime/internal/config"
	"github.com/LeaOLLER/Chronotime/internal/digest"
	"github.com/LeaOLLER/Chronotime/internal/export"
	"github.com/LeaOLLER/Chronotime/internal/report"
	"github.com/LeaOLLER/Chronotime/internal/stats"
	"github.com/LeaOLLER/Chronotime/internal/tabs"
	"github.com/LeaOLLER/Chronotime/internal/tags"
)

func newReportCmd(configPath *string) *cobra.Command {
	var rng, category, tag string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a plain-text summary for today, this week, month or year",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			log, err := a.store.Load(cmd.Context())
			if err != nil {
				return err
			}
			return report.Write(cmd.OutOrStdout(), log, rng, report.Options{
				Filter: stats.Filter{Category: category, Tag: tag},
				Goal:   a.cfg.Goal,
			})
		},
	}
	cmd.Flags().StringVarP(&rng, "range", "r", "today", "one of "+strings.Join(report.Ranges, ", "))
	cmd.Flags().StringVarP(&category, "category", "c", "", "only this category")
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "only this tag")
	return cmd
}

func newSessionsCmd(configPath *string) *cobra.Command {
	sessions := &cobra.Command{Use: "sessions", Short: "List or delete recorded sessions"}

	var category string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions newest first, with the index delete expects",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			log, err := a.store.Load(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, cat := range log.Categories() {
				if category != "" && cat != category {
					continue
				}
				recs := log.Displayed(cat)
				fmt.Fprintf(out, "%s (%d)\n", cat, len(recs))
				for i, r := range recs {
					line := fmt.Sprintf("  %3d  %s  %9s  %s", i, r.Start.Format("2006-01-02 15:04"), r.Duration, strings.Repeat("★", r.Note))
					if r.Tag != "" {
						line += "  #" + r.Tag
					}
					if r.Done != "" {
						line += "  " + strings.Join(strings.Fields(r.Done), " ")
					}
					fmt.Fprintln(out, line)
				}
			}
			return nil
		},
	}
	listCmd.Flags().StringVarP(&category, "category", "c", "", "only this category")

	deleteCmd := &cobra.Command{
		Use:   "delete <category> <index>",
		Short: "Delete the session shown at index by sessions list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[1], err)
			}
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			tr, err := a.tracker(cmd.Context(), tabs.Nop{})
			if err != nil {
				return err
			}
			rec, err := tr.Delete(cmd.Context(), args[0], idx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s session of %s (%s)\n",
				rec.Category, rec.Start.Format("2006-01-02 15:04"), rec.Duration)
			return nil
		},
	}

	sessions.AddCommand(listCmd, deleteCmd)
	return sessions
}

func newTagsCmd(configPath *string) *cobra.Command {
	tagsCmd := &cobra.Command{Use: "tags", Short: "Manage the tags offered per category"}

	open := func() (*tags.Manager, error) {
		cfg, err := config.Load(*configPath)
		if err != nil {
			return nil, err
		}
		return tags.Load(cfg.Tags.File)
	}

	tagsCmd.AddCommand(&cobra.Command{
		Use:   "list [category]",
		Short: "List tags, for one category or all",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			cats := m.Categories()
			if len(args) == 1 {
				cats = []string{args[0]}
			}
			for _, c := range cats {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", c, strings.Join(m.List(c), ", "))
			}
			return nil
		},
	})

	tagsCmd.AddCommand(&cobra.Command{
		Use:   "add <category> <tag>",
		Short: "Add a tag to a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			added, err := m.Add(args[0], args[1])
			if err != nil {
				return err
			}
			if !added {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already has tag %q\n", args[0], args[1])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %q to %s\n", args[1], args[0])
			return nil
		},
	})

	tagsCmd.AddCommand(&cobra.Command{
		Use:   "remove <category> <tag>",
		Short: "Remove a tag from a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			removed, err := m.Remove(args[0], args[1])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("%s has no tag %q", args[0], args[1])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %q from %s\n", args[1], args[0])
			return nil
		},
	})
	return tagsCmd
}

func newExportCmd(configPath *string) *cobra.Command {
	var out, totals, category, tag string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export sessions (and optionally totals) as CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			log, err := a.store.Load(cmd.Context())
			if err != nil {
				return err
			}
			records := stats.Filter{Category: category, Tag: tag}.Records(log)

			if err := writeFile(out, func(f *os.File) error { return export.Sessions(f, records) }); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d sessions to %s\n", len(records), out)
			if totals != "" {
				if err := writeFile(totals, func(f *os.File) error { return export.Totals(f, records) }); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote totals to %s\n", totals)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "sessions.csv", "sessions CSV path")
	cmd.Flags().StringVar(&totals, "totals", "", "also write per category/day/week totals to this path")
	cmd.Flags().StringVarP(&category, "category", "c", "", "only this category")
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "only this tag")
	return cmd
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func newDigestCmd(configPath *string) *cobra.Command {
	digestCmd := &cobra.Command{Use: "digest", Short: "Preview or send the weekly digest"}

	digestCmd.AddCommand(&cobra.Command{
		Use:   "preview",
		Short: "Print this week's digest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			log, err := a.store.Load(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), digest.Build(log, time.Now(), false))
			return nil
		},
	})

	digestCmd.AddCommand(&cobra.Command{
		Use:   "send",
		Short: "Send this week's digest to the webhook now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			log, err := a.store.Load(cmd.Context())
			if err != nil {
				return err
			}
			content := digest.Build(log, time.Now(), true)
			if err := digest.NewWebhook(a.cfg.Digest.WebhookURL).Send(cmd.Context(), content); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Digest sent")
			return nil
		},
	})
	return digestCmd
}

func newConfigCmd(configPath *string) *cobra.Command {
	configCmd := &cobra.Command{Use: "config", Short: "Show or change configuration"}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Digest.WebhookURL != "" {
				cfg.Digest.WebhookURL = "********"
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "set <key=value>",
		Short: "Set dailygoal=HH:MM or workdays=Mon-Fri|Mon,Wed,Fri",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value, ok := strings.Cut(args[0], "=")
			if !ok {
				return fmt.Errorf("expected key=value, got %q", args[0])
			}
			path := *configPath
			if path == "" {
				path = config.DefaultPath()
			}
			if err := config.Set(path, strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s in %s\n", key, path)
			return nil
		},
	})
	return configCmd
}

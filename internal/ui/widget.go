package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/LeaOLLER/Chronotime/internal/config"
	"github.com/LeaOLLER/Chronotime/internal/report"
	"github.com/LeaOLLER/Chronotime/internal/stats"
	"github.com/LeaOLLER/Chronotime/internal/stopwatch"
	"github.com/LeaOLLER/Chronotime/internal/tags"
	"github.com/LeaOLLER/Chronotime/internal/tracker"
)

const trendDays = 14

type screen int

const (
	screenWidget screen = iota
	screenForm
	screenStats
)

type tickMsg time.Time

type sampledMsg struct{}

// Options configures the widget.
type Options struct {
	Tracker *tracker.Tracker
	Config  *config.Config
	Tags    *tags.Manager
	Logger  *zap.Logger
	Now     func() time.Time
	// Compact starts the widget on a single line.
	Compact bool
}

// App is the stopwatch widget. It hosts the finish form and the stats viewer
// as sub-screens.
type App struct {
	ctx    context.Context
	tr     *tracker.Tracker
	cfg    *config.Config
	tags   *tags.Manager
	logger *zap.Logger
	now    func() time.Time

	screen screen
	large  bool
	form   finishForm
	viewer *Viewer

	status   tracker.Status
	todaySec float64
	trend    []float64
	goal     progress.Model
	help     help.Model

	width  int
	height int
	notice string
	err    error
}

func New(ctx context.Context, opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	a := &App{
		ctx:    ctx,
		tr:     opts.Tracker,
		cfg:    opts.Config,
		tags:   opts.Tags,
		logger: logger,
		now:    now,
		large:  !opts.Compact,
		goal: progress.New(
			progress.WithGradient("#FF6B6B", "#04B575"),
			progress.WithWidth(40),
		),
		help:  help.New(),
		width: 60,
	}
	a.status = a.tr.Status()
	a.refreshTotals()
	return a
}

func (a *App) tick() tea.Cmd {
	return tea.Tick(a.cfg.Tick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// sample runs off the update loop because the tab provider may shell out.
func (a *App) sample() tea.Cmd {
	tr, ctx := a.tr, a.ctx
	return func() tea.Msg {
		tr.Sample(ctx)
		return sampledMsg{}
	}
}

func (a *App) Init() tea.Cmd {
	return a.tick()
}

// refreshTotals recomputes today's total and the trend from the saved log.
func (a *App) refreshTotals() {
	log := a.tr.Log()
	now := a.now()
	today := stats.StartOfDay(now)
	a.trend = stats.DailyTotals(log, stats.Filter{}, today.AddDate(0, 0, -(trendDays-1)), trendDays)
	a.todaySec = 0
	if len(a.trend) > 0 {
		a.todaySec = a.trend[len(a.trend)-1]
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.help.Width = msg.Width
		if a.screen == screenForm {
			a.form.setWidth(msg.Width)
		}
		if a.viewer != nil {
			a.viewer.resize(msg.Width, msg.Height)
		}
		return a, nil

	case tickMsg:
		a.status = a.tr.Status()
		return a, tea.Batch(a.tick(), a.sample())

	case sampledMsg:
		a.status = a.tr.Status()
		return a, nil

	case formSubmitMsg:
		a.finish(msg.meta)
		return a, nil

	case formCancelMsg:
		a.screen = screenWidget
		a.notice = "finish cancelled"
		return a, nil

	case statsClosedMsg:
		a.screen = screenWidget
		a.viewer = nil
		a.refreshTotals()
		return a, nil
	}

	switch a.screen {
	case screenForm:
		var cmd tea.Cmd
		a.form, cmd = a.form.Update(msg)
		return a, cmd
	case screenStats:
		_, cmd := a.viewer.Update(msg)
		return a, cmd
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	a.notice, a.err = "", nil

	switch {
	case key.Matches(km, widgetKeys.Quit):
		if err := a.tr.Close(a.ctx); err != nil {
			a.logger.Error("saving pending session on quit failed", zap.Error(err))
		}
		return a, tea.Quit
	case key.Matches(km, widgetKeys.Toggle):
		a.tr.Toggle()
	case key.Matches(km, widgetKeys.Reset):
		a.tr.Reset()
		a.notice = "timer reset"
	case key.Matches(km, widgetKeys.Finish):
		st := a.tr.Status()
		if st.Elapsed <= 0 {
			a.notice = "nothing to finish"
			break
		}
		var known []string
		if a.tags != nil {
			known = a.tags.List(st.Category)
		}
		a.form = newFinishForm(st.Category, stopwatch.Format(st.Elapsed), known, a.width)
		a.screen = screenForm
		return a, nil
	case key.Matches(km, widgetKeys.Next):
		a.tr.CycleCategory(1)
	case key.Matches(km, widgetKeys.Prev):
		a.tr.CycleCategory(-1)
	case key.Matches(km, widgetKeys.Size):
		a.large = !a.large
	case key.Matches(km, widgetKeys.Stats):
		a.viewer = NewViewer(a.ctx, a.tr, StatsOptions{Config: a.cfg, Logger: a.logger})
		if a.width > 0 && a.height > 0 {
			a.viewer.resize(a.width, a.height)
		}
		a.screen = screenStats
		return a, a.viewer.Init()
	case key.Matches(km, widgetKeys.Help):
		a.help.ShowAll = !a.help.ShowAll
	}
	a.status = a.tr.Status()
	return a, nil
}

func (a *App) finish(meta tracker.Meta) {
	a.screen = screenWidget
	rec, ok, err := a.tr.Finish(a.ctx, meta)
	if err != nil {
		a.err = err
		return
	}
	if !ok {
		a.notice = "nothing to finish"
		return
	}
	if a.tags != nil && rec.Tag != "" {
		if _, err := a.tags.Add(rec.Category, rec.Tag); err != nil {
			a.logger.Warn("saving tag failed", zap.String("tag", rec.Tag), zap.Error(err))
		}
	}
	a.status = a.tr.Status()
	a.refreshTotals()
	a.notice = fmt.Sprintf("saved %s to %s", rec.Duration, rec.Category)
}

func (a *App) View() string {
	switch a.screen {
	case screenForm:
		return a.form.View()
	case screenStats:
		return a.viewer.View()
	}
	if !a.large {
		return a.compactView()
	}
	return a.largeView()
}

func (a *App) stateLabel() string {
	if a.status.Running {
		return runningStyle.Render("● running")
	}
	if a.status.Elapsed > 0 {
		return pausedStyle.Render("❚❚ paused")
	}
	return dimStyle.Render("○ stopped")
}

func (a *App) tabLabel() string {
	if !a.status.HasTab {
		return ""
	}
	return a.status.Tab.Key()
}

func (a *App) compactView() string {
	cat := categoryStyle(a.cfg.Color(a.status.Category, fallbackColor)).Render(a.status.Category)
	parts := []string{a.stateLabel(), cat, clockStyle.Render(stopwatch.Format(a.status.Elapsed))}
	if t := a.tabLabel(); t != "" {
		parts = append(parts, dimStyle.Render(truncate(t, 40)))
	}
	line := strings.Join(parts, "  ")
	if a.err != nil {
		line += "  " + errorStyle.Render(a.err.Error())
	} else if a.notice != "" {
		line += "  " + noticeStyle.Render(a.notice)
	}
	return line
}

func (a *App) largeView() string {
	var b strings.Builder
	color := a.cfg.Color(a.status.Category, fallbackColor)
	b.WriteString(categoryStyle(color).Render(a.status.Category) + "\n\n")
	b.WriteString(clockStyle.Render(stopwatch.Format(a.status.Elapsed)) + "  " + a.stateLabel() + "\n")
	if t := a.tabLabel(); t != "" {
		b.WriteString(dimStyle.Render("tab: "+truncate(t, 50)) + "\n")
	}
	b.WriteString("\n")

	now := a.now()
	todayMins := int((a.todaySec + a.status.Elapsed.Seconds()) / 60)
	b.WriteString(fmt.Sprintf("Today: %s\n", progressStyle.Render(report.HumanDuration(todayMins))))
	if config.IsWorkDay(now, a.cfg.Goal.WorkDays) && a.cfg.Goal.DailyMinutes > 0 {
		pct := report.GoalPercent(todayMins, a.cfg.Goal.DailyMinutes)
		b.WriteString(a.goal.ViewAs(float64(pct)/100) + "\n")
		b.WriteString(dimStyle.Render("goal: "+report.GoalProgress(todayMins, a.cfg.Goal.DailyMinutes)) + "\n")
	}
	b.WriteString("\n" + a.trendView() + "\n")

	body := boxStyle.Render(b.String())
	footer := a.help.View(widgetKeys)
	switch {
	case a.err != nil:
		footer = errorStyle.Render("Error: "+a.err.Error()) + "\n" + footer
	case a.notice != "":
		footer = noticeStyle.Render(a.notice) + "\n" + footer
	}
	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("chronotime"), body, footer)
}

func (a *App) trendView() string {
	sl := sparkline.New(trendDays*2, 3)
	for _, sec := range a.trend {
		sl.Push(sec / 3600)
		sl.Push(sec / 3600)
	}
	sl.Draw()
	return dimStyle.Render(fmt.Sprintf("last %d days", trendDays)) + "\n" + sl.View()
}

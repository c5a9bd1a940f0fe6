package ui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/LeaOLLER/Chronotime/internal/config"
	"github.com/LeaOLLER/Chronotime/internal/session"
	"github.com/LeaOLLER/Chronotime/internal/stats"
)

const topTabs = 10

// StatsSource is what the viewer reads and deletes through.
type StatsSource interface {
	Log() *session.Log
	Delete(ctx context.Context, category string, displayIndex int) (session.Record, error)
	TabTotals() map[string]float64
}

type statsPage int

const (
	pageSessions statsPage = iota
	pageTabs
)

// statsClosedMsg asks the widget to take the screen back.
type statsClosedMsg struct{}

// logChangedMsg reports that the session file was rewritten by another process.
type logChangedMsg struct{}

// rowRef maps a table row back to the category's display index.
type rowRef struct {
	category string
	index    int
}

// StatsOptions configures a Viewer.
type StatsOptions struct {
	Config     *config.Config
	Logger     *zap.Logger
	Standalone bool
	// Changes, when set, triggers Reload and a refresh on every signal.
	Changes <-chan struct{}
	Reload  func(ctx context.Context) error
}

// Viewer is the stats screen: charts and the session table on one page, tab
// usage on the other.
type Viewer struct {
	ctx     context.Context
	src     StatsSource
	opts    StatsOptions
	logger  *zap.Logger
	log     *session.Log
	filter  stats.Filter
	period  stats.Period
	page    statsPage
	table   table.Model
	tabs    table.Model
	rows    []rowRef
	confirm bool
	help    help.Model
	width   int
	height  int
	notice  string
	err     error
}

func NewViewer(ctx context.Context, src StatsSource, opts StatsOptions) *Viewer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	v := &Viewer{
		ctx:    ctx,
		src:    src,
		opts:   opts,
		logger: logger,
		period: stats.Week,
		help:   help.New(),
		width:  100,
		height: 40,
	}
	v.table = table.New(
		table.WithColumns(sessionColumns(v.width)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	v.tabs = table.New(
		table.WithColumns(tabColumns(v.width)),
		table.WithHeight(topTabs),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#874BFD")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color("#7D56F4"))
	v.table.SetStyles(s)
	v.tabs.SetStyles(s)
	v.refresh()
	return v
}

func sessionColumns(width int) []table.Column {
	note := width - 16 - 9 - 14 - 14 - 8 - 12
	if note < 10 {
		note = 10
	}
	return []table.Column{
		{Title: "Date", Width: 16},
		{Title: "Duration", Width: 9},
		{Title: "Category", Width: 14},
		{Title: "Tag", Width: 14},
		{Title: "Note", Width: 6},
		{Title: "Done", Width: note},
	}
}

func tabColumns(width int) []table.Column {
	page := width - 6 - 12 - 8
	if page < 20 {
		page = 20
	}
	return []table.Column{
		{Title: "#", Width: 4},
		{Title: "Page", Width: page},
		{Title: "Time", Width: 10},
	}
}

func (v *Viewer) Init() tea.Cmd {
	return v.waitForChange()
}

func (v *Viewer) waitForChange() tea.Cmd {
	if v.opts.Changes == nil {
		return nil
	}
	ch := v.opts.Changes
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return logChangedMsg{}
	}
}

// refresh re-reads the log and rebuilds both tables.
func (v *Viewer) refresh() {
	v.log = v.src.Log()

	records := v.filteredDisplay()
	rows := make([]table.Row, 0, len(records))
	v.rows = v.rows[:0]
	for _, d := range records {
		r := d.rec
		rows = append(rows, table.Row{
			r.Start.Format("02/01/2006 15:04"),
			r.Duration,
			r.Category,
			r.Tag,
			strings.Repeat("★", r.Note),
			oneLine(r.Done),
		})
		v.rows = append(v.rows, d.ref)
	}
	v.table.SetRows(rows)
	if c := v.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		v.table.SetCursor(len(rows) - 1)
	}

	top := stats.TopTabs(v.src.TabTotals(), topTabs)
	tabRows := make([]table.Row, 0, len(top))
	for i, t := range top {
		tabRows = append(tabRows, table.Row{
			fmt.Sprintf("%d", i+1),
			t.Key,
			formatHours(t.Seconds),
		})
	}
	v.tabs.SetRows(tabRows)
}

type displayRecord struct {
	rec session.Record
	ref rowRef
}

// filteredDisplay lists matching records newest first, each carrying its
// position in its category's display order so deletes hit the right record.
func (v *Viewer) filteredDisplay() []displayRecord {
	var out []displayRecord
	for _, cat := range v.log.Categories() {
		if v.filter.Category != "" && cat != v.filter.Category {
			continue
		}
		for i, r := range v.log.Displayed(cat) {
			if !v.filter.Match(r) {
				continue
			}
			out = append(out, displayRecord{rec: r, ref: rowRef{category: cat, index: i}})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].rec.Start.After(out[j].rec.Start) })
	return out
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func formatHours(seconds float64) string {
	h := int(seconds) / 3600
	m := (int(seconds) % 3600) / 60
	return fmt.Sprintf("%dh%02dm", h, m)
}

func (v *Viewer) categoryOptions() []string {
	opts := []string{""}
	if v.opts.Config != nil {
		opts = append(opts, v.opts.Config.CategoryNames()...)
	}
	for _, c := range v.log.Categories() {
		if !contains(opts, c) {
			opts = append(opts, c)
		}
	}
	return opts
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func cycle(options []string, current string) string {
	for i, o := range options {
		if o == current {
			return options[(i+1)%len(options)]
		}
	}
	return options[0]
}

func (v *Viewer) resize(width, height int) {
	v.width, v.height = width, height
	v.help.Width = width
	v.table.SetColumns(sessionColumns(width))
	v.table.SetWidth(width)
	v.tabs.SetColumns(tabColumns(width))
	v.tabs.SetWidth(width)
	h := height - 24
	if h < 5 {
		h = 5
	}
	v.table.SetHeight(h)
}

func (v *Viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.resize(msg.Width, msg.Height)
		return v, nil

	case logChangedMsg:
		if v.opts.Reload != nil {
			if err := v.opts.Reload(v.ctx); err != nil {
				v.logger.Warn("reloading sessions failed", zap.Error(err))
				v.err = err
			}
		}
		v.refresh()
		return v, v.waitForChange()

	case tea.KeyMsg:
		if v.confirm {
			v.confirm = false
			if key.Matches(msg, statsKeys.Confirm) {
				v.deleteSelected()
			} else {
				v.notice = "delete cancelled"
			}
			return v, nil
		}
		v.notice, v.err = "", nil

		switch {
		case key.Matches(msg, statsKeys.Quit):
			if v.opts.Standalone {
				return v, tea.Quit
			}
			return v, func() tea.Msg { return statsClosedMsg{} }
		case key.Matches(msg, statsKeys.Back):
			if v.opts.Standalone {
				return v, tea.Quit
			}
			return v, func() tea.Msg { return statsClosedMsg{} }
		case key.Matches(msg, statsKeys.Help):
			v.help.ShowAll = !v.help.ShowAll
			return v, nil
		case key.Matches(msg, statsKeys.Page):
			if v.page == pageSessions {
				v.page = pageTabs
			} else {
				v.page = pageSessions
			}
			return v, nil
		case key.Matches(msg, statsKeys.Category):
			v.filter.Category = cycle(v.categoryOptions(), v.filter.Category)
			v.refresh()
			return v, nil
		case key.Matches(msg, statsKeys.Period):
			v.period = v.period.Next()
			return v, nil
		case key.Matches(msg, statsKeys.Tag):
			v.filter.Tag = cycle(append([]string{""}, stats.Tags(v.log)...), v.filter.Tag)
			v.refresh()
			return v, nil
		case key.Matches(msg, statsKeys.Delete):
			if v.page == pageSessions && len(v.rows) > 0 {
				v.confirm = true
			}
			return v, nil
		}
	}

	var cmd tea.Cmd
	if v.page == pageSessions {
		v.table, cmd = v.table.Update(msg)
	} else {
		v.tabs, cmd = v.tabs.Update(msg)
	}
	return v, cmd
}

func (v *Viewer) deleteSelected() {
	i := v.table.Cursor()
	if i < 0 || i >= len(v.rows) {
		return
	}
	ref := v.rows[i]
	rec, err := v.src.Delete(v.ctx, ref.category, ref.index)
	if err != nil {
		v.err = err
		return
	}
	v.notice = fmt.Sprintf("deleted %s session of %s", rec.Category, rec.Start.Format("02/01 15:04"))
	v.refresh()
}

func (v *Viewer) View() string {
	var b strings.Builder
	b.WriteString(v.pageTabs() + "\n")
	b.WriteString(v.filterLine() + "\n\n")

	if v.page == pageSessions {
		b.WriteString(v.sessionsView())
	} else {
		b.WriteString(v.tabsView())
	}

	b.WriteString("\n")
	switch {
	case v.confirm:
		b.WriteString(errorStyle.Render("Delete the selected session? y to confirm, any other key cancels") + "\n")
	case v.err != nil:
		b.WriteString(errorStyle.Render("Error: "+v.err.Error()) + "\n")
	case v.notice != "":
		b.WriteString(noticeStyle.Render(v.notice) + "\n")
	}
	b.WriteString(v.help.View(statsKeys))
	return b.String()
}

func (v *Viewer) pageTabs() string {
	sessions, tabs := inactiveTabStyle.Render("Sessions"), inactiveTabStyle.Render("Tabs")
	if v.page == pageSessions {
		sessions = activeTabStyle.Render("Sessions")
	} else {
		tabs = activeTabStyle.Render("Tabs")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, titleStyle.Render("chronotime stats"), " ", sessions, tabs)
}

func (v *Viewer) filterLine() string {
	cat, tag := v.filter.Category, v.filter.Tag
	if cat == "" {
		cat = "all"
	}
	if tag == "" {
		tag = "all"
	}
	return dimStyle.Render(fmt.Sprintf("category: %s · period: %s · tag: %s", cat, v.period, tag))
}

func (v *Viewer) color(category string) string {
	if v.opts.Config == nil {
		return fallbackColor
	}
	return v.opts.Config.Color(category, fallbackColor)
}

func (v *Viewer) sessionsView() string {
	totals := stats.CategoryTotals(v.log, v.filter)

	half := (v.width - 4) / 2
	if half < 20 {
		half = 20
	}

	catData := make([]barchart.BarData, 0, len(totals))
	for _, t := range totals {
		catData = append(catData, barchart.BarData{
			Label: truncate(t.Category, 8),
			Values: []barchart.BarValue{{
				Name:  t.Category,
				Value: t.Hours(),
				Style: lipgloss.NewStyle().Foreground(lipgloss.Color(v.color(t.Category))),
			}},
		})
	}

	buckets := stats.ByPeriod(v.log, v.filter, v.period)
	maxBars := half / 6
	if maxBars < 1 {
		maxBars = 1
	}
	if len(buckets) > maxBars {
		buckets = buckets[len(buckets)-maxBars:]
	}
	periodData := make([]barchart.BarData, 0, len(buckets))
	for _, bk := range buckets {
		periodData = append(periodData, barchart.BarData{
			Label: bk.Label,
			Values: []barchart.BarValue{{
				Name:  bk.Label,
				Value: bk.Hours,
				Style: progressStyle,
			}},
		})
	}

	charts := lipgloss.JoinHorizontal(lipgloss.Top,
		chartBox("Hours by category", barChart(half, 10, catData, false)),
		chartBox("Hours by "+string(v.period), barChart(half, 10, periodData, false)),
	)

	var list strings.Builder
	for _, t := range totals {
		list.WriteString(fmt.Sprintf("%s %6.2f h  (%d sessions)\n",
			categoryStyle(v.color(t.Category)).Render(fmt.Sprintf("%-14s", t.Category)), t.Hours(), t.Sessions))
	}
	if len(totals) == 0 {
		list.WriteString(dimStyle.Render("No sessions match the filters.") + "\n")
	}

	return charts + "\n" + list.String() + "\n" + v.table.View()
}

func (v *Viewer) tabsView() string {
	top := stats.TopTabs(v.src.TabTotals(), topTabs)
	if len(top) == 0 {
		return dimStyle.Render("No tab usage recorded in this run.") + "\n"
	}
	data := make([]barchart.BarData, 0, len(top))
	for i, t := range top {
		data = append(data, barchart.BarData{
			Label: fmt.Sprintf("%d", i+1),
			Values: []barchart.BarValue{{
				Name:  t.Key,
				Value: t.Seconds / 60,
				Style: runningStyle,
			}},
		})
	}
	chart := chartBox("Top pages (minutes)", barChart(v.width-4, topTabs+2, data, true))
	return chart + "\n" + v.tabs.View()
}

func chartBox(title, body string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#874BFD")).
		Padding(0, 1).
		Render(headerStyle.UnsetMarginBottom().Render(title) + "\n" + body)
}

func barChart(width, height int, data []barchart.BarData, horizontal bool) string {
	if len(data) == 0 {
		return dimStyle.Render("no data")
	}
	opts := []barchart.Option{
		barchart.WithDataSet(data),
		barchart.WithBarGap(1),
		barchart.WithStyles(axisStyle, labelStyle),
	}
	if horizontal {
		opts = append(opts, barchart.WithHorizontalBars())
	}
	bc := barchart.New(width, height, opts...)
	bc.Draw()
	return bc.View()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

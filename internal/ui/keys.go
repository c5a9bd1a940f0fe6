package ui

import "github.com/charmbracelet/bubbles/key"

type widgetKeyMap struct {
	Toggle key.Binding
	Reset  key.Binding
	Finish key.Binding
	Next   key.Binding
	Prev   key.Binding
	Size   key.Binding
	Stats  key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func (k widgetKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Finish, k.Next, k.Size, k.Help, k.Quit}
}

func (k widgetKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Reset, k.Finish},
		{k.Next, k.Prev},
		{k.Size, k.Stats, k.Help, k.Quit},
	}
}

var widgetKeys = widgetKeyMap{
	Toggle: key.NewBinding(
		key.WithKeys(" ", "space"),
		key.WithHelp("space", "start/pause"),
	),
	Reset: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reset"),
	),
	Finish: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "finish"),
	),
	Next: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next category"),
	),
	Prev: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "previous category"),
	),
	Size: key.NewBinding(
		key.WithKeys("z"),
		key.WithHelp("z", "compact/large"),
	),
	Stats: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "stats"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "save & quit"),
	),
}

type formKeyMap struct {
	Save     key.Binding
	Cancel   key.Binding
	Next     key.Binding
	Prev     key.Binding
	Option   key.Binding
	OptPrev  key.Binding
	NoteDown key.Binding
	NoteUp   key.Binding
}

func (k formKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Save, k.Cancel, k.Next, k.Option}
}

func (k formKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Save, k.Cancel}, {k.Next, k.Prev}, {k.Option, k.OptPrev, k.NoteDown, k.NoteUp}}
}

var formKeys = formKeyMap{
	Save: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", "save"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
	Next: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next field"),
	),
	Prev: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "previous field"),
	),
	Option: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("↓", "next tag"),
	),
	OptPrev: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑", "previous tag"),
	),
	NoteDown: key.NewBinding(
		key.WithKeys("left", "-"),
		key.WithHelp("←", "note -1"),
	),
	NoteUp: key.NewBinding(
		key.WithKeys("right", "+"),
		key.WithHelp("→", "note +1"),
	),
}

type statsKeyMap struct {
	Category key.Binding
	Period   key.Binding
	Tag      key.Binding
	Page     key.Binding
	Delete   key.Binding
	Confirm  key.Binding
	Back     key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func (k statsKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Category, k.Period, k.Tag, k.Page, k.Delete, k.Back}
}

func (k statsKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Category, k.Period, k.Tag}, {k.Page, k.Delete, k.Confirm}, {k.Back, k.Help, k.Quit}}
}

var statsKeys = statsKeyMap{
	Category: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "category"),
	),
	Period: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "period"),
	),
	Tag: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "tag"),
	),
	Page: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "sessions/tabs"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "delete"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "confirm delete"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "b"),
		key.WithHelp("esc", "back"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/LeaOLLER/Chronotime/internal/session"
	"github.com/LeaOLLER/Chronotime/internal/tracker"
)

type formField int

const (
	fieldDone formField = iota
	fieldTodo
	fieldNote
	fieldTag
	fieldCount
)

// formSubmitMsg and formCancelMsg are emitted by the finish form; the widget
// owns what happens next.
type formSubmitMsg struct{ meta tracker.Meta }

type formCancelMsg struct{}

type finishForm struct {
	category string
	elapsed  string
	done     textarea.Model
	todo     textarea.Model
	tag      textinput.Model
	tags     []string
	tagIdx   int // -1 while the tag is typed freely
	note     int
	focus    formField
	help     help.Model
}

func newFinishForm(category, elapsed string, tags []string, width int) finishForm {
	done := textarea.New()
	done.Placeholder = "What got done?"
	done.ShowLineNumbers = false
	done.SetHeight(3)
	done.FocusedStyle.CursorLine = lipgloss.NewStyle()

	todo := textarea.New()
	todo.Placeholder = "What is left to do?"
	todo.ShowLineNumbers = false
	todo.SetHeight(3)
	todo.FocusedStyle.CursorLine = lipgloss.NewStyle()

	tag := textinput.New()
	tag.Placeholder = "tag (↑/↓ to pick)"
	tag.CharLimit = 40

	f := finishForm{
		category: category,
		elapsed:  elapsed,
		done:     done,
		todo:     todo,
		tag:      tag,
		tags:     tags,
		tagIdx:   -1,
		note:     session.DefaultNote,
		help:     help.New(),
	}
	f.setWidth(width)
	f.done.Focus()
	return f
}

func (f *finishForm) setWidth(width int) {
	w := width - 8
	if w < 20 {
		w = 40
	}
	f.done.SetWidth(w)
	f.todo.SetWidth(w)
	f.tag.Width = w
	f.help.Width = width
}

func (f *finishForm) meta() tracker.Meta {
	return tracker.Meta{
		Tag:  strings.TrimSpace(f.tag.Value()),
		Note: f.note,
		Done: strings.TrimSpace(f.done.Value()),
		Todo: strings.TrimSpace(f.todo.Value()),
	}
}

func (f *finishForm) setFocus(field formField) {
	f.done.Blur()
	f.todo.Blur()
	f.tag.Blur()
	f.focus = field
	switch field {
	case fieldDone:
		f.done.Focus()
	case fieldTodo:
		f.todo.Focus()
	case fieldTag:
		f.tag.Focus()
	}
}

func (f *finishForm) cycleTag(step int) {
	if len(f.tags) == 0 {
		return
	}
	n := len(f.tags)
	if f.tagIdx < 0 {
		if step > 0 {
			f.tagIdx = 0
		} else {
			f.tagIdx = n - 1
		}
	} else {
		f.tagIdx = ((f.tagIdx+step)%n + n) % n
	}
	f.tag.SetValue(f.tags[f.tagIdx])
	f.tag.CursorEnd()
}

func (f finishForm) Update(msg tea.Msg) (finishForm, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return f, nil
	}
	switch {
	case key.Matches(km, formKeys.Save):
		meta := f.meta()
		return f, func() tea.Msg { return formSubmitMsg{meta: meta} }
	case key.Matches(km, formKeys.Cancel):
		return f, func() tea.Msg { return formCancelMsg{} }
	case key.Matches(km, formKeys.Next):
		f.setFocus((f.focus + 1) % fieldCount)
		return f, nil
	case key.Matches(km, formKeys.Prev):
		f.setFocus((f.focus + fieldCount - 1) % fieldCount)
		return f, nil
	}

	var cmd tea.Cmd
	switch f.focus {
	case fieldDone:
		f.done, cmd = f.done.Update(msg)
	case fieldTodo:
		f.todo, cmd = f.todo.Update(msg)
	case fieldNote:
		switch {
		case key.Matches(km, formKeys.NoteDown):
			if f.note > 1 {
				f.note--
			}
		case key.Matches(km, formKeys.NoteUp):
			if f.note < 5 {
				f.note++
			}
		default:
			if s := km.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '5' {
				f.note = int(s[0] - '0')
			}
		}
	case fieldTag:
		switch {
		case key.Matches(km, formKeys.Option):
			f.cycleTag(1)
		case key.Matches(km, formKeys.OptPrev):
			f.cycleTag(-1)
		default:
			f.tag, cmd = f.tag.Update(msg)
			f.tagIdx = -1
		}
	}
	return f, cmd
}

func (f finishForm) label(field formField, text string) string {
	if f.focus == field {
		return focusedLabelStyle.Render("› " + text)
	}
	return labelStyle.Render("  " + text)
}

func (f finishForm) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Finish session · %s · %s", f.category, f.elapsed)))
	b.WriteString("\n\n")

	b.WriteString(f.label(fieldDone, "Done") + "\n")
	b.WriteString(f.done.View() + "\n\n")
	b.WriteString(f.label(fieldTodo, "To do") + "\n")
	b.WriteString(f.todo.View() + "\n\n")

	stars := strings.Repeat("★", f.note) + strings.Repeat("☆", 5-f.note)
	b.WriteString(f.label(fieldNote, "Note") + "  " + progressStyle.Render(stars) + "\n\n")

	b.WriteString(f.label(fieldTag, "Tag") + "\n")
	b.WriteString(f.tag.View() + "\n")
	if len(f.tags) > 0 {
		b.WriteString(dimStyle.Render("  known: "+strings.Join(f.tags, ", ")) + "\n")
	}
	b.WriteString("\n" + f.help.View(formKeys))
	return b.String()
}

// Package tabs guesses which browser page is in front. Every provider is best
// effort: "unknown" is a normal answer, never an error.
package tabs

import (
	"context"
	"regexp"
	"strings"
)

// Tab is a browser page as reported by a provider.
type Tab struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Key is what time gets accumulated under: the cleaned URL, or the title when
// there is no URL.
func (t Tab) Key() string {
	if t.URL != "" {
		return CleanURL(t.URL)
	}
	return strings.TrimSpace(t.Title)
}

func (t Tab) Empty() bool { return t.Key() == "" }

// Provider reports the current foreground page. ok is false when unknown.
type Provider interface {
	Current(ctx context.Context) (tab Tab, ok bool)
}

// Chain asks each provider in turn and returns the first known tab.
type Chain []Provider

func (c Chain) Current(ctx context.Context) (Tab, bool) {
	for _, p := range c {
		if tab, ok := p.Current(ctx); ok {
			return tab, true
		}
	}
	return Tab{}, false
}

// Nop never knows.
type Nop struct{}

func (Nop) Current(context.Context) (Tab, bool) { return Tab{}, false }

var schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// CleanURL drops the scheme, a leading www., the query and fragment, and a
// trailing slash.
func CleanURL(raw string) string {
	u := strings.TrimSpace(raw)
	u = schemeRe.ReplaceAllString(u, "")
	u = strings.TrimPrefix(u, "www.")
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return strings.TrimRight(u, "/")
}

// Domain keeps only the host of raw, without www. and port.
func Domain(raw string) string {
	u := CleanURL(raw)
	if i := strings.Index(u, "/"); i >= 0 {
		u = u[:i]
	}
	if i := strings.LastIndex(u, ":"); i >= 0 && !strings.Contains(u[i:], "]") {
		u = u[:i]
	}
	return strings.ToLower(u)
}

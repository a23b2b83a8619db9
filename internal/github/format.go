package github

import (
	"fmt"
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	unknownValue  = "Unknown"
	maxCommitRows = 10
	maxBodyRunes  = 300
)

// escape prepares payload text for Telegram HTML.
func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeHTML, s)
}

func bold(s string) string {
	return "<b>" + escape(s) + "</b>"
}

func code(s string) string {
	return "<code>" + escape(s) + "</code>"
}

// link renders an anchor. html.EscapeString also quotes '"' which
// EscapeText leaves alone and the href attribute needs.
func link(url, text string) string {
	if url == "" {
		return escape(text)
	}
	return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(url), escape(text))
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return unknownValue
	}
	return s
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// truncate cuts s to at most maxRunes runes, marking the cut with an ellipsis.
func truncate(s string, maxRunes int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return strings.TrimRightFunc(string(runes[:maxRunes]), unicode.IsSpace) + "…"
}

// branchName returns the last path segment of a ref.
func branchName(ref string) string {
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// messageBuilder accumulates lines of one notification.
type messageBuilder struct {
	lines []string
}

func (m *messageBuilder) line(format string, args ...interface{}) *messageBuilder {
	m.lines = append(m.lines, fmt.Sprintf(format, args...))
	return m
}

func (m *messageBuilder) blank() *messageBuilder {
	m.lines = append(m.lines, "")
	return m
}

func (m *messageBuilder) repo(ev *RepositoryEvent) *messageBuilder {
	return m.line("📦 <b>Repo:</b> %s", link(ev.RepoURL, ev.RepoFullName))
}

func (m *messageBuilder) String() string {
	return strings.TrimRight(strings.Join(m.lines, "\n"), "\n")
}

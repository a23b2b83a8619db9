package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// DefaultMaxMessageLength stays under Telegram's 4096 character cap,
// counted in UTF-16 code units.
const DefaultMaxMessageLength = 4000

// API is the subset of *tgbotapi.BotAPI used to send messages.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Sender posts HTML messages, splitting long ones.
type Sender struct {
	api    API
	maxLen int
}

// NewSender creates a sender. maxLen <= 0 selects DefaultMaxMessageLength.
func NewSender(api API, maxLen int) *Sender {
	if maxLen <= 0 {
		maxLen = DefaultMaxMessageLength
	}
	return &Sender{api: api, maxLen: maxLen}
}

// Send delivers text to chatID, in order, as one or more messages.
func (s *Sender) Send(ctx context.Context, chatID, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", chatID, err)
	}

	for _, part := range SplitMessage(text, s.maxLen) {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg := tgbotapi.NewMessage(id, part)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true

		if _, err := s.api.Send(msg); err != nil {
			return fmt.Errorf("failed to send message to %s: %w", chatID, err)
		}
	}
	return nil
}

// SplitMessage breaks text into parts of at most limit UTF-16 code units,
// which is how Telegram measures message length. Parts are cut on line
// boundaries; a single line longer than limit is cut at rune boundaries.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || textLength(text) <= limit {
		return []string{text}
	}

	var (
		parts   []string
		current strings.Builder
		size    int
	)
	flush := func() {
		if size > 0 {
			parts = append(parts, current.String())
			current.Reset()
			size = 0
		}
	}

	for _, line := range strings.Split(text, "\n") {
		n := textLength(line)

		if n > limit {
			flush()
			line, n = hardCut(line, limit, &parts)
		}

		switch {
		case size == 0:
		case size+1+n > limit:
			flush()
		default:
			current.WriteByte('\n')
			size++
		}
		current.WriteString(line)
		size += n
	}
	flush()

	return parts
}

// hardCut appends full-size chunks of line to parts and returns the
// remainder with its length.
func hardCut(line string, limit int, parts *[]string) (string, int) {
	start, size := 0, 0
	for i, r := range line {
		w := runeLength(r)
		if size > 0 && size+w > limit {
			*parts = append(*parts, line[start:i])
			start, size = i, 0
		}
		size += w
	}
	return line[start:], size
}

func textLength(s string) int {
	n := 0
	for _, r := range s {
		n += runeLength(r)
	}
	return n
}

func runeLength(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}

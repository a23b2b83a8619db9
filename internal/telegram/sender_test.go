package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf16"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/m-mizutani/gt"
)

type fakeAPI struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func TestSplitMessage_ShortTextUnchanged(t *testing.T) {
	gt.Equal(t, SplitMessage("hello\nworld", 100), []string{"hello\nworld"})
}

func TestSplitMessage_LineBoundaries(t *testing.T) {
	var lines []string
	for i := 0; len(strings.Join(lines, "\n")) < 9000; i++ {
		lines = append(lines, fmt.Sprintf("line %04d: some notification text", i))
	}
	text := strings.Join(lines, "\n")

	parts := SplitMessage(text, DefaultMaxMessageLength)

	gt.Number(t, len(parts)).Greater(2)
	for _, part := range parts {
		gt.True(t, utf16Len(part) <= DefaultMaxMessageLength)
	}
	gt.Equal(t, strings.Join(parts, "\n"), text)
}

func TestSplitMessage_LongLineHardCut(t *testing.T) {
	long := strings.Repeat("é", 25)
	parts := SplitMessage("head\n"+long+"\ntail", 10)

	for _, part := range parts {
		gt.True(t, utf8.ValidString(part))
		gt.True(t, utf8.RuneCountInString(part) <= 10)
	}
	gt.Equal(t, parts[0], "head")
	gt.Equal(t, parts[1], strings.Repeat("é", 10))
	gt.Equal(t, parts[2], strings.Repeat("é", 10))
	gt.Equal(t, parts[3], strings.Repeat("é", 5)+"\ntail")
}

func utf16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}

func TestSplitMessage_CountsUTF16Units(t *testing.T) {
	// Each emoji is one rune but two UTF-16 code units.
	line := strings.Repeat("🚀", 8)
	gt.Number(t, utf8.RuneCountInString(line)).Equal(8)

	parts := SplitMessage(line+"\n"+line, 20)
	gt.Equal(t, parts, []string{line, line})

	parts = SplitMessage(strings.Repeat("🚀", 25), 10)
	gt.Number(t, len(parts)).Equal(5)
	for _, part := range parts {
		gt.True(t, utf8.ValidString(part))
		gt.Number(t, utf16Len(part)).Equal(10)
	}
}

func TestSender_SendsPartsInOrder(t *testing.T) {
	api := &fakeAPI{}
	s := NewSender(api, 10)

	gt.NoError(t, s.Send(context.Background(), "-100123", "aaaa\nbbbb\ncccc"))

	gt.Number(t, len(api.sent)).Equal(2)
	gt.Equal(t, api.sent[0].Text, "aaaa\nbbbb")
	gt.Equal(t, api.sent[1].Text, "cccc")
	for _, msg := range api.sent {
		gt.Equal(t, msg.ChatID, int64(-100123))
		gt.Equal(t, msg.ParseMode, tgbotapi.ModeHTML)
		gt.True(t, msg.DisableWebPagePreview)
	}
}

func TestSender_Errors(t *testing.T) {
	s := NewSender(&fakeAPI{}, 0)
	gt.Error(t, s.Send(context.Background(), "not-a-number", "hi"))

	s = NewSender(&fakeAPI{err: errors.New("Forbidden: bot was blocked")}, 0)
	gt.Error(t, s.Send(context.Background(), "42", "hi"))
}

// Package telegram provides Telegram bot functionality.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/user/codehubnotify/pkg/logger"
)

// Bot receives chat updates and answers them through the Interpreter.
type Bot struct {
	api         *tgbotapi.BotAPI
	interpreter *Interpreter
	sender      *Sender
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewAPI authorizes against Telegram.
func NewAPI(token string, debug bool) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	api.Debug = debug

	logger.Info().Str("username", api.Self.UserName).Msg("Telegram bot authorized")
	return api, nil
}

// NewBot creates a new Telegram bot instance.
func NewBot(api *tgbotapi.BotAPI, interpreter *Interpreter, sender *Sender) *Bot {
	ctx, cancel := context.WithCancel(context.Background())
	return &Bot{
		api:         api,
		interpreter: interpreter,
		sender:      sender,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start begins long polling for updates. Any registered webhook is removed
// first since Telegram refuses getUpdates while one is set.
func (b *Bot) Start() error {
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case <-b.ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				b.handleUpdate(b.ctx, update)
			}
		}
	}()

	logger.Info().Msg("Telegram bot started, listening for updates")
	return nil
}

// Stop gracefully stops the bot.
func (b *Bot) Stop() {
	logger.Info().Msg("Stopping Telegram bot")
	b.cancel()
	if b.api != nil {
		b.api.StopReceivingUpdates()
	}
	b.wg.Wait()
}

// RegisterWebhook points Telegram at url for update delivery.
func (b *Bot) RegisterWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("invalid webhook url: %w", err)
	}
	if _, err := b.api.Request(wh); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}
	logger.Info().Msg("Telegram webhook registered")
	return nil
}

// ServeHTTP accepts updates pushed by Telegram in webhook mode.
func (b *Bot) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to decode Telegram update")
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	b.handleUpdate(r.Context(), *update)
	w.WriteHeader(http.StatusOK)
}

// handleUpdate answers text messages; everything else is ignored.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || msg.Text == "" {
		return
	}

	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	reply, ok := b.interpreter.Handle(ctx, Input{
		ChatID:   chatID,
		ChatType: msg.Chat.Type,
		Text:     msg.Text,
	})
	if !ok {
		return
	}

	if err := b.sender.Send(ctx, chatID, reply); err != nil {
		logger.Error().Err(err).Str("chat_id", chatID).Msg("Failed to send reply")
	}
}

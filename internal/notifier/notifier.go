// Package notifier handles sending notifications to subscribers.
package notifier

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"
	"github.com/user/codehubnotify/internal/github"
	"github.com/user/codehubnotify/internal/storage"
	"github.com/user/codehubnotify/pkg/logger"
)

// Sender delivers one message to one chat.
type Sender interface {
	Send(ctx context.Context, chatID, text string) error
}

// Translator renders events into message text.
type Translator interface {
	Translate(ev *github.RepositoryEvent) string
}

// Report summarizes one fan-out.
type Report struct {
	Recipients int
	Delivered  int
	Failed     int
}

// Notifier routes translated events to the chats linked to their repository.
type Notifier struct {
	store      *storage.SubscriptionStore
	translator Translator
	sender     Sender
	workers    int
}

// NewNotifier creates a new notifier instance. workers bounds concurrent sends.
func NewNotifier(store *storage.SubscriptionStore, translator Translator, sender Sender, workers int) *Notifier {
	if workers < 1 {
		workers = 1
	}
	return &Notifier{
		store:      store,
		translator: translator,
		sender:     sender,
		workers:    workers,
	}
}

// Recipients returns the chat IDs of active subscribers linked to repo,
// each at most once.
func (n *Notifier) Recipients(ctx context.Context, repo string) ([]string, error) {
	subs, err := n.store.ActiveByRepo(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscribers: %w", err)
	}

	seen := make(map[string]struct{}, len(subs))
	chatIDs := make([]string, 0, len(subs))
	for _, sub := range subs {
		if _, ok := seen[sub.ChatID]; ok {
			continue
		}
		seen[sub.ChatID] = struct{}{}
		chatIDs = append(chatIDs, sub.ChatID)
	}
	return chatIDs, nil
}

// Deliver sends text to every recipient of repo. A failed send is logged
// and counted; it never stops the remaining sends.
func (n *Notifier) Deliver(ctx context.Context, repo, text string) (Report, error) {
	chatIDs, err := n.Recipients(ctx, repo)
	if err != nil {
		return Report{}, err
	}

	report := Report{Recipients: len(chatIDs)}
	if len(chatIDs) == 0 {
		logger.Debug().Str("repo", repo).Msg("No subscribers for this repository")
		return report, nil
	}

	var delivered, failed atomic.Int64
	p := pool.New().WithMaxGoroutines(n.workers)
	for _, chatID := range chatIDs {
		p.Go(func() {
			if err := n.sender.Send(ctx, chatID, text); err != nil {
				failed.Add(1)
				logger.Error().Err(err).Str("chat_id", chatID).Str("repo", repo).Msg("Failed to send notification")
				return
			}
			delivered.Add(1)
		})
	}
	p.Wait()

	report.Delivered = int(delivered.Load())
	report.Failed = int(failed.Load())
	return report, nil
}

// HandleEvent translates ev and delivers it to the linked chats.
func (n *Notifier) HandleEvent(ctx context.Context, ev *github.RepositoryEvent) error {
	text := n.translator.Translate(ev)

	report, err := n.Deliver(ctx, ev.RepoFullName, text)
	if err != nil {
		return err
	}

	logger.Info().
		Str("kind", string(ev.Kind)).
		Str("repo", ev.RepoFullName).
		Int("recipients", report.Recipients).
		Int("delivered", report.Delivered).
		Int("failed", report.Failed).
		Msg("Notification dispatched")
	return nil
}

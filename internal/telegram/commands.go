package telegram

import (
	"context"
	"errors"
	"strings"

	"github.com/user/codehubnotify/internal/github"
	"github.com/user/codehubnotify/internal/storage"
	"github.com/user/codehubnotify/pkg/logger"
)

const chatTypePrivate = "private"

// Input is one inbound chat message.
type Input struct {
	ChatID   string
	ChatType string // private, group, supergroup, channel
	Text     string
}

func (in Input) private() bool {
	return in.ChatType == "" || in.ChatType == chatTypePrivate
}

// RepoValidator confirms that a linked repository exists.
type RepoValidator interface {
	RepositoryExists(ctx context.Context, fullName string) (bool, error)
}

type commandFunc func(i *Interpreter, ctx context.Context, in Input) (string, error)

var commands = map[string]commandFunc{
	"subscribe":   (*Interpreter).subscribe,
	"unsubscribe": (*Interpreter).unsubscribe,
	"start":       (*Interpreter).start,
	"stop":        (*Interpreter).stop,
	"connect":     (*Interpreter).connect,
	"status":      (*Interpreter).status,
	"subscribers": (*Interpreter).subscribers,
	"help":        (*Interpreter).help,
}

// Interpreter turns chat messages into store mutations and reply text.
type Interpreter struct {
	subs      *storage.SubscriptionStore
	pending   *storage.PendingStore
	validator RepoValidator

	webhookURL    string
	webhookSecret string
	botUsername   string
}

// InterpreterOption configures an Interpreter.
type InterpreterOption func(*Interpreter)

// WithRepoValidator checks linked repositories against GitHub before storing them.
func WithRepoValidator(v RepoValidator) InterpreterOption {
	return func(i *Interpreter) { i.validator = v }
}

// WithWebhookSecret includes the shared secret in onboarding replies.
func WithWebhookSecret(secret string) InterpreterOption {
	return func(i *Interpreter) { i.webhookSecret = secret }
}

// WithBotUsername ignores commands addressed to other bots, as in
// "/start@OtherBot".
func WithBotUsername(username string) InterpreterOption {
	return func(i *Interpreter) { i.botUsername = username }
}

// NewInterpreter creates an interpreter. webhookURL is the address shown
// to users when they subscribe.
func NewInterpreter(subs *storage.SubscriptionStore, pending *storage.PendingStore, webhookURL string, opts ...InterpreterOption) *Interpreter {
	i := &Interpreter{
		subs:       subs,
		pending:    pending,
		webhookURL: webhookURL,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Handle processes one message. ok is false when nothing should be sent back.
func (i *Interpreter) Handle(ctx context.Context, in Input) (reply string, ok bool) {
	text := strings.TrimSpace(in.Text)

	if name, target, isCommand := parseCommand(text); isCommand {
		if !i.addressedToMe(target) {
			return "", false
		}

		fn, known := commands[name]
		if !known {
			if in.private() {
				return unknownCommandText, true
			}
			return "", false
		}

		logger.Debug().Str("command", name).Str("chat_id", in.ChatID).Msg("Received command")

		reply, err := fn(i, ctx, in)
		if err != nil {
			logger.Error().Err(err).Str("command", name).Str("chat_id", in.ChatID).Msg("Command failed")
			return tryAgainText, true
		}
		return reply, true
	}

	action, err := i.pending.Get(ctx, in.ChatID)
	if err != nil {
		logger.Error().Err(err).Str("chat_id", in.ChatID).Msg("Failed to read pending actions")
		return tryAgainText, true
	}
	if action != nil && action.Kind == storage.PendingKindRepoLink {
		reply, err := i.linkRepo(ctx, in.ChatID, text)
		if err != nil {
			logger.Error().Err(err).Str("chat_id", in.ChatID).Msg("Failed to link repository")
			return tryAgainText, true
		}
		return reply, true
	}

	if in.private() {
		return privateHintText, true
	}
	return "", false
}

// parseCommand splits "/name@bot args" into the lower-cased command name
// and the bot it is addressed to, if any.
func parseCommand(text string) (name, target string, ok bool) {
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	token := strings.Fields(text[1:])
	if len(token) == 0 {
		return "", "", true
	}
	name, target, _ = strings.Cut(token[0], "@")
	return strings.ToLower(name), target, true
}

func (i *Interpreter) addressedToMe(target string) bool {
	return target == "" || i.botUsername == "" || strings.EqualFold(target, i.botUsername)
}

func (i *Interpreter) subscribe(ctx context.Context, in Input) (string, error) {
	created, err := i.subs.Subscribe(ctx, in.ChatID)
	if err != nil {
		return "", err
	}
	if created {
		logger.Info().Str("chat_id", in.ChatID).Msg("Chat subscribed")
	}
	return onboardingText(created, i.webhookURL, i.webhookSecret), nil
}

func (i *Interpreter) unsubscribe(ctx context.Context, in Input) (string, error) {
	removed, err := i.subs.Unsubscribe(ctx, in.ChatID)
	if err != nil {
		return "", err
	}
	if _, err := i.pending.Clear(ctx, in.ChatID); err != nil {
		return "", err
	}
	if !removed {
		return notUnsubscribedText, nil
	}
	logger.Info().Str("chat_id", in.ChatID).Msg("Chat unsubscribed")
	return unsubscribedText, nil
}

func (i *Interpreter) start(ctx context.Context, in Input) (string, error) {
	return i.setActive(ctx, in.ChatID, true, startedText)
}

func (i *Interpreter) stop(ctx context.Context, in Input) (string, error) {
	return i.setActive(ctx, in.ChatID, false, stoppedText)
}

func (i *Interpreter) setActive(ctx context.Context, chatID string, active bool, reply string) (string, error) {
	err := i.subs.SetActive(ctx, chatID, active)
	if errors.Is(err, storage.ErrNotFound) {
		return notSubscribedText, nil
	}
	if err != nil {
		return "", err
	}
	return reply, nil
}

func (i *Interpreter) connect(ctx context.Context, in Input) (string, error) {
	sub, err := i.subs.Get(ctx, in.ChatID)
	if err != nil {
		return "", err
	}
	if sub == nil {
		return notSubscribedText, nil
	}
	if err := i.pending.Begin(ctx, in.ChatID, storage.PendingKindRepoLink); err != nil {
		return "", err
	}
	return connectText, nil
}

func (i *Interpreter) status(ctx context.Context, in Input) (string, error) {
	sub, err := i.subs.Get(ctx, in.ChatID)
	if err != nil {
		return "", err
	}
	if sub == nil {
		return notSubscribedText, nil
	}
	action, err := i.pending.Get(ctx, in.ChatID)
	if err != nil {
		return "", err
	}
	return statusText(sub.Repo, sub.Active, action != nil), nil
}

func (i *Interpreter) subscribers(ctx context.Context, _ Input) (string, error) {
	stats, err := i.subs.Stats(ctx)
	if err != nil {
		return "", err
	}
	return subscribersText(stats.Total, stats.Active, stats.Linked), nil
}

func (i *Interpreter) help(context.Context, Input) (string, error) {
	return helpText, nil
}

// linkRepo completes the link dialog. Bad input keeps the chat pending.
func (i *Interpreter) linkRepo(ctx context.Context, chatID, text string) (string, error) {
	repo, ok := github.ParseRepoURL(text)
	if !ok {
		return invalidLinkText, nil
	}

	if i.validator != nil {
		exists, err := i.validator.RepositoryExists(ctx, repo)
		if err != nil {
			logger.Warn().Err(err).Str("repo", repo).Msg("Failed to validate repository")
			return validationFailedText, nil
		}
		if !exists {
			return repoNotFoundText(repo), nil
		}
	}

	previous, err := i.subs.LinkRepo(ctx, chatID, repo)
	if errors.Is(err, storage.ErrNotFound) {
		if _, err := i.pending.Clear(ctx, chatID); err != nil {
			return "", err
		}
		return notSubscribedText, nil
	}
	if err != nil {
		return "", err
	}

	if _, err := i.pending.Clear(ctx, chatID); err != nil {
		return "", err
	}

	logger.Info().Str("chat_id", chatID).Str("repo", repo).Str("previous", previous).Msg("Repository linked")
	if previous != "" && previous != repo {
		return relinkedText(previous, repo), nil
	}
	return linkedText(repo), nil
}

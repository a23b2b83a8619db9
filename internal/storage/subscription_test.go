package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/user/codehubnotify/internal/storage"
)

func TestSubscribe_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := storage.NewSubscriptionStore(storage.NewMemoryBackend())

	created, err := store.Subscribe(ctx, "100")
	gt.NoError(t, err)
	gt.True(t, created)

	created, err = store.Subscribe(ctx, "100")
	gt.NoError(t, err)
	gt.True(t, !created)

	subs, err := store.List(ctx)
	gt.NoError(t, err)
	gt.Number(t, len(subs)).Equal(1)
	gt.Equal(t, subs[0].ChatID, "100")
	gt.Equal(t, subs[0].Repo, "")
	gt.True(t, !subs[0].Active)
}

func TestUnsubscribe_RemovesRecord(t *testing.T) {
	ctx := context.Background()
	store := storage.NewSubscriptionStore(storage.NewMemoryBackend())

	removed, err := store.Unsubscribe(ctx, "100")
	gt.NoError(t, err)
	gt.True(t, !removed)

	_, err = store.Subscribe(ctx, "100")
	gt.NoError(t, err)
	_, err = store.Subscribe(ctx, "200")
	gt.NoError(t, err)

	removed, err = store.Unsubscribe(ctx, "100")
	gt.NoError(t, err)
	gt.True(t, removed)

	sub, err := store.Get(ctx, "100")
	gt.NoError(t, err)
	gt.Value(t, sub).Nil()

	sub, err = store.Get(ctx, "200")
	gt.NoError(t, err)
	gt.Value(t, sub).NotNil()
}

func TestSetActive(t *testing.T) {
	ctx := context.Background()
	store := storage.NewSubscriptionStore(storage.NewMemoryBackend())

	err := store.SetActive(ctx, "100", true)
	gt.True(t, errors.Is(err, storage.ErrNotFound))

	_, err = store.Subscribe(ctx, "100")
	gt.NoError(t, err)
	gt.NoError(t, store.SetActive(ctx, "100", true))

	sub, err := store.Get(ctx, "100")
	gt.NoError(t, err)
	gt.True(t, sub.Active)

	gt.NoError(t, store.SetActive(ctx, "100", false))
	sub, err = store.Get(ctx, "100")
	gt.NoError(t, err)
	gt.True(t, !sub.Active)
}

func TestLinkRepo_ReturnsPrevious(t *testing.T) {
	ctx := context.Background()
	store := storage.NewSubscriptionStore(storage.NewMemoryBackend())

	_, err := store.LinkRepo(ctx, "100", "acme/widget")
	gt.True(t, errors.Is(err, storage.ErrNotFound))

	_, err = store.Subscribe(ctx, "100")
	gt.NoError(t, err)

	previous, err := store.LinkRepo(ctx, "100", "acme/widget")
	gt.NoError(t, err)
	gt.Equal(t, previous, "")

	previous, err = store.LinkRepo(ctx, "100", "acme/gadget")
	gt.NoError(t, err)
	gt.Equal(t, previous, "acme/widget")

	sub, err := store.Get(ctx, "100")
	gt.NoError(t, err)
	gt.Equal(t, sub.Repo, "acme/gadget")
}

func TestActiveByRepo_FiltersInactiveAndOtherRepos(t *testing.T) {
	ctx := context.Background()
	store := storage.NewSubscriptionStore(storage.NewMemoryBackend())

	seed := []struct {
		chatID string
		repo   string
		active bool
	}{
		{"1", "a/b", true},
		{"2", "a/b", false},
		{"3", "c/d", true},
	}
	for _, s := range seed {
		_, err := store.Subscribe(ctx, s.chatID)
		gt.NoError(t, err)
		_, err = store.LinkRepo(ctx, s.chatID, s.repo)
		gt.NoError(t, err)
		gt.NoError(t, store.SetActive(ctx, s.chatID, s.active))
	}

	subs, err := store.ActiveByRepo(ctx, "a/b")
	gt.NoError(t, err)
	gt.Number(t, len(subs)).Equal(1)
	gt.Equal(t, subs[0].ChatID, "1")

	stats, err := store.Stats(ctx)
	gt.NoError(t, err)
	gt.Equal(t, stats, storage.Stats{Total: 3, Active: 2, Linked: 3})
}

func TestList_CorruptCollectionIsEmpty(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	gt.NoError(t, backend.Save(ctx, storage.CollectionSubscribers, []byte("{not json")))

	store := storage.NewSubscriptionStore(backend)
	subs, err := store.List(ctx)
	gt.NoError(t, err)
	gt.Number(t, len(subs)).Equal(0)

	// The next write replaces the corrupt document.
	_, err = store.Subscribe(ctx, "100")
	gt.NoError(t, err)
	subs, err = store.List(ctx)
	gt.NoError(t, err)
	gt.Number(t, len(subs)).Equal(1)
}

type failingBackend struct{}

func (failingBackend) Load(context.Context, string) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func (failingBackend) Save(context.Context, string, []byte) error {
	return errors.New("disk on fire")
}

func TestSubscribe_PropagatesBackendErrors(t *testing.T) {
	store := storage.NewSubscriptionStore(failingBackend{})
	_, err := store.Subscribe(context.Background(), "100")
	gt.Error(t, err)
	gt.String(t, err.Error()).Contains("disk on fire")
}

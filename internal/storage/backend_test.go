package storage_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/user/codehubnotify/internal/storage"
)

func newBackends(t *testing.T) map[string]storage.Backend {
	t.Helper()

	file, err := storage.NewFileBackend(filepath.Join(t.TempDir(), "data"))
	gt.NoError(t, err)

	db, err := storage.NewDatabase(filepath.Join(t.TempDir(), "db", "bot.db"))
	gt.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return map[string]storage.Backend{
		"memory": storage.NewMemoryBackend(),
		"file":   file,
		"sqlite": storage.NewSQLiteBackend(db),
	}
}

func TestBackends_LoadSave(t *testing.T) {
	for name, backend := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := backend.Load(ctx, "subscribers")
			gt.True(t, errors.Is(err, storage.ErrNotFound))

			gt.NoError(t, backend.Save(ctx, "subscribers", []byte(`[{"chat_id":"1"}]`)))
			gt.NoError(t, backend.Save(ctx, "subscribers", []byte(`[{"chat_id":"2"}]`)))

			data, err := backend.Load(ctx, "subscribers")
			gt.NoError(t, err)
			gt.Equal(t, string(data), `[{"chat_id":"2"}]`)

			_, err = backend.Load(ctx, "pending")
			gt.True(t, errors.Is(err, storage.ErrNotFound))
		})
	}
}

func TestBackends_StoreRoundTrip(t *testing.T) {
	for name, backend := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := storage.NewSubscriptionStore(backend)

			_, err := store.Subscribe(ctx, "-100123")
			gt.NoError(t, err)
			_, err = store.LinkRepo(ctx, "-100123", "acme/widget")
			gt.NoError(t, err)

			reopened := storage.NewSubscriptionStore(backend)
			sub, err := reopened.Get(ctx, "-100123")
			gt.NoError(t, err)
			gt.Value(t, sub).NotNil()
			gt.Equal(t, sub.Repo, "acme/widget")
		})
	}
}

func TestFileBackend_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	backend, err := storage.NewFileBackend(dir)
	gt.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		gt.NoError(t, backend.Save(ctx, "pending", []byte("[]")))
	}

	entries, err := os.ReadDir(dir)
	gt.NoError(t, err)
	gt.Number(t, len(entries)).Equal(1)
	gt.Equal(t, entries[0].Name(), "pending.json")
}

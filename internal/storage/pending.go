package storage

import (
	"context"
	"time"
)

// PendingStore tracks chats that are in the middle of a dialog.
type PendingStore struct {
	actions *collection[PendingAction]
	now     func() time.Time
}

// NewPendingStore creates a new pending-action store.
func NewPendingStore(backend Backend) *PendingStore {
	return &PendingStore{
		actions: &collection[PendingAction]{backend: backend, name: CollectionPending},
		now:     time.Now,
	}
}

func pendingIndex(actions []PendingAction, chatID string) int {
	for i := range actions {
		if actions[i].ChatID == chatID {
			return i
		}
	}
	return -1
}

// Get returns the pending action for chatID, or nil.
func (p *PendingStore) Get(ctx context.Context, chatID string) (*PendingAction, error) {
	actions, err := p.actions.list(ctx)
	if err != nil {
		return nil, err
	}
	if i := pendingIndex(actions, chatID); i >= 0 {
		action := actions[i]
		return &action, nil
	}
	return nil, nil
}

// Begin marks chatID as waiting for a reply of the given kind. A chat holds
// at most one pending action; beginning a new one replaces the old kind.
func (p *PendingStore) Begin(ctx context.Context, chatID string, kind PendingKind) error {
	return p.actions.update(ctx, func(actions []PendingAction) ([]PendingAction, bool, error) {
		if i := pendingIndex(actions, chatID); i >= 0 {
			if actions[i].Kind == kind {
				return actions, false, nil
			}
			actions[i].Kind = kind
			actions[i].CreatedAt = p.now()
			return actions, true, nil
		}
		return append(actions, PendingAction{ChatID: chatID, Kind: kind, CreatedAt: p.now()}), true, nil
	})
}

// Clear removes any pending action for chatID.
func (p *PendingStore) Clear(ctx context.Context, chatID string) (removed bool, err error) {
	err = p.actions.update(ctx, func(actions []PendingAction) ([]PendingAction, bool, error) {
		i := pendingIndex(actions, chatID)
		if i < 0 {
			return actions, false, nil
		}
		removed = true
		return append(actions[:i], actions[i+1:]...), true, nil
	})
	return removed, err
}

package storage

import (
	"context"
	"time"
)

// SubscriptionStore handles subscriber records.
type SubscriptionStore struct {
	subs *collection[Subscriber]
	now  func() time.Time
}

// NewSubscriptionStore creates a new subscription store.
func NewSubscriptionStore(backend Backend) *SubscriptionStore {
	return &SubscriptionStore{
		subs: &collection[Subscriber]{backend: backend, name: CollectionSubscribers},
		now:  time.Now,
	}
}

func indexOf(subs []Subscriber, chatID string) int {
	for i := range subs {
		if subs[i].ChatID == chatID {
			return i
		}
	}
	return -1
}

// List returns every subscriber.
func (s *SubscriptionStore) List(ctx context.Context) ([]Subscriber, error) {
	return s.subs.list(ctx)
}

// Get returns the subscriber for chatID, or nil if there is none.
func (s *SubscriptionStore) Get(ctx context.Context, chatID string) (*Subscriber, error) {
	subs, err := s.subs.list(ctx)
	if err != nil {
		return nil, err
	}
	if i := indexOf(subs, chatID); i >= 0 {
		sub := subs[i]
		return &sub, nil
	}
	return nil, nil
}

// Subscribe creates an inactive, unlinked subscriber unless one exists.
func (s *SubscriptionStore) Subscribe(ctx context.Context, chatID string) (created bool, err error) {
	err = s.subs.update(ctx, func(subs []Subscriber) ([]Subscriber, bool, error) {
		if indexOf(subs, chatID) >= 0 {
			return subs, false, nil
		}
		now := s.now()
		created = true
		return append(subs, Subscriber{ChatID: chatID, CreatedAt: now, UpdatedAt: now}), true, nil
	})
	return created, err
}

// Unsubscribe deletes the subscriber record.
func (s *SubscriptionStore) Unsubscribe(ctx context.Context, chatID string) (removed bool, err error) {
	err = s.subs.update(ctx, func(subs []Subscriber) ([]Subscriber, bool, error) {
		i := indexOf(subs, chatID)
		if i < 0 {
			return subs, false, nil
		}
		removed = true
		return append(subs[:i], subs[i+1:]...), true, nil
	})
	return removed, err
}

// SetActive toggles delivery for a subscriber. It returns ErrNotFound when
// the chat is not subscribed.
func (s *SubscriptionStore) SetActive(ctx context.Context, chatID string, active bool) error {
	return s.subs.update(ctx, func(subs []Subscriber) ([]Subscriber, bool, error) {
		i := indexOf(subs, chatID)
		if i < 0 {
			return subs, false, ErrNotFound
		}
		if subs[i].Active == active {
			return subs, false, nil
		}
		subs[i].Active = active
		subs[i].UpdatedAt = s.now()
		return subs, true, nil
	})
}

// LinkRepo stores repo on the subscriber and returns the previously linked
// repository, if any. It returns ErrNotFound when the chat is not subscribed.
func (s *SubscriptionStore) LinkRepo(ctx context.Context, chatID, repo string) (previous string, err error) {
	err = s.subs.update(ctx, func(subs []Subscriber) ([]Subscriber, bool, error) {
		i := indexOf(subs, chatID)
		if i < 0 {
			return subs, false, ErrNotFound
		}
		previous = subs[i].Repo
		subs[i].Repo = repo
		subs[i].UpdatedAt = s.now()
		return subs, true, nil
	})
	return previous, err
}

// ActiveByRepo returns active subscribers linked to repo.
func (s *SubscriptionStore) ActiveByRepo(ctx context.Context, repo string) ([]Subscriber, error) {
	subs, err := s.subs.list(ctx)
	if err != nil {
		return nil, err
	}

	var matched []Subscriber
	for _, sub := range subs {
		if sub.Active && sub.Repo == repo {
			matched = append(matched, sub)
		}
	}
	return matched, nil
}

// Stats counts subscribers.
func (s *SubscriptionStore) Stats(ctx context.Context) (Stats, error) {
	subs, err := s.subs.list(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Total: len(subs)}
	for _, sub := range subs {
		if sub.Active {
			stats.Active++
		}
		if sub.Linked() {
			stats.Linked++
		}
	}
	return stats, nil
}

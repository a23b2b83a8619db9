// Package storage persists subscribers and pending dialogs.
package storage

import "time"

// Collection names used with a Backend.
const (
	CollectionSubscribers = "subscribers"
	CollectionPending     = "pending"
)

// Subscriber is a chat registered to receive notifications.
type Subscriber struct {
	ChatID    string    `json:"chat_id"`
	Repo      string    `json:"repo,omitempty"` // owner/name, empty until linked
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Linked reports whether a repository has been linked.
func (s Subscriber) Linked() bool {
	return s.Repo != ""
}

// PendingKind tags the dialog a chat is in the middle of.
type PendingKind string

const (
	// PendingKindRepoLink waits for a repository URL after /connect.
	PendingKindRepoLink PendingKind = "repo_link"
)

// PendingAction marks a chat that owes the bot a reply.
type PendingAction struct {
	ChatID    string      `json:"chat_id"`
	Kind      PendingKind `json:"kind"`
	CreatedAt time.Time   `json:"created_at"`
}

// Stats summarizes the subscriber collection.
type Stats struct {
	Total  int
	Active int
	Linked int
}

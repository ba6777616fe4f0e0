// Package memory implements the assistant's long-term memory stores.
package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry is one remembered fact.
type Entry struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats summarizes a store for the dashboard.
type Stats struct {
	Backend string `json:"backend"`
	Count   int    `json:"count"`
}

// Store is the persistence surface behind the memory API.
type Store interface {
	Add(ctx context.Context, content string, tags []string) (Entry, error)
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Delete(ctx context.Context, id string) (bool, error)
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

func newEntry(content string, tags []string) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Content:   content,
		Tags:      tags,
		CreatedAt: time.Now().UTC(),
	}
}

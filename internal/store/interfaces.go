package store

import (
	"context"
	"errors"

	"storyshelf.app/assistant/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// CollectionStore is read access to one library collection.
type CollectionStore interface {
	// Search returns up to limit records where any filter field contains any
	// keyword (case-insensitive), in store order.
	Search(ctx context.Context, keywords []model.Keyword, limit int) ([]model.ContentRecord, error)

	// LookupID returns the identifier of the record whose title (or tool
	// name) equals title exactly.
	LookupID(ctx context.Context, title string) (string, error)
}

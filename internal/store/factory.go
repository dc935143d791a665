package store

import (
	"time"

	"github.com/redis/go-redis/v9"

	"storyshelf.app/assistant/core/db"
	"storyshelf.app/assistant/internal/model"
)

type Stores struct {
	querier  db.Querier
	redis    *redis.Client
	cacheTTL time.Duration
}

// NewStores wires the library collections. A nil redis client disables the
// cache.
func NewStores(querier db.Querier, redisClient *redis.Client, cacheTTL time.Duration) *Stores {
	return &Stores{querier: querier, redis: redisClient, cacheTTL: cacheTTL}
}

func (s *Stores) Stories() CollectionStore {
	return s.build(storiesTable)
}

func (s *Stores) Prompts() CollectionStore {
	return s.build(promptsTable)
}

func (s *Stores) Tools() CollectionStore {
	return s.build(toolsTable)
}

// Collection returns the store for c, or nil for an unknown collection.
func (s *Stores) Collection(c model.Collection) CollectionStore {
	switch c {
	case model.CollectionStories:
		return s.Stories()
	case model.CollectionPrompts:
		return s.Prompts()
	case model.CollectionTools:
		return s.Tools()
	default:
		return nil
	}
}

func (s *Stores) build(t table) CollectionStore {
	base := newCollectionStore(s.querier, t)
	if s.redis == nil {
		return base
	}
	return newCachedCollectionStore(base, s.redis, s.cacheTTL, t.collection)
}

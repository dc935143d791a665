package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"storyshelf.app/assistant/internal/model"
)

// cacheBackend is the subset of the redis client the library cache uses.
type cacheBackend interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// cachedCollectionStore keeps search results and title → id lookups in
// redis. Any redis failure falls through to the wrapped store.
type cachedCollectionStore struct {
	CollectionStore
	cache      cacheBackend
	ttl        time.Duration
	collection model.Collection
}

func newCachedCollectionStore(inner CollectionStore, cache cacheBackend, ttl time.Duration, collection model.Collection) CollectionStore {
	return &cachedCollectionStore{
		CollectionStore: inner,
		cache:           cache,
		ttl:             ttl,
		collection:      collection,
	}
}

func (s *cachedCollectionStore) Search(ctx context.Context, keywords []model.Keyword, limit int) ([]model.ContentRecord, error) {
	patterns := containsPatterns(keywords)
	if len(patterns) == 0 || limit <= 0 {
		return s.CollectionStore.Search(ctx, keywords, limit)
	}
	key := searchCacheKey(s.collection, patterns, limit)

	if data, ok := s.get(ctx, key); ok {
		records, err := decodeRecords(s.collection, data)
		if err == nil {
			return records, nil
		}
		slog.WarnContext(ctx, "library search cache entry unreadable", "collection", s.collection, "error", err)
	}

	records, err := s.CollectionStore.Search(ctx, keywords, limit)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(records)
	if err != nil {
		slog.WarnContext(ctx, "library search cache encode failed", "collection", s.collection, "error", err)
		return records, nil
	}
	s.set(ctx, key, data)
	return records, nil
}

func (s *cachedCollectionStore) LookupID(ctx context.Context, title string) (string, error) {
	key := idCacheKey(s.collection, title)

	if id, ok := s.get(ctx, key); ok {
		return id, nil
	}

	id, err := s.CollectionStore.LookupID(ctx, title)
	if err != nil {
		return "", err
	}
	s.set(ctx, key, id)
	return id, nil
}

func (s *cachedCollectionStore) get(ctx context.Context, key string) (string, bool) {
	val, err := s.cache.Get(ctx, key).Result()
	switch {
	case err == nil:
		return val, true
	case errors.Is(err, redis.Nil):
	default:
		slog.WarnContext(ctx, "library cache read failed", "collection", s.collection, "error", err)
	}
	return "", false
}

func (s *cachedCollectionStore) set(ctx context.Context, key string, value any) {
	if err := s.cache.Set(ctx, key, value, s.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "library cache write failed", "collection", s.collection, "error", err)
	}
}

// searchCacheKey is order-insensitive over patterns; ILIKE ANY treats them as a set.
func searchCacheKey(collection model.Collection, patterns []string, limit int) string {
	set := slices.Clone(patterns)
	slices.Sort(set)
	set = slices.Compact(set)
	return fmt.Sprintf("library:search:%s:%d:%s", collection, limit, strings.Join(set, "|"))
}

// idCacheKey keys on the exact title, matching the lookup's equality test.
func idCacheKey(collection model.Collection, title string) string {
	return fmt.Sprintf("library:id:%s:%s", collection, title)
}

func decodeRecords(collection model.Collection, data string) ([]model.ContentRecord, error) {
	switch collection {
	case model.CollectionStories:
		return decodeAs[model.Story](data)
	case model.CollectionPrompts:
		return decodeAs[model.PromptTemplate](data)
	case model.CollectionTools:
		return decodeAs[model.ToolListing](data)
	default:
		return nil, fmt.Errorf("unknown collection %q", collection)
	}
}

func decodeAs[T model.ContentRecord](data string) ([]model.ContentRecord, error) {
	var items []T
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, err
	}
	records := make([]model.ContentRecord, len(items))
	for i, item := range items {
		records[i] = item
	}
	return records, nil
}

package brain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"storyshelf.app/assistant/common/logger"
	"storyshelf.app/assistant/internal/model"
	"storyshelf.app/assistant/internal/store"
)

// maxCandidatesPerCollection bounds each collection query.
const maxCandidatesPerCollection = 10

// CollectionSource hands out the store for one library collection.
// *store.Stores satisfies it.
type CollectionSource interface {
	Collection(c model.Collection) store.CollectionStore
}

// Candidates holds the unranked query results per collection, in store order.
type Candidates map[model.Collection][]model.ContentRecord

// Total returns the number of candidates across all collections.
func (c Candidates) Total() int {
	n := 0
	for _, records := range c {
		n += len(records)
	}
	return n
}

type Retriever struct {
	source CollectionSource
}

func NewRetriever(source CollectionSource) *Retriever {
	return &Retriever{source: source}
}

// Retrieve queries every collection concurrently. A failed collection
// contributes no candidates and is logged; only cancellation of ctx is
// returned as an error. No queries are issued for an empty keyword list.
func (r *Retriever) Retrieve(ctx context.Context, keywords []model.Keyword) (Candidates, error) {
	candidates := make(Candidates, len(model.Collections))
	if len(keywords) == 0 {
		return candidates, nil
	}

	results := make([][]model.ContentRecord, len(model.Collections))
	g, gctx := errgroup.WithContext(ctx)

	for i, collection := range model.Collections {
		g.Go(func() error {
			results[i] = r.searchCollection(gctx, collection, keywords)
			return nil
		})
	}

	// Branches never fail, so Wait only joins.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("retrieving library content: %w", err)
	}

	for i, collection := range model.Collections {
		candidates[collection] = results[i]
	}
	return candidates, nil
}

func (r *Retriever) searchCollection(ctx context.Context, collection model.Collection, keywords []model.Keyword) []model.ContentRecord {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Collection: logger.Ptr(string(collection)),
	})

	s := r.source.Collection(collection)
	if s == nil {
		slog.WarnContext(ctx, "no store configured for collection")
		return nil
	}

	start := time.Now()
	records, err := s.Search(ctx, keywords, maxCandidatesPerCollection)
	if err != nil {
		if ctx.Err() == nil {
			slog.WarnContext(ctx, "collection query failed, continuing without it",
				"error", err,
				"duration_ms", time.Since(start).Milliseconds())
		}
		return nil
	}

	slog.DebugContext(ctx, "collection query completed",
		"candidate_count", len(records),
		"duration_ms", time.Since(start).Milliseconds())
	return records
}

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"storyshelf.app/assistant/core/db"
	"storyshelf.app/assistant/internal/model"
)

// table describes how one collection maps onto its Postgres table.
type table struct {
	collection     model.Collection
	name           string
	selectColumns  []string
	filterColumns  []string
	identityColumn string
	scan           func(row pgx.Rows) (model.ContentRecord, error)
}

// Stories are filtered on attribution too, though the ranker never scores it.
var storiesTable = table{
	collection:     model.CollectionStories,
	name:           "stories",
	selectColumns:  []string{"id::text", "title", "coalesce(content, '')", "coalesce(attribution, '')"},
	filterColumns:  []string{"title", "content", "attribution"},
	identityColumn: "title",
	scan: func(row pgx.Rows) (model.ContentRecord, error) {
		var s model.Story
		if err := row.Scan(&s.ID, &s.Title, &s.Body, &s.Attribution); err != nil {
			return nil, err
		}
		return s, nil
	},
}

var promptsTable = table{
	collection:     model.CollectionPrompts,
	name:           "prompts",
	selectColumns:  []string{"id::text", "title", "coalesce(category, '')", "coalesce(short_description, '')", "coalesce(example_prompt, '')"},
	filterColumns:  []string{"title", "category", "short_description"},
	identityColumn: "title",
	scan: func(row pgx.Rows) (model.ContentRecord, error) {
		var p model.PromptTemplate
		if err := row.Scan(&p.ID, &p.Title, &p.Category, &p.ShortDescription, &p.ExampleText); err != nil {
			return nil, err
		}
		return p, nil
	},
}

var toolsTable = table{
	collection:     model.CollectionTools,
	name:           "tools",
	selectColumns:  []string{"id::text", "name", "coalesce(description, '')", "coalesce(url, '')"},
	filterColumns:  []string{"name", "description"},
	identityColumn: "name",
	scan: func(row pgx.Rows) (model.ContentRecord, error) {
		var t model.ToolListing
		if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.URL); err != nil {
			return nil, err
		}
		return t, nil
	},
}

type collectionStore struct {
	q     db.Querier
	table table
}

func newCollectionStore(q db.Querier, t table) CollectionStore {
	return &collectionStore{q: q, table: t}
}

func (s *collectionStore) Search(ctx context.Context, keywords []model.Keyword, limit int) ([]model.ContentRecord, error) {
	patterns := containsPatterns(keywords)
	if len(patterns) == 0 || limit <= 0 {
		return nil, nil
	}

	rows, err := s.q.Query(ctx, searchSQL(s.table), patterns, limit)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", s.table.name, err)
	}
	defer rows.Close()

	records := make([]model.ContentRecord, 0, limit)
	for rows.Next() {
		record, err := s.table.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", s.table.name, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s rows: %w", s.table.name, err)
	}

	return records, nil
}

func (s *collectionStore) LookupID(ctx context.Context, title string) (string, error) {
	var id string
	err := s.q.QueryRow(ctx, lookupSQL(s.table), title).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("looking up %s id: %w", s.table.name, err)
	}
	return id, nil
}

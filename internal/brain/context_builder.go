package brain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"storyshelf.app/assistant/common/logger"
	"storyshelf.app/assistant/internal/model"
	"storyshelf.app/assistant/internal/store"
)

const storyExcerptLength = 600

// Ranked holds the top records per collection after ranking.
type Ranked map[model.Collection][]model.ScoredRecord

var sectionHeaders = map[model.Collection]string{
	model.CollectionPrompts: "RELEVANT PROMPTS FROM THE LIBRARY",
	model.CollectionStories: "RELEVANT STORIES FROM THE LIBRARY",
	model.CollectionTools:   "RELEVANT TOOLS FROM THE LIBRARY",
}

// ContextBuilder turns ranked records into the system message.
type ContextBuilder struct {
	source CollectionSource
}

func NewContextBuilder(source CollectionSource) *ContextBuilder {
	return &ContextBuilder{source: source}
}

type idLookup struct {
	collection model.Collection
	index      int
	title      string
}

// ResolveIDs attaches an identifier to every ranked record that lacks one,
// looking it up by exact title. Lookups run concurrently and all finish before
// it returns. Records that cannot be resolved get model.UnknownID.
func (b *ContextBuilder) ResolveIDs(ctx context.Context, ranked Ranked) Ranked {
	var pending []idLookup
	for _, collection := range model.Collections {
		for i, sr := range ranked[collection] {
			if sr.Record.RecordID() == "" {
				pending = append(pending, idLookup{collection: collection, index: i, title: sr.Record.DisplayTitle()})
			}
		}
	}
	if len(pending) == 0 {
		return ranked
	}

	ids := make([]string, len(pending))
	var wg sync.WaitGroup
	for i, lookup := range pending {
		wg.Add(1)
		go func(idx int, l idLookup) {
			defer wg.Done()
			ids[idx] = b.lookupID(ctx, l)
		}(i, lookup)
	}
	wg.Wait()

	resolved := make(Ranked, len(ranked))
	for collection, records := range ranked {
		resolved[collection] = append([]model.ScoredRecord(nil), records...)
	}
	for i, l := range pending {
		sr := resolved[l.collection][l.index]
		sr.Record = sr.Record.WithID(ids[i])
		resolved[l.collection][l.index] = sr
	}
	return resolved
}

func (b *ContextBuilder) lookupID(ctx context.Context, l idLookup) string {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Collection: logger.Ptr(string(l.collection)),
	})

	s := b.source.Collection(l.collection)
	if s == nil || l.title == "" {
		return model.UnknownID
	}

	id, err := s.LookupID(ctx, l.title)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.WarnContext(ctx, "library id lookup failed",
				"title", logger.Truncate(l.title, 100),
				"error", err)
		}
		return model.UnknownID
	}
	if id == "" {
		return model.UnknownID
	}
	return id
}

// BuildLibraryContext renders one fenced section per non-empty collection in
// prompts, stories, tools order. It returns "" when nothing was ranked.
func (b *ContextBuilder) BuildLibraryContext(ranked Ranked) string {
	var sections []string
	for _, collection := range model.Collections {
		records := ranked[collection]
		if len(records) == 0 {
			continue
		}

		entries := make([]string, len(records))
		for i, sr := range records {
			entries[i] = renderRecord(sr.Record)
		}

		var sb strings.Builder
		sb.WriteString(sectionHeaders[collection])
		sb.WriteString("\n```\n")
		sb.WriteString(strings.Join(entries, "\n---\n"))
		sb.WriteString("\n```")
		sections = append(sections, sb.String())
	}
	return strings.Join(sections, "\n\n")
}

// BuildSystemPrompt appends the library context to the assistant preamble.
// An empty context leaves the preamble as is.
func (b *ContextBuilder) BuildSystemPrompt(libraryContext string) string {
	if libraryContext == "" {
		return libraryAssistantPrompt
	}
	return libraryAssistantPrompt + "\n\n" + libraryContext
}

func renderRecord(record model.ContentRecord) string {
	var lines []string
	field := func(label, value string) {
		lines = append(lines, fmt.Sprintf("%s: %s", label, value))
	}
	optional := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			field(label, value)
		}
	}

	id := record.RecordID()
	if id == "" {
		id = model.UnknownID
	}

	switch r := record.(type) {
	case model.PromptTemplate:
		field("ID", id)
		field("Title", r.Title)
		field("Category", r.Category)
		field("Description", r.ShortDescription)
		optional("Example", r.ExampleText)
	case model.Story:
		field("ID", id)
		field("Title", r.Title)
		optional("Attribution", r.Attribution)
		field("Excerpt", excerpt(r.Body, storyExcerptLength))
	case model.ToolListing:
		field("ID", id)
		field("Name", r.Name)
		field("Description", r.Description)
		optional("URL", r.URL)
	}
	return strings.Join(lines, "\n")
}

// excerpt shortens s to at most n runes on a rune boundary, collapsing
// internal whitespace.
func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n])) + "..."
}

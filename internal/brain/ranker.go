package brain

import (
	"sort"
	"strings"

	"storyshelf.app/assistant/internal/model"
)

const (
	// maxRankedPerCollection caps how many records per collection reach the
	// context block.
	maxRankedPerCollection = 3

	storyTitleWeight = 10
	storyBodyWeight  = 3

	promptTitleWeight            = 10
	promptCategoryWeight         = 5
	promptShortDescriptionWeight = 3

	toolNameWeight        = 10
	toolDescriptionWeight = 5
)

type weightedField struct {
	value  string
	weight int
}

// scoredFields lists the fields that contribute to a record's score. Story
// attribution is matched by retrieval but never scored.
func scoredFields(record model.ContentRecord) []weightedField {
	switch r := record.(type) {
	case model.Story:
		return []weightedField{
			{r.Title, storyTitleWeight},
			{r.Body, storyBodyWeight},
		}
	case model.PromptTemplate:
		return []weightedField{
			{r.Title, promptTitleWeight},
			{r.Category, promptCategoryWeight},
			{r.ShortDescription, promptShortDescriptionWeight},
		}
	case model.ToolListing:
		return []weightedField{
			{r.Name, toolNameWeight},
			{r.Description, toolDescriptionWeight},
		}
	default:
		return nil
	}
}

// Score sums the weight of every scored field that contains each keyword as a
// case-insensitive substring.
func Score(record model.ContentRecord, keywords []model.Keyword) int {
	fields := scoredFields(record)
	lowered := make([]string, len(fields))
	for i, f := range fields {
		lowered[i] = strings.ToLower(f.value)
	}

	score := 0
	for _, kw := range keywords {
		needle := strings.ToLower(string(kw))
		if needle == "" {
			continue
		}
		for i, f := range fields {
			if strings.Contains(lowered[i], needle) {
				score += f.weight
			}
		}
	}
	return score
}

// Rank scores candidates, orders them by descending score keeping retrieval
// order on ties, and returns at most limit records. Zero scores are kept.
func Rank(candidates []model.ContentRecord, keywords []model.Keyword, limit int) []model.ScoredRecord {
	if len(candidates) == 0 || limit <= 0 {
		return nil
	}

	scored := make([]model.ScoredRecord, len(candidates))
	for i, record := range candidates {
		scored[i] = model.ScoredRecord{Record: record, Score: Score(record, keywords)}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

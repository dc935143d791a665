package store

import (
	"fmt"
	"strings"

	"storyshelf.app/assistant/internal/model"
)

// patternMetachars are stripped from keywords before they are embedded in an
// ILIKE pattern, so a keyword can never widen the match.
var patternMetachars = strings.NewReplacer("%", "", "_", "", `\`, "")

// SanitizePattern removes LIKE wildcard and escape characters from a keyword.
func SanitizePattern(keyword string) string {
	return patternMetachars.Replace(keyword)
}

// containsPatterns builds one "%kw%" pattern per keyword. Keywords that are
// empty after sanitizing are dropped.
func containsPatterns(keywords []model.Keyword) []string {
	patterns := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		clean := SanitizePattern(string(kw))
		if clean == "" {
			continue
		}
		patterns = append(patterns, "%"+clean+"%")
	}
	return patterns
}

// searchSQL renders "any column ILIKE any pattern" for a table. Patterns
// bind to $1 as text[], the row cap to $2.
func searchSQL(t table) string {
	clauses := make([]string, len(t.filterColumns))
	for i, col := range t.filterColumns {
		clauses[i] = fmt.Sprintf("%s ILIKE ANY($1)", col)
	}
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s LIMIT $2",
		strings.Join(t.selectColumns, ", "),
		t.name,
		strings.Join(clauses, " OR "))
}

func lookupSQL(t table) string {
	return fmt.Sprintf("SELECT id::text FROM %s WHERE %s = $1 LIMIT 1", t.name, t.identityColumn)
}

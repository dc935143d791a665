package brain

import (
	"regexp"
	"strings"

	"storyshelf.app/assistant/internal/model"
)

const (
	maxKeywords      = 5
	minKeywordLength = 3
)

var nonKeywordChars = regexp.MustCompile(`[^a-z0-9\-\s]`)

// stopWords are dropped before retrieval. Two-letter words are listed for
// completeness even though the length filter already removes them.
var stopWords = func() map[string]struct{} {
	words := []string{
		// articles, conjunctions, prepositions
		"a", "an", "the", "and", "or", "but", "nor", "so", "yet", "if", "then",
		"than", "of", "to", "in", "on", "at", "by", "for", "with", "from",
		"into", "onto", "about", "over", "under", "up", "down", "out", "off",
		"as", "is", "are", "was", "were", "be", "been", "being", "am",
		"do", "does", "did", "done", "have", "has", "had", "having",
		"this", "that", "these", "those", "there", "here", "what", "which",
		"who", "whom", "whose", "when", "where", "why", "how", "not", "no",
		"all", "any", "some", "just", "very", "too", "also", "more", "most",
		"get", "got", "want", "need", "like", "really",
		// pronouns
		"i", "me", "my", "mine", "myself", "we", "us", "our", "ours",
		"ourselves", "you", "your", "yours", "yourself", "he", "him", "his",
		"she", "her", "hers", "it", "its", "they", "them", "their", "theirs",
		// modal verbs
		"can", "could", "will", "would", "shall", "should", "may", "might",
		"must",
		// assistant filler
		"remix", "create", "build", "make", "help", "please", "let", "lets",
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}()

// IsStopWord reports whether word is excluded from keyword extraction.
func IsStopWord(word string) bool {
	_, ok := stopWords[word]
	return ok
}

// ExtractKeywords returns up to five salient tokens from a user message in the
// order they appear. Duplicates are kept.
func ExtractKeywords(text string) []model.Keyword {
	normalized := nonKeywordChars.ReplaceAllString(strings.ToLower(text), " ")

	keywords := make([]model.Keyword, 0, maxKeywords)
	for _, token := range strings.Fields(normalized) {
		if len(token) < minKeywordLength || IsStopWord(token) {
			continue
		}
		keywords = append(keywords, model.Keyword(token))
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}

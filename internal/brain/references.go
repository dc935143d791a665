package brain

import (
	"regexp"
	"strings"

	"storyshelf.app/assistant/internal/model"
)

// libraryItemPattern matches [LIBRARY_ITEM:type:id:title] markers. Whitespace
// around the parts and the type's case are tolerated; titles may contain
// colons but not a closing bracket.
// Examples: "[LIBRARY_ITEM:prompt:p-1:Block Party Supply Sign-Up]", "[LIBRARY_ITEM: Tool : t-9 : Zine Maker ]"
var libraryItemPattern = regexp.MustCompile(`\[LIBRARY_ITEM:\s*([A-Za-z]+)\s*:\s*([^:\]\s]+)\s*:\s*([^\]]*[^\]\s])\s*\]`)

// ParseReferences extracts library references from a model reply, in order of
// first appearance, deduplicated by type and id. Malformed markers and unknown
// types are skipped.
func ParseReferences(content string) []model.LibraryReference {
	matches := libraryItemPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}

	refs := make([]model.LibraryReference, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		refType := strings.ToLower(m[1])
		if !isReferenceType(refType) {
			continue
		}
		key := refType + ":" + m[2]
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		refs = append(refs, model.LibraryReference{
			Type:  refType,
			ID:    m[2],
			Title: strings.TrimSpace(m[3]),
		})
	}
	return refs
}

// StripReferences replaces each well-formed marker with its bare title, for
// surfaces that cannot render preview cards. Returns the cleaned content and
// the number of markers replaced.
func StripReferences(content string) (string, int) {
	count := 0
	cleaned := libraryItemPattern.ReplaceAllStringFunc(content, func(marker string) string {
		m := libraryItemPattern.FindStringSubmatch(marker)
		if !isReferenceType(strings.ToLower(m[1])) {
			return marker
		}
		count++
		return strings.TrimSpace(m[3])
	})
	return cleaned, count
}

func isReferenceType(t string) bool {
	for _, c := range model.Collections {
		if c.ReferenceType() == t {
			return true
		}
	}
	return false
}

package internal

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agext/levenshtein"
)

// SuggestKeys returns up to limit candidates that are close to the first
// segment of path, closest first. Paths into the environment or the
// current item get no suggestions.
func SuggestKeys(path string, candidates []string, limit int) []string {
	if limit <= 0 || len(candidates) == 0 || path == PathCurrentItem ||
		strings.HasPrefix(path, PathCurrentItem) || strings.HasPrefix(path, EnvPathPrefix) {
		return nil
	}

	target := strings.ToLower(PathPrefix(path))
	maxDistance := len(target) / 2
	if maxDistance < MinSuggestDistance {
		maxDistance = MinSuggestDistance
	}

	type scored struct {
		key      string
		distance int
	}
	var similar []scored
	for _, candidate := range candidates {
		dist := levenshtein.Distance(target, strings.ToLower(candidate), nil)
		if dist == 0 || dist > maxDistance {
			continue
		}
		similar = append(similar, scored{key: candidate, distance: dist})
	}

	sort.SliceStable(similar, func(i, j int) bool {
		if similar[i].distance != similar[j].distance {
			return similar[i].distance < similar[j].distance
		}
		return similar[i].key < similar[j].key
	})

	out := make([]string, 0, limit)
	for i := 0; i < len(similar) && i < limit; i++ {
		out = append(out, similar[i].key)
	}
	return out
}

// PathPrefix returns the first segment of a dotted path
func PathPrefix(path string) string {
	if idx := strings.Index(path, PathSeparator); idx > 0 {
		return path[:idx]
	}
	return path
}

// FormatSuggestions renders suggestions as "did you mean 'a', 'b' or 'c'?"
func FormatSuggestions(suggestions []string) string {
	if len(suggestions) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(SuggestionPrefix)
	for i, s := range suggestions {
		if i > 0 {
			if i == len(suggestions)-1 {
				sb.WriteString(SuggestionOr)
			} else {
				sb.WriteString(ErrListSeparator)
			}
		}
		sb.WriteString(SuggestionQuote + s + SuggestionQuote)
	}
	sb.WriteString(SuggestionSuffix)
	return sb.String()
}

// FormatHints joins the suggestions of every path that has any, in path order
func FormatHints(paths []string, suggestions map[string][]string) string {
	var hints []string
	for _, path := range paths {
		if s := suggestions[path]; len(s) > 0 {
			hints = append(hints, fmt.Sprintf(SuggestionHintFmt, path, FormatSuggestions(s)))
		}
	}
	return strings.Join(hints, SuggestionHintSep)
}

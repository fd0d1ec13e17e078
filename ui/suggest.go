package ui

import (
	"github.com/sahilm/fuzzy"
)

const maxSuggestions = 3

// Suggest returns up to three candidates that fuzzily match target, best
// match first.
func Suggest(target string, candidates []string) []string {
	if target == "" {
		return nil
	}

	matches := fuzzy.Find(target, candidates)
	suggestions := make([]string, 0, min(len(matches), maxSuggestions))
	for _, match := range matches {
		if len(suggestions) == maxSuggestions {
			break
		}
		suggestions = append(suggestions, match.Str)
	}
	return suggestions
}

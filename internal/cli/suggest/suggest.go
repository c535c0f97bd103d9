// Package suggest finds command names close to a mistyped one.
package suggest

import (
	"sort"
	"strings"

	"github.com/xrash/smetrics"
)

// MaxSuggestions caps the number of names Closest returns.
const MaxSuggestions = 3

// Distance is the Levenshtein distance between a and b, ignoring case.
func Distance(a, b string) int {
	return smetrics.WagnerFischer(strings.ToLower(a), strings.ToLower(b), 1, 1, 1)
}

// Threshold is the largest distance still considered a typo of input.
func Threshold(input string) int {
	if n := len(input) / 3; n > 2 {
		return n
	}
	return 2
}

// Closest returns up to MaxSuggestions candidates within Threshold of input,
// nearest first and alphabetical among equals. Exact matches are skipped.
func Closest(input string, candidates []string) []string {
	type match struct {
		name     string
		distance int
	}

	limit := Threshold(input)
	seen := make(map[string]bool, len(candidates))
	var matches []match
	for _, name := range candidates {
		if name == "" || seen[name] || strings.EqualFold(name, input) {
			continue
		}
		seen[name] = true
		if d := Distance(input, name); d <= limit {
			matches = append(matches, match{name: name, distance: d})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].distance != matches[j].distance {
			return matches[i].distance < matches[j].distance
		}
		return matches[i].name < matches[j].name
	})

	if len(matches) > MaxSuggestions {
		matches = matches[:MaxSuggestions]
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m.name)
	}
	return names
}

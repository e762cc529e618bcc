package services

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	keywordTrim   = `.,!?:;"()`
	minKeywordLen = 4
)

// ExtractKeywords returns the distinct lowercase words of at least four
// characters, edge punctuation stripped, sorted.
func ExtractKeywords(text string) []string {
	lower := cases.Lower(language.Und)
	seen := make(map[string]struct{})
	for _, word := range strings.Fields(text) {
		w := strings.Trim(word, keywordTrim)
		if utf8.RuneCountInString(w) < minKeywordLen {
			continue
		}
		seen[lower.String(w)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for w := range seen {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

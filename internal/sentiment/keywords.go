package sentiment

import (
	"sort"
	"strings"
	"unicode"
)

// maxKeywords bounds the extracted keyword list.
const maxKeywords = 10

var stopWords = map[string]bool{
	"this": true, "that": true, "with": true, "from": true, "have": true,
	"will": true, "been": true, "were": true, "they": true, "their": true,
	"about": true, "would": true, "could": true, "should": true, "there": true,
	"what": true, "when": true, "then": true, "than": true, "them": true,
	"your": true, "just": true, "like": true, "into": true, "over": true,
	"more": true, "some": true, "only": true, "very": true, "also": true,
}

// ExtractKeywords returns up to maxKeywords words of length > 3 from
// the combined texts, most frequent first, ties broken by first
// appearance. Matching is case-insensitive; stop-words are skipped.
func ExtractKeywords(texts []string) []string {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	order := 0

	for _, text := range texts {
		words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		for _, word := range words {
			if len(word) <= 3 || stopWords[word] {
				continue
			}
			if _, seen := counts[word]; !seen {
				firstSeen[word] = order
				order++
			}
			counts[word]++
		}
	}

	keywords := make([]string, 0, len(counts))
	for word := range counts {
		keywords = append(keywords, word)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if counts[keywords[i]] != counts[keywords[j]] {
			return counts[keywords[i]] > counts[keywords[j]]
		}
		return firstSeen[keywords[i]] < firstSeen[keywords[j]]
	})

	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}
	return keywords
}

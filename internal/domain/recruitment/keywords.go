package recruitment

import (
	"sort"
	"strings"
)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "and": true, "in": true,
	"for": true, "on": true, "at": true, "by": true, "to": true, "with": true,
}

// ExtractKeywords lowercases the description and keeps words longer than
// three characters that are not stop words. Repeats are kept.
func ExtractKeywords(description string) []string {
	var out []string
	for _, word := range strings.Fields(strings.ToLower(description)) {
		if len(word) > 3 && !stopWords[word] {
			out = append(out, word)
		}
	}
	return out
}

// Rank scores each application by how many keywords its CV text contains and
// orders them best first. Ties keep their input order.
func Rank(description string, applications []Application) []RankedApplicant {
	keywords := ExtractKeywords(description)
	ranked := make([]RankedApplicant, len(applications))
	for i, app := range applications {
		cv := strings.ToLower(app.ParsedCVContent)
		count := 0
		for _, kw := range keywords {
			if strings.Contains(cv, kw) {
				count++
			}
		}
		ranked[i] = RankedApplicant{Application: app, MatchCount: count}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].MatchCount > ranked[j].MatchCount
	})
	return ranked
}

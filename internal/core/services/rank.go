package services

import (
	"regexp"
	"sort"
	"strings"
)

// Regulatory orders bury approved figures in dense tables; retrieval
// quality depends on favouring numerically rich, table-like snippets.
var (
	moneyPattern   = regexp.MustCompile(`\$\d+(?:\.\d+)?[MBK]?`)
	percentPattern = regexp.MustCompile(`\d+%+`)
	numberPattern  = regexp.MustCompile(`\d+`)
	wordPattern    = regexp.MustCompile(`\b[a-zA-Z0-9]+\b`)
)

// stopwords are dropped when expanding a question into retrieval queries.
var stopwords = map[string]struct{}{
	"the": {}, "is": {}, "for": {}, "and": {}, "as": {}, "of": {},
	"to": {}, "in": {}, "on": {}, "by": {}, "with": {}, "a": {},
	"an": {}, "what": {},
}

// scoreNumericRichness weights money values over percentages over bare
// numbers.
func scoreNumericRichness(text string) int {
	return 5*len(moneyPattern.FindAllString(text, -1)) +
		3*len(percentPattern.FindAllString(text, -1)) +
		len(numberPattern.FindAllString(text, -1))
}

// scoreTableRelevance adds a flat bonus for table-like snippets on top of
// numeric richness.
func scoreTableRelevance(text string) int {
	score := scoreNumericRichness(text)
	if strings.Contains(strings.ToLower(text), "table") {
		score += 3
	}
	return score
}

// QueryExpansion configures how a question is expanded into retrieval
// queries.
type QueryExpansion struct {
	// MustInclude is appended to every expanded query, e.g. "approved".
	MustInclude string

	// Exclude terms are negated in every expanded query, e.g. "proposed".
	Exclude []string
}

// expandQuery turns a question into a set of retrieval queries: the
// stopword-filtered keyword n-grams (1 to 3) plus the question itself.
// Output order is deterministic.
func expandQuery(question string, exp QueryExpansion) []string {
	var keywords []string
	for _, word := range wordPattern.FindAllString(strings.ToLower(question), -1) {
		if _, skip := stopwords[word]; !skip {
			keywords = append(keywords, word)
		}
	}

	seen := map[string]struct{}{question: {}}
	for n := 1; n <= 3; n++ {
		for i := 0; i+n <= len(keywords); i++ {
			seen[strings.Join(keywords[i:i+n], " ")] = struct{}{}
		}
	}

	queries := make([]string, 0, len(seen))
	for q := range seen {
		if exp.MustInclude != "" {
			q = q + " " + exp.MustInclude
		}
		for _, kw := range exp.Exclude {
			q = q + " NOT " + kw
		}
		queries = append(queries, q)
	}
	sort.Strings(queries)
	return queries
}

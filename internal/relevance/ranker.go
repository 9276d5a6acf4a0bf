// Package relevance scores and ranks free-text documents against a query.
// Scoring is a simple substring keyword count: cheap, deterministic, and
// good enough to pick the handful of documents worth quoting back.
package relevance

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// maxMatches caps how many documents a search returns.
	maxMatches = 3

	// maxExcerptParagraphs caps how many matching paragraphs go into an excerpt.
	maxExcerptParagraphs = 3

	// maxExcerptLen caps excerpt length in bytes, truncation marker included.
	maxExcerptLen = 500
)

// truncationMarker is appended when an excerpt is cut.
const truncationMarker = "..."

// Document is a corpus entry to rank.
type Document struct {
	ID      string
	Content string
}

// Match is one ranked search result. Score is the total number of
// whitespace-delimited content tokens containing any query term as a
// substring. Recomputed per query, never persisted.
type Match struct {
	SourceID string
	Score    int
	Excerpt  string
}

// NoMatchError reports that no document in the corpus scored above zero.
// It is distinct from an empty result list so callers can echo the query
// back to the user.
type NoMatchError struct {
	Query string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no documents matched query %q", e.Query)
}

// Ranker ranks documents against queries. Stateless and safe for
// concurrent use.
type Ranker struct{}

// NewRanker creates a ranker.
func NewRanker() *Ranker {
	return &Ranker{}
}

// Search scores every document against the query and returns up to three
// matches ordered by descending score. Ties keep corpus enumeration order.
// Returns *NoMatchError when nothing scores above zero.
func (r *Ranker) Search(query string, corpus []Document) ([]Match, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, &NoMatchError{Query: query}
	}

	var matches []Match
	for _, doc := range corpus {
		score := scoreDocument(terms, doc.Content)
		if score == 0 {
			continue
		}
		matches = append(matches, Match{
			SourceID: doc.ID,
			Score:    score,
			Excerpt:  buildExcerpt(terms, doc.Content),
		})
	}

	if len(matches) == 0 {
		return nil, &NoMatchError{Query: query}
	}

	// Stable sort preserves corpus order between equal scores.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > maxMatches {
		matches = matches[:maxMatches]
	}
	return matches, nil
}

// scoreDocument counts content tokens that contain any query term as a
// substring. A token containing two different terms counts once per term,
// so the score is monotonic in term occurrences.
func scoreDocument(terms []string, content string) int {
	tokens := strings.Fields(strings.ToLower(content))
	score := 0
	for _, term := range terms {
		for _, token := range tokens {
			if strings.Contains(token, term) {
				score++
			}
		}
	}
	return score
}

// buildExcerpt joins up to three paragraphs containing any query term,
// truncated to maxExcerptLen.
func buildExcerpt(terms []string, content string) string {
	paragraphs := splitParagraphs(content)

	var kept []string
	for _, p := range paragraphs {
		if len(kept) >= maxExcerptParagraphs {
			break
		}
		lower := strings.ToLower(p)
		for _, term := range terms {
			if strings.Contains(lower, term) {
				kept = append(kept, p)
				break
			}
		}
	}

	excerpt := strings.Join(kept, "\n\n")
	if len(excerpt) > maxExcerptLen {
		cut := maxExcerptLen - len(truncationMarker)
		// Back up to a rune boundary so the cut never splits a multi-byte
		// character.
		for cut > 0 && !utf8.RuneStart(excerpt[cut]) {
			cut--
		}
		excerpt = excerpt[:cut] + truncationMarker
	}
	return excerpt
}

// splitParagraphs splits content on blank-line boundaries.
func splitParagraphs(content string) []string {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	parts := strings.Split(normalized, "\n\n")

	var paragraphs []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

package tools

import (
	"context"
	"fmt"
	"strings"

	"datapilot/internal/docs"
	"datapilot/internal/relevance"
)

// DocsTool searches the text corpus with the relevance ranker.
type DocsTool struct {
	corpus *docs.Corpus
	ranker *relevance.Ranker
}

// NewDocsTool creates the document search tool.
func NewDocsTool(corpus *docs.Corpus, ranker *relevance.Ranker) *DocsTool {
	return &DocsTool{corpus: corpus, ranker: ranker}
}

func (t *DocsTool) Name() Name { return DocumentSearch }

func (t *DocsTool) Describe() string {
	return "Search the local text documents for passages relevant to the query"
}

// Validate rejects empty queries.
func (t *DocsTool) Validate(input string) error {
	if strings.TrimSpace(input) == "" {
		return ErrEmptyInput
	}
	return nil
}

// Execute ranks the corpus against the query. A corpus with no matching
// document surfaces *relevance.NoMatchError unchanged so callers can report
// it distinctly from an empty formatted answer.
func (t *DocsTool) Execute(ctx context.Context, input string) (*Result, error) {
	if err := t.Validate(input); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matches, err := t.ranker.Search(input, t.corpus.Documents())
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	for i, m := range matches {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%s] (score %d)\n%s", m.SourceID, m.Score, m.Excerpt)
	}
	return &Result{Output: b.String()}, nil
}

// Package router maps a user query to a tool selection and proposes the
// tool input. An external LLM classifier is consulted for both when
// available; otherwise (or when it is unreachable) a deterministic keyword
// fallback decides. The router never executes anything; proposals it cannot
// vet are replaced by the deterministic synthesis, never passed through.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"datapilot/internal/llm"
	"datapilot/internal/tools"
)

// Selection is the routing decision for one query. Immutable once produced.
type Selection struct {
	Tool      tools.Name
	Reasoning string
}

// ParseError reports malformed structured classifier output. It is a
// distinct type so callers can branch on it without string matching.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse classifier output: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// keywordRule is one fallback routing rule. Rules are evaluated in order;
// the first keyword found as a substring of the lower-cased query wins.
type keywordRule struct {
	tool     tools.Name
	keywords []string
	reason   string
}

// fallbackRules is the ordered fallback routing table. Substring match, not
// word-boundary-aware, so "datetime" still routes to command execution.
var fallbackRules = []keywordRule{
	{
		tool:     tools.CommandExecution,
		keywords: []string{"time", "date", "clock", "today", "now"},
		reason:   "query mentions time or date",
	},
	{
		tool:     tools.SQLQuery,
		keywords: []string{"music", "artist", "album", "song", "track", "band", "sales", "invoice", "customer", "genre"},
		reason:   "query mentions the music catalog",
	},
	{
		tool:     tools.DocumentSearch,
		keywords: []string{"econom", "capital", "market", "wealth", "trade", "book", "document", "text"},
		reason:   "query mentions economics or documents",
	},
}

const classifyPromptTemplate = `You route user questions to exactly one tool.

Available tools:
%s
Reply with a single JSON object and nothing else:
{"tool_name": "<one of the tool names>", "reasoning": "<one sentence>"}`

const proposeSQLPrompt = `You write one read-only SQLite SELECT statement answering the user's question.

Schema:
  artists(ArtistId INTEGER PRIMARY KEY, Name TEXT)
  albums(AlbumId INTEGER PRIMARY KEY, Title TEXT, ArtistId INTEGER REFERENCES artists)

Reply with the SELECT statement only. No explanation, no trailing semicolon.`

const proposeCommandPrompt = `You propose one read-only shell command answering the user's question.

Reply with a single JSON object and nothing else:
{"command": "<the shell command>", "description": "<one sentence>"}`

// Router decides which tool handles a query and proposes the tool input.
type Router struct {
	classifier llm.Client // nil means fallback-only
	registry   *tools.Registry
	logger     *zap.Logger
}

// New creates a router. classifier may be nil.
func New(classifier llm.Client, registry *tools.Registry, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{classifier: classifier, registry: registry, logger: logger}
}

// Route selects a tool for the query. Classifier transport failures fall
// back to the deterministic table and never fail the query; malformed
// classifier output is a *ParseError.
func (r *Router) Route(ctx context.Context, query string) (Selection, error) {
	if r.classifier == nil {
		return r.routeFallback(query), nil
	}

	prompt := fmt.Sprintf(classifyPromptTemplate, r.registry.Menu())
	raw, err := r.classifier.CompleteWithSystem(ctx, prompt, query)
	if err != nil {
		if errors.Is(err, llm.ErrUnavailable) {
			r.logger.Warn("classifier unavailable, using fallback routing", zap.Error(err))
			return r.routeFallback(query), nil
		}
		return Selection{}, err
	}

	return parseSelection(raw)
}

// parseSelection decodes strict {tool_name, reasoning} JSON, tolerating
// markdown code fences around it.
func parseSelection(raw string) (Selection, error) {
	cleaned := stripCodeFence(raw)

	var parsed struct {
		ToolName  string `json:"tool_name"`
		Reasoning string `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return Selection{}, &ParseError{Raw: raw, Err: err}
	}

	name, err := tools.ParseName(parsed.ToolName)
	if err != nil {
		return Selection{}, &ParseError{Raw: raw, Err: err}
	}

	return Selection{Tool: name, Reasoning: parsed.Reasoning}, nil
}

// stripCodeFence removes a surrounding markdown code fence, if present.
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// routeFallback applies the ordered keyword table. Default is document
// search.
func (r *Router) routeFallback(query string) Selection {
	lowered := strings.ToLower(query)

	for _, rule := range fallbackRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowered, kw) {
				return Selection{Tool: rule.tool, Reasoning: rule.reason}
			}
		}
	}

	return Selection{Tool: tools.DocumentSearch, Reasoning: "no routing keyword matched; defaulting to document search"}
}

// ProposeInput derives the tool input for a selection. With a classifier
// configured, it is asked to propose the input for the selected tool; a
// proposal that fails the tool's own validation, or any classifier failure,
// falls back to the deterministic synthesizer so the query still gets an
// answer. Document search always takes the raw query unchanged.
func (r *Router) ProposeInput(ctx context.Context, sel Selection, query string) string {
	if sel.Tool == tools.DocumentSearch {
		return query
	}
	if r.classifier == nil {
		return r.synthesizeInput(sel, query)
	}

	input, err := r.proposeWithClassifier(ctx, sel, query)
	if err != nil {
		r.logger.Warn("tool input proposal unusable, synthesizing deterministically",
			zap.String("tool", string(sel.Tool)),
			zap.Error(err))
		return r.synthesizeInput(sel, query)
	}
	return input
}

// proposeWithClassifier asks the classifier for a tool input and vets the
// proposal through the tool's Validate before anything downstream sees it.
func (r *Router) proposeWithClassifier(ctx context.Context, sel Selection, query string) (string, error) {
	var prompt string
	switch sel.Tool {
	case tools.SQLQuery:
		prompt = proposeSQLPrompt
	case tools.CommandExecution:
		prompt = proposeCommandPrompt
	default:
		return query, nil
	}

	raw, err := r.classifier.CompleteWithSystem(ctx, prompt, query)
	if err != nil {
		return "", err
	}

	proposed := stripCodeFence(raw)
	if proposed == "" {
		return "", fmt.Errorf("empty tool input proposal")
	}

	if tool, ok := r.registry.Get(sel.Tool); ok {
		if err := tool.Validate(proposed); err != nil {
			return "", fmt.Errorf("proposed input rejected: %w", err)
		}
	}
	return proposed, nil
}

// synthesizeInput derives the tool input without any external call.
// Deterministic: the same query always yields the same input.
func (r *Router) synthesizeInput(sel Selection, query string) string {
	switch sel.Tool {
	case tools.CommandExecution:
		// Without a more specific recognized intent, always propose the
		// date inspection command.
		return tools.CommandInput{
			Command:     "date",
			Description: "Show the current date and time",
		}.Encode()

	case tools.SQLQuery:
		return proposeSQL(query)

	default:
		// Document search takes the raw query unchanged.
		return query
	}
}

// proposeSQL picks one of a small fixed set of read-only statements.
func proposeSQL(query string) string {
	lowered := strings.ToLower(query)

	switch {
	case strings.Contains(lowered, "how many"):
		if strings.Contains(lowered, "album") {
			return "SELECT COUNT(*) AS count FROM albums"
		}
		return "SELECT COUNT(*) AS count FROM artists"
	case strings.Contains(lowered, "artist"):
		return "SELECT Name FROM artists ORDER BY ArtistId LIMIT 10"
	case strings.Contains(lowered, "album"):
		return "SELECT Title FROM albums ORDER BY AlbumId LIMIT 10"
	default:
		return "SELECT Name FROM artists ORDER BY ArtistId LIMIT 5"
	}
}

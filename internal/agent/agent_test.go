package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"datapilot/internal/approval"
	"datapilot/internal/docs"
	"datapilot/internal/llm"
	"datapilot/internal/relevance"
	"datapilot/internal/router"
	"datapilot/internal/safety"
	"datapilot/internal/sqltool"
	"datapilot/internal/tools"
)

// scriptedClient replays canned completions in call order.
type scriptedClient struct {
	responses []string
	calls     int
}

func (c *scriptedClient) next() (string, error) {
	if c.calls >= len(c.responses) {
		return "", fmt.Errorf("no scripted response for call %d", c.calls+1)
	}
	r := c.responses[c.calls]
	c.calls++
	return r, nil
}

func (c *scriptedClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.next()
}

func (c *scriptedClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.next()
}

// newTestAgent wires a full pipeline with the fallback router and no LLM.
func newTestAgent(t *testing.T) *Agent {
	t.Helper()
	return newTestAgentWithClient(t, nil)
}

func newTestAgentWithClient(t *testing.T, client llm.Client) *Agent {
	t.Helper()

	executor, err := sqltool.OpenLocal(filepath.Join(t.TempDir(), "music.db"), nil)
	if err != nil {
		t.Fatalf("OpenLocal failed: %v", err)
	}
	t.Cleanup(func() { executor.Close() })

	docsDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(docsDir, "wealth.txt"),
		[]byte("Capitalism organizes production through markets.\n\nTrade expands wealth."), 0644); err != nil {
		t.Fatal(err)
	}
	corpus, err := docs.NewCorpus(docsDir, nil)
	if err != nil {
		t.Fatalf("NewCorpus failed: %v", err)
	}

	store := approval.NewStore(approval.NewExecutor(), nil)
	registry := tools.NewRegistry(
		tools.NewSQLTool(executor),
		tools.NewDocsTool(corpus, relevance.NewRanker()),
		tools.NewCommandTool(safety.NewValidator(), store),
	)

	return New(router.New(client, registry, nil), registry, store, client, nil)
}

func TestHandleQueryClassifierProposesSQL(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"tool_name": "sql_query", "reasoning": "asks about the catalog"}`,
		"SELECT Name FROM artists WHERE ArtistId = 2",
		"The second artist in the catalog is Accept.",
	}}
	a := newTestAgentWithClient(t, client)

	resp := a.HandleQuery(context.Background(), "who is the second artist in the catalog")
	if resp.Approval != nil {
		t.Fatal("SQL query should not request approval")
	}
	if resp.Text != "The second artist in the catalog is Accept." {
		t.Errorf("response = %q, want the synthesized answer", resp.Text)
	}
	if client.calls != 3 {
		t.Errorf("llm consulted %d times, want 3 (classify, propose input, synthesize)", client.calls)
	}
}

func TestHandleQueryClassifierProposesCommand(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"tool_name": "command_execution", "reasoning": "host question"}`,
		`{"command": "uptime", "description": "Show how long the host has been running"}`,
	}}
	a := newTestAgentWithClient(t, client)

	resp := a.HandleQuery(context.Background(), "how long has this machine been running")
	if resp.Approval == nil {
		t.Fatal("command query should request approval")
	}
	if resp.Approval.Command != "uptime" {
		t.Errorf("proposed command = %q, want the classifier's uptime proposal", resp.Approval.Command)
	}
}

func TestHandleQuerySQL(t *testing.T) {
	a := newTestAgent(t)

	resp := a.HandleQuery(context.Background(), "how many artists are there")
	if resp.Approval != nil {
		t.Fatal("SQL query should not request approval")
	}
	if !strings.Contains(resp.Text, "count") {
		t.Errorf("response %q missing count column", resp.Text)
	}
}

func TestHandleQueryDocumentSearch(t *testing.T) {
	a := newTestAgent(t)

	resp := a.HandleQuery(context.Background(), "what is capitalism")
	if resp.Approval != nil {
		t.Fatal("document search should not request approval")
	}
	if !strings.Contains(resp.Text, "wealth.txt") {
		t.Errorf("response %q does not cite the matching document", resp.Text)
	}
}

func TestHandleQueryNoDocumentMatches(t *testing.T) {
	a := newTestAgent(t)

	resp := a.HandleQuery(context.Background(), "zebra migration patterns")
	if !strings.Contains(resp.Text, "No documents matched") {
		t.Errorf("response %q is not the no-results signal", resp.Text)
	}
	if !strings.Contains(resp.Text, "zebra migration patterns") {
		t.Errorf("response %q does not echo the query", resp.Text)
	}
}

func TestHandleQueryCommandRequiresApproval(t *testing.T) {
	a := newTestAgent(t)

	resp := a.HandleQuery(context.Background(), "what time is it")
	if resp.Approval == nil {
		t.Fatal("time query should request approval")
	}
	if resp.Approval.Command != "date" {
		t.Errorf("proposed command = %q, want date", resp.Approval.Command)
	}
	if resp.Approval.CommandID == "" {
		t.Error("approval request missing command id")
	}

	pending := a.Pending()
	if len(pending) != 1 || pending[0].ID != resp.Approval.CommandID {
		t.Errorf("pending store contents = %+v", pending)
	}
}

func TestApproveRunsCommand(t *testing.T) {
	a := newTestAgent(t)

	resp := a.HandleQuery(context.Background(), "what time is it")
	if resp.Approval == nil {
		t.Fatal("expected approval request")
	}

	result, err := a.Approve(context.Background(), resp.Approval.CommandID)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if !result.Success {
		t.Errorf("result = %+v, want success", result)
	}
	if result.Output == "" {
		t.Error("date produced no output")
	}
	if len(a.Pending()) != 0 {
		t.Error("entry still pending after approval")
	}
}

func TestApproveUnknownID(t *testing.T) {
	a := newTestAgent(t)

	_, err := a.Approve(context.Background(), "unknown-id")
	if !errors.Is(err, approval.ErrNotFound) {
		t.Errorf("got error %v, want ErrNotFound", err)
	}
}

func TestRejectThenApprove(t *testing.T) {
	a := newTestAgent(t)

	resp := a.HandleQuery(context.Background(), "what time is it")
	if resp.Approval == nil {
		t.Fatal("expected approval request")
	}
	id := resp.Approval.CommandID

	rejected, err := a.Reject(id)
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if rejected.CommandID != id || rejected.Command != "date" {
		t.Errorf("rejection record = %+v", rejected)
	}

	if _, err := a.Approve(context.Background(), id); !errors.Is(err, approval.ErrNotFound) {
		t.Errorf("approve after reject: got %v, want ErrNotFound", err)
	}
}

func TestHandleQueryDefaultRoute(t *testing.T) {
	a := newTestAgent(t)

	// No routing keyword; defaults to document search, which matches nothing.
	resp := a.HandleQuery(context.Background(), "hello there")
	if resp.Approval != nil {
		t.Error("default route must not propose a command")
	}
	if resp.Text == "" {
		t.Error("pipeline returned empty response")
	}
}

func TestDescribeErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "validation denied",
			err:  &tools.DeniedError{Command: "rm -rf /", Reason: "blocked: destructive delete"},
			want: "safety policy",
		},
		{
			name: "no document match",
			err:  &relevance.NoMatchError{Query: "quarks"},
			want: `No documents matched "quarks"`,
		},
		{
			name: "classifier parse failure",
			err:  &router.ParseError{Raw: "gibberish", Err: errors.New("invalid json")},
			want: "could not parse",
		},
		{
			name: "malformed tool input",
			err:  &tools.InputError{Input: "{", Err: errors.New("unexpected end")},
			want: "malformed",
		},
		{
			name: "unclassified error",
			err:  fmt.Errorf("disk on fire"),
			want: "disk on fire",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := describeError(tt.err, "some query")
			if !strings.Contains(got, tt.want) {
				t.Errorf("describeError = %q, want substring %q", got, tt.want)
			}
		})
	}
}

func TestSessionIDsDiffer(t *testing.T) {
	a := newTestAgent(t)
	b := newTestAgent(t)

	if a.SessionID() == "" || a.SessionID() == b.SessionID() {
		t.Errorf("session ids %q and %q should be distinct and non-empty", a.SessionID(), b.SessionID())
	}
}

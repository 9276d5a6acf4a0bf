// Package agent sequences the query pipeline: classify the query, propose
// a tool input, dispatch to the selected tool, and synthesize a response.
// Commands never run from this path; they park in the approval store and
// run only through Approve.
//
// Every failure becomes a user-facing message. The pipeline always answers.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"datapilot/internal/approval"
	"datapilot/internal/llm"
	"datapilot/internal/relevance"
	"datapilot/internal/router"
	"datapilot/internal/tools"
)

// ApprovalRequest asks the human to confirm a pending command.
type ApprovalRequest struct {
	CommandID   string `json:"commandId"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Message     string `json:"message"`
}

// CommandResult reports the outcome of an approved command.
type CommandResult struct {
	Success  bool     `json:"success"`
	Command  string   `json:"command"`
	Output   string   `json:"output,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// CommandRejected confirms a rejection back to the user.
type CommandRejected struct {
	CommandID string `json:"commandId"`
	Command   string `json:"command"`
}

// Response is the agent's answer to one query.
type Response struct {
	// Text is the user-facing answer or error description.
	Text string

	// Approval is set when the query produced a command that now waits
	// for a human decision.
	Approval *ApprovalRequest
}

// Agent owns one conversational session. Queries are serialized per agent;
// the approval store may be shared between agents.
type Agent struct {
	sessionID string
	router    *router.Router
	registry  *tools.Registry
	approvals *approval.Store
	llm       llm.Client // optional, used for synthesis
	logger    *zap.Logger

	mu sync.Mutex
}

// New creates an agent. llmClient may be nil; responses then use the
// deterministic formatting paths.
func New(r *router.Router, registry *tools.Registry, approvals *approval.Store, llmClient llm.Client, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	sessionID := uuid.NewString()
	return &Agent{
		sessionID: sessionID,
		router:    r,
		registry:  registry,
		approvals: approvals,
		llm:       llmClient,
		logger:    logger.With(zap.String("session", sessionID)),
	}
}

// SessionID returns the correlation id for this session.
func (a *Agent) SessionID() string { return a.sessionID }

// HandleQuery runs the full pipeline for one query. It never returns an
// error; failures are described in the response text.
func (a *Agent) HandleQuery(ctx context.Context, query string) *Response {
	a.mu.Lock()
	defer a.mu.Unlock()

	sel, err := a.router.Route(ctx, query)
	if err != nil {
		a.logger.Warn("routing failed", zap.Error(err))
		return &Response{Text: describeError(err, query)}
	}

	a.logger.Info("query routed",
		zap.String("tool", string(sel.Tool)),
		zap.String("reasoning", sel.Reasoning))

	tool, ok := a.registry.Get(sel.Tool)
	if !ok {
		return &Response{Text: fmt.Sprintf("The %s tool is not available in this session.", sel.Tool)}
	}

	input := a.router.ProposeInput(ctx, sel, query)

	result, err := tool.Execute(ctx, input)
	if err != nil {
		a.logger.Warn("tool execution failed",
			zap.String("tool", string(sel.Tool)),
			zap.Error(err))
		return &Response{Text: describeError(err, query)}
	}

	if result.Pending != nil {
		req := &ApprovalRequest{
			CommandID:   result.Pending.ID,
			Command:     result.Pending.Command,
			Description: result.Pending.Description,
			Message: fmt.Sprintf("Command %q requires approval before it runs. Approve id %s to execute or reject it to discard.",
				result.Pending.Command, result.Pending.ID),
		}
		return &Response{Text: req.Message, Approval: req}
	}

	return &Response{Text: a.synthesize(ctx, query, sel.Tool, result.Output)}
}

// Pending lists commands awaiting a decision, oldest first.
func (a *Agent) Pending() []approval.PendingCommand {
	return a.approvals.List()
}

// Approve executes a pending command. Unknown or already-resolved ids
// return approval.ErrNotFound; execution failures are folded into the
// result with any partial output preserved.
func (a *Agent) Approve(ctx context.Context, id string) (*CommandResult, error) {
	result, err := a.approvals.Approve(ctx, id)
	if err != nil {
		var execErr *approval.ExecutionError
		if errors.As(err, &execErr) {
			return &CommandResult{
				Success: false,
				Command: execErr.Command,
				Output:  combineStreams(execErr.Stdout, execErr.Stderr),
				Error:   execErr.Reason,
			}, nil
		}
		return nil, err
	}

	return &CommandResult{
		Success:  true,
		Command:  result.Command,
		Output:   combineStreams(result.Stdout, result.Stderr),
		Warnings: result.Warnings,
	}, nil
}

// Reject discards a pending command. Unknown or already-resolved ids
// return approval.ErrNotFound.
func (a *Agent) Reject(id string) (*CommandRejected, error) {
	rec, err := a.approvals.Reject(id)
	if err != nil {
		return nil, err
	}
	return &CommandRejected{CommandID: rec.ID, Command: rec.Command}, nil
}

// synthesize phrases the tool output as an answer. With no LLM, or when it
// is unreachable, the raw tool output is the answer.
func (a *Agent) synthesize(ctx context.Context, query string, tool tools.Name, output string) string {
	if output == "" {
		output = "(no output)"
	}
	if a.llm == nil {
		return output
	}

	prompt := fmt.Sprintf(
		"The user asked: %s\nThe %s tool returned:\n%s\n\nAnswer the user's question in one or two sentences using only this data.",
		query, tool, output)

	answer, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		a.logger.Warn("synthesis failed, returning raw tool output", zap.Error(err))
		return output
	}
	return answer
}

// describeError converts pipeline errors into user-facing text.
func describeError(err error, query string) string {
	var denied *tools.DeniedError
	if errors.As(err, &denied) {
		return fmt.Sprintf("That command was blocked by the safety policy (%s). Try rephrasing the request.", denied.Reason)
	}

	var noMatch *relevance.NoMatchError
	if errors.As(err, &noMatch) {
		return fmt.Sprintf("No documents matched %q. Try different terms.", noMatch.Query)
	}

	var parseErr *router.ParseError
	if errors.As(err, &parseErr) {
		return "The classifier returned output I could not parse. Please try again."
	}

	var inputErr *tools.InputError
	if errors.As(err, &inputErr) {
		return "The proposed tool input was malformed. Please try again."
	}

	return fmt.Sprintf("Something went wrong answering %q: %v", query, err)
}

// combineStreams merges captured stdout and stderr for display.
func combineStreams(stdout, stderr string) string {
	if stderr == "" {
		return stdout
	}
	if stdout == "" {
		return stderr
	}
	return stdout + "\n--- stderr ---\n" + stderr
}

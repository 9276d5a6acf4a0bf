// Package tools defines the closed set of data-access tools the agent can
// dispatch a query to. Dispatch goes through the Tool interface keyed by the
// Name enum; there is no runtime string-keyed behavior lookup.
package tools

import (
	"context"
	"errors"
	"fmt"

	"datapilot/internal/approval"
)

// Name identifies a tool. The set is closed: adding a tool means adding a
// constant here and an implementation wired into the registry.
type Name string

const (
	// SQLQuery answers questions from the local relational database.
	SQLQuery Name = "sql_query"

	// DocumentSearch ranks the text corpus against the query.
	DocumentSearch Name = "document_search"

	// CommandExecution proposes a shell command, gated behind approval.
	CommandExecution Name = "command_execution"
)

// All lists every tool name, in menu order for the classifier.
func All() []Name {
	return []Name{SQLQuery, DocumentSearch, CommandExecution}
}

// ParseName validates a classifier-provided tool name against the closed set.
func ParseName(s string) (Name, error) {
	switch Name(s) {
	case SQLQuery, DocumentSearch, CommandExecution:
		return Name(s), nil
	}
	return "", fmt.Errorf("unknown tool name %q", s)
}

// ErrEmptyInput is returned when a tool is invoked without input.
var ErrEmptyInput = errors.New("tool input is empty")

// DeniedError reports that the command validator blocked a proposed command.
// Not retryable; the user has to rephrase.
type DeniedError struct {
	Command string
	Reason  string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("command %q denied: %s", e.Command, e.Reason)
}

// InputError reports malformed structured tool input.
type InputError struct {
	Input string
	Err   error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("malformed tool input: %v", e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// Result is the outcome of one tool execution.
type Result struct {
	// Output is the tool's textual output. Empty while an approval is pending.
	Output string

	// Pending is set when the tool parked a command in the approval store
	// instead of producing output.
	Pending *approval.PendingCommand
}

// Tool is the capability interface every tool implements.
type Tool interface {
	// Name returns the tool's enum identity.
	Name() Name

	// Describe explains the tool for classifier menus and help output.
	Describe() string

	// Validate checks the proposed input without side effects.
	Validate(input string) error

	// Execute runs the tool. The command tool never runs anything here; it
	// validates and parks the command for approval.
	Execute(ctx context.Context, input string) (*Result, error)
}

// Registry maps the closed enum to implementations. Built once at startup;
// read-only afterwards.
type Registry struct {
	tools map[Name]Tool
}

// NewRegistry builds a registry from the given tools.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[Name]Tool, len(tools))}
	for _, t := range tools {
		r.tools[t.Name()] = t
	}
	return r
}

// Get returns the implementation for name.
func (r *Registry) Get(name Name) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Menu renders the tool menu for classifier prompts.
func (r *Registry) Menu() string {
	out := ""
	for _, name := range All() {
		if t, ok := r.tools[name]; ok {
			out += fmt.Sprintf("- %s: %s\n", name, t.Describe())
		}
	}
	return out
}

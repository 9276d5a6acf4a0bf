package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"datapilot/internal/approval"
	"datapilot/internal/safety"
)

// CommandInput is the structured input for the command execution tool.
type CommandInput struct {
	Command     string `json:"command"`
	Description string `json:"description"`
}

// Encode renders a CommandInput as the tool's wire form.
func (in CommandInput) Encode() string {
	data, _ := json.Marshal(in)
	return string(data)
}

// CommandTool validates proposed shell commands and parks them in the
// approval store. It never executes anything itself; execution happens only
// through Store.Approve after a human decision.
type CommandTool struct {
	validator *safety.Validator
	store     *approval.Store
}

// NewCommandTool creates the command execution tool.
func NewCommandTool(validator *safety.Validator, store *approval.Store) *CommandTool {
	return &CommandTool{validator: validator, store: store}
}

func (t *CommandTool) Name() Name { return CommandExecution }

func (t *CommandTool) Describe() string {
	return "Propose a read-only shell command; it runs only after explicit approval"
}

// parseInput decodes the structured tool input.
func parseInput(input string) (CommandInput, error) {
	if strings.TrimSpace(input) == "" {
		return CommandInput{}, ErrEmptyInput
	}

	var in CommandInput
	if err := json.Unmarshal([]byte(input), &in); err != nil {
		return CommandInput{}, &InputError{Input: input, Err: err}
	}
	if strings.TrimSpace(in.Command) == "" {
		return CommandInput{}, &InputError{Input: input, Err: fmt.Errorf("command field is empty")}
	}
	return in, nil
}

// Validate parses the input and runs the command validator.
func (t *CommandTool) Validate(input string) error {
	in, err := parseInput(input)
	if err != nil {
		return err
	}

	if outcome := t.validator.Validate(in.Command); !outcome.Allowed {
		return &DeniedError{Command: in.Command, Reason: outcome.Reason}
	}
	return nil
}

// Execute validates the command and submits it for approval. The result
// carries the pending entry, never command output.
func (t *CommandTool) Execute(ctx context.Context, input string) (*Result, error) {
	in, err := parseInput(input)
	if err != nil {
		return nil, err
	}

	if outcome := t.validator.Validate(in.Command); !outcome.Allowed {
		return nil, &DeniedError{Command: in.Command, Reason: outcome.Reason}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := t.store.Submit(in.Command, in.Description)
	return &Result{
		Pending: &approval.PendingCommand{
			ID:          id,
			Command:     in.Command,
			Description: in.Description,
		},
	}, nil
}

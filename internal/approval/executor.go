package approval

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"
)

const (
	// DefaultTimeout bounds the wall-clock time of an approved command.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxCaptureBytes bounds captured output per stream.
	DefaultMaxCaptureBytes = 1 << 20 // 1 MiB
)

// ExecutionResult carries the captured output of an approved command.
type ExecutionResult struct {
	Command  string
	Stdout   string
	Stderr   string
	Warnings []string
}

// ExecutionError reports a failed execution. Partial output captured before
// the failure is preserved so it can be surfaced to the user.
type ExecutionError struct {
	Command  string
	Reason   string
	Stdout   string
	Stderr   string
	TimedOut bool
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("command %q failed: %s", e.Command, e.Reason)
}

// cappedBuffer collects writes up to a fixed ceiling and discards the rest.
// exec.Cmd keeps writing; we just stop keeping it.
type cappedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	remaining := b.limit - b.buf.Len()
	if remaining <= 0 {
		b.truncated = true
		return len(p), nil
	}
	if len(p) > remaining {
		b.buf.Write(p[:remaining])
		b.truncated = true
		return len(p), nil
	}
	b.buf.Write(p)
	return len(p), nil
}

// Executor runs shell commands in a bounded subprocess environment: fixed
// wall-clock timeout, fixed output-capture ceiling per stream. No retries.
type Executor struct {
	timeout  time.Duration
	maxBytes int
}

// NewExecutor creates an executor with the default bounds.
func NewExecutor() *Executor {
	return &Executor{timeout: DefaultTimeout, maxBytes: DefaultMaxCaptureBytes}
}

// NewExecutorWithLimits creates an executor with custom bounds. Zero values
// fall back to the defaults.
func NewExecutorWithLimits(timeout time.Duration, maxBytes int) *Executor {
	e := NewExecutor()
	if timeout > 0 {
		e.timeout = timeout
	}
	if maxBytes > 0 {
		e.maxBytes = maxBytes
	}
	return e
}

// Run executes a shell command and captures stdout/stderr. The error, when
// non-nil, is always an *ExecutionError carrying any partial output.
func (e *Executor) Run(ctx context.Context, command string) (*ExecutionResult, error) {
	execCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "sh", "-c", command)

	stdout := &cappedBuffer{limit: e.maxBytes}
	stderr := &cappedBuffer{limit: e.maxBytes}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()

	var warnings []string
	if stdout.truncated {
		warnings = append(warnings, fmt.Sprintf("stdout truncated at %d bytes", e.maxBytes))
	}
	if stderr.truncated {
		warnings = append(warnings, fmt.Sprintf("stderr truncated at %d bytes", e.maxBytes))
	}

	if err != nil {
		execErr := &ExecutionError{
			Command: command,
			Stdout:  stdout.buf.String(),
			Stderr:  stderr.buf.String(),
		}
		if execCtx.Err() == context.DeadlineExceeded {
			execErr.TimedOut = true
			execErr.Reason = fmt.Sprintf("timed out after %s", e.timeout)
		} else {
			execErr.Reason = err.Error()
		}
		return nil, execErr
	}

	return &ExecutionResult{
		Command:  command,
		Stdout:   stdout.buf.String(),
		Stderr:   stderr.buf.String(),
		Warnings: warnings,
	}, nil
}

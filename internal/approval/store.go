// Package approval holds commands that passed validation but must not run
// until a human confirms them. Entries live in memory only; a restart drops
// everything pending, which is the intended failure mode.
package approval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrNotFound is returned for ids that are unknown or already resolved.
// A second approve or reject of the same id gets this error: both outcomes
// are terminal and ids are never reused.
var ErrNotFound = errors.New("pending command not found")

// PendingCommand is a command awaiting a human decision.
type PendingCommand struct {
	ID          string
	Command     string
	Description string
	CreatedAt   time.Time

	// seq orders entries that share a creation timestamp.
	seq uint64
}

// RejectedRecord is returned from Reject so the caller can confirm to the
// user exactly what was discarded.
type RejectedRecord struct {
	ID      string
	Command string
}

// Store is the pending-command approval store. All mutations go through one
// mutex; approve and reject do an atomic check-and-remove so that concurrent
// resolution of the same id has exactly one winner. The subprocess itself
// runs outside the lock so reads are never starved by a slow command.
//
// The caller is responsible for validating commands before Submit.
type Store struct {
	mu       sync.Mutex
	pending  map[string]PendingCommand
	nextID   uint64
	executor *Executor
	logger   *zap.Logger
}

// NewStore creates an empty store using the given executor for approved
// commands.
func NewStore(executor *Executor, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		pending:  make(map[string]PendingCommand),
		executor: executor,
		logger:   logger,
	}
}

// Submit stores a validated command and returns its id. Ids come from a
// monotonic counter, so they are unique for the lifetime of the store and
// never reused.
func (s *Store) Submit(command, description string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := fmt.Sprintf("cmd-%d", s.nextID)

	s.pending[id] = PendingCommand{
		ID:          id,
		Command:     command,
		Description: description,
		CreatedAt:   time.Now(),
		seq:         s.nextID,
	}

	s.logger.Info("command submitted for approval",
		zap.String("id", id),
		zap.String("command", command))
	return id
}

// Approve removes the entry and executes its command. The entry is removed
// before execution starts, so it is never observable as pending after this
// call returns, whatever the subprocess does. Returns ErrNotFound for
// unknown or already-resolved ids.
func (s *Store) Approve(ctx context.Context, id string) (*ExecutionResult, error) {
	entry, ok := s.take(id)
	if !ok {
		return nil, ErrNotFound
	}

	s.logger.Info("command approved",
		zap.String("id", id),
		zap.String("command", entry.Command))

	result, err := s.executor.Run(ctx, entry.Command)
	if err != nil {
		s.logger.Warn("approved command failed",
			zap.String("id", id),
			zap.Error(err))
		return nil, err
	}
	return result, nil
}

// Reject removes the entry without executing it. Returns ErrNotFound for
// unknown or already-resolved ids.
func (s *Store) Reject(id string) (*RejectedRecord, error) {
	entry, ok := s.take(id)
	if !ok {
		return nil, ErrNotFound
	}

	s.logger.Info("command rejected",
		zap.String("id", id),
		zap.String("command", entry.Command))
	return &RejectedRecord{ID: entry.ID, Command: entry.Command}, nil
}

// List returns snapshots of all pending commands ordered by creation time
// ascending. Read-only.
func (s *Store) List() []PendingCommand {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]PendingCommand, 0, len(s.pending))
	for _, entry := range s.pending {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].seq < out[j].seq
	})
	return out
}

// take atomically removes and returns the entry for id.
func (s *Store) take(id string) (PendingCommand, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	return entry, ok
}

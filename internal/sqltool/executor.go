// Package sqltool executes read-only relational queries against the local
// SQLite database. Anything that is not a pure read is refused before it
// reaches the driver.
package sqltool

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// ErrNotReadOnly is returned for statements that are not a single
// SELECT-only read.
var ErrNotReadOnly = errors.New("statement is not a read-only query")

// maxRows bounds how many rows a single query may return.
const maxRows = 100

// writeVerbs are rejected anywhere in the statement, not just as a prefix,
// to catch multi-statement and CTE smuggling attempts.
var writeVerbs = []string{
	"insert", "update", "delete", "drop", "alter", "create",
	"replace", "truncate", "attach", "detach", "pragma", "vacuum",
	"reindex", "grant", "revoke",
}

// Executor runs validated SELECT statements against a SQLite database.
type Executor struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens the database at path read-only.
func Open(path string, logger *zap.Logger) (*Executor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Executor{db: db, logger: logger}, nil
}

// NewWithDB wraps an existing database handle. Used by tests and local
// seeding, where the handle is not opened read-only.
func NewWithDB(db *sql.DB, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{db: db, logger: logger}
}

// Close releases the underlying database handle.
func (e *Executor) Close() error {
	return e.db.Close()
}

// Query runs a single SELECT statement and returns rows as column/value
// maps. Non-read statements are rejected with ErrNotReadOnly.
func (e *Executor) Query(ctx context.Context, statement string) ([]map[string]any, error) {
	if err := checkReadOnly(statement); err != nil {
		return nil, err
	}

	e.logger.Debug("executing read-only query", zap.String("statement", statement))

	rows, err := e.db.QueryContext(ctx, statement)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var results []map[string]any
	for rows.Next() {
		if len(results) >= maxRows {
			e.logger.Warn("query result capped", zap.Int("max_rows", maxRows))
			break
		}

		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			// The sqlite driver hands TEXT back as []byte under the
			// any-typed scan; normalize to string.
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return results, nil
}

// Check rejects anything that is not a single SELECT statement, without
// touching the database.
func Check(statement string) error {
	return checkReadOnly(statement)
}

// checkReadOnly rejects anything that is not a single SELECT statement.
func checkReadOnly(statement string) error {
	trimmed := strings.TrimSpace(statement)
	trimmed = strings.TrimSuffix(trimmed, ";")
	if trimmed == "" {
		return ErrNotReadOnly
	}

	// A second statement after the terminator is never a pure read.
	if strings.Contains(trimmed, ";") {
		return ErrNotReadOnly
	}

	lower := strings.ToLower(trimmed)
	if !strings.HasPrefix(lower, "select") && !strings.HasPrefix(lower, "with") {
		return ErrNotReadOnly
	}

	for _, verb := range writeVerbs {
		if containsWord(lower, verb) {
			return ErrNotReadOnly
		}
	}
	return nil
}

// containsWord reports whether s contains w delimited by non-letter bytes.
func containsWord(s, w string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], w)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(w)
		beforeOK := start == 0 || !isWordByte(s[start-1])
		afterOK := end == len(s) || !isWordByte(s[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

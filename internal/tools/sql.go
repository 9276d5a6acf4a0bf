package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"datapilot/internal/sqltool"
)

// SQLTool answers questions using the read-only relational executor.
type SQLTool struct {
	executor *sqltool.Executor
}

// NewSQLTool creates the SQL query tool.
func NewSQLTool(executor *sqltool.Executor) *SQLTool {
	return &SQLTool{executor: executor}
}

func (t *SQLTool) Name() Name { return SQLQuery }

func (t *SQLTool) Describe() string {
	return "Run a read-only SQL SELECT against the music database (artists, albums)"
}

// Validate rejects statements that are not a single SELECT-only read.
func (t *SQLTool) Validate(input string) error {
	if strings.TrimSpace(input) == "" {
		return ErrEmptyInput
	}
	return sqltool.Check(input)
}

// Execute runs the statement and formats the rows.
func (t *SQLTool) Execute(ctx context.Context, input string) (*Result, error) {
	if err := t.Validate(input); err != nil {
		return nil, err
	}

	rows, err := t.executor.Query(ctx, input)
	if err != nil {
		return nil, err
	}

	return &Result{Output: formatRows(rows)}, nil
}

// formatRows renders rows one per line as "col: value" pairs with columns
// in stable order.
func formatRows(rows []map[string]any) string {
	if len(rows) == 0 {
		return "(no rows)"
	}

	columns := make([]string, 0, len(rows[0]))
	for col := range rows[0] {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	var b strings.Builder
	for _, row := range rows {
		parts := make([]string, 0, len(columns))
		for _, col := range columns {
			parts = append(parts, fmt.Sprintf("%s: %v", col, row[col]))
		}
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

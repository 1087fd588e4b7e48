package repository

import (
	"fmt"
	"strconv"
	"strings"
)

// Field returns the trimmed column at index i, or "" when the row is short.
func Field(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

// Int64 parses the column at index i.
func Int64(fields []string, i int, column string) (int64, error) {
	raw := Field(fields, i)
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: invalid integer %q", column, raw)
	}
	return value, nil
}

// Require fails when the row has fewer than n columns.
func Require(fields []string, n int) error {
	if len(fields) < n {
		return fmt.Errorf("expected at least %d columns, got %d", n, len(fields))
	}
	return nil
}

// Itoa formats an integer column.
func Itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

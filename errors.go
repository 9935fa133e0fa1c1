package graylite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// Domain-specific errors for store operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrSyntax is returned when SQLite rejects malformed SQL text.
	// The engine's own message is preserved in the wrapped error.
	ErrSyntax = errors.New("graylite: SQL syntax error")

	// ErrArgument is returned when bound arguments do not match the
	// placeholders in the statement. Detected before execution where
	// possible, otherwise classified from the driver error.
	ErrArgument = errors.New("graylite: bound argument mismatch")

	// ErrLifecycle is returned when a creation or migration callback fails,
	// or when the on-disk schema version is newer than the requested one.
	// The open is aborted and rolled back; the store is left unopened.
	ErrLifecycle = errors.New("graylite: lifecycle failed")

	// ErrClosed is returned by any operation invoked after Close.
	// A closed store is never silently reopened.
	ErrClosed = errors.New("graylite: store is closed")
)

// classify wraps a driver error with the matching sentinel so callers can
// use errors.Is without importing the driver package.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) {
		switch sqlErr.Code {
		case sqlite3.ErrError:
			// SQLITE_ERROR is the generic code for both parse failures and
			// runtime SQL errors; SQLite has no dedicated parse-error code,
			// so the message text is the only signal. "syntax error" and
			// "incomplete input" are the two strings sqlite3ErrorMsg emits
			// for parser failures and have been stable across releases.
			if strings.Contains(sqlErr.Error(), "syntax error") ||
				strings.Contains(sqlErr.Error(), "incomplete input") {
				return fmt.Errorf("%w: %w", ErrSyntax, err)
			}
		case sqlite3.ErrRange:
			// SQLITE_RANGE: bind index out of range.
			return fmt.Errorf("%w: %w", ErrArgument, err)
		}
	}
	return err
}

// checkBindArgs verifies that the number of supplied arguments matches the
// number of '?' placeholders in the statement, counting outside string
// literals and quoted identifiers. Numbered (?N) and named (:name, @name,
// $name) parameters are left to the driver.
func checkBindArgs(query string, args []any) error {
	count, ok := countPlaceholders(query)
	if !ok {
		return nil
	}
	if count != len(args) {
		return fmt.Errorf("%w: statement has %d placeholder(s), %d argument(s) bound",
			ErrArgument, count, len(args))
	}
	return nil
}

// countPlaceholders counts positional '?' placeholders in query, skipping
// string literals, quoted identifiers ("..", [..], `..`), line comments and
// block comments. Returns ok=false when the statement mixes in numbered or
// named parameters, in which case no pre-execution check is performed.
func countPlaceholders(query string) (count int, ok bool) {
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch c {
		case '\'':
			i = skipUntil(query, i+1, '\'')
		case '"':
			i = skipUntil(query, i+1, '"')
		case '`':
			i = skipUntil(query, i+1, '`')
		case '[':
			i = skipUntil(query, i+1, ']')
		case '-':
			if i+1 < len(query) && query[i+1] == '-' {
				i = skipUntil(query, i+2, '\n')
			}
		case '/':
			if i+1 < len(query) && query[i+1] == '*' {
				end := strings.Index(query[i+2:], "*/")
				if end < 0 {
					return count, true
				}
				i += 2 + end + 1
			}
		case ':', '@', '$':
			if i+1 < len(query) && isParamNameByte(query[i+1]) {
				return 0, false
			}
		case '?':
			if i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
				return 0, false
			}
			count++
		}
	}
	return count, true
}

// skipUntil returns the index of the next occurrence of delim at or after
// start, or the end of the string if none remains.
func skipUntil(query string, start int, delim byte) int {
	for i := start; i < len(query); i++ {
		if query[i] == delim {
			return i
		}
	}
	return len(query)
}

// isParamNameByte reports whether c can start a named-parameter identifier.
func isParamNameByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

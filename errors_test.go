package graylite

import (
	"errors"
	"testing"
)

// TestCountPlaceholders verifies positional placeholder counting.
func TestCountPlaceholders(t *testing.T) {
	tests := []struct {
		name  string
		query string
		count int
		ok    bool
	}{
		{"no placeholders", "SELECT * FROM user", 0, true},
		{"three placeholders", "INSERT INTO user VALUES (?, ?, ?)", 3, true},
		{"inside single quotes", "SELECT * FROM user WHERE name = 'a?b' AND id = ?", 1, true},
		{"inside double quotes", `SELECT "col?umn" FROM user WHERE id = ?`, 1, true},
		{"doubled quote escape", "SELECT * FROM user WHERE name = 'it''s?' AND id = ?", 1, true},
		{"inside line comment", "SELECT * FROM user WHERE id = ? -- why?", 1, true},
		{"inside block comment", "SELECT /* what? */ * FROM user WHERE id = ?", 1, true},
		{"unterminated block comment", "SELECT ? /* trailing?", 1, true},
		{"inside brackets", "SELECT [col?] FROM user WHERE id = ?", 1, true},
		{"inside backticks", "SELECT `col?` FROM user WHERE id = ?", 1, true},
		{"numbered parameters skipped", "SELECT * FROM user WHERE id = ?1", 0, false},
		{"named colon parameters skipped", "SELECT * FROM user WHERE id = :id", 0, false},
		{"named at parameters skipped", "SELECT * FROM user WHERE id = @id", 0, false},
		{"named dollar parameters skipped", "SELECT * FROM user WHERE id = $id", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, ok := countPlaceholders(tt.query)
			if ok != tt.ok {
				t.Fatalf("countPlaceholders() ok = %v, want %v", ok, tt.ok)
			}
			if ok && count != tt.count {
				t.Errorf("countPlaceholders() = %d, want %d", count, tt.count)
			}
		})
	}
}

// TestCheckBindArgs verifies the pre-execution argument check.
func TestCheckBindArgs(t *testing.T) {
	t.Run("match passes", func(t *testing.T) {
		if err := checkBindArgs("SELECT ? WHERE ? = ?", []any{1, 2, 3}); err != nil {
			t.Errorf("checkBindArgs() error = %v", err)
		}
	})

	t.Run("mismatch fails", func(t *testing.T) {
		err := checkBindArgs("SELECT ?", []any{1, 2})
		if !errors.Is(err, ErrArgument) {
			t.Errorf("checkBindArgs() error = %v, want ErrArgument", err)
		}
	})

	t.Run("named parameters are not checked", func(t *testing.T) {
		if err := checkBindArgs("SELECT :a", nil); err != nil {
			t.Errorf("checkBindArgs() with named param error = %v", err)
		}
	})
}

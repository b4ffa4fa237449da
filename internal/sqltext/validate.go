package sqltext

import (
	"errors"
	"strings"
)

var (
	ErrEmptySQL         = errors.New("sql is empty")
	ErrUnbalancedQuotes = errors.New("sql has unbalanced quotes")
	ErrNotSelect        = errors.New("sql is not a SELECT statement")
)

// Validate is a cheap syntactic gate run before execution. It catches the
// common model failure modes (empty completions, unterminated strings,
// non-SELECT statements) without understanding SQL grammar. Callers must treat
// a failure as "substitute the deterministic fallback query", never as a reason
// to execute the input anyway.
func Validate(sqlText string) error {
	trimmed := strings.TrimSpace(sqlText)
	if trimmed == "" || strings.Trim(trimmed, ";") == "" {
		return ErrEmptySQL
	}
	if strings.Count(trimmed, `'`)%2 != 0 {
		return ErrUnbalancedQuotes
	}
	if strings.Count(trimmed, `"`)%2 != 0 {
		return ErrUnbalancedQuotes
	}
	if !strings.Contains(strings.ToUpper(trimmed), "SELECT") {
		return ErrNotSelect
	}
	return nil
}

package pipeline

import "fmt"

// Error codes returned alongside fatal pipeline failures. Each fatal path
// maps to exactly one code so callers can branch without parsing messages.
const (
	CodeMissingInput     = "missing_input"
	CodeNoRelevantTables = "no_relevant_tables"
	CodeDatabaseError    = "database_error"
	CodeUpstreamLLM      = "upstream_llm_error"
)

// MissingInputError marks a request the caller can correct: no question, or
// neither a stored connection reference nor inline credentials.
type MissingInputError struct {
	Field string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing required input: %s", e.Field)
}

func (e *MissingInputError) Code() string { return CodeMissingInput }

// NoRelevantTablesError is a legitimate terminal outcome: the question could
// not be tied to any table in the target database.
type NoRelevantTablesError struct {
	Question string
}

func (e *NoRelevantTablesError) Error() string {
	return fmt.Sprintf("no relevant tables found for question %q", e.Question)
}

func (e *NoRelevantTablesError) Code() string { return CodeNoRelevantTables }

// DatabaseError wraps connectivity and execution failures against the target
// database. These are never retried; a bad connection needs caller
// intervention.
type DatabaseError struct {
	Stage string
	Err   error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database error during %s: %v", e.Stage, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }

func (e *DatabaseError) Code() string { return CodeDatabaseError }

// UpstreamLLMError surfaces only when a model call fails and its
// deterministic fallback cannot serve either.
type UpstreamLLMError struct {
	Err error
}

func (e *UpstreamLLMError) Error() string {
	return fmt.Sprintf("upstream llm error: %v", e.Err)
}

func (e *UpstreamLLMError) Unwrap() error { return e.Err }

func (e *UpstreamLLMError) Code() string { return CodeUpstreamLLM }

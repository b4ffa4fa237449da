// Package answer produces the natural-language reply for a question from the
// rows the query actually returned. A model-written answer is only accepted
// when it references at least one literal result value; anything else is
// replaced with a deterministic summary built from the rows themselves.
package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/askdb/askdb/internal/llm"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/session"
	"github.com/askdb/askdb/internal/target"
)

const (
	historyWindow = 2
	promptRowCap  = 10
	// groundingRowCap bounds both the values scanned for during the
	// groundedness check and the rows used in the templated fallback.
	groundingRowCap = 3
)

type Synthesizer struct {
	client *llm.Client
	logger *slog.Logger
}

func NewSynthesizer(client *llm.Client, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{
		client: client,
		logger: logger.With(slog.String("component", "answer")),
	}
}

// Synthesize answers the question from the result rows. Model failures and
// ungrounded model output both degrade to deterministic text; this never
// returns an error.
func (s *Synthesizer) Synthesize(ctx context.Context, question, sqlText string, result target.Result, tables []string, history []session.Turn) string {
	if !s.client.Enabled() {
		observability.IncrementLLMFallback("answer")
		return countAnswer(result)
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: synthesizerSystemPrompt},
		{Role: llm.RoleUser, Content: buildSynthesizerPrompt(question, sqlText, result, tables, history)},
	}
	response, err := s.client.Complete(ctx, messages)
	if err != nil {
		observability.ObserveLLMRequest("answer", "error")
		observability.IncrementLLMFallback("answer")
		s.logger.Warn("answer synthesis failed, using count fallback",
			slog.String("error", err.Error()))
		return countAnswer(result)
	}
	observability.ObserveLLMRequest("answer", "success")

	if len(result.Rows) > 0 && !isGrounded(response, result) {
		observability.IncrementLLMFallback("answer")
		s.logger.Warn("model answer references no result value, using templated fallback")
		return templatedAnswer(result)
	}
	return response
}

func countAnswer(result target.Result) string {
	return fmt.Sprintf("Found %d results from the query.", len(result.Rows))
}

// templatedAnswer joins key: value pairs from the first rows, in column
// order, one line per row.
func templatedAnswer(result target.Result) string {
	if len(result.Rows) == 0 {
		return "No data found."
	}
	rows := result.Rows
	if len(rows) > groundingRowCap {
		rows = rows[:groundingRowCap]
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, fmt.Sprintf("Found %d results from the query.", len(result.Rows)))
	for _, row := range rows {
		pairs := make([]string, 0, len(result.Columns))
		for _, column := range result.Columns {
			pairs = append(pairs, fmt.Sprintf("%s: %s", column, valueString(row[column])))
		}
		lines = append(lines, strings.Join(pairs, ", "))
	}
	return strings.Join(lines, "\n")
}

// isGrounded reports whether the answer contains the literal string form of
// at least one value from the first rows. Numbers are matched both verbatim
// and with a trailing ".0" trimmed so "42" grounds an answer built from 42.0.
func isGrounded(answerText string, result target.Result) bool {
	lowered := strings.ToLower(answerText)
	rows := result.Rows
	if len(rows) > groundingRowCap {
		rows = rows[:groundingRowCap]
	}
	for _, row := range rows {
		for _, value := range row {
			for _, form := range valueForms(value) {
				if form != "" && strings.Contains(lowered, strings.ToLower(form)) {
					return true
				}
			}
		}
	}
	return false
}

func valueForms(value any) []string {
	text := valueString(value)
	forms := []string{text}
	if trimmed := strings.TrimSuffix(text, ".0"); trimmed != text {
		forms = append(forms, trimmed)
	}
	return forms
}

func valueString(value any) string {
	if value == nil {
		return "null"
	}
	if b, ok := value.([]byte); ok {
		return string(b)
	}
	return fmt.Sprintf("%v", value)
}

const synthesizerSystemPrompt = "You answer questions about query results. " +
	"Use only the data provided: no placeholder variables, no invented examples. " +
	"If the result set is empty, say \"No data found\". " +
	"Prefer short bullet points and bold key figures for readability."

func buildSynthesizerPrompt(question, sqlText string, result target.Result, tables []string, history []session.Turn) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", question)
	fmt.Fprintf(&b, "SQL: %s\n", sqlText)
	fmt.Fprintf(&b, "Tables used: %s\n", strings.Join(tables, ", "))
	fmt.Fprintf(&b, "Total rows: %d\n", len(result.Rows))

	rows := result.Rows
	if len(rows) > promptRowCap {
		rows = rows[:promptRowCap]
	}
	if len(rows) == 0 {
		b.WriteString("\nResult rows: none\n")
	} else {
		b.WriteString("\nResult rows:\n")
		for _, row := range rows {
			pairs := make([]string, 0, len(result.Columns))
			for _, column := range result.Columns {
				pairs = append(pairs, fmt.Sprintf("%s=%s", column, valueString(row[column])))
			}
			fmt.Fprintf(&b, "- %s\n", strings.Join(pairs, ", "))
		}
	}

	recent := history
	if len(recent) > historyWindow {
		recent = recent[len(recent)-historyWindow:]
	}
	if len(recent) > 0 {
		b.WriteString("\nRecent conversation:\n")
		for _, turn := range recent {
			fmt.Fprintf(&b, "Q: %s\n", turn.Question)
			fmt.Fprintf(&b, "A: %s\n", turn.Answer)
		}
	}

	b.WriteString("\nAnswer the question using only the data above. State \"No data found\" if there are no rows.")
	return b.String()
}

// Package relevance chooses which target-database tables pertain to a
// question. The model-backed path filters the response against the known
// table list; the degraded path is a follow-up and word-overlap heuristic.
package relevance

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/askdb/askdb/internal/llm"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/session"
)

const (
	historyWindow = 2
	maxRetries    = 1
	// fallbackLimit caps heuristic matches so a verbose question cannot
	// drag the whole schema into the prompt.
	fallbackLimit = 2
)

// followUpWords mark terse refinement questions ("show more", "top 5") that
// have no lexical overlap with any table name; the prior turn's table set is
// the best available proxy for what the user means.
var followUpWords = []string{
	"more", "detail", "details", "filter", "top", "recent",
	"sort", "order", "again", "previous", "that", "those", "these",
}

type Selector struct {
	client *llm.Client
	logger *slog.Logger
}

func NewSelector(client *llm.Client, logger *slog.Logger) *Selector {
	return &Selector{
		client: client,
		logger: logger.With(slog.String("component", "relevance")),
	}
}

// Select returns the subset of tables relevant to the question, preserving
// table-list order where the heuristic path decides. The result may be empty;
// an unanswerable question is a legitimate outcome, not an error.
func (s *Selector) Select(ctx context.Context, question string, tables []string, history []session.Turn) []string {
	if len(tables) == 0 {
		return nil
	}
	if s.client.Enabled() {
		if selected, ok := s.selectWithModel(ctx, question, tables, history); ok {
			return selected
		}
		observability.IncrementLLMFallback("relevance")
	}
	return s.selectHeuristic(question, tables, history)
}

func (s *Selector) selectWithModel(ctx context.Context, question string, tables []string, history []session.Turn) ([]string, bool) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: selectorSystemPrompt},
		{Role: llm.RoleUser, Content: buildSelectorPrompt(question, tables, history)},
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		response, err := s.client.Complete(ctx, messages)
		if err != nil {
			lastErr = err
			observability.ObserveLLMRequest("relevance", "error")
			continue
		}
		observability.ObserveLLMRequest("relevance", "success")
		selected := filterToKnown(response, tables)
		if len(selected) == 0 {
			s.logger.Warn("model returned no known table names, using heuristic",
				slog.String("response", response))
			return nil, false
		}
		return selected, true
	}

	s.logger.Warn("table selection failed after retry, using heuristic",
		slog.String("error", lastErr.Error()))
	return nil, false
}

func (s *Selector) selectHeuristic(question string, tables []string, history []session.Turn) []string {
	if len(history) > 0 && isFollowUp(question) {
		last := history[len(history)-1]
		if len(last.TablesUsed) > 0 {
			return append([]string(nil), last.TablesUsed...)
		}
	}

	lowered := strings.ToLower(question)
	words := questionWords(lowered)
	matched := make([]string, 0, fallbackLimit)
	for _, table := range tables {
		if len(matched) == fallbackLimit {
			break
		}
		if matchesQuestion(table, lowered, words) {
			matched = append(matched, table)
		}
	}
	return matched
}

func isFollowUp(question string) bool {
	words := questionWords(strings.ToLower(question))
	for _, word := range words {
		for _, indicator := range followUpWords {
			if word == indicator {
				return true
			}
		}
	}
	return false
}

func matchesQuestion(table, loweredQuestion string, words []string) bool {
	loweredTable := strings.ToLower(table)
	if strings.Contains(loweredQuestion, loweredTable) {
		return true
	}
	for _, word := range words {
		if len(word) < 3 {
			continue
		}
		if strings.Contains(loweredTable, word) || strings.Contains(word, loweredTable) {
			return true
		}
	}
	return false
}

func questionWords(lowered string) []string {
	return strings.FieldsFunc(lowered, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '_'
	})
}

const selectorSystemPrompt = "You select which database tables are relevant to a question. " +
	"Respond with a comma-separated list of table names chosen only from the provided list. " +
	"Do not explain, do not add any other text."

func buildSelectorPrompt(question string, tables []string, history []session.Turn) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\n", question)
	fmt.Fprintf(&b, "Available tables: %s\n", strings.Join(tables, ", "))

	recent := history
	if len(recent) > historyWindow {
		recent = recent[len(recent)-historyWindow:]
	}
	if len(recent) > 0 {
		b.WriteString("\nRecent conversation:\n")
		for _, turn := range recent {
			fmt.Fprintf(&b, "Q: %s\n", turn.Question)
			fmt.Fprintf(&b, "Tables: %s\n", strings.Join(turn.TablesUsed, ", "))
			fmt.Fprintf(&b, "SQL: %s\n", turn.SQL)
			fmt.Fprintf(&b, "Rows: %d\n", turn.ResultCount)
			if len(turn.Results) > 0 {
				fmt.Fprintf(&b, "Sample: %s\n", sampleRow(turn.Results[0]))
			}
		}
	}

	b.WriteString("\nReturn the relevant table names as a comma-separated list.")
	return b.String()
}

func sampleRow(row map[string]any) string {
	keys := make([]string, 0, len(row))
	for key := range row {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", key, row[key]))
	}
	return strings.Join(pairs, ", ")
}

func filterToKnown(response string, tables []string) []string {
	known := make(map[string]string, len(tables))
	for _, table := range tables {
		known[strings.ToLower(table)] = table
	}

	seen := make(map[string]struct{})
	var selected []string
	for _, part := range strings.Split(response, ",") {
		candidate := strings.ToLower(strings.Trim(strings.TrimSpace(part), "\"'` \n"))
		table, ok := known[candidate]
		if !ok {
			continue
		}
		if _, dup := seen[table]; dup {
			continue
		}
		seen[table] = struct{}{}
		selected = append(selected, table)
	}
	return selected
}

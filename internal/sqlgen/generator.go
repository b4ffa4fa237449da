// Package sqlgen turns a question plus a schema subset into one sanitized
// SELECT statement. Every path produces runnable SQL: the model output is
// repaired by the sanitizer, and both fallbacks are built from schema
// metadata alone.
package sqlgen

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/askdb/askdb/internal/llm"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/session"
	"github.com/askdb/askdb/internal/sqltext"
	"github.com/askdb/askdb/internal/target"
)

const historyWindow = 2

type Generator struct {
	client *llm.Client
	logger *slog.Logger
}

func NewGenerator(client *llm.Client, logger *slog.Logger) *Generator {
	return &Generator{
		client: client,
		logger: logger.With(slog.String("component", "sqlgen")),
	}
}

// Generate returns a sanitized single-statement SELECT for the question.
// Model failures fall back immediately to a schema-derived query; there is
// no retry here, the relevance stage already paid that cost.
func (g *Generator) Generate(ctx context.Context, question string, tables []target.Table, history []session.Turn) string {
	if !g.client.Enabled() {
		observability.IncrementLLMFallback("sqlgen")
		return SchemaFallbackSQL(tables)
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: generatorSystemPrompt},
		{Role: llm.RoleUser, Content: buildGeneratorPrompt(question, tables, history)},
	}
	response, err := g.client.Complete(ctx, messages)
	if err != nil {
		observability.ObserveLLMRequest("sqlgen", "error")
		observability.IncrementLLMFallback("sqlgen")
		g.logger.Warn("sql generation failed, using schema fallback",
			slog.String("error", err.Error()))
		return SchemaFallbackSQL(tables)
	}
	observability.ObserveLLMRequest("sqlgen", "success")
	return sqltext.Sanitize(response)
}

// SchemaFallbackSQL is the degraded-path query used when no model is
// configured or the call fails: every column of the first relevant table,
// capped at five rows.
func SchemaFallbackSQL(tables []target.Table) string {
	if len(tables) == 0 {
		return "SELECT 1;"
	}
	first := tables[0]
	if len(first.Columns) == 0 {
		return fmt.Sprintf("SELECT * FROM %q LIMIT 5;", first.Name)
	}
	names := make([]string, len(first.Columns))
	for i, column := range first.Columns {
		names[i] = column.Name
	}
	return fmt.Sprintf("SELECT %s FROM %q LIMIT 5;", strings.Join(names, ", "), first.Name)
}

// FallbackSQL is the separate recovery query substituted when validation
// rejects generated SQL. It quotes every identifier and takes at most the
// first three columns of the first table.
func FallbackSQL(tables []target.Table) string {
	if len(tables) == 0 {
		return "SELECT 1;"
	}
	first := tables[0]
	if len(first.Columns) == 0 {
		return fmt.Sprintf("SELECT * FROM %q LIMIT 5;", first.Name)
	}
	limit := len(first.Columns)
	if limit > 3 {
		limit = 3
	}
	quoted := make([]string, limit)
	for i := 0; i < limit; i++ {
		quoted[i] = fmt.Sprintf("%q", first.Columns[i].Name)
	}
	return fmt.Sprintf("SELECT %s FROM %q LIMIT 5;", strings.Join(quoted, ", "), first.Name)
}

const generatorSystemPrompt = "You translate questions into SQL for the given schema. " +
	"Respond with exactly one SELECT statement and nothing else: no Markdown, no code fences, no commentary. " +
	"Double-quote identifiers, single-quote string literals, use CURRENT_TIMESTAMP instead of NOW(), " +
	"qualify every column with its table name, never use window functions inside WHERE, " +
	"and always cap the result with LIMIT 10 or less."

func buildGeneratorPrompt(question string, tables []target.Table, history []session.Turn) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\n", question)

	b.WriteString("Schema:\n")
	for _, table := range tables {
		fmt.Fprintf(&b, "%s:\n", table.Name)
		for _, column := range table.Columns {
			fmt.Fprintf(&b, "  %s %s\n", column.Name, column.Type)
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
			fmt.Fprintf(&b, "SQL: %s\n", turn.SQL)
			fmt.Fprintf(&b, "Rows: %d\n", turn.ResultCount)
		}
	}

	b.WriteString("\nRules:\n")
	b.WriteString("- One SELECT statement only, terminated with a semicolon.\n")
	b.WriteString("- Double-quote every identifier; single-quote string literals.\n")
	b.WriteString("- Use CURRENT_TIMESTAMP, never NOW().\n")
	b.WriteString("- Qualify every column reference with its table name.\n")
	b.WriteString("- No window functions in WHERE clauses; prefer ORDER BY with LIMIT for top-N questions.\n")
	b.WriteString("- LIMIT the result to at most 10 rows.\n")
	return b.String()
}

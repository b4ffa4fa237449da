package sqltext

import (
	"strings"
	"testing"
)

func TestSanitizeStripsMarkdownFences(t *testing.T) {
	raw := "```sql\nSELECT \"orders\".\"id\" FROM \"orders\";\n```"
	got := Sanitize(raw)
	want := `SELECT "orders"."id" FROM "orders";`
	if got != want {
		t.Fatalf("Sanitize() = %q, want %q", got, want)
	}
}

func TestSanitizeRewritesDatePartCalls(t *testing.T) {
	cases := map[string]string{
		`SELECT year(created_at) FROM t`:   `SELECT EXTRACT(YEAR FROM created_at) FROM t;`,
		`SELECT MONTH(created_at) FROM t`:  `SELECT EXTRACT(MONTH FROM created_at) FROM t;`,
		`SELECT Day( created_at ) FROM t`:  `SELECT EXTRACT(DAY FROM created_at) FROM t;`,
		`SELECT now() FROM t`:              `SELECT CURRENT_TIMESTAMP FROM t;`,
		"SELECT `name` FROM `users`":       `SELECT "name" FROM "users";`,
		`SELECT NOW( ), id FROM t`:         `SELECT CURRENT_TIMESTAMP, id FROM t;`,
	}
	for raw, want := range cases {
		if got := Sanitize(raw); got != want {
			t.Fatalf("Sanitize(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestSanitizeClosesTrailingQuote(t *testing.T) {
	got := Sanitize(`SELECT * FROM t WHERE name = 'acme`)
	want := `SELECT * FROM t WHERE name = 'acme';`
	if got != want {
		t.Fatalf("Sanitize() = %q, want %q", got, want)
	}
}

func TestSanitizeCollapsesSemicolonsAndKeepsFirstStatement(t *testing.T) {
	if got := Sanitize("SELECT 1;;;"); got != "SELECT 1;" {
		t.Fatalf("Sanitize() = %q", got)
	}
	if got := Sanitize("SELECT a FROM t; DROP TABLE t;"); got != "SELECT a FROM t;" {
		t.Fatalf("Sanitize() = %q", got)
	}
	// Semicolons inside string literals do not split statements.
	if got := Sanitize(`SELECT 'a;b' FROM t`); got != `SELECT 'a;b' FROM t;` {
		t.Fatalf("Sanitize() = %q", got)
	}
}

func TestSanitizeReplacesEmptyAndBareSelect(t *testing.T) {
	for _, raw := range []string{"", "   ", ";", "SELECT", "select ;", "```\n```"} {
		if got := Sanitize(raw); got != "SELECT 1;" {
			t.Fatalf("Sanitize(%q) = %q, want SELECT 1;", raw, got)
		}
	}
}

func TestSanitizeIsIdempotent(t *testing.T) {
	raws := []string{
		"```sql\nSELECT year(o.date), count(*) FROM `orders` o;\n```",
		`SELECT * FROM t WHERE name = 'acme`,
		"SELECT a FROM t; SELECT b FROM u;",
		"",
		"SELECT",
		`SELECT now() FROM "t";;`,
		`select 'a;b'; select 2;`,
	}
	for _, raw := range raws {
		once := Sanitize(raw)
		twice := Sanitize(once)
		if once != twice {
			t.Fatalf("Sanitize not idempotent for %q: %q != %q", raw, once, twice)
		}
	}
}

func TestSanitizeAlwaysTerminates(t *testing.T) {
	raws := []string{"", ";", ";;;", "```", "SELECT 1", "garbage text", `'`, `"`}
	for _, raw := range raws {
		got := Sanitize(raw)
		if got == "" {
			t.Fatalf("Sanitize(%q) returned empty string", raw)
		}
		if !strings.HasSuffix(got, ";") || strings.HasSuffix(got, ";;") {
			t.Fatalf("Sanitize(%q) = %q, want exactly one trailing semicolon", raw, got)
		}
	}
}

// Package sqltext repairs and gates raw LLM-generated SQL. It is a text-level
// best effort, not a parser: the goal is to turn the common failure modes of a
// language model (markdown fences, MySQL-isms, unterminated quotes, stray
// semicolons) into a single executable statement.
package sqltext

import (
	"regexp"
	"strings"
)

var (
	fenceRe        = regexp.MustCompile("(?i)```(?:sql)?")
	datePartCallRe = regexp.MustCompile(`(?i)\b(YEAR|MONTH|DAY)\s*\(([^()]*)\)`)
	nowCallRe      = regexp.MustCompile(`(?i)\bNOW\s*\(\s*\)`)
	semicolonRunRe = regexp.MustCompile(`;{2,}`)
)

// Sanitize normalizes raw model output into exactly one statement terminated by
// exactly one semicolon. It never fails and is idempotent as a whole.
func Sanitize(raw string) string {
	text := fenceRe.ReplaceAllString(raw, "")
	text = strings.TrimSpace(text)

	text = datePartCallRe.ReplaceAllStringFunc(text, func(match string) string {
		parts := datePartCallRe.FindStringSubmatch(match)
		return "EXTRACT(" + strings.ToUpper(parts[1]) + " FROM " + strings.TrimSpace(parts[2]) + ")"
	})
	text = strings.ReplaceAll(text, "`", `"`)
	text = nowCallRe.ReplaceAllString(text, "CURRENT_TIMESTAMP")

	text = closeTrailingQuote(text)
	text = semicolonRunRe.ReplaceAllString(text, ";")
	text = firstStatement(text)

	text = strings.TrimSpace(text)
	upper := strings.ToUpper(strings.TrimRight(text, ";"))
	if strings.TrimSpace(upper) == "" || strings.TrimSpace(upper) == "SELECT" {
		text = "SELECT 1"
	}

	text = strings.TrimRight(strings.TrimSpace(text), ";")
	return strings.TrimSpace(text) + ";"
}

// closeTrailingQuote appends a closing quote when the statement ends inside an
// open string or identifier. A heuristic repair, not a correctness guarantee.
func closeTrailingQuote(text string) string {
	if strings.Count(text, `'`)%2 == 1 {
		text += `'`
	}
	if strings.Count(text, `"`)%2 == 1 {
		text += `"`
	}
	return text
}

// firstStatement enforces the single-statement contract: if the text holds more
// than one top-level statement, only the first survives. Semicolons inside
// quoted strings or identifiers do not split.
func firstStatement(text string) string {
	var inSingle, inDouble bool
	for i, r := range text {
		switch r {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case ';':
			if inSingle || inDouble {
				continue
			}
			if strings.TrimSpace(text[i+1:]) != "" {
				return text[:i]
			}
			return text
		}
	}
	return text
}

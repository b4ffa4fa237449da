// Package chart turns a question plus tabular results into a renderable chart
// specification. Detection is keyword-driven; generation is a deterministic
// transform that prefers returning no chart over returning a degenerate one.
package chart

import (
	"regexp"
	"strings"
)

type Type string

const (
	TypeBar     Type = "bar"
	TypeLine    Type = "line"
	TypePie     Type = "pie"
	TypeScatter Type = "scatter"
)

const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
)

type Detection struct {
	Requested  bool   `json:"requested"`
	Type       Type   `json:"type,omitempty"`
	Confidence string `json:"confidence,omitempty"`
}

var typePatterns = []struct {
	chartType Type
	patterns  []*regexp.Regexp
}{
	{TypeBar, []*regexp.Regexp{
		regexp.MustCompile(`\bbar\s+(chart|graph)\b`),
		regexp.MustCompile(`\bhistogram\b`),
		regexp.MustCompile(`\b(plot|visuali[sz]e|draw|chart)\b.*\bbars?\b`),
	}},
	{TypeLine, []*regexp.Regexp{
		regexp.MustCompile(`\bline\s+(chart|graph)\b`),
		regexp.MustCompile(`\btrend\b`),
		regexp.MustCompile(`\btime\s+series\b`),
		regexp.MustCompile(`\bover\s+time\b`),
		regexp.MustCompile(`\b(plot|visuali[sz]e|draw)\b.*\bline\b`),
	}},
	{TypePie, []*regexp.Regexp{
		regexp.MustCompile(`\bpie\s+(chart|graph)\b`),
		regexp.MustCompile(`\bpercentage\b`),
		regexp.MustCompile(`\bbreakdown\b`),
		regexp.MustCompile(`\bproportions?\b`),
		regexp.MustCompile(`\bshare\s+of\b`),
	}},
	{TypeScatter, []*regexp.Regexp{
		regexp.MustCompile(`\bscatter\b`),
		regexp.MustCompile(`\bcorrelation\b`),
		regexp.MustCompile(`\brelationship\s+between\b`),
	}},
}

var genericPattern = regexp.MustCompile(`\b(chart|graph|plot|diagram|visuali[sz]e)\b`)

// DetectRequest classifies whether the question asks for a chart. The first
// matching specific type wins with high confidence; a bare visualization
// keyword defaults to bar with medium confidence.
func DetectRequest(question string) Detection {
	lowered := strings.ToLower(question)

	for _, entry := range typePatterns {
		for _, pattern := range entry.patterns {
			if pattern.MatchString(lowered) {
				return Detection{Requested: true, Type: entry.chartType, Confidence: ConfidenceHigh}
			}
		}
	}
	if genericPattern.MatchString(lowered) {
		return Detection{Requested: true, Type: TypeBar, Confidence: ConfidenceMedium}
	}
	return Detection{}
}

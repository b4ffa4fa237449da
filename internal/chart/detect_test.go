package chart

import "testing"

func TestDetectRequestSpecificTypes(t *testing.T) {
	cases := map[string]Type{
		"create a bar chart of sales by category":      TypeBar,
		"show me a histogram of ages":                  TypeBar,
		"plot revenue as bars":                         TypeBar,
		"line chart of signups":                        TypeLine,
		"what is the trend in monthly revenue":         TypeLine,
		"show sales over time":                         TypeLine,
		"time series of logins":                        TypeLine,
		"pie chart of market share":                    TypePie,
		"percentage of orders by region":               TypePie,
		"breakdown of spend by team":                   TypePie,
		"scatter plot of price and rating":             TypeScatter,
		"is there a correlation between age and spend": TypeScatter,
		"relationship between price and volume":        TypeScatter,
	}
	for question, wantType := range cases {
		got := DetectRequest(question)
		if !got.Requested {
			t.Fatalf("DetectRequest(%q).Requested = false", question)
		}
		if got.Type != wantType {
			t.Fatalf("DetectRequest(%q).Type = %q, want %q", question, got.Type, wantType)
		}
		if got.Confidence != ConfidenceHigh {
			t.Fatalf("DetectRequest(%q).Confidence = %q", question, got.Confidence)
		}
	}
}

func TestDetectRequestGenericKeywordDefaultsToBar(t *testing.T) {
	for _, question := range []string{
		"can you chart the totals",
		"graph revenue per region",
		"visualize the results",
		"show a diagram of departments",
	} {
		got := DetectRequest(question)
		if !got.Requested || got.Type != TypeBar || got.Confidence != ConfidenceMedium {
			t.Fatalf("DetectRequest(%q) = %+v", question, got)
		}
	}
}

func TestDetectRequestIgnoresPlainQuestions(t *testing.T) {
	for _, question := range []string{
		"show total amount",
		"how many orders were placed last week",
		"list the top customers",
	} {
		if got := DetectRequest(question); got.Requested {
			t.Fatalf("DetectRequest(%q) = %+v, want not requested", question, got)
		}
	}
}

package chart

import (
	"testing"

	"github.com/askdb/askdb/internal/target"
)

func TestGenerateBarPackagesLabelsAndValues(t *testing.T) {
	spec := Generate(TypeBar, []string{"category", "total"}, []target.Row{
		{"category": "books", "total": 12.5},
		{"category": "games", "total": int64(7)},
	})
	if spec == nil {
		t.Fatal("Generate() = nil")
	}
	if spec.Type != TypeBar {
		t.Fatalf("Type = %q", spec.Type)
	}
	if len(spec.Data.Labels) != 2 || spec.Data.Labels[0] != "books" {
		t.Fatalf("Labels = %v", spec.Data.Labels)
	}
	values, ok := spec.Data.Datasets[0].Data.([]float64)
	if !ok || len(values) != 2 || values[1] != 7 {
		t.Fatalf("Data = %#v", spec.Data.Datasets[0].Data)
	}
	if !spec.Options.Responsive {
		t.Fatal("Responsive should be true")
	}
	if spec.Options.Plugins.Title.Text != "total by category" {
		t.Fatalf("Title = %q", spec.Options.Plugins.Title.Text)
	}
}

func TestGenerateLineUsesOverInTitle(t *testing.T) {
	spec := Generate(TypeLine, []string{"month", "revenue"}, []target.Row{
		{"month": "jan", "revenue": "100.5"},
	})
	if spec == nil {
		t.Fatal("Generate() = nil")
	}
	if spec.Options.Plugins.Title.Text != "revenue over month" {
		t.Fatalf("Title = %q", spec.Options.Plugins.Title.Text)
	}
}

func TestGenerateSkipsUnparseableRows(t *testing.T) {
	spec := Generate(TypeBar, []string{"a", "b"}, []target.Row{
		{"a": "x", "b": "not-a-number"},
		{"a": "y", "b": "3.5"},
	})
	if spec == nil {
		t.Fatal("Generate() = nil")
	}
	if len(spec.Data.Labels) != 1 || spec.Data.Labels[0] != "y" {
		t.Fatalf("Labels = %v", spec.Data.Labels)
	}
}

func TestGenerateReturnsNilWhenNothingParses(t *testing.T) {
	spec := Generate(TypeBar, []string{"a", "b"}, []target.Row{
		{"a": "x", "b": "not-a-number"},
	})
	if spec != nil {
		t.Fatalf("Generate() = %+v, want nil", spec)
	}
}

func TestGenerateReturnsNilForTooFewColumns(t *testing.T) {
	if spec := Generate(TypeBar, []string{"only"}, []target.Row{{"only": 1}}); spec != nil {
		t.Fatal("expected nil for single-column bar")
	}
	if spec := Generate(TypeScatter, []string{"x", "y"}, []target.Row{{"x": 1, "y": 2}}); spec != nil {
		t.Fatal("expected nil for two-column scatter")
	}
}

func TestGeneratePieCyclesPalette(t *testing.T) {
	rows := make([]target.Row, 7)
	for i := range rows {
		rows[i] = target.Row{"k": "c", "v": float64(i)}
	}
	spec := Generate(TypePie, []string{"k", "v"}, rows)
	if spec == nil {
		t.Fatal("Generate() = nil")
	}
	colors, ok := spec.Data.Datasets[0].BackgroundColor.([]string)
	if !ok || len(colors) != 7 {
		t.Fatalf("BackgroundColor = %#v", spec.Data.Datasets[0].BackgroundColor)
	}
	if colors[5] != colors[0] || colors[6] != colors[1] {
		t.Fatalf("palette should cycle, got %v", colors)
	}
}

func TestGenerateScatterBuildsPointsWithAxisTitles(t *testing.T) {
	spec := Generate(TypeScatter, []string{"price", "rating", "product"}, []target.Row{
		{"price": 9.99, "rating": 4.5, "product": "pen"},
		{"price": "bad", "rating": 3.0, "product": "ruler"},
		{"price": 2.5, "rating": "oops", "product": "tape"},
	})
	if spec == nil {
		t.Fatal("Generate() = nil")
	}
	points, ok := spec.Data.Datasets[0].Data.([]Point)
	if !ok || len(points) != 1 {
		t.Fatalf("points = %#v", spec.Data.Datasets[0].Data)
	}
	if points[0].Label != "pen" {
		t.Fatalf("Label = %q", points[0].Label)
	}
	if spec.Options.Scales["x"].Title.Text != "price" || spec.Options.Scales["y"].Title.Text != "rating" {
		t.Fatalf("Scales = %+v", spec.Options.Scales)
	}
}

func TestGenerateReturnsNilForEmptyRows(t *testing.T) {
	if spec := Generate(TypeBar, []string{"a", "b"}, nil); spec != nil {
		t.Fatal("expected nil for empty rows")
	}
}

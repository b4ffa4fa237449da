package chart

import (
	"fmt"
	"strconv"

	"github.com/askdb/askdb/internal/target"
)

// Spec mirrors the Chart.js configuration object consumed by rendering
// clients: {type, data: {labels?, datasets}, options}.
type Spec struct {
	Type    Type    `json:"type"`
	Data    Data    `json:"data"`
	Options Options `json:"options"`
}

type Data struct {
	Labels   []string  `json:"labels,omitempty"`
	Datasets []Dataset `json:"datasets"`
}

type Dataset struct {
	Label           string  `json:"label,omitempty"`
	Data            any     `json:"data"`
	BackgroundColor any     `json:"backgroundColor,omitempty"`
	BorderColor     string  `json:"borderColor,omitempty"`
	BorderWidth     int     `json:"borderWidth,omitempty"`
	Tension         float64 `json:"tension,omitempty"`
}

type Options struct {
	Responsive bool             `json:"responsive"`
	Plugins    Plugins          `json:"plugins"`
	Scales     map[string]Scale `json:"scales,omitempty"`
}

type Plugins struct {
	Title Title `json:"title"`
}

type Title struct {
	Display bool   `json:"display"`
	Text    string `json:"text"`
}

type Scale struct {
	Title Title `json:"title"`
}

type Point struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label,omitempty"`
}

var piePalette = []string{
	"rgba(54, 162, 235, 0.6)",
	"rgba(255, 99, 132, 0.6)",
	"rgba(255, 206, 86, 0.6)",
	"rgba(75, 192, 192, 0.6)",
	"rgba(153, 102, 255, 0.6)",
}

// Generate shapes result rows into a chart of the given type. It returns nil
// whenever a usable chart cannot be built: too few columns, or no row with a
// parseable numeric value. Rows with unparseable values are skipped, not
// reported; partial charting from mixed-quality data is acceptable.
func Generate(chartType Type, columns []string, rows []target.Row) *Spec {
	if len(rows) == 0 {
		return nil
	}
	switch chartType {
	case TypeBar, TypeLine, TypePie:
		return generateCategorical(chartType, columns, rows)
	case TypeScatter:
		return generateScatter(columns, rows)
	default:
		return nil
	}
}

func generateCategorical(chartType Type, columns []string, rows []target.Row) *Spec {
	if len(columns) < 2 {
		return nil
	}
	labelColumn, valueColumn := columns[0], columns[1]

	labels := make([]string, 0, len(rows))
	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		value, ok := toFloat(row[valueColumn])
		if !ok {
			continue
		}
		labels = append(labels, stringify(row[labelColumn]))
		values = append(values, value)
	}
	if len(values) == 0 {
		return nil
	}

	dataset := Dataset{Label: valueColumn, Data: values}
	switch chartType {
	case TypeBar:
		dataset.BackgroundColor = piePalette[0]
		dataset.BorderColor = "rgba(54, 162, 235, 1)"
		dataset.BorderWidth = 1
	case TypeLine:
		dataset.BorderColor = "rgba(75, 192, 192, 1)"
		dataset.BackgroundColor = "rgba(75, 192, 192, 0.2)"
		dataset.Tension = 0.1
	case TypePie:
		colors := make([]string, len(values))
		for i := range colors {
			colors[i] = piePalette[i%len(piePalette)]
		}
		dataset.BackgroundColor = colors
		dataset.BorderWidth = 1
	}

	joiner := "by"
	if chartType == TypeLine {
		joiner = "over"
	}
	return &Spec{
		Type: chartType,
		Data: Data{Labels: labels, Datasets: []Dataset{dataset}},
		Options: Options{
			Responsive: true,
			Plugins: Plugins{
				Title: Title{Display: true, Text: fmt.Sprintf("%s %s %s", valueColumn, joiner, labelColumn)},
			},
		},
	}
}

func generateScatter(columns []string, rows []target.Row) *Spec {
	if len(columns) < 3 {
		return nil
	}
	xColumn, yColumn, labelColumn := columns[0], columns[1], columns[2]

	points := make([]Point, 0, len(rows))
	for _, row := range rows {
		x, okX := toFloat(row[xColumn])
		y, okY := toFloat(row[yColumn])
		if !okX || !okY {
			continue
		}
		point := Point{X: x, Y: y}
		if value, present := row[labelColumn]; present && value != nil {
			point.Label = stringify(value)
		}
		points = append(points, point)
	}
	if len(points) == 0 {
		return nil
	}

	return &Spec{
		Type: TypeScatter,
		Data: Data{Datasets: []Dataset{{
			Label:           fmt.Sprintf("%s vs %s", yColumn, xColumn),
			Data:            points,
			BackgroundColor: piePalette[0],
		}}},
		Options: Options{
			Responsive: true,
			Plugins: Plugins{
				Title: Title{Display: true, Text: fmt.Sprintf("%s vs %s", yColumn, xColumn)},
			},
			Scales: map[string]Scale{
				"x": {Title: Title{Display: true, Text: xColumn}},
				"y": {Title: Title{Display: true, Text: yColumn}},
			},
		},
	}
}

func toFloat(value any) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case int:
		return float64(typed), true
	case int32:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case uint64:
		return float64(typed), true
	case string:
		parsed, err := strconv.ParseFloat(typed, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	case []byte:
		parsed, err := strconv.ParseFloat(string(typed), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func stringify(value any) string {
	if value == nil {
		return "null"
	}
	if b, ok := value.([]byte); ok {
		return string(b)
	}
	return fmt.Sprintf("%v", value)
}

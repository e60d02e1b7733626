package plan

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/sheetpilot/sheetpilot/internal/sheet"
)

// ChartConfig is a Chart.js configuration rendered inline in the chat reply,
// alongside the createChart action that draws the chart in the sheet itself.
type ChartConfig struct {
	Type    string       `json:"type"`
	Data    ChartData    `json:"data"`
	Options ChartOptions `json:"options"`
}

type ChartData struct {
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

type ChartDataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BackgroundColor any       `json:"backgroundColor"` // string, or []string for pie/doughnut
	BorderColor     string    `json:"borderColor"`
	BorderWidth     int       `json:"borderWidth"`
}

type ChartOptions struct {
	Responsive bool         `json:"responsive"`
	Plugins    ChartPlugins `json:"plugins"`
}

type ChartPlugins struct {
	Legend ChartLegend `json:"legend"`
}

type ChartLegend struct {
	Display bool `json:"display"`
}

var chartPalette = []string{
	"#10B981", "#06B6D4", "#F59E0B", "#EF4444",
	"#8B5CF6", "#4F46E5", "#EC4899", "#F97316",
	"#14B8A6", "#6366F1", "#D946EF", "#84CC16",
}

// InlineChart builds a chart config over at most 15 label/value pairs.
// Unknown chart types fall back to bar; pie and doughnut color per slice.
func InlineChart(labels []string, values []float64, valueHeader, chartType string) *ChartConfig {
	if len(labels) > 15 {
		labels = labels[:15]
	}
	if len(values) > len(labels) {
		values = values[:len(labels)]
	}
	if len(labels) == 0 {
		return nil
	}

	switch chartType {
	case "bar", "line", "pie", "doughnut":
	default:
		chartType = "bar"
	}
	multi := chartType == "pie" || chartType == "doughnut"

	var background any = chartPalette[0]
	if multi {
		background = chartPalette[:min(len(labels), len(chartPalette))]
	}

	return &ChartConfig{
		Type: chartType,
		Data: ChartData{
			Labels: labels,
			Datasets: []ChartDataset{{
				Label:           valueHeader,
				Data:            values,
				BackgroundColor: background,
				BorderColor:     chartPalette[0],
				BorderWidth:     1,
			}},
		},
		Options: ChartOptions{
			Responsive: true,
			Plugins:    ChartPlugins{Legend: ChartLegend{Display: multi}},
		},
	}
}

// InlineChartFromCells aggregates raw cell data by group and builds an
// inline chart of the result, sorted by value descending. Returns nil when
// the cells hold nothing chartable.
func InlineChartFromCells(cells sheet.CellMap, groupCol, valueCol, valueHeader, aggregation, chartType string) *ChartConfig {
	if len(cells) == 0 {
		return nil
	}

	groups := make(map[int]string)   // row -> group label
	numbers := make(map[int]float64) // row -> value
	for ref, val := range cells {
		col, row, ok := sheet.ParseRef(ref)
		if !ok || row < 2 {
			continue
		}
		switch col {
		case groupCol:
			groups[row] = strings.TrimSpace(val)
		case valueCol:
			cleaned := strings.NewReplacer(",", "", "$", "", "%", "").Replace(val)
			if f, err := strconv.ParseFloat(strings.TrimSpace(cleaned), 64); err == nil {
				numbers[row] = f
			}
		}
	}
	if len(groups) == 0 {
		return nil
	}

	byGroup := make(map[string][]float64)
	groupRows := make(map[string]int)
	for row, g := range groups {
		if g == "" {
			continue
		}
		groupRows[g]++
		if _, ok := byGroup[g]; !ok {
			byGroup[g] = nil
		}
		if v, ok := numbers[row]; ok {
			byGroup[g] = append(byGroup[g], v)
		}
	}
	if len(byGroup) == 0 {
		return nil
	}

	results := make(map[string]float64)
	for g, vals := range byGroup {
		if len(vals) == 0 {
			if aggregation == "count" {
				results[g] = float64(groupRows[g])
			}
			continue
		}
		switch aggregation {
		case "count":
			results[g] = float64(groupRows[g])
		case "avg":
			results[g] = sum(vals) / float64(len(vals))
		case "max":
			m := vals[0]
			for _, v := range vals[1:] {
				if v > m {
					m = v
				}
			}
			results[g] = m
		case "min":
			m := vals[0]
			for _, v := range vals[1:] {
				if v < m {
					m = v
				}
			}
			results[g] = m
		default: // sum
			results[g] = sum(vals)
		}
	}
	if len(results) == 0 {
		return nil
	}

	labels := make([]string, 0, len(results))
	for g := range results {
		labels = append(labels, g)
	}
	sort.Slice(labels, func(i, j int) bool {
		if results[labels[i]] != results[labels[j]] {
			return results[labels[i]] > results[labels[j]]
		}
		return labels[i] < labels[j]
	})

	values := make([]float64, len(labels))
	for i, g := range labels {
		values[i] = math.Round(results[g]*100) / 100
	}

	return InlineChart(labels, values, valueHeader, chartType)
}

func sum(vals []float64) float64 {
	var s float64
	for _, v := range vals {
		s += v
	}
	return s
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

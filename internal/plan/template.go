// Package plan turns a classified request into a concrete action sequence.
// Known request shapes are expanded by deterministic templates so that only
// the classification itself costs an LLM call; everything here is pure
// string assembly over sheet metadata.
package plan

import (
	"fmt"
	"strings"

	"github.com/sheetpilot/sheetpilot/internal/action"
)

// GroupedSummaryParams describes one grouped aggregation over a source sheet.
type GroupedSummaryParams struct {
	SheetName   string
	LastRow     int
	GroupColumn string
	GroupHeader string
	ValueColumn string
	ValueHeader string
	Aggregation string // sum, count, avg, max, min
	UniqueCount int    // distinct group values, sizes the fill-down
}

// ValueColumn pairs a column letter with its header.
type ValueColumn struct {
	Letter string
	Header string
}

// SummarySheetName returns the name of the summary sheet a template creates
// for the given group header.
func SummarySheetName(groupHeader string) string {
	return groupHeader + " Summary"
}

func aggregationFormula(p GroupedSummaryParams) string {
	src := func(col string) string {
		return fmt.Sprintf("'%s'!%s2:%s%d", p.SheetName, col, col, p.LastRow)
	}
	switch p.Aggregation {
	case "count":
		return fmt.Sprintf("=COUNTIF(%s, A2)", src(p.GroupColumn))
	case "avg":
		return fmt.Sprintf("=AVERAGEIF(%s, A2, %s)", src(p.GroupColumn), src(p.ValueColumn))
	case "max":
		return fmt.Sprintf("=MAXIFS(%s, %s, A2)", src(p.ValueColumn), src(p.GroupColumn))
	case "min":
		return fmt.Sprintf("=MINIFS(%s, %s, A2)", src(p.ValueColumn), src(p.GroupColumn))
	default: // sum
		return fmt.Sprintf("=SUMIF(%s, A2, %s)", src(p.GroupColumn), src(p.ValueColumn))
	}
}

func headerFormat(sheet, rng string) *action.FormatRange {
	bold := true
	return &action.FormatRange{
		Sheet:      sheet,
		Range:      rng,
		Bold:       &bold,
		Background: "#4472C4",
		FontColor:  "#FFFFFF",
	}
}

// GroupedSummary expands "sum of X by Y" style requests: a new summary sheet
// with UNIQUE group labels in column A and one bounded aggregation formula
// filled down column B.
func GroupedSummary(p GroupedSummaryParams) []action.Action {
	summary := SummarySheetName(p.GroupHeader)
	aggUpper := strings.ToUpper(p.Aggregation)
	fillDownRow := 1 + p.UniqueCount

	return []action.Action{
		&action.CreateSheet{Name: summary},
		&action.SetValues{
			Sheet:  summary,
			Range:  "A1:B1",
			Values: [][]any{{p.GroupHeader, fmt.Sprintf("%s of %s", aggUpper, p.ValueHeader)}},
		},
		headerFormat(summary, "A1:B1"),
		&action.SetFormula{
			Sheet:   summary,
			Cell:    "A2",
			Formula: fmt.Sprintf("=UNIQUE('%s'!%s2:%s%d)", p.SheetName, p.GroupColumn, p.GroupColumn, p.LastRow),
		},
		&action.SetFormula{Sheet: summary, Cell: "B2", Formula: aggregationFormula(p)},
		&action.AutoFillDown{Sheet: summary, SourceCell: "B2", LastRow: fillDownRow},
	}
}

// GroupedSummaryChart is GroupedSummary plus a chart over the summary range.
func GroupedSummaryChart(p GroupedSummaryParams, chartType string) []action.Action {
	actions := GroupedSummary(p)

	aggUpper := strings.ToUpper(p.Aggregation)
	return append(actions, &action.CreateChart{
		ChartType:   chartType,
		Title:       fmt.Sprintf("%s of %s by %s", aggUpper, p.ValueHeader, p.GroupHeader),
		DataSheet:   SummarySheetName(p.GroupHeader),
		LabelColumn: "A",
		ValueColumn: "B",
		StartRow:    2,
		EndRow:      1 + p.UniqueCount,
	})
}

// MultiValueSummaryParams describes a grouped summary over several value
// columns at once, one summary column per metric.
type MultiValueSummaryParams struct {
	SheetName    string
	LastRow      int
	GroupColumn  string
	GroupHeader  string
	ValueColumns []ValueColumn
	ChartType    string
	UniqueCount  int
}

// MultiValueSummaryChart expands "chart of sales AND profit by region":
// SUMIF per value column, fill-down per column, one chart on the first metric.
func MultiValueSummaryChart(p MultiValueSummaryParams) []action.Action {
	summary := SummarySheetName(p.GroupHeader)

	headers := make([]any, 0, 1+len(p.ValueColumns))
	headers = append(headers, p.GroupHeader)
	for _, vc := range p.ValueColumns {
		headers = append(headers, "Total "+vc.Header)
	}
	headerRange := fmt.Sprintf("A1:%c1", rune('A'+len(p.ValueColumns)))

	actions := []action.Action{
		&action.CreateSheet{Name: summary},
		&action.SetValues{Sheet: summary, Range: headerRange, Values: [][]any{headers}},
		headerFormat(summary, headerRange),
		&action.SetFormula{
			Sheet:   summary,
			Cell:    "A2",
			Formula: fmt.Sprintf("=UNIQUE('%s'!%s2:%s%d)", p.SheetName, p.GroupColumn, p.GroupColumn, p.LastRow),
		},
	}

	for i, vc := range p.ValueColumns {
		cell := fmt.Sprintf("%c2", rune('B'+i))
		formula := fmt.Sprintf(
			"=SUMIF('%s'!%s2:%s%d, A2, '%s'!%s2:%s%d)",
			p.SheetName, p.GroupColumn, p.GroupColumn, p.LastRow,
			p.SheetName, vc.Letter, vc.Letter, p.LastRow,
		)
		actions = append(actions, &action.SetFormula{Sheet: summary, Cell: cell, Formula: formula})
	}

	fillDownRow := 1 + p.UniqueCount
	for i := range p.ValueColumns {
		actions = append(actions, &action.AutoFillDown{
			Sheet:      summary,
			SourceCell: fmt.Sprintf("%c2", rune('B'+i)),
			LastRow:    fillDownRow,
		})
	}

	return append(actions, &action.CreateChart{
		ChartType:   p.ChartType,
		Title:       summary,
		DataSheet:   summary,
		LabelColumn: "A",
		ValueColumn: "B",
		StartRow:    2,
		EndRow:      fillDownRow,
	})
}

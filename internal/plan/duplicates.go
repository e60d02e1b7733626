package plan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sheetpilot/sheetpilot/internal/action"
	"github.com/sheetpilot/sheetpilot/internal/sheet"
)

// DuplicateEntry is one value that appears more than once in a column.
type DuplicateEntry struct {
	Value  string
	Header string
	Count  int
	Rows   []int // ascending
}

// DuplicatesResult is the expanded find-duplicates template: the actions to
// run, the chat response, and chart data over the top duplicates.
type DuplicatesResult struct {
	Actions  []action.Action
	Response string
	Entries  []DuplicateEntry
	Chart    *ChartConfig
}

// ReportSheetName is the sheet the duplicates template writes its report to.
const ReportSheetName = "Duplicates Report"

// FindDuplicates scans cell data for values appearing minCount or more times
// within a column, builds a report sheet, and highlights the affected rows in
// the source sheet. Row 1 is treated as headers and skipped.
func FindDuplicates(sheetName string, columns []ValueColumn, cells sheet.CellMap, highlightColor string, minCount int) DuplicatesResult {
	if minCount < 2 {
		minCount = 2
	}

	headerFor := make(map[string]string, len(columns))
	letters := make([]string, 0, len(columns))
	for _, c := range columns {
		if _, ok := headerFor[c.Letter]; !ok {
			letters = append(letters, c.Letter)
		}
		headerFor[c.Letter] = c.Header
	}
	sheet.SortColumnLetters(letters)

	// Per column: row -> trimmed value, data rows only.
	byColumn := make(map[string]map[int]string, len(letters))
	for ref, val := range cells {
		col, row, ok := sheet.ParseRef(ref)
		if !ok || row < 2 {
			continue
		}
		if _, watched := headerFor[col]; !watched {
			continue
		}
		v := strings.TrimSpace(val)
		if v == "" {
			continue
		}
		if byColumn[col] == nil {
			byColumn[col] = make(map[int]string)
		}
		byColumn[col][row] = v
	}

	var entries []DuplicateEntry
	highlightRows := make(map[int]bool)

	for _, col := range letters {
		colRows := byColumn[col]
		if colRows == nil {
			continue
		}
		rows := make([]int, 0, len(colRows))
		for r := range colRows {
			rows = append(rows, r)
		}
		sort.Ints(rows)

		rowsByValue := make(map[string][]int)
		var order []string
		for _, r := range rows {
			v := colRows[r]
			if _, seen := rowsByValue[v]; !seen {
				order = append(order, v)
			}
			rowsByValue[v] = append(rowsByValue[v], r)
		}

		for _, v := range order {
			vr := rowsByValue[v]
			if len(vr) < minCount {
				continue
			}
			entries = append(entries, DuplicateEntry{
				Value:  v,
				Header: headerFor[col],
				Count:  len(vr),
				Rows:   vr,
			})
			for _, r := range vr {
				highlightRows[r] = true
			}
		}
	}

	if len(entries) == 0 {
		return DuplicatesResult{
			Response: "No duplicate values found in the selected columns.",
		}
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Count > entries[j].Count })

	actions := []action.Action{
		&action.CreateSheet{Name: ReportSheetName},
		&action.SetValues{
			Sheet:  ReportSheetName,
			Range:  "A1:D1",
			Values: [][]any{{"Duplicate Value", "Column", "Count", "Found in Rows"}},
		},
		headerFormat(ReportSheetName, "A1:D1"),
	}

	reportRows := make([][]any, 0, len(entries))
	for _, e := range entries {
		reportRows = append(reportRows, []any{e.Value, e.Header, e.Count, formatRowList(e.Rows)})
	}
	actions = append(actions, &action.SetValues{
		Sheet:  ReportSheetName,
		Range:  fmt.Sprintf("A2:D%d", 1+len(reportRows)),
		Values: reportRows,
	})

	// Highlight duplicate rows in the source sheet out to the last checked column.
	lastCol := "A"
	if len(letters) > 0 {
		lastCol = letters[len(letters)-1]
	}
	rows := make([]int, 0, len(highlightRows))
	for r := range highlightRows {
		rows = append(rows, r)
	}
	sort.Ints(rows)
	for _, r := range rows {
		actions = append(actions, &action.FormatRange{
			Sheet:      sheetName,
			Range:      fmt.Sprintf("A%d:%s%d", r, lastCol, r),
			Background: highlightColor,
		})
	}

	response := fmt.Sprintf(
		"Found **%d duplicate value(s)** across **%d rows**. "+
			"Highlighted duplicate rows in red and created a '%s' sheet with details.",
		len(entries), len(rows), ReportSheetName,
	)

	top := entries
	if len(top) > 15 {
		top = top[:15]
	}
	labels := make([]string, 0, len(top))
	values := make([]float64, 0, len(top))
	for _, e := range top {
		v := e.Value
		if len(v) > 20 {
			v = v[:20]
		}
		labels = append(labels, fmt.Sprintf("%s (%s)", v, e.Header))
		values = append(values, float64(e.Count))
	}

	return DuplicatesResult{
		Actions:  actions,
		Response: response,
		Entries:  entries,
		Chart:    InlineChart(labels, values, "Duplicate Count", "bar"),
	}
}

func formatRowList(rows []int) string {
	shown := rows
	if len(shown) > 20 {
		shown = shown[:20]
	}
	parts := make([]string, len(shown))
	for i, r := range shown {
		parts[i] = fmt.Sprintf("%d", r)
	}
	s := strings.Join(parts, ", ")
	if len(rows) > 20 {
		s += fmt.Sprintf(" (+%d more)", len(rows)-20)
	}
	return s
}

package plan

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sheetpilot/sheetpilot/internal/action"
	"github.com/sheetpilot/sheetpilot/internal/sheet"
)

func duplicateCells() sheet.CellMap {
	return sheet.CellMap{
		"A1": "Email", "B1": "Name",
		"A2": "a@x.com", "B2": "Ann",
		"A3": "b@x.com", "B3": "Bob",
		"A4": "a@x.com", "B4": "Ann B",
		"A5": "c@x.com", "B5": "Cal",
		"A6": "a@x.com", "B6": "Ann C",
	}
}

func TestFindDuplicates_Basic(t *testing.T) {
	cols := []ValueColumn{{Letter: "A", Header: "Email"}, {Letter: "B", Header: "Name"}}
	res := FindDuplicates("Sheet1", cols, duplicateCells(), "#FFCDD2", 2)

	if len(res.Entries) != 1 {
		t.Fatalf("entries = %+v, want one", res.Entries)
	}
	e := res.Entries[0]
	if e.Value != "a@x.com" || e.Header != "Email" || e.Count != 3 {
		t.Errorf("entry = %+v", e)
	}
	if len(e.Rows) != 3 || e.Rows[0] != 2 || e.Rows[2] != 6 {
		t.Errorf("rows = %v, want [2 4 6]", e.Rows)
	}

	if !strings.Contains(res.Response, "**1 duplicate value(s)**") ||
		!strings.Contains(res.Response, "**3 rows**") {
		t.Errorf("response = %q", res.Response)
	}

	// createSheet, header values, header format, report rows, 3 highlights.
	if len(res.Actions) != 7 {
		t.Fatalf("got %d actions, want 7", len(res.Actions))
	}

	cs := res.Actions[0].(*action.CreateSheet)
	if cs.Name != "Duplicates Report" {
		t.Errorf("report sheet = %q", cs.Name)
	}

	report := res.Actions[3].(*action.SetValues)
	if report.Range != "A2:D2" {
		t.Errorf("report range = %q", report.Range)
	}
	row := report.Values[0]
	if row[0] != "a@x.com" || row[1] != "Email" || row[2] != 3 || row[3] != "2, 4, 6" {
		t.Errorf("report row = %v", row)
	}

	hl := res.Actions[4].(*action.FormatRange)
	if hl.Sheet != "Sheet1" || hl.Range != "A2:B2" || hl.Background != "#FFCDD2" {
		t.Errorf("highlight = %#v", hl)
	}

	if res.Chart == nil || res.Chart.Type != "bar" {
		t.Fatalf("chart = %#v", res.Chart)
	}
	if res.Chart.Data.Labels[0] != "a@x.com (Email)" || res.Chart.Data.Datasets[0].Data[0] != 3 {
		t.Errorf("chart data = %#v", res.Chart.Data)
	}
}

func TestFindDuplicates_None(t *testing.T) {
	cells := sheet.CellMap{"A1": "ID", "A2": "1", "A3": "2"}
	res := FindDuplicates("Sheet1", []ValueColumn{{Letter: "A", Header: "ID"}}, cells, "#FFCDD2", 2)

	if len(res.Actions) != 0 || len(res.Entries) != 0 || res.Chart != nil {
		t.Errorf("result = %+v, want empty", res)
	}
	if res.Response != "No duplicate values found in the selected columns." {
		t.Errorf("response = %q", res.Response)
	}
}

func TestFindDuplicates_ColumnFilter(t *testing.T) {
	// Only column B is checked; the duplicates in A are ignored.
	cells := duplicateCells()
	cells["B4"] = "Ann"
	res := FindDuplicates("Sheet1", []ValueColumn{{Letter: "B", Header: "Name"}}, cells, "#FFCDD2", 2)

	if len(res.Entries) != 1 || res.Entries[0].Value != "Ann" {
		t.Fatalf("entries = %+v, want only Ann", res.Entries)
	}
	// Highlights span only to the last checked column.
	var hl *action.FormatRange
	for _, a := range res.Actions {
		if fr, ok := a.(*action.FormatRange); ok && fr.Sheet == "Sheet1" {
			hl = fr
			break
		}
	}
	if hl == nil || hl.Range != "A2:B2" {
		t.Errorf("highlight = %#v", hl)
	}
}

func TestFindDuplicates_MinCount(t *testing.T) {
	res := FindDuplicates("Sheet1", []ValueColumn{{Letter: "A", Header: "Email"}}, duplicateCells(), "#FFCDD2", 4)
	if len(res.Entries) != 0 {
		t.Errorf("entries = %+v, want none below min count", res.Entries)
	}
}

func TestFindDuplicates_RowListCap(t *testing.T) {
	cells := sheet.CellMap{"A1": "V"}
	for r := 2; r <= 31; r++ {
		cells[fmt.Sprintf("A%d", r)] = "dup"
	}
	res := FindDuplicates("Sheet1", []ValueColumn{{Letter: "A", Header: "V"}}, cells, "#FFCDD2", 2)

	report := res.Actions[3].(*action.SetValues)
	rowsStr := report.Values[0][3].(string)
	if !strings.HasSuffix(rowsStr, "(+10 more)") {
		t.Errorf("rows list = %q, want +10 more suffix", rowsStr)
	}
	if strings.Count(rowsStr, ",") != 19 {
		t.Errorf("rows list = %q, want 20 rows listed", rowsStr)
	}
}

func TestInlineChart(t *testing.T) {
	cfg := InlineChart([]string{"East", "West"}, []float64{70, 30}, "Sales", "pie")
	if cfg.Type != "pie" {
		t.Errorf("type = %q", cfg.Type)
	}
	if !cfg.Options.Plugins.Legend.Display {
		t.Error("pie chart should display legend")
	}
	if _, ok := cfg.Data.Datasets[0].BackgroundColor.([]string); !ok {
		t.Error("pie chart should color per slice")
	}

	cfg = InlineChart([]string{"East"}, []float64{70}, "Sales", "funnel")
	if cfg.Type != "bar" {
		t.Errorf("unknown type = %q, want bar fallback", cfg.Type)
	}

	if cfg := InlineChart(nil, nil, "Sales", "bar"); cfg != nil {
		t.Errorf("cfg = %#v, want nil for empty data", cfg)
	}
}

func TestInlineChartFromCells(t *testing.T) {
	cells := sheet.CellMap{
		"A1": "Region", "B1": "Sales",
		"A2": "East", "B2": "$100",
		"A3": "West", "B3": "200",
		"A4": "East", "B4": "50",
	}
	cfg := InlineChartFromCells(cells, "A", "B", "Sales", "sum", "bar")
	if cfg == nil {
		t.Fatal("cfg = nil")
	}
	if cfg.Data.Labels[0] != "West" || cfg.Data.Labels[1] != "East" {
		t.Errorf("labels = %v, want sorted by value desc", cfg.Data.Labels)
	}
	if cfg.Data.Datasets[0].Data[0] != 200 || cfg.Data.Datasets[0].Data[1] != 150 {
		t.Errorf("data = %v", cfg.Data.Datasets[0].Data)
	}

	cfg = InlineChartFromCells(cells, "A", "B", "Sales", "count", "bar")
	if cfg.Data.Labels[0] != "East" || cfg.Data.Datasets[0].Data[0] != 2 {
		t.Errorf("count chart = %v %v", cfg.Data.Labels, cfg.Data.Datasets[0].Data)
	}

	if cfg := InlineChartFromCells(sheet.CellMap{}, "A", "B", "Sales", "sum", "bar"); cfg != nil {
		t.Errorf("cfg = %#v, want nil for no cells", cfg)
	}
}

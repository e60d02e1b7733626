package plan

import (
	"context"
	"testing"

	"github.com/sheetpilot/sheetpilot/internal/action"
	"github.com/sheetpilot/sheetpilot/internal/classify"
	"github.com/sheetpilot/sheetpilot/internal/llm"
	"github.com/sheetpilot/sheetpilot/internal/sheet"
)

func salesMeta() *sheet.SheetMetadata {
	return &sheet.SheetMetadata{
		SheetName: "Sheet1",
		TotalRows: 4,
		DataRows:  3,
		LastRow:   4,
		Columns: []sheet.ColumnMetadata{
			{Letter: "A", Header: "Region", Type: sheet.TypeCategorical, UniqueCount: 2},
			{Letter: "B", Header: "Sales", Type: sheet.TypeNumeric, UniqueCount: 3},
		},
	}
}

func salesExecCells() sheet.CellMap {
	return sheet.CellMap{
		"A1": "Region", "B1": "Sales",
		"A2": "East", "B2": "10",
		"A3": "West", "B3": "20",
		"A4": "East", "B4": "15",
	}
}

func newExecutor(replies ...string) *Executor {
	return NewExecutor(classify.New(llm.NewScripted(replies...)), nil)
}

func TestExecute_GroupedSummary(t *testing.T) {
	e := newExecutor(`{"request_type": "grouped_summary", "group_by_column": "A", "value_column": "B", "aggregation": "sum"}`)

	res := e.Execute(context.Background(), "sum of sales by region", salesMeta(), salesExecCells())
	if res.RequestType != classify.GroupedSummary {
		t.Fatalf("RequestType = %s", res.RequestType)
	}
	if res.LLMCalls != 1 {
		t.Errorf("LLMCalls = %d, want 1", res.LLMCalls)
	}
	if len(res.Actions) != 6 {
		t.Fatalf("got %d actions, want 6", len(res.Actions))
	}

	cs := res.Actions[0].(*action.CreateSheet)
	if cs.Name != "Region Summary" {
		t.Errorf("sheet = %q", cs.Name)
	}
	unique := res.Actions[3].(*action.SetFormula)
	if unique.Formula != "=UNIQUE('Sheet1'!A2:A4)" {
		t.Errorf("unique = %q", unique.Formula)
	}
	agg := res.Actions[4].(*action.SetFormula)
	if agg.Formula != "=SUMIF('Sheet1'!A2:A4, A2, 'Sheet1'!B2:B4)" {
		t.Errorf("agg = %q", agg.Formula)
	}
	fd := res.Actions[5].(*action.AutoFillDown)
	if fd.LastRow != 3 {
		t.Errorf("fill down to %d, want 3", fd.LastRow)
	}

	if res.Chart == nil {
		t.Fatal("no inline chart")
	}
	if res.Chart.Data.Labels[0] != "East" || res.Chart.Data.Datasets[0].Data[0] != 25 {
		t.Errorf("chart = %v %v", res.Chart.Data.Labels, res.Chart.Data.Datasets[0].Data)
	}
	if res.Response != "Created summary of B by A." {
		t.Errorf("response = %q", res.Response)
	}
}

func TestExecute_GroupedSummaryChart_MultiValue(t *testing.T) {
	e := newExecutor(`{
		"request_type": "grouped_summary_chart",
		"group_by_column": "A",
		"group_by_header": "Region",
		"value_columns": [["B", "Sales"], ["C", "Profit"]],
		"chart_type": "bar"
	}`)

	res := e.Execute(context.Background(), "chart sales and profit by region", salesMeta(), salesExecCells())
	if len(res.Actions) != 9 {
		t.Fatalf("got %d actions, want 9 for two metrics", len(res.Actions))
	}
	chart := res.Actions[8].(*action.CreateChart)
	if chart.ValueColumn != "B" {
		t.Errorf("chart value column = %q, want first metric", chart.ValueColumn)
	}
}

func TestExecute_DefaultColumns(t *testing.T) {
	e := newExecutor(`{"request_type": "grouped_summary"}`)

	res := e.Execute(context.Background(), "summarize", nil, nil)
	agg := res.Actions[4].(*action.SetFormula)
	if agg.Formula != "=SUMIF('Sheet1'!A2:A100, A2, 'Sheet1'!B2:B100)" {
		t.Errorf("agg = %q, want A/B columns with default last row", agg.Formula)
	}
	cs := res.Actions[0].(*action.CreateSheet)
	if cs.Name != "Category Summary" {
		t.Errorf("sheet = %q", cs.Name)
	}
}

func TestExecute_SimpleQuestion(t *testing.T) {
	e := newExecutor(`{"request_type": "simple_question", "answer": "3 data rows."}`)

	res := e.Execute(context.Background(), "how many rows?", salesMeta(), nil)
	if len(res.Actions) != 0 {
		t.Errorf("actions = %v, want none", res.Actions)
	}
	if res.Response != "3 data rows." {
		t.Errorf("response = %q", res.Response)
	}
}

func TestExecute_FindDuplicates(t *testing.T) {
	e := newExecutor(`{"request_type": "find_duplicates", "duplicate_columns": ["A"]}`)

	res := e.Execute(context.Background(), "find duplicate regions", salesMeta(), salesExecCells())
	if res.RequestType != classify.FindDuplicates {
		t.Fatalf("RequestType = %s", res.RequestType)
	}
	if len(res.Actions) == 0 {
		t.Fatal("no actions for duplicated East rows")
	}
	cs := res.Actions[0].(*action.CreateSheet)
	if cs.Name != ReportSheetName {
		t.Errorf("sheet = %q", cs.Name)
	}
}

func TestExecute_FindDuplicates_NoMetadata(t *testing.T) {
	e := newExecutor(`{"request_type": "find_duplicates"}`)

	res := e.Execute(context.Background(), "find duplicates", nil, nil)
	if res.Response != "No columns found to check for duplicates." {
		t.Errorf("response = %q", res.Response)
	}
}

func TestExecute_ComplexCustomPlan(t *testing.T) {
	e := newExecutor(`{"request_type": "complex", "plan": [{"action": "freeze", "rows": 1}]}`)

	res := e.Execute(context.Background(), "freeze the header", salesMeta(), nil)
	if len(res.RawActions) != 1 {
		t.Fatalf("RawActions = %v", res.RawActions)
	}
	if res.Response != "Executed custom plan." {
		t.Errorf("response = %q", res.Response)
	}
}

func TestExecute_ClassifierFailure(t *testing.T) {
	e := newExecutor() // scripted client with no responses errors out
	res := e.Execute(context.Background(), "anything", salesMeta(), nil)
	if res.RequestType != classify.Complex {
		t.Errorf("RequestType = %s, want complex fallback", res.RequestType)
	}
	if len(res.Actions) != 0 || len(res.RawActions) != 0 {
		t.Errorf("fallback should not emit actions")
	}
}

package plan

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sheetpilot/sheetpilot/internal/action"
	"github.com/sheetpilot/sheetpilot/internal/classify"
	"github.com/sheetpilot/sheetpilot/internal/config"
	"github.com/sheetpilot/sheetpilot/internal/sheet"
)

// Result is the outcome of one planned request.
type Result struct {
	Actions     []action.Action
	RawActions  []json.RawMessage // model-proposed plan for complex requests, unvalidated
	Response    string
	RequestType classify.RequestType
	LLMCalls    int
	Chart       *ChartConfig
}

// Executor classifies a request and expands it through the matching template.
// Known shapes cost exactly one model call; everything else degrades to the
// complex path.
type Executor struct {
	classifier *classify.Classifier
	cfg        *config.Config
}

// NewExecutor wires a classifier and config into an executor.
func NewExecutor(classifier *classify.Classifier, cfg *config.Config) *Executor {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Executor{classifier: classifier, cfg: cfg}
}

// Execute runs the classify-then-template pipeline for one request.
func (e *Executor) Execute(ctx context.Context, userRequest string, meta *sheet.SheetMetadata, cells sheet.CellMap) *Result {
	req := e.classifier.Classify(ctx, userRequest, meta)

	res := &Result{RequestType: req.Type, LLMCalls: 1}

	switch req.Type {
	case classify.SimpleQuestion:
		res.Response = req.Answer
		if res.Response == "" {
			res.Response = "I can help with that. What would you like to know?"
		}

	case classify.GroupedSummary:
		p := e.summaryParams(req, meta)
		res.Actions = GroupedSummary(p)
		res.Chart = InlineChartFromCells(cells, p.GroupColumn, p.ValueColumn, p.ValueHeader, p.Aggregation, "bar")
		res.Response = fmt.Sprintf("Created summary of %s by %s.", p.ValueColumn, p.GroupColumn)

	case classify.GroupedSummaryChart:
		p := e.summaryParams(req, meta)
		if len(req.ValueColumns) > 1 {
			res.Actions = MultiValueSummaryChart(MultiValueSummaryParams{
				SheetName:    p.SheetName,
				LastRow:      p.LastRow,
				GroupColumn:  p.GroupColumn,
				GroupHeader:  p.GroupHeader,
				ValueColumns: toValueColumns(req.ValueColumns),
				ChartType:    req.ChartType,
				UniqueCount:  p.UniqueCount,
			})
		} else {
			res.Actions = GroupedSummaryChart(p, req.ChartType)
		}
		res.Chart = InlineChartFromCells(cells, p.GroupColumn, p.ValueColumn, p.ValueHeader, p.Aggregation, req.ChartType)
		res.Response = fmt.Sprintf("Created summary with %s chart.", req.ChartType)

	case classify.FindDuplicates:
		columns := duplicateColumns(req, meta)
		if len(columns) == 0 {
			res.Response = "No columns found to check for duplicates."
			return res
		}
		dup := FindDuplicates(sheetName(meta), columns, cells, e.cfg.HighlightColor, e.cfg.DuplicateMinCount)
		res.Actions = dup.Actions
		res.Response = dup.Response
		res.Chart = dup.Chart

	case classify.Complex:
		if len(req.CustomPlan) > 0 {
			res.RawActions = req.CustomPlan
			res.Response = "Executed custom plan."
		} else {
			res.Response = "This request needs a custom plan; no template applies."
		}

	default:
		res.Response = fmt.Sprintf("Request type %s is not supported by a template yet.", req.Type)
	}

	return res
}

func sheetName(meta *sheet.SheetMetadata) string {
	if meta == nil || meta.SheetName == "" {
		return "Sheet1"
	}
	return meta.SheetName
}

// summaryParams resolves classifier output against metadata, falling back to
// column A/B and generic headers when the model left gaps.
func (e *Executor) summaryParams(req *classify.Request, meta *sheet.SheetMetadata) GroupedSummaryParams {
	p := GroupedSummaryParams{
		SheetName:   sheetName(meta),
		LastRow:     100,
		GroupColumn: req.GroupByColumn,
		GroupHeader: "Category",
		ValueColumn: req.ValueColumn,
		ValueHeader: "Value",
		Aggregation: req.Aggregation,
		UniqueCount: 10,
	}
	if p.GroupColumn == "" {
		p.GroupColumn = "A"
	}
	if p.ValueColumn == "" {
		p.ValueColumn = "B"
	}
	if p.Aggregation == "" {
		p.Aggregation = "sum"
	}
	if meta == nil {
		return p
	}
	if meta.LastRow > 0 {
		p.LastRow = meta.LastRow
	}
	for _, col := range meta.Columns {
		if col.Letter == p.GroupColumn {
			if col.Header != "" {
				p.GroupHeader = col.Header
			}
			if col.UniqueCount > 0 {
				p.UniqueCount = col.UniqueCount
			}
		}
		if col.Letter == p.ValueColumn && col.Header != "" {
			p.ValueHeader = col.Header
		}
	}
	return p
}

func toValueColumns(vcs []classify.ValueColumn) []ValueColumn {
	out := make([]ValueColumn, len(vcs))
	for i, vc := range vcs {
		out[i] = ValueColumn{Letter: vc.Letter, Header: vc.Header}
	}
	return out
}

func duplicateColumns(req *classify.Request, meta *sheet.SheetMetadata) []ValueColumn {
	if meta == nil {
		return nil
	}
	var requested map[string]bool
	if len(req.DuplicateColumns) > 0 {
		requested = make(map[string]bool, len(req.DuplicateColumns))
		for _, letter := range req.DuplicateColumns {
			requested[letter] = true
		}
	}
	var out []ValueColumn
	for _, col := range meta.Columns {
		if requested != nil && !requested[col.Letter] {
			continue
		}
		out = append(out, ValueColumn{Letter: col.Letter, Header: col.Header})
	}
	return out
}

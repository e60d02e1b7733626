// Package classify maps a free-text request plus sheet metadata to a typed
// request variant. It makes exactly one language-model call per request and
// never fails: anything it cannot understand degrades to a complex request,
// which costs one extra planning step downstream instead of an error.
package classify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/sheetpilot/sheetpilot/internal/llm"
	"github.com/sheetpilot/sheetpilot/internal/sheet"
)

// RequestType is the classified intent of a user request.
type RequestType string

const (
	SimpleQuestion      RequestType = "simple_question"
	GroupedSummary      RequestType = "grouped_summary"
	GroupedSummaryChart RequestType = "grouped_summary_chart"
	TopN                RequestType = "top_n"
	FindDuplicates      RequestType = "find_duplicates"
	FilterHighlight     RequestType = "filter_highlight"
	Comparison          RequestType = "comparison"
	Complex             RequestType = "complex"
)

var knownTypes = map[RequestType]bool{
	SimpleQuestion:      true,
	GroupedSummary:      true,
	GroupedSummaryChart: true,
	TopN:                true,
	FindDuplicates:      true,
	FilterHighlight:     true,
	Comparison:          true,
	Complex:             true,
}

// ValueColumn pairs a column letter with its header name.
type ValueColumn struct {
	Letter string
	Header string
}

// Request is the classified form of a user request. Exactly one variant is
// active, selected by Type; the other fields carry that variant's parameters.
type Request struct {
	Type             RequestType
	GroupByColumn    string
	GroupByHeader    string
	ValueColumn      string
	ValueColumns     []ValueColumn
	Aggregation      string // sum, count, avg, max, min
	ChartType        string // bar, line, pie, doughnut, scatter
	N                int
	FilterColumn     string
	FilterValue      string
	DuplicateColumns []string // nil means all columns

	// CustomPlan holds raw action objects the model proposed for a complex
	// request. They are passed through unvalidated; the verifier checks them.
	CustomPlan []json.RawMessage

	Answer string // for simple questions
}

// Classifier turns text into a Request with one model call.
type Classifier struct {
	client llm.Client
}

// New builds a classifier over the given model client.
func New(client llm.Client) *Classifier {
	return &Classifier{client: client}
}

// Classify sends one prompt and parses the reply. Model errors, malformed
// JSON, and unrecognized request types all degrade to a complex request.
func (c *Classifier) Classify(ctx context.Context, userRequest string, meta *sheet.SheetMetadata) *Request {
	if c.client == nil {
		slog.Warn("no model client configured, treating request as complex")
		return &Request{Type: Complex}
	}

	prompt := BuildPrompt(userRequest, meta)
	reply, err := c.client.Complete(ctx, prompt)
	if err != nil {
		slog.Error("classification call failed", "error", err)
		return &Request{Type: Complex}
	}

	req, err := Parse(reply)
	if err != nil {
		slog.Error("classification reply unparseable", "error", err)
		return &Request{Type: Complex}
	}
	slog.Info("classified request", "type", req.Type)
	return req
}

type wireClassification struct {
	RequestType      string            `json:"request_type"`
	GroupByColumn    string            `json:"group_by_column"`
	GroupByHeader    string            `json:"group_by_header"`
	ValueColumn      string            `json:"value_column"`
	ValueColumns     [][]string        `json:"value_columns"`
	Aggregation      string            `json:"aggregation"`
	ChartType        string            `json:"chart_type"`
	NValue           int               `json:"n_value"`
	FilterColumn     string            `json:"filter_column"`
	FilterValue      string            `json:"filter_value"`
	DuplicateColumns []string          `json:"duplicate_columns"`
	Plan             []json.RawMessage `json:"plan"`
	Answer           string            `json:"answer"`
}

// Parse sanitizes and decodes a model reply into a Request.
func Parse(reply string) (*Request, error) {
	payload, err := ExtractJSON(reply)
	if err != nil {
		return nil, err
	}

	var wire wireClassification
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return nil, err
	}

	rt := RequestType(wire.RequestType)
	if !knownTypes[rt] {
		rt = Complex
	}

	req := &Request{
		Type:             rt,
		GroupByColumn:    wire.GroupByColumn,
		GroupByHeader:    wire.GroupByHeader,
		ValueColumn:      wire.ValueColumn,
		Aggregation:      wire.Aggregation,
		ChartType:        wire.ChartType,
		N:                wire.NValue,
		FilterColumn:     wire.FilterColumn,
		FilterValue:      wire.FilterValue,
		DuplicateColumns: wire.DuplicateColumns,
		CustomPlan:       wire.Plan,
		Answer:           wire.Answer,
	}
	if req.Aggregation == "" {
		req.Aggregation = "sum"
	}
	if req.ChartType == "" {
		req.ChartType = "bar"
	}

	for _, pair := range wire.ValueColumns {
		vc := ValueColumn{}
		if len(pair) > 0 {
			vc.Letter = pair[0]
		}
		if len(pair) > 1 {
			vc.Header = pair[1]
		}
		if vc.Letter != "" {
			req.ValueColumns = append(req.ValueColumns, vc)
		}
	}
	if req.ValueColumn == "" && len(req.ValueColumns) > 0 {
		req.ValueColumn = req.ValueColumns[0].Letter
	}

	return req, nil
}

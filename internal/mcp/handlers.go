package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sheetpilot/sheetpilot/internal/action"
	"github.com/sheetpilot/sheetpilot/internal/config"
	"github.com/sheetpilot/sheetpilot/internal/errors"
	"github.com/sheetpilot/sheetpilot/internal/formula"
	"github.com/sheetpilot/sheetpilot/internal/plan"
	"github.com/sheetpilot/sheetpilot/internal/rag"
	"github.com/sheetpilot/sheetpilot/internal/session"
	"github.com/sheetpilot/sheetpilot/internal/sheet"
	"github.com/sheetpilot/sheetpilot/internal/verify"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	sessions *session.Manager
	store    *rag.Store
	executor *plan.Executor
	cfg      *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(sessions *session.Manager, store *rag.Store, executor *plan.Executor, cfg *config.Config) *Handlers {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Handlers{sessions: sessions, store: store, executor: executor, cfg: cfg}
}

// Request types for each tool

type SessionOpenRequest struct {
	SheetName string            `json:"sheet_name,omitempty"`
	Cells     map[string]string `json:"cells"`
}

type SessionUpdateRequest struct {
	SessionID string            `json:"session_id"`
	Cells     map[string]string `json:"cells"`
}

type SessionRequest struct {
	SessionID string `json:"session_id"`
}

type ColumnRequest struct {
	SessionID string `json:"session_id"`
	Column    string `json:"column"`
	Limit     int    `json:"limit,omitempty"`
}

type RowRequest struct {
	SessionID string `json:"session_id"`
	RowNumber int    `json:"row_number"`
}

type CellRequest struct {
	SessionID string `json:"session_id"`
	Cell      string `json:"cell"`
}

type LookupFormulaRequest struct {
	SessionID string `json:"session_id"`
	Intent    string `json:"intent"`
}

type CreateSheetRequest struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
}

type SetFormulaRequest struct {
	SessionID string `json:"session_id"`
	Sheet     string `json:"sheet,omitempty"`
	Cell      string `json:"cell"`
	Formula   string `json:"formula"`
	FillDown  bool   `json:"fill_down,omitempty"`
}

type SetValuesRequest struct {
	SessionID string  `json:"session_id"`
	Sheet     string  `json:"sheet,omitempty"`
	Range     string  `json:"range"`
	Values    [][]any `json:"values"`
}

type SetCellValueRequest struct {
	SessionID string `json:"session_id"`
	Cell      string `json:"cell"`
	Value     any    `json:"value"`
}

type RangeRequest struct {
	SessionID string `json:"session_id"`
	Sheet     string `json:"sheet,omitempty"`
	Range     string `json:"range"`
}

type FormatRangeRequest struct {
	SessionID           string `json:"session_id"`
	Sheet               string `json:"sheet,omitempty"`
	Range               string `json:"range"`
	Bold                *bool  `json:"bold,omitempty"`
	Italic              *bool  `json:"italic,omitempty"`
	FontSize            int    `json:"font_size,omitempty"`
	FontColor           string `json:"font_color,omitempty"`
	Background          string `json:"background,omitempty"`
	HorizontalAlignment string `json:"horizontal_alignment,omitempty"`
}

type AutoFillDownRequest struct {
	SessionID  string `json:"session_id"`
	Sheet      string `json:"sheet,omitempty"`
	SourceCell string `json:"source_cell"`
	LastRow    int    `json:"last_row"`
}

type CreateChartRequest struct {
	SessionID   string `json:"session_id"`
	ChartType   string `json:"chart_type,omitempty"`
	Title       string `json:"title"`
	DataSheet   string `json:"data_sheet"`
	LabelColumn string `json:"label_column"`
	ValueColumn string `json:"value_column"`
	StartRow    int    `json:"start_row,omitempty"`
	EndRow      int    `json:"end_row"`
}

type InsertColumnRequest struct {
	SessionID string `json:"session_id"`
	After     string `json:"after"`
	Header    string `json:"header,omitempty"`
}

type NumberFormatRequest struct {
	SessionID      string `json:"session_id"`
	Sheet          string `json:"sheet,omitempty"`
	Range          string `json:"range"`
	Format         string `json:"format"`
	Decimals       *int   `json:"decimals,omitempty"`
	CurrencySymbol string `json:"currency_symbol,omitempty"`
	CustomPattern  string `json:"custom_pattern,omitempty"`
}

type SetBordersRequest struct {
	SessionID string `json:"session_id"`
	Sheet     string `json:"sheet,omitempty"`
	Range     string `json:"range"`
	Style     string `json:"style,omitempty"`
	Weight    string `json:"weight,omitempty"`
	Color     string `json:"color,omitempty"`
}

type FreezePanesRequest struct {
	SessionID string `json:"session_id"`
	Sheet     string `json:"sheet,omitempty"`
	Rows      int    `json:"rows,omitempty"`
	Columns   int    `json:"columns,omitempty"`
}

type AutoResizeRequest struct {
	SessionID string   `json:"session_id"`
	Sheet     string   `json:"sheet,omitempty"`
	Columns   []string `json:"columns,omitempty"`
}

type DeleteRowsRequest struct {
	SessionID       string `json:"session_id"`
	Sheet           string `json:"sheet,omitempty"`
	Rows            []int  `json:"rows,omitempty"`
	ConditionColumn string `json:"condition_column,omitempty"`
	ConditionValue  string `json:"condition_value,omitempty"`
	ConditionEmpty  bool   `json:"condition_empty,omitempty"`
}

type DeleteColumnsRequest struct {
	SessionID string   `json:"session_id"`
	Sheet     string   `json:"sheet,omitempty"`
	Columns   []string `json:"columns"`
}

type MergeCellsRequest struct {
	SessionID string `json:"session_id"`
	Sheet     string `json:"sheet,omitempty"`
	Range     string `json:"range"`
	Type      string `json:"type,omitempty"`
}

type ClearRangeRequest struct {
	SessionID string `json:"session_id"`
	Sheet     string `json:"sheet,omitempty"`
	Range     string `json:"range"`
	Type      string `json:"type,omitempty"`
}

type CopyRangeRequest struct {
	SessionID   string `json:"session_id"`
	SourceSheet string `json:"source_sheet,omitempty"`
	SourceRange string `json:"source_range"`
	DestSheet   string `json:"dest_sheet,omitempty"`
	DestCell    string `json:"dest_cell"`
	ValuesOnly  bool   `json:"values_only,omitempty"`
}

type ConditionalFormatRequest struct {
	SessionID     string `json:"session_id"`
	Sheet         string `json:"sheet,omitempty"`
	Range         string `json:"range"`
	Type          string `json:"type"`
	Operator      string `json:"operator,omitempty"`
	Value         any    `json:"value,omitempty"`
	ValueTo       any    `json:"value_to,omitempty"`
	TextContains  string `json:"text_contains,omitempty"`
	Background    string `json:"background,omitempty"`
	FontColor     string `json:"font_color,omitempty"`
	Bold          bool   `json:"bold,omitempty"`
	ColorScaleMin string `json:"color_scale_min,omitempty"`
	ColorScaleMid string `json:"color_scale_mid,omitempty"`
	ColorScaleMax string `json:"color_scale_max,omitempty"`
}

type DataValidationRequest struct {
	SessionID     string   `json:"session_id"`
	Sheet         string   `json:"sheet,omitempty"`
	Range         string   `json:"range"`
	Type          string   `json:"type"`
	Values        []string `json:"values,omitempty"`
	Min           *float64 `json:"min,omitempty"`
	Max           *float64 `json:"max,omitempty"`
	AllowInvalid  *bool    `json:"allow_invalid,omitempty"`
	CustomFormula string   `json:"custom_formula,omitempty"`
}

type RenameSheetRequest struct {
	SessionID string `json:"session_id"`
	OldName   string `json:"old_name"`
	NewName   string `json:"new_name"`
}

type CopySheetRequest struct {
	SessionID string `json:"session_id"`
	Source    string `json:"source"`
	NewName   string `json:"new_name"`
}

type DeleteSheetRequest struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
}

type FindReplaceRequest struct {
	SessionID string `json:"session_id"`
	Sheet     string `json:"sheet,omitempty"`
	Find      string `json:"find"`
	Replace   string `json:"replace"`
	Range     string `json:"range,omitempty"`
	MatchCase bool   `json:"match_case,omitempty"`
}

type HighlightRequest struct {
	SessionID string `json:"session_id"`
	Range     string `json:"range"`
	Color     string `json:"color,omitempty"`
}

type FilterRequest struct {
	SessionID string `json:"session_id"`
	Column    string `json:"column"`
	Criteria  string `json:"criteria"`
}

type SortRequest struct {
	SessionID string `json:"session_id"`
	Column    string `json:"column"`
	Ascending *bool  `json:"ascending,omitempty"`
}

type RAGSearchRequest struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
	K         int    `json:"k,omitempty"`
}

type RAGSearchMultiRequest struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

type RAGSimilarRowsRequest struct {
	SessionID string `json:"session_id"`
	Row       int    `json:"row"`
	K         int    `json:"k,omitempty"`
}

type RAGClearRequest struct {
	SheetName string `json:"sheet_name,omitempty"`
}

type RequestPlanRequest struct {
	SessionID string `json:"session_id"`
	Request   string `json:"request"`
}

// Shared helpers

// session resolves the session for a request argument.
func (h *Handlers) session(id string) (*session.Session, error) {
	if id == "" {
		return nil, errors.NewInvalidRequest("session_id is required")
	}
	return h.sessions.Get(id)
}

// queue enqueues one action on a session and renders the standard result.
func (h *Handlers) queue(s *session.Session, a action.Action, message string) (*mcp.CallToolResult, error) {
	res, err := s.Queue.Enqueue(a)
	if err != nil {
		return errorResult(errors.NewInternal(err)), nil
	}
	if res.Status == "already_queued" {
		return successResult(map[string]any{
			"status":  res.Status,
			"name":    res.Name,
			"message": fmt.Sprintf("Sheet '%s' is already queued for creation", res.Name),
		})
	}
	return successResult(map[string]any{
		"queued":  true,
		"message": message,
		"action":  res.Action,
	})
}

// targetSheet defaults a tool's sheet argument to the session's sheet.
func targetSheet(arg string, s *session.Session) string {
	if arg == "" {
		return s.SheetName
	}
	return arg
}

// Session lifecycle

func (h *Handlers) HandleSessionOpen(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionOpenRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if len(input.Cells) == 0 {
		return errorResult(errors.NewInvalidRequest("cells is required")), nil
	}

	s, err := h.sessions.Open(input.SheetName, sheet.CellMap(input.Cells), nil)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{
		"session_id": s.ID,
		"metadata":   s.Metadata,
	})
}

func (h *Handlers) HandleSessionUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionUpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	s, err := h.sessions.UpdateCells(input.SessionID, sheet.CellMap(input.Cells), nil)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"metadata": s.Metadata})
}

func (h *Handlers) HandleSessionClose(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if err := h.sessions.Close(input.SessionID); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"closed": true})
}

// Reading tools

func (h *Handlers) HandleGetHeaders(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	headers := map[string]string{}
	var letters []string
	for ref, value := range s.Cells {
		if col, row, ok := sheet.ParseRef(ref); ok && row == 1 {
			headers[col] = value
			letters = append(letters, col)
		}
	}
	sheet.SortColumnLetters(letters)

	return successResult(map[string]any{
		"headers": headers,
		"columns": letters,
	})
}

func (h *Handlers) HandleGetColumnValues(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ColumnRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	col := strings.ToUpper(input.Column)

	var values []rowValue
	for ref, value := range s.Cells {
		if c, row, ok := sheet.ParseRef(ref); ok && c == col && row > 1 {
			values = append(values, rowValue{Row: row, Value: value})
		}
	}
	sort.Slice(values, func(i, j int) bool { return values[i].Row < values[j].Row })
	if len(values) > limit {
		values = values[:limit]
	}
	return successResult(values)
}

// rowValue is one data cell of a column, keyed by its row.
type rowValue struct {
	Row   int    `json:"row"`
	Value string `json:"value"`
}

func (h *Handlers) HandleGetColumnStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ColumnRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	col := s.Metadata.ColumnByLetter(strings.ToUpper(input.Column))
	if col == nil {
		return errorResult(errors.NewNotFound(fmt.Sprintf("column %s", strings.ToUpper(input.Column)))), nil
	}

	uniqueValues := col.Categories
	if len(uniqueValues) == 0 {
		uniqueValues = col.Samples
	}
	if len(uniqueValues) > 10 {
		uniqueValues = uniqueValues[:10]
	}

	stats := map[string]any{
		"header":       col.Header,
		"type":         col.Type,
		"uniqueCount":  col.UniqueCount,
		"uniqueValues": uniqueValues,
		"totalRows":    col.TotalCount,
		"chartEndRow":  2 + col.UniqueCount - 1,
	}
	if col.Min != nil {
		stats["min"] = *col.Min
		stats["max"] = *col.Max
		stats["avg"] = *col.Avg
		stats["sum"] = *col.Sum
	}
	return successResult(stats)
}

func (h *Handlers) HandleGetChartRange(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ColumnRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	letter := strings.ToUpper(input.Column)
	uniqueCount := 0
	if col := s.Metadata.ColumnByLetter(letter); col != nil {
		uniqueCount = col.UniqueCount
	}
	if uniqueCount == 0 {
		seen := map[string]bool{}
		for ref, value := range s.Cells {
			if c, row, ok := sheet.ParseRef(ref); ok && c == letter && row > 1 {
				seen[value] = true
			}
		}
		uniqueCount = len(seen)
	}
	if uniqueCount == 0 {
		uniqueCount = 10
	}

	startRow := 2
	endRow := startRow + uniqueCount - 1
	fillDownLastRow := 1 + uniqueCount

	return successResult(map[string]any{
		"startRow":        startRow,
		"endRow":          endRow,
		"uniqueCount":     uniqueCount,
		"fillDownLastRow": fillDownLastRow,
		"explanation": fmt.Sprintf("%d unique values -> chart rows %d to %d, autoFillDown to row %d",
			uniqueCount, startRow, endRow, fillDownLastRow),
	})
}

func (h *Handlers) HandleGetRow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RowRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	row := map[string]string{}
	for ref, value := range s.Cells {
		if col, r, ok := sheet.ParseRef(ref); ok && r == input.RowNumber {
			row[col] = value
		}
	}
	if len(row) == 0 {
		return errorResult(errors.NewNotFound(fmt.Sprintf("row %d", input.RowNumber))), nil
	}
	return successResult(row)
}

func (h *Handlers) HandleGetCell(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CellRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	ref := strings.ToUpper(input.Cell)
	value, ok := s.Cells[ref]
	if !ok {
		return errorResult(errors.NewNotFound(fmt.Sprintf("cell %s", ref))), nil
	}
	return successResult(map[string]any{"cell": ref, "value": value})
}

func (h *Handlers) HandleGetDataRange(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	rows := map[int]bool{}
	colSet := map[string]bool{}
	lastRow := 0
	for ref := range s.Cells {
		if col, row, ok := sheet.ParseRef(ref); ok {
			rows[row] = true
			colSet[col] = true
			if row > lastRow {
				lastRow = row
			}
		}
	}
	columns := make([]string, 0, len(colSet))
	for col := range colSet {
		columns = append(columns, col)
	}
	sheet.SortColumnLetters(columns)

	return successResult(map[string]any{
		"sheetName":   s.SheetName,
		"rowCount":    len(rows),
		"columnCount": len(columns),
		"lastRow":     lastRow,
		"columns":     columns,
	})
}

func (h *Handlers) HandleCountRows(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	rows := map[int]bool{}
	for ref := range s.Cells {
		if _, row, ok := sheet.ParseRef(ref); ok && row > 1 {
			rows[row] = true
		}
	}
	return successResult(map[string]any{"dataRows": len(rows)})
}

func (h *Handlers) HandleLookupFormula(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[LookupFormulaRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	lastRow := 100
	if s.Metadata != nil && s.Metadata.LastRow > 0 {
		lastRow = s.Metadata.LastRow
	}
	return successResult(formula.ForIntent(input.Intent, s.SheetName, lastRow))
}

// Writing tools

func (h *Handlers) HandleCreateSheet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateSheetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	name := strings.Trim(strings.TrimSpace(input.Name), `"'`)
	if name == "" {
		return errorResult(errors.NewInvalidRequest("name is required")), nil
	}
	return h.queue(s, &action.CreateSheet{Name: name}, fmt.Sprintf("Created sheet '%s'", name))
}

func (h *Handlers) HandleSetFormula(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SetFormulaRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	lastRow := 100
	if s.Metadata != nil && s.Metadata.LastRow > 0 {
		lastRow = s.Metadata.LastRow
	}

	fixed, warnings := formula.AutoFix(input.Formula, lastRow)

	fillDown := input.FillDown
	if fillDown {
		if fn, spills := formula.AutoSpillFunction(fixed); spills {
			fillDown = false
			warnings = append(warnings, fmt.Sprintf(
				"BLOCKED fillDown=true for auto-spill formula (%s). These formulas auto-expand.", fn))
		}
	}

	target := targetSheet(input.Sheet, s)
	res, err := s.Queue.Enqueue(&action.SetFormula{
		Sheet:    target,
		Cell:     input.Cell,
		Formula:  fixed,
		FillDown: fillDown,
	})
	if err != nil {
		return errorResult(errors.NewInternal(err)), nil
	}

	payload := map[string]any{
		"queued":  true,
		"message": fmt.Sprintf("Set %s!%s = %s", target, input.Cell, fixed),
		"action":  res.Action,
	}
	if len(warnings) > 0 {
		payload["warnings"] = warnings
	}
	return successResult(payload)
}

func (h *Handlers) HandleSetValues(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SetValuesRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	target := targetSheet(input.Sheet, s)
	return h.queue(s, &action.SetValues{
		Sheet:  target,
		Range:  input.Range,
		Values: input.Values,
	}, fmt.Sprintf("Set values in %s!%s", target, input.Range))
}

func (h *Handlers) HandleSetCellValue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SetCellValueRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	return h.queue(s, &action.SetCellValue{Cell: input.Cell, Value: input.Value},
		fmt.Sprintf("Set %s = %v", input.Cell, input.Value))
}

func (h *Handlers) HandleFormatHeaders(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RangeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	bold := true
	target := targetSheet(input.Sheet, s)
	return h.queue(s, &action.FormatRange{
		Sheet:      target,
		Range:      input.Range,
		Bold:       &bold,
		Background: "#4472C4",
		FontColor:  "#FFFFFF",
	}, fmt.Sprintf("Formatted %s!%s as headers", target, input.Range))
}

func (h *Handlers) HandleFormatRange(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FormatRangeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	target := targetSheet(input.Sheet, s)
	return h.queue(s, &action.FormatRange{
		Sheet:               target,
		Range:               input.Range,
		Bold:                input.Bold,
		Italic:              input.Italic,
		FontSize:            input.FontSize,
		FontColor:           input.FontColor,
		Background:          input.Background,
		HorizontalAlignment: input.HorizontalAlignment,
	}, fmt.Sprintf("Formatted %s!%s", target, input.Range))
}

func (h *Handlers) HandleAutoFillDown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AutoFillDownRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	target := targetSheet(input.Sheet, s)
	return h.queue(s, &action.AutoFillDown{
		Sheet:      target,
		SourceCell: input.SourceCell,
		LastRow:    input.LastRow,
	}, fmt.Sprintf("Filled formula from %s!%s down to row %d", target, input.SourceCell, input.LastRow))
}

func (h *Handlers) HandleCreateChart(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateChartRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	chartType := input.ChartType
	if chartType == "" {
		chartType = "bar"
	}
	startRow := input.StartRow
	if startRow == 0 {
		startRow = 2
	}
	return h.queue(s, &action.CreateChart{
		ChartType:   chartType,
		Title:       input.Title,
		DataSheet:   input.DataSheet,
		LabelColumn: input.LabelColumn,
		ValueColumn: input.ValueColumn,
		StartRow:    startRow,
		EndRow:      input.EndRow,
	}, fmt.Sprintf("Created %s chart '%s' from %s rows %d-%d", chartType, input.Title, input.DataSheet, startRow, input.EndRow))
}

func (h *Handlers) HandleInsertColumn(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[InsertColumnRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	return h.queue(s, &action.InsertColumn{After: strings.ToUpper(input.After), Header: input.Header},
		fmt.Sprintf("Inserted column after %s", strings.ToUpper(input.After)))
}

func (h *Handlers) HandleSetNumberFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NumberFormatRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	target := targetSheet(input.Sheet, s)
	return h.queue(s, &action.NumberFormat{
		Sheet:          target,
		Range:          input.Range,
		Format:         input.Format,
		Decimals:       input.Decimals,
		CurrencySymbol: input.CurrencySymbol,
		CustomPattern:  input.CustomPattern,
	}, fmt.Sprintf("Applied %s format to %s!%s", input.Format, target, input.Range))
}

func (h *Handlers) HandleSetBorders(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SetBordersRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	style := input.Style
	if style == "" {
		style = "all"
	}
	weight := input.Weight
	if weight == "" {
		weight = "thin"
	}
	color := input.Color
	if color == "" {
		color = "#000000"
	}
	target := targetSheet(input.Sheet, s)
	return h.queue(s, &action.SetBorders{
		Sheet:  target,
		Range:  input.Range,
		Style:  style,
		Weight: weight,
		Color:  color,
	}, fmt.Sprintf("Set %s borders on %s!%s", style, target, input.Range))
}

func (h *Handlers) HandleFreezePanes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FreezePanesRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	return h.queue(s, &action.Freeze{
		Sheet:   targetSheet(input.Sheet, s),
		Rows:    input.Rows,
		Columns: input.Columns,
	}, fmt.Sprintf("Froze %d row(s) and %d column(s)", input.Rows, input.Columns))
}

func (h *Handlers) HandleAutoResizeColumns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AutoResizeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	return h.queue(s, &action.AutoResize{
		Sheet:   targetSheet(input.Sheet, s),
		Columns: input.Columns,
	}, "Auto-resized columns")
}

func (h *Handlers) HandleDeleteRows(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRowsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	var cond *action.DeleteCondition
	if input.ConditionColumn != "" {
		cond = &action.DeleteCondition{
			Column: strings.ToUpper(input.ConditionColumn),
			Value:  input.ConditionValue,
			Empty:  input.ConditionEmpty,
		}
	}
	return h.queue(s, &action.DeleteRows{
		Sheet:     targetSheet(input.Sheet, s),
		Rows:      input.Rows,
		Condition: cond,
	}, "Queued row deletion")
}

func (h *Handlers) HandleDeleteColumns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteColumnsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	return h.queue(s, &action.DeleteColumns{
		Sheet:   targetSheet(input.Sheet, s),
		Columns: input.Columns,
	}, fmt.Sprintf("Queued deletion of columns %v", input.Columns))
}

func (h *Handlers) HandleMergeCells(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[MergeCellsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	mergeType := input.Type
	if mergeType == "" {
		mergeType = "all"
	}
	target := targetSheet(input.Sheet, s)
	return h.queue(s, &action.MergeCells{
		Sheet: target,
		Range: input.Range,
		Type:  mergeType,
	}, fmt.Sprintf("Merged %s!%s", target, input.Range))
}

func (h *Handlers) HandleClearRange(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ClearRangeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	clearType := input.Type
	if clearType == "" {
		clearType = "contents"
	}
	target := targetSheet(input.Sheet, s)
	return h.queue(s, &action.ClearRange{
		Sheet: target,
		Range: input.Range,
		Type:  clearType,
	}, fmt.Sprintf("Cleared %s of %s!%s", clearType, target, input.Range))
}

func (h *Handlers) HandleCopyRange(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CopyRangeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	source := targetSheet(input.SourceSheet, s)
	dest := input.DestSheet
	if dest == "" {
		dest = source
	}
	return h.queue(s, &action.CopyRange{
		SourceSheet: source,
		SourceRange: input.SourceRange,
		DestSheet:   dest,
		DestCell:    input.DestCell,
		ValuesOnly:  input.ValuesOnly,
	}, fmt.Sprintf("Copied %s!%s to %s!%s", source, input.SourceRange, dest, input.DestCell))
}

func (h *Handlers) HandleConditionalFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ConditionalFormatRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	target := targetSheet(input.Sheet, s)
	return h.queue(s, &action.ConditionalFormat{
		Sheet:         target,
		Range:         input.Range,
		Type:          input.Type,
		Operator:      input.Operator,
		Value:         input.Value,
		ValueTo:       input.ValueTo,
		TextContains:  input.TextContains,
		Background:    input.Background,
		FontColor:     input.FontColor,
		Bold:          input.Bold,
		ColorScaleMin: input.ColorScaleMin,
		ColorScaleMid: input.ColorScaleMid,
		ColorScaleMax: input.ColorScaleMax,
	}, fmt.Sprintf("Added %s conditional format to %s!%s", input.Type, target, input.Range))
}

func (h *Handlers) HandleSetDataValidation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DataValidationRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	target := targetSheet(input.Sheet, s)
	return h.queue(s, &action.DataValidation{
		Sheet:         target,
		Range:         input.Range,
		Type:          input.Type,
		Values:        input.Values,
		Min:           input.Min,
		Max:           input.Max,
		AllowInvalid:  input.AllowInvalid,
		CustomFormula: input.CustomFormula,
	}, fmt.Sprintf("Added %s validation to %s!%s", input.Type, target, input.Range))
}

func (h *Handlers) HandleRenameSheet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RenameSheetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	return h.queue(s, &action.RenameSheet{OldName: input.OldName, NewName: input.NewName},
		fmt.Sprintf("Renamed '%s' to '%s'", input.OldName, input.NewName))
}

func (h *Handlers) HandleCopySheet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CopySheetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	return h.queue(s, &action.CopySheet{Source: input.Source, NewName: input.NewName},
		fmt.Sprintf("Copied '%s' to '%s'", input.Source, input.NewName))
}

func (h *Handlers) HandleDeleteSheet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteSheetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	return h.queue(s, &action.DeleteSheet{Name: input.Name},
		fmt.Sprintf("Queued deletion of sheet '%s'", input.Name))
}

func (h *Handlers) HandleFindReplace(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FindReplaceRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	return h.queue(s, &action.FindReplace{
		Sheet:     targetSheet(input.Sheet, s),
		Find:      input.Find,
		Replace:   input.Replace,
		Range:     input.Range,
		MatchCase: input.MatchCase,
	}, fmt.Sprintf("Queued replace of '%s' with '%s'", input.Find, input.Replace))
}

func (h *Handlers) HandleHighlightRange(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HighlightRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	color := input.Color
	if color == "" {
		color = "#FFFF00"
	}
	return h.queue(s, &action.Highlight{Range: input.Range, Color: color},
		fmt.Sprintf("Highlighted %s with %s", input.Range, color))
}

func (h *Handlers) HandleFilterData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FilterRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	return h.queue(s, &action.Filter{Column: strings.ToUpper(input.Column), Criteria: input.Criteria},
		fmt.Sprintf("Filtered column %s by %s", strings.ToUpper(input.Column), input.Criteria))
}

func (h *Handlers) HandleSortData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SortRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	ascending := true
	if input.Ascending != nil {
		ascending = *input.Ascending
	}
	direction := "ascending"
	if !ascending {
		direction = "descending"
	}
	return h.queue(s, &action.Sort{Column: strings.ToUpper(input.Column), Ascending: ascending},
		fmt.Sprintf("Sorted by column %s %s", strings.ToUpper(input.Column), direction))
}

func (h *Handlers) HandleClearFilters(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	return h.queue(s, &action.ClearFilters{}, "Cleared all filters")
}

// Queue tools

func (h *Handlers) HandleActionsVerify(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(verify.Verify(s.Queue.Actions(), s.Metadata))
}

func (h *Handlers) HandleActionsFlush(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	flushed := s.Queue.Flush()
	wire, err := action.MarshalAll(flushed)
	if err != nil {
		return errorResult(errors.NewInternal(err)), nil
	}
	return successResult(map[string]any{
		"count":   len(flushed),
		"actions": json.RawMessage(wire),
	})
}

// Retrieval tools

func (h *Handlers) HandleRAGIndex(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	status, err := h.store.Index(ctx, s.Cells, s.SheetName)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(status)
}

func (h *Handlers) HandleRAGSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RAGSearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	results, err := h.store.Search(ctx, input.Query, s.SheetName, s.Cells, input.K)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{
		"query":   input.Query,
		"results": results,
	})
}

func (h *Handlers) HandleRAGSearchMulti(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RAGSearchMultiRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(input.Query) == "" {
		return errorResult(errors.NewInvalidRequest("query is required")), nil
	}

	sheets := map[string]sheet.CellMap{}
	for _, s := range h.sessions.List() {
		sheets[s.SheetName] = s.Cells
	}
	if len(sheets) == 0 {
		return errorResult(errors.NewInvalidRequest("no open sessions to search")), nil
	}

	results, err := h.store.SearchMulti(ctx, input.Query, sheets, input.K)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{
		"query":   input.Query,
		"sheets":  len(sheets),
		"results": results,
	})
}

func (h *Handlers) HandleRAGSimilarRows(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RAGSimilarRowsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	k := input.K
	if k <= 0 {
		k = 5
	}
	results, err := h.store.SimilarRows(ctx, s.SheetName, s.Cells, input.Row, k)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{
		"row":     input.Row,
		"results": results,
	})
}

func (h *Handlers) HandleRAGContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RAGSearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}

	block, rows, usedRAG := h.store.ContextForQuery(ctx, input.Query, s.Cells, s.SheetName)
	return successResult(map[string]any{
		"context":      block,
		"relevantRows": rows,
		"usedRAG":      usedRAG,
	})
}

func (h *Handlers) HandleRAGClear(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RAGClearRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if err := h.store.ClearIndex(input.SheetName); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"cleared": true})
}

// Pipeline

func (h *Handlers) HandleRequestPlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RequestPlanRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.session(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}
	if strings.TrimSpace(input.Request) == "" {
		return errorResult(errors.NewInvalidRequest("request is required")), nil
	}

	res := h.executor.Execute(ctx, input.Request, s.Metadata, s.Cells)

	queued := make([]json.RawMessage, 0, len(res.Actions))
	for _, a := range res.Actions {
		enq, err := s.Queue.Enqueue(a)
		if err != nil {
			return errorResult(errors.NewInternal(err)), nil
		}
		if enq.Action != nil {
			queued = append(queued, enq.Action)
		}
	}

	payload := map[string]any{
		"response":    res.Response,
		"requestType": res.RequestType,
		"llmCalls":    res.LLMCalls,
		"actions":     queued,
	}
	if len(res.RawActions) > 0 {
		payload["plan"] = res.RawActions
	}
	if res.Chart != nil {
		payload["chart"] = res.Chart
	}
	return successResult(payload)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if pilotErr, ok := err.(*errors.PilotError); ok {
		errorObj := map[string]any{
			"code":    pilotErr.Code,
			"message": pilotErr.Message,
			"status":  pilotErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if pilotErr.Code != errors.ErrInternal && pilotErr.Details != nil {
			errorObj["details"] = pilotErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}

// Package action defines the mutation commands this system emits and the
// per-request queue that orders them. The serialized form, one JSON object
// per action with an "action" discriminator, is the external contract with
// the frontend executor; typed structs are used everywhere else.
package action

import "encoding/json"

// Action is one atomic spreadsheet mutation instruction.
type Action interface {
	Kind() string
}

// DeleteCondition selects rows for deletion by column value or emptiness.
type DeleteCondition struct {
	Column string `json:"column"`
	Value  string `json:"value,omitempty"`
	Empty  bool   `json:"empty,omitempty"`
}

type CreateSheet struct {
	Name string `json:"name"`
}

type SetFormula struct {
	Sheet    string `json:"sheet"`
	Cell     string `json:"cell"`
	Formula  string `json:"formula"`
	FillDown bool   `json:"fillDown"`
}

type SetValues struct {
	Sheet  string  `json:"sheet"`
	Range  string  `json:"range"`
	Values [][]any `json:"values"`
}

type SetCellValue struct {
	Cell  string `json:"cell"`
	Value any    `json:"value"`
}

type FormatRange struct {
	Sheet               string `json:"sheet"`
	Range               string `json:"range"`
	Bold                *bool  `json:"bold,omitempty"`
	Italic              *bool  `json:"italic,omitempty"`
	Strikethrough       *bool  `json:"strikethrough,omitempty"`
	FontSize            int    `json:"fontSize,omitempty"`
	FontFamily          string `json:"fontFamily,omitempty"`
	FontColor           string `json:"fontColor,omitempty"`
	Background          string `json:"background,omitempty"`
	HorizontalAlignment string `json:"horizontalAlignment,omitempty"`
	VerticalAlignment   string `json:"verticalAlignment,omitempty"`
	WrapStrategy        string `json:"wrapStrategy,omitempty"`
}

type NumberFormat struct {
	Sheet          string `json:"sheet"`
	Range          string `json:"range"`
	Format         string `json:"format"`
	Decimals       *int   `json:"decimals,omitempty"`
	CurrencySymbol string `json:"currencySymbol,omitempty"`
	CustomPattern  string `json:"customPattern,omitempty"`
}

type SetBorders struct {
	Sheet  string `json:"sheet"`
	Range  string `json:"range"`
	Style  string `json:"style"`
	Weight string `json:"weight"`
	Color  string `json:"color"`
}

type Freeze struct {
	Sheet   string `json:"sheet,omitempty"`
	Rows    int    `json:"rows,omitempty"`
	Columns int    `json:"columns,omitempty"`
}

// AutoResize resizes columns to fit content. An empty Columns slice means
// all columns; the wire form writes the string "all" in that case.
type AutoResize struct {
	Sheet   string   `json:"sheet,omitempty"`
	Columns []string `json:"-"`
}

type AutoFillDown struct {
	Sheet      string `json:"sheet"`
	SourceCell string `json:"sourceCell"`
	LastRow    int    `json:"lastRow"`
}

type CreateChart struct {
	ChartType   string `json:"chartType"`
	Title       string `json:"title"`
	DataSheet   string `json:"dataSheet"`
	LabelColumn string `json:"labelColumn"`
	ValueColumn string `json:"valueColumn"`
	StartRow    int    `json:"startRow"`
	EndRow      int    `json:"endRow,omitempty"`
}

type InsertColumn struct {
	After  string `json:"after"`
	Header string `json:"header,omitempty"`
}

type Highlight struct {
	Range string `json:"range"`
	Color string `json:"color"`
}

type Filter struct {
	Column   string `json:"column"`
	Criteria string `json:"criteria"`
}

type Sort struct {
	Column    string `json:"column"`
	Ascending bool   `json:"ascending"`
}

type ClearFilters struct{}

type DeleteRows struct {
	Sheet     string           `json:"sheet,omitempty"`
	Rows      []int            `json:"rows,omitempty"`
	Condition *DeleteCondition `json:"condition,omitempty"`
}

type DeleteColumns struct {
	Sheet   string   `json:"sheet,omitempty"`
	Columns []string `json:"columns"`
}

type MergeCells struct {
	Sheet string `json:"sheet"`
	Range string `json:"range"`
	Type  string `json:"type"`
}

type ClearRange struct {
	Sheet string `json:"sheet"`
	Range string `json:"range"`
	Type  string `json:"type"`
}

type CopyRange struct {
	SourceSheet string `json:"sourceSheet"`
	SourceRange string `json:"sourceRange"`
	DestSheet   string `json:"destSheet"`
	DestCell    string `json:"destCell"`
	ValuesOnly  bool   `json:"valuesOnly"`
}

type ConditionalFormat struct {
	Sheet         string `json:"sheet"`
	Range         string `json:"range"`
	Type          string `json:"type"`
	Operator      string `json:"operator,omitempty"`
	Value         any    `json:"value,omitempty"`
	ValueTo       any    `json:"valueTo,omitempty"`
	TextContains  string `json:"textContains,omitempty"`
	Background    string `json:"background,omitempty"`
	FontColor     string `json:"fontColor,omitempty"`
	Bold          bool   `json:"bold,omitempty"`
	ColorScaleMin string `json:"colorScaleMin,omitempty"`
	ColorScaleMid string `json:"colorScaleMid,omitempty"`
	ColorScaleMax string `json:"colorScaleMax,omitempty"`
}

type DataValidation struct {
	Sheet         string   `json:"sheet"`
	Range         string   `json:"range"`
	Type          string   `json:"type"`
	Values        []string `json:"values,omitempty"`
	Min           *float64 `json:"min,omitempty"`
	Max           *float64 `json:"max,omitempty"`
	AllowInvalid  *bool    `json:"allowInvalid,omitempty"`
	CustomFormula string   `json:"customFormula,omitempty"`
}

type RenameSheet struct {
	OldName string `json:"oldName"`
	NewName string `json:"newName"`
}

type CopySheet struct {
	Source  string `json:"source"`
	NewName string `json:"newName"`
}

type DeleteSheet struct {
	Name string `json:"name"`
}

type FindReplace struct {
	Sheet     string `json:"sheet,omitempty"`
	Find      string `json:"find"`
	Replace   string `json:"replace"`
	Range     string `json:"range,omitempty"`
	MatchCase bool   `json:"matchCase,omitempty"`
}

func (*CreateSheet) Kind() string       { return "createSheet" }
func (*SetFormula) Kind() string        { return "setFormula" }
func (*SetValues) Kind() string         { return "setValues" }
func (*SetCellValue) Kind() string      { return "setCellValue" }
func (*FormatRange) Kind() string       { return "formatRange" }
func (*NumberFormat) Kind() string      { return "numberFormat" }
func (*SetBorders) Kind() string        { return "setBorders" }
func (*Freeze) Kind() string            { return "freeze" }
func (*AutoResize) Kind() string        { return "autoResize" }
func (*AutoFillDown) Kind() string      { return "autoFillDown" }
func (*CreateChart) Kind() string       { return "createChart" }
func (*InsertColumn) Kind() string      { return "insertColumn" }
func (*Highlight) Kind() string         { return "highlight" }
func (*Filter) Kind() string            { return "filter" }
func (*Sort) Kind() string              { return "sort" }
func (*ClearFilters) Kind() string      { return "clearFilters" }
func (*DeleteRows) Kind() string        { return "deleteRows" }
func (*DeleteColumns) Kind() string     { return "deleteColumns" }
func (*MergeCells) Kind() string        { return "mergeCells" }
func (*ClearRange) Kind() string        { return "clearRange" }
func (*CopyRange) Kind() string         { return "copyRange" }
func (*ConditionalFormat) Kind() string { return "conditionalFormat" }
func (*DataValidation) Kind() string    { return "dataValidation" }
func (*RenameSheet) Kind() string       { return "renameSheet" }
func (*CopySheet) Kind() string         { return "copySheet" }
func (*DeleteSheet) Kind() string       { return "deleteSheet" }
func (*FindReplace) Kind() string       { return "findReplace" }

// Marshal serializes an action to its wire form: the struct's fields plus
// the "action" discriminator. This is the only place untyped maps appear.
func Marshal(a Action) ([]byte, error) {
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}

	wire := map[string]any{}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, err
	}
	wire["action"] = a.Kind()

	if ar, ok := a.(*AutoResize); ok {
		if len(ar.Columns) == 0 {
			wire["columns"] = "all"
		} else {
			wire["columns"] = ar.Columns
		}
	}

	return json.Marshal(wire)
}

// MarshalAll serializes a slice of actions as a JSON array of wire objects.
func MarshalAll(actions []Action) ([]byte, error) {
	items := make([]json.RawMessage, 0, len(actions))
	for _, a := range actions {
		raw, err := Marshal(a)
		if err != nil {
			return nil, err
		}
		items = append(items, raw)
	}
	return json.Marshal(items)
}

package sheet

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sheetpilot/sheetpilot/internal/config"
)

// ColumnType classifies the predominant content of a column.
type ColumnType string

const (
	TypeNumeric     ColumnType = "numeric"
	TypeDate        ColumnType = "date"
	TypeCategorical ColumnType = "categorical"
	TypeText        ColumnType = "text"
	TypeEmpty       ColumnType = "empty"
)

// ColumnMetadata describes one analyzed column.
type ColumnMetadata struct {
	Letter      string     `json:"letter"`
	Header      string     `json:"header"`
	Type        ColumnType `json:"type"`
	UniqueCount int        `json:"uniqueCount"`
	NullCount   int        `json:"nullCount"`
	TotalCount  int        `json:"totalCount"`
	Samples     []string   `json:"samples,omitempty"` // at most 5

	// Numeric stats, set only for numeric columns.
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
	Avg *float64 `json:"avg,omitempty"`
	Sum *float64 `json:"sum,omitempty"`

	// Categories, set only for categorical columns (at most 20, sorted).
	Categories []string `json:"categories,omitempty"`
}

// SheetMetadata is the complete analysis of one sheet snapshot.
type SheetMetadata struct {
	SheetName    string           `json:"sheetName"`
	TotalRows    int              `json:"totalRows"`
	DataRows     int              `json:"dataRows"` // excluding header
	LastRow      int              `json:"lastRow"`
	TotalColumns int              `json:"totalColumns"`
	Columns      []ColumnMetadata `json:"columns,omitempty"`

	// Column letters suitable for grouping (categorical) and aggregation
	// (numeric), plus the first date column found.
	SuggestedGroupBy    []string `json:"suggestedGroupBy,omitempty"`
	SuggestedAggregate  []string `json:"suggestedAggregate,omitempty"`
	SuggestedDateColumn string   `json:"suggestedDateColumn,omitempty"`
}

// datePatterns are the recognized date shapes, checked case-insensitively.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\d{1,2}/\d{1,2}/\d{2,4}$`),        // MM/DD/YYYY or M/D/YY
	regexp.MustCompile(`(?i)^\d{4}-\d{2}-\d{2}$`),              // YYYY-MM-DD
	regexp.MustCompile(`(?i)^\d{1,2}-\d{1,2}-\d{2,4}$`),        // DD-MM-YYYY
	regexp.MustCompile(`(?i)^\d{1,2}\s+\w{3,9}\s+\d{2,4}$`),    // 1 Jan 2024
	regexp.MustCompile(`(?i)^\w{3,9}\s+\d{1,2},?\s+\d{2,4}$`),  // January 1, 2024
}

// Analyzer performs deterministic structural analysis of a CellMap.
// Threshold fields are taken from configuration; zero values mean the
// built-in defaults.
type Analyzer struct {
	NumericThreshold       float64
	DateThreshold          float64
	CategoricalUniqueRatio float64
	CategoricalMaxUnique   int
}

// NewAnalyzer builds an Analyzer from configuration.
func NewAnalyzer(cfg *config.Config) *Analyzer {
	return &Analyzer{
		NumericThreshold:       cfg.NumericThreshold,
		DateThreshold:          cfg.DateThreshold,
		CategoricalUniqueRatio: cfg.CategoricalUniqueRatio,
		CategoricalMaxUnique:   cfg.CategoricalMaxUnique,
	}
}

// DefaultAnalyzer returns an Analyzer with the default thresholds.
func DefaultAnalyzer() *Analyzer {
	return NewAnalyzer(config.DefaultConfig())
}

// Analyze builds SheetMetadata for a cell snapshot.
// An empty CellMap yields zero-valued metadata, not an error.
// The result depends only on the input; no external calls are made.
func (a *Analyzer) Analyze(cells CellMap, sheetName string) *SheetMetadata {
	meta := &SheetMetadata{SheetName: sheetName}
	if len(cells) == 0 {
		return meta
	}

	columns, rows, letters := byColumn(cells)
	if len(rows) == 0 || len(letters) == 0 {
		return meta
	}

	minRow, maxRow := rowBounds(rows)
	meta.TotalRows = maxRow - minRow + 1
	meta.DataRows = meta.TotalRows - 1 // row 1 assumed header
	meta.LastRow = maxRow

	for _, letter := range letters {
		colRows := columns[letter]

		header, ok := colRows[minRow]
		if !ok {
			header, ok = colRows[1]
		}
		if !ok {
			header = fmt.Sprintf("Column %s", letter)
		}

		// Data values exclude the header row; absent cells count as empty.
		values := make([]string, 0, maxRow-minRow)
		for r := minRow + 1; r <= maxRow; r++ {
			values = append(values, colRows[r])
		}

		colType := a.detectType(values)

		var nonEmpty []string
		for _, v := range values {
			if strings.TrimSpace(v) != "" {
				nonEmpty = append(nonEmpty, v)
			}
		}
		unique := uniqueValues(nonEmpty)

		col := ColumnMetadata{
			Letter:      letter,
			Header:      header,
			Type:        colType,
			UniqueCount: len(unique),
			NullCount:   len(values) - len(nonEmpty),
			TotalCount:  len(values),
			Samples:     firstN(nonEmpty, 5),
		}

		switch colType {
		case TypeNumeric:
			var nums []float64
			for _, v := range nonEmpty {
				if n, ok := parseNumeric(v); ok {
					nums = append(nums, n)
				}
			}
			if len(nums) > 0 {
				minV, maxV, sumV := nums[0], nums[0], 0.0
				for _, n := range nums {
					if n < minV {
						minV = n
					}
					if n > maxV {
						maxV = n
					}
					sumV += n
				}
				avgV := sumV / float64(len(nums))
				col.Min, col.Max, col.Avg, col.Sum = &minV, &maxV, &avgV, &sumV
			}
			meta.SuggestedAggregate = append(meta.SuggestedAggregate, letter)
		case TypeCategorical:
			sort.Strings(unique)
			col.Categories = firstN(unique, 20)
			meta.SuggestedGroupBy = append(meta.SuggestedGroupBy, letter)
		case TypeDate:
			if meta.SuggestedDateColumn == "" {
				meta.SuggestedDateColumn = letter
			}
		}

		meta.Columns = append(meta.Columns, col)
	}

	meta.TotalColumns = len(meta.Columns)
	return meta
}

// detectType classifies a column's data values by thresholded heuristics.
func (a *Analyzer) detectType(values []string) ColumnType {
	var nonEmpty []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			nonEmpty = append(nonEmpty, v)
		}
	}
	if len(nonEmpty) == 0 {
		return TypeEmpty
	}

	total := float64(len(nonEmpty))
	numericCount, dateCount := 0, 0
	for _, v := range nonEmpty {
		if _, ok := parseNumeric(v); ok {
			numericCount++
		} else if isDate(v) {
			dateCount++
		}
	}

	if float64(numericCount)/total >= a.NumericThreshold {
		return TypeNumeric
	}
	if float64(dateCount)/total >= a.DateThreshold {
		return TypeDate
	}

	unique := uniqueValues(nonEmpty)
	if float64(len(unique))/total < a.CategoricalUniqueRatio && len(unique) <= a.CategoricalMaxUnique {
		return TypeCategorical
	}
	return TypeText
}

// parseNumeric parses a value as a number, accepting currency, percentage,
// thousands separators, and accounting-style negatives ("(50)").
func parseNumeric(value string) (float64, bool) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0, false
	}
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, "%", "")
	cleaned = strings.ReplaceAll(cleaned, "(", "-")
	cleaned = strings.ReplaceAll(cleaned, ")", "")
	cleaned = strings.TrimSpace(cleaned)

	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// isDate reports whether a value matches one of the recognized date shapes.
func isDate(value string) bool {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return false
	}
	for _, p := range datePatterns {
		if p.MatchString(cleaned) {
			return true
		}
	}
	return false
}

func rowBounds(rows map[int]bool) (minRow, maxRow int) {
	first := true
	for r := range rows {
		if first {
			minRow, maxRow = r, r
			first = false
			continue
		}
		if r < minRow {
			minRow = r
		}
		if r > maxRow {
			maxRow = r
		}
	}
	return minRow, maxRow
}

func uniqueValues(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func firstN(values []string, n int) []string {
	if len(values) <= n {
		return values
	}
	return values[:n]
}

// FormatForPrompt renders metadata as the text block given to the model.
func FormatForPrompt(meta *SheetMetadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sheet: '%s'\n", meta.SheetName)
	fmt.Fprintf(&b, "Total rows: %d (data rows: %d, last row: %d)\n", meta.TotalRows, meta.DataRows, meta.LastRow)
	fmt.Fprintf(&b, "Columns: %d\n\n", meta.TotalColumns)
	b.WriteString("Column Details:\n")

	for _, col := range meta.Columns {
		typeInfo := string(col.Type)
		switch {
		case col.Type == TypeNumeric && col.Sum != nil:
			typeInfo = fmt.Sprintf("numeric (min=%s, max=%s, sum=%s)",
				formatNum(*col.Min), formatNum(*col.Max), formatNum(round2(*col.Sum)))
		case col.Type == TypeCategorical:
			cats := strings.Join(firstN(col.Categories, 5), ", ")
			if len(col.Categories) > 5 {
				cats += fmt.Sprintf("... (%d total)", len(col.Categories))
			}
			typeInfo = fmt.Sprintf("categorical [%s]", cats)
		}
		fmt.Fprintf(&b, "  - Column %s: '%s' (%s, %d unique, %d empty)\n",
			col.Letter, col.Header, typeInfo, col.UniqueCount, col.NullCount)
	}

	if len(meta.SuggestedGroupBy) > 0 {
		fmt.Fprintf(&b, "\nGood for grouping (categorical): %s\n", joinWithHeaders(meta, meta.SuggestedGroupBy))
	}
	if len(meta.SuggestedAggregate) > 0 {
		fmt.Fprintf(&b, "Good for aggregation (numeric): %s\n", joinWithHeaders(meta, meta.SuggestedAggregate))
	}
	if meta.SuggestedDateColumn != "" {
		fmt.Fprintf(&b, "Date column: %s\n", meta.SuggestedDateColumn)
	}

	return strings.TrimRight(b.String(), "\n")
}

func joinWithHeaders(meta *SheetMetadata, letters []string) string {
	parts := make([]string, 0, len(letters))
	for _, letter := range letters {
		label := letter
		for _, col := range meta.Columns {
			if col.Letter == letter {
				label = col.Header
				break
			}
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", letter, label))
	}
	return strings.Join(parts, ", ")
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ColumnByHeader finds a column by header name: exact case-insensitive match
// first, then substring match. Returns nil if nothing matches.
func (m *SheetMetadata) ColumnByHeader(header string) *ColumnMetadata {
	lower := strings.ToLower(header)
	for i := range m.Columns {
		if strings.ToLower(m.Columns[i].Header) == lower {
			return &m.Columns[i]
		}
	}
	for i := range m.Columns {
		if strings.Contains(strings.ToLower(m.Columns[i].Header), lower) {
			return &m.Columns[i]
		}
	}
	return nil
}

// ColumnByLetter finds a column by its letter. Returns nil if not present.
func (m *SheetMetadata) ColumnByLetter(letter string) *ColumnMetadata {
	for i := range m.Columns {
		if m.Columns[i].Letter == letter {
			return &m.Columns[i]
		}
	}
	return nil
}

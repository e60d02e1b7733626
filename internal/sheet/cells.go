package sheet

import (
	"regexp"
	"sort"
	"strconv"
)

// CellMap maps cell references (e.g. "B12") to raw cell values.
// It is a snapshot of one sheet, owned by the caller; analysis never mutates it.
type CellMap map[string]string

// cellRefPattern matches a plain cell reference: column letters then row number.
var cellRefPattern = regexp.MustCompile(`^([A-Z]+)(\d+)$`)

// ParseRef splits a cell reference into column letters and row number.
// Returns ok=false for anything that is not a plain A1-style reference.
func ParseRef(ref string) (col string, row int, ok bool) {
	m := cellRefPattern.FindStringSubmatch(ref)
	if m == nil {
		return "", 0, false
	}
	row, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	return m[1], row, true
}

// SortColumnLetters sorts column letters in spreadsheet order:
// A..Z before AA, then lexicographic within equal length.
func SortColumnLetters(cols []string) {
	sort.Slice(cols, func(i, j int) bool {
		if len(cols[i]) != len(cols[j]) {
			return len(cols[i]) < len(cols[j])
		}
		return cols[i] < cols[j]
	})
}

// byColumn reorganizes a CellMap into per-column row maps.
// Returns the column map, the set of row numbers seen, and the sorted column letters.
func byColumn(cells CellMap) (map[string]map[int]string, map[int]bool, []string) {
	columns := make(map[string]map[int]string)
	rows := make(map[int]bool)
	var letters []string

	for ref, value := range cells {
		col, row, ok := ParseRef(ref)
		if !ok {
			continue
		}
		rows[row] = true
		if columns[col] == nil {
			columns[col] = make(map[int]string)
			letters = append(letters, col)
		}
		columns[col][row] = value
	}

	SortColumnLetters(letters)
	return columns, rows, letters
}

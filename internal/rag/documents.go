// Package rag indexes sheet rows as embedding vectors and retrieves the
// rows relevant to a query. Small sheets bypass retrieval entirely; large
// ones get a per-sheet vector index persisted in SQLite and held in a
// bounded process-wide cache.
package rag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/sheetpilot/sheetpilot/internal/sheet"
)

// RowDocument is one data row rendered as retrievable text.
type RowDocument struct {
	Row     int
	Content string
	Cells   map[string]string
}

// ContentHash fingerprints a cell map. The same cells always produce the
// same hash regardless of map iteration order.
func ContentHash(cells sheet.CellMap) string {
	refs := make([]string, 0, len(cells))
	for ref := range cells {
		refs = append(refs, ref)
	}
	sort.Strings(refs)

	h := xxhash.New()
	for _, ref := range refs {
		h.WriteString(ref)
		h.WriteString("=")
		h.WriteString(cells[ref])
		h.WriteString("\n")
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// CollectionID names the persisted index for one (sheet, content) pair.
func CollectionID(sheetName, contentHash string) string {
	return strings.ReplaceAll(sheetName, " ", "_") + "_" + contentHash
}

// sheetPrefix is the CollectionID prefix shared by all of a sheet's indexes.
func sheetPrefix(sheetName string) string {
	return strings.ReplaceAll(sheetName, " ", "_") + "_"
}

// CellsToDocuments renders each data row as "Row N: Header: value | ...".
// Row 1 supplies headers; a column without a header is labeled by its
// letter. Rows whose watched cells are all empty produce no document.
func CellsToDocuments(cells sheet.CellMap) []RowDocument {
	headers := map[string]string{}
	rows := map[int]map[string]string{}

	for ref, value := range cells {
		col, row, ok := sheet.ParseRef(ref)
		if !ok {
			continue
		}
		if row == 1 {
			headers[col] = value
			continue
		}
		if rows[row] == nil {
			rows[row] = map[string]string{}
		}
		rows[row][col] = value
	}

	cols := make([]string, 0, len(headers))
	for c := range headers {
		cols = append(cols, c)
	}
	sheet.SortColumnLetters(cols)

	rowNums := make([]int, 0, len(rows))
	for r := range rows {
		rowNums = append(rowNums, r)
	}
	sort.Ints(rowNums)

	var docs []RowDocument
	for _, rowNum := range rowNums {
		rowData := rows[rowNum]
		var parts []string
		for _, col := range cols {
			value := rowData[col]
			if value == "" {
				continue
			}
			header := headers[col]
			if header == "" {
				header = col
			}
			parts = append(parts, fmt.Sprintf("%s: %s", header, value))
		}
		if len(parts) == 0 {
			continue
		}
		docs = append(docs, RowDocument{
			Row:     rowNum,
			Content: fmt.Sprintf("Row %d: %s", rowNum, strings.Join(parts, " | ")),
			Cells:   rowData,
		})
	}
	return docs
}

// RowCount counts distinct rows in a cell map, header included.
func RowCount(cells sheet.CellMap) int {
	seen := map[int]bool{}
	for ref := range cells {
		if _, row, ok := sheet.ParseRef(ref); ok {
			seen[row] = true
		}
	}
	return len(seen)
}

// FormatAllCells renders the whole sheet as context, capped at 200 rows.
// Used for small sheets and as the fallback when retrieval yields nothing.
func FormatAllCells(cells sheet.CellMap, sheetName string) string {
	docs := CellsToDocuments(cells)

	maxDocs := len(docs)
	if maxDocs > 200 {
		maxDocs = 200
	}

	lines := []string{fmt.Sprintf("All data from '%s' (%d rows):", sheetName, len(docs))}
	for _, doc := range docs[:maxDocs] {
		lines = append(lines, doc.Content)
	}
	if len(docs) > maxDocs {
		lines = append(lines, fmt.Sprintf("... and %d more rows", len(docs)-maxDocs))
	}
	return strings.Join(lines, "\n")
}

package rag

import (
	"strings"
	"testing"

	"github.com/sheetpilot/sheetpilot/internal/sheet"
)

func ragCells() sheet.CellMap {
	return sheet.CellMap{
		"A1": "Name", "B1": "Feedback",
		"A2": "Ann", "B2": "Great product, very happy",
		"A3": "Bob", "B3": "Shipping was delayed twice",
		"A4": "Cal", "B4": "Totally satisfied with support",
	}
}

func TestContentHash_Deterministic(t *testing.T) {
	a := ContentHash(ragCells())
	b := ContentHash(ragCells())
	if a != b {
		t.Errorf("hash unstable: %s vs %s", a, b)
	}

	changed := ragCells()
	changed["B2"] = "edited"
	if ContentHash(changed) == a {
		t.Error("hash did not change with content")
	}
	if len(a) != 16 {
		t.Errorf("hash = %q, want 16 hex chars", a)
	}
}

func TestCollectionID_ReplacesSpaces(t *testing.T) {
	id := CollectionID("Q1 Sales Data", "abc123")
	if id != "Q1_Sales_Data_abc123" {
		t.Errorf("id = %q", id)
	}
}

func TestCellsToDocuments(t *testing.T) {
	docs := CellsToDocuments(ragCells())

	if len(docs) != 3 {
		t.Fatalf("got %d documents, want 3", len(docs))
	}
	if docs[0].Row != 2 || docs[1].Row != 3 || docs[2].Row != 4 {
		t.Errorf("rows = %d, %d, %d, want ascending", docs[0].Row, docs[1].Row, docs[2].Row)
	}
	want := "Row 2: Name: Ann | Feedback: Great product, very happy"
	if docs[0].Content != want {
		t.Errorf("content = %q, want %q", docs[0].Content, want)
	}
	if docs[0].Cells["A"] != "Ann" || docs[0].Cells["B"] != "Great product, very happy" {
		t.Errorf("cells = %v", docs[0].Cells)
	}
}

func TestCellsToDocuments_SkipsEmptyValues(t *testing.T) {
	cells := sheet.CellMap{
		"A1": "Name", "B1": "Notes",
		"A2": "Ann", "B2": "",
		"A3": "", "B3": "",
	}
	docs := CellsToDocuments(cells)

	if len(docs) != 1 {
		t.Fatalf("got %d documents, want 1 (all-empty rows dropped)", len(docs))
	}
	if docs[0].Content != "Row 2: Name: Ann" {
		t.Errorf("content = %q", docs[0].Content)
	}
}

func TestCellsToDocuments_HeaderFallback(t *testing.T) {
	cells := sheet.CellMap{"A1": "", "A2": "x"}
	docs := CellsToDocuments(cells)
	if len(docs) != 1 || docs[0].Content != "Row 2: A: x" {
		t.Errorf("docs = %+v, want column letter as header", docs)
	}
}

func TestRowCount(t *testing.T) {
	if n := RowCount(ragCells()); n != 4 {
		t.Errorf("RowCount = %d, want 4 (header included)", n)
	}
	if n := RowCount(sheet.CellMap{}); n != 0 {
		t.Errorf("RowCount = %d, want 0", n)
	}
}

func TestFormatAllCells(t *testing.T) {
	out := FormatAllCells(ragCells(), "Feedback")

	if !strings.HasPrefix(out, "All data from 'Feedback' (3 rows):") {
		t.Errorf("out = %q", out)
	}
	if !strings.Contains(out, "Row 3: Name: Bob | Feedback: Shipping was delayed twice") {
		t.Errorf("out = %q", out)
	}
}

package xlsx

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/sheetpilot/sheetpilot/internal/errors"
)

func writeWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	f.SetCellValue("Sheet1", "A1", "Region")
	f.SetCellValue("Sheet1", "B1", "Sales")
	f.SetCellValue("Sheet1", "A2", "East")
	f.SetCellValue("Sheet1", "B2", 100)
	f.SetCellValue("Sheet1", "A3", "West")
	f.SetCellValue("Sheet1", "B3", 250)

	if _, err := f.NewSheet("Notes"); err != nil {
		t.Fatalf("NewSheet() error = %v", err)
	}
	f.SetCellValue("Notes", "A1", "only cell")

	path := filepath.Join(t.TempDir(), "book.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs() error = %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	sheets, err := Load(writeWorkbook(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(sheets) != 2 {
		t.Fatalf("got %d sheets, want 2", len(sheets))
	}
	cells := sheets["Sheet1"]
	if cells["A1"] != "Region" || cells["B3"] != "250" {
		t.Errorf("Sheet1 cells = %v", cells)
	}
	if len(cells) != 6 {
		t.Errorf("got %d cells, want 6 (empty cells skipped)", len(cells))
	}
	if sheets["Notes"]["A1"] != "only cell" {
		t.Errorf("Notes cells = %v", sheets["Notes"])
	}
}

func TestLoadSheet(t *testing.T) {
	path := writeWorkbook(t)

	cells, name, err := LoadSheet(path, "Notes")
	if err != nil {
		t.Fatalf("LoadSheet() error = %v", err)
	}
	if name != "Notes" || cells["A1"] != "only cell" {
		t.Errorf("name = %q, cells = %v", name, cells)
	}
}

func TestLoadSheet_ActiveSheetDefault(t *testing.T) {
	cells, name, err := LoadSheet(writeWorkbook(t), "")
	if err != nil {
		t.Fatalf("LoadSheet() error = %v", err)
	}
	if name != "Sheet1" {
		t.Errorf("name = %q, want active sheet", name)
	}
	if cells["A2"] != "East" {
		t.Errorf("cells = %v", cells)
	}
}

func TestLoadSheet_UnknownSheet(t *testing.T) {
	_, _, err := LoadSheet(writeWorkbook(t), "Missing")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestLoad_BadPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.xlsx"))
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("error = %v, want INVALID_REQUEST", err)
	}
}

// Package xlsx loads worksheets from .xlsx files into cell maps so real
// workbooks can be analyzed and indexed from the CLI.
package xlsx

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/sheetpilot/sheetpilot/internal/errors"
	"github.com/sheetpilot/sheetpilot/internal/sheet"
)

// Load opens an .xlsx file and returns every sheet as a CellMap.
// Empty cells are skipped; sheets with no data map to an empty CellMap.
func Load(path string) (map[string]sheet.CellMap, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("cannot open workbook %q: %v", path, err))
	}
	defer f.Close()

	out := make(map[string]sheet.CellMap)
	for _, name := range f.GetSheetList() {
		cells, err := readSheet(f, name)
		if err != nil {
			return nil, err
		}
		out[name] = cells
	}
	return out, nil
}

// LoadSheet opens an .xlsx file and returns a single sheet as a CellMap.
// An empty sheetName selects the workbook's active sheet.
func LoadSheet(path, sheetName string) (sheet.CellMap, string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, "", errors.NewInvalidRequest(fmt.Sprintf("cannot open workbook %q: %v", path, err))
	}
	defer f.Close()

	if sheetName == "" {
		sheetName = f.GetSheetName(f.GetActiveSheetIndex())
	}
	idx, err := f.GetSheetIndex(sheetName)
	if err != nil || idx < 0 {
		return nil, "", errors.NewNotFound(fmt.Sprintf("sheet %q in %q", sheetName, path))
	}

	cells, err := readSheet(f, sheetName)
	if err != nil {
		return nil, "", err
	}
	return cells, sheetName, nil
}

func readSheet(f *excelize.File, sheetName string) (sheet.CellMap, error) {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	cells := sheet.CellMap{}
	for rowIdx, row := range rows {
		for colIdx, value := range row {
			if value == "" {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return nil, errors.NewInternal(err)
			}
			cells[ref] = value
		}
	}
	return cells, nil
}

package table

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Extraction"

// WriteCSV writes the grid with a header row of field names and one row per
// document.
func (g Grid) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := make([]string, 0, len(g.Fields)+1)
	header = append(header, "document")
	for _, f := range g.Fields {
		header = append(header, f.Name)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range g.Rows {
		out := make([]string, 0, len(row.Cells)+1)
		out = append(out, row.Document.Filename)
		for _, cell := range row.Cells {
			out = append(out, cell.Value)
		}
		if err := cw.Write(out); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the grid as a workbook: one sheet of values and a second
// sheet carrying each cell's review state.
func (g Grid) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(xlsxSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	if err := writeSheet(f, xlsxSheet, g, func(c Cell) string { return c.Value }); err != nil {
		return err
	}
	if _, err := f.NewSheet("States"); err != nil {
		return fmt.Errorf("create states sheet: %w", err)
	}
	if err := writeSheet(f, "States", g, func(c Cell) string { return string(c.State) }); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, g Grid, pick func(Cell) string) error {
	if err := setCell(f, sheet, 1, 1, "document"); err != nil {
		return err
	}
	for j, field := range g.Fields {
		if err := setCell(f, sheet, 1, j+2, field.Name); err != nil {
			return err
		}
	}
	for i, row := range g.Rows {
		if err := setCell(f, sheet, i+2, 1, row.Document.Filename); err != nil {
			return err
		}
		for j, cell := range row.Cells {
			if err := setCell(f, sheet, i+2, j+2, pick(cell)); err != nil {
				return err
			}
		}
	}
	return nil
}

func setCell(f *excelize.File, sheet string, row, col int, value string) error {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetCellValue(sheet, name, value); err != nil {
		return fmt.Errorf("set cell %s!%s: %w", sheet, name, err)
	}
	return nil
}

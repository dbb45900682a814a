// Package export writes the year/month grouping to an XLSX workbook: one
// sheet per year, newest first, each month as a titled block of rows.
package export

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"txdash/internal/core"
	"txdash/internal/grouping"
	"txdash/internal/render"
)

const emptySheet = "Transactions"

// Workbook builds the workbook in memory. The caller closes it.
func Workbook(idx grouping.Index, loc *render.Locale, names render.StatusNamer) (*excelize.File, error) {
	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create amount style: %w", err)
	}
	w := sheetWriter{f: f, loc: loc, names: names, bold: bold, money: money}

	first := f.GetSheetName(0)
	if idx.Empty() {
		if err := f.SetSheetName(first, emptySheet); err != nil {
			f.Close()
			return nil, err
		}
		if err := w.headers(emptySheet, 1); err != nil {
			f.Close()
			return nil, err
		}
		return f, nil
	}

	for i, y := range idx.Years {
		sheet := strconv.Itoa(y.Year)
		if i == 0 {
			err = f.SetSheetName(first, sheet)
		} else {
			_, err = f.NewSheet(sheet)
		}
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
		if err := w.year(sheet, y); err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// WriteFile saves the workbook to path.
func WriteFile(path string, idx grouping.Index, loc *render.Locale, names render.StatusNamer) error {
	f, err := Workbook(idx, loc, names)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

type sheetWriter struct {
	f     *excelize.File
	loc   *render.Locale
	names render.StatusNamer
	bold  int
	money int
}

func (w sheetWriter) year(sheet string, y grouping.Year) error {
	row := 1
	for _, m := range y.Months {
		if err := w.set(sheet, 1, row, m.Name); err != nil {
			return err
		}
		if err := w.style(sheet, 1, row, 1, w.bold); err != nil {
			return err
		}
		row++
		if err := w.headers(sheet, row); err != nil {
			return err
		}
		row++

		for _, tx := range m.Transactions {
			for col, cell := range w.loc.Detail(tx, w.names) {
				var value any = cell.Value
				if cell.Key == "amount" && exactInSheet(tx.Amount) {
					value = tx.Amount.InexactFloat64()
				}
				if err := w.set(sheet, col+1, row, value); err != nil {
					return err
				}
			}
			if err := w.style(sheet, amountColumn, row, amountColumn, w.money); err != nil {
				return err
			}
			row++
		}
		row++
	}
	return w.f.SetColWidth(sheet, "A", "F", 22)
}

// exactInSheet reports whether a spreadsheet number cell can hold a
// without rounding. Larger amounts are written as their display text.
func exactInSheet(a core.Amount) bool {
	return len(a.Coefficient().String()) <= sheetPrecision
}

// Spreadsheet applications keep 15 significant digits.
const sheetPrecision = 15

// amountColumn is where the amount lands in render's detail order.
const amountColumn = 4

func (w sheetWriter) headers(sheet string, row int) error {
	headers := w.loc.Headers()
	for col, h := range headers {
		if err := w.set(sheet, col+1, row, h); err != nil {
			return err
		}
	}
	return w.style(sheet, 1, row, len(headers), w.bold)
}

func (w sheetWriter) set(sheet string, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return w.f.SetCellValue(sheet, cell, value)
}

func (w sheetWriter) style(sheet string, fromCol, row, toCol, style int) error {
	from, err := excelize.CoordinatesToCellName(fromCol, row)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(toCol, row)
	if err != nil {
		return err
	}
	return w.f.SetCellStyle(sheet, from, to, style)
}

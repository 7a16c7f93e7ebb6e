package csvimport

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ParseXLSX reads inventory rows from the first sheet of a workbook
func ParseXLSX(r io.Reader, maxRows int) ([]ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrEmptyFile
	}
	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(records) == 0 {
		return nil, ErrMissingHeader
	}

	mapper, err := newRowMapper(records[0])
	if err != nil {
		return nil, err
	}

	var rows []ImportRow
	for i, record := range records[1:] {
		row := mapper.row(i+2, record)
		if row.IsEmpty() {
			continue
		}
		if maxRows > 0 && len(rows) >= maxRows {
			return nil, fmt.Errorf("%w: more than %d rows", ErrFileTooLarge, maxRows)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrNoDataRows
	}
	return rows, nil
}

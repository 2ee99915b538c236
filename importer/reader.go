package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
)

// ParseRows decodes an uploaded spreadsheet into header-keyed rows.
// Formats are tried in order: xlsx via excelize, legacy xls via xlsReader,
// then csv. The first row is the header, everything below is data.
func ParseRows(data []byte) ([]Row, error) {
	cells, err := parseCells(data)
	if err != nil {
		return nil, err
	}
	if len(cells) < 2 {
		return nil, errors.New("file must have a header row and at least one data row")
	}

	headers := make([]string, len(cells[0]))
	for i, header := range cells[0] {
		headers[i] = SlugHeader(header)
	}

	rows := make([]Row, 0, len(cells)-1)
	for _, cellRow := range cells[1:] {
		row := make(Row, len(headers))
		for i, header := range headers {
			if header == "" {
				continue
			}
			if i < len(cellRow) {
				row[header] = cellRow[i]
			} else {
				row[header] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseCells(data []byte) ([][]string, error) {
	xl, xlErr := excelize.OpenReader(bytes.NewReader(data))
	if xlErr == nil {
		defer xl.Close()
		sheetName := xl.GetSheetName(0)
		cells, err := xl.GetRows(sheetName)
		if err != nil {
			return nil, fmt.Errorf("failed to get rows: %w", err)
		}
		return cells, nil
	}

	if cells, err := parseXLS(data); err == nil {
		return cells, nil
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	cells, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse xlsx, xls, or csv: %w", xlErr)
	}
	return cells, nil
}

// parseXLS handles legacy Excel. xlsReader only works with file paths, so
// the payload goes through a temp file.
func parseXLS(data []byte) ([][]string, error) {
	tmpFile, err := os.CreateTemp("", "analytics-*.xls")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return nil, err
	}
	tmpFile.Close()

	workbook, err := xls.OpenFile(tmpFile.Name())
	if err != nil {
		return nil, err
	}
	sheet, err := workbook.GetSheet(0)
	if err != nil || sheet == nil {
		return nil, errors.New("failed to get xls sheet")
	}

	var cells [][]string
	for _, xlsRow := range sheet.GetRows() {
		var rowVals []string
		for _, col := range xlsRow.GetCols() {
			rowVals = append(rowVals, col.GetString())
		}
		cells = append(cells, rowVals)
	}
	return cells, nil
}

package exports

import (
	"bytes"
	"fmt"
	"time"

	"github.com/mmdigital/analytics_backend/models"
	"github.com/mmdigital/analytics_backend/utils"
	"github.com/xuri/excelize/v2"
)

var headings = []string{
	"ID", "Client", "Agency", "Budget", "Platform",
	"Country", "Source File", "Created At", "Updated At",
}

// ExportFilename builds the timestamped download name. Files with this
// prefix are recognized as re-ingestable exports on upload.
func ExportFilename(now time.Time) string {
	return "analytics-records-" + now.Format("2006-01-02-15-04-05") + ".xlsx"
}

// displayAgency maps the "direct" sentinel to its display form. Real
// agency names are rendered verbatim so a re-import round-trips cleanly.
func displayAgency(agency string) string {
	if agency == "direct" {
		return "Direct"
	}
	return agency
}

// WriteRecordsExcel renders records as a styled workbook.
func WriteRecordsExcel(records []*models.AnalyticsRecord) (*bytes.Buffer, error) {

	f := excelize.NewFile()
	sheetName := "Sheet1"
	if _, err := f.NewSheet(sheetName); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFE6E6FA"}},
	})
	if err != nil {
		return nil, err
	}

	budgetFormat := "$#,##0.00"
	budgetStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &budgetFormat})
	if err != nil {
		return nil, err
	}

	col := 'A'
	for _, h := range headings {
		f.SetCellValue(sheetName, string(col)+"1", h)
		col++
	}
	lastCol := string(rune('A' + len(headings) - 1))
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, err
	}

	for i, r := range records {
		rowNo := fmt.Sprint(i + 2)
		budget, _ := r.Budget.Float64()

		f.SetCellValue(sheetName, "A"+rowNo, r.ID)
		f.SetCellValue(sheetName, "B"+rowNo, r.Client)
		f.SetCellValue(sheetName, "C"+rowNo, displayAgency(r.Agency))
		f.SetCellValue(sheetName, "D"+rowNo, budget)
		f.SetCellValue(sheetName, "E"+rowNo, utils.UppercaseFirst(r.Platform.String()))
		f.SetCellValue(sheetName, "F"+rowNo, r.Country)
		f.SetCellValue(sheetName, "G"+rowNo, r.SourceFile)
		f.SetCellValue(sheetName, "H"+rowNo, r.CreatedAt.Format("2006-01-02 15:04:05"))
		f.SetCellValue(sheetName, "I"+rowNo, r.UpdatedAt.Format("2006-01-02 15:04:05"))
	}

	if len(records) > 0 {
		lastRow := fmt.Sprint(len(records) + 1)
		if err := f.SetCellStyle(sheetName, "D2", "D"+lastRow, budgetStyle); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf, nil
}

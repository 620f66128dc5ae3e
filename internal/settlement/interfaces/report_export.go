package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	settlement "fuelstation-backoffice/internal/settlement/domain"
)

// BuildDayReportPDF renders the daily settlement report as PDF.
func BuildDayReportPDF(day time.Time, records []settlement.Record) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Daily Settlement Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", day.Format("2006-01-02")))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(30, 6, "Pump", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Shift", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Staff", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Expected", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Cash", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Card", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Credit", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Difference", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Status", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	var totalExpected, totalCollected, totalDifference float64
	for _, record := range records {
		pdf.CellFormat(30, 6, record.PumpID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, string(record.Shift), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, record.StaffID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", record.AdjustedExpected), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", record.CashAmount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", record.CardAmount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", record.CreditAmount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", record.Difference), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, record.Status, "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		totalExpected += record.AdjustedExpected
		totalCollected += record.TotalCollected
		totalDifference += record.Difference
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Total expected: %.2f", totalExpected))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total collected: %.2f", totalCollected))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total difference: %.2f", totalDifference))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildDayReportXLSX renders the daily settlement report as XLSX.
func BuildDayReportXLSX(day time.Time, records []settlement.Record) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "settlements"
	f.SetSheetName("Sheet1", sheet)

	_ = f.SetCellValue(sheet, "A1", "Daily Settlement Report")
	_ = f.SetCellValue(sheet, "A2", "Date")
	_ = f.SetCellValue(sheet, "B2", day.Format("2006-01-02"))

	headers := []string{"Pump", "Shift", "Staff", "Expected", "Test Liters", "Test Value",
		"Cash", "Card", "Credit", "Collected", "Difference", "Status"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 4)
		_ = f.SetCellValue(sheet, cell, header)
	}

	for i, record := range records {
		row := i + 5
		values := []any{
			record.PumpID, string(record.Shift), record.StaffID,
			record.AdjustedExpected, record.TestLiters, record.TestValue,
			record.CashAmount, record.CardAmount, record.CreditAmount,
			record.TotalCollected, record.Difference, record.Status,
		}
		for j, value := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

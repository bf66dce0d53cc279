package interfaces

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	equipment "chemequip-cloud/internal/equipment/domain"
)

// Exports include at most this many equipment rows.
const exportRecordLimit = 20

// BuildDatasetPDF renders the analysis report for a dataset.
func BuildDatasetPDF(dataset *equipment.Dataset) ([]byte, error) {
	if dataset == nil {
		return nil, errors.New("export: nil dataset")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "B", 16)
	pdf.AddPage()

	pdf.Cell(0, 10, "Chemical Equipment Analysis Report")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Dataset: %s", dataset.Filename))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Upload Date: %s", dataset.UploadedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total Records: %d", dataset.TotalRecords))
	pdf.Ln(8)

	summary := dataset.Summary
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 6, "Summary Statistics")
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Average Flowrate: %s", formatAggregate(summary.AvgFlowrate)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Average Pressure: %s", formatAggregate(summary.AvgPressure)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Average Temperature: %s", formatAggregate(summary.AvgTemperature)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 6, "Equipment Type Distribution")
	pdf.Ln(7)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(80, 6, "Equipment Type", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Count", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, eqType := range sortedTypes(summary.TypeDistribution) {
		pdf.CellFormat(80, 6, eqType, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%d", summary.TypeDistribution[eqType]), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 6, fmt.Sprintf("Equipment Records (First %d)", exportRecordLimit))
	pdf.Ln(7)
	pdf.SetFont("Arial", "B", 8)
	pdf.CellFormat(50, 6, "Name", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Type", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Flowrate", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Pressure", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Temp", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 8)
	for _, rec := range limitRecords(dataset.Records) {
		pdf.CellFormat(50, 6, truncate(rec.Name, 20), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, rec.Type, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", rec.Flowrate), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", rec.Pressure), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", rec.Temperature), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildDatasetXLSX renders the analysis report as a workbook.
func BuildDatasetXLSX(dataset *equipment.Dataset) ([]byte, error) {
	if dataset == nil {
		return nil, errors.New("export: nil dataset")
	}
	f := excelize.NewFile()
	summarySheet := "summary"
	recordsSheet := "records"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(recordsSheet)

	summary := dataset.Summary
	_ = f.SetCellValue(summarySheet, "A1", "Chemical Equipment Analysis Report")
	_ = f.SetCellValue(summarySheet, "A3", "Dataset")
	_ = f.SetCellValue(summarySheet, "B3", dataset.Filename)
	_ = f.SetCellValue(summarySheet, "A4", "Upload Date")
	_ = f.SetCellValue(summarySheet, "B4", dataset.UploadedAt.Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A5", "Total Records")
	_ = f.SetCellValue(summarySheet, "B5", dataset.TotalRecords)
	_ = f.SetCellValue(summarySheet, "A6", "Skipped Rows")
	_ = f.SetCellValue(summarySheet, "B6", dataset.SkippedRows)

	row := 8
	setAggregate := func(label string, min, avg, max *float64) {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), label)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), formatAggregate(min))
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("C%d", row), formatAggregate(avg))
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("D%d", row), formatAggregate(max))
		row++
	}
	_ = f.SetCellValue(summarySheet, "A7", "Parameter")
	_ = f.SetCellValue(summarySheet, "B7", "Min")
	_ = f.SetCellValue(summarySheet, "C7", "Avg")
	_ = f.SetCellValue(summarySheet, "D7", "Max")
	setAggregate("Flowrate", summary.MinFlowrate, summary.AvgFlowrate, summary.MaxFlowrate)
	setAggregate("Pressure", summary.MinPressure, summary.AvgPressure, summary.MaxPressure)
	setAggregate("Temperature", summary.MinTemperature, summary.AvgTemperature, summary.MaxTemperature)

	row += 1
	_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), "Equipment Type")
	_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), "Count")
	row++
	for _, eqType := range sortedTypes(summary.TypeDistribution) {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), eqType)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), summary.TypeDistribution[eqType])
		row++
	}

	_ = f.SetCellValue(recordsSheet, "A1", "Name")
	_ = f.SetCellValue(recordsSheet, "B1", "Type")
	_ = f.SetCellValue(recordsSheet, "C1", "Flowrate")
	_ = f.SetCellValue(recordsSheet, "D1", "Pressure")
	_ = f.SetCellValue(recordsSheet, "E1", "Temperature")
	for i, rec := range dataset.Records {
		line := i + 2
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("A%d", line), rec.Name)
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("B%d", line), rec.Type)
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("C%d", line), rec.Flowrate)
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("D%d", line), rec.Pressure)
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("E%d", line), rec.Temperature)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatAggregate(value *float64) string {
	if value == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *value)
}

func sortedTypes(distribution map[string]int) []string {
	types := make([]string, 0, len(distribution))
	for eqType := range distribution {
		types = append(types, eqType)
	}
	sort.Strings(types)
	return types
}

func limitRecords(records []equipment.Record) []equipment.Record {
	if len(records) > exportRecordLimit {
		return records[:exportRecordLimit]
	}
	return records
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit]
}

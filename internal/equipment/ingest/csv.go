// Package ingest parses uploaded CSV files into validated equipment records.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	equipment "chemequip-cloud/internal/equipment/domain"
)

// Canonical column names. Header matching is case-insensitive and tolerant
// of surrounding whitespace; column order in the file is irrelevant.
const (
	ColumnName        = "Equipment Name"
	ColumnType        = "Type"
	ColumnFlowrate    = "Flowrate"
	ColumnPressure    = "Pressure"
	ColumnTemperature = "Temperature"
)

var (
	// ErrEmptyFile is returned for an empty file or a header with no data rows.
	ErrEmptyFile = errors.New("ingest: file contains no data rows")
	// ErrNoValidRows is returned when every data row failed validation.
	ErrNoValidRows = errors.New("ingest: no valid data rows")
)

// MissingColumnsError reports required columns absent from the header.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "ingest: missing required columns: " + strings.Join(e.Columns, ", ")
}

// Result is the outcome of a successful parse. Skipped counts data rows
// dropped for row-level defects; those are tolerated, never fatal.
type Result struct {
	Records []equipment.Record
	Skipped int
}

// Parse converts raw CSV bytes into validated equipment records.
//
// File-level defects (missing columns, no data rows, no valid rows) abort
// the whole parse with a typed error. Rows with a blank, non-numeric or
// non-finite flowrate, pressure or temperature are skipped and counted.
// Output order matches input row order. Parse is pure: no I/O, no state.
func Parse(raw []byte, filename string) (Result, error) {
	reader := csv.NewReader(bytes.NewReader(stripBOM(raw)))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return Result{}, fmt.Errorf("parse %s: %w", filename, ErrEmptyFile)
	}
	if err != nil {
		return Result{}, fmt.Errorf("parse %s: %w", filename, ErrEmptyFile)
	}

	index, missing := matchHeader(header)
	if len(missing) > 0 {
		return Result{}, fmt.Errorf("parse %s: %w", filename, &MissingColumnsError{Columns: missing})
	}

	var result Result
	rows := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed CSV row (e.g. bare quote): row-level defect.
			rows++
			result.Skipped++
			continue
		}
		rows++

		record, ok := buildRecord(row, index)
		if !ok {
			result.Skipped++
			continue
		}
		result.Records = append(result.Records, record)
	}

	if rows == 0 {
		return Result{}, fmt.Errorf("parse %s: %w", filename, ErrEmptyFile)
	}
	if len(result.Records) == 0 {
		return Result{}, fmt.Errorf("parse %s: %w", filename, ErrNoValidRows)
	}
	return result, nil
}

// columnIndex maps each required column to its position in the header.
type columnIndex struct {
	name, typ, flowrate, pressure, temperature int
}

func matchHeader(header []string) (columnIndex, []string) {
	positions := make(map[string]int, len(header))
	for i, cell := range header {
		key := strings.ToLower(strings.TrimSpace(cell))
		if _, seen := positions[key]; !seen {
			positions[key] = i
		}
	}

	index := columnIndex{}
	var missing []string
	lookup := func(column string, target *int) {
		pos, ok := positions[strings.ToLower(column)]
		if !ok {
			missing = append(missing, column)
			return
		}
		*target = pos
	}
	lookup(ColumnName, &index.name)
	lookup(ColumnType, &index.typ)
	lookup(ColumnFlowrate, &index.flowrate)
	lookup(ColumnPressure, &index.pressure)
	lookup(ColumnTemperature, &index.temperature)
	return index, missing
}

func buildRecord(row []string, index columnIndex) (equipment.Record, bool) {
	flowrate, ok := parseNumeric(row, index.flowrate)
	if !ok {
		return equipment.Record{}, false
	}
	pressure, ok := parseNumeric(row, index.pressure)
	if !ok {
		return equipment.Record{}, false
	}
	temperature, ok := parseNumeric(row, index.temperature)
	if !ok {
		return equipment.Record{}, false
	}
	return equipment.Record{
		Name:        cell(row, index.name),
		Type:        cell(row, index.typ),
		Flowrate:    flowrate,
		Pressure:    pressure,
		Temperature: temperature,
	}, true
}

func parseNumeric(row []string, pos int) (float64, bool) {
	value := cell(row, pos)
	if value == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0, false
	}
	return parsed, true
}

func cell(row []string, pos int) string {
	if pos < 0 || pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos])
}

func stripBOM(raw []byte) []byte {
	return bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})
}

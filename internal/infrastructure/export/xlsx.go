// Package export renders admin summaries as downloadable spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"TimeTracker/internal/domain"
	"TimeTracker/internal/ports"
	"TimeTracker/internal/timing"
)

// SheetName is the single worksheet of the summary workbook.
const SheetName = "Time Summary"

// XLSX writes the summary table as an Office Open XML workbook.
type XLSX struct{}

var _ ports.SummaryExporter = XLSX{}

// ContentType is the MIME type of the workbook.
func (XLSX) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// FileName is the suggested download name.
func (XLSX) FileName() string {
	return "time_tracking_summary.xlsx"
}

// Header returns the column titles: serial, employee, date, item, one column
// per stage and the total in minutes.
func Header() []string {
	cols := []string{"S.No", "Employee", "Date", "IB"}
	for _, st := range domain.Stages {
		cols = append(cols, st.Label())
	}
	return append(cols, "Total Minutes")
}

// WriteSummary renders summaries into w.
func (XLSX) WriteSummary(w io.Writer, summaries []domain.ItemSummary) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := Header()
	if err := setRow(f, 1, toCells(header)); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return fmt.Errorf("header range: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", last, bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	for i, s := range summaries {
		if err := setRow(f, i+2, Row(s)); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Row lays one summary out in Header order.
func Row(s domain.ItemSummary) []interface{} {
	cells := []interface{}{s.Serial, s.Employee, s.Date, s.ItemID}
	for _, st := range domain.Stages {
		cells = append(cells, timing.FormatDuration(s.Stage(st).Total))
	}
	return append(cells, timing.Minutes(s.Seconds()))
}

func setRow(f *excelize.File, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("row %d: %w", row, err)
	}
	if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Completed Reports"

var exportHeaders = []string{
	"ID", "Report Date", "Patient Name", "Age", "Gender", "Mobile", "Doctor", "OPD No",
	"Sample Date", "Test Results", "Artifact", "WhatsApp Status", "WhatsApp Message",
}

var exportWidths = []float64{6, 20, 24, 6, 10, 16, 18, 12, 14, 50, 50, 16, 40}

// ExportXLSX writes every completed report to w as a single-sheet workbook.
func (s *Store) ExportXLSX(ctx context.Context, w io.Writer) error {
	reports, err := s.ListCompletedReports(ctx)
	if err != nil {
		return err
	}
	return WriteXLSX(w, reports)
}

// WriteXLSX renders reports as a workbook with a frozen header row.
func WriteXLSX(w io.Writer, reports []CompletedReport) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return fmt.Errorf("store: xlsx sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("store: xlsx delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E8F0FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("store: xlsx header style: %w", err)
	}

	header := make([]interface{}, len(exportHeaders))
	for i, h := range exportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return fmt.Errorf("store: xlsx header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(exportSheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("store: xlsx header style: %w", err)
	}
	for i, width := range exportWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(exportSheet, col, col, width); err != nil {
			return fmt.Errorf("store: xlsx column width: %w", err)
		}
	}

	for i, r := range reports {
		results, err := json.Marshal(r.TestResults)
		if err != nil {
			return fmt.Errorf("store: xlsx results: %w", err)
		}
		row := []interface{}{
			r.ID, r.ReportDate, r.Patient.Name, r.Patient.Age, r.Patient.Gender, r.Patient.Mobile,
			r.Patient.Doctor, r.Patient.OPDNo, r.Patient.SampleDate, string(results), r.ArtifactPath,
			r.WhatsAppStatus, r.WhatsAppMessage,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("store: xlsx row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("store: xlsx freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("store: xlsx write: %w", err)
	}
	return nil
}

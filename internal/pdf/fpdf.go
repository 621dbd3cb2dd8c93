package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/wolfman30/pathlab/internal/report"
)

// LayoutBackend draws the report table directly with fpdf. No external
// binaries are involved, so it works anywhere the service runs, at the cost of
// ignoring the HTML styling.
type LayoutBackend struct {
	clinic report.Clinic
}

// NewLayoutBackend creates the in-process backend.
func NewLayoutBackend(clinic report.Clinic) *LayoutBackend {
	return &LayoutBackend{clinic: clinic}
}

// Name implements Backend.
func (b *LayoutBackend) Name() string { return "fpdf-layout" }

// Render implements Backend.
func (b *LayoutBackend) Render(ctx context.Context, doc Document, _ string) ([]byte, error) {
	if doc.Report == nil {
		return nil, errors.New("pdf: layout backend needs a rendered report")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rep := doc.Report

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(13, 13, 13)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Times", "B", 18)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 9, tr(b.clinic.Name+" PATHOLOGY REPORT"), "", 1, "C", false, 0, "")
	pdf.SetFont("Times", "", 10)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 6, tr(b.clinic.Address), "B", 1, "C", false, 0, "")
	pdf.Ln(4)

	h := rep.Header
	pdf.SetFont("Times", "", 11)
	for _, row := range [][2]string{
		{"Patient Name", h.PatientName},
		{"Age/Gender", h.AgeGender},
		{"Mobile", h.Mobile},
		{"Doctor", h.Doctor},
		{"OPD No", h.OPDNo},
		{"Sample Date", h.SampleDate},
		{"Report Date", h.ReportDate},
	} {
		pdf.SetFont("Times", "B", 11)
		pdf.CellFormat(35, 6, tr(row[0]+":"), "", 0, "L", false, 0, "")
		pdf.SetFont("Times", "", 11)
		pdf.CellFormat(0, 6, tr(row[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	widths := []float64{80, 52, 52}
	pdf.SetFont("Times", "B", 11)
	pdf.SetFillColor(233, 236, 239)
	for i, title := range []string{"Test Name", "Normal Range", "Result"} {
		pdf.CellFormat(widths[i], 8, title, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	for _, g := range rep.Groups {
		pdf.SetFont("Times", "B", 11)
		pdf.SetFillColor(232, 240, 255)
		pdf.CellFormat(widths[0]+widths[1]+widths[2], 7, tr(g.Category), "1", 1, "C", true, 0, "")
		for _, e := range g.Entries {
			pdf.SetFont("Times", "", 10)
			pdf.SetTextColor(0, 0, 0)
			pdf.CellFormat(widths[0], 7, tr(fmt.Sprintf("%d. %s", e.Line, e.Test)), "1", 0, "L", false, 0, "")
			pdf.CellFormat(widths[1], 7, tr(e.NormalRange), "1", 0, "L", false, 0, "")
			pdf.SetFont("Times", "B", 10)
			switch e.Status {
			case report.StatusAbnormal:
				pdf.SetTextColor(220, 53, 69)
			case report.StatusIndeterminate:
				pdf.SetTextColor(184, 134, 11)
			default:
				pdf.SetTextColor(40, 167, 69)
			}
			pdf.CellFormat(widths[2], 7, tr(e.Result), "1", 1, "L", false, 0, "")
		}
	}
	pdf.SetTextColor(0, 0, 0)

	pdf.Ln(12)
	pdf.SetFont("Times", "B", 11)
	pdf.CellFormat(0, 6, "Signature", "", 1, "R", false, 0, "")
	pdf.SetFont("Times", "", 11)
	pdf.CellFormat(0, 6, "_________________________", "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 6, "(Pathologist)", "", 1, "R", false, 0, "")
	pdf.Ln(6)
	pdf.SetFont("Times", "", 8)
	pdf.SetTextColor(102, 102, 102)
	pdf.CellFormat(0, 5, "This is a computer generated report. For any queries, please contact the laboratory.", "T", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, tr(fmt.Sprintf("Report ID: %s | Generated on: %s", rep.ReportID, rep.GeneratedStamp())), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: fpdf layout output: %w", err)
	}
	return buf.Bytes(), nil
}

// PlaceholderBackend emits a one-page PDF pointing the reader at the HTML
// version. It is the last resort and needs nothing but the library.
type PlaceholderBackend struct {
	clinicName string
}

// NewPlaceholderBackend creates the placeholder backend.
func NewPlaceholderBackend(clinicName string) *PlaceholderBackend {
	return &PlaceholderBackend{clinicName: clinicName}
}

// Name implements Backend.
func (b *PlaceholderBackend) Name() string { return "placeholder" }

// Render implements Backend.
func (b *PlaceholderBackend) Render(ctx context.Context, _ Document, _ string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(100, 100, b.clinicName+" PATHOLOGY REPORT")
	pdf.Text(100, 120, "Patient Report - HTML version available")
	pdf.Text(100, 140, "Please view the HTML report for detailed results")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: placeholder output: %w", err)
	}
	return buf.Bytes(), nil
}

// DefaultBackends returns the production chain order.
func DefaultBackends(clinic report.Clinic, chromePath, wkhtmltopdfPath string) []Backend {
	return []Backend{
		NewChromeBackend(chromePath, "windows"),
		NewWkhtmltopdfBackend(wkhtmltopdfPath, nil),
		NewLayoutBackend(clinic),
		NewPlaceholderBackend(clinic.Name),
	}
}

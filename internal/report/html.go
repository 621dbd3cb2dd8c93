package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

// Clinic is the letterhead printed on every report.
type Clinic struct {
	Name    string
	Address string
}

// HTMLWriter renders a Rendered report into a standalone HTML document.
type HTMLWriter struct {
	clinic Clinic
	tmpl   *template.Template
}

// NewHTMLWriter parses the embedded report template.
func NewHTMLWriter(clinic Clinic) (*HTMLWriter, error) {
	tmpl, err := template.New("report.html.tmpl").
		Option("missingkey=error").
		ParseFS(templateFS, "templates/report.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("report: parse template: %w", err)
	}
	return &HTMLWriter{clinic: clinic, tmpl: tmpl}, nil
}

// Write returns the HTML document for rep.
func (w *HTMLWriter) Write(rep *Rendered) ([]byte, error) {
	if rep == nil {
		return nil, fmt.Errorf("report: nil report")
	}
	var buf bytes.Buffer
	err := w.tmpl.Execute(&buf, struct {
		Clinic Clinic
		Report *Rendered
	}{Clinic: w.clinic, Report: rep})
	if err != nil {
		return nil, fmt.Errorf("report: execute template: %w", err)
	}
	return buf.Bytes(), nil
}

// Clinic returns the letterhead used by the writer.
func (w *HTMLWriter) Clinic() Clinic {
	return w.clinic
}

package intake

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sort"

	"github.com/wolfman30/pathlab/internal/catalog"
	"github.com/wolfman30/pathlab/internal/report"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

const notSpecified = "Not specified"

// FormRow is one result input on the fill-in form.
type FormRow struct {
	Line        int
	Test        string
	NormalRange string
}

// FormGroup is a category block on the fill-in form.
type FormGroup struct {
	Category string
	Rows     []FormRow
}

// Forms renders the two intake pages.
type Forms struct {
	clinic   report.Clinic
	catalog  *catalog.Catalog
	home     *template.Template
	fillable *template.Template
}

// NewForms parses the embedded form templates.
func NewForms(clinic report.Clinic, cat *catalog.Catalog) (*Forms, error) {
	home, err := template.New("home.html.tmpl").Option("missingkey=error").
		ParseFS(templateFS, "templates/home.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("intake: parse home form: %w", err)
	}
	fillable, err := template.New("fillable.html.tmpl").Option("missingkey=error").
		ParseFS(templateFS, "templates/fillable.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("intake: parse fillable form: %w", err)
	}
	return &Forms{clinic: clinic, catalog: cat, home: home, fillable: fillable}, nil
}

// Home renders the patient and test selection page.
func (f *Forms) Home() ([]byte, error) {
	var buf bytes.Buffer
	err := f.home.Execute(&buf, struct {
		Clinic     report.Clinic
		Categories []catalog.Category
	}{Clinic: f.clinic, Categories: f.catalog.Categories()})
	if err != nil {
		return nil, fmt.Errorf("intake: render home form: %w", err)
	}
	return buf.Bytes(), nil
}

// Fillable renders the result entry page for the selected tests.
func (f *Forms) Fillable(p report.Patient, selected []string) ([]byte, error) {
	var buf bytes.Buffer
	err := f.fillable.Execute(&buf, struct {
		Clinic  report.Clinic
		Patient report.Patient
		Groups  []FormGroup
	}{Clinic: f.clinic, Patient: p, Groups: f.Group(selected)})
	if err != nil {
		return nil, fmt.Errorf("intake: render fillable form: %w", err)
	}
	return buf.Bytes(), nil
}

// Group arranges selected tests in catalog order with continuous numbering.
// Duplicates are dropped; tests outside the catalog come last, sorted.
func (f *Forms) Group(selected []string) []FormGroup {
	want := make(map[string]bool, len(selected))
	for _, t := range selected {
		if t != "" {
			want[t] = true
		}
	}

	var groups []FormGroup
	line := 0
	for _, cat := range f.catalog.Categories() {
		var rows []FormRow
		for _, test := range cat.Tests {
			if !want[test] {
				continue
			}
			delete(want, test)
			line++
			rng, ok := f.catalog.NormalRange(test)
			if !ok {
				rng = notSpecified
			}
			rows = append(rows, FormRow{Line: line, Test: test, NormalRange: rng})
		}
		if len(rows) > 0 {
			groups = append(groups, FormGroup{Category: cat.Name, Rows: rows})
		}
	}

	if len(want) > 0 {
		rest := make([]string, 0, len(want))
		for t := range want {
			rest = append(rest, t)
		}
		sort.Strings(rest)
		g := FormGroup{Category: report.Uncategorized}
		for _, t := range rest {
			line++
			g.Rows = append(g.Rows, FormRow{Line: line, Test: t, NormalRange: notSpecified})
		}
		groups = append(groups, g)
	}
	return groups
}

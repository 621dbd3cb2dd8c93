package report

import (
	"strings"
	"testing"
	"time"

	"github.com/wolfman30/pathlab/internal/catalog"
)

var fixedNow = time.Date(2024, 1, 10, 9, 5, 7, 0, time.Local)

func newTestRenderer(opts ...Option) *Renderer {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewRenderer(catalog.Default(), opts...)
}

func testPatient() Patient {
	return Patient{
		Name:       "Asha Rao",
		Age:        "34",
		Gender:     "Female",
		Mobile:     "9876543210",
		Doctor:     "Dr. Mehta",
		OPDNo:      "OPD100",
		SampleDate: "2024-01-10",
	}
}

func TestRenderUreaStatus(t *testing.T) {
	tests := []struct {
		value string
		want  Status
	}{
		{"25", StatusNormal},
		{"10", StatusNormal},
		{"40", StatusNormal},
		{"55", StatusAbnormal},
		{"9.5", StatusAbnormal},
		{"-3", StatusAbnormal},
	}
	r := newTestRenderer()
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			rep := r.Render(testPatient(), ResultSet{"Urea": tt.value})
			entry, ok := rep.Lookup("Urea")
			if !ok {
				t.Fatalf("urea missing from report")
			}
			if entry.Status != tt.want {
				t.Fatalf("urea %s: got %s, want %s", tt.value, entry.Status, tt.want)
			}
			if entry.NormalRange != "10-40 mg/dl" {
				t.Fatalf("unexpected normal range %q", entry.NormalRange)
			}
		})
	}
}

func TestRenderKeywordStatus(t *testing.T) {
	r := newTestRenderer()
	rep := r.Render(testPatient(), ResultSet{
		"HbsAg":       "Positive",
		"HCV":         "Negative",
		"Haemoglobin": "LOW 9.1",
		"CRP":         "4",
	})
	want := map[string]Status{
		"HbsAg":       StatusAbnormal,
		"HCV":         StatusNormal,
		"Haemoglobin": StatusAbnormal,
		"CRP":         StatusNormal,
	}
	for test, status := range want {
		entry, ok := rep.Lookup(test)
		if !ok {
			t.Fatalf("%s missing", test)
		}
		if entry.Status != status {
			t.Errorf("%s: got %s, want %s", test, entry.Status, status)
		}
	}
}

func TestRenderUnparseableNumericDefaultsNormal(t *testing.T) {
	rep := newTestRenderer().Render(testPatient(), ResultSet{"Glucose (F)/RI": "1.2.3", "HbA1c": "7e1"})
	for _, test := range []string{"Glucose (F)/RI", "HbA1c"} {
		entry, _ := rep.Lookup(test)
		if entry.Status != StatusNormal {
			t.Fatalf("%s: expected normal for unparseable value, got %s", test, entry.Status)
		}
	}

	strict := newTestRenderer(WithStrictNumeric()).Render(testPatient(), ResultSet{"Glucose (F)/RI": "1.2.3"})
	entry, _ := strict.Lookup("Glucose (F)/RI")
	if entry.Status != StatusIndeterminate {
		t.Fatalf("expected indeterminate in strict mode, got %s", entry.Status)
	}
}

func TestRenderGroupsFollowCatalogOrder(t *testing.T) {
	rep := newTestRenderer().Render(testPatient(), ResultSet{
		"Typhi Dot":   "Negative",
		"Creatinine":  "1.0",
		"Urea":        "20",
		"Mystery":     "42",
		"Alpha Test":  "1",
		"HbA1c":       "5.0",
		"Cholesterol": "",
	})

	var names []string
	for _, g := range rep.Groups {
		names = append(names, g.Category)
	}
	want := []string{catalog.Biochemistry, catalog.RenalFunction, catalog.Serology, Uncategorized}
	if strings.Join(names, "|") != strings.Join(want, "|") {
		t.Fatalf("got groups %v, want %v", names, want)
	}

	renal := rep.Groups[1].Entries
	if renal[0].Test != "Urea" || renal[1].Test != "Creatinine" {
		t.Fatalf("expected catalog test order inside category, got %s, %s", renal[0].Test, renal[1].Test)
	}

	other := rep.Groups[3].Entries
	if other[0].Test != "Alpha Test" || other[1].Test != "Mystery" {
		t.Fatalf("expected sorted uncategorized entries, got %+v", other)
	}
	if other[0].NormalRange != "Not specified" {
		t.Fatalf("expected fallback normal range, got %q", other[0].NormalRange)
	}
	if _, ok := rep.Lookup("Cholesterol"); ok {
		t.Fatalf("blank value should be dropped")
	}
}

func TestRenderLineNumbersContinueAcrossGroups(t *testing.T) {
	results := ResultSet{}
	for _, cat := range catalog.Default().Categories() {
		for _, test := range cat.Tests {
			results[test] = "1"
		}
	}
	results["Unknown A"] = "x"
	results["Unknown B"] = "y"

	rep := newTestRenderer().Render(testPatient(), results)
	entries := rep.Entries()
	if len(entries) != len(results) {
		t.Fatalf("expected %d entries, got %d", len(results), len(entries))
	}
	for i, e := range entries {
		if e.Line != i+1 {
			t.Fatalf("entry %d has line %d", i, e.Line)
		}
	}
}

func TestRenderHeader(t *testing.T) {
	rep := newTestRenderer().Render(testPatient(), ResultSet{"Urea": "25"})
	h := rep.Header
	if h.AgeGender != "34/Female" {
		t.Fatalf("unexpected age/gender %q", h.AgeGender)
	}
	if h.ReportDate != "2024-01-10 09:05" {
		t.Fatalf("unexpected report date %q", h.ReportDate)
	}
	if rep.ReportID != "20240110090507" {
		t.Fatalf("unexpected report id %q", rep.ReportID)
	}
}

func TestRenderEmptyInputs(t *testing.T) {
	rep := newTestRenderer().Render(Patient{}, nil)
	if len(rep.Groups) != 0 {
		t.Fatalf("expected no groups")
	}
	if rep.Header.PatientName != "" || rep.Header.AgeGender != "/" {
		t.Fatalf("unexpected header for blank patient: %+v", rep.Header)
	}
}

func TestHTMLWriter(t *testing.T) {
	w, err := NewHTMLWriter(Clinic{Name: "UJJIVAN HOSPITAL", Address: "Vidyut Nagar"})
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	p := testPatient()
	p.Name = "<script>alert(1)</script>"
	rep := newTestRenderer().Render(p, ResultSet{"Urea": "55", "HCV": "Negative"})

	out, err := w.Write(rep)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	html := string(out)
	for _, want := range []string{
		"UJJIVAN HOSPITAL PATHOLOGY REPORT",
		"1. Urea",
		"2. HCV",
		`class="abnormal"`,
		"Report ID: 20240110090507",
		"RENAL FUNCTION",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("expected %q in output", want)
		}
	}
	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Fatalf("patient name was not escaped")
	}
	if _, err := w.Write(nil); err == nil {
		t.Fatalf("expected error for nil report")
	}
}

// Package report turns patient details and entered result values into a
// categorized report document.
package report

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/pathlab/internal/catalog"
)

// Uncategorized is the group name for results whose test is not in the catalog.
const Uncategorized = "UNCATEGORIZED"

// Status classifies a single result against its reference range.
type Status string

const (
	StatusNormal   Status = "normal"
	StatusAbnormal Status = "abnormal"
	// StatusIndeterminate is only produced when Renderer.StrictNumeric is set.
	StatusIndeterminate Status = "indeterminate"
)

const (
	headerTimeFormat = "2006-01-02 15:04"
	footerTimeFormat = "2006-01-02 15:04:05"
	reportIDFormat   = "20060102150405"
	notSpecified     = "Not specified"
)

var abnormalKeywords = []string{"positive", "high", "low", "abnormal", "reactive"}

// Patient is the intake data for one report. All fields are free text.
type Patient struct {
	Name       string `json:"name"`
	Age        string `json:"age"`
	Gender     string `json:"gender"`
	Mobile     string `json:"mobile"`
	Doctor     string `json:"doctor"`
	OPDNo      string `json:"opd_no"`
	SampleDate string `json:"sample_date"`
}

// ResultSet maps a test name to the value entered for it.
type ResultSet map[string]string

// Filled returns a copy holding only entries with a non-blank value.
func (rs ResultSet) Filled() ResultSet {
	out := make(ResultSet, len(rs))
	for test, value := range rs {
		if strings.TrimSpace(value) != "" {
			out[test] = value
		}
	}
	return out
}

// Entry is one numbered line of the result table.
type Entry struct {
	Line        int
	Test        string
	NormalRange string
	Result      string
	Status      Status
}

// Abnormal reports whether the entry should be highlighted.
func (e Entry) Abnormal() bool {
	return e.Status == StatusAbnormal
}

// Group is a category heading and its entries.
type Group struct {
	Category string
	Entries  []Entry
}

// Header is the patient block printed above the table.
type Header struct {
	PatientName string
	AgeGender   string
	Mobile      string
	Doctor      string
	OPDNo       string
	SampleDate  string
	ReportDate  string
}

// Rendered is a fully laid-out report ready for presentation.
type Rendered struct {
	Header      Header
	Groups      []Group
	ReportID    string
	GeneratedAt time.Time
}

// GeneratedStamp is the footer timestamp.
func (r *Rendered) GeneratedStamp() string {
	return r.GeneratedAt.Format(footerTimeFormat)
}

// Entries returns every entry across groups in line order.
func (r *Rendered) Entries() []Entry {
	var out []Entry
	for _, g := range r.Groups {
		out = append(out, g.Entries...)
	}
	return out
}

// Lookup finds the entry for test.
func (r *Rendered) Lookup(test string) (Entry, bool) {
	for _, g := range r.Groups {
		for _, e := range g.Entries {
			if e.Test == test {
				return e, true
			}
		}
	}
	return Entry{}, false
}

// Renderer builds Rendered reports from a catalog.
type Renderer struct {
	catalog *catalog.Catalog
	now     func() time.Time
	// StrictNumeric marks unparseable values for range-checked tests as
	// indeterminate instead of normal.
	StrictNumeric bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		r.now = now
	}
}

// WithStrictNumeric enables the indeterminate status.
func WithStrictNumeric() Option {
	return func(r *Renderer) {
		r.StrictNumeric = true
	}
}

// NewRenderer creates a Renderer over cat.
func NewRenderer(cat *catalog.Catalog, opts ...Option) *Renderer {
	if cat == nil {
		cat = catalog.Default()
	}
	r := &Renderer{catalog: cat, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Catalog exposes the catalog the renderer was built with.
func (r *Renderer) Catalog() *catalog.Catalog {
	return r.catalog
}

// Render groups results by catalog category, numbers every line and flags
// out-of-range values. It never fails; blank fields render as empty strings.
func (r *Renderer) Render(p Patient, results ResultSet) *Rendered {
	now := r.now()
	filled := results.Filled()

	var groups []Group
	line := 1
	for _, cat := range r.catalog.Categories() {
		var entries []Entry
		for _, test := range cat.Tests {
			value, ok := filled[test]
			if !ok {
				continue
			}
			entries = append(entries, r.entry(line, test, value))
			line++
		}
		if len(entries) > 0 {
			groups = append(groups, Group{Category: cat.Name, Entries: entries})
		}
	}

	var unknown []string
	for test := range filled {
		if !r.catalog.Contains(test) {
			unknown = append(unknown, test)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		entries := make([]Entry, 0, len(unknown))
		for _, test := range unknown {
			entries = append(entries, r.entry(line, test, filled[test]))
			line++
		}
		groups = append(groups, Group{Category: Uncategorized, Entries: entries})
	}

	return &Rendered{
		Header: Header{
			PatientName: p.Name,
			AgeGender:   p.Age + "/" + p.Gender,
			Mobile:      p.Mobile,
			Doctor:      p.Doctor,
			OPDNo:       p.OPDNo,
			SampleDate:  p.SampleDate,
			ReportDate:  now.Format(headerTimeFormat),
		},
		Groups:      groups,
		ReportID:    now.Format(reportIDFormat),
		GeneratedAt: now,
	}
}

func (r *Renderer) entry(line int, test, value string) Entry {
	normal, ok := r.catalog.NormalRange(test)
	if !ok {
		normal = notSpecified
	}
	return Entry{
		Line:        line,
		Test:        test,
		NormalRange: normal,
		Result:      value,
		Status:      r.status(test, value),
	}
}

func (r *Renderer) status(test, value string) Status {
	lower := strings.ToLower(value)
	for _, word := range abnormalKeywords {
		if strings.Contains(lower, word) {
			return StatusAbnormal
		}
	}
	limits, ok := r.catalog.NumericLimits(test)
	if !ok {
		return StatusNormal
	}
	v, ok := parseNumeric(value)
	if !ok {
		if r.StrictNumeric {
			return StatusIndeterminate
		}
		return StatusNormal
	}
	if !limits.Contains(v) {
		return StatusAbnormal
	}
	return StatusNormal
}

// parseNumeric accepts plain decimal numbers only: digits, an optional sign and
// decimal point. Exponents, NaN and Inf are rejected.
func parseNumeric(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	for _, ch := range value {
		if (ch < '0' || ch > '9') && ch != '.' && ch != '-' {
			return 0, false
		}
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/pathlab/internal/catalog"
	"github.com/wolfman30/pathlab/internal/delivery"
	"github.com/wolfman30/pathlab/internal/pdf"
	"github.com/wolfman30/pathlab/internal/pipeline"
	"github.com/wolfman30/pathlab/internal/report"
	"github.com/wolfman30/pathlab/pkg/logging"
)

type recordedReport struct {
	patient   report.Patient
	results   report.ResultSet
	path      string
	delivered bool
}

type memoryStore struct {
	reports []recordedReport
	forms   []report.Patient
	tests   [][]string
	pingErr error
}

func (m *memoryStore) RecordCompletedReport(_ context.Context, p report.Patient, results report.ResultSet, path string, delivered bool, _ string) bool {
	m.reports = append(m.reports, recordedReport{p, results, path, delivered})
	return true
}

func (m *memoryStore) RecordFormSubmission(_ context.Context, p report.Patient, tests []string) bool {
	m.forms = append(m.forms, p)
	m.tests = append(m.tests, tests)
	return true
}

func (m *memoryStore) ExportXLSX(_ context.Context, w io.Writer) error {
	_, err := w.Write([]byte("PK-xlsx"))
	return err
}

func (m *memoryStore) Ping(context.Context) error { return m.pingErr }

type failingSubmitter struct{}

func (failingSubmitter) Submit(context.Context, report.Patient, report.ResultSet) (*pipeline.Outcome, error) {
	return nil, errors.New("disk full")
}

type testServer struct {
	router http.Handler
	store  *memoryStore
	dir    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := logging.New("error")
	clinic := report.Clinic{Name: "UJJIVAN HOSPITAL", Address: "Vidyut Nagar"}
	cat := catalog.Default()
	dir := t.TempDir()
	st := &memoryStore{}

	html, err := report.NewHTMLWriter(clinic)
	if err != nil {
		t.Fatalf("html writer: %v", err)
	}
	composer, err := delivery.NewComposer(clinic.Name, clinic.Address)
	if err != nil {
		t.Fatalf("composer: %v", err)
	}
	svc, err := pipeline.New(pipeline.Config{
		Renderer: report.NewRenderer(cat),
		HTML:     html,
		PDF: pdf.NewChain([]pdf.Backend{pdf.NewPlaceholderBackend(clinic.Name)}, logger,
			pdf.WithTempRoot(t.TempDir())),
		Delivery:   delivery.NewChain([]delivery.Mechanism{delivery.NewManual(io.Discard, logger)}, composer, logger),
		Recorder:   st,
		ReportsDir: dir,
		BaseURL:    "http://localhost:5000",
		Logger:     logger,
	})
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	forms, err := NewForms(clinic, cat)
	if err != nil {
		t.Fatalf("forms: %v", err)
	}
	h, err := NewHandler(Config{
		Forms:        forms,
		Submitter:    svc,
		FormRecorder: st,
		Exporter:     st,
		Pinger:       st,
		ReportsDir:   dir,
		Logger:       logger,
	})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	r := chi.NewRouter()
	h.Register(r)
	return &testServer{router: r, store: st, dir: dir}
}

func (s *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func submitBody(patient map[string]any, results map[string]any) *bytes.Reader {
	raw, _ := json.Marshal(map[string]any{"patient_data": patient, "test_results": results})
	return bytes.NewReader(raw)
}

func ashaFields() map[string]any {
	return map[string]any{
		"name":        "Asha Rao",
		"age":         "34",
		"gender":      "Female",
		"mobile":      "9876543210",
		"doctor":      "Dr. Mehta",
		"opd_no":      "OPD100",
		"sample_date": "2024-01-10",
	}
}

func postSubmit(t *testing.T, s *testServer, body io.Reader) (*httptest.ResponseRecorder, SubmitResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/submit-report", body)
	req.Header.Set("Content-Type", "application/json")
	rec := s.do(t, req)
	var resp SubmitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec, resp
}

func statusOf(resp SubmitResponse, test string) report.Status {
	for _, r := range resp.Results {
		if r.Test == test {
			return r.Status
		}
	}
	return ""
}

func TestSubmitReportNormalUrea(t *testing.T) {
	s := newTestServer(t)
	rec, resp := postSubmit(t, s, submitBody(ashaFields(), map[string]any{"Urea": "25"}))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !resp.Success {
		t.Fatalf("expected success, got %+v", resp)
	}
	if resp.Message != "Report submitted successfully! PDF generated and WhatsApp message sent." {
		t.Fatalf("unexpected message %q", resp.Message)
	}
	if resp.WhatsAppStatus != "sent" && resp.WhatsAppStatus != "failed" {
		t.Fatalf("unexpected whatsapp status %q", resp.WhatsAppStatus)
	}
	if got := statusOf(resp, "Urea"); got != report.StatusNormal {
		t.Fatalf("expected Urea normal, got %q", got)
	}
	if !strings.HasPrefix(resp.PDFURL, "http://localhost:5000/view-pdf/Pathology_Report_Asha_Rao_") {
		t.Fatalf("unexpected url %q", resp.PDFURL)
	}
	if _, err := os.Stat(resp.PDFPath); err != nil {
		t.Fatalf("artifact missing: %v", err)
	}
	if len(s.store.reports) != 1 {
		t.Fatalf("expected one recorded report, got %d", len(s.store.reports))
	}

	name := filepath.Base(resp.PDFPath)
	view := s.do(t, httptest.NewRequest(http.MethodGet, "/view-pdf/"+name, nil))
	if view.Code != http.StatusOK {
		t.Fatalf("expected artifact to be served, got %d", view.Code)
	}
	if ct := view.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !bytes.HasPrefix(view.Body.Bytes(), []byte("%PDF-")) {
		t.Fatalf("served body is not a pdf")
	}
}

func TestSubmitReportAbnormalUrea(t *testing.T) {
	s := newTestServer(t)
	_, resp := postSubmit(t, s, submitBody(ashaFields(), map[string]any{"Urea": "55"}))
	if got := statusOf(resp, "Urea"); got != report.StatusAbnormal {
		t.Fatalf("expected Urea abnormal, got %q", got)
	}
}

func TestSubmitReportMissingMobile(t *testing.T) {
	s := newTestServer(t)
	fields := ashaFields()
	delete(fields, "mobile")

	rec, resp := postSubmit(t, s, submitBody(fields, map[string]any{"Urea": "25"}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if resp.Success || resp.Message != "Missing required field: mobile" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(s.store.reports) != 0 {
		t.Fatalf("nothing should be recorded")
	}
}

func TestSubmitReportRequestValidation(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/submit-report", strings.NewReader("name=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := s.do(t, req)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "Content-Type must be application/json") {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	for _, body := range []string{"", "{}", "null"} {
		rec, resp := postSubmit(t, s, strings.NewReader(body))
		if rec.Code != http.StatusBadRequest || resp.Message != "No JSON data received" {
			t.Fatalf("body %q: unexpected response %d %+v", body, rec.Code, resp)
		}
	}

	rec, resp := postSubmit(t, s, strings.NewReader("{not json"))
	if rec.Code != http.StatusBadRequest || !strings.HasPrefix(resp.Message, "Invalid JSON") {
		t.Fatalf("unexpected response %d %+v", rec.Code, resp)
	}
}

func TestSubmitReportNumericFields(t *testing.T) {
	s := newTestServer(t)
	fields := ashaFields()
	fields["age"] = 34
	rec, resp := postSubmit(t, s, submitBody(fields, map[string]any{"HbA1c": 7.2}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := statusOf(resp, "HbA1c"); got != report.StatusAbnormal {
		t.Fatalf("expected HbA1c abnormal, got %q", got)
	}
	if s.store.reports[0].patient.Age != "34" {
		t.Fatalf("unexpected age %q", s.store.reports[0].patient.Age)
	}
}

func TestSubmitReportServerError(t *testing.T) {
	s := newTestServer(t)
	forms, _ := NewForms(report.Clinic{}, catalog.Default())
	h, err := NewHandler(Config{Forms: forms, Submitter: failingSubmitter{}, ReportsDir: s.dir})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/submit-report", submitBody(ashaFields(), nil))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec := httptest.NewRecorder()
	h.SubmitReport(rec, req)
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "Server Error: disk full") {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestSubmitOptions(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, httptest.NewRequest(http.MethodOptions, "/submit-report", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestViewPDFRejectsTraversal(t *testing.T) {
	s := newTestServer(t)
	for _, target := range []string{"/view-pdf/../../etc/passwd", "/view-pdf//etc/passwd", "/view-pdf/a/b.pdf"} {
		rec := s.do(t, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Invalid filename") {
			t.Fatalf("%s: unexpected body %s", target, rec.Body.String())
		}
	}
}

func TestSubmitReportLinkResolvesForPunctuatedName(t *testing.T) {
	s := newTestServer(t)
	fields := ashaFields()
	fields["name"] = "Rao, Asha; Jr."
	rec, resp := postSubmit(t, s, submitBody(fields, map[string]any{"Urea": "25"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	u, err := url.Parse(resp.PDFURL)
	if err != nil {
		t.Fatalf("parse url %q: %v", resp.PDFURL, err)
	}
	view := s.do(t, httptest.NewRequest(http.MethodGet, u.RequestURI(), nil))
	if view.Code != http.StatusOK {
		t.Fatalf("GET %s: expected 200, got %d: %s", u.RequestURI(), view.Code, view.Body.String())
	}
	if !bytes.HasPrefix(view.Body.Bytes(), []byte("%PDF-")) {
		t.Fatalf("served body is not a pdf")
	}
}

func TestViewPDFEscapedName(t *testing.T) {
	s := newTestServer(t)
	if err := os.WriteFile(filepath.Join(s.dir, "Pathology_Report_Rao,_Asha.html"), []byte("<html>ok</html>"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/view-pdf/Pathology_Report_Rao%2C_Asha.html", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/view-pdf/..%2F..%2Fetc%2Fpasswd", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected encoded traversal to be rejected, got %d", rec.Code)
	}
}

func TestViewPDFContentTypes(t *testing.T) {
	s := newTestServer(t)
	files := map[string]string{
		"r.html": "<html>ok</html>",
		"r.txt":  "plain",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(s.dir, name), []byte(body), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/view-pdf/r.html", nil))
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "text/html; charset=utf-8" {
		t.Fatalf("unexpected html response %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/view-pdf/r.txt", nil))
	if !strings.HasPrefix(rec.Header().Get("Content-Disposition"), "attachment") {
		t.Fatalf("expected attachment, got %q", rec.Header().Get("Content-Disposition"))
	}

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/view-pdf/missing.pdf", nil))
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "File not found: missing.pdf") {
		t.Fatalf("unexpected missing response %d %s", rec.Code, rec.Body.String())
	}
}

func TestFillableForm(t *testing.T) {
	s := newTestServer(t)
	patient, _ := json.Marshal(ashaFields())
	tests, _ := json.Marshal([]string{"HCV", "Urea", "Mystery Test", "Urea"})
	q := url.Values{}
	q.Set("patient_data", string(patient))
	q.Set("selected_tests", string(tests))

	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/fillable-form?"+q.Encode(), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{"Asha Rao", "1. Urea", "2. HCV", "3. Mystery Test", report.Uncategorized, `data-test="Urea"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("form missing %q", want)
		}
	}
	if len(s.store.forms) != 1 || s.store.forms[0].Mobile != "9876543210" {
		t.Fatalf("form submission not recorded: %+v", s.store.forms)
	}
}

func TestFillableFormErrors(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/fillable-form", nil))
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "No patient data provided") {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	q := url.Values{}
	q.Set("patient_data", "{bad")
	q.Set("selected_tests", "[]")
	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/fillable-form?"+q.Encode(), nil))
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "Error loading form") {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if len(s.store.forms) != 0 {
		t.Fatalf("malformed form should not be recorded")
	}
}

func TestHomeListsCatalog(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	for _, want := range []string{catalog.Biochemistry, catalog.Serology, `value="Urea"`} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Fatalf("home page missing %q", want)
		}
	}
}

func TestHealthAndExport(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected health %d %s", rec.Code, rec.Body.String())
	}

	s.store.pingErr = errors.New("database is locked")
	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/reports/export.xlsx", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "PK-xlsx" {
		t.Fatalf("unexpected export %d %q", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "completed_reports_") {
		t.Fatalf("unexpected disposition %q", rec.Header().Get("Content-Disposition"))
	}
}

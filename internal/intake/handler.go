// Package intake serves the local web forms and the report submission API.
package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/pathlab/internal/pipeline"
	"github.com/wolfman30/pathlab/internal/report"
	"github.com/wolfman30/pathlab/pkg/logging"
)

// ErrMissingField is returned when a required patient field is blank.
var ErrMissingField = errors.New("intake: missing required field")

var requiredFields = []string{"name", "age", "gender", "mobile"}

const maxBodyBytes = 1 << 20

// Submitter runs the report pipeline.
type Submitter interface {
	Submit(ctx context.Context, p report.Patient, results report.ResultSet) (*pipeline.Outcome, error)
}

// FormRecorder logs served fill-in forms.
type FormRecorder interface {
	RecordFormSubmission(ctx context.Context, p report.Patient, selectedTests []string) bool
}

// Exporter writes the completed report log as a workbook.
type Exporter interface {
	ExportXLSX(ctx context.Context, w io.Writer) error
}

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config wires a Handler. FormRecorder, Exporter and Pinger are optional.
type Config struct {
	Forms        *Forms
	Submitter    Submitter
	FormRecorder FormRecorder
	Exporter     Exporter
	Pinger       Pinger
	ReportsDir   string
	Logger       *logging.Logger
}

// Handler serves the intake surface.
type Handler struct {
	cfg    Config
	logger *logging.Logger
}

// NewHandler builds the intake handler.
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.Forms == nil {
		return nil, errors.New("intake: forms required")
	}
	if cfg.Submitter == nil {
		return nil, errors.New("intake: submitter required")
	}
	if strings.TrimSpace(cfg.ReportsDir) == "" {
		return nil, errors.New("intake: reports dir required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Handler{cfg: cfg, logger: cfg.Logger}, nil
}

// SubmitResponse is the JSON answer to POST /submit-report.
type SubmitResponse struct {
	Success         bool           `json:"success"`
	Message         string         `json:"message"`
	WhatsAppStatus  string         `json:"whatsapp_status,omitempty"`
	WhatsAppMessage string         `json:"whatsapp_message,omitempty"`
	PDFPath         string         `json:"pdf_path,omitempty"`
	PDFURL          string         `json:"pdf_url,omitempty"`
	ReportID        string         `json:"report_id,omitempty"`
	Results         []ResultStatus `json:"results,omitempty"`
}

// ResultStatus is one rendered line echoed back to the caller.
type ResultStatus struct {
	Line        int           `json:"line"`
	Category    string        `json:"category"`
	Test        string        `json:"test"`
	NormalRange string        `json:"normal_range"`
	Result      string        `json:"result"`
	Status      report.Status `json:"status"`
}

// Home serves the category/test selection page.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	page, err := h.cfg.Forms.Home()
	if err != nil {
		h.logger.Error("render home form failed", "error", err)
		http.Error(w, "Error loading form: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeHTML(w, http.StatusOK, page)
}

// FillableForm serves the result entry page for the patient and tests passed
// as JSON query parameters.
func (h *Handler) FillableForm(w http.ResponseWriter, r *http.Request) {
	patientJSON := r.URL.Query().Get("patient_data")
	testsJSON := r.URL.Query().Get("selected_tests")
	if patientJSON == "" || testsJSON == "" {
		http.Error(w, "Error: No patient data provided", http.StatusBadRequest)
		return
	}

	var fields map[string]any
	if err := decodeJSON(patientJSON, &fields); err != nil {
		http.Error(w, "Error loading form: invalid patient_data: "+err.Error(), http.StatusBadRequest)
		return
	}
	var selected []string
	if err := decodeJSON(testsJSON, &selected); err != nil {
		http.Error(w, "Error loading form: invalid selected_tests: "+err.Error(), http.StatusBadRequest)
		return
	}
	patient := patientFromFields(fields)

	if h.cfg.FormRecorder != nil && !h.cfg.FormRecorder.RecordFormSubmission(r.Context(), patient, selected) {
		h.logger.Warn("form submission not recorded", "patient", patient.Name)
	}

	page, err := h.cfg.Forms.Fillable(patient, selected)
	if err != nil {
		h.logger.Error("render fillable form failed", "error", err)
		http.Error(w, "Error loading form: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeHTML(w, http.StatusOK, page)
}

// SubmitOptions answers the preflight for /submit-report.
func (h *Handler) SubmitOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SubmitReport validates the submission and runs the pipeline.
func (h *Handler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r.Header.Get("Content-Type")) {
		writeJSON(w, http.StatusBadRequest, SubmitResponse{Message: "Content-Type must be application/json"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, SubmitResponse{Message: "Invalid request body: " + err.Error()})
		return
	}
	var payload map[string]any
	if len(bytes.TrimSpace(body)) > 0 {
		if err := decodeJSON(string(body), &payload); err != nil {
			writeJSON(w, http.StatusBadRequest, SubmitResponse{Message: "Invalid JSON: " + err.Error()})
			return
		}
	}
	if len(payload) == 0 {
		writeJSON(w, http.StatusBadRequest, SubmitResponse{Message: "No JSON data received"})
		return
	}

	patientFields, _ := payload["patient_data"].(map[string]any)
	patient := patientFromFields(patientFields)
	if err := validatePatient(patient); err != nil {
		writeJSON(w, http.StatusBadRequest, SubmitResponse{Message: missingFieldMessage(err)})
		return
	}
	resultFields, _ := payload["test_results"].(map[string]any)
	results := make(report.ResultSet, len(resultFields))
	for test, v := range resultFields {
		results[test] = stringify(v)
	}
	h.logger.Info("report submission received", "patient", patient.Name, "tests", len(results))

	out, err := h.cfg.Submitter.Submit(r.Context(), patient, results)
	if err != nil {
		h.logger.Error("report submission failed", "patient", patient.Name, "error", err)
		writeJSON(w, http.StatusInternalServerError, SubmitResponse{Message: "Server Error: " + err.Error()})
		return
	}

	resp := SubmitResponse{
		Success:         true,
		Message:         out.Message(),
		WhatsAppStatus:  out.Delivery.Status(),
		WhatsAppMessage: out.Delivery.Message,
		PDFPath:         out.ArtifactPath,
		PDFURL:          out.ArtifactURL,
	}
	if out.Report != nil {
		resp.ReportID = out.Report.ReportID
		for _, g := range out.Report.Groups {
			for _, e := range g.Entries {
				resp.Results = append(resp.Results, ResultStatus{
					Line:        e.Line,
					Category:    g.Category,
					Test:        e.Test,
					NormalRange: e.NormalRange,
					Result:      e.Result,
					Status:      e.Status,
				})
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ViewPDF serves a generated artifact from the reports directory.
func (h *Handler) ViewPDF(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	if name == "" {
		name = chi.URLParam(r, "filename")
	}
	// chi matches on RawPath when the request carries escapes Go would not
	// produce itself, leaving the parameter still encoded.
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	if !validArtifactName(name) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid filename"})
		return
	}

	f, err := os.Open(filepath.Join(h.cfg.ReportsDir, name))
	if errors.Is(err, fs.ErrNotExist) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "File not found: " + name})
		return
	}
	if err != nil {
		h.logger.Error("open artifact failed", "file", name, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error serving file: " + err.Error()})
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "File not found: " + name})
		return
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", name))
	case ".html", ".htm":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	default:
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	}
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// Health reports liveness, and storage reachability when a Pinger is set.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Pinger != nil {
		if err := h.cfg.Pinger.Ping(r.Context()); err != nil {
			h.logger.Warn("health check: store unreachable", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ExportXLSX downloads every completed report as a workbook.
func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Exporter == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "export not available"})
		return
	}
	var buf bytes.Buffer
	if err := h.cfg.Exporter.ExportXLSX(r.Context(), &buf); err != nil {
		h.logger.Error("xlsx export failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Export failed: " + err.Error()})
		return
	}
	name := fmt.Sprintf("completed_reports_%s.xlsx", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func validatePatient(p report.Patient) error {
	values := map[string]string{"name": p.Name, "age": p.Age, "gender": p.Gender, "mobile": p.Mobile}
	for _, field := range requiredFields {
		if strings.TrimSpace(values[field]) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, field)
		}
	}
	return nil
}

func missingFieldMessage(err error) string {
	field := strings.TrimPrefix(err.Error(), ErrMissingField.Error()+": ")
	return "Missing required field: " + field
}

func validArtifactName(name string) bool {
	if name == "" || strings.Contains(name, "..") || strings.HasPrefix(name, "/") {
		return false
	}
	return !strings.ContainsAny(name, "/\\")
}

func isJSONContentType(value string) bool {
	mt, _, err := mime.ParseMediaType(value)
	if err != nil {
		return false
	}
	return mt == "application/json" || (strings.HasPrefix(mt, "application/") && strings.HasSuffix(mt, "+json"))
}

func decodeJSON(raw string, v any) error {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

func patientFromFields(fields map[string]any) report.Patient {
	return report.Patient{
		Name:       strings.TrimSpace(stringify(fields["name"])),
		Age:        strings.TrimSpace(stringify(fields["age"])),
		Gender:     strings.TrimSpace(stringify(fields["gender"])),
		Mobile:     strings.TrimSpace(stringify(fields["mobile"])),
		Doctor:     strings.TrimSpace(stringify(fields["doctor"])),
		OPDNo:      strings.TrimSpace(stringify(fields["opd_no"])),
		SampleDate: strings.TrimSpace(stringify(fields["sample_date"])),
	}
}

// stringify renders a decoded JSON scalar as form text.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

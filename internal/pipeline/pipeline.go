// Package pipeline runs one report submission end to end: render, convert to
// PDF, persist the artifact, deliver the link and record the outcome.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wolfman30/pathlab/internal/archive"
	"github.com/wolfman30/pathlab/internal/delivery"
	"github.com/wolfman30/pathlab/internal/pdf"
	"github.com/wolfman30/pathlab/internal/report"
	"github.com/wolfman30/pathlab/pkg/logging"
)

const (
	msgPDFReady  = "Report submitted successfully! PDF generated and WhatsApp message sent."
	msgHTMLReady = "Report submitted successfully! (HTML version - PDF generation failed)"
)

// PDFConverter turns a rendered document into PDF bytes.
type PDFConverter interface {
	Render(ctx context.Context, doc pdf.Document) (pdf.Result, error)
}

// Deliverer notifies the patient of the artifact URL.
type Deliverer interface {
	Send(ctx context.Context, mobile string, patient report.Patient, reportURL string) delivery.Result
}

// Recorder appends the completed report row.
type Recorder interface {
	RecordCompletedReport(ctx context.Context, p report.Patient, results report.ResultSet, artifactPath string, delivered bool, deliveryMessage string) bool
}

// Mirror copies an artifact off-site.
type Mirror interface {
	Mirror(ctx context.Context, a archive.Artifact) (string, error)
}

// Observer receives submission latency and record outcomes.
type Observer interface {
	ObserveSubmitLatency(seconds float64)
	ObserveRecord(ok bool)
}

// Config wires a Service.
type Config struct {
	Renderer   *report.Renderer
	HTML       *report.HTMLWriter
	PDF        PDFConverter
	Delivery   Deliverer
	Recorder   Recorder
	Mirror     Mirror
	Observer   Observer
	ReportsDir string
	BaseURL    string
	Logger     *logging.Logger
}

// Outcome is what a submission produced.
type Outcome struct {
	Report       *report.Rendered
	ArtifactName string
	ArtifactPath string
	ArtifactURL  string
	PDF          bool
	Backend      string
	Delivery     delivery.Result
	Recorded     bool
}

// Message is the staff-facing summary.
func (o *Outcome) Message() string {
	if o.PDF {
		return msgPDFReady
	}
	return msgHTMLReady
}

// Service runs submissions.
type Service struct {
	cfg    Config
	now    func() time.Time
	logger *logging.Logger
}

// New validates cfg and builds a Service.
func New(cfg Config) (*Service, error) {
	switch {
	case cfg.Renderer == nil:
		return nil, errors.New("pipeline: renderer required")
	case cfg.HTML == nil:
		return nil, errors.New("pipeline: html writer required")
	case cfg.PDF == nil:
		return nil, errors.New("pipeline: pdf converter required")
	case cfg.Delivery == nil:
		return nil, errors.New("pipeline: deliverer required")
	case cfg.Recorder == nil:
		return nil, errors.New("pipeline: recorder required")
	case strings.TrimSpace(cfg.ReportsDir) == "":
		return nil, errors.New("pipeline: reports dir required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Service{cfg: cfg, now: time.Now, logger: cfg.Logger}, nil
}

// ReportsDir is where artifacts are written.
func (s *Service) ReportsDir() string {
	return s.cfg.ReportsDir
}

// Submit runs the pipeline. Only failures to render or persist the artifact
// are returned as errors; PDF, delivery, mirror and record failures degrade.
// Once started a submission runs to completion even if ctx is cancelled; the
// backend and mechanism timeouts are the only bounds.
func (s *Service) Submit(ctx context.Context, p report.Patient, results report.ResultSet) (*Outcome, error) {
	ctx = context.WithoutCancel(ctx)
	start := s.now()
	if s.cfg.Observer != nil {
		defer func() { s.cfg.Observer.ObserveSubmitLatency(time.Since(start).Seconds()) }()
	}

	filled := results.Filled()
	rendered := s.cfg.Renderer.Render(p, filled)
	html, err := s.cfg.HTML.Write(rendered)
	if err != nil {
		return nil, fmt.Errorf("pipeline: render html: %w", err)
	}

	out := &Outcome{Report: rendered}
	data, ext := html, "html"
	res, err := s.cfg.PDF.Render(ctx, pdf.Document{Report: rendered, HTML: html})
	if err == nil && res.OK() {
		data, ext = res.PDF, "pdf"
		out.PDF = true
		out.Backend = res.Backend
	} else {
		s.logger.Warn("pdf generation failed; saving html artifact", "patient", p.Name, "error", err)
	}

	out.ArtifactName = ArtifactName(p.Name, start, ext)
	out.ArtifactPath = filepath.Join(s.cfg.ReportsDir, out.ArtifactName)
	if err := writeArtifact(s.cfg.ReportsDir, out.ArtifactName, data); err != nil {
		return nil, err
	}
	out.ArtifactURL = s.cfg.BaseURL + "/view-pdf/" + url.PathEscape(out.ArtifactName)
	s.logger.Info("report artifact saved", "path", out.ArtifactPath, "pdf", out.PDF, "backend", out.Backend)

	out.Delivery = s.cfg.Delivery.Send(ctx, p.Mobile, p, out.ArtifactURL)

	if s.cfg.Mirror != nil {
		if _, err := s.cfg.Mirror.Mirror(ctx, archive.Artifact{
			Path:           out.ArtifactPath,
			Mobile:         out.Delivery.Mobile,
			Backend:        out.Backend,
			DeliveryStatus: out.Delivery.Status(),
			CreatedAt:      start,
		}); err != nil {
			s.logger.Warn("artifact mirror failed", "path", out.ArtifactPath, "error", err)
		}
	}

	out.Recorded = s.cfg.Recorder.RecordCompletedReport(ctx, p, filled, out.ArtifactPath, out.Delivery.Sent, out.Delivery.Message)
	if s.cfg.Observer != nil {
		s.cfg.Observer.ObserveRecord(out.Recorded)
	}
	if !out.Recorded {
		s.logger.Warn("completed report not recorded", "path", out.ArtifactPath)
	}
	return out, nil
}

// ArtifactName builds Pathology_Report_<name>_<YYYYMMDD_HHMMSS>.<ext>.
func ArtifactName(patientName string, t time.Time, ext string) string {
	return fmt.Sprintf("Pathology_Report_%s_%s.%s", sanitizeName(patientName), t.Format("20060102_150405"), ext)
}

// Characters that would be percent-escaped in the artifact URL or are unsafe
// in a file name.
var nameReplacer = strings.NewReplacer(
	" ", "_", "/", "_", "\\", "_",
	",", "_", ";", "_", "?", "_", "#", "_", "%", "_", "&", "_", "+", "_",
	"\"", "_", "'", "_", "<", "_", ">", "_", ":", "_", "*", "_", "|", "_",
)

func sanitizeName(name string) string {
	name = nameReplacer.Replace(strings.TrimSpace(name))
	for strings.Contains(name, "..") {
		name = strings.ReplaceAll(name, "..", "_")
	}
	return name
}

// writeArtifact writes through a temp file in dir so a failed write never
// leaves a partial artifact behind.
func writeArtifact(dir, name string, data []byte) (err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("pipeline: create reports dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".pending-*")
	if err != nil {
		return fmt.Errorf("pipeline: create artifact: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("pipeline: write artifact: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("pipeline: close artifact: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("pipeline: chmod artifact: %w", err)
	}
	if err = os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("pipeline: rename artifact: %w", err)
	}
	return nil
}

// Package pdf converts a rendered report into PDF bytes by trying a fixed,
// ordered list of backends until one succeeds.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/pathlab/internal/report"
	"github.com/wolfman30/pathlab/pkg/logging"
)

var chainTracer = otel.Tracer("pathlab.internal.pdf.chain")

var (
	// ErrBackendUnavailable is returned by a backend that cannot run on this host.
	ErrBackendUnavailable = errors.New("pdf: backend unavailable")
	// ErrAllBackendsFailed is the summary error when no backend produced a PDF.
	ErrAllBackendsFailed = errors.New("pdf: all backends failed")
)

// Document is the input handed to every backend.
type Document struct {
	Report *report.Rendered
	HTML   []byte
}

// Backend is one strategy for producing a PDF.
// workDir is a scratch directory owned by the chain and removed after the call.
type Backend interface {
	Name() string
	Render(ctx context.Context, doc Document, workDir string) ([]byte, error)
}

// Observer receives per-backend outcomes.
type Observer interface {
	ObserveRender(backend, outcome string)
}

// Attempt records what happened with one backend.
type Attempt struct {
	Backend string
	Err     error
}

// Result is the outcome of a chain run.
type Result struct {
	PDF      []byte
	Backend  string
	Attempts []Attempt
}

// OK reports whether a backend produced bytes.
func (r Result) OK() bool {
	return r.Backend != "" && len(r.PDF) > 0
}

// Chain tries backends in priority order.
type Chain struct {
	backends []Backend
	tempRoot string
	timeout  time.Duration
	observer Observer
	logger   *logging.Logger
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithTempRoot sets the parent directory for per-call scratch directories.
func WithTempRoot(dir string) ChainOption {
	return func(c *Chain) {
		c.tempRoot = dir
	}
}

// WithBackendTimeout bounds each backend attempt.
func WithBackendTimeout(d time.Duration) ChainOption {
	return func(c *Chain) {
		c.timeout = d
	}
}

// WithObserver attaches a metrics observer.
func WithObserver(o Observer) ChainOption {
	return func(c *Chain) {
		c.observer = o
	}
}

// NewChain builds a chain over backends, tried in the order given.
func NewChain(backends []Backend, logger *logging.Logger, opts ...ChainOption) *Chain {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Chain{
		backends: append([]Backend(nil), backends...),
		timeout:  30 * time.Second,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Backends returns the backend names in priority order.
func (c *Chain) Backends() []string {
	names := make([]string, len(c.backends))
	for i, b := range c.backends {
		names[i] = b.Name()
	}
	return names
}

// ToDocumentBytes returns the first successful backend's PDF. A false result
// means the caller should persist the HTML document instead.
func (c *Chain) ToDocumentBytes(ctx context.Context, doc Document) (bool, []byte) {
	res, err := c.Render(ctx, doc)
	if err != nil {
		return false, nil
	}
	return true, res.PDF
}

// Render runs the chain and reports every attempt. The returned error wraps
// ErrAllBackendsFailed when nothing succeeded.
func (c *Chain) Render(ctx context.Context, doc Document) (Result, error) {
	ctx, span := chainTracer.Start(ctx, "pdf.chain.render")
	defer span.End()

	var res Result
	workDir, err := os.MkdirTemp(c.tempRoot, "pathlab-pdf-*")
	if err != nil {
		c.logger.Error("pdf scratch dir unavailable", "error", err)
		return res, fmt.Errorf("%w: scratch dir: %v", ErrAllBackendsFailed, err)
	}
	defer func() {
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			c.logger.Warn("pdf scratch cleanup failed", "dir", workDir, "error", rmErr)
		}
	}()

	for _, backend := range c.backends {
		name := backend.Name()
		data, err := c.attempt(ctx, backend, doc, workDir)
		if err == nil && len(data) == 0 {
			err = errors.New("pdf: backend returned no bytes")
		}
		res.Attempts = append(res.Attempts, Attempt{Backend: name, Err: err})
		if err != nil {
			outcome := "failed"
			if errors.Is(err, ErrBackendUnavailable) {
				outcome = "unavailable"
				c.logger.Debug("pdf backend skipped", "backend", name, "error", err)
			} else {
				c.logger.Warn("pdf backend failed; trying next", "backend", name, "error", err)
			}
			c.observe(name, outcome)
			continue
		}
		c.observe(name, "success")
		c.logger.Info("pdf generated", "backend", name, "bytes", len(data))
		span.SetAttributes(attribute.String("pathlab.pdf.backend", name))
		res.PDF = data
		res.Backend = name
		return res, nil
	}

	c.logger.Warn("no pdf backend succeeded; falling back to html", "attempts", len(res.Attempts))
	return res, ErrAllBackendsFailed
}

func (c *Chain) attempt(ctx context.Context, backend Backend, doc Document, workDir string) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = fmt.Errorf("pdf: backend %s panicked: %v", backend.Name(), r)
		}
	}()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return backend.Render(ctx, doc, workDir)
}

func (c *Chain) observe(backend, outcome string) {
	if c.observer != nil {
		c.observer.ObserveRender(backend, outcome)
	}
}

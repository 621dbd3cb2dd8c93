package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wolfman30/pathlab/internal/report"
	"github.com/wolfman30/pathlab/pkg/logging"
)

// Observer receives per-mechanism outcomes.
type Observer interface {
	ObserveDelivery(mechanism, outcome string)
}

// Attempt records what happened with one mechanism.
type Attempt struct {
	Mechanism string
	Err       error
}

// Result is the verdict of a delivery run.
type Result struct {
	Sent      bool
	Message   string
	Mechanism string
	Mobile    string
	Attempts  []Attempt
}

// Status is the value stored with the report record.
func (r Result) Status() string {
	if r.Sent {
		return "sent"
	}
	return "failed"
}

// Chain tries mechanisms in priority order and stops at the first success.
type Chain struct {
	mechanisms  []Mechanism
	composer    *Composer
	countryCode string
	timeout     time.Duration
	observer    Observer
	logger      *logging.Logger
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithCountryCode overrides the mobile prefix.
func WithCountryCode(code string) ChainOption {
	return func(c *Chain) {
		c.countryCode = code
	}
}

// WithTimeout bounds each mechanism attempt.
func WithTimeout(d time.Duration) ChainOption {
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

// NewChain builds a delivery chain over mechanisms, tried in the order given.
func NewChain(mechanisms []Mechanism, composer *Composer, logger *logging.Logger, opts ...ChainOption) *Chain {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Chain{
		mechanisms:  append([]Mechanism(nil), mechanisms...),
		composer:    composer,
		countryCode: DefaultCountryCode,
		timeout:     15 * time.Second,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mechanisms returns the mechanism names in priority order.
func (c *Chain) Mechanisms() []string {
	names := make([]string, len(c.mechanisms))
	for i, m := range c.mechanisms {
		names[i] = m.Name()
	}
	return names
}

// Deliver notifies the patient and returns a definite verdict with a message
// for staff.
func (c *Chain) Deliver(ctx context.Context, mobile string, patient report.Patient, reportURL string) (bool, string) {
	res := c.Send(ctx, mobile, patient, reportURL)
	return res.Sent, res.Message
}

// Send is Deliver with the per-mechanism detail kept.
func (c *Chain) Send(ctx context.Context, mobile string, patient report.Patient, reportURL string) Result {
	var res Result
	normalized, err := NormalizeMobile(mobile, c.countryCode)
	if err != nil {
		c.logger.Warn("mobile number rejected", "error", err)
		res.Message = "Mobile number error: " + ErrInvalidMobile.Error()
		return res
	}
	res.Mobile = normalized

	if c.composer == nil {
		res.Message = "Message error: composer not configured"
		return res
	}
	body, err := c.composer.Compose(patient, reportURL)
	if err != nil {
		c.logger.Error("whatsapp message compose failed", "error", err)
		res.Message = "Message error: " + err.Error()
		return res
	}
	notice := Notice{Mobile: normalized, Patient: patient, ReportURL: reportURL, Body: body}

	var lastErr error
	for _, m := range c.mechanisms {
		name := m.Name()
		if cm, ok := m.(Configurable); ok && !cm.Configured() {
			err := fmt.Errorf("%w: %s", ErrNotConfigured, name)
			res.Attempts = append(res.Attempts, Attempt{Mechanism: name, Err: err})
			c.logger.Debug("delivery mechanism skipped", "mechanism", name)
			c.observe(name, "skipped")
			lastErr = err
			continue
		}
		msg, err := c.attempt(ctx, m, notice)
		res.Attempts = append(res.Attempts, Attempt{Mechanism: name, Err: err})
		if err != nil {
			c.logger.Warn("delivery mechanism failed; trying next", "mechanism", name, "error", err, "to", normalized)
			c.observe(name, "failed")
			lastErr = err
			continue
		}
		c.observe(name, "success")
		res.Sent = true
		res.Message = msg
		res.Mechanism = name
		return res
	}

	if lastErr == nil {
		lastErr = errors.New("no delivery mechanisms configured")
	}
	c.logger.Error("all delivery mechanisms failed", "to", normalized, "error", lastErr)
	res.Message = "All delivery methods failed: " + lastErr.Error()
	return res
}

func (c *Chain) attempt(ctx context.Context, m Mechanism, n Notice) (msg string, err error) {
	defer func() {
		if r := recover(); r != nil {
			msg = ""
			err = fmt.Errorf("delivery: %s panicked: %v", m.Name(), r)
		}
	}()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return m.Deliver(ctx, n)
}

func (c *Chain) observe(mechanism, outcome string) {
	if c.observer != nil {
		c.observer.ObserveDelivery(mechanism, outcome)
	}
}

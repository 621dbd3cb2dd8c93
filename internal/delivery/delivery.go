// Package delivery notifies a patient of their report link over WhatsApp,
// trying each configured mechanism in priority order.
package delivery

import (
	"context"
	"errors"

	"github.com/wolfman30/pathlab/internal/report"
)

var (
	// ErrInvalidMobile is returned when a number cannot be normalized.
	ErrInvalidMobile = errors.New("invalid mobile number format")
	// ErrNotConfigured is returned by a mechanism missing its credentials.
	ErrNotConfigured = errors.New("delivery: mechanism not configured")
)

// Notice is what every mechanism receives.
type Notice struct {
	// Mobile is the normalized number, country code included, digits only.
	Mobile    string
	Patient   report.Patient
	ReportURL string
	Body      string
}

// Mechanism is one way of getting the link to the patient. The returned
// string is the human-readable outcome shown to staff.
type Mechanism interface {
	Name() string
	Deliver(ctx context.Context, n Notice) (string, error)
}

// Configurable is implemented by mechanisms that need credentials. The chain
// skips a mechanism whose Configured reports false without calling Deliver.
type Configurable interface {
	Configured() bool
}

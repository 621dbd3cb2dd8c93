package delivery

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wolfman30/pathlab/pkg/logging"
)

// Manual prints the composed message for staff to relay by hand. It is the
// terminal mechanism and does not fail on its own.
type Manual struct {
	out    io.Writer
	logger *logging.Logger
}

// NewManual writes prepared messages to out, or stdout when out is nil.
func NewManual(out io.Writer, logger *logging.Logger) *Manual {
	if out == nil {
		out = os.Stdout
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Manual{out: out, logger: logger}
}

// Name implements Mechanism.
func (m *Manual) Name() string { return "manual" }

// Deliver implements Mechanism.
func (m *Manual) Deliver(_ context.Context, n Notice) (string, error) {
	rule := strings.Repeat("=", 50)
	if _, err := fmt.Fprintf(m.out, "Message ready for %s:\n%s\n%s\n%s\nReport URL: %s\n",
		n.Mobile, rule, strings.TrimSpace(n.Body), rule, n.ReportURL); err != nil {
		m.logger.Warn("manual message print failed", "error", err)
	}
	m.logger.Info("report link prepared for manual relay", "to", n.Mobile, "url", n.ReportURL, "patient", n.Patient.Name)
	return "Message prepared. URL: " + n.ReportURL, nil
}

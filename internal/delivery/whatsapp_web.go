package delivery

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pkg/browser"

	"github.com/wolfman30/pathlab/pkg/logging"
)

// DefaultWhatsAppWebURL is the deep-link endpoint of WhatsApp Web.
const DefaultWhatsAppWebURL = "https://web.whatsapp.com/send"

// URLOpener hands a URL to something that can display it.
type URLOpener func(rawURL string) error

// WhatsAppWeb opens a pre-filled WhatsApp Web chat. Success means the link was
// handed off; staff still press send.
type WhatsAppWeb struct {
	baseURL string
	enabled bool
	open    URLOpener
	logger  *logging.Logger
}

// NewWhatsAppWeb builds the deep-link mechanism. A nil opener uses the system browser.
func NewWhatsAppWeb(baseURL string, enabled bool, open URLOpener, logger *logging.Logger) *WhatsAppWeb {
	if baseURL == "" {
		baseURL = DefaultWhatsAppWebURL
	}
	if open == nil {
		open = browser.OpenURL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WhatsAppWeb{baseURL: baseURL, enabled: enabled, open: open, logger: logger}
}

// Name implements Mechanism.
func (w *WhatsAppWeb) Name() string { return "whatsapp_web" }

// Configured reports whether deep-linking is enabled on this host.
func (w *WhatsAppWeb) Configured() bool { return w.enabled }

// Link builds the pre-filled chat URL. Spaces in the text are sent as %20,
// not +.
func (w *WhatsAppWeb) Link(mobile, body string) string {
	return w.baseURL + "?phone=" + url.QueryEscape(mobile) + "&text=" + queryEscapeSpaces(body)
}

func queryEscapeSpaces(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Deliver implements Mechanism.
func (w *WhatsAppWeb) Deliver(ctx context.Context, n Notice) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := w.open(w.Link(n.Mobile, n.Body)); err != nil {
		return "", fmt.Errorf("WhatsApp Web method failed: %w", err)
	}
	w.logger.Info("whatsapp web opened; awaiting manual send", "to", n.Mobile)
	return "WhatsApp Web opened - please send manually", nil
}

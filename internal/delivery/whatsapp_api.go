package delivery

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/pathlab/pkg/logging"
)

var whatsappAPITracer = otel.Tracer("pathlab.internal.delivery.whatsapp_api")

// Placeholder credential values shipped in sample configs. They count as unset.
const (
	placeholderPhoneNumberID = "YOUR_PHONE_NUMBER_ID"
	placeholderAccessToken   = "YOUR_ACCESS_TOKEN"
)

// DefaultWhatsAppAPIURL is the Graph API base used by the Business API mechanism.
const DefaultWhatsAppAPIURL = "https://graph.facebook.com/v17.0/"

// WhatsAppAPIConfig holds the Business API credentials.
type WhatsAppAPIConfig struct {
	BaseURL       string
	PhoneNumberID string
	AccessToken   string
	Timeout       time.Duration
}

// WhatsAppAPI sends a text message through the WhatsApp Business Cloud API.
type WhatsAppAPI struct {
	cfg    WhatsAppAPIConfig
	client *resty.Client
	logger *logging.Logger
}

type whatsappText struct {
	Body string `json:"body"`
}

type whatsappMessage struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             whatsappText `json:"text"`
}

// NewWhatsAppAPI builds the Business API mechanism.
func NewWhatsAppAPI(cfg WhatsAppAPIConfig, logger *logging.Logger) *WhatsAppAPI {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultWhatsAppAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.AccessToken).
		SetHeader("Content-Type", "application/json")
	return &WhatsAppAPI{cfg: cfg, client: client, logger: logger}
}

// Name implements Mechanism.
func (w *WhatsAppAPI) Name() string { return "whatsapp_api" }

// Configured reports whether real credentials are present.
func (w *WhatsAppAPI) Configured() bool {
	id := strings.TrimSpace(w.cfg.PhoneNumberID)
	token := strings.TrimSpace(w.cfg.AccessToken)
	if id == "" || token == "" {
		return false
	}
	return id != placeholderPhoneNumberID && token != placeholderAccessToken
}

// Deliver implements Mechanism. Only a 200 response counts as sent.
func (w *WhatsAppAPI) Deliver(ctx context.Context, n Notice) (string, error) {
	if !w.Configured() {
		return "", fmt.Errorf("%w: WhatsApp Business API not configured", ErrNotConfigured)
	}

	ctx, span := whatsappAPITracer.Start(ctx, "delivery.whatsapp_api.send")
	defer span.End()
	span.SetAttributes(
		attribute.String("pathlab.to", n.Mobile),
		attribute.String("pathlab.phone_number_id", w.cfg.PhoneNumberID),
	)

	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(whatsappMessage{
			MessagingProduct: "whatsapp",
			To:               n.Mobile,
			Type:             "text",
			Text:             whatsappText{Body: n.Body},
		}).
		Post(w.cfg.PhoneNumberID + "/messages")
	if err != nil {
		return "", fmt.Errorf("delivery: whatsapp api request: %w", err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode()))
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("API Error: %d - %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	w.logger.Info("whatsapp api message sent", "to", n.Mobile)
	return "WhatsApp message sent via Business API", nil
}

package delivery

import (
	"strings"
	"time"

	"github.com/wolfman30/pathlab/internal/delivery/templates"
	"github.com/wolfman30/pathlab/internal/report"
)

// Composer builds the WhatsApp message body.
type Composer struct {
	clinicName    string
	clinicAddress string
	renderer      *templates.Renderer
	now           func() time.Time
}

// NewComposer parses the message template.
func NewComposer(clinicName, clinicAddress string) (*Composer, error) {
	r, err := templates.New()
	if err != nil {
		return nil, err
	}
	return &Composer{
		clinicName:    clinicName,
		clinicAddress: clinicAddress,
		renderer:      r,
		now:           time.Now,
	}, nil
}

type messageData struct {
	ClinicName    string
	ClinicAddress string
	Greeting      string
	Patient       report.Patient
	ReportURL     string
	ReportID      string
	Generated     string
}

// Compose renders the body for patient p linking to reportURL.
func (c *Composer) Compose(p report.Patient, reportURL string) (string, error) {
	greeting := strings.TrimSpace(p.Name)
	if greeting == "" {
		greeting = "Patient"
	}
	reportID := strings.TrimSpace(p.OPDNo)
	if reportID == "" {
		reportID = "N/A"
	}
	return c.renderer.Render("whatsapp", messageData{
		ClinicName:    c.clinicName,
		ClinicAddress: c.clinicAddress,
		Greeting:      greeting,
		Patient:       p,
		ReportURL:     reportURL,
		ReportID:      reportID,
		Generated:     c.now().Format("02-01-2006 03:04 PM"),
	})
}

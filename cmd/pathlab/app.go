package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/pathlab/cmd/mainconfig"
	"github.com/wolfman30/pathlab/internal/api/router"
	"github.com/wolfman30/pathlab/internal/archive"
	"github.com/wolfman30/pathlab/internal/catalog"
	appconfig "github.com/wolfman30/pathlab/internal/config"
	"github.com/wolfman30/pathlab/internal/delivery"
	"github.com/wolfman30/pathlab/internal/intake"
	"github.com/wolfman30/pathlab/internal/observability/metrics"
	"github.com/wolfman30/pathlab/internal/pdf"
	"github.com/wolfman30/pathlab/internal/pipeline"
	"github.com/wolfman30/pathlab/internal/report"
	"github.com/wolfman30/pathlab/internal/store"
	"github.com/wolfman30/pathlab/pkg/logging"
)

// App is the wired service.
type App struct {
	Handler  http.Handler
	Pipeline *pipeline.Service
	Store    *store.Store
	Delivery *delivery.Chain
	PDF      *pdf.Chain
}

// Close releases the store.
func (a *App) Close() {
	if a.Store != nil {
		_ = a.Store.Close()
	}
}

func buildApp(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, reg prometheus.Registerer) (*App, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	pipelineMetrics := metrics.NewPipelineMetrics(reg)

	st, err := store.Open(cfg.DBPath, logger)
	if err != nil {
		return nil, err
	}
	app := &App{Store: st}

	clinic := report.Clinic{Name: cfg.ClinicName, Address: cfg.ClinicAddress}
	cat := catalog.Default()

	htmlWriter, err := report.NewHTMLWriter(clinic)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.PDF = pdf.NewChain(
		pdf.DefaultBackends(clinic, cfg.ChromePath, cfg.WkhtmltopdfPath),
		logger,
		pdf.WithObserver(pipelineMetrics),
		pdf.WithBackendTimeout(cfg.PDFRenderTimeout),
	)

	app.Delivery, err = setupDelivery(cfg, logger, pipelineMetrics)
	if err != nil {
		app.Close()
		return nil, err
	}

	mirror := setupArchive(ctx, cfg, logger)

	app.Pipeline, err = pipeline.New(pipeline.Config{
		Renderer:   report.NewRenderer(cat),
		HTML:       htmlWriter,
		PDF:        app.PDF,
		Delivery:   app.Delivery,
		Recorder:   st,
		Mirror:     mirror,
		Observer:   pipelineMetrics,
		ReportsDir: cfg.ReportsDir,
		BaseURL:    cfg.PublicBaseURL,
		Logger:     logger,
	})
	if err != nil {
		app.Close()
		return nil, err
	}

	forms, err := intake.NewForms(clinic, cat)
	if err != nil {
		app.Close()
		return nil, err
	}
	intakeHandler, err := intake.NewHandler(intake.Config{
		Forms:        forms,
		Submitter:    app.Pipeline,
		FormRecorder: st,
		Exporter:     st,
		Pinger:       st,
		ReportsDir:   cfg.ReportsDir,
		Logger:       logger,
	})
	if err != nil {
		app.Close()
		return nil, err
	}

	var metricsHandler http.Handler
	if gatherer, ok := reg.(prometheus.Gatherer); ok {
		metricsHandler = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	} else {
		metricsHandler = promhttp.Handler()
	}

	app.Handler = router.New(&router.Config{
		Logger:             logger,
		Intake:             intakeHandler,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})
	return app, nil
}

// setupDelivery builds the mechanism chain in priority order: Business API,
// WhatsApp Web deep link, then manual.
func setupDelivery(cfg *appconfig.Config, logger *logging.Logger, obs delivery.Observer) (*delivery.Chain, error) {
	composer, err := delivery.NewComposer(cfg.ClinicName, cfg.ClinicAddress)
	if err != nil {
		return nil, fmt.Errorf("delivery composer: %w", err)
	}
	mechanisms := []delivery.Mechanism{
		delivery.NewWhatsAppAPI(delivery.WhatsAppAPIConfig{
			BaseURL:       cfg.WhatsAppAPIURL,
			PhoneNumberID: cfg.WhatsAppPhoneNumberID,
			AccessToken:   cfg.WhatsAppAccessToken,
			Timeout:       cfg.DeliveryTimeout,
		}, logger),
		delivery.NewWhatsAppWeb(cfg.WhatsAppWebURL, cfg.WhatsAppWebEnabled, nil, logger),
		delivery.NewManual(os.Stdout, logger),
	}
	return delivery.NewChain(mechanisms, composer, logger,
		delivery.WithCountryCode(cfg.CountryCode),
		delivery.WithTimeout(cfg.DeliveryTimeout),
		delivery.WithObserver(obs),
	), nil
}

// setupArchive returns nil when no bucket is configured or the AWS config
// cannot be loaded; mirroring is optional.
func setupArchive(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) pipeline.Mirror {
	if cfg.ArchiveS3Bucket == "" {
		return nil
	}
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Warn("artifact mirror disabled: aws config", "error", err)
		return nil
	}
	logger.Info("artifact mirror enabled", "bucket", cfg.ArchiveS3Bucket)
	return archive.NewStore(mainconfig.NewS3Client(awsCfg, cfg), cfg.ArchiveS3Bucket, logger)
}

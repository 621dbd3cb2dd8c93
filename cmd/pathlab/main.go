package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/browser"
	"github.com/prometheus/client_golang/prometheus"

	appconfig "github.com/wolfman30/pathlab/internal/config"
	"github.com/wolfman30/pathlab/pkg/logging"
)

// openURL is swapped in tests.
var openURL = browser.OpenURL

func main() {
	cfg := appconfig.Load()
	logger := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	logger.Info("starting pathlab report server",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"clinic", cfg.ClinicName,
	)

	app, err := buildApp(context.Background(), cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	writeTimeout := submitWriteTimeout(len(app.PDF.Backends()), cfg.PDFRenderTimeout, 2, cfg.DeliveryTimeout)
	srv := NewServer(cfg.Addr(), app.Handler, writeTimeout, logger)
	if err := srv.Start(); err != nil {
		logger.Error("server failed to start", "error", err)
		os.Exit(1)
	}

	if cfg.LaunchBrowser {
		launch(cfg.PublicBaseURL, logger)
	}

	// Wait for interrupt signal or a fatal serve error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-srv.Errors():
		logger.Error("server error", "error", err)
	}

	logger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// launch opens the intake page once the listener is up.
func launch(url string, logger *logging.Logger) {
	logger.Info("opening intake page", "url", url)
	if err := openURL(url); err != nil {
		logger.Warn("could not open browser", "url", url, "error", err)
		fmt.Printf("Open %s in your browser to start.\n", url)
	}
}

package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"

	appconfig "github.com/wolfman30/pathlab/internal/config"
	"github.com/wolfman30/pathlab/internal/store"
	"github.com/wolfman30/pathlab/pkg/logging"
)

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	if err := run(cfg.DBPath, os.Args[1:], logger); err != nil {
		logger.Error("migration failed", "db", cfg.DBPath, "error", err)
		os.Exit(1)
	}
}

// run applies migrations to dbPath. Usage: migrate [up | force <version> | version]
func run(dbPath string, args []string, logger *logging.Logger) error {
	m, err := store.NewMigrator(dbPath)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	cmd := "up"
	if len(args) > 0 {
		cmd = args[0]
	}
	switch cmd {
	case "force":
		if len(args) < 2 {
			return errors.New("force requires a version")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version: %w", err)
		}
		if err := m.Force(version); err != nil {
			return fmt.Errorf("force version: %w", err)
		}
		logger.Info("forced migration version", "version", version)
	case "version":
		version, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			return fmt.Errorf("read version: %w", err)
		}
		fmt.Printf("version %d (dirty=%v)\n", version, dirty)
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migrate up: %w", err)
		}
		logger.Info("migrations complete", "db", dbPath)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

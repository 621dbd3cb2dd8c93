// Package store persists form submissions and completed reports in SQLite.
// Both tables are append-only.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	"github.com/wolfman30/pathlab/internal/report"
	"github.com/wolfman30/pathlab/migrations"
	"github.com/wolfman30/pathlab/pkg/logging"
)

const timeFormat = "2006-01-02 15:04:05"

// Delivery statuses stored with each completed report.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// CompletedReport is one row of completed_reports.
type CompletedReport struct {
	ID              int64
	Patient         report.Patient
	TestResults     report.ResultSet
	ArtifactPath    string
	WhatsAppStatus  string
	WhatsAppMessage string
	ReportDate      string
}

// Store is the SQLite-backed report log.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	now    func() time.Time
	logger *logging.Logger
}

// NewMigrator builds a migrator for the database at dbPath. Closing it closes
// its own connection.
func NewMigrator(dbPath string) (*migrate.Migrate, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open for migrate: %w", err)
	}
	dbDriver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migrate driver: %w", err)
	}
	srcDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migrate source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", srcDriver, "sqlite3", dbDriver)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create migrator: %w", err)
	}
	return m, nil
}

// Migrate applies all pending migrations.
func Migrate(dbPath string) error {
	m, err := NewMigrator(dbPath)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("store: migrate up: %w", err)
	}
	return nil
}

// Open migrates and opens the database at dbPath.
func Open(dbPath string, logger *logging.Logger) (*Store, error) {
	if err := Migrate(dbPath); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return New(db, logger), nil
}

// New wraps an existing handle. Writes go through a single connection.
func New(db *sql.DB, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	db.SetMaxOpenConns(1)
	return &Store{db: db, now: time.Now, logger: logger}
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// RecordCompletedReport appends one completed report row. Failures are logged
// and reported as false; nothing is rolled back by the caller.
func (s *Store) RecordCompletedReport(ctx context.Context, p report.Patient, results report.ResultSet, artifactPath string, delivered bool, deliveryMessage string) bool {
	if results == nil {
		results = report.ResultSet{}
	}
	serialized, err := json.Marshal(results)
	if err != nil {
		s.logger.Error("serialize test results failed", "error", err, "patient", p.Name)
		return false
	}
	status := StatusFailed
	if delivered {
		status = StatusSent
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO completed_reports
			(patient_name, patient_age, patient_gender, patient_mobile, doctor_name, opd_no, sample_date,
			 test_results, pdf_path, whatsapp_status, whatsapp_message, report_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Age, p.Gender, p.Mobile, p.Doctor, p.OPDNo, p.SampleDate,
		string(serialized), artifactPath, status, deliveryMessage, s.now().Format(timeFormat),
	)
	if err != nil {
		s.logger.Error("record completed report failed", "error", err, "patient", p.Name, "artifact", artifactPath)
		return false
	}
	return true
}

// RecordFormSubmission appends the patient block and test selection captured
// when the fill-in form is served.
func (s *Store) RecordFormSubmission(ctx context.Context, p report.Patient, selectedTests []string) bool {
	if selectedTests == nil {
		selectedTests = []string{}
	}
	serialized, err := json.Marshal(selectedTests)
	if err != nil {
		s.logger.Error("serialize selected tests failed", "error", err)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO form_submissions
			(patient_name, patient_age, patient_gender, patient_mobile, doctor_name, opd_no, sample_date,
			 selected_tests, submission_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Age, p.Gender, p.Mobile, p.Doctor, p.OPDNo, p.SampleDate,
		string(serialized), s.now().Format(timeFormat),
	)
	if err != nil {
		s.logger.Error("record form submission failed", "error", err, "patient", p.Name)
		return false
	}
	return true
}

// CountCompletedReports returns the number of completed report rows.
func (s *Store) CountCompletedReports(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM completed_reports`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count completed reports: %w", err)
	}
	return n, nil
}

// ListCompletedReports returns every completed report, oldest first.
func (s *Store) ListCompletedReports(ctx context.Context) ([]CompletedReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, patient_name, patient_age, patient_gender, patient_mobile, doctor_name, opd_no, sample_date,
		       test_results, pdf_path, whatsapp_status, whatsapp_message, report_date
		FROM completed_reports
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: list completed reports: %w", err)
	}
	defer rows.Close()

	var out []CompletedReport
	for rows.Next() {
		var (
			r                                        CompletedReport
			age, gender, mobile, doctor, opd, sample sql.NullString
			results, path, message                   sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Patient.Name, &age, &gender, &mobile, &doctor, &opd, &sample,
			&results, &path, &r.WhatsAppStatus, &message, &r.ReportDate); err != nil {
			return nil, fmt.Errorf("store: scan completed report: %w", err)
		}
		r.Patient.Age = age.String
		r.Patient.Gender = gender.String
		r.Patient.Mobile = mobile.String
		r.Patient.Doctor = doctor.String
		r.Patient.OPDNo = opd.String
		r.Patient.SampleDate = sample.String
		r.ArtifactPath = path.String
		r.WhatsAppMessage = message.String
		r.TestResults = report.ResultSet{}
		if results.String != "" {
			if err := json.Unmarshal([]byte(results.String), &r.TestResults); err != nil {
				s.logger.Warn("stored test results unreadable", "id", r.ID, "error", err)
			}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate completed reports: %w", err)
	}
	return out, nil
}

package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/RMahshie/s2plab/internal/repository"
	"github.com/RMahshie/s2plab/pkg/models"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schema string

// Open connects to PostgreSQL and verifies the connection
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate creates the report tables if they do not exist
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// PostgresReportRepository implements ReportRepository for PostgreSQL
type PostgresReportRepository struct {
	db *sql.DB
}

// NewPostgresReportRepository creates a new PostgreSQL report repository
func NewPostgresReportRepository(db *sql.DB) repository.ReportRepository {
	return &PostgresReportRepository{db: db}
}

// CreateReport inserts a new report
func (r *PostgresReportRepository) CreateReport(ctx context.Context, report *models.Report) error {
	entries, err := json.Marshal(report.Entries)
	if err != nil {
		return fmt.Errorf("failed to marshal entries: %w", err)
	}

	query := `
		INSERT INTO summary_reports (id, title, target_hz, entries, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err = r.db.ExecContext(ctx, query,
		report.ID,
		report.Title,
		report.TargetHz,
		string(entries),
		report.CreatedAt)

	return err
}

// GetReport retrieves a report by ID
func (r *PostgresReportRepository) GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	query := `
		SELECT id, title, target_hz, entries, created_at
		FROM summary_reports
		WHERE id = $1`

	report, err := scanReport(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

// ListReports retrieves the most recent reports
func (r *PostgresReportRepository) ListReports(ctx context.Context, limit int) ([]*models.Report, error) {
	query := `
		SELECT id, title, target_hz, entries, created_at
		FROM summary_reports
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := []*models.Report{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}

	return reports, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (*models.Report, error) {
	var report models.Report
	var entries []byte

	err := row.Scan(
		&report.ID,
		&report.Title,
		&report.TargetHz,
		&entries,
		&report.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(entries, &report.Entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entries: %w", err)
	}
	return &report, nil
}

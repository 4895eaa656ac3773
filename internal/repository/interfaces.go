package repository

import (
	"context"
	"errors"

	"github.com/RMahshie/s2plab/pkg/models"
	"github.com/google/uuid"
)

// ErrReportNotFound is returned when no report has the requested ID
var ErrReportNotFound = errors.New("report not found")

// ReportRepository defines the interface for archived summary reports
type ReportRepository interface {
	CreateReport(ctx context.Context, report *models.Report) error
	GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error)
	ListReports(ctx context.Context, limit int) ([]*models.Report, error)
}

package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/RMahshie/s2plab/internal/catalog"
	"github.com/RMahshie/s2plab/internal/repository"
	"github.com/RMahshie/s2plab/pkg/models"
	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReportHandler archives and serves batch summaries
type ReportHandler struct {
	repo     repository.ReportRepository
	catalog  catalog.Service
	targetHz float64
}

// NewReportHandler creates a new report handler. A nil repo disables the
// archive.
func NewReportHandler(repo repository.ReportRepository, svc catalog.Service, targetHz float64) *ReportHandler {
	return &ReportHandler{repo: repo, catalog: svc, targetHz: targetHz}
}

// CreateReport summarizes the current catalog and stores the result
func (h *ReportHandler) CreateReport(ctx context.Context, req *models.CreateReportRequest) (*models.ReportResponse, error) {
	if h.repo == nil {
		return nil, errReportsDisabled()
	}

	target := h.targetHz
	if req.Body.FrequencyHz > 0 {
		target = req.Body.FrequencyHz
	}

	records, err := h.catalog.Summarize(target)
	if err != nil {
		return nil, catalogError(err)
	}

	report := models.Report{
		ID:        uuid.New(),
		Title:     req.Body.Title,
		TargetHz:  target,
		Entries:   models.NewSummaryEntries(records),
		CreatedAt: time.Now().UTC(),
	}
	if err := h.repo.CreateReport(ctx, &report); err != nil {
		return nil, huma.Error500InternalServerError("Failed to store report", err)
	}

	log.Info().Str("reportID", report.ID.String()).Int("entries", len(report.Entries)).Msg("Report archived")
	return &models.ReportResponse{Body: report}, nil
}

// GetReport returns one archived report
func (h *ReportHandler) GetReport(ctx context.Context, req *models.GetReportRequest) (*models.ReportResponse, error) {
	if h.repo == nil {
		return nil, errReportsDisabled()
	}

	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid report ID", err)
	}

	report, err := h.repo.GetReport(ctx, id)
	if errors.Is(err, repository.ErrReportNotFound) {
		return nil, huma.Error404NotFound("Report not found", err)
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to load report", err)
	}
	return &models.ReportResponse{Body: *report}, nil
}

// ListReports returns the most recent reports
func (h *ReportHandler) ListReports(ctx context.Context, req *models.ListReportsRequest) (*models.ListReportsResponse, error) {
	if h.repo == nil {
		return nil, errReportsDisabled()
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}

	reports, err := h.repo.ListReports(ctx, limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list reports", err)
	}

	resp := &models.ListReportsResponse{}
	resp.Body.Reports = make([]models.Report, 0, len(reports))
	for _, r := range reports {
		resp.Body.Reports = append(resp.Body.Reports, *r)
	}
	return resp, nil
}

func errReportsDisabled() error {
	return huma.Error503ServiceUnavailable("Report archive requires DATABASE_URL", nil)
}

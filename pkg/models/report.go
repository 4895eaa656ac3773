package models

import (
	"time"

	"github.com/google/uuid"
)

// Report is an archived batch summary
type Report struct {
	ID        uuid.UUID      `json:"id" doc:"Report ID"`
	Title     string         `json:"title,omitempty" doc:"Optional title"`
	TargetHz  float64        `json:"target_hz" doc:"Target frequency in Hz"`
	Entries   []SummaryEntry `json:"entries" doc:"Summary entries at archive time"`
	CreatedAt time.Time      `json:"created_at" doc:"When the report was archived"`
}

// CreateReportRequest archives the current summary
type CreateReportRequest struct {
	Body struct {
		Title       string  `json:"title,omitempty" maxLength:"200" doc:"Optional title"`
		FrequencyHz float64 `json:"freq_hz,omitempty" doc:"Target frequency in Hz; defaults to the configured target"`
	}
}

// ReportResponse returns one report
type ReportResponse struct {
	Body Report
}

// GetReportRequest addresses one report
type GetReportRequest struct {
	ID string `path:"id" format:"uuid" doc:"Report ID"`
}

// ListReportsRequest pages through archived reports
type ListReportsRequest struct {
	Limit int `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Maximum reports to return"`
}

// ListReportsResponse lists archived reports, newest first
type ListReportsResponse struct {
	Body struct {
		Reports []Report `json:"reports" doc:"Reports, newest first"`
	}
}

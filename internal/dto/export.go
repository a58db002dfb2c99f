package dto

import "github.com/akshay-km/studyvault-api/internal/models"

// ExportRequest asks for an asynchronous catalog export.
type ExportRequest struct {
	Scheme   string              `json:"scheme,omitempty"`
	Semester int                 `json:"semester,omitempty"`
	Format   models.ExportFormat `json:"format" validate:"required"`
}

// ExportJobResponse acknowledges a queued job.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse reports job progress and the download link once
// the job finishes.
type ExportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ExportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"result_url,omitempty"`
	Error     *string             `json:"error,omitempty"`
}

package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/akshay-km/studyvault-api/internal/models"
	"github.com/akshay-km/studyvault-api/pkg/export"
	"github.com/akshay-km/studyvault-api/pkg/storage"
)

type exportMaterialSource interface {
	ListActiveForExport(ctx context.Context, scheme string, semester int) ([]models.Material, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService renders the approved catalog into downloadable files.
type ExportService struct {
	materials exportMaterialSource
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(materials exportMaterialSource, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		materials: materials,
		storage:   store,
		csv:       csv,
		pdf:       pdf,
		signer:    signer,
		logger:    logger,
		cfg:       cfg,
	}
}

// Generate builds the catalog dataset for the job and stores the
// rendered file, returning a signed download URL.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}

	dataset, title, err := s.buildDataset(ctx, job.Params)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	signedURL := fmt.Sprintf("%s/admin/exports/download/%s", prefix, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl, defaulting to the configured
// result TTL.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildDataset(ctx context.Context, params models.ExportJobParams) (export.Dataset, string, error) {
	materials, err := s.materials.ListActiveForExport(ctx, params.Scheme, params.Semester)
	if err != nil {
		return export.Dataset{}, "", err
	}

	headers := []string{"Scheme", "Semester", "Subject", "Type", "Title", "File URL", "Ratings", "Average", "Published At"}
	rows := make([]map[string]string, 0, len(materials))
	for _, material := range materials {
		average := ""
		if material.AverageRating != nil {
			average = fmt.Sprintf("%.1f", *material.AverageRating)
		}
		rows = append(rows, map[string]string{
			"Scheme":       material.Scheme,
			"Semester":     fmt.Sprintf("%d", material.Semester),
			"Subject":      material.SubjectID,
			"Type":         string(material.Type),
			"Title":        material.Title,
			"File URL":     material.FileURL,
			"Ratings":      fmt.Sprintf("%d", material.RatingCount),
			"Average":      average,
			"Published At": material.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	title := "Material Catalog"
	if params.Scheme != "" {
		title = fmt.Sprintf("Material Catalog %s", params.Scheme)
		if params.Semester > 0 {
			title = fmt.Sprintf("Material Catalog %s S%d", params.Scheme, params.Semester)
		}
	}
	return export.Dataset{Headers: headers, Rows: rows}, title, nil
}

func (s *ExportService) buildFilename(job *models.ExportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	scope := "all"
	if job.Params.Scheme != "" {
		scope = job.Params.Scheme
		if job.Params.Semester > 0 {
			scope = fmt.Sprintf("%s_s%d", job.Params.Scheme, job.Params.Semester)
		}
	}
	return fmt.Sprintf("catalog_%s_%s.%s", scope, timestamp, job.Params.Format)
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/akshay-km/studyvault-api/internal/dto"
	"github.com/akshay-km/studyvault-api/internal/models"
	appErrors "github.com/akshay-km/studyvault-api/pkg/errors"
)

type subjectRepository interface {
	ListBySemester(ctx context.Context, scheme string, semester int) ([]models.Subject, error)
	FindByCode(ctx context.Context, scheme string, semester int, code string) (*models.Subject, error)
	ExistsByCode(ctx context.Context, scheme string, semester int, code string) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
}

type subjectMaterialCounter interface {
	CountByType(ctx context.Context, scheme string, semester int, subjectID string) (map[models.MaterialType]int, error)
}

// SubjectService serves the curriculum catalog and the per-subject
// material availability probe.
type SubjectService struct {
	repo      subjectRepository
	materials subjectMaterialCounter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs a SubjectService.
func NewSubjectService(repo subjectRepository, materials subjectMaterialCounter, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SubjectService{repo: repo, materials: materials, validator: validate, logger: logger}
}

// ListBySemester returns the subject catalog for one scheme and semester.
func (s *SubjectService) ListBySemester(ctx context.Context, scheme string, semester int) ([]models.Subject, error) {
	if !models.ValidScheme(scheme) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown scheme %q", scheme))
	}
	if !models.ValidSemester(semester) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester must be between 1 and 8")
	}

	subjects, err := s.repo.ListBySemester(ctx, scheme, semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	if subjects == nil {
		subjects = []models.Subject{}
	}
	return subjects, nil
}

// Availability resolves a subject and reports which material types have
// published content, so clients can disable empty sections up front.
func (s *SubjectService) Availability(ctx context.Context, scheme string, semester int, code string) (*models.SubjectAvailability, error) {
	if !models.ValidScheme(scheme) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown scheme %q", scheme))
	}
	if !models.ValidSemester(semester) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester must be between 1 and 8")
	}

	subject, err := s.repo.FindByCode(ctx, scheme, semester, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch subject")
	}

	counts, err := s.materials.CountByType(ctx, scheme, semester, code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count materials")
	}

	return &models.SubjectAvailability{Subject: *subject, MaterialCounts: counts}, nil
}

// Create adds a catalog entry. Codes are unique within scheme and semester.
func (s *SubjectService) Create(ctx context.Context, req dto.CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	if !models.ValidScheme(req.Scheme) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown scheme %q", req.Scheme))
	}

	code := strings.TrimSpace(req.Code)
	exists, err := s.repo.ExistsByCode(ctx, req.Scheme, req.Semester, code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject code already exists for this scheme and semester")
	}

	subject := &models.Subject{
		Scheme:    req.Scheme,
		Semester:  req.Semester,
		Code:      code,
		Name:      strings.TrimSpace(req.Name),
		SortOrder: req.SortOrder,
	}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	return subject, nil
}

// Update patches the name or sort order of a catalog entry.
func (s *SubjectService) Update(ctx context.Context, scheme string, semester int, code string, req dto.UpdateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	subject, err := s.repo.FindByCode(ctx, scheme, semester, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch subject")
	}

	if req.Name != nil {
		subject.Name = strings.TrimSpace(*req.Name)
	}
	if req.SortOrder != nil {
		subject.SortOrder = *req.SortOrder
	}
	if err := s.repo.Update(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject")
	}
	return subject, nil
}

// Delete removes a catalog entry. Published materials keep their subject
// code; only the catalog listing disappears.
func (s *SubjectService) Delete(ctx context.Context, scheme string, semester int, code string) error {
	subject, err := s.repo.FindByCode(ctx, scheme, semester, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch subject")
	}
	if err := s.repo.Delete(ctx, subject.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}
	return nil
}

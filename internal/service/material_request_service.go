package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/akshay-km/studyvault-api/internal/dto"
	"github.com/akshay-km/studyvault-api/internal/models"
	appErrors "github.com/akshay-km/studyvault-api/pkg/errors"
)

// driveLinkPattern accepts the Google Drive URL shapes users actually
// paste: file links, open?id links and direct uc?id links.
var driveLinkPattern = regexp.MustCompile(`^https://drive\.google\.com/(file/d/|open\?id=|uc\?id=)`)

type materialRequestRepository interface {
	Create(ctx context.Context, request *models.MaterialRequest) error
	FindByID(ctx context.Context, id string) (*models.MaterialRequest, error)
	List(ctx context.Context, filter models.RequestFilter) ([]models.MaterialRequest, int, error)
	Approve(ctx context.Context, requestID string, material *models.Material, decidedBy string) error
	Reject(ctx context.Context, requestID, decidedBy string) error
}

type requestSubjectRepository interface {
	FindByCode(ctx context.Context, scheme string, semester int, code string) (*models.Subject, error)
}

type requestAuditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type requestCacheInvalidator interface {
	InvalidateMaterials(ctx context.Context)
}

// MaterialRequestConfig tunes submission intake validation.
type MaterialRequestConfig struct {
	// ExtraLinkPrefixes allows file hosts beyond the built-in Google
	// Drive patterns.
	ExtraLinkPrefixes []string
}

// MaterialRequestService implements the submission intake and the admin
// review queue.
type MaterialRequestService struct {
	repo      materialRequestRepository
	subjects  requestSubjectRepository
	audit     requestAuditRepository
	cache     requestCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	cfg       MaterialRequestConfig
}

// NewMaterialRequestService constructs a MaterialRequestService.
func NewMaterialRequestService(
	repo materialRequestRepository,
	subjects requestSubjectRepository,
	audit requestAuditRepository,
	cache requestCacheInvalidator,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg MaterialRequestConfig,
) *MaterialRequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &MaterialRequestService{
		repo:      repo,
		subjects:  subjects,
		audit:     audit,
		cache:     cache,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Submit validates and stores a new pending request. Nothing is written
// when any field fails validation.
func (s *MaterialRequestService) Submit(ctx context.Context, uploader models.UserInfo, req dto.SubmitMaterialRequest) (*models.MaterialRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}

	if !models.ValidMaterialType(req.Type) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown material type %q", req.Type))
	}
	if !models.ValidScheme(req.Scheme) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown scheme %q", req.Scheme))
	}

	fileURL := strings.TrimSpace(req.FileURL)
	if !s.allowedLink(fileURL) {
		return nil, appErrors.Clone(appErrors.ErrInvalidFileLink, "file link must be a Google Drive URL")
	}

	if s.subjects != nil {
		if _, err := s.subjects.FindByCode(ctx, req.Scheme, req.Semester, req.SubjectID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "unknown subject for scheme and semester")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify subject")
		}
	}

	request := &models.MaterialRequest{
		Title:         strings.TrimSpace(req.Title),
		Description:   strings.TrimSpace(req.Description),
		Type:          req.Type,
		Scheme:        req.Scheme,
		Semester:      req.Semester,
		SubjectID:     req.SubjectID,
		FileURL:       fileURL,
		UploadedBy:    uploader.ID,
		UploaderEmail: uploader.Email,
		Status:        models.RequestStatusPending,
	}

	if err := s.repo.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create material request")
	}

	s.logger.Info("material request submitted",
		zap.String("request_id", request.ID),
		zap.String("uploaded_by", uploader.ID),
		zap.String("type", string(request.Type)),
	)

	return request, nil
}

// Get returns a request by id.
func (s *MaterialRequestService) Get(ctx context.Context, id string) (*models.MaterialRequest, error) {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch material request")
	}
	return request, nil
}

// List returns requests for the review queue.
func (s *MaterialRequestService) List(ctx context.Context, filter models.RequestFilter) ([]models.MaterialRequest, *models.Pagination, error) {
	if filter.Status != "" {
		switch filter.Status {
		case models.RequestStatusPending, models.RequestStatusApproved, models.RequestStatusRejected:
		default:
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown request status %q", filter.Status))
		}
	}

	requests, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list material requests")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}

	return requests, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Approve publishes the request as a material. Approving an already
// decided request fails without side effects.
func (s *MaterialRequestService) Approve(ctx context.Context, requestID string, admin models.UserInfo) (*models.MaterialRequest, error) {
	request, err := s.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}

	material := &models.Material{
		RequestID:   request.ID,
		Title:       request.Title,
		Description: request.Description,
		Type:        request.Type,
		Scheme:      request.Scheme,
		Semester:    request.Semester,
		SubjectID:   request.SubjectID,
		FileURL:     request.FileURL,
		UploadedBy:  request.UploadedBy,
		ApprovedBy:  admin.ID,
		Status:      models.MaterialStatusActive,
	}

	if err := s.repo.Approve(ctx, requestID, material, admin.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrRequestDecided, "request has already been decided")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve material request")
	}

	if s.cache != nil {
		s.cache.InvalidateMaterials(ctx)
	}

	s.recordDecision(ctx, admin.ID, models.AuditActionRequestApprove, requestID)

	s.logger.Info("material request approved",
		zap.String("request_id", requestID),
		zap.String("material_id", material.ID),
		zap.String("decided_by", admin.ID),
	)

	return s.Get(ctx, requestID)
}

// Reject marks the request rejected. No material is created and the
// submission data is retained.
func (s *MaterialRequestService) Reject(ctx context.Context, requestID string, admin models.UserInfo) (*models.MaterialRequest, error) {
	if _, err := s.Get(ctx, requestID); err != nil {
		return nil, err
	}

	if err := s.repo.Reject(ctx, requestID, admin.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrRequestDecided, "request has already been decided")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject material request")
	}

	s.recordDecision(ctx, admin.ID, models.AuditActionRequestReject, requestID)

	s.logger.Info("material request rejected",
		zap.String("request_id", requestID),
		zap.String("decided_by", admin.ID),
	)

	return s.Get(ctx, requestID)
}

func (s *MaterialRequestService) allowedLink(fileURL string) bool {
	if driveLinkPattern.MatchString(fileURL) {
		return true
	}
	for _, prefix := range s.cfg.ExtraLinkPrefixes {
		if prefix != "" && strings.HasPrefix(fileURL, prefix) {
			return true
		}
	}
	return false
}

func (s *MaterialRequestService) recordDecision(ctx context.Context, adminID string, action string, requestID string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &adminID,
		Action:     action,
		Resource:   "material_request",
		ResourceID: &requestID,
	}); err != nil {
		s.logger.Warn("failed to record request decision audit log", zap.Error(err))
	}
}

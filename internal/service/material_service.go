package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/akshay-km/studyvault-api/internal/dto"
	"github.com/akshay-km/studyvault-api/internal/models"
	appErrors "github.com/akshay-km/studyvault-api/pkg/errors"
)

type materialRepository interface {
	List(ctx context.Context, filter models.MaterialFilter) ([]models.Material, int, error)
	FindByID(ctx context.Context, id string) (*models.Material, error)
	AddRating(ctx context.Context, rating *models.Rating) error
	RatingSummary(ctx context.Context, materialID string) (int, float64, error)
	Update(ctx context.Context, material *models.Material) error
	Delete(ctx context.Context, id string) error
}

type materialAuditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// MaterialListResult is the cached shape of one publication view page.
type MaterialListResult struct {
	Materials  []models.Material  `json:"materials"`
	Pagination *models.Pagination `json:"pagination"`
}

// MaterialService implements the publication view, ratings and admin
// edits over approved materials.
type MaterialService struct {
	repo      materialRepository
	audit     materialAuditRepository
	cache     *CacheService
	metrics   *MetricsService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMaterialService constructs a MaterialService.
func NewMaterialService(
	repo materialRepository,
	audit materialAuditRepository,
	cache *CacheService,
	metrics *MetricsService,
	cacheTTL time.Duration,
	validate *validator.Validate,
	logger *zap.Logger,
) *MaterialService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &MaterialService{
		repo:      repo,
		audit:     audit,
		cache:     cache,
		metrics:   metrics,
		cacheTTL:  cacheTTL,
		validator: validate,
		logger:    logger,
	}
}

// List returns the active catalog page matching every provided filter.
// Pages are cached per filter combination; any result, including an
// empty one, is valid output.
func (s *MaterialService) List(ctx context.Context, filter models.MaterialFilter) (*MaterialListResult, error) {
	if filter.Scheme != "" && !models.ValidScheme(filter.Scheme) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown scheme %q", filter.Scheme))
	}
	if filter.Semester != 0 && !models.ValidSemester(filter.Semester) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester must be between 1 and 8")
	}
	if filter.Type != "" && !models.ValidMaterialType(filter.Type) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown material type %q", filter.Type))
	}

	key := s.listCacheKey(filter)
	var cached MaterialListResult
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	start := time.Now()
	materials, total, err := s.repo.List(ctx, filter)
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("materials_list", time.Since(start))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list materials")
	}

	for i := range materials {
		roundAverage(&materials[i])
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}

	result := &MaterialListResult{
		Materials:  materials,
		Pagination: &models.Pagination{Page: page, PageSize: size, TotalCount: total},
	}

	if err := s.cache.Set(ctx, key, result, s.cacheTTL); err != nil {
		s.logger.Debug("failed to cache materials page", zap.Error(err))
	}

	return result, nil
}

// Get returns one material with its rating aggregate.
func (s *MaterialService) Get(ctx context.Context, id string) (*models.Material, error) {
	material, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch material")
	}
	roundAverage(material)
	return material, nil
}

// Rate records a 1-5 rating for the material and returns the updated
// aggregate. Repeat ratings by the same user each count.
func (s *MaterialService) Rate(ctx context.Context, materialID, userID string, req dto.RateMaterialRequest) (*dto.RatingResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rating payload")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, appErrors.Clone(appErrors.ErrInvalidRating, "rating must be between 1 and 5")
	}

	if _, err := s.Get(ctx, materialID); err != nil {
		return nil, err
	}

	rating := &models.Rating{
		MaterialID: materialID,
		RatedBy:    userID,
		Rating:     req.Rating,
	}
	if err := s.repo.AddRating(ctx, rating); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record rating")
	}

	count, average, err := s.repo.RatingSummary(ctx, materialID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute rating summary")
	}

	s.cache.InvalidateMaterials(ctx)

	return &dto.RatingResult{
		MaterialID:    materialID,
		RatingCount:   count,
		AverageRating: roundToTenth(average),
	}, nil
}

// Update applies admin edits to a published material.
func (s *MaterialService) Update(ctx context.Context, id string, admin models.UserInfo, req dto.UpdateMaterialRequest) (*models.Material, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}

	material, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		material.Title = *req.Title
	}
	if req.Description != nil {
		material.Description = *req.Description
	}
	if req.FileURL != nil {
		material.FileURL = *req.FileURL
	}

	if err := s.repo.Update(ctx, material); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update material")
	}

	s.cache.InvalidateMaterials(ctx)
	s.recordAdminAction(ctx, admin.ID, models.AuditActionMaterialUpdate, id)

	return s.Get(ctx, id)
}

// Delete removes a published material and its ratings.
func (s *MaterialService) Delete(ctx context.Context, id string, admin models.UserInfo) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete material")
	}

	s.cache.InvalidateMaterials(ctx)
	s.recordAdminAction(ctx, admin.ID, models.AuditActionMaterialDelete, id)

	return nil
}

func (s *MaterialService) recordAdminAction(ctx context.Context, adminID string, action string, materialID string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &adminID,
		Action:     action,
		Resource:   "material",
		ResourceID: &materialID,
	}); err != nil {
		s.logger.Warn("failed to record material audit log", zap.Error(err))
	}
}

func (s *MaterialService) listCacheKey(filter models.MaterialFilter) string {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return fmt.Sprintf("materials:%s:%d:%s:%s:%s:%d:%d",
		filter.Scheme, filter.Semester, filter.SubjectID, filter.Type, filter.Search, page, size)
}

func roundAverage(material *models.Material) {
	if material.AverageRating != nil {
		rounded := roundToTenth(*material.AverageRating)
		material.AverageRating = &rounded
	}
}

func roundToTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/akshay-km/studyvault-api/internal/dto"
	"github.com/akshay-km/studyvault-api/internal/models"
	appErrors "github.com/akshay-km/studyvault-api/pkg/errors"
)

type wishlistRepository interface {
	Exists(ctx context.Context, userID, materialID string) (bool, error)
	Create(ctx context.Context, entry *models.WishlistEntry) error
	Delete(ctx context.Context, userID, materialID string) error
	ListByUser(ctx context.Context, userID string) ([]models.WishlistEntry, error)
}

type wishlistMaterialLookup interface {
	Get(ctx context.Context, id string) (*models.Material, error)
}

type wishlistSubjectLookup interface {
	FindByCode(ctx context.Context, scheme string, semester int, code string) (*models.Subject, error)
}

// WishlistService manages each user's saved materials list.
type WishlistService struct {
	repo      wishlistRepository
	materials wishlistMaterialLookup
	subjects  wishlistSubjectLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWishlistService constructs a WishlistService.
func NewWishlistService(
	repo wishlistRepository,
	materials wishlistMaterialLookup,
	subjects wishlistSubjectLookup,
	validate *validator.Validate,
	logger *zap.Logger,
) *WishlistService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &WishlistService{repo: repo, materials: materials, subjects: subjects, validator: validate, logger: logger}
}

// Toggle adds the material to the user's wishlist when absent and
// removes it when present. Two toggles always restore the prior state.
func (s *WishlistService) Toggle(ctx context.Context, userID string, req dto.ToggleWishlistRequest) (*dto.ToggleWishlistResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid wishlist payload")
	}

	exists, err := s.repo.Exists(ctx, userID, req.MaterialID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check wishlist entry")
	}

	if exists {
		if err := s.repo.Delete(ctx, userID, req.MaterialID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove wishlist entry")
		}
		return &dto.ToggleWishlistResult{MaterialID: req.MaterialID, Saved: false}, nil
	}

	material, err := s.materials.Get(ctx, req.MaterialID)
	if err != nil {
		return nil, err
	}

	subjectName := material.SubjectID
	if s.subjects != nil {
		if subject, err := s.subjects.FindByCode(ctx, material.Scheme, material.Semester, material.SubjectID); err == nil {
			subjectName = subject.Name
		}
	}

	entry := &models.WishlistEntry{
		UserID:      userID,
		MaterialID:  material.ID,
		Title:       material.Title,
		SubjectName: subjectName,
		FileURL:     material.FileURL,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save wishlist entry")
	}

	return &dto.ToggleWishlistResult{MaterialID: req.MaterialID, Saved: true}, nil
}

// List returns the user's wishlist, most recently added first. Entries
// keep the snapshot taken at save time even if the material changed.
func (s *WishlistService) List(ctx context.Context, userID string) ([]models.WishlistEntry, error) {
	entries, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list wishlist")
	}
	if entries == nil {
		entries = []models.WishlistEntry{}
	}
	return entries, nil
}

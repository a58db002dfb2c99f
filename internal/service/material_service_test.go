package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akshay-km/studyvault-api/internal/dto"
	"github.com/akshay-km/studyvault-api/internal/models"
	appErrors "github.com/akshay-km/studyvault-api/pkg/errors"
)

type materialRepoStub struct {
	materials map[string]*models.Material
	ratings   []*models.Rating
	listed    []models.Material
	deleted   []string
}

func (s *materialRepoStub) List(ctx context.Context, filter models.MaterialFilter) ([]models.Material, int, error) {
	return s.listed, len(s.listed), nil
}

func (s *materialRepoStub) FindByID(ctx context.Context, id string) (*models.Material, error) {
	if material, ok := s.materials[id]; ok {
		copy := *material
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *materialRepoStub) AddRating(ctx context.Context, rating *models.Rating) error {
	s.ratings = append(s.ratings, rating)
	return nil
}

func (s *materialRepoStub) RatingSummary(ctx context.Context, materialID string) (int, float64, error) {
	count := 0
	sum := 0
	for _, rating := range s.ratings {
		if rating.MaterialID == materialID {
			count++
			sum += rating.Rating
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return count, float64(sum) / float64(count), nil
}

func (s *materialRepoStub) Update(ctx context.Context, material *models.Material) error {
	s.materials[material.ID] = material
	return nil
}

func (s *materialRepoStub) Delete(ctx context.Context, id string) error {
	delete(s.materials, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func newMaterialService(repo *materialRepoStub) *MaterialService {
	return NewMaterialService(repo, &auditLoggerStub{}, nil, nil, 0, validator.New(), nil)
}

func TestMaterialServiceRateAggregates(t *testing.T) {
	repo := &materialRepoStub{materials: map[string]*models.Material{
		"mat-1": {ID: "mat-1", Title: "Notes", Status: models.MaterialStatusActive},
	}}
	service := newMaterialService(repo)

	first, err := service.Rate(context.Background(), "mat-1", "user-1", dto.RateMaterialRequest{Rating: 4})
	require.NoError(t, err)
	assert.Equal(t, 1, first.RatingCount)
	assert.Equal(t, 4.0, first.AverageRating)

	second, err := service.Rate(context.Background(), "mat-1", "user-2", dto.RateMaterialRequest{Rating: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, second.RatingCount)
	assert.Equal(t, 3.0, second.AverageRating)
}

func TestMaterialServiceRateRoundsToTenth(t *testing.T) {
	repo := &materialRepoStub{materials: map[string]*models.Material{
		"mat-1": {ID: "mat-1", Status: models.MaterialStatusActive},
	}}
	service := newMaterialService(repo)

	for _, rating := range []int{5, 4, 4} {
		_, err := service.Rate(context.Background(), "mat-1", "user-1", dto.RateMaterialRequest{Rating: rating})
		require.NoError(t, err)
	}

	result, err := service.Rate(context.Background(), "mat-1", "user-1", dto.RateMaterialRequest{Rating: 4})
	require.NoError(t, err)
	// 17/4 = 4.25 rounds to 4.3.
	assert.Equal(t, 4.3, result.AverageRating)
}

func TestMaterialServiceRateOutOfRange(t *testing.T) {
	repo := &materialRepoStub{materials: map[string]*models.Material{
		"mat-1": {ID: "mat-1"},
	}}
	service := newMaterialService(repo)

	for _, rating := range []int{0, 6, -1} {
		_, err := service.Rate(context.Background(), "mat-1", "user-1", dto.RateMaterialRequest{Rating: rating})
		require.Error(t, err)
	}
	assert.Empty(t, repo.ratings)
}

func TestMaterialServiceRateUnknownMaterial(t *testing.T) {
	service := newMaterialService(&materialRepoStub{})

	_, err := service.Rate(context.Background(), "missing", "user-1", dto.RateMaterialRequest{Rating: 3})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestMaterialServiceListValidatesFilters(t *testing.T) {
	service := newMaterialService(&materialRepoStub{})

	_, err := service.List(context.Background(), models.MaterialFilter{Scheme: "2007"})
	require.Error(t, err)

	_, err = service.List(context.Background(), models.MaterialFilter{Semester: 9})
	require.Error(t, err)

	_, err = service.List(context.Background(), models.MaterialFilter{Type: "flashcards"})
	require.Error(t, err)
}

func TestMaterialServiceListEmptyResultIsValid(t *testing.T) {
	service := newMaterialService(&materialRepoStub{})

	result, err := service.List(context.Background(), models.MaterialFilter{
		Scheme:   models.Scheme2023,
		Semester: 5,
		Type:     models.MaterialTypePYQ,
	})
	require.NoError(t, err)
	assert.Empty(t, result.Materials)
	assert.Equal(t, 0, result.Pagination.TotalCount)
}

func TestMaterialServiceUpdateAppliesPatch(t *testing.T) {
	repo := &materialRepoStub{materials: map[string]*models.Material{
		"mat-1": {ID: "mat-1", Title: "Old", Description: "old", FileURL: "https://drive.google.com/file/d/a/view"},
	}}
	service := newMaterialService(repo)

	title := "New title"
	updated, err := service.Update(context.Background(), "mat-1", models.UserInfo{ID: "admin-1"}, dto.UpdateMaterialRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "New title", updated.Title)
	assert.Equal(t, "old", updated.Description)
}

func TestMaterialServiceAdminEditsAuditTrail(t *testing.T) {
	repo := &materialRepoStub{materials: map[string]*models.Material{
		"mat-1": {ID: "mat-1", Title: "Old"},
	}}
	audit := &auditLoggerStub{}
	service := NewMaterialService(repo, audit, nil, nil, 0, validator.New(), nil)

	admin := models.UserInfo{ID: "admin-1", Role: models.RoleAdmin}

	title := "New title"
	_, err := service.Update(context.Background(), "mat-1", admin, dto.UpdateMaterialRequest{Title: &title})
	require.NoError(t, err)

	require.Len(t, audit.logs, 1)
	entry := audit.logs[0]
	assert.Equal(t, models.AuditActionMaterialUpdate, entry.Action)
	assert.Equal(t, "material", entry.Resource)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "admin-1", *entry.UserID)

	require.NoError(t, service.Delete(context.Background(), "mat-1", admin))
	require.Len(t, audit.logs, 2)
	assert.Equal(t, models.AuditActionMaterialDelete, audit.logs[1].Action)
}

func TestMaterialServiceDelete(t *testing.T) {
	repo := &materialRepoStub{materials: map[string]*models.Material{
		"mat-1": {ID: "mat-1"},
	}}
	service := newMaterialService(repo)

	require.NoError(t, service.Delete(context.Background(), "mat-1", models.UserInfo{ID: "admin-1"}))
	assert.Equal(t, []string{"mat-1"}, repo.deleted)

	err := service.Delete(context.Background(), "mat-1", models.UserInfo{ID: "admin-1"})
	require.Error(t, err)
}

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

const wishlistMaterialID = "3f3a2f1e-9c1d-4f2a-8c8e-1a2b3c4d5e6f"

type wishlistRepoStub struct {
	entries map[string]models.WishlistEntry
}

func newWishlistRepoStub() *wishlistRepoStub {
	return &wishlistRepoStub{entries: make(map[string]models.WishlistEntry)}
}

func (s *wishlistRepoStub) key(userID, materialID string) string {
	return userID + "/" + materialID
}

func (s *wishlistRepoStub) Exists(ctx context.Context, userID, materialID string) (bool, error) {
	_, ok := s.entries[s.key(userID, materialID)]
	return ok, nil
}

func (s *wishlistRepoStub) Create(ctx context.Context, entry *models.WishlistEntry) error {
	s.entries[s.key(entry.UserID, entry.MaterialID)] = *entry
	return nil
}

func (s *wishlistRepoStub) Delete(ctx context.Context, userID, materialID string) error {
	delete(s.entries, s.key(userID, materialID))
	return nil
}

func (s *wishlistRepoStub) ListByUser(ctx context.Context, userID string) ([]models.WishlistEntry, error) {
	var result []models.WishlistEntry
	for _, entry := range s.entries {
		if entry.UserID == userID {
			result = append(result, entry)
		}
	}
	return result, nil
}

type materialLookupStub struct {
	materials map[string]*models.Material
}

func (s materialLookupStub) Get(ctx context.Context, id string) (*models.Material, error) {
	if material, ok := s.materials[id]; ok {
		return material, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
}

type wishlistSubjectStub struct {
	names map[string]string
}

func (s wishlistSubjectStub) FindByCode(ctx context.Context, scheme string, semester int, code string) (*models.Subject, error) {
	if name, ok := s.names[code]; ok {
		return &models.Subject{Code: code, Scheme: scheme, Semester: semester, Name: name}, nil
	}
	return nil, sql.ErrNoRows
}

func newWishlistService(repo *wishlistRepoStub, materials materialLookupStub, subjects wishlistSubjectStub) *WishlistService {
	return NewWishlistService(repo, materials, subjects, validator.New(), nil)
}

func wishlistMaterial() *models.Material {
	return &models.Material{
		ID:        wishlistMaterialID,
		Title:     "Module 1 Notes",
		Scheme:    models.Scheme2019,
		Semester:  3,
		SubjectID: "CST201",
		FileURL:   "https://drive.google.com/file/d/abc/view",
		Status:    models.MaterialStatusActive,
	}
}

func TestWishlistServiceToggleIsInvolutive(t *testing.T) {
	repo := newWishlistRepoStub()
	service := newWishlistService(repo,
		materialLookupStub{materials: map[string]*models.Material{wishlistMaterialID: wishlistMaterial()}},
		wishlistSubjectStub{names: map[string]string{"CST201": "Data Structures"}},
	)

	req := dto.ToggleWishlistRequest{MaterialID: wishlistMaterialID}

	added, err := service.Toggle(context.Background(), "user-1", req)
	require.NoError(t, err)
	assert.True(t, added.Saved)

	entries, err := service.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Module 1 Notes", entries[0].Title)
	assert.Equal(t, "Data Structures", entries[0].SubjectName)

	removed, err := service.Toggle(context.Background(), "user-1", req)
	require.NoError(t, err)
	assert.False(t, removed.Saved)

	entries, err = service.List(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWishlistServiceToggleUnknownMaterial(t *testing.T) {
	service := newWishlistService(newWishlistRepoStub(), materialLookupStub{}, wishlistSubjectStub{})

	_, err := service.Toggle(context.Background(), "user-1", dto.ToggleWishlistRequest{MaterialID: wishlistMaterialID})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestWishlistServiceToggleFallsBackToSubjectCode(t *testing.T) {
	repo := newWishlistRepoStub()
	service := newWishlistService(repo,
		materialLookupStub{materials: map[string]*models.Material{wishlistMaterialID: wishlistMaterial()}},
		wishlistSubjectStub{},
	)

	_, err := service.Toggle(context.Background(), "user-1", dto.ToggleWishlistRequest{MaterialID: wishlistMaterialID})
	require.NoError(t, err)

	entries, err := service.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "CST201", entries[0].SubjectName)
}

func TestWishlistServiceListIsPerUser(t *testing.T) {
	repo := newWishlistRepoStub()
	service := newWishlistService(repo,
		materialLookupStub{materials: map[string]*models.Material{wishlistMaterialID: wishlistMaterial()}},
		wishlistSubjectStub{},
	)

	_, err := service.Toggle(context.Background(), "user-1", dto.ToggleWishlistRequest{MaterialID: wishlistMaterialID})
	require.NoError(t, err)

	entries, err := service.List(context.Background(), "user-2")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

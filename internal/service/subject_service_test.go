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

type subjectRepoStub struct {
	subjects []models.Subject
	deleted  []string
}

func (s *subjectRepoStub) ListBySemester(ctx context.Context, scheme string, semester int) ([]models.Subject, error) {
	var result []models.Subject
	for _, subject := range s.subjects {
		if subject.Scheme == scheme && subject.Semester == semester {
			result = append(result, subject)
		}
	}
	return result, nil
}

func (s *subjectRepoStub) FindByCode(ctx context.Context, scheme string, semester int, code string) (*models.Subject, error) {
	for _, subject := range s.subjects {
		if subject.Scheme == scheme && subject.Semester == semester && subject.Code == code {
			copy := subject
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *subjectRepoStub) ExistsByCode(ctx context.Context, scheme string, semester int, code string) (bool, error) {
	_, err := s.FindByCode(ctx, scheme, semester, code)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (s *subjectRepoStub) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = "subject-" + subject.Code
	}
	s.subjects = append(s.subjects, *subject)
	return nil
}

func (s *subjectRepoStub) Update(ctx context.Context, subject *models.Subject) error {
	for i := range s.subjects {
		if s.subjects[i].ID == subject.ID {
			s.subjects[i] = *subject
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *subjectRepoStub) Delete(ctx context.Context, id string) error {
	for i := range s.subjects {
		if s.subjects[i].ID == id {
			s.subjects = append(s.subjects[:i], s.subjects[i+1:]...)
			break
		}
	}
	s.deleted = append(s.deleted, id)
	return nil
}

type materialCounterStub struct {
	counts map[models.MaterialType]int
}

func (s materialCounterStub) CountByType(ctx context.Context, scheme string, semester int, subjectID string) (map[models.MaterialType]int, error) {
	return s.counts, nil
}

func newSubjectService(repo *subjectRepoStub, counter materialCounterStub) *SubjectService {
	return NewSubjectService(repo, counter, validator.New(), nil)
}

func TestSubjectServiceListBySemester(t *testing.T) {
	repo := &subjectRepoStub{subjects: []models.Subject{
		{ID: "s1", Scheme: models.Scheme2019, Semester: 3, Code: "CST201", Name: "Data Structures"},
		{ID: "s2", Scheme: models.Scheme2019, Semester: 3, Code: "CST203", Name: "Logic System Design"},
		{ID: "s3", Scheme: models.Scheme2019, Semester: 5, Code: "CST301", Name: "Formal Languages"},
	}}
	service := newSubjectService(repo, materialCounterStub{})

	subjects, err := service.ListBySemester(context.Background(), models.Scheme2019, 3)
	require.NoError(t, err)
	assert.Len(t, subjects, 2)

	empty, err := service.ListBySemester(context.Background(), models.Scheme2023, 3)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSubjectServiceListRejectsInvalidInput(t *testing.T) {
	service := newSubjectService(&subjectRepoStub{}, materialCounterStub{})

	_, err := service.ListBySemester(context.Background(), "2007", 3)
	require.Error(t, err)

	_, err = service.ListBySemester(context.Background(), models.Scheme2019, 0)
	require.Error(t, err)

	_, err = service.ListBySemester(context.Background(), models.Scheme2019, 9)
	require.Error(t, err)
}

func TestSubjectServiceAvailability(t *testing.T) {
	repo := &subjectRepoStub{subjects: []models.Subject{
		{ID: "s1", Scheme: models.Scheme2019, Semester: 3, Code: "CST201", Name: "Data Structures"},
	}}
	counter := materialCounterStub{counts: map[models.MaterialType]int{
		models.MaterialTypeNotes: 4,
		models.MaterialTypePYQ:   2,
	}}
	service := newSubjectService(repo, counter)

	availability, err := service.Availability(context.Background(), models.Scheme2019, 3, "CST201")
	require.NoError(t, err)
	assert.Equal(t, "Data Structures", availability.Subject.Name)
	assert.Equal(t, 4, availability.MaterialCounts[models.MaterialTypeNotes])
	assert.Equal(t, 2, availability.MaterialCounts[models.MaterialTypePYQ])
	assert.Zero(t, availability.MaterialCounts[models.MaterialTypeSyllabus])
}

func TestSubjectServiceAvailabilityNotFound(t *testing.T) {
	service := newSubjectService(&subjectRepoStub{}, materialCounterStub{})

	_, err := service.Availability(context.Background(), models.Scheme2019, 3, "CST999")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestSubjectServiceCreateRejectsDuplicateCode(t *testing.T) {
	repo := &subjectRepoStub{}
	service := newSubjectService(repo, materialCounterStub{})

	created, err := service.Create(context.Background(), dto.CreateSubjectRequest{
		Scheme:   models.Scheme2023,
		Semester: 1,
		Code:     "MAT101",
		Name:     "Calculus",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	_, err = service.Create(context.Background(), dto.CreateSubjectRequest{
		Scheme:   models.Scheme2023,
		Semester: 1,
		Code:     "MAT101",
		Name:     "Calculus again",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)

	// Same code in another semester is a different catalog entry.
	_, err = service.Create(context.Background(), dto.CreateSubjectRequest{
		Scheme:   models.Scheme2023,
		Semester: 2,
		Code:     "MAT101",
		Name:     "Calculus II",
	})
	require.NoError(t, err)
}

func TestSubjectServiceUpdateAppliesPatch(t *testing.T) {
	repo := &subjectRepoStub{subjects: []models.Subject{
		{ID: "s1", Scheme: models.Scheme2019, Semester: 3, Code: "CST201", Name: "Old Name", SortOrder: 5},
	}}
	service := newSubjectService(repo, materialCounterStub{})

	name := "Data Structures"
	updated, err := service.Update(context.Background(), models.Scheme2019, 3, "CST201", dto.UpdateSubjectRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Data Structures", updated.Name)
	assert.Equal(t, 5, updated.SortOrder)
}

func TestSubjectServiceDelete(t *testing.T) {
	repo := &subjectRepoStub{subjects: []models.Subject{
		{ID: "s1", Scheme: models.Scheme2019, Semester: 3, Code: "CST201", Name: "Data Structures"},
	}}
	service := newSubjectService(repo, materialCounterStub{})

	require.NoError(t, service.Delete(context.Background(), models.Scheme2019, 3, "CST201"))
	assert.Equal(t, []string{"s1"}, repo.deleted)

	err := service.Delete(context.Background(), models.Scheme2019, 3, "CST201")
	require.Error(t, err)
}

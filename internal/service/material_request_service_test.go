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

type requestRepoStub struct {
	requests   map[string]*models.MaterialRequest
	created    []*models.MaterialRequest
	materials  []*models.Material
	approveErr error
	rejectErr  error
}

func (s *requestRepoStub) Create(ctx context.Context, request *models.MaterialRequest) error {
	request.ID = "req-1"
	s.created = append(s.created, request)
	if s.requests == nil {
		s.requests = make(map[string]*models.MaterialRequest)
	}
	s.requests[request.ID] = request
	return nil
}

func (s *requestRepoStub) FindByID(ctx context.Context, id string) (*models.MaterialRequest, error) {
	if request, ok := s.requests[id]; ok {
		copy := *request
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *requestRepoStub) List(ctx context.Context, filter models.RequestFilter) ([]models.MaterialRequest, int, error) {
	var result []models.MaterialRequest
	for _, request := range s.requests {
		if filter.Status != "" && request.Status != filter.Status {
			continue
		}
		result = append(result, *request)
	}
	return result, len(result), nil
}

func (s *requestRepoStub) Approve(ctx context.Context, requestID string, material *models.Material, decidedBy string) error {
	if s.approveErr != nil {
		return s.approveErr
	}
	request, ok := s.requests[requestID]
	if !ok || request.Status != models.RequestStatusPending {
		return sql.ErrNoRows
	}
	request.Status = models.RequestStatusApproved
	request.DecidedBy = &decidedBy
	material.ID = "mat-1"
	s.materials = append(s.materials, material)
	return nil
}

func (s *requestRepoStub) Reject(ctx context.Context, requestID, decidedBy string) error {
	if s.rejectErr != nil {
		return s.rejectErr
	}
	request, ok := s.requests[requestID]
	if !ok || request.Status != models.RequestStatusPending {
		return sql.ErrNoRows
	}
	request.Status = models.RequestStatusRejected
	request.DecidedBy = &decidedBy
	return nil
}

type subjectLookupStub struct {
	known map[string]bool
}

func (s subjectLookupStub) FindByCode(ctx context.Context, scheme string, semester int, code string) (*models.Subject, error) {
	if s.known == nil || s.known[code] {
		return &models.Subject{Code: code, Scheme: scheme, Semester: semester, Name: "Subject " + code}, nil
	}
	return nil, sql.ErrNoRows
}

func newRequestService(repo *requestRepoStub) *MaterialRequestService {
	return NewMaterialRequestService(repo, subjectLookupStub{}, &auditLoggerStub{}, nil, validator.New(), nil, MaterialRequestConfig{})
}

func validSubmission() dto.SubmitMaterialRequest {
	return dto.SubmitMaterialRequest{
		Title:     "Module 1 Notes",
		Type:      models.MaterialTypeNotes,
		Scheme:    models.Scheme2019,
		Semester:  3,
		SubjectID: "CST201",
		FileURL:   "https://drive.google.com/file/d/abc123/view",
	}
}

func TestMaterialRequestServiceSubmitCreatesPending(t *testing.T) {
	repo := &requestRepoStub{}
	service := newRequestService(repo)

	uploader := models.UserInfo{ID: "user-1", Email: "student@example.com"}
	request, err := service.Submit(context.Background(), uploader, validSubmission())
	require.NoError(t, err)

	assert.Equal(t, models.RequestStatusPending, request.Status)
	assert.Equal(t, "user-1", request.UploadedBy)
	assert.Equal(t, "student@example.com", request.UploaderEmail)
	require.Len(t, repo.created, 1)
	assert.Empty(t, repo.materials)
}

func TestMaterialRequestServiceSubmitMissingTitle(t *testing.T) {
	repo := &requestRepoStub{}
	service := newRequestService(repo)

	payload := validSubmission()
	payload.Title = ""
	_, err := service.Submit(context.Background(), models.UserInfo{ID: "user-1"}, payload)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, repo.created)
}

func TestMaterialRequestServiceSubmitRejectsNonDriveLink(t *testing.T) {
	repo := &requestRepoStub{}
	service := newRequestService(repo)

	payload := validSubmission()
	payload.FileURL = "http://evil.com/x"
	_, err := service.Submit(context.Background(), models.UserInfo{ID: "user-1"}, payload)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInvalidFileLink.Code, appErr.Code)
	assert.Empty(t, repo.created)
}

func TestMaterialRequestServiceSubmitAcceptsDriveVariants(t *testing.T) {
	repo := &requestRepoStub{}
	service := newRequestService(repo)

	for _, link := range []string{
		"https://drive.google.com/file/d/abc/view",
		"https://drive.google.com/open?id=abc",
		"https://drive.google.com/uc?id=abc",
	} {
		payload := validSubmission()
		payload.FileURL = link
		_, err := service.Submit(context.Background(), models.UserInfo{ID: "user-1"}, payload)
		require.NoError(t, err, link)
	}
}

func TestMaterialRequestServiceSubmitExtraPrefix(t *testing.T) {
	repo := &requestRepoStub{}
	service := NewMaterialRequestService(repo, subjectLookupStub{}, &auditLoggerStub{}, nil, validator.New(), nil, MaterialRequestConfig{
		ExtraLinkPrefixes: []string{"https://files.example.edu/"},
	})

	payload := validSubmission()
	payload.FileURL = "https://files.example.edu/notes.pdf"
	_, err := service.Submit(context.Background(), models.UserInfo{ID: "user-1"}, payload)
	require.NoError(t, err)
}

func TestMaterialRequestServiceSubmitUnknownType(t *testing.T) {
	service := newRequestService(&requestRepoStub{})

	payload := validSubmission()
	payload.Type = "flashcards"
	_, err := service.Submit(context.Background(), models.UserInfo{ID: "user-1"}, payload)
	require.Error(t, err)
}

func TestMaterialRequestServiceApprovePublishesOnce(t *testing.T) {
	repo := &requestRepoStub{}
	service := newRequestService(repo)

	uploader := models.UserInfo{ID: "user-1", Email: "student@example.com"}
	submitted, err := service.Submit(context.Background(), uploader, validSubmission())
	require.NoError(t, err)

	admin := models.UserInfo{ID: "admin-1", Role: models.RoleAdmin}
	decided, err := service.Approve(context.Background(), submitted.ID, admin)
	require.NoError(t, err)

	assert.Equal(t, models.RequestStatusApproved, decided.Status)
	require.Len(t, repo.materials, 1)
	material := repo.materials[0]
	assert.Equal(t, submitted.ID, material.RequestID)
	assert.Equal(t, submitted.Title, material.Title)
	assert.Equal(t, "admin-1", material.ApprovedBy)
	assert.Equal(t, models.MaterialStatusActive, material.Status)

	// Second decision must fail without creating another material.
	_, err = service.Approve(context.Background(), submitted.ID, admin)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrRequestDecided.Code, appErr.Code)
	assert.Len(t, repo.materials, 1)
}

func TestMaterialRequestServiceRejectKeepsSubmission(t *testing.T) {
	repo := &requestRepoStub{}
	service := newRequestService(repo)

	submitted, err := service.Submit(context.Background(), models.UserInfo{ID: "user-1"}, validSubmission())
	require.NoError(t, err)

	admin := models.UserInfo{ID: "admin-1", Role: models.RoleAdmin}
	decided, err := service.Reject(context.Background(), submitted.ID, admin)
	require.NoError(t, err)

	assert.Equal(t, models.RequestStatusRejected, decided.Status)
	assert.Equal(t, submitted.Title, decided.Title)
	assert.Empty(t, repo.materials)

	_, err = service.Approve(context.Background(), submitted.ID, admin)
	require.Error(t, err)
}

func TestMaterialRequestServiceApproveNotFound(t *testing.T) {
	service := newRequestService(&requestRepoStub{})

	_, err := service.Approve(context.Background(), "missing", models.UserInfo{ID: "admin-1"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestMaterialRequestServiceDecisionsAuditTrail(t *testing.T) {
	repo := &requestRepoStub{}
	audit := &auditLoggerStub{}
	service := NewMaterialRequestService(repo, subjectLookupStub{}, audit, nil, validator.New(), nil, MaterialRequestConfig{})

	admin := models.UserInfo{ID: "admin-1", Role: models.RoleAdmin}

	approved, err := service.Submit(context.Background(), models.UserInfo{ID: "user-1"}, validSubmission())
	require.NoError(t, err)
	_, err = service.Approve(context.Background(), approved.ID, admin)
	require.NoError(t, err)

	require.Len(t, audit.logs, 1)
	entry := audit.logs[0]
	assert.Equal(t, models.AuditActionRequestApprove, entry.Action)
	assert.Equal(t, "material_request", entry.Resource)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "admin-1", *entry.UserID)
	require.NotNil(t, entry.ResourceID)
	assert.Equal(t, approved.ID, *entry.ResourceID)

	rejected, err := service.Submit(context.Background(), models.UserInfo{ID: "user-2"}, validSubmission())
	require.NoError(t, err)
	_, err = service.Reject(context.Background(), rejected.ID, admin)
	require.NoError(t, err)

	require.Len(t, audit.logs, 2)
	assert.Equal(t, models.AuditActionRequestReject, audit.logs[1].Action)
}

func TestMaterialRequestServiceListRejectsUnknownStatus(t *testing.T) {
	service := newRequestService(&requestRepoStub{})

	_, _, err := service.List(context.Background(), models.RequestFilter{Status: "weird"})
	require.Error(t, err)
}

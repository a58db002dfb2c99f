package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/akshay-km/studyvault-api/internal/dto"
	"github.com/akshay-km/studyvault-api/internal/middleware"
	"github.com/akshay-km/studyvault-api/internal/models"
	"github.com/akshay-km/studyvault-api/internal/service"
)

type requestRepoFake struct {
	requests  map[string]*models.MaterialRequest
	materials []*models.Material
}

func newRequestRepoFake() *requestRepoFake {
	return &requestRepoFake{requests: make(map[string]*models.MaterialRequest)}
}

func (f *requestRepoFake) Create(ctx context.Context, request *models.MaterialRequest) error {
	request.ID = "req-1"
	f.requests[request.ID] = request
	return nil
}

func (f *requestRepoFake) FindByID(ctx context.Context, id string) (*models.MaterialRequest, error) {
	if request, ok := f.requests[id]; ok {
		copy := *request
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (f *requestRepoFake) List(ctx context.Context, filter models.RequestFilter) ([]models.MaterialRequest, int, error) {
	var result []models.MaterialRequest
	for _, request := range f.requests {
		result = append(result, *request)
	}
	return result, len(result), nil
}

func (f *requestRepoFake) Approve(ctx context.Context, requestID string, material *models.Material, decidedBy string) error {
	request, ok := f.requests[requestID]
	if !ok || request.Status != models.RequestStatusPending {
		return sql.ErrNoRows
	}
	request.Status = models.RequestStatusApproved
	material.ID = "mat-1"
	f.materials = append(f.materials, material)
	return nil
}

func (f *requestRepoFake) Reject(ctx context.Context, requestID, decidedBy string) error {
	request, ok := f.requests[requestID]
	if !ok || request.Status != models.RequestStatusPending {
		return sql.ErrNoRows
	}
	request.Status = models.RequestStatusRejected
	return nil
}

type subjectLookupFake struct{}

func (subjectLookupFake) FindByCode(ctx context.Context, scheme string, semester int, code string) (*models.Subject, error) {
	return &models.Subject{Code: code, Scheme: scheme, Semester: semester, Name: "Subject " + code}, nil
}

type auditLogFake struct{}

func (auditLogFake) CreateAuditLog(ctx context.Context, log *models.AuditLog) error { return nil }

func newRequestHandler(repo *requestRepoFake) *MaterialRequestHandler {
	svc := service.NewMaterialRequestService(repo, subjectLookupFake{}, auditLogFake{}, nil, validator.New(), nil, service.MaterialRequestConfig{})
	return NewMaterialRequestHandler(svc)
}

func studentClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-1", Email: "student@example.com", Role: models.RoleStudent}
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Email: "admin@example.com", Role: models.RoleAdmin}
}

func TestMaterialRequestHandlerSubmit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newRequestRepoFake()
	handler := newRequestHandler(repo)

	payload, _ := json.Marshal(dto.SubmitMaterialRequest{
		Title:     "Module 1 Notes",
		Type:      models.MaterialTypeNotes,
		Scheme:    models.Scheme2019,
		Semester:  3,
		SubjectID: "CST201",
		FileURL:   "https://drive.google.com/file/d/abc/view",
	})
	c, w := newGinContext(http.MethodPost, "/materials/requests", payload)
	c.Set(middleware.ContextUserKey, studentClaims())

	handler.Submit(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, repo.requests, 1)
}

func TestMaterialRequestHandlerSubmitUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newRequestHandler(newRequestRepoFake())

	c, w := newGinContext(http.MethodPost, "/materials/requests", []byte(`{}`))

	handler.Submit(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMaterialRequestHandlerSubmitBadLink(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newRequestRepoFake()
	handler := newRequestHandler(repo)

	payload, _ := json.Marshal(dto.SubmitMaterialRequest{
		Title:     "Module 1 Notes",
		Type:      models.MaterialTypeNotes,
		Scheme:    models.Scheme2019,
		Semester:  3,
		SubjectID: "CST201",
		FileURL:   "http://evil.com/x",
	})
	c, w := newGinContext(http.MethodPost, "/materials/requests", payload)
	c.Set(middleware.ContextUserKey, studentClaims())

	handler.Submit(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, repo.requests)
}

func TestMaterialRequestHandlerApprove(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newRequestRepoFake()
	repo.requests["req-1"] = &models.MaterialRequest{
		ID:        "req-1",
		Title:     "Module 1 Notes",
		Type:      models.MaterialTypeNotes,
		Scheme:    models.Scheme2019,
		Semester:  3,
		SubjectID: "CST201",
		FileURL:   "https://drive.google.com/file/d/abc/view",
		Status:    models.RequestStatusPending,
	}
	handler := newRequestHandler(repo)

	c, w := newGinContext(http.MethodPost, "/admin/requests/req-1/approve", nil)
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}
	c.Set(middleware.ContextUserKey, adminClaims())

	handler.Approve(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, repo.materials, 1)

	// Deciding twice conflicts.
	c, w = newGinContext(http.MethodPost, "/admin/requests/req-1/approve", nil)
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}
	c.Set(middleware.ContextUserKey, adminClaims())

	handler.Approve(c)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Len(t, repo.materials, 1)
}

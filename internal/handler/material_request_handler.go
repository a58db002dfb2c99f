package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/akshay-km/studyvault-api/internal/dto"
	"github.com/akshay-km/studyvault-api/internal/models"
	"github.com/akshay-km/studyvault-api/internal/service"
	appErrors "github.com/akshay-km/studyvault-api/pkg/errors"
	"github.com/akshay-km/studyvault-api/pkg/response"
)

// MaterialRequestHandler serves the submission intake and the admin
// review queue.
type MaterialRequestHandler struct {
	service *service.MaterialRequestService
}

// NewMaterialRequestHandler creates a new handler.
func NewMaterialRequestHandler(svc *service.MaterialRequestService) *MaterialRequestHandler {
	return &MaterialRequestHandler{service: svc}
}

// Submit godoc
// @Summary Submit a material for review
// @Description Create a pending material request
// @Tags Material Requests
// @Accept json
// @Produce json
// @Param payload body dto.SubmitMaterialRequest true "Submission payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /materials/requests [post]
func (h *MaterialRequestHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.SubmitMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
		return
	}

	request, err := h.service.Submit(c.Request.Context(), userInfoFromClaims(claims), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, request)
}

// MyRequests godoc
// @Summary List own submissions
// @Description List requests submitted by the current user
// @Tags Material Requests
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /materials/requests [get]
func (h *MaterialRequestHandler) MyRequests(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := requestFilterFromQuery(c)
	filter.UploadedBy = claims.UserID

	requests, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, requests, pagination)
}

// ListForReview godoc
// @Summary List requests for review
// @Description List material requests, filterable by status
// @Tags Admin
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/requests [get]
func (h *MaterialRequestHandler) ListForReview(c *gin.Context) {
	requests, pagination, err := h.service.List(c.Request.Context(), requestFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, requests, pagination)
}

// Approve godoc
// @Summary Approve a material request
// @Description Publish the request as an active material
// @Tags Admin
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/requests/{id}/approve [post]
func (h *MaterialRequestHandler) Approve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	request, err := h.service.Approve(c.Request.Context(), c.Param("id"), userInfoFromClaims(claims))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, request, nil)
}

// Reject godoc
// @Summary Reject a material request
// @Description Mark the request rejected without publishing
// @Tags Admin
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/requests/{id}/reject [post]
func (h *MaterialRequestHandler) Reject(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	request, err := h.service.Reject(c.Request.Context(), c.Param("id"), userInfoFromClaims(claims))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, request, nil)
}

func requestFilterFromQuery(c *gin.Context) models.RequestFilter {
	filter := models.RequestFilter{
		Status: models.RequestStatus(c.Query("status")),
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.Query("pageSize")); err == nil {
		filter.PageSize = size
	}
	return filter
}

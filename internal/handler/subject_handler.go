package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/akshay-km/studyvault-api/internal/dto"
	"github.com/akshay-km/studyvault-api/internal/service"
	appErrors "github.com/akshay-km/studyvault-api/pkg/errors"
	"github.com/akshay-km/studyvault-api/pkg/response"
)

// SubjectHandler serves the curriculum catalog.
type SubjectHandler struct {
	service *service.SubjectService
}

// NewSubjectHandler creates a new handler.
func NewSubjectHandler(svc *service.SubjectService) *SubjectHandler {
	return &SubjectHandler{service: svc}
}

// ListBySemester godoc
// @Summary List subjects
// @Description List the subject catalog for a scheme and semester
// @Tags Subjects
// @Produce json
// @Param scheme path string true "Curriculum scheme"
// @Param semester path int true "Semester 1-8"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /subjects/{scheme}/{semester} [get]
func (h *SubjectHandler) ListBySemester(c *gin.Context) {
	semester, err := strconv.Atoi(c.Param("semester"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semester must be a number"))
		return
	}

	subjects, err := h.service.ListBySemester(c.Request.Context(), c.Param("scheme"), semester)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, subjects, nil)
}

// Availability godoc
// @Summary Subject material availability
// @Description Report per-type published material counts for a subject
// @Tags Subjects
// @Produce json
// @Param scheme path string true "Curriculum scheme"
// @Param semester path int true "Semester 1-8"
// @Param code path string true "Subject code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /subjects/{scheme}/{semester}/{code}/availability [get]
func (h *SubjectHandler) Availability(c *gin.Context) {
	semester, err := strconv.Atoi(c.Param("semester"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semester must be a number"))
		return
	}

	availability, err := h.service.Availability(c.Request.Context(), c.Param("scheme"), semester, c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, availability, nil)
}

// Create godoc
// @Summary Create a subject
// @Description Add an entry to the curriculum catalog
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.CreateSubjectRequest true "Subject payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/subjects [post]
func (h *SubjectHandler) Create(c *gin.Context) {
	var req dto.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid subject payload"))
		return
	}

	subject, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, subject)
}

// Update godoc
// @Summary Update a subject
// @Description Patch the name or sort order of a catalog entry
// @Tags Admin
// @Accept json
// @Produce json
// @Param scheme path string true "Curriculum scheme"
// @Param semester path int true "Semester 1-8"
// @Param code path string true "Subject code"
// @Param payload body dto.UpdateSubjectRequest true "Patch payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/subjects/{scheme}/{semester}/{code} [patch]
func (h *SubjectHandler) Update(c *gin.Context) {
	semester, err := strconv.Atoi(c.Param("semester"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semester must be a number"))
		return
	}

	var req dto.UpdateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid subject payload"))
		return
	}

	subject, err := h.service.Update(c.Request.Context(), c.Param("scheme"), semester, c.Param("code"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, subject, nil)
}

// Delete godoc
// @Summary Delete a subject
// @Description Remove an entry from the curriculum catalog
// @Tags Admin
// @Produce json
// @Param scheme path string true "Curriculum scheme"
// @Param semester path int true "Semester 1-8"
// @Param code path string true "Subject code"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /admin/subjects/{scheme}/{semester}/{code} [delete]
func (h *SubjectHandler) Delete(c *gin.Context) {
	semester, err := strconv.Atoi(c.Param("semester"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semester must be a number"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), c.Param("scheme"), semester, c.Param("code")); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

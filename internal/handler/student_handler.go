package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/farewellhq/event-pass-api/internal/models"
	"github.com/farewellhq/event-pass-api/internal/service"
	appErrors "github.com/farewellhq/event-pass-api/pkg/errors"
	"github.com/farewellhq/event-pass-api/pkg/response"
)

type rosterService interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error)
	Create(ctx context.Context, req service.CreateStudentRequest) (*models.Student, error)
	Classify(ctx context.Context, candidates []models.CandidateStudent) (*service.ClassificationResult, error)
}

type exportService interface {
	Export(ctx context.Context, format string) (*service.ExportFile, error)
}

// StudentHandler exposes roster endpoints.
type StudentHandler struct {
	roster rosterService
	export exportService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(roster rosterService, export exportService) *StudentHandler {
	return &StudentHandler{roster: roster, export: export}
}

// BatchRequest carries uploaded candidate rows for classification and
// pass generation.
type BatchRequest struct {
	Students []models.CandidateStudent `json:"students"`
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param search query string false "Search by name, email or roll number"
// @Param issued query bool false "Filter by pass issuance state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort column: name, roll_number, created_at"
// @Param order query string false "Sort order: asc or desc"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	var filter models.StudentFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if issued := c.Query("issued"); issued != "" {
		if issued == "true" {
			v := true
			filter.Issued = &v
		} else if issued == "false" {
			v := false
			filter.Issued = &v
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	students, pagination, err := h.roster.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Create godoc
// @Summary Register a student manually
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body service.CreateStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req service.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	student, err := h.roster.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Classify godoc
// @Summary Classify an upload batch against the directory
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body BatchRequest true "Candidate rows"
// @Success 200 {object} response.Envelope
// @Router /students/classify [post]
func (h *StudentHandler) Classify(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	result, err := h.roster.Classify(c.Request.Context(), req.Students)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Export godoc
// @Summary Export the roster
// @Tags Students
// @Produce text/csv
// @Produce application/pdf
// @Param format query string true "Export format: csv or pdf"
// @Success 200 {file} file
// @Router /students/export [get]
func (h *StudentHandler) Export(c *gin.Context) {
	file, err := h.export.Export(c.Request.Context(), c.DefaultQuery("format", service.FormatCSV))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

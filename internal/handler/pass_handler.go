package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/farewellhq/event-pass-api/internal/models"
	"github.com/farewellhq/event-pass-api/internal/service"
	appErrors "github.com/farewellhq/event-pass-api/pkg/errors"
)

type issuanceService interface {
	GeneratePasses(ctx context.Context, candidates []models.CandidateStudent) (*service.BatchResult, error)
}

type verificationService interface {
	VerifyPass(ctx context.Context, passID, studentID string) (*service.VerifyResult, error)
}

// PassHandler exposes pass issuance and verification endpoints. Both
// use fixed wire shapes consumed by the scanner and upload UIs rather
// than the roster envelope.
type PassHandler struct {
	issuance     issuanceService
	verification verificationService
}

// NewPassHandler constructs PassHandler.
func NewPassHandler(issuance issuanceService, verification verificationService) *PassHandler {
	return &PassHandler{issuance: issuance, verification: verification}
}

// VerifyRequest is the scanned payload subset the scanner submits.
type VerifyRequest struct {
	PassID    string `json:"passId"`
	StudentID string `json:"studentId"`
}

// VerifyResponse is the scanner wire shape.
type VerifyResponse struct {
	Success      bool        `json:"success"`
	Message      string      `json:"message"`
	Student      interface{} `json:"student,omitempty"`
	Verification interface{} `json:"verification,omitempty"`
}

// GenerateResponse is the batch issuance wire shape.
type GenerateResponse struct {
	Success bool                 `json:"success"`
	Summary service.BatchSummary `json:"summary"`
	Results []service.ItemResult `json:"results"`
}

// GeneratePasses godoc
// @Summary Generate and email passes for a batch of students
// @Tags Passes
// @Accept json
// @Produce json
// @Param payload body BatchRequest true "Candidate rows"
// @Success 200 {object} GenerateResponse
// @Failure 400 {object} VerifyResponse
// @Router /students/generate-passes [post]
func (h *PassHandler) GeneratePasses(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	result, err := h.issuance.GeneratePasses(c.Request.Context(), req.Students)
	if err != nil {
		appErr := appErrors.FromError(err)
		c.JSON(appErr.Status, gin.H{"success": false, "message": appErr.Message})
		return
	}

	c.JSON(http.StatusOK, GenerateResponse{
		Success: result.Summary.Failed == 0,
		Summary: result.Summary,
		Results: result.Results,
	})
}

// Verify godoc
// @Summary Verify a scanned pass
// @Tags Scanner
// @Accept json
// @Produce json
// @Param payload body VerifyRequest true "Scanned pass identity"
// @Success 200 {object} VerifyResponse
// @Failure 400 {object} VerifyResponse
// @Failure 500 {object} VerifyResponse
// @Router /scanner/verify [post]
func (h *PassHandler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, VerifyResponse{Success: false, Message: "invalid request body"})
		return
	}

	result, err := h.verification.VerifyPass(c.Request.Context(), req.PassID, req.StudentID)
	if err == nil {
		c.JSON(http.StatusOK, VerifyResponse{
			Success:      true,
			Message:      result.Message,
			Student:      result.Student,
			Verification: result.Verification,
		})
		return
	}

	var appErr *appErrors.Error
	if !errors.As(err, &appErr) {
		appErr = appErrors.FromError(err)
	}

	resp := VerifyResponse{Success: false, Message: appErr.Message}
	if result != nil {
		// Rejected but identified: surface who already entered and when.
		resp.Message = result.Message
		resp.Student = result.Student
		resp.Verification = result.Verification
	}
	c.JSON(appErr.Status, resp)
}

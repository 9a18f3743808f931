package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sandipsawant10/flood-management-sub002/internal/core/service"
	"github.com/sandipsawant10/flood-management-sub002/internal/models"
)

// VerificationHandler exposes the verification pipeline over HTTP.
type VerificationHandler struct {
	svc *service.VerificationService
}

func NewVerificationHandler(svc *service.VerificationService) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

type verifyResponse struct {
	Status     models.OverallStatus        `json:"status"`
	Confidence float64                     `json:"confidence"`
	Details    *models.VerificationOutcome `json:"details"`
}

// VerifyReport handles POST /v1/verification/reports/:id.
func (h *VerificationHandler) VerifyReport(c *gin.Context) {
	outcome, err := h.svc.VerifyReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, verifyResponse{
		Status:     outcome.OverallStatus,
		Confidence: outcome.Confidence,
		Details:    outcome,
	})
}

type bulkVerifyRequest struct {
	Limit int `json:"limit" binding:"omitempty,min=1,max=50"`
}

// BulkVerify handles POST /v1/verification/bulk.
func (h *VerificationHandler) BulkVerify(c *gin.Context) {
	var req bulkVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 50"})
		return
	}
	if req.Limit == 0 {
		req.Limit = 10
	}

	result, err := h.svc.VerifyPending(c.Request.Context(), req.Limit)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type reportStatusResponse struct {
	VerificationStatus models.VerificationStatus `json:"verificationStatus"`
	AIConfidence       float64                   `json:"aiConfidence"`
	AIVerification     *models.Verification      `json:"aiVerification"`
}

// ReportStatus handles GET /v1/verification/reports/:id. It returns the
// persisted verification state without re-running the pipeline.
func (h *VerificationHandler) ReportStatus(c *gin.Context) {
	report, err := h.svc.ReportStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, reportStatusResponse{
		VerificationStatus: report.VerificationStatus,
		AIConfidence:       report.AIConfidence,
		AIVerification:     report.Verification,
	})
}

// Statistics handles GET /v1/verification/statistics.
func (h *VerificationHandler) Statistics(c *gin.Context) {
	stats, err := h.svc.Statistics(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *VerificationHandler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrReportNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
	case errors.Is(err, models.ErrReportNotPending):
		c.JSON(http.StatusBadRequest, gin.H{"error": "report is no longer pending verification"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
	}
}

package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"workshop_backend/internal/estimates/service"
	"workshop_backend/internal/estimates/transport"
	"workshop_backend/platform/httpkit"
	"workshop_backend/platform/validator"
)

// Handler handles staff HTTP requests for the estimate workflow.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid estimate id"
)

// New creates a new estimates handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// GenerateEstimate creates an estimate for a work order.
// POST /api/v1/work-orders/:id/estimates
func (h *Handler) GenerateEstimate(c *gin.Context) {
	workOrderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid work order id", nil)
		return
	}

	var req transport.GenerateEstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.GenerateEstimate(c.Request.Context(), service.GenerateInput{
		WorkOrderID:       workOrderID,
		RecommendationIDs: req.RecommendationIDs,
		CreatedBy:         identity.UserID(),
		ExpiresIn:         time.Duration(req.ExpiresInHours) * time.Hour,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToGeneratedResponse(*result))
}

// RegenerateEstimate supersedes an estimate and issues a replacement.
// POST /api/v1/work-orders/:id/estimates/:estimateId/regenerate
func (h *Handler) RegenerateEstimate(c *gin.Context) {
	workOrderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid work order id", nil)
		return
	}
	estimateID, err := uuid.Parse(c.Param("estimateId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.GenerateEstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.RegenerateEstimate(c.Request.Context(), estimateID, service.GenerateInput{
		WorkOrderID:       workOrderID,
		RecommendationIDs: req.RecommendationIDs,
		CreatedBy:         identity.UserID(),
		ExpiresIn:         time.Duration(req.ExpiresInHours) * time.Hour,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToGeneratedResponse(*result))
}

// ListEstimates retrieves a work order's estimates.
// GET /api/v1/work-orders/:id/estimates
func (h *Handler) ListEstimates(c *gin.Context) {
	workOrderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid work order id", nil)
		return
	}

	estimates, err := h.svc.ListEstimates(c.Request.Context(), workOrderID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToEstimateResponses(estimates))
}

// GetEstimate retrieves an estimate with its line items.
// GET /api/v1/estimates/:estimateId
func (h *Handler) GetEstimate(c *gin.Context) {
	estimateID, err := uuid.Parse(c.Param("estimateId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	estimate, services, err := h.svc.GetEstimate(c.Request.Context(), estimateID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{
		"estimate": transport.ToEstimateResponse(*estimate),
		"services": transport.ToServiceResponses(services),
	})
}

// GetEstimateQRCode renders the approval URL as a QR code PNG.
// GET /api/v1/estimates/:estimateId/qrcode
func (h *Handler) GetEstimateQRCode(c *gin.Context) {
	estimateID, err := uuid.Parse(c.Param("estimateId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	png, err := h.svc.QRCodePNG(c.Request.Context(), estimateID)
	if httpkit.HandleError(c, err) {
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

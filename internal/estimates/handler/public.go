package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"workshop_backend/internal/estimates/service"
	"workshop_backend/internal/estimates/transport"
	"workshop_backend/platform/httpkit"
)

// PublicHandler serves the unauthenticated estimate routes. The token is the
// sole access control; routes sit behind the stricter public rate limiter.
type PublicHandler struct {
	svc *service.Service
}

// NewPublic creates the public estimates handler.
func NewPublic(svc *service.Service) *PublicHandler {
	return &PublicHandler{svc: svc}
}

// ViewEstimate resolves a token into the customer-facing estimate view.
// GET /api/v1/public/estimates/:token
func (h *PublicHandler) ViewEstimate(c *gin.Context) {
	view, err := h.svc.ViewEstimate(c.Request.Context(), c.Param("token"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToPublicResponse(*view))
}

// SubmitResponse records the customer's one-shot decision.
// POST /api/v1/public/estimates/:token/response
func (h *PublicHandler) SubmitResponse(c *gin.Context) {
	var req transport.SubmitResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	estimate, err := h.svc.SubmitResponse(c.Request.Context(), c.Param("token"), service.ResponseInput{
		ApprovedServiceIDs: req.ApprovedServiceIDs,
		DeclineReasons:     req.DeclineReasons,
		CustomerNotes:      req.CustomerNotes,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToEstimateResponse(*estimate))
}

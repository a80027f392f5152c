package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"workshop_backend/internal/jobstates/service"
	"workshop_backend/internal/jobstates/transport"
	"workshop_backend/platform/httpkit"
	"workshop_backend/platform/validator"
)

// Handler handles HTTP requests for the job state graph.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid job state id"
)

// New creates a new job states handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ListStates retrieves workflow states.
// GET /api/v1/job-states
func (h *Handler) ListStates(c *gin.Context) {
	includeInactive := c.Query("includeInactive") == "true"

	states, err := h.svc.ListStates(c.Request.Context(), includeInactive)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToStateResponses(states))
}

// GetState retrieves a workflow state by ID.
// GET /api/v1/job-states/:id
func (h *Handler) GetState(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	state, err := h.svc.GetState(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToStateResponse(*state))
}

// CreateState creates a workflow state.
// POST /api/v1/job-states
func (h *Handler) CreateState(c *gin.Context) {
	var req transport.CreateStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	state, err := h.svc.CreateState(c.Request.Context(), service.CreateStateInput{
		Name:        req.Name,
		Color:       req.Color,
		Icon:        req.Icon,
		IsInitial:   req.IsInitial,
		IsTerminal:  req.IsTerminal,
		NotifyRoles: req.NotifyRoles,
		SortOrder:   req.SortOrder,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToStateResponse(*state))
}

// UpdateState applies a typed patch to a workflow state.
// PATCH /api/v1/job-states/:id
func (h *Handler) UpdateState(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.UpdateStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	state, err := h.svc.UpdateState(c.Request.Context(), id, service.UpdateStateInput{
		Name:        req.Name,
		Color:       req.Color,
		Icon:        req.Icon,
		IsInitial:   req.IsInitial,
		IsTerminal:  req.IsTerminal,
		NotifyRoles: req.NotifyRoles,
		SortOrder:   req.SortOrder,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToStateResponse(*state))
}

// DeleteState soft-deletes a workflow state.
// DELETE /api/v1/job-states/:id
func (h *Handler) DeleteState(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	if err := h.svc.DeactivateState(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

// ReorderStates assigns display positions following the given order.
// PUT /api/v1/job-states/reorder
func (h *Handler) ReorderStates(c *gin.Context) {
	var req transport.ReorderStatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.svc.ReorderStates(c.Request.Context(), req.StateIDs); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

// ListTransitions retrieves every edge in the graph.
// GET /api/v1/job-states/transitions
func (h *Handler) ListTransitions(c *gin.Context) {
	transitions, err := h.svc.ListTransitions(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToTransitionResponses(transitions))
}

// CreateTransition adds an edge to the graph.
// POST /api/v1/job-states/transitions
func (h *Handler) CreateTransition(c *gin.Context) {
	var req transport.CreateTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	transition, err := h.svc.CreateTransition(c.Request.Context(), req.FromStateID, req.ToStateID, req.AllowedRoles)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToTransitionResponse(*transition))
}

// DeleteTransition removes an edge from the graph.
// DELETE /api/v1/job-states/transitions/:id
func (h *Handler) DeleteTransition(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid transition id", nil)
		return
	}

	if err := h.svc.DeleteTransition(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

// ListAllowedTransitions resolves the states reachable from a state for the
// calling user's roles.
// GET /api/v1/job-states/:id/allowed-transitions
func (h *Handler) ListAllowedTransitions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	allowed, err := h.svc.ListAllowedTransitions(c.Request.Context(), id, identity.Roles())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToAllowedTransitionResponses(allowed))
}

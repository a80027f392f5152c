package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"workshop_backend/internal/workorders/service"
	"workshop_backend/internal/workorders/transport"
	"workshop_backend/platform/httpkit"
	"workshop_backend/platform/validator"
)

// Handler handles HTTP requests for the work order lifecycle.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid work order id"
)

// New creates a new work orders handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func parseWorkOrderID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.UUID{}, false
	}
	return id, true
}

// ListWorkOrders retrieves active work orders.
// GET /api/v1/work-orders
func (h *Handler) ListWorkOrders(c *gin.Context) {
	var jobStateID, assignedTechID *uuid.UUID
	if raw := c.Query("jobStateId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid jobStateId", nil)
			return
		}
		jobStateID = &parsed
	}
	if raw := c.Query("assignedTechId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid assignedTechId", nil)
			return
		}
		assignedTechID = &parsed
	}

	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)

	orders, err := h.svc.ListWorkOrders(c.Request.Context(), jobStateID, assignedTechID, limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToWorkOrderResponses(orders))
}

// GetWorkOrder retrieves a work order's lifecycle view.
// GET /api/v1/work-orders/:id
func (h *Handler) GetWorkOrder(c *gin.Context) {
	id, ok := parseWorkOrderID(c)
	if !ok {
		return
	}

	order, err := h.svc.GetWorkOrder(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToWorkOrderResponse(*order))
}

// DeleteWorkOrder permanently removes a work order.
// DELETE /api/v1/work-orders/:id
func (h *Handler) DeleteWorkOrder(c *gin.Context) {
	id, ok := parseWorkOrderID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteWorkOrder(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

// Transfer hands a work order to another technician and workflow state.
// POST /api/v1/work-orders/:id/transfer
func (h *Handler) Transfer(c *gin.Context) {
	id, ok := parseWorkOrderID(c)
	if !ok {
		return
	}

	var req transport.TransferRequest
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

	callerID := identity.UserID()
	transfer, err := h.svc.Transfer(c.Request.Context(), service.TransferInput{
		WorkOrderID:  id,
		ToUserID:     req.ToUserID,
		ToStateID:    req.ToStateID,
		Note:         req.Note,
		CallerUserID: &callerID,
		CallerRoles:  identity.Roles(),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToTransferResponse(*transfer))
}

// AcceptTransfer acknowledges a pending handoff exactly once.
// POST /api/v1/work-orders/:id/transfers/:transferId/accept
func (h *Handler) AcceptTransfer(c *gin.Context) {
	id, ok := parseWorkOrderID(c)
	if !ok {
		return
	}
	transferID, err := uuid.Parse(c.Param("transferId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid transfer id", nil)
		return
	}

	transfer, err := h.svc.AcceptTransfer(c.Request.Context(), transferID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToTransferResponse(*transfer))
}

// ListTransfers retrieves a work order's handoff history.
// GET /api/v1/work-orders/:id/transfers
func (h *Handler) ListTransfers(c *gin.Context) {
	id, ok := parseWorkOrderID(c)
	if !ok {
		return
	}

	transfers, err := h.svc.ListTransfers(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToTransferResponses(transfers))
}

// ListMyPendingTransfers retrieves the caller's unaccepted transfer inbox.
// GET /api/v1/transfers/pending
func (h *Handler) ListMyPendingTransfers(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	transfers, err := h.svc.ListPendingTransfers(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToTransferResponses(transfers))
}

// CloseInvoice closes a work order's invoice.
// POST /api/v1/work-orders/:id/invoice/close
func (h *Handler) CloseInvoice(c *gin.Context) {
	id, ok := parseWorkOrderID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	order, err := h.svc.CloseInvoice(c.Request.Context(), id, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToWorkOrderResponse(*order))
}

// ReopenInvoice reopens a closed invoice with an audited reason.
// POST /api/v1/work-orders/:id/invoice/reopen
func (h *Handler) ReopenInvoice(c *gin.Context) {
	id, ok := parseWorkOrderID(c)
	if !ok {
		return
	}

	var req transport.ReopenInvoiceRequest
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

	order, err := h.svc.ReopenInvoice(c.Request.Context(), id, identity.UserID(), identity.Roles(), service.ReopenInput{
		Reason:          req.Reason,
		CloseDateOption: req.CloseDateOption,
		CustomCloseDate: req.CustomCloseDate,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToWorkOrderResponse(*order))
}

// VoidInvoice voids a work order's invoice.
// POST /api/v1/work-orders/:id/invoice/void
func (h *Handler) VoidInvoice(c *gin.Context) {
	id, ok := parseWorkOrderID(c)
	if !ok {
		return
	}

	var req transport.VoidInvoiceRequest
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

	order, err := h.svc.VoidInvoice(c.Request.Context(), id, identity.UserID(), req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToWorkOrderResponse(*order))
}

// ListReopenEvents retrieves the reopen audit trail.
// GET /api/v1/work-orders/:id/invoice/reopen-events
func (h *Handler) ListReopenEvents(c *gin.Context) {
	id, ok := parseWorkOrderID(c)
	if !ok {
		return
	}

	events, err := h.svc.ListReopenEvents(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToReopenEventResponses(events))
}

// RecordPayment appends a payment to the ledger.
// POST /api/v1/work-orders/:id/payments
func (h *Handler) RecordPayment(c *gin.Context) {
	id, ok := parseWorkOrderID(c)
	if !ok {
		return
	}

	var req transport.RecordPaymentRequest
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

	result, err := h.svc.RecordPayment(c.Request.Context(), service.PaymentInput{
		WorkOrderID: id,
		AmountCents: req.AmountCents,
		Method:      req.Method,
		Notes:       req.Notes,
		RecordedBy:  identity.UserID(),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.RecordPaymentResponse{
		Payment:         transport.ToPaymentResponse(result.Payment),
		AmountPaidCents: result.AmountPaidCents,
		InvoiceStatus:   result.InvoiceStatus,
		FullyPaid:       result.FullyPaid,
	})
}

// ListPayments retrieves a work order's payment ledger.
// GET /api/v1/work-orders/:id/payments
func (h *Handler) ListPayments(c *gin.Context) {
	id, ok := parseWorkOrderID(c)
	if !ok {
		return
	}

	payments, err := h.svc.ListPayments(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToPaymentResponses(payments))
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

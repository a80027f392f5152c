// Package transport contains request/response DTOs for the work orders API.
package transport

import (
	"time"

	"workshop_backend/internal/workorders/repository"

	"github.com/google/uuid"
)

// TransferRequest is the payload for handing off a work order.
type TransferRequest struct {
	ToUserID  uuid.UUID `json:"toUserId" validate:"required"`
	ToStateID uuid.UUID `json:"toStateId" validate:"required"`
	Note      *string   `json:"note" validate:"omitempty,max=1000"`
}

// ReopenInvoiceRequest is the payload for reopening a closed invoice.
type ReopenInvoiceRequest struct {
	Reason          string     `json:"reason" validate:"required,min=3,max=1000"`
	CloseDateOption string     `json:"closeDateOption" validate:"omitempty,oneof=keepOriginal useCurrent custom"`
	CustomCloseDate *time.Time `json:"customCloseDate"`
}

// VoidInvoiceRequest is the payload for voiding an invoice.
type VoidInvoiceRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=1000"`
}

// RecordPaymentRequest is the payload for appending a payment.
type RecordPaymentRequest struct {
	AmountCents int64   `json:"amountCents" validate:"required,gt=0"`
	Method      string  `json:"method" validate:"required,oneof=cash card check ach"`
	Notes       *string `json:"notes" validate:"omitempty,max=1000"`
}

// WorkOrderResponse is the API shape of a work order's lifecycle fields.
type WorkOrderResponse struct {
	ID              uuid.UUID  `json:"id"`
	CustomerID      uuid.UUID  `json:"customerId"`
	VehicleID       uuid.UUID  `json:"vehicleId"`
	JobStateID      uuid.UUID  `json:"jobStateId"`
	AssignedTechID  *uuid.UUID `json:"assignedTechId,omitempty"`
	InvoiceStatus   string     `json:"invoiceStatus"`
	TotalCents      int64      `json:"totalCents"`
	AmountPaidCents int64      `json:"amountPaidCents"`
	ClosedAt        *time.Time `json:"closedAt,omitempty"`
	ClosedBy        *uuid.UUID `json:"closedBy,omitempty"`
	VoidedAt        *time.Time `json:"voidedAt,omitempty"`
	VoidedBy        *uuid.UUID `json:"voidedBy,omitempty"`
	VoidReason      *string    `json:"voidReason,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// TransferResponse is the API shape of a handoff record.
type TransferResponse struct {
	ID            uuid.UUID  `json:"id"`
	WorkOrderID   uuid.UUID  `json:"workOrderId"`
	FromUserID    *uuid.UUID `json:"fromUserId,omitempty"`
	ToUserID      uuid.UUID  `json:"toUserId"`
	FromStateID   uuid.UUID  `json:"fromStateId"`
	ToStateID     uuid.UUID  `json:"toStateId"`
	Note          *string    `json:"note,omitempty"`
	TransferredAt time.Time  `json:"transferredAt"`
	AcceptedAt    *time.Time `json:"acceptedAt,omitempty"`
}

// PaymentResponse is the API shape of a ledger row.
type PaymentResponse struct {
	ID                 uuid.UUID `json:"id"`
	WorkOrderID        uuid.UUID `json:"workOrderId"`
	AmountCents        int64     `json:"amountCents"`
	Method             string    `json:"method"`
	CardSurchargeCents int64     `json:"cardSurchargeCents"`
	CardSurchargeRate  float64   `json:"cardSurchargeRate"`
	PaidAt             time.Time `json:"paidAt"`
	RecordedBy         uuid.UUID `json:"recordedBy"`
	Notes              *string   `json:"notes,omitempty"`
}

// RecordPaymentResponse carries the new row plus the recomputed figures.
type RecordPaymentResponse struct {
	Payment         PaymentResponse `json:"payment"`
	AmountPaidCents int64           `json:"amountPaidCents"`
	InvoiceStatus   string          `json:"invoiceStatus"`
	FullyPaid       bool            `json:"fullyPaid"`
}

// ReopenEventResponse is the API shape of a reopen audit row.
type ReopenEventResponse struct {
	ID                uuid.UUID  `json:"id"`
	WorkOrderID       uuid.UUID  `json:"workOrderId"`
	ReopenedBy        uuid.UUID  `json:"reopenedBy"`
	ReopenReason      string     `json:"reopenReason"`
	OriginalCloseDate *time.Time `json:"originalCloseDate,omitempty"`
	NewCloseDate      *time.Time `json:"newCloseDate,omitempty"`
	CloseDateOption   string     `json:"closeDateOption"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// ToWorkOrderResponse converts a repository model to its API shape.
func ToWorkOrderResponse(wo repository.WorkOrder) WorkOrderResponse {
	return WorkOrderResponse{
		ID:              wo.ID,
		CustomerID:      wo.CustomerID,
		VehicleID:       wo.VehicleID,
		JobStateID:      wo.JobStateID,
		AssignedTechID:  wo.AssignedTechID,
		InvoiceStatus:   wo.InvoiceStatus,
		TotalCents:      wo.TotalCents,
		AmountPaidCents: wo.AmountPaidCents,
		ClosedAt:        wo.ClosedAt,
		ClosedBy:        wo.ClosedBy,
		VoidedAt:        wo.VoidedAt,
		VoidedBy:        wo.VoidedBy,
		VoidReason:      wo.VoidReason,
		CreatedAt:       wo.CreatedAt,
		UpdatedAt:       wo.UpdatedAt,
	}
}

// ToWorkOrderResponses converts a slice of repository models.
func ToWorkOrderResponses(orders []repository.WorkOrder) []WorkOrderResponse {
	out := make([]WorkOrderResponse, 0, len(orders))
	for _, wo := range orders {
		out = append(out, ToWorkOrderResponse(wo))
	}
	return out
}

// ToTransferResponse converts a repository model to its API shape.
func ToTransferResponse(t repository.Transfer) TransferResponse {
	return TransferResponse{
		ID:            t.ID,
		WorkOrderID:   t.WorkOrderID,
		FromUserID:    t.FromUserID,
		ToUserID:      t.ToUserID,
		FromStateID:   t.FromStateID,
		ToStateID:     t.ToStateID,
		Note:          t.Note,
		TransferredAt: t.TransferredAt,
		AcceptedAt:    t.AcceptedAt,
	}
}

// ToTransferResponses converts a slice of repository models.
func ToTransferResponses(transfers []repository.Transfer) []TransferResponse {
	out := make([]TransferResponse, 0, len(transfers))
	for _, t := range transfers {
		out = append(out, ToTransferResponse(t))
	}
	return out
}

// ToPaymentResponse converts a repository model to its API shape.
func ToPaymentResponse(p repository.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                 p.ID,
		WorkOrderID:        p.WorkOrderID,
		AmountCents:        p.AmountCents,
		Method:             p.PaymentMethod,
		CardSurchargeCents: p.CardSurchargeCents,
		CardSurchargeRate:  p.CardSurchargeRate,
		PaidAt:             p.PaidAt,
		RecordedBy:         p.RecordedBy,
		Notes:              p.Notes,
	}
}

// ToPaymentResponses converts a slice of repository models.
func ToPaymentResponses(payments []repository.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, ToPaymentResponse(p))
	}
	return out
}

// ToReopenEventResponses converts reopen audit rows.
func ToReopenEventResponses(events []repository.ReopenEvent) []ReopenEventResponse {
	out := make([]ReopenEventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, ReopenEventResponse{
			ID:                ev.ID,
			WorkOrderID:       ev.WorkOrderID,
			ReopenedBy:        ev.ReopenedBy,
			ReopenReason:      ev.ReopenReason,
			OriginalCloseDate: ev.OriginalCloseDate,
			NewCloseDate:      ev.NewCloseDate,
			CloseDateOption:   ev.CloseDateOption,
			CreatedAt:         ev.CreatedAt,
		})
	}
	return out
}

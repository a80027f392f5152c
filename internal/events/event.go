// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"workshop_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// NewInMemoryBus re-exports the platform in-memory bus constructor.
var NewInMemoryBus = events.NewInMemoryBus

// InMemoryBus is a type alias to the platform InMemoryBus.
type InMemoryBus = events.InMemoryBus

// =============================================================================
// Work Order Domain Events
// =============================================================================

// WorkOrderTransferred is published when a work order changes hands.
type WorkOrderTransferred struct {
	BaseEvent
	TransferID  uuid.UUID  `json:"transferId"`
	WorkOrderID uuid.UUID  `json:"workOrderId"`
	FromUserID  *uuid.UUID `json:"fromUserId,omitempty"`
	ToUserID    uuid.UUID  `json:"toUserId"`
	FromStateID uuid.UUID  `json:"fromStateId"`
	ToStateID   uuid.UUID  `json:"toStateId"`
	Note        string     `json:"note,omitempty"`
}

func (e WorkOrderTransferred) EventName() string { return "workorders.transferred" }

// InvoiceClosed is published when a work order's invoice is closed.
type InvoiceClosed struct {
	BaseEvent
	WorkOrderID uuid.UUID `json:"workOrderId"`
	ClosedBy    uuid.UUID `json:"closedBy"`
	TotalCents  int64     `json:"totalCents"`
}

func (e InvoiceClosed) EventName() string { return "workorders.invoice.closed" }

// InvoiceReopened is published when a closed invoice is reopened.
type InvoiceReopened struct {
	BaseEvent
	WorkOrderID     uuid.UUID  `json:"workOrderId"`
	ReopenedBy      uuid.UUID  `json:"reopenedBy"`
	Reason          string     `json:"reason"`
	CloseDateOption string     `json:"closeDateOption"`
	NewCloseDate    *time.Time `json:"newCloseDate,omitempty"`
}

func (e InvoiceReopened) EventName() string { return "workorders.invoice.reopened" }

// InvoiceVoided is published when a work order's invoice is voided.
type InvoiceVoided struct {
	BaseEvent
	WorkOrderID uuid.UUID `json:"workOrderId"`
	VoidedBy    uuid.UUID `json:"voidedBy"`
	Reason      string    `json:"reason"`
}

func (e InvoiceVoided) EventName() string { return "workorders.invoice.voided" }

// PaymentRecorded is published when money is applied to a work order.
type PaymentRecorded struct {
	BaseEvent
	PaymentID       uuid.UUID `json:"paymentId"`
	WorkOrderID     uuid.UUID `json:"workOrderId"`
	AmountCents     int64     `json:"amountCents"`
	Method          string    `json:"method"`
	SurchargeCents  int64     `json:"surchargeCents"`
	FullyPaid       bool      `json:"fullyPaid"`
	AmountPaidCents int64     `json:"amountPaidCents"`
}

func (e PaymentRecorded) EventName() string { return "workorders.payment.recorded" }

// =============================================================================
// Estimate Domain Events
// =============================================================================

// EstimateGenerated is published when a customer-facing estimate is created.
type EstimateGenerated struct {
	BaseEvent
	EstimateID    uuid.UUID  `json:"estimateId"`
	WorkOrderID   uuid.UUID  `json:"workOrderId"`
	CustomerID    uuid.UUID  `json:"customerId"`
	CustomerEmail string     `json:"customerEmail,omitempty"`
	CustomerName  string     `json:"customerName,omitempty"`
	VehicleLabel  string     `json:"vehicleLabel,omitempty"`
	ApprovalURL   string     `json:"approvalUrl"`
	TotalCents    int64      `json:"totalCents"`
	ExpiresAt     time.Time  `json:"expiresAt"`
	PreviousID    *uuid.UUID `json:"previousEstimateId,omitempty"`
}

func (e EstimateGenerated) EventName() string { return "estimates.generated" }

// EstimateViewed is published the first time a customer opens an estimate.
type EstimateViewed struct {
	BaseEvent
	EstimateID  uuid.UUID `json:"estimateId"`
	WorkOrderID uuid.UUID `json:"workOrderId"`
}

func (e EstimateViewed) EventName() string { return "estimates.viewed" }

// EstimateResponded is published when the customer submits their response.
type EstimateResponded struct {
	BaseEvent
	EstimateID          uuid.UUID `json:"estimateId"`
	WorkOrderID         uuid.UUID `json:"workOrderId"`
	Status              string    `json:"status"`
	ApprovedAmountCents int64     `json:"approvedAmountCents"`
	ApprovedCount       int       `json:"approvedCount"`
	DeclinedCount       int       `json:"declinedCount"`
}

func (e EstimateResponded) EventName() string { return "estimates.responded" }

// Package service contains business logic for the work order lifecycle: the
// transfer protocol, the invoice state machine and the payment ledger. The
// two state machines (job state graph, invoice lifecycle) are kept as
// separate pure-validation files and invoked from this thin orchestration
// layer.
package service

import (
	"context"
	"time"

	"workshop_backend/internal/events"
	jobstaterepo "workshop_backend/internal/jobstates/repository"
	"workshop_backend/internal/workorders/repository"
	"workshop_backend/platform/apperr"
	"workshop_backend/platform/logger"

	"github.com/google/uuid"
)

// Repository defines the data access contract for the work order lifecycle.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*repository.WorkOrder, error)
	List(ctx context.Context, jobStateID, assignedTechID *uuid.UUID, limit, offset int) ([]repository.WorkOrder, error)
	UserIsActive(ctx context.Context, userID uuid.UUID) (bool, error)
	HardDelete(ctx context.Context, id uuid.UUID) error

	CreateTransfer(ctx context.Context, params repository.CreateTransferParams) (*repository.Transfer, error)
	AcceptTransfer(ctx context.Context, transferID, workOrderID uuid.UUID) (*repository.Transfer, error)
	ListTransfers(ctx context.Context, workOrderID uuid.UUID) ([]repository.Transfer, error)
	ListPendingTransfersFor(ctx context.Context, userID uuid.UUID) ([]repository.Transfer, error)

	CloseInvoice(ctx context.Context, workOrderID, closedBy uuid.UUID, expectedStatus string) (*repository.WorkOrder, error)
	ReopenInvoice(ctx context.Context, params repository.ReopenParams) (*repository.WorkOrder, error)
	VoidInvoice(ctx context.Context, workOrderID, voidedBy uuid.UUID, reason, expectedStatus string) (*repository.WorkOrder, error)
	ListReopenEvents(ctx context.Context, workOrderID uuid.UUID) ([]repository.ReopenEvent, error)

	ListPayments(ctx context.Context, workOrderID uuid.UUID) ([]repository.Payment, error)
	RecordPayment(ctx context.Context, params repository.RecordPaymentParams) (*repository.RecordPaymentResult, error)
	GetShopSettings(ctx context.Context) (*repository.ShopSettings, error)
}

// TransitionResolver consults the job state graph for transfer legality.
type TransitionResolver interface {
	ResolveTransition(ctx context.Context, fromStateID, toStateID uuid.UUID, roles []string) (*jobstaterepo.Transition, error)
}

// Service orchestrates work order lifecycle operations.
type Service struct {
	repo   Repository
	graph  TransitionResolver
	bus    events.Bus
	logger *logger.Logger
}

// New creates a work orders service.
func New(repo Repository, graph TransitionResolver, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, graph: graph, bus: bus, logger: log}
}

// GetWorkOrder returns an active work order.
func (s *Service) GetWorkOrder(ctx context.Context, id uuid.UUID) (*repository.WorkOrder, error) {
	return s.repo.GetByID(ctx, id)
}

// ListWorkOrders returns active work orders with optional filters.
func (s *Service) ListWorkOrders(ctx context.Context, jobStateID, assignedTechID *uuid.UUID, limit, offset int) ([]repository.WorkOrder, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, jobStateID, assignedTechID, limit, offset)
}

// DeleteWorkOrder permanently removes a work order and releases any
// recommendations approved against it.
func (s *Service) DeleteWorkOrder(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.HardDelete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("work order deleted", "work_order_id", id)
	return nil
}

// ── Transfer Protocol ─────────────────────────────────────────────────────────

// TransferInput carries data for a work order handoff.
type TransferInput struct {
	WorkOrderID uuid.UUID
	ToUserID    uuid.UUID
	ToStateID   uuid.UUID
	Note        *string
	// CallerUserID is nil for system-initiated transfers.
	CallerUserID *uuid.UUID
	// CallerRoles is nil for system callers, which bypasses role gating on
	// the graph edge.
	CallerRoles []string
}

// Transfer hands a work order to another technician and moves its workflow
// state. The graph is consulted for legality first; the insert and the work
// order update then commit atomically. Ownership moves immediately — the
// transfer row is an auditable, accept-able notification, not a pending
// request.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (*repository.Transfer, error) {
	order, err := s.repo.GetByID(ctx, input.WorkOrderID)
	if err != nil {
		return nil, err
	}

	if _, err := s.graph.ResolveTransition(ctx, order.JobStateID, input.ToStateID, input.CallerRoles); err != nil {
		return nil, err
	}

	active, err := s.repo.UserIsActive(ctx, input.ToUserID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, apperr.NotFound("target technician not found or inactive")
	}

	transfer, err := s.repo.CreateTransfer(ctx, repository.CreateTransferParams{
		WorkOrderID:         input.WorkOrderID,
		FromUserID:          input.CallerUserID,
		ToUserID:            input.ToUserID,
		ExpectedFromStateID: order.JobStateID,
		ToStateID:           input.ToStateID,
		Note:                input.Note,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("work order transferred",
		"work_order_id", input.WorkOrderID,
		"to_user_id", input.ToUserID,
		"to_state_id", input.ToStateID,
	)
	s.bus.Publish(ctx, events.WorkOrderTransferred{
		BaseEvent:   events.NewBaseEvent(),
		TransferID:  transfer.ID,
		WorkOrderID: transfer.WorkOrderID,
		FromUserID:  transfer.FromUserID,
		ToUserID:    transfer.ToUserID,
		FromStateID: transfer.FromStateID,
		ToStateID:   transfer.ToStateID,
	})
	return transfer, nil
}

// AcceptTransfer stamps a pending transfer exactly once. A double-accept is
// a hard conflict callers must handle as a race outcome.
func (s *Service) AcceptTransfer(ctx context.Context, transferID, workOrderID uuid.UUID) (*repository.Transfer, error) {
	return s.repo.AcceptTransfer(ctx, transferID, workOrderID)
}

// ListTransfers returns a work order's handoff history.
func (s *Service) ListTransfers(ctx context.Context, workOrderID uuid.UUID) ([]repository.Transfer, error) {
	if _, err := s.repo.GetByID(ctx, workOrderID); err != nil {
		return nil, err
	}
	return s.repo.ListTransfers(ctx, workOrderID)
}

// ListPendingTransfers returns the technician's unaccepted transfer inbox.
func (s *Service) ListPendingTransfers(ctx context.Context, userID uuid.UUID) ([]repository.Transfer, error) {
	return s.repo.ListPendingTransfersFor(ctx, userID)
}

// ── Invoice State Machine ─────────────────────────────────────────────────────

// CloseInvoice closes a work order's invoice.
func (s *Service) CloseInvoice(ctx context.Context, workOrderID, callerID uuid.UUID) (*repository.WorkOrder, error) {
	order, err := s.repo.GetByID(ctx, workOrderID)
	if err != nil {
		return nil, err
	}
	if err := ValidateClose(order.InvoiceStatus, order.TotalCents); err != nil {
		return nil, err
	}

	closed, err := s.repo.CloseInvoice(ctx, workOrderID, callerID, order.InvoiceStatus)
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice closed", "work_order_id", workOrderID, "total_cents", closed.TotalCents)
	s.bus.Publish(ctx, events.InvoiceClosed{
		BaseEvent:   events.NewBaseEvent(),
		WorkOrderID: workOrderID,
		ClosedBy:    callerID,
		TotalCents:  closed.TotalCents,
	})
	return closed, nil
}

// ReopenInvoice moves a closed invoice back to open, writing a reopen audit
// event with the chosen close date policy. Restricted to Managers/Owners.
func (s *Service) ReopenInvoice(ctx context.Context, workOrderID, callerID uuid.UUID, callerRoles []string, input ReopenInput) (*repository.WorkOrder, error) {
	order, err := s.repo.GetByID(ctx, workOrderID)
	if err != nil {
		return nil, err
	}
	input, err = ValidateReopen(order.InvoiceStatus, callerRoles, input)
	if err != nil {
		return nil, err
	}

	newCloseDate := ResolveCloseDate(input, time.Now().UTC())
	reopened, err := s.repo.ReopenInvoice(ctx, repository.ReopenParams{
		WorkOrderID:     workOrderID,
		ReopenedBy:      callerID,
		Reason:          input.Reason,
		CloseDateOption: input.CloseDateOption,
		NewCloseDate:    newCloseDate,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice reopened", "work_order_id", workOrderID, "close_date_option", input.CloseDateOption)
	s.bus.Publish(ctx, events.InvoiceReopened{
		BaseEvent:       events.NewBaseEvent(),
		WorkOrderID:     workOrderID,
		ReopenedBy:      callerID,
		Reason:          input.Reason,
		CloseDateOption: input.CloseDateOption,
		NewCloseDate:    newCloseDate,
	})
	return reopened, nil
}

// VoidInvoice voids a work order's invoice. Terminal: voided orders reject
// all further payment, close and reopen operations.
func (s *Service) VoidInvoice(ctx context.Context, workOrderID, callerID uuid.UUID, reason string) (*repository.WorkOrder, error) {
	order, err := s.repo.GetByID(ctx, workOrderID)
	if err != nil {
		return nil, err
	}
	payments, err := s.repo.ListPayments(ctx, workOrderID)
	if err != nil {
		return nil, err
	}
	if err := ValidateVoid(order.InvoiceStatus, sumAmounts(payments), reason); err != nil {
		return nil, err
	}

	voided, err := s.repo.VoidInvoice(ctx, workOrderID, callerID, reason, order.InvoiceStatus)
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice voided", "work_order_id", workOrderID)
	s.bus.Publish(ctx, events.InvoiceVoided{
		BaseEvent:   events.NewBaseEvent(),
		WorkOrderID: workOrderID,
		VoidedBy:    callerID,
		Reason:      reason,
	})
	return voided, nil
}

// ListReopenEvents returns the reopen audit trail for a work order.
func (s *Service) ListReopenEvents(ctx context.Context, workOrderID uuid.UUID) ([]repository.ReopenEvent, error) {
	if _, err := s.repo.GetByID(ctx, workOrderID); err != nil {
		return nil, err
	}
	return s.repo.ListReopenEvents(ctx, workOrderID)
}

// ── Payment Ledger ────────────────────────────────────────────────────────────

// PaymentInput carries caller data for recording a payment.
type PaymentInput struct {
	WorkOrderID uuid.UUID
	AmountCents int64
	Method      string
	Notes       *string
	RecordedBy  uuid.UUID
}

// RecordPayment validates and appends a ledger row. The surcharge is
// computed from a settings snapshot taken now and stored on the row, so the
// historical record stays correct if the shop later changes its rate. Only
// previously closed invoices are promoted to paid when fully covered.
func (s *Service) RecordPayment(ctx context.Context, input PaymentInput) (*repository.RecordPaymentResult, error) {
	order, err := s.repo.GetByID(ctx, input.WorkOrderID)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.ListPayments(ctx, input.WorkOrderID)
	if err != nil {
		return nil, err
	}
	if err := ValidateAddPayment(order.InvoiceStatus, order.TotalCents, sumAmounts(existing), input.AmountCents); err != nil {
		return nil, err
	}

	settings, err := s.repo.GetShopSettings(ctx)
	if err != nil {
		return nil, err
	}
	surcharge, rate := ComputeCardSurcharge(input.Method, input.AmountCents, SurchargeSettings{
		Enabled: settings.SurchargeEnabled,
		Rate:    settings.SurchargeRate,
	})

	result, err := s.repo.RecordPayment(ctx, repository.RecordPaymentParams{
		WorkOrderID:        input.WorkOrderID,
		AmountCents:        input.AmountCents,
		PaymentMethod:      input.Method,
		CardSurchargeCents: surcharge,
		CardSurchargeRate:  rate,
		RecordedBy:         input.RecordedBy,
		Notes:              input.Notes,
		PromoteToPaid:      CanTransition(order.InvoiceStatus, StatusPaid),
		TotalCents:         order.TotalCents,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment recorded",
		"work_order_id", input.WorkOrderID,
		"amount_cents", input.AmountCents,
		"method", input.Method,
		"fully_paid", result.FullyPaid,
	)
	s.bus.Publish(ctx, events.PaymentRecorded{
		BaseEvent:       events.NewBaseEvent(),
		PaymentID:       result.Payment.ID,
		WorkOrderID:     input.WorkOrderID,
		AmountCents:     input.AmountCents,
		Method:          input.Method,
		SurchargeCents:  surcharge,
		FullyPaid:       result.FullyPaid,
		AmountPaidCents: result.AmountPaidCents,
	})
	return result, nil
}

// ListPayments returns a work order's payment ledger.
func (s *Service) ListPayments(ctx context.Context, workOrderID uuid.UUID) ([]repository.Payment, error) {
	if _, err := s.repo.GetByID(ctx, workOrderID); err != nil {
		return nil, err
	}
	return s.repo.ListPayments(ctx, workOrderID)
}

func sumAmounts(payments []repository.Payment) int64 {
	var sum int64
	for _, p := range payments {
		sum += p.AmountCents
	}
	return sum
}

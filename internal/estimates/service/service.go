// Package service contains business logic for the estimate workflow: turning
// approved recommendation candidates into token-accessed customer estimates
// and reconciling the customer's response back onto the recommendations.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"workshop_backend/internal/estimates/repository"
	"workshop_backend/internal/events"
	"workshop_backend/platform/apperr"
	"workshop_backend/platform/config"
	"workshop_backend/platform/logger"
	"workshop_backend/platform/token"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

// tokenByteSize is the entropy behind each estimate token. 32 bytes encode
// to 43 URL-safe characters, far beyond enumeration reach.
const tokenByteSize = 32

// Invoice statuses that freeze the estimate workflow for a work order.
var frozenInvoiceStatuses = map[string]struct{}{
	"invoice_closed": {},
	"paid":           {},
	"voided":         {},
}

// Repository defines the data access contract for the estimate workflow.
type Repository interface {
	GetWorkOrderContext(ctx context.Context, workOrderID uuid.UUID) (*repository.WorkOrderContext, error)
	GetEstimateByID(ctx context.Context, id uuid.UUID) (*repository.Estimate, error)
	GetEstimateByToken(ctx context.Context, tok string) (*repository.Estimate, error)
	ListEstimatesByWorkOrder(ctx context.Context, workOrderID uuid.UUID) ([]repository.Estimate, error)
	ListServices(ctx context.Context, estimateID uuid.UUID) ([]repository.EstimateService, error)
	ListRecommendationsByIDs(ctx context.Context, ids []uuid.UUID) ([]repository.Recommendation, error)
	CreateEstimate(ctx context.Context, params repository.CreateEstimateParams) (*repository.Estimate, []repository.EstimateService, error)
	SupersedeEstimate(ctx context.Context, estimateID uuid.UUID) error
	MarkViewed(ctx context.Context, estimateID uuid.UUID) (bool, error)
	SubmitResponse(ctx context.Context, params repository.SubmitResponseParams) (*repository.Estimate, error)
}

// Service orchestrates the estimate workflow.
type Service struct {
	repo   Repository
	cfg    config.EstimateConfig
	bus    events.Bus
	logger *logger.Logger
}

// New creates an estimates service.
func New(repo Repository, cfg config.EstimateConfig, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, bus: bus, logger: log}
}

// GenerateInput carries data for creating an estimate.
type GenerateInput struct {
	WorkOrderID       uuid.UUID
	RecommendationIDs []uuid.UUID
	CreatedBy         uuid.UUID
	// ExpiresIn overrides the configured expiry when positive.
	ExpiresIn time.Duration
}

// GeneratedEstimate is the staff-facing result of estimate creation.
type GeneratedEstimate struct {
	Estimate    repository.Estimate
	Services    []repository.EstimateService
	ApprovalURL string
}

// GenerateEstimate mints a token, prices the selected recommendations and
// writes the estimate, its line items and the recommendation status flips in
// one transaction. Frozen work orders (closed, paid, voided) reject the
// operation.
func (s *Service) GenerateEstimate(ctx context.Context, input GenerateInput) (*GeneratedEstimate, error) {
	return s.generate(ctx, input, nil)
}

// RegenerateEstimate supersedes an existing estimate and issues a
// replacement carrying the predecessor's ID for traceability. The superseded
// predecessor's recommendations are not reverted: only the new generation
// controls their state going forward.
func (s *Service) RegenerateEstimate(ctx context.Context, oldEstimateID uuid.UUID, input GenerateInput) (*GeneratedEstimate, error) {
	old, err := s.repo.GetEstimateByID(ctx, oldEstimateID)
	if err != nil {
		return nil, err
	}
	if old.Status == EstimateSuperseded {
		return nil, apperr.Conflict("estimate was already superseded")
	}
	if old.WorkOrderID != input.WorkOrderID {
		return nil, apperr.Validation("estimate does not belong to this work order")
	}

	if err := s.repo.SupersedeEstimate(ctx, oldEstimateID); err != nil {
		return nil, err
	}
	return s.generate(ctx, input, &oldEstimateID)
}

func (s *Service) generate(ctx context.Context, input GenerateInput, previousID *uuid.UUID) (*GeneratedEstimate, error) {
	wc, err := s.repo.GetWorkOrderContext(ctx, input.WorkOrderID)
	if err != nil {
		return nil, err
	}
	if _, frozen := frozenInvoiceStatuses[wc.InvoiceStatus]; frozen {
		return nil, apperr.BadRequest("cannot send an estimate for a closed, paid or voided work order")
	}

	recs, err := s.repo.ListRecommendationsByIDs(ctx, input.RecommendationIDs)
	if err != nil {
		return nil, err
	}
	candidates, err := SelectCandidates(recs, input.RecommendationIDs)
	if err != nil {
		return nil, err
	}

	tok, err := token.GenerateRandomToken(tokenByteSize)
	if err != nil {
		return nil, fmt.Errorf("failed to mint estimate token: %w", err)
	}

	expiry := s.cfg.GetEstimateExpiry()
	if input.ExpiresIn > 0 {
		expiry = input.ExpiresIn
	}

	estimate, services, err := s.repo.CreateEstimate(ctx, repository.CreateEstimateParams{
		Token:              tok,
		WorkOrderID:        wc.WorkOrderID,
		CustomerID:         wc.CustomerID,
		VehicleID:          wc.VehicleID,
		TotalAmountCents:   TotalCents(candidates),
		ExpiresAt:          time.Now().UTC().Add(expiry),
		CreatedBy:          input.CreatedBy,
		PreviousEstimateID: previousID,
		Lines:              BuildLines(candidates),
	})
	if err != nil {
		return nil, err
	}

	approvalURL := s.ApprovalURL(tok)
	s.logger.Info("estimate generated",
		"estimate_id", estimate.ID,
		"work_order_id", wc.WorkOrderID,
		"total_cents", estimate.TotalAmountCents,
		"services", len(services),
	)
	s.bus.Publish(ctx, events.EstimateGenerated{
		BaseEvent:     events.NewBaseEvent(),
		EstimateID:    estimate.ID,
		WorkOrderID:   wc.WorkOrderID,
		CustomerID:    wc.CustomerID,
		CustomerEmail: derefString(wc.CustomerEmail),
		CustomerName:  wc.CustomerName,
		VehicleLabel:  wc.VehicleLabel,
		ApprovalURL:   approvalURL,
		TotalCents:    estimate.TotalAmountCents,
		ExpiresAt:     estimate.ExpiresAt,
		PreviousID:    previousID,
	})

	return &GeneratedEstimate{Estimate: *estimate, Services: services, ApprovalURL: approvalURL}, nil
}

// EstimateView is the public, customer-facing read model.
type EstimateView struct {
	Estimate     repository.Estimate
	Services     []repository.EstimateService
	CustomerName string
	VehicleLabel string
}

// ViewEstimate resolves a public token. The first view stamps viewed_at on
// the estimate and on every linked, not-yet-viewed recommendation; later
// views are side-effect-free. Expired estimates are Gone regardless of view
// state.
func (s *Service) ViewEstimate(ctx context.Context, tok string) (*EstimateView, error) {
	if err := ValidateToken(tok); err != nil {
		return nil, err
	}

	estimate, err := s.repo.GetEstimateByToken(ctx, tok)
	if err != nil {
		return nil, err
	}
	if err := CheckExpiry(estimate.ExpiresAt, time.Now().UTC()); err != nil {
		return nil, err
	}

	firstView, err := s.repo.MarkViewed(ctx, estimate.ID)
	if err != nil {
		return nil, err
	}
	if firstView {
		now := time.Now().UTC()
		estimate.ViewedAt = &now
		s.bus.Publish(ctx, events.EstimateViewed{
			BaseEvent:   events.NewBaseEvent(),
			EstimateID:  estimate.ID,
			WorkOrderID: estimate.WorkOrderID,
		})
	}

	services, err := s.repo.ListServices(ctx, estimate.ID)
	if err != nil {
		return nil, err
	}
	wc, err := s.repo.GetWorkOrderContext(ctx, estimate.WorkOrderID)
	if err != nil {
		return nil, err
	}

	return &EstimateView{
		Estimate:     *estimate,
		Services:     services,
		CustomerName: wc.CustomerName,
		VehicleLabel: wc.VehicleLabel,
	}, nil
}

// ResponseInput carries the customer's decision.
type ResponseInput struct {
	ApprovedServiceIDs []uuid.UUID
	DeclineReasons     map[uuid.UUID]string
	CustomerNotes      *string
}

// SubmitResponse applies the customer's one-shot decision: each line is
// approved or declined, linked recommendations are promoted accordingly, and
// the estimate's overall status and approved amount are derived from the
// split. A second submission is rejected, not merged.
func (s *Service) SubmitResponse(ctx context.Context, tok string, input ResponseInput) (*repository.Estimate, error) {
	if err := ValidateToken(tok); err != nil {
		return nil, err
	}

	estimate, err := s.repo.GetEstimateByToken(ctx, tok)
	if err != nil {
		return nil, err
	}
	if estimate.RespondedAt != nil {
		return nil, apperr.Conflict("a response was already submitted for this estimate")
	}
	if estimate.Status == EstimateSuperseded {
		return nil, apperr.Conflict("this estimate has been replaced by a newer one")
	}
	if err := CheckExpiry(estimate.ExpiresAt, time.Now().UTC()); err != nil {
		return nil, err
	}

	wc, err := s.repo.GetWorkOrderContext(ctx, estimate.WorkOrderID)
	if err != nil {
		return nil, err
	}
	if _, frozen := frozenInvoiceStatuses[wc.InvoiceStatus]; frozen {
		return nil, apperr.BadRequest("the work order has been closed; this estimate can no longer be answered")
	}

	services, err := s.repo.ListServices(ctx, estimate.ID)
	if err != nil {
		return nil, err
	}

	plan := PlanResponse(services, input.ApprovedServiceIDs, input.DeclineReasons)
	responded, err := s.repo.SubmitResponse(ctx, repository.SubmitResponseParams{
		EstimateID:          estimate.ID,
		WorkOrderID:         estimate.WorkOrderID,
		Status:              plan.Status,
		ApprovedAmountCents: plan.ApprovedAmountCents,
		CustomerNotes:       input.CustomerNotes,
		Decisions:           plan.Decisions,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("estimate response received",
		"estimate_id", estimate.ID,
		"status", plan.Status,
		"approved_cents", plan.ApprovedAmountCents,
	)
	s.bus.Publish(ctx, events.EstimateResponded{
		BaseEvent:           events.NewBaseEvent(),
		EstimateID:          estimate.ID,
		WorkOrderID:         estimate.WorkOrderID,
		Status:              plan.Status,
		ApprovedAmountCents: plan.ApprovedAmountCents,
		ApprovedCount:       plan.ApprovedCount,
		DeclinedCount:       plan.DeclinedCount,
	})
	return responded, nil
}

// GetEstimate returns an estimate with its line items for staff use.
func (s *Service) GetEstimate(ctx context.Context, id uuid.UUID) (*repository.Estimate, []repository.EstimateService, error) {
	estimate, err := s.repo.GetEstimateByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	services, err := s.repo.ListServices(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return estimate, services, nil
}

// ListEstimates returns a work order's estimates, newest first.
func (s *Service) ListEstimates(ctx context.Context, workOrderID uuid.UUID) ([]repository.Estimate, error) {
	if _, err := s.repo.GetWorkOrderContext(ctx, workOrderID); err != nil {
		return nil, err
	}
	return s.repo.ListEstimatesByWorkOrder(ctx, workOrderID)
}

// ApprovalURL builds the customer-facing link for a token.
func (s *Service) ApprovalURL(tok string) string {
	return fmt.Sprintf("%s/estimates/%s", strings.TrimRight(s.cfg.GetAppBaseURL(), "/"), tok)
}

// QRCodePNG renders the estimate's approval URL as a QR code for the counter
// ticket.
func (s *Service) QRCodePNG(ctx context.Context, estimateID uuid.UUID) ([]byte, error) {
	estimate, err := s.repo.GetEstimateByID(ctx, estimateID)
	if err != nil {
		return nil, err
	}

	png, err := qrcode.Encode(s.ApprovalURL(estimate.Token), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}
	return png, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Package repository provides data access for estimates, their line items
// and the vehicle recommendations they are generated from.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"workshop_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Estimate is the database model for a customer-facing estimate document.
type Estimate struct {
	ID                  uuid.UUID  `db:"id"`
	Token               string     `db:"token"`
	WorkOrderID         uuid.UUID  `db:"work_order_id"`
	CustomerID          uuid.UUID  `db:"customer_id"`
	VehicleID           uuid.UUID  `db:"vehicle_id"`
	Status              string     `db:"status"`
	TotalAmountCents    int64      `db:"total_amount_cents"`
	ApprovedAmountCents int64      `db:"approved_amount_cents"`
	SentAt              time.Time  `db:"sent_at"`
	ViewedAt            *time.Time `db:"viewed_at"`
	RespondedAt         *time.Time `db:"responded_at"`
	ExpiresAt           time.Time  `db:"expires_at"`
	CustomerNotes       *string    `db:"customer_notes"`
	PreviousEstimateID  *uuid.UUID `db:"previous_estimate_id"`
	CreatedBy           uuid.UUID  `db:"created_by"`
	CreatedAt           time.Time  `db:"created_at"`
}

// EstimateService is one candidate service offered on an estimate.
type EstimateService struct {
	ID                  uuid.UUID  `db:"id"`
	EstimateID          uuid.UUID  `db:"estimate_id"`
	RecommendationID    *uuid.UUID `db:"recommendation_id"`
	ServiceTitle        string     `db:"service_title"`
	CustomerExplanation string     `db:"customer_explanation"`
	EstimatedCostCents  int64      `db:"estimated_cost_cents"`
	Status              string     `db:"status"`
	ApprovedAt          *time.Time `db:"approved_at"`
	DeclinedAt          *time.Time `db:"declined_at"`
	DeclineReason       *string    `db:"decline_reason"`
}

// Recommendation is the database model for a proposed vehicle service.
type Recommendation struct {
	ID                     uuid.UUID  `db:"id"`
	VehicleID              uuid.UUID  `db:"vehicle_id"`
	Title                  string     `db:"title"`
	CustomerExplanation    *string    `db:"customer_explanation"`
	EstimatedCostCents     int64      `db:"estimated_cost_cents"`
	Status                 string     `db:"status"`
	EstimateSentAt         *time.Time `db:"estimate_sent_at"`
	EstimateViewedAt       *time.Time `db:"estimate_viewed_at"`
	CustomerRespondedAt    *time.Time `db:"customer_responded_at"`
	CustomerResponseMethod *string    `db:"customer_response_method"`
	DeclinedCount          int        `db:"declined_count"`
	LastDeclinedAt         *time.Time `db:"last_declined_at"`
	DeclineReason          *string    `db:"decline_reason"`
	ApprovedByWorkOrderID  *uuid.UUID `db:"approved_by_work_order_id"`
	CreatedAt              time.Time  `db:"created_at"`
	UpdatedAt              time.Time  `db:"updated_at"`
}

// WorkOrderContext is the joined work order / customer / vehicle snapshot an
// estimate is generated against.
type WorkOrderContext struct {
	WorkOrderID   uuid.UUID
	InvoiceStatus string
	CustomerID    uuid.UUID
	CustomerName  string
	CustomerEmail *string
	VehicleID     uuid.UUID
	VehicleLabel  string
}

const estimateNotFoundMsg = "estimate not found"

const estimateColumns = `id, token, work_order_id, customer_id, vehicle_id, status,
		total_amount_cents, approved_amount_cents, sent_at, viewed_at, responded_at,
		expires_at, customer_notes, previous_estimate_id, created_by, created_at`

const serviceColumns = `id, estimate_id, recommendation_id, service_title,
		customer_explanation, estimated_cost_cents, status, approved_at, declined_at, decline_reason`

// Repository provides database operations for the estimate workflow.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new estimates repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanEstimate(row pgx.Row) (Estimate, error) {
	var e Estimate
	err := row.Scan(
		&e.ID, &e.Token, &e.WorkOrderID, &e.CustomerID, &e.VehicleID, &e.Status,
		&e.TotalAmountCents, &e.ApprovedAmountCents, &e.SentAt, &e.ViewedAt, &e.RespondedAt,
		&e.ExpiresAt, &e.CustomerNotes, &e.PreviousEstimateID, &e.CreatedBy, &e.CreatedAt,
	)
	return e, err
}

func scanEstimateService(row pgx.Row) (EstimateService, error) {
	var s EstimateService
	err := row.Scan(
		&s.ID, &s.EstimateID, &s.RecommendationID, &s.ServiceTitle,
		&s.CustomerExplanation, &s.EstimatedCostCents, &s.Status, &s.ApprovedAt, &s.DeclinedAt, &s.DeclineReason,
	)
	return s, err
}

// GetWorkOrderContext joins the work order with its customer and vehicle.
// A missing join partner is NotFound.
func (r *Repository) GetWorkOrderContext(ctx context.Context, workOrderID uuid.UUID) (*WorkOrderContext, error) {
	query := `
		SELECT w.id, w.invoice_status, c.id, c.full_name, c.email, v.id,
			concat_ws(' ', v.model_year::text, v.make, v.model)
		FROM work_orders w
		JOIN customers c ON c.id = w.customer_id
		JOIN vehicles v ON v.id = w.vehicle_id
		WHERE w.id = $1 AND w.deleted_at IS NULL`

	var wc WorkOrderContext
	err := r.pool.QueryRow(ctx, query, workOrderID).Scan(
		&wc.WorkOrderID, &wc.InvoiceStatus, &wc.CustomerID, &wc.CustomerName,
		&wc.CustomerEmail, &wc.VehicleID, &wc.VehicleLabel,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("work order, customer or vehicle not found")
		}
		return nil, fmt.Errorf("failed to get work order context: %w", err)
	}
	return &wc, nil
}

// GetEstimateByID retrieves an estimate for staff use.
func (r *Repository) GetEstimateByID(ctx context.Context, id uuid.UUID) (*Estimate, error) {
	query := `SELECT ` + estimateColumns + ` FROM estimates WHERE id = $1`
	e, err := scanEstimate(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(estimateNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get estimate: %w", err)
	}
	return &e, nil
}

// GetEstimateByToken retrieves an estimate by its public token.
func (r *Repository) GetEstimateByToken(ctx context.Context, token string) (*Estimate, error) {
	query := `SELECT ` + estimateColumns + ` FROM estimates WHERE token = $1`
	e, err := scanEstimate(r.pool.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(estimateNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get estimate by token: %w", err)
	}
	return &e, nil
}

// ListEstimatesByWorkOrder retrieves a work order's estimates, newest first.
func (r *Repository) ListEstimatesByWorkOrder(ctx context.Context, workOrderID uuid.UUID) ([]Estimate, error) {
	query := `SELECT ` + estimateColumns + `
		FROM estimates WHERE work_order_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, workOrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query estimates: %w", err)
	}
	defer rows.Close()

	var estimates []Estimate
	for rows.Next() {
		e, err := scanEstimate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan estimate: %w", err)
		}
		estimates = append(estimates, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate estimates: %w", err)
	}
	return estimates, nil
}

// ListServices retrieves an estimate's line items in insertion order.
func (r *Repository) ListServices(ctx context.Context, estimateID uuid.UUID) ([]EstimateService, error) {
	query := `SELECT ` + serviceColumns + `
		FROM estimate_services WHERE estimate_id = $1 ORDER BY service_title ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, estimateID)
	if err != nil {
		return nil, fmt.Errorf("failed to query estimate services: %w", err)
	}
	defer rows.Close()

	var services []EstimateService
	for rows.Next() {
		s, err := scanEstimateService(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan estimate service: %w", err)
		}
		services = append(services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate estimate services: %w", err)
	}
	return services, nil
}

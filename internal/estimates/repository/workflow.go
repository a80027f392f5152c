package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"workshop_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ListRecommendationsByIDs retrieves the requested recommendations.
func (r *Repository) ListRecommendationsByIDs(ctx context.Context, ids []uuid.UUID) ([]Recommendation, error) {
	query := `
		SELECT id, vehicle_id, title, customer_explanation, estimated_cost_cents, status,
			estimate_sent_at, estimate_viewed_at, customer_responded_at, customer_response_method,
			declined_count, last_declined_at, decline_reason, approved_by_work_order_id,
			created_at, updated_at
		FROM vehicle_recommendations WHERE id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	var recs []Recommendation
	for rows.Next() {
		var rec Recommendation
		if err := rows.Scan(
			&rec.ID, &rec.VehicleID, &rec.Title, &rec.CustomerExplanation, &rec.EstimatedCostCents, &rec.Status,
			&rec.EstimateSentAt, &rec.EstimateViewedAt, &rec.CustomerRespondedAt, &rec.CustomerResponseMethod,
			&rec.DeclinedCount, &rec.LastDeclinedAt, &rec.DeclineReason, &rec.ApprovedByWorkOrderID,
			&rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recommendations: %w", err)
	}
	return recs, nil
}

// estimateWorkflowFrozen reports whether a work order's invoice status shuts
// the estimate workflow down: closed, paid and voided orders accept neither
// new estimates nor customer responses.
func estimateWorkflowFrozen(invoiceStatus string) bool {
	switch invoiceStatus {
	case "invoice_closed", "paid", "voided":
		return true
	}
	return false
}

// lockWorkOrder takes the work order's row lock inside the transaction and
// returns its invoice status, serializing the estimate write against a
// concurrent invoice close or void on the same order.
func lockWorkOrder(ctx context.Context, tx pgx.Tx, workOrderID uuid.UUID) (string, error) {
	var status string
	err := tx.QueryRow(ctx,
		`SELECT invoice_status FROM work_orders WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`,
		workOrderID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperr.NotFound("work order not found")
		}
		return "", fmt.Errorf("failed to lock work order: %w", err)
	}
	return status, nil
}

// ServiceLine is a prepared line item for estimate creation.
type ServiceLine struct {
	RecommendationID    uuid.UUID
	ServiceTitle        string
	CustomerExplanation string
	EstimatedCostCents  int64
}

// CreateEstimateParams contains the prepared data for an estimate insert.
type CreateEstimateParams struct {
	Token              string
	WorkOrderID        uuid.UUID
	CustomerID         uuid.UUID
	VehicleID          uuid.UUID
	TotalAmountCents   int64
	ExpiresAt          time.Time
	CreatedBy          uuid.UUID
	PreviousEstimateID *uuid.UUID
	Lines              []ServiceLine
}

// CreateEstimate inserts the estimate with its line items and flips every
// selected recommendation from awaiting_approval to sent_to_customer, all in
// one transaction. A recommendation that was concurrently taken out of
// awaiting_approval aborts the whole insert.
func (r *Repository) CreateEstimate(ctx context.Context, params CreateEstimateParams) (*Estimate, []EstimateService, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// The service's pre-flight check read the status before this transaction
	// began; re-check under the lock so an estimate never lands on an order
	// that was closed or voided in the meantime.
	status, err := lockWorkOrder(ctx, tx, params.WorkOrderID)
	if err != nil {
		return nil, nil, err
	}
	if estimateWorkflowFrozen(status) {
		return nil, nil, apperr.BadRequest("cannot send an estimate for a closed, paid or voided work order")
	}

	query := `
		INSERT INTO estimates (id, token, work_order_id, customer_id, vehicle_id, status,
			total_amount_cents, approved_amount_cents, sent_at, expires_at,
			previous_estimate_id, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, 'pending', $6, 0, now(), $7, $8, $9, now())
		RETURNING ` + estimateColumns

	estimate, err := scanEstimate(tx.QueryRow(ctx, query,
		uuid.New(), params.Token, params.WorkOrderID, params.CustomerID, params.VehicleID,
		params.TotalAmountCents, params.ExpiresAt, params.PreviousEstimateID, params.CreatedBy,
	))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to insert estimate: %w", err)
	}

	services := make([]EstimateService, 0, len(params.Lines))
	for _, line := range params.Lines {
		svcQuery := `
			INSERT INTO estimate_services (id, estimate_id, recommendation_id, service_title,
				customer_explanation, estimated_cost_cents, status)
			VALUES ($1, $2, $3, $4, $5, $6, 'pending')
			RETURNING ` + serviceColumns

		svc, err := scanEstimateService(tx.QueryRow(ctx, svcQuery,
			uuid.New(), estimate.ID, line.RecommendationID, line.ServiceTitle,
			line.CustomerExplanation, line.EstimatedCostCents,
		))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to insert estimate service: %w", err)
		}
		services = append(services, svc)

		result, err := tx.Exec(ctx, `
			UPDATE vehicle_recommendations
			SET status = 'sent_to_customer', estimate_sent_at = now(), updated_at = now()
			WHERE id = $1 AND status = 'awaiting_approval'`,
			line.RecommendationID,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to update recommendation: %w", err)
		}
		if result.RowsAffected() == 0 {
			return nil, nil, apperr.Conflict("recommendation is no longer awaiting approval")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit: %w", err)
	}
	return &estimate, services, nil
}

// SupersedeEstimate marks an estimate and all its line items superseded.
// Already-responded (terminal) estimates are left alone only by the service
// layer's choice; the write itself is unconditional and atomic.
func (r *Repository) SupersedeEstimate(ctx context.Context, estimateID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `UPDATE estimates SET status = 'superseded' WHERE id = $1`, estimateID)
	if err != nil {
		return fmt.Errorf("failed to supersede estimate: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(estimateNotFoundMsg)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE estimate_services SET status = 'superseded' WHERE estimate_id = $1`, estimateID,
	); err != nil {
		return fmt.Errorf("failed to supersede estimate services: %w", err)
	}

	return tx.Commit(ctx)
}

// MarkViewed stamps viewed_at on first view and estimate_viewed_at on every
// linked, not-yet-viewed recommendation. Subsequent views are no-ops; the
// returned flag reports whether this call was the first.
func (r *Repository) MarkViewed(ctx context.Context, estimateID uuid.UUID) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx,
		`UPDATE estimates SET viewed_at = now() WHERE id = $1 AND viewed_at IS NULL`, estimateID)
	if err != nil {
		return false, fmt.Errorf("failed to mark estimate viewed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return false, nil
	}

	if _, err := tx.Exec(ctx, `
		UPDATE vehicle_recommendations SET estimate_viewed_at = now(), updated_at = now()
		WHERE estimate_viewed_at IS NULL AND id IN (
			SELECT recommendation_id FROM estimate_services
			WHERE estimate_id = $1 AND recommendation_id IS NOT NULL)`,
		estimateID,
	); err != nil {
		return false, fmt.Errorf("failed to mark recommendations viewed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit: %w", err)
	}
	return true, nil
}

// ServiceDecision is a prepared per-line outcome for a customer response.
type ServiceDecision struct {
	ServiceID        uuid.UUID
	RecommendationID *uuid.UUID
	Approved         bool
	DeclineReason    string
}

// SubmitResponseParams contains the prepared data for a customer response.
type SubmitResponseParams struct {
	EstimateID          uuid.UUID
	WorkOrderID         uuid.UUID
	Status              string
	ApprovedAmountCents int64
	CustomerNotes       *string
	Decisions           []ServiceDecision
}

// SubmitResponse applies the customer's one-shot decision. The responded_at
// guard makes a concurrent duplicate submission observe zero affected rows
// and fail with a conflict, leaving the first result untouched.
func (r *Repository) SubmitResponse(ctx context.Context, params SubmitResponseParams) (*Estimate, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	status, err := lockWorkOrder(ctx, tx, params.WorkOrderID)
	if err != nil {
		return nil, err
	}
	if estimateWorkflowFrozen(status) {
		return nil, apperr.BadRequest("the work order has been closed; this estimate can no longer be answered")
	}

	query := `
		UPDATE estimates
		SET status = $2, approved_amount_cents = $3, customer_notes = $4, responded_at = now()
		WHERE id = $1 AND responded_at IS NULL
		RETURNING ` + estimateColumns

	estimate, err := scanEstimate(tx.QueryRow(ctx, query,
		params.EstimateID, params.Status, params.ApprovedAmountCents, params.CustomerNotes,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.Conflict("a response was already submitted for this estimate")
		}
		return nil, fmt.Errorf("failed to record response: %w", err)
	}

	for _, d := range params.Decisions {
		if d.Approved {
			if _, err := tx.Exec(ctx, `
				UPDATE estimate_services SET status = 'approved', approved_at = now()
				WHERE id = $1`, d.ServiceID,
			); err != nil {
				return nil, fmt.Errorf("failed to approve estimate service: %w", err)
			}
			if d.RecommendationID != nil {
				if _, err := tx.Exec(ctx, `
					UPDATE vehicle_recommendations
					SET status = 'customer_approved', customer_responded_at = now(),
						customer_response_method = 'portal', updated_at = now()
					WHERE id = $1`, *d.RecommendationID,
				); err != nil {
					return nil, fmt.Errorf("failed to approve recommendation: %w", err)
				}
			}
			continue
		}

		if _, err := tx.Exec(ctx, `
			UPDATE estimate_services SET status = 'declined', declined_at = now(), decline_reason = $2
			WHERE id = $1`, d.ServiceID, d.DeclineReason,
		); err != nil {
			return nil, fmt.Errorf("failed to decline estimate service: %w", err)
		}
		if d.RecommendationID != nil {
			if _, err := tx.Exec(ctx, `
				UPDATE vehicle_recommendations
				SET status = 'customer_declined', customer_responded_at = now(),
					customer_response_method = 'portal', decline_reason = $2,
					declined_count = declined_count + 1, last_declined_at = now(), updated_at = now()
				WHERE id = $1`, *d.RecommendationID, d.DeclineReason,
			); err != nil {
				return nil, fmt.Errorf("failed to decline recommendation: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return &estimate, nil
}

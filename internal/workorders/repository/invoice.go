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

// ReopenEvent is the append-only audit row written when a closed invoice is
// reopened.
type ReopenEvent struct {
	ID                uuid.UUID  `db:"id"`
	WorkOrderID       uuid.UUID  `db:"work_order_id"`
	ReopenedBy        uuid.UUID  `db:"reopened_by"`
	ReopenReason      string     `db:"reopen_reason"`
	OriginalCloseDate *time.Time `db:"original_close_date"`
	NewCloseDate      *time.Time `db:"new_close_date"`
	CloseDateOption   string     `db:"close_date_option"`
	CreatedAt         time.Time  `db:"created_at"`
}

// ReopenParams contains data for reopening a closed invoice.
type ReopenParams struct {
	WorkOrderID     uuid.UUID
	ReopenedBy      uuid.UUID
	Reason          string
	CloseDateOption string
	// NewCloseDate is the effective close date after reopening; nil keeps the
	// original closed_at untouched.
	NewCloseDate *time.Time
}

// CloseInvoice moves the invoice to invoice_closed, stamping closed_at and
// closed_by. The expected-status guard turns a concurrent lifecycle change
// into a conflict instead of a lost update.
func (r *Repository) CloseInvoice(ctx context.Context, workOrderID, closedBy uuid.UUID, expectedStatus string) (*WorkOrder, error) {
	query := `
		UPDATE work_orders
		SET invoice_status = 'invoice_closed', closed_at = now(), closed_by = $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL AND invoice_status = $3
		RETURNING ` + workOrderColumns

	wo, err := scanWorkOrder(r.pool.QueryRow(ctx, query, workOrderID, closedBy, expectedStatus))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.Conflict("invoice status changed, reload the work order")
		}
		return nil, fmt.Errorf("failed to close invoice: %w", err)
	}
	return &wo, nil
}

// ReopenInvoice writes the audit event and moves the invoice back to
// invoice_open in one transaction. closed_by is never cleared; closed_at is
// rewritten only when a new close date was resolved.
func (r *Repository) ReopenInvoice(ctx context.Context, params ReopenParams) (*WorkOrder, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var originalCloseDate *time.Time
	err = tx.QueryRow(ctx,
		`SELECT closed_at FROM work_orders
		 WHERE id = $1 AND deleted_at IS NULL AND invoice_status = 'invoice_closed' FOR UPDATE`,
		params.WorkOrderID,
	).Scan(&originalCloseDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.Conflict("invoice status changed, reload the work order")
		}
		return nil, fmt.Errorf("failed to lock work order: %w", err)
	}

	newCloseDate := originalCloseDate
	if params.NewCloseDate != nil {
		newCloseDate = params.NewCloseDate
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO invoice_reopen_events (id, work_order_id, reopened_by, reopen_reason,
			original_close_date, new_close_date, close_date_option, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())`,
		uuid.New(), params.WorkOrderID, params.ReopenedBy, params.Reason,
		originalCloseDate, newCloseDate, params.CloseDateOption,
	); err != nil {
		return nil, fmt.Errorf("failed to insert reopen event: %w", err)
	}

	query := `
		UPDATE work_orders
		SET invoice_status = 'invoice_open', closed_at = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + workOrderColumns

	wo, err := scanWorkOrder(tx.QueryRow(ctx, query, params.WorkOrderID, newCloseDate))
	if err != nil {
		return nil, fmt.Errorf("failed to reopen invoice: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return &wo, nil
}

// VoidInvoice marks the invoice voided. The expected-status guard rejects a
// concurrent lifecycle change.
func (r *Repository) VoidInvoice(ctx context.Context, workOrderID, voidedBy uuid.UUID, reason, expectedStatus string) (*WorkOrder, error) {
	query := `
		UPDATE work_orders
		SET invoice_status = 'voided', voided_at = now(), voided_by = $2, void_reason = $3, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL AND invoice_status = $4
		RETURNING ` + workOrderColumns

	wo, err := scanWorkOrder(r.pool.QueryRow(ctx, query, workOrderID, voidedBy, reason, expectedStatus))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.Conflict("invoice status changed, reload the work order")
		}
		return nil, fmt.Errorf("failed to void invoice: %w", err)
	}
	return &wo, nil
}

// ListReopenEvents retrieves the reopen audit trail for a work order,
// newest first.
func (r *Repository) ListReopenEvents(ctx context.Context, workOrderID uuid.UUID) ([]ReopenEvent, error) {
	query := `
		SELECT id, work_order_id, reopened_by, reopen_reason, original_close_date,
			new_close_date, close_date_option, created_at
		FROM invoice_reopen_events
		WHERE work_order_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, workOrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reopen events: %w", err)
	}
	defer rows.Close()

	var events []ReopenEvent
	for rows.Next() {
		var ev ReopenEvent
		if err := rows.Scan(&ev.ID, &ev.WorkOrderID, &ev.ReopenedBy, &ev.ReopenReason,
			&ev.OriginalCloseDate, &ev.NewCloseDate, &ev.CloseDateOption, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reopen event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reopen events: %w", err)
	}
	return events, nil
}

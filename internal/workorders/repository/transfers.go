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

// Transfer is the database model for a work order handoff. Immutable once
// created except for AcceptedAt, which moves null→timestamp exactly once.
type Transfer struct {
	ID            uuid.UUID  `db:"id"`
	WorkOrderID   uuid.UUID  `db:"work_order_id"`
	FromUserID    *uuid.UUID `db:"from_user_id"`
	ToUserID      uuid.UUID  `db:"to_user_id"`
	FromStateID   uuid.UUID  `db:"from_state_id"`
	ToStateID     uuid.UUID  `db:"to_state_id"`
	Note          *string    `db:"note"`
	TransferredAt time.Time  `db:"transferred_at"`
	AcceptedAt    *time.Time `db:"accepted_at"`
}

// CreateTransferParams contains data for a work order handoff.
type CreateTransferParams struct {
	WorkOrderID uuid.UUID
	FromUserID  *uuid.UUID
	ToUserID    uuid.UUID
	// ExpectedFromStateID is the state the caller validated the transition
	// against. The transfer aborts with a conflict when a concurrent move
	// already changed it.
	ExpectedFromStateID uuid.UUID
	ToStateID           uuid.UUID
	Note                *string
}

const transferColumns = `id, work_order_id, from_user_id, to_user_id,
		from_state_id, to_state_id, note, transferred_at, accepted_at`

func scanTransfer(row pgx.Row) (Transfer, error) {
	var t Transfer
	err := row.Scan(
		&t.ID, &t.WorkOrderID, &t.FromUserID, &t.ToUserID,
		&t.FromStateID, &t.ToStateID, &t.Note, &t.TransferredAt, &t.AcceptedAt,
	)
	return t, err
}

// CreateTransfer records a handoff and moves the work order's state and
// assignee in one transaction. Ownership moves immediately; the transfer row
// exists as an auditable, accept-able notification.
func (r *Repository) CreateTransfer(ctx context.Context, params CreateTransferParams) (*Transfer, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var currentStateID uuid.UUID
	err = tx.QueryRow(ctx,
		`SELECT job_state_id FROM work_orders WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`,
		params.WorkOrderID,
	).Scan(&currentStateID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(workOrderNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to lock work order: %w", err)
	}
	if currentStateID != params.ExpectedFromStateID {
		return nil, apperr.Conflict("work order state changed, retry the transfer")
	}

	query := `
		INSERT INTO job_transfers (id, work_order_id, from_user_id, to_user_id,
			from_state_id, to_state_id, note, transferred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING ` + transferColumns

	transfer, err := scanTransfer(tx.QueryRow(ctx, query,
		uuid.New(), params.WorkOrderID, params.FromUserID, params.ToUserID,
		currentStateID, params.ToStateID, params.Note,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert transfer: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE work_orders SET job_state_id = $2, assigned_tech_id = $3, updated_at = now() WHERE id = $1`,
		params.WorkOrderID, params.ToStateID, params.ToUserID,
	); err != nil {
		return nil, fmt.Errorf("failed to move work order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return &transfer, nil
}

// AcceptTransfer stamps accepted_at exactly once. The guarded update makes a
// concurrent double-accept observe zero affected rows; the loser gets a
// conflict, never a silent double-apply.
func (r *Repository) AcceptTransfer(ctx context.Context, transferID, workOrderID uuid.UUID) (*Transfer, error) {
	query := `
		UPDATE job_transfers SET accepted_at = now()
		WHERE id = $1 AND work_order_id = $2 AND accepted_at IS NULL
		RETURNING ` + transferColumns

	transfer, err := scanTransfer(r.pool.QueryRow(ctx, query, transferID, workOrderID))
	if err == nil {
		return &transfer, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to accept transfer: %w", err)
	}

	// Distinguish missing from already-accepted.
	var acceptedAt *time.Time
	err = r.pool.QueryRow(ctx,
		`SELECT accepted_at FROM job_transfers WHERE id = $1 AND work_order_id = $2`,
		transferID, workOrderID,
	).Scan(&acceptedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("transfer not found")
		}
		return nil, fmt.Errorf("failed to check transfer: %w", err)
	}
	return nil, apperr.Conflict("transfer already accepted")
}

// ListTransfers retrieves a work order's handoff history, newest first.
func (r *Repository) ListTransfers(ctx context.Context, workOrderID uuid.UUID) ([]Transfer, error) {
	query := `SELECT ` + transferColumns + `
		FROM job_transfers WHERE work_order_id = $1 ORDER BY transferred_at DESC`
	return r.queryTransfers(ctx, query, workOrderID)
}

// ListPendingTransfersFor retrieves unaccepted transfers addressed to the
// given technician, oldest first.
func (r *Repository) ListPendingTransfersFor(ctx context.Context, userID uuid.UUID) ([]Transfer, error) {
	query := `SELECT ` + transferColumns + `
		FROM job_transfers WHERE to_user_id = $1 AND accepted_at IS NULL
		ORDER BY transferred_at ASC`
	return r.queryTransfers(ctx, query, userID)
}

func (r *Repository) queryTransfers(ctx context.Context, query string, args ...any) ([]Transfer, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfers: %w", err)
	}
	defer rows.Close()

	var transfers []Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		transfers = append(transfers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transfers: %w", err)
	}
	return transfers, nil
}

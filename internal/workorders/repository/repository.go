// Package repository provides data access for work orders, transfers,
// invoice lifecycle writes and the payment ledger.
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

// WorkOrder is the database model for a shop job. Only the lifecycle fields
// are managed here; intake data (complaint, odometer, photos) lives with the
// out-of-scope CRUD surface.
type WorkOrder struct {
	ID              uuid.UUID  `db:"id"`
	CustomerID      uuid.UUID  `db:"customer_id"`
	VehicleID       uuid.UUID  `db:"vehicle_id"`
	JobStateID      uuid.UUID  `db:"job_state_id"`
	AssignedTechID  *uuid.UUID `db:"assigned_tech_id"`
	InvoiceStatus   string     `db:"invoice_status"`
	TotalCents      int64      `db:"total_cents"`
	AmountPaidCents int64      `db:"amount_paid_cents"`
	ClosedAt        *time.Time `db:"closed_at"`
	ClosedBy        *uuid.UUID `db:"closed_by"`
	VoidedAt        *time.Time `db:"voided_at"`
	VoidedBy        *uuid.UUID `db:"voided_by"`
	VoidReason      *string    `db:"void_reason"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
	DeletedAt       *time.Time `db:"deleted_at"`
}

const workOrderNotFoundMsg = "work order not found"

const workOrderColumns = `id, customer_id, vehicle_id, job_state_id, assigned_tech_id,
		invoice_status, total_cents, amount_paid_cents, closed_at, closed_by,
		voided_at, voided_by, void_reason, created_at, updated_at, deleted_at`

// Repository provides database operations for the work order lifecycle.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new work orders repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanWorkOrder(row pgx.Row) (WorkOrder, error) {
	var wo WorkOrder
	err := row.Scan(
		&wo.ID, &wo.CustomerID, &wo.VehicleID, &wo.JobStateID, &wo.AssignedTechID,
		&wo.InvoiceStatus, &wo.TotalCents, &wo.AmountPaidCents, &wo.ClosedAt, &wo.ClosedBy,
		&wo.VoidedAt, &wo.VoidedBy, &wo.VoidReason, &wo.CreatedAt, &wo.UpdatedAt, &wo.DeletedAt,
	)
	return wo, err
}

// GetByID retrieves an active (undeleted) work order.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*WorkOrder, error) {
	query := `SELECT ` + workOrderColumns + ` FROM work_orders WHERE id = $1 AND deleted_at IS NULL`
	wo, err := scanWorkOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(workOrderNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get work order: %w", err)
	}
	return &wo, nil
}

// List retrieves active work orders, optionally filtered by job state or
// assigned technician, newest first.
func (r *Repository) List(ctx context.Context, jobStateID, assignedTechID *uuid.UUID, limit, offset int) ([]WorkOrder, error) {
	query := `SELECT ` + workOrderColumns + ` FROM work_orders WHERE deleted_at IS NULL`
	args := []any{}
	idx := 1
	if jobStateID != nil {
		query += fmt.Sprintf(" AND job_state_id = $%d", idx)
		args = append(args, *jobStateID)
		idx++
	}
	if assignedTechID != nil {
		query += fmt.Sprintf(" AND assigned_tech_id = $%d", idx)
		args = append(args, *assignedTechID)
		idx++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query work orders: %w", err)
	}
	defer rows.Close()

	var orders []WorkOrder
	for rows.Next() {
		wo, err := scanWorkOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work order: %w", err)
		}
		orders = append(orders, wo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate work orders: %w", err)
	}
	return orders, nil
}

// UserIsActive reports whether the given user exists and is active.
func (r *Repository) UserIsActive(ctx context.Context, userID uuid.UUID) (bool, error) {
	var active bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND is_active)`
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&active); err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return active, nil
}

// HardDelete permanently removes a work order. Recommendations approved
// against it are released (approved_by_work_order_id cleared) in the same
// transaction so no dangling reference survives.
func (r *Repository) HardDelete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE vehicle_recommendations SET approved_by_work_order_id = NULL, updated_at = now()
		 WHERE approved_by_work_order_id = $1`, id); err != nil {
		return fmt.Errorf("failed to release recommendations: %w", err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM work_orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete work order: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(workOrderNotFoundMsg)
	}

	return tx.Commit(ctx)
}

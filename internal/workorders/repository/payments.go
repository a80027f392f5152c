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

// Payment is an append-only ledger row. Never mutated or deleted.
type Payment struct {
	ID                 uuid.UUID `db:"id"`
	WorkOrderID        uuid.UUID `db:"work_order_id"`
	AmountCents        int64     `db:"amount_cents"`
	PaymentMethod      string    `db:"payment_method"`
	CardSurchargeCents int64     `db:"card_surcharge_cents"`
	CardSurchargeRate  float64   `db:"card_surcharge_rate"`
	PaidAt             time.Time `db:"paid_at"`
	RecordedBy         uuid.UUID `db:"recorded_by"`
	Notes              *string   `db:"notes"`
}

// RecordPaymentParams contains data for appending a payment.
type RecordPaymentParams struct {
	WorkOrderID        uuid.UUID
	AmountCents        int64
	PaymentMethod      string
	CardSurchargeCents int64
	CardSurchargeRate  float64
	RecordedBy         uuid.UUID
	Notes              *string
	// PromoteToPaid moves the invoice to paid when the new ledger sum covers
	// the total. Only set for orders that were invoice_closed.
	PromoteToPaid bool
	TotalCents    int64
}

// RecordPaymentResult carries the appended row plus the recomputed order
// figures.
type RecordPaymentResult struct {
	Payment         Payment
	AmountPaidCents int64
	InvoiceStatus   string
	FullyPaid       bool
}

const paymentColumns = `id, work_order_id, amount_cents, payment_method,
		card_surcharge_cents, card_surcharge_rate, paid_at, recorded_by, notes`

func scanPayment(row pgx.Row) (Payment, error) {
	var p Payment
	err := row.Scan(
		&p.ID, &p.WorkOrderID, &p.AmountCents, &p.PaymentMethod,
		&p.CardSurchargeCents, &p.CardSurchargeRate, &p.PaidAt, &p.RecordedBy, &p.Notes,
	)
	return p, err
}

// ListPayments retrieves a work order's ledger, oldest first.
func (r *Repository) ListPayments(ctx context.Context, workOrderID uuid.UUID) ([]Payment, error) {
	query := `SELECT ` + paymentColumns + `
		FROM payments WHERE work_order_id = $1 ORDER BY paid_at ASC`

	rows, err := r.pool.Query(ctx, query, workOrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}

// checkBalance rejects a payment that would push the ledger sum past the
// order total. Runs inside the payment transaction with the work order row
// locked, so two concurrent payments cannot both pass against a stale sum.
func checkBalance(totalCents, existingSumCents, amountCents int64) error {
	if amountCents > totalCents-existingSumCents {
		return apperr.Validation("payment amount exceeds balance due")
	}
	return nil
}

// RecordPayment appends the ledger row, recomputes amount_paid_cents from the
// full ledger, and promotes a closed invoice to paid when the sum covers the
// total. One transaction; any failure rolls the whole thing back.
func (r *Repository) RecordPayment(ctx context.Context, params RecordPaymentParams) (*RecordPaymentResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Serialize concurrent payments against the same order.
	var currentStatus string
	err = tx.QueryRow(ctx,
		`SELECT invoice_status FROM work_orders WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`,
		params.WorkOrderID,
	).Scan(&currentStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(workOrderNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to lock work order: %w", err)
	}
	if currentStatus == "voided" {
		return nil, apperr.BadRequest("cannot record a payment against a voided invoice")
	}

	// Re-check the balance under the lock. The service's pre-flight check
	// ran against a ledger sum that a concurrent payment may have grown
	// since; only this sum is authoritative.
	var existingSum int64
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM payments WHERE work_order_id = $1`,
		params.WorkOrderID,
	).Scan(&existingSum)
	if err != nil {
		return nil, fmt.Errorf("failed to sum payments: %w", err)
	}
	if err := checkBalance(params.TotalCents, existingSum, params.AmountCents); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO payments (id, work_order_id, amount_cents, payment_method,
			card_surcharge_cents, card_surcharge_rate, paid_at, recorded_by, notes)
		VALUES ($1, $2, $3, $4, $5, $6, now(), $7, $8)
		RETURNING ` + paymentColumns

	payment, err := scanPayment(tx.QueryRow(ctx, query,
		uuid.New(), params.WorkOrderID, params.AmountCents, params.PaymentMethod,
		params.CardSurchargeCents, params.CardSurchargeRate, params.RecordedBy, params.Notes,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert payment: %w", err)
	}

	amountPaid := existingSum + params.AmountCents
	fullyPaid := amountPaid >= params.TotalCents
	status := currentStatus
	if params.PromoteToPaid && currentStatus == "invoice_closed" && fullyPaid {
		status = "paid"
	}

	if _, err := tx.Exec(ctx,
		`UPDATE work_orders SET amount_paid_cents = $2, invoice_status = $3, updated_at = now() WHERE id = $1`,
		params.WorkOrderID, amountPaid, status,
	); err != nil {
		return nil, fmt.Errorf("failed to update work order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	return &RecordPaymentResult{
		Payment:         payment,
		AmountPaidCents: amountPaid,
		InvoiceStatus:   status,
		FullyPaid:       fullyPaid,
	}, nil
}

// ShopSettings is the surcharge configuration snapshot read at payment time.
type ShopSettings struct {
	SurchargeEnabled bool    `db:"card_surcharge_enabled"`
	SurchargeRate    float64 `db:"card_surcharge_rate"`
}

// GetShopSettings reads the single shop settings row.
func (r *Repository) GetShopSettings(ctx context.Context) (*ShopSettings, error) {
	var s ShopSettings
	err := r.pool.QueryRow(ctx,
		`SELECT card_surcharge_enabled, card_surcharge_rate FROM shop_settings LIMIT 1`,
	).Scan(&s.SurchargeEnabled, &s.SurchargeRate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// No settings row yet: surcharging is off.
			return &ShopSettings{}, nil
		}
		return nil, fmt.Errorf("failed to get shop settings: %w", err)
	}
	return &s, nil
}

package service

import (
	"math"

	"workshop_backend/platform/apperr"
)

// Payment methods accepted by the ledger.
const (
	MethodCash  = "cash"
	MethodCard  = "card"
	MethodCheck = "check"
	MethodACH   = "ach"
)

// SurchargeSettings is the shop's surcharge configuration, passed in as an
// explicit snapshot so historical payments stay reproducible when the shop
// later changes its settings.
type SurchargeSettings struct {
	Enabled bool
	Rate    float64
}

// ValidateAddPayment checks a prospective payment against the order's
// lifecycle and balance. No overpayment concept exists: the amount must not
// exceed the remaining balance.
func ValidateAddPayment(status string, totalCents, existingSumCents, amountCents int64) error {
	if status == StatusVoided {
		return apperr.BadRequest("cannot record a payment against a voided invoice")
	}
	if amountCents <= 0 {
		return apperr.Validation("payment amount must be positive")
	}
	if balance := totalCents - existingSumCents; amountCents > balance {
		return apperr.Validation("payment amount exceeds balance due")
	}
	return nil
}

// ComputeCardSurcharge returns the surcharge in cents for a payment. Only
// card payments with surcharging enabled carry one; the effective rate used
// is returned alongside so it can be stored as a snapshot on the row.
func ComputeCardSurcharge(method string, amountCents int64, settings SurchargeSettings) (surchargeCents int64, rate float64) {
	if method != MethodCard || !settings.Enabled || settings.Rate <= 0 {
		return 0, 0
	}
	return int64(math.Round(float64(amountCents) * settings.Rate)), settings.Rate
}

// IsFullyPaid reports whether the payment sum covers the total. Surcharges
// are excluded from the comparison.
func IsFullyPaid(totalCents int64, paymentAmountsCents []int64) bool {
	var sum int64
	for _, amount := range paymentAmountsCents {
		sum += amount
	}
	return sum >= totalCents
}

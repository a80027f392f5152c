package service

import (
	"strings"
	"time"

	"workshop_backend/platform/apperr"
)

// Invoice statuses. The financial lifecycle is independent of the job state
// graph: a work order can sit in any workflow stage with any invoice status.
const (
	StatusEstimate      = "estimate"
	StatusInvoiceOpen   = "invoice_open"
	StatusInvoiceClosed = "invoice_closed"
	StatusPaid          = "paid"
	StatusVoided        = "voided"
)

// Close date policies accepted when reopening a closed invoice.
const (
	CloseDateKeepOriginal = "keepOriginal"
	CloseDateUseCurrent   = "useCurrent"
	CloseDateCustom       = "custom"
)

// invoiceTransitions is the full transition table. paid and voided are
// terminal. A work order with no prior status may only initialize to
// estimate.
var invoiceTransitions = map[string][]string{
	"":                  {StatusEstimate},
	StatusEstimate:      {StatusInvoiceOpen, StatusVoided},
	StatusInvoiceOpen:   {StatusInvoiceClosed, StatusEstimate, StatusVoided},
	StatusInvoiceClosed: {StatusPaid, StatusInvoiceOpen, StatusVoided},
	StatusPaid:          {},
	StatusVoided:        {},
}

// CanTransition reports whether the invoice status may move from one value
// to another.
func CanTransition(from, to string) bool {
	for _, allowed := range invoiceTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidateClose checks that an invoice may be closed: it must currently be
// open (or still an estimate) and carry a nonzero total.
func ValidateClose(status string, totalCents int64) error {
	if status != StatusInvoiceOpen && status != StatusEstimate {
		return apperr.BadRequest("invoice is not open and cannot be closed")
	}
	if totalCents <= 0 {
		return apperr.BadRequest("cannot close an invoice with a zero total")
	}
	return nil
}

// ReopenInput is the caller-supplied data for reopening a closed invoice.
type ReopenInput struct {
	Reason          string
	CloseDateOption string
	CustomCloseDate *time.Time
}

// managerialRoles may reopen closed invoices.
var managerialRoles = map[string]struct{}{
	"Manager": {},
	"Owner":   {},
}

// ValidateReopen checks that a closed invoice may be reopened by the caller
// and normalizes the close date policy. Only Managers and Owners may reopen,
// a reason is mandatory, and paid invoices are off limits: money already
// changed hands, so the invoice must be voided and recreated instead.
func ValidateReopen(status string, callerRoles []string, input ReopenInput) (ReopenInput, error) {
	if status == StatusPaid {
		return input, apperr.BadRequest("paid invoices cannot be reopened; void and recreate the invoice instead")
	}
	if status != StatusInvoiceClosed {
		return input, apperr.BadRequest("only closed invoices can be reopened")
	}

	allowed := false
	for _, role := range callerRoles {
		if _, ok := managerialRoles[role]; ok {
			allowed = true
			break
		}
	}
	if !allowed {
		return input, apperr.Forbidden("reopening an invoice requires the Manager or Owner role")
	}

	if strings.TrimSpace(input.Reason) == "" {
		return input, apperr.Validation("a reopen reason is required")
	}

	switch input.CloseDateOption {
	case "":
		input.CloseDateOption = CloseDateKeepOriginal
	case CloseDateKeepOriginal, CloseDateUseCurrent:
	case CloseDateCustom:
		if input.CustomCloseDate == nil {
			return input, apperr.Validation("a custom close date is required for the custom option")
		}
	default:
		return input, apperr.Validation("close date option must be keepOriginal, useCurrent or custom")
	}

	return input, nil
}

// ResolveCloseDate returns the effective close date for a reopen under the
// given policy; nil means the original closed_at stays as is.
func ResolveCloseDate(input ReopenInput, now time.Time) *time.Time {
	switch input.CloseDateOption {
	case CloseDateUseCurrent:
		return &now
	case CloseDateCustom:
		return input.CustomCloseDate
	default:
		return nil
	}
}

// ValidateVoid checks that an invoice may be voided. Orders with money in
// the ledger must have payments reversed out-of-band first.
func ValidateVoid(status string, paymentSumCents int64, reason string) error {
	if !CanTransition(status, StatusVoided) {
		if status == StatusPaid {
			return apperr.BadRequest("paid invoices cannot be voided")
		}
		return apperr.BadRequest("invoice is already voided")
	}
	if paymentSumCents != 0 {
		return apperr.BadRequest("invoice has payments; reverse them before voiding")
	}
	if strings.TrimSpace(reason) == "" {
		return apperr.Validation("a void reason is required")
	}
	return nil
}

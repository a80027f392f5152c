package service

import (
	"errors"
	"testing"
	"time"

	"workshop_backend/platform/apperr"
)

func kindOf(t *testing.T, err error) apperr.Kind {
	t.Helper()
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperr.Error, got %T: %v", err, err)
	}
	return appErr.Kind
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"initialize to estimate", "", StatusEstimate, true},
		{"initialize to open", "", StatusInvoiceOpen, false},
		{"estimate to open", StatusEstimate, StatusInvoiceOpen, true},
		{"estimate to voided", StatusEstimate, StatusVoided, true},
		{"estimate to paid", StatusEstimate, StatusPaid, false},
		{"open to closed", StatusInvoiceOpen, StatusInvoiceClosed, true},
		{"open back to estimate", StatusInvoiceOpen, StatusEstimate, true},
		{"closed to paid", StatusInvoiceClosed, StatusPaid, true},
		{"closed back to open", StatusInvoiceClosed, StatusInvoiceOpen, true},
		{"closed to voided", StatusInvoiceClosed, StatusVoided, true},
		{"paid is terminal", StatusPaid, StatusInvoiceOpen, false},
		{"paid to voided", StatusPaid, StatusVoided, false},
		{"voided is terminal", StatusVoided, StatusEstimate, false},
		{"voided to paid", StatusVoided, StatusPaid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestValidateClose(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		totalCents int64
		wantKind   apperr.Kind
		wantOK     bool
	}{
		{"open with total", StatusInvoiceOpen, 10000, 0, true},
		{"estimate with total", StatusEstimate, 5000, 0, true},
		{"zero total", StatusInvoiceOpen, 0, apperr.KindBadRequest, false},
		{"negative total", StatusInvoiceOpen, -100, apperr.KindBadRequest, false},
		{"already closed", StatusInvoiceClosed, 10000, apperr.KindBadRequest, false},
		{"paid", StatusPaid, 10000, apperr.KindBadRequest, false},
		{"voided", StatusVoided, 10000, apperr.KindBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateClose(tt.status, tt.totalCents)
			if tt.wantOK {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected an error")
			}
			if kind := kindOf(t, err); kind != tt.wantKind {
				t.Errorf("error kind = %v, want %v", kind, tt.wantKind)
			}
		})
	}
}

func TestValidateReopen(t *testing.T) {
	manager := []string{"Manager"}
	validInput := ReopenInput{Reason: "customer disputed a line item"}

	tests := []struct {
		name     string
		status   string
		roles    []string
		input    ReopenInput
		wantKind apperr.Kind
		wantOK   bool
	}{
		{"closed by manager", StatusInvoiceClosed, manager, validInput, 0, true},
		{"closed by owner", StatusInvoiceClosed, []string{"Owner"}, validInput, 0, true},
		{"paid cannot reopen", StatusPaid, manager, validInput, apperr.KindBadRequest, false},
		{"open cannot reopen", StatusInvoiceOpen, manager, validInput, apperr.KindBadRequest, false},
		{"mechanic forbidden", StatusInvoiceClosed, []string{"Mechanic"}, validInput, apperr.KindForbidden, false},
		{"no roles forbidden", StatusInvoiceClosed, nil, validInput, apperr.KindForbidden, false},
		{"missing reason", StatusInvoiceClosed, manager, ReopenInput{Reason: "  "}, apperr.KindValidation, false},
		{"bad close date option", StatusInvoiceClosed, manager, ReopenInput{Reason: "x", CloseDateOption: "whenever"}, apperr.KindValidation, false},
		{"custom without date", StatusInvoiceClosed, manager, ReopenInput{Reason: "x", CloseDateOption: CloseDateCustom}, apperr.KindValidation, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateReopen(tt.status, tt.roles, tt.input)
			if tt.wantOK {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got.CloseDateOption != CloseDateKeepOriginal {
					t.Errorf("default close date option = %q, want %q", got.CloseDateOption, CloseDateKeepOriginal)
				}
				return
			}
			if err == nil {
				t.Fatal("expected an error")
			}
			if kind := kindOf(t, err); kind != tt.wantKind {
				t.Errorf("error kind = %v, want %v", kind, tt.wantKind)
			}
		})
	}
}

func TestResolveCloseDate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	custom := now.AddDate(0, 0, -3)

	if got := ResolveCloseDate(ReopenInput{CloseDateOption: CloseDateKeepOriginal}, now); got != nil {
		t.Errorf("keepOriginal should resolve to nil, got %v", got)
	}
	if got := ResolveCloseDate(ReopenInput{CloseDateOption: CloseDateUseCurrent}, now); got == nil || !got.Equal(now) {
		t.Errorf("useCurrent = %v, want %v", got, now)
	}
	if got := ResolveCloseDate(ReopenInput{CloseDateOption: CloseDateCustom, CustomCloseDate: &custom}, now); got == nil || !got.Equal(custom) {
		t.Errorf("custom = %v, want %v", got, custom)
	}
}

func TestValidateVoid(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		paymentSum int64
		reason     string
		wantKind   apperr.Kind
		wantOK     bool
	}{
		{"open with reason", StatusInvoiceOpen, 0, "duplicate entry", 0, true},
		{"estimate with reason", StatusEstimate, 0, "created in error", 0, true},
		{"closed with reason", StatusInvoiceClosed, 0, "wrong customer", 0, true},
		{"already voided", StatusVoided, 0, "x", apperr.KindBadRequest, false},
		{"paid", StatusPaid, 0, "x", apperr.KindBadRequest, false},
		{"has payments", StatusInvoiceClosed, 5000, "x", apperr.KindBadRequest, false},
		{"missing reason", StatusInvoiceOpen, 0, "   ", apperr.KindValidation, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVoid(tt.status, tt.paymentSum, tt.reason)
			if tt.wantOK {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected an error")
			}
			if kind := kindOf(t, err); kind != tt.wantKind {
				t.Errorf("error kind = %v, want %v", kind, tt.wantKind)
			}
		})
	}
}

func TestValidateVoidFollowsTransitionTable(t *testing.T) {
	statuses := []string{StatusEstimate, StatusInvoiceOpen, StatusInvoiceClosed, StatusPaid, StatusVoided}
	for _, status := range statuses {
		err := ValidateVoid(status, 0, "reason")
		if CanTransition(status, StatusVoided) != (err == nil) {
			t.Errorf("ValidateVoid(%q) = %v, disagrees with transition table", status, err)
		}
	}
}

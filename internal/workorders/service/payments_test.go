package service

import (
	"testing"

	"workshop_backend/platform/apperr"
)

func TestValidateAddPayment(t *testing.T) {
	tests := []struct {
		name        string
		status      string
		totalCents  int64
		existingSum int64
		amountCents int64
		wantKind    apperr.Kind
		wantOK      bool
	}{
		{"exact remainder", StatusInvoiceClosed, 10000, 8000, 2000, 0, true},
		{"under remainder", StatusInvoiceClosed, 10000, 8000, 1500, 0, true},
		{"exceeds balance", StatusInvoiceClosed, 10000, 8000, 2500, apperr.KindValidation, false},
		{"zero amount", StatusInvoiceOpen, 10000, 0, 0, apperr.KindValidation, false},
		{"negative amount", StatusInvoiceOpen, 10000, 0, -500, apperr.KindValidation, false},
		{"voided order", StatusVoided, 10000, 0, 1000, apperr.KindBadRequest, false},
		{"open accumulates", StatusInvoiceOpen, 10000, 0, 10000, 0, true},
		{"paid order has no balance", StatusPaid, 10000, 10000, 100, apperr.KindValidation, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddPayment(tt.status, tt.totalCents, tt.existingSum, tt.amountCents)
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

func TestValidateAddPaymentThenFullyPaid(t *testing.T) {
	// total 100.00, existing payments sum to 80.00
	existing := []int64{5000, 3000}
	var existingSum int64
	for _, a := range existing {
		existingSum += a
	}

	if err := ValidateAddPayment(StatusInvoiceClosed, 10000, existingSum, 2500); err == nil {
		t.Fatal("paying 25.00 against a 20.00 balance should fail")
	}
	if err := ValidateAddPayment(StatusInvoiceClosed, 10000, existingSum, 2000); err != nil {
		t.Fatalf("paying the exact 20.00 balance should succeed: %v", err)
	}
	if !IsFullyPaid(10000, append(existing, 2000)) {
		t.Error("order should be fully paid after the final 20.00 payment")
	}
}

func TestComputeCardSurcharge(t *testing.T) {
	enabled := SurchargeSettings{Enabled: true, Rate: 0.03}

	tests := []struct {
		name          string
		method        string
		amountCents   int64
		settings      SurchargeSettings
		wantSurcharge int64
		wantRate      float64
	}{
		{"card with surcharging on", MethodCard, 10000, enabled, 300, 0.03},
		{"card rounds to nearest cent", MethodCard, 1333, enabled, 40, 0.03},
		{"cash never surcharges", MethodCash, 10000, enabled, 0, 0},
		{"check never surcharges", MethodCheck, 10000, enabled, 0, 0},
		{"ach never surcharges", MethodACH, 10000, enabled, 0, 0},
		{"card with surcharging off", MethodCard, 10000, SurchargeSettings{Enabled: false, Rate: 0.03}, 0, 0},
		{"card with zero rate", MethodCard, 10000, SurchargeSettings{Enabled: true, Rate: 0}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			surcharge, rate := ComputeCardSurcharge(tt.method, tt.amountCents, tt.settings)
			if surcharge != tt.wantSurcharge {
				t.Errorf("surcharge = %d, want %d", surcharge, tt.wantSurcharge)
			}
			if rate != tt.wantRate {
				t.Errorf("rate = %v, want %v", rate, tt.wantRate)
			}
		})
	}
}

func TestIsFullyPaid(t *testing.T) {
	tests := []struct {
		name       string
		totalCents int64
		amounts    []int64
		want       bool
	}{
		{"exact", 10000, []int64{6000, 4000}, true},
		{"over", 10000, []int64{6000, 5000}, true},
		{"under", 10000, []int64{6000, 3000}, false},
		{"no payments", 10000, nil, false},
		{"zero total", 0, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFullyPaid(tt.totalCents, tt.amounts); got != tt.want {
				t.Errorf("IsFullyPaid(%d, %v) = %v, want %v", tt.totalCents, tt.amounts, got, tt.want)
			}
		})
	}
}

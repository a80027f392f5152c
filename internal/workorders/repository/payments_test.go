package repository

import (
	"errors"
	"testing"

	"workshop_backend/platform/apperr"
)

func TestCheckBalance(t *testing.T) {
	tests := []struct {
		name        string
		totalCents  int64
		existingSum int64
		amountCents int64
		wantErr     bool
	}{
		{name: "exact remainder", totalCents: 10000, existingSum: 8000, amountCents: 2000, wantErr: false},
		{name: "under remainder", totalCents: 10000, existingSum: 8000, amountCents: 1500, wantErr: false},
		{name: "exceeds remainder", totalCents: 10000, existingSum: 8000, amountCents: 2500, wantErr: true},
		{name: "empty ledger full amount", totalCents: 10000, existingSum: 0, amountCents: 10000, wantErr: false},
		{name: "fully paid order", totalCents: 10000, existingSum: 10000, amountCents: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkBalance(tt.totalCents, tt.existingSum, tt.amountCents)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				var appErr *apperr.Error
				if !errors.As(err, &appErr) || appErr.Kind != apperr.KindValidation {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

// Two writers racing the same order both read an empty ledger before their
// transactions begin. The row lock serializes them; the second must see the
// first writer's row in the under-lock sum and get rejected.
func TestCheckBalanceSerializedWriters(t *testing.T) {
	const total = int64(10000)
	const amount = int64(6000)

	if err := checkBalance(total, 0, amount); err != nil {
		t.Fatalf("first writer should pass: %v", err)
	}
	if err := checkBalance(total, amount, amount); err == nil {
		t.Fatal("second writer should be rejected against the committed sum")
	}
}

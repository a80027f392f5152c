package repository

import "testing"

func TestEstimateWorkflowFrozen(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"estimate", false},
		{"invoice_open", false},
		{"invoice_closed", true},
		{"paid", true},
		{"voided", true},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := estimateWorkflowFrozen(tt.status); got != tt.want {
				t.Errorf("estimateWorkflowFrozen(%q) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

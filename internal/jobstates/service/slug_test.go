package service

import "testing"

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple name", "Intake", "intake"},
		{"spaces become underscores", "Waiting For Parts", "waiting_for_parts"},
		{"punctuation collapses", "Ready -- Pickup!", "ready_pickup"},
		{"mixed case", "QualityCheck", "qualitycheck"},
		{"digits kept", "Bay 2", "bay_2"},
		{"leading symbols trimmed", "  *Done*  ", "done"},
		{"consecutive separators", "a___b", "a_b"},
		{"only symbols", "!!!", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GenerateSlug(tt.input); got != tt.want {
				t.Errorf("GenerateSlug(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

package service

import (
	"errors"
	"testing"
	"time"

	"workshop_backend/internal/estimates/repository"
	"workshop_backend/platform/apperr"

	"github.com/google/uuid"
)

func kindOf(t *testing.T, err error) apperr.Kind {
	t.Helper()
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperr.Error, got %T: %v", err, err)
	}
	return appErr.Kind
}

func TestValidateToken(t *testing.T) {
	if err := ValidateToken("short"); err == nil {
		t.Error("short token should be rejected")
	} else if kindOf(t, err) != apperr.KindValidation {
		t.Errorf("short token kind = %v, want validation", kindOf(t, err))
	}
	if err := ValidateToken(""); err == nil {
		t.Error("empty token should be rejected")
	}
	if err := ValidateToken("dGhpcy1pcy1sb25nLWVub3VnaC10by1wYXNz"); err != nil {
		t.Errorf("plausible token rejected: %v", err)
	}
}

func TestCheckExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if err := CheckExpiry(now.Add(time.Hour), now); err != nil {
		t.Errorf("unexpired estimate rejected: %v", err)
	}
	err := CheckExpiry(now.Add(-time.Minute), now)
	if err == nil {
		t.Fatal("expired estimate should fail")
	}
	if kindOf(t, err) != apperr.KindGone {
		t.Errorf("expired kind = %v, want gone", kindOf(t, err))
	}
}

func makeRecommendation(status string, costCents int64, explanation *string) repository.Recommendation {
	return repository.Recommendation{
		ID:                  uuid.New(),
		VehicleID:           uuid.New(),
		Title:               "Brake pad replacement",
		CustomerExplanation: explanation,
		EstimatedCostCents:  costCents,
		Status:              status,
	}
}

func TestSelectCandidates(t *testing.T) {
	waiting := makeRecommendation(RecAwaitingApproval, 5000, nil)
	sent := makeRecommendation(RecSentToCustomer, 7500, nil)
	all := []repository.Recommendation{waiting, sent}

	t.Run("keeps only awaiting approval", func(t *testing.T) {
		got, err := SelectCandidates(all, []uuid.UUID{waiting.ID, sent.ID})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || got[0].ID != waiting.ID {
			t.Errorf("expected only the awaiting recommendation, got %d", len(got))
		}
	})

	t.Run("no valid candidates", func(t *testing.T) {
		_, err := SelectCandidates(all, []uuid.UUID{sent.ID})
		if err == nil {
			t.Fatal("expected an error")
		}
		if kindOf(t, err) != apperr.KindValidation {
			t.Errorf("kind = %v, want validation", kindOf(t, err))
		}
	})

	t.Run("unknown ids ignored", func(t *testing.T) {
		_, err := SelectCandidates(all, []uuid.UUID{uuid.New()})
		if err == nil {
			t.Fatal("expected an error for unknown ids")
		}
	})
}

func TestBuildLines(t *testing.T) {
	custom := "Your brake pads are below 2mm."
	withText := makeRecommendation(RecAwaitingApproval, 5000, &custom)
	withoutText := makeRecommendation(RecAwaitingApproval, 7500, nil)

	lines := BuildLines([]repository.Recommendation{withText, withoutText})
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0].CustomerExplanation != custom {
		t.Errorf("explanation = %q, want the recommendation's own text", lines[0].CustomerExplanation)
	}
	if lines[1].CustomerExplanation != fallbackExplanation {
		t.Errorf("explanation = %q, want the generic fallback", lines[1].CustomerExplanation)
	}
	if lines[1].EstimatedCostCents != 7500 {
		t.Errorf("cost carried over = %d, want 7500", lines[1].EstimatedCostCents)
	}
}

func TestTotalCents(t *testing.T) {
	recs := []repository.Recommendation{
		makeRecommendation(RecAwaitingApproval, 5000, nil),
		makeRecommendation(RecAwaitingApproval, 7500, nil),
	}
	if got := TotalCents(recs); got != 12500 {
		t.Errorf("TotalCents = %d, want 12500", got)
	}
	if got := TotalCents(nil); got != 0 {
		t.Errorf("TotalCents(nil) = %d, want 0", got)
	}
}

func makeService(costCents int64) repository.EstimateService {
	recID := uuid.New()
	return repository.EstimateService{
		ID:                 uuid.New(),
		EstimateID:         uuid.New(),
		RecommendationID:   &recID,
		ServiceTitle:       "Service",
		EstimatedCostCents: costCents,
		Status:             "pending",
	}
}

func TestPlanResponse(t *testing.T) {
	cheap := makeService(5000)
	pricey := makeService(7500)
	services := []repository.EstimateService{cheap, pricey}

	t.Run("partial approval", func(t *testing.T) {
		plan := PlanResponse(services, []uuid.UUID{cheap.ID}, nil)
		if plan.Status != EstimatePartiallyApproved {
			t.Errorf("status = %q, want %q", plan.Status, EstimatePartiallyApproved)
		}
		if plan.ApprovedAmountCents != 5000 {
			t.Errorf("approved amount = %d, want 5000", plan.ApprovedAmountCents)
		}
		if plan.ApprovedCount != 1 || plan.DeclinedCount != 1 {
			t.Errorf("counts = %d/%d, want 1/1", plan.ApprovedCount, plan.DeclinedCount)
		}
		for _, d := range plan.Decisions {
			if d.ServiceID == pricey.ID {
				if d.Approved {
					t.Error("the pricey service should be declined")
				}
				if d.DeclineReason != DefaultDeclineReason {
					t.Errorf("decline reason = %q, want default", d.DeclineReason)
				}
			}
		}
	})

	t.Run("full approval", func(t *testing.T) {
		plan := PlanResponse(services, []uuid.UUID{cheap.ID, pricey.ID}, nil)
		if plan.Status != EstimateApproved {
			t.Errorf("status = %q, want %q", plan.Status, EstimateApproved)
		}
		if plan.ApprovedAmountCents != 12500 {
			t.Errorf("approved amount = %d, want 12500", plan.ApprovedAmountCents)
		}
	})

	t.Run("full decline", func(t *testing.T) {
		plan := PlanResponse(services, nil, nil)
		if plan.Status != EstimateDeclined {
			t.Errorf("status = %q, want %q", plan.Status, EstimateDeclined)
		}
		if plan.ApprovedAmountCents != 0 {
			t.Errorf("approved amount = %d, want 0", plan.ApprovedAmountCents)
		}
	})

	t.Run("caller decline reasons win over the default", func(t *testing.T) {
		reasons := map[uuid.UUID]string{pricey.ID: "Doing it myself"}
		plan := PlanResponse(services, []uuid.UUID{cheap.ID}, reasons)
		for _, d := range plan.Decisions {
			if d.ServiceID == pricey.ID && d.DeclineReason != "Doing it myself" {
				t.Errorf("decline reason = %q, want the caller's", d.DeclineReason)
			}
		}
	})

	t.Run("unknown approved ids are ignored", func(t *testing.T) {
		plan := PlanResponse(services, []uuid.UUID{uuid.New()}, nil)
		if plan.Status != EstimateDeclined {
			t.Errorf("status = %q, want %q", plan.Status, EstimateDeclined)
		}
	})
}

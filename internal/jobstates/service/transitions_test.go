package service

import (
	"testing"

	"workshop_backend/internal/jobstates/repository"

	"github.com/google/uuid"
)

func makeTransition(from *uuid.UUID, to uuid.UUID, roles ...string) repository.Transition {
	return repository.Transition{
		ID:           uuid.New(),
		FromStateID:  from,
		ToStateID:    to,
		AllowedRoles: roles,
	}
}

func TestFilterTransitionsByRole(t *testing.T) {
	stateA := uuid.New()
	stateB := uuid.New()
	stateC := uuid.New()

	open := makeTransition(nil, stateA)
	mechanicOnly := makeTransition(nil, stateB, "Mechanic")
	managerOrOwner := makeTransition(nil, stateC, "Manager", "Owner")
	all := []repository.Transition{open, mechanicOnly, managerOrOwner}

	tests := []struct {
		name  string
		roles []string
		want  []uuid.UUID
	}{
		{"nil roles bypass gating", nil, []uuid.UUID{stateA, stateB, stateC}},
		{"empty roles only see unrestricted", []string{}, []uuid.UUID{stateA}},
		{"mechanic", []string{"Mechanic"}, []uuid.UUID{stateA, stateB}},
		{"manager", []string{"Manager"}, []uuid.UUID{stateA, stateC}},
		{"multiple roles union", []string{"Mechanic", "Owner"}, []uuid.UUID{stateA, stateB, stateC}},
		{"unknown role", []string{"Receptionist"}, []uuid.UUID{stateA}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterTransitionsByRole(all, tt.roles)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d transitions, want %d", len(got), len(tt.want))
			}
			for i, tr := range got {
				if tr.ToStateID != tt.want[i] {
					t.Errorf("transition %d targets %s, want %s", i, tr.ToStateID, tt.want[i])
				}
			}
		})
	}
}

func TestDedupeTargets(t *testing.T) {
	stateA := uuid.New()
	stateB := uuid.New()
	origin := uuid.New()

	specific := makeTransition(&origin, stateA)
	wildcard := makeTransition(nil, stateA)
	other := makeTransition(&origin, stateB)

	got := DedupeTargets([]repository.Transition{specific, wildcard, other})
	if len(got) != 2 {
		t.Fatalf("got %d transitions, want 2", len(got))
	}
	if got[0].ID != specific.ID {
		t.Errorf("dedupe should keep the first edge per target")
	}
	if got[1].ToStateID != stateB {
		t.Errorf("second target = %s, want %s", got[1].ToStateID, stateB)
	}
}

func TestMatchTransition(t *testing.T) {
	stateA := uuid.New()
	stateB := uuid.New()
	edges := []repository.Transition{
		makeTransition(nil, stateA),
		makeTransition(nil, stateB),
	}

	if match := MatchTransition(edges, stateB); match == nil || match.ToStateID != stateB {
		t.Errorf("expected a match for %s", stateB)
	}
	if match := MatchTransition(edges, uuid.New()); match != nil {
		t.Errorf("expected no match for an unknown target, got %v", match.ID)
	}
	if match := MatchTransition(nil, stateA); match != nil {
		t.Errorf("expected no match on empty edge list")
	}
}

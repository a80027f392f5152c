package service

import (
	"workshop_backend/internal/jobstates/repository"

	"github.com/google/uuid"
)

// FilterTransitionsByRole keeps the transitions the caller may take. A
// transition with no allowed roles is unrestricted. A nil role slice means a
// system caller and bypasses role gating entirely.
func FilterTransitionsByRole(transitions []repository.Transition, roles []string) []repository.Transition {
	if roles == nil {
		return transitions
	}

	roleSet := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}

	var allowed []repository.Transition
	for _, t := range transitions {
		if len(t.AllowedRoles) == 0 {
			allowed = append(allowed, t)
			continue
		}
		for _, r := range t.AllowedRoles {
			if _, ok := roleSet[r]; ok {
				allowed = append(allowed, t)
				break
			}
		}
	}
	return allowed
}

// DedupeTargets keeps the first transition per target state, preserving
// order. A state can be reachable both via a specific edge and a wildcard
// edge; the caller only cares that it is reachable once.
func DedupeTargets(transitions []repository.Transition) []repository.Transition {
	seen := make(map[uuid.UUID]struct{}, len(transitions))
	var out []repository.Transition
	for _, t := range transitions {
		if _, ok := seen[t.ToStateID]; ok {
			continue
		}
		seen[t.ToStateID] = struct{}{}
		out = append(out, t)
	}
	return out
}

// MatchTransition returns the first transition in the candidate list that
// leads to the requested target, or nil when the move is not in the graph.
// Candidates are assumed to be pre-filtered for the caller's roles.
func MatchTransition(transitions []repository.Transition, toStateID uuid.UUID) *repository.Transition {
	for i := range transitions {
		if transitions[i].ToStateID == toStateID {
			return &transitions[i]
		}
	}
	return nil
}

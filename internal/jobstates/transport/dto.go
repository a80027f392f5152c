// Package transport contains request/response DTOs for the job states API.
package transport

import (
	"time"

	"workshop_backend/internal/jobstates/repository"
	"workshop_backend/internal/jobstates/service"

	"github.com/google/uuid"
)

// CreateStateRequest is the payload for creating a workflow state.
type CreateStateRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=100"`
	Color       *string  `json:"color" validate:"omitempty,hexcolor"`
	Icon        *string  `json:"icon" validate:"omitempty,max=50"`
	IsInitial   bool     `json:"isInitial"`
	IsTerminal  bool     `json:"isTerminal"`
	NotifyRoles []string `json:"notifyRoles" validate:"omitempty,dive,oneof=Owner Manager ServiceAdvisor Mechanic"`
	SortOrder   int      `json:"sortOrder" validate:"gte=0"`
}

// UpdateStateRequest is the typed patch for a workflow state. Absent fields
// are left untouched.
type UpdateStateRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=100"`
	Color       *string  `json:"color" validate:"omitempty,hexcolor"`
	Icon        *string  `json:"icon" validate:"omitempty,max=50"`
	IsInitial   *bool    `json:"isInitial"`
	IsTerminal  *bool    `json:"isTerminal"`
	NotifyRoles []string `json:"notifyRoles" validate:"omitempty,dive,oneof=Owner Manager ServiceAdvisor Mechanic"`
	SortOrder   *int     `json:"sortOrder" validate:"omitempty,gte=0"`
}

// ReorderStatesRequest carries the full display order.
type ReorderStatesRequest struct {
	StateIDs []uuid.UUID `json:"stateIds" validate:"required,min=1"`
}

// CreateTransitionRequest is the payload for adding a graph edge. A nil
// fromStateId creates a wildcard edge valid from any state.
type CreateTransitionRequest struct {
	FromStateID  *uuid.UUID `json:"fromStateId"`
	ToStateID    uuid.UUID  `json:"toStateId" validate:"required"`
	AllowedRoles []string   `json:"allowedRoles" validate:"omitempty,dive,oneof=Owner Manager ServiceAdvisor Mechanic"`
}

// StateResponse is the API shape of a workflow state.
type StateResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Color       *string   `json:"color,omitempty"`
	Icon        *string   `json:"icon,omitempty"`
	IsInitial   bool      `json:"isInitial"`
	IsTerminal  bool      `json:"isTerminal"`
	IsSystem    bool      `json:"isSystem"`
	NotifyRoles []string  `json:"notifyRoles"`
	SortOrder   int       `json:"sortOrder"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TransitionResponse is the API shape of a graph edge.
type TransitionResponse struct {
	ID           uuid.UUID  `json:"id"`
	FromStateID  *uuid.UUID `json:"fromStateId,omitempty"`
	ToStateID    uuid.UUID  `json:"toStateId"`
	AllowedRoles []string   `json:"allowedRoles"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// AllowedTransitionResponse pairs an edge with its resolved target state.
type AllowedTransitionResponse struct {
	TransitionID uuid.UUID     `json:"transitionId"`
	ToState      StateResponse `json:"toState"`
}

// ToStateResponse converts a repository model to its API shape.
func ToStateResponse(st repository.JobState) StateResponse {
	notifyRoles := st.NotifyRoles
	if notifyRoles == nil {
		notifyRoles = []string{}
	}
	return StateResponse{
		ID:          st.ID,
		Name:        st.Name,
		Slug:        st.Slug,
		Color:       st.Color,
		Icon:        st.Icon,
		IsInitial:   st.IsInitial,
		IsTerminal:  st.IsTerminal,
		IsSystem:    st.IsSystem,
		NotifyRoles: notifyRoles,
		SortOrder:   st.SortOrder,
		IsActive:    st.IsActive,
		CreatedAt:   st.CreatedAt,
		UpdatedAt:   st.UpdatedAt,
	}
}

// ToStateResponses converts a slice of repository models.
func ToStateResponses(states []repository.JobState) []StateResponse {
	out := make([]StateResponse, 0, len(states))
	for _, st := range states {
		out = append(out, ToStateResponse(st))
	}
	return out
}

// ToTransitionResponse converts a repository model to its API shape.
func ToTransitionResponse(t repository.Transition) TransitionResponse {
	roles := t.AllowedRoles
	if roles == nil {
		roles = []string{}
	}
	return TransitionResponse{
		ID:           t.ID,
		FromStateID:  t.FromStateID,
		ToStateID:    t.ToStateID,
		AllowedRoles: roles,
		CreatedAt:    t.CreatedAt,
	}
}

// ToTransitionResponses converts a slice of repository models.
func ToTransitionResponses(transitions []repository.Transition) []TransitionResponse {
	out := make([]TransitionResponse, 0, len(transitions))
	for _, t := range transitions {
		out = append(out, ToTransitionResponse(t))
	}
	return out
}

// ToAllowedTransitionResponses converts resolved transitions.
func ToAllowedTransitionResponses(allowed []service.AllowedTransition) []AllowedTransitionResponse {
	out := make([]AllowedTransitionResponse, 0, len(allowed))
	for _, a := range allowed {
		out = append(out, AllowedTransitionResponse{
			TransitionID: a.TransitionID,
			ToState:      ToStateResponse(a.ToState),
		})
	}
	return out
}

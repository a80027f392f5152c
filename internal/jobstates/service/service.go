// Package service contains business logic for the job state graph: the
// configurable set of workflow stages a work order moves through and the
// directed transitions between them.
package service

import (
	"context"
	"fmt"

	"workshop_backend/internal/jobstates/repository"
	"workshop_backend/platform/apperr"
	"workshop_backend/platform/logger"

	"github.com/google/uuid"
)

// Repository defines the data access contract for the job state graph.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*repository.JobState, error)
	List(ctx context.Context, includeInactive bool) ([]repository.JobState, error)
	SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)
	Create(ctx context.Context, params repository.CreateStateParams) (*repository.JobState, error)
	Update(ctx context.Context, params repository.UpdateStateParams) (*repository.JobState, error)
	CountActiveWorkOrders(ctx context.Context, stateID uuid.UUID) (int, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	Reorder(ctx context.Context, orderedIDs []uuid.UUID) error
	ListTransitions(ctx context.Context) ([]repository.Transition, error)
	ListTransitionsFrom(ctx context.Context, fromStateID uuid.UUID) ([]repository.Transition, error)
	CreateTransition(ctx context.Context, params repository.CreateTransitionParams) (*repository.Transition, error)
	DeleteTransition(ctx context.Context, id uuid.UUID) error
}

// Service orchestrates job state graph operations.
type Service struct {
	repo   Repository
	logger *logger.Logger
}

// New creates a job states service.
func New(repo Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

// CreateStateInput carries data for creating a workflow state.
type CreateStateInput struct {
	Name        string
	Color       *string
	Icon        *string
	IsInitial   bool
	IsTerminal  bool
	NotifyRoles []string
	SortOrder   int
}

// UpdateStateInput is the typed patch accepted by UpdateState.
type UpdateStateInput struct {
	Name        *string
	Color       *string
	Icon        *string
	IsInitial   *bool
	IsTerminal  *bool
	NotifyRoles []string
	SortOrder   *int
}

// AllowedTransition pairs a graph edge with its resolved target state.
type AllowedTransition struct {
	TransitionID uuid.UUID
	ToState      repository.JobState
}

// ListStates returns workflow states ordered by sort order.
func (s *Service) ListStates(ctx context.Context, includeInactive bool) ([]repository.JobState, error) {
	return s.repo.List(ctx, includeInactive)
}

// GetState returns a single workflow state.
func (s *Service) GetState(ctx context.Context, id uuid.UUID) (*repository.JobState, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateState creates a workflow state, deriving its slug from the name.
// A slug collision with an existing active state is a conflict.
func (s *Service) CreateState(ctx context.Context, input CreateStateInput) (*repository.JobState, error) {
	slug := GenerateSlug(input.Name)
	if slug == "" {
		return nil, apperr.Validation("state name must contain at least one letter or digit")
	}

	exists, err := s.repo.SlugExists(ctx, slug, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict(fmt.Sprintf("a state with slug %q already exists", slug))
	}

	state, err := s.repo.Create(ctx, repository.CreateStateParams{
		Name:        input.Name,
		Slug:        slug,
		Color:       input.Color,
		Icon:        input.Icon,
		IsInitial:   input.IsInitial,
		IsTerminal:  input.IsTerminal,
		NotifyRoles: input.NotifyRoles,
		SortOrder:   input.SortOrder,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("job state created", "state_id", state.ID, "slug", state.Slug)
	return state, nil
}

// UpdateState applies a typed patch. System states only accept cosmetic
// changes (color, icon, notify roles, sort order); renaming them or touching
// their structural flags is rejected. Renaming a regular state regenerates
// its slug and fails with a conflict when the new slug is taken.
func (s *Service) UpdateState(ctx context.Context, id uuid.UUID, input UpdateStateInput) (*repository.JobState, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.IsActive {
		return nil, apperr.NotFound("job state not found")
	}

	if current.IsSystem && (input.Name != nil || input.IsInitial != nil || input.IsTerminal != nil) {
		return nil, apperr.BadRequest("system states only allow color, icon, notify roles and sort order changes")
	}

	params := repository.UpdateStateParams{
		ID:          id,
		Name:        input.Name,
		Color:       input.Color,
		Icon:        input.Icon,
		IsInitial:   input.IsInitial,
		IsTerminal:  input.IsTerminal,
		NotifyRoles: input.NotifyRoles,
		SortOrder:   input.SortOrder,
	}

	if input.Name != nil && *input.Name != current.Name {
		slug := GenerateSlug(*input.Name)
		if slug == "" {
			return nil, apperr.Validation("state name must contain at least one letter or digit")
		}
		exists, err := s.repo.SlugExists(ctx, slug, id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, apperr.Conflict(fmt.Sprintf("a state with slug %q already exists", slug))
		}
		params.Slug = &slug
	}

	return s.repo.Update(ctx, params)
}

// DeactivateState soft-deletes a workflow state. System states and states
// still holding work orders cannot be removed.
func (s *Service) DeactivateState(ctx context.Context, id uuid.UUID) error {
	state, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if state.IsSystem {
		return apperr.BadRequest("system states cannot be deleted")
	}

	count, err := s.repo.CountActiveWorkOrders(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperr.Conflict(fmt.Sprintf("state is still in use by %d work order(s)", count))
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.logger.Info("job state deactivated", "state_id", id, "slug", state.Slug)
	return nil
}

// ReorderStates assigns display positions 1..N following the given ID order.
func (s *Service) ReorderStates(ctx context.Context, orderedIDs []uuid.UUID) error {
	if len(orderedIDs) == 0 {
		return apperr.Validation("at least one state ID is required")
	}
	seen := make(map[uuid.UUID]struct{}, len(orderedIDs))
	for _, id := range orderedIDs {
		if _, dup := seen[id]; dup {
			return apperr.Validation("duplicate state ID in reorder list")
		}
		seen[id] = struct{}{}
	}
	return s.repo.Reorder(ctx, orderedIDs)
}

// ListTransitions returns every edge in the graph.
func (s *Service) ListTransitions(ctx context.Context) ([]repository.Transition, error) {
	return s.repo.ListTransitions(ctx)
}

// CreateTransition adds an edge. Both endpoints must be active states; a nil
// origin makes the edge valid from any state.
func (s *Service) CreateTransition(ctx context.Context, fromStateID *uuid.UUID, toStateID uuid.UUID, allowedRoles []string) (*repository.Transition, error) {
	if fromStateID != nil {
		from, err := s.repo.GetByID(ctx, *fromStateID)
		if err != nil {
			return nil, err
		}
		if !from.IsActive {
			return nil, apperr.BadRequest("origin state is inactive")
		}
		if *fromStateID == toStateID {
			return nil, apperr.Validation("a transition cannot point at its own origin")
		}
	}
	to, err := s.repo.GetByID(ctx, toStateID)
	if err != nil {
		return nil, err
	}
	if !to.IsActive {
		return nil, apperr.BadRequest("target state is inactive")
	}

	return s.repo.CreateTransition(ctx, repository.CreateTransitionParams{
		FromStateID:  fromStateID,
		ToStateID:    toStateID,
		AllowedRoles: allowedRoles,
	})
}

// DeleteTransition removes an edge from the graph.
func (s *Service) DeleteTransition(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteTransition(ctx, id)
}

// ListAllowedTransitions resolves the states reachable from the given state
// for a caller holding the given roles. Wildcard edges are included, results
// are role-filtered, deduplicated per target and ordered by the target's
// sort order.
func (s *Service) ListAllowedTransitions(ctx context.Context, fromStateID uuid.UUID, roles []string) ([]AllowedTransition, error) {
	if _, err := s.repo.GetByID(ctx, fromStateID); err != nil {
		return nil, err
	}

	transitions, err := s.repo.ListTransitionsFrom(ctx, fromStateID)
	if err != nil {
		return nil, err
	}
	transitions = DedupeTargets(FilterTransitionsByRole(transitions, roles))

	states, err := s.repo.List(ctx, false)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]repository.JobState, len(states))
	for _, st := range states {
		byID[st.ID] = st
	}

	allowed := make([]AllowedTransition, 0, len(transitions))
	for _, t := range transitions {
		target, ok := byID[t.ToStateID]
		if !ok {
			continue // target went inactive between queries
		}
		allowed = append(allowed, AllowedTransition{TransitionID: t.ID, ToState: target})
	}
	return allowed, nil
}

// ResolveTransition reports whether moving from one state to another is
// permitted for the caller's roles, returning the matched edge. An absent
// edge is a bad request; an edge the caller's roles cannot take is
// forbidden. Nil roles mean a system caller and bypass role gating.
func (s *Service) ResolveTransition(ctx context.Context, fromStateID, toStateID uuid.UUID, roles []string) (*repository.Transition, error) {
	transitions, err := s.repo.ListTransitionsFrom(ctx, fromStateID)
	if err != nil {
		return nil, err
	}
	if MatchTransition(transitions, toStateID) == nil {
		return nil, apperr.BadRequest("transition between these states is not allowed")
	}
	match := MatchTransition(FilterTransitionsByRole(transitions, roles), toStateID)
	if match == nil {
		return nil, apperr.Forbidden("your role cannot perform this transition")
	}
	return match, nil
}

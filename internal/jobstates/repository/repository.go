package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"workshop_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ── Domain Models ─────────────────────────────────────────────────────────────

// JobState is the database model for a workflow stage.
type JobState struct {
	ID          uuid.UUID `db:"id"`
	Name        string    `db:"name"`
	Slug        string    `db:"slug"`
	Color       *string   `db:"color"`
	Icon        *string   `db:"icon"`
	IsInitial   bool      `db:"is_initial"`
	IsTerminal  bool      `db:"is_terminal"`
	IsSystem    bool      `db:"is_system"`
	NotifyRoles []string  `db:"notify_roles"`
	SortOrder   int       `db:"sort_order"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Transition is the database model for an allowed state change.
// A nil FromStateID means the transition is valid from any state.
type Transition struct {
	ID           uuid.UUID  `db:"id"`
	FromStateID  *uuid.UUID `db:"from_state_id"`
	ToStateID    uuid.UUID  `db:"to_state_id"`
	AllowedRoles []string   `db:"allowed_roles"`
	CreatedAt    time.Time  `db:"created_at"`
}

// CreateStateParams contains data for creating a job state.
type CreateStateParams struct {
	Name        string
	Slug        string
	Color       *string
	Icon        *string
	IsInitial   bool
	IsTerminal  bool
	NotifyRoles []string
	SortOrder   int
}

// UpdateStateParams is the typed patch for a job state. Nil fields are left
// unchanged. The service layer decides which fields a system state may patch.
type UpdateStateParams struct {
	ID          uuid.UUID
	Name        *string
	Slug        *string
	Color       *string
	Icon        *string
	IsInitial   *bool
	IsTerminal  *bool
	NotifyRoles []string
	SortOrder   *int
}

// CreateTransitionParams contains data for creating a transition.
type CreateTransitionParams struct {
	FromStateID  *uuid.UUID
	ToStateID    uuid.UUID
	AllowedRoles []string
}

const (
	stateNotFoundMsg      = "job state not found"
	transitionNotFoundMsg = "job state transition not found"
)

const stateColumns = `id, name, slug, color, icon, is_initial, is_terminal, is_system,
		notify_roles, sort_order, is_active, created_at, updated_at`

// ── Repository ────────────────────────────────────────────────────────────────

// Repository provides database operations for the job state graph.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new job states repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanState(row pgx.Row) (JobState, error) {
	var st JobState
	err := row.Scan(
		&st.ID, &st.Name, &st.Slug, &st.Color, &st.Icon,
		&st.IsInitial, &st.IsTerminal, &st.IsSystem,
		&st.NotifyRoles, &st.SortOrder, &st.IsActive, &st.CreatedAt, &st.UpdatedAt,
	)
	return st, err
}

// GetByID retrieves a job state by ID, active or not.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*JobState, error) {
	query := `SELECT ` + stateColumns + ` FROM job_states WHERE id = $1`
	st, err := scanState(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(stateNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get job state: %w", err)
	}
	return &st, nil
}

// List retrieves job states ordered by sort order. Inactive states are
// included only when includeInactive is set.
func (r *Repository) List(ctx context.Context, includeInactive bool) ([]JobState, error) {
	query := `SELECT ` + stateColumns + ` FROM job_states`
	if !includeInactive {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY sort_order ASC, created_at ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query job states: %w", err)
	}
	defer rows.Close()

	var states []JobState
	for rows.Next() {
		st, err := scanState(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job state: %w", err)
		}
		states = append(states, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate job states: %w", err)
	}
	return states, nil
}

// SlugExists reports whether another active state already uses the slug.
func (r *Repository) SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (
		SELECT 1 FROM job_states WHERE slug = $1 AND id <> $2 AND is_active)`
	if err := r.pool.QueryRow(ctx, query, slug, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return exists, nil
}

// Create inserts a job state. When IsInitial is set, every other state's
// is_initial flag is cleared in the same transaction so at most one holder
// exists.
func (r *Repository) Create(ctx context.Context, params CreateStateParams) (*JobState, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if params.IsInitial {
		if _, err := tx.Exec(ctx, `UPDATE job_states SET is_initial = FALSE WHERE is_initial`); err != nil {
			return nil, fmt.Errorf("failed to clear initial flag: %w", err)
		}
	}

	id := uuid.New()
	query := `
		INSERT INTO job_states (id, name, slug, color, icon, is_initial, is_terminal,
			is_system, notify_roles, sort_order, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8, $9, TRUE, now(), now())
		RETURNING ` + stateColumns

	st, err := scanState(tx.QueryRow(ctx, query,
		id, params.Name, params.Slug, params.Color, params.Icon,
		params.IsInitial, params.IsTerminal, params.NotifyRoles, params.SortOrder,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert job state: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return &st, nil
}

// Update applies a typed patch to a job state. Setting IsInitial to true
// atomically clears the flag on every other state.
func (r *Repository) Update(ctx context.Context, params UpdateStateParams) (*JobState, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if params.IsInitial != nil && *params.IsInitial {
		if _, err := tx.Exec(ctx, `UPDATE job_states SET is_initial = FALSE WHERE is_initial AND id <> $1`, params.ID); err != nil {
			return nil, fmt.Errorf("failed to clear initial flag: %w", err)
		}
	}

	query := `
		UPDATE job_states SET
			name = COALESCE($2, name),
			slug = COALESCE($3, slug),
			color = COALESCE($4, color),
			icon = COALESCE($5, icon),
			is_initial = COALESCE($6, is_initial),
			is_terminal = COALESCE($7, is_terminal),
			notify_roles = COALESCE($8, notify_roles),
			sort_order = COALESCE($9, sort_order),
			updated_at = now()
		WHERE id = $1 AND is_active
		RETURNING ` + stateColumns

	st, err := scanState(tx.QueryRow(ctx, query,
		params.ID, params.Name, params.Slug, params.Color, params.Icon,
		params.IsInitial, params.IsTerminal, params.NotifyRoles, params.SortOrder,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(stateNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to update job state: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return &st, nil
}

// CountActiveWorkOrders returns the number of undeleted work orders that
// currently sit in the given state.
func (r *Repository) CountActiveWorkOrders(ctx context.Context, stateID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM work_orders WHERE job_state_id = $1 AND deleted_at IS NULL`
	if err := r.pool.QueryRow(ctx, query, stateID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count work orders: %w", err)
	}
	return count, nil
}

// Deactivate soft-deletes a job state and removes transitions that
// reference it, in one transaction. Transitions must never point at an
// inactive state.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `UPDATE job_states SET is_active = FALSE, updated_at = now() WHERE id = $1 AND is_active`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate job state: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(stateNotFoundMsg)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM job_state_transitions WHERE from_state_id = $1 OR to_state_id = $1`, id); err != nil {
		return fmt.Errorf("failed to remove transitions: %w", err)
	}

	return tx.Commit(ctx)
}

// Reorder assigns sort_order 1..N positionally. All-or-nothing: a missing or
// inactive state aborts the whole reorder.
func (r *Repository) Reorder(ctx context.Context, orderedIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, id := range orderedIDs {
		result, err := tx.Exec(ctx,
			`UPDATE job_states SET sort_order = $2, updated_at = now() WHERE id = $1 AND is_active`,
			id, i+1,
		)
		if err != nil {
			return fmt.Errorf("failed to reorder job state: %w", err)
		}
		if result.RowsAffected() == 0 {
			return apperr.NotFound(stateNotFoundMsg)
		}
	}

	return tx.Commit(ctx)
}

// ── Transitions ───────────────────────────────────────────────────────────────

// ListTransitions retrieves every transition row.
func (r *Repository) ListTransitions(ctx context.Context) ([]Transition, error) {
	query := `
		SELECT id, from_state_id, to_state_id, allowed_roles, created_at
		FROM job_state_transitions
		ORDER BY created_at ASC`
	return r.queryTransitions(ctx, query)
}

// ListTransitionsFrom retrieves transitions leaving the given state,
// including wildcard-origin transitions (from_state_id IS NULL), ordered by
// the target state's sort order.
func (r *Repository) ListTransitionsFrom(ctx context.Context, fromStateID uuid.UUID) ([]Transition, error) {
	query := `
		SELECT t.id, t.from_state_id, t.to_state_id, t.allowed_roles, t.created_at
		FROM job_state_transitions t
		JOIN job_states s ON s.id = t.to_state_id AND s.is_active
		WHERE t.from_state_id = $1 OR t.from_state_id IS NULL
		ORDER BY s.sort_order ASC`

	rows, err := r.pool.Query(ctx, query, fromStateID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transitions: %w", err)
	}
	defer rows.Close()
	return scanTransitions(rows)
}

func (r *Repository) queryTransitions(ctx context.Context, query string, args ...any) ([]Transition, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transitions: %w", err)
	}
	defer rows.Close()
	return scanTransitions(rows)
}

func scanTransitions(rows pgx.Rows) ([]Transition, error) {
	var transitions []Transition
	for rows.Next() {
		var t Transition
		if err := rows.Scan(&t.ID, &t.FromStateID, &t.ToStateID, &t.AllowedRoles, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}
		transitions = append(transitions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transitions: %w", err)
	}
	return transitions, nil
}

// CreateTransition inserts a transition row.
func (r *Repository) CreateTransition(ctx context.Context, params CreateTransitionParams) (*Transition, error) {
	var t Transition
	query := `
		INSERT INTO job_state_transitions (id, from_state_id, to_state_id, allowed_roles, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, from_state_id, to_state_id, allowed_roles, created_at`

	err := r.pool.QueryRow(ctx, query, uuid.New(), params.FromStateID, params.ToStateID, params.AllowedRoles).
		Scan(&t.ID, &t.FromStateID, &t.ToStateID, &t.AllowedRoles, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transition: %w", err)
	}
	return &t, nil
}

// DeleteTransition removes a transition row.
func (r *Repository) DeleteTransition(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM job_state_transitions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transition: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(transitionNotFoundMsg)
	}
	return nil
}

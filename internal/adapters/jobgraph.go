// Package adapters wires cross-module dependencies so bounded contexts stay
// one-directional: modules depend on small interfaces, and this package
// satisfies them from other modules' services.
package adapters

import (
	"context"

	jobstaterepo "workshop_backend/internal/jobstates/repository"
	jobstatesvc "workshop_backend/internal/jobstates/service"
	workordersvc "workshop_backend/internal/workorders/service"

	"github.com/google/uuid"
)

// JobGraphResolver exposes the job state graph to the work orders module.
type JobGraphResolver struct {
	graph *jobstatesvc.Service
}

// NewJobGraphResolver creates the adapter.
func NewJobGraphResolver(graph *jobstatesvc.Service) *JobGraphResolver {
	return &JobGraphResolver{graph: graph}
}

// ResolveTransition delegates transfer legality checks to the graph.
func (a *JobGraphResolver) ResolveTransition(ctx context.Context, fromStateID, toStateID uuid.UUID, roles []string) (*jobstaterepo.Transition, error) {
	return a.graph.ResolveTransition(ctx, fromStateID, toStateID, roles)
}

var _ workordersvc.TransitionResolver = (*JobGraphResolver)(nil)

// Package jobstates provides the job state graph bounded context module:
// the configurable workflow stages and the directed transitions between them.
package jobstates

import (
	"workshop_backend/internal/jobstates/handler"
	"workshop_backend/internal/jobstates/repository"
	"workshop_backend/internal/jobstates/service"
	apphttp "workshop_backend/internal/http"
	"workshop_backend/platform/httpkit"
	"workshop_backend/platform/logger"
	"workshop_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the job states bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the job states module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "jobstates"
}

// Service returns the service layer for cross-module use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts job state routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/job-states", m.handler.ListStates)
	ctx.Protected.GET("/job-states/transitions", m.handler.ListTransitions)
	ctx.Protected.GET("/job-states/:id", m.handler.GetState)
	ctx.Protected.GET("/job-states/:id/allowed-transitions", m.handler.ListAllowedTransitions)

	// Graph administration is reserved for shop management.
	admin := ctx.Protected.Group("")
	admin.Use(httpkit.RequireAnyRole("Manager", "Owner"))
	admin.POST("/job-states", m.handler.CreateState)
	admin.PATCH("/job-states/:id", m.handler.UpdateState)
	admin.DELETE("/job-states/:id", m.handler.DeleteState)
	admin.PUT("/job-states/reorder", m.handler.ReorderStates)
	admin.POST("/job-states/transitions", m.handler.CreateTransition)
	admin.DELETE("/job-states/transitions/:id", m.handler.DeleteTransition)
}

var _ apphttp.Module = (*Module)(nil)

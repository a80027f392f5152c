// Package workorders provides the work order lifecycle bounded context:
// transfer protocol, invoice state machine and payment ledger.
package workorders

import (
	"workshop_backend/internal/events"
	apphttp "workshop_backend/internal/http"
	"workshop_backend/internal/workorders/handler"
	"workshop_backend/internal/workorders/repository"
	"workshop_backend/internal/workorders/service"
	"workshop_backend/platform/httpkit"
	"workshop_backend/platform/logger"
	"workshop_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the work orders bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the work orders module. The graph
// resolver is the job states module's service, passed through the adapters
// package to keep the dependency one-directional.
func NewModule(pool *pgxpool.Pool, graph service.TransitionResolver, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, graph, bus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "workorders"
}

// Service returns the service layer for cross-module use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts work order routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/work-orders", m.handler.ListWorkOrders)
	ctx.Protected.GET("/work-orders/:id", m.handler.GetWorkOrder)

	ctx.Protected.POST("/work-orders/:id/transfer", m.handler.Transfer)
	ctx.Protected.GET("/work-orders/:id/transfers", m.handler.ListTransfers)
	ctx.Protected.POST("/work-orders/:id/transfers/:transferId/accept", m.handler.AcceptTransfer)
	ctx.Protected.GET("/transfers/pending", m.handler.ListMyPendingTransfers)

	ctx.Protected.POST("/work-orders/:id/invoice/close", m.handler.CloseInvoice)
	ctx.Protected.POST("/work-orders/:id/invoice/reopen", m.handler.ReopenInvoice)
	ctx.Protected.POST("/work-orders/:id/invoice/void", m.handler.VoidInvoice)
	ctx.Protected.GET("/work-orders/:id/invoice/reopen-events", m.handler.ListReopenEvents)

	ctx.Protected.POST("/work-orders/:id/payments", m.handler.RecordPayment)
	ctx.Protected.GET("/work-orders/:id/payments", m.handler.ListPayments)

	// Hard deletion is reserved for shop management.
	admin := ctx.Protected.Group("")
	admin.Use(httpkit.RequireAnyRole("Manager", "Owner"))
	admin.DELETE("/work-orders/:id", m.handler.DeleteWorkOrder)
}

var _ apphttp.Module = (*Module)(nil)

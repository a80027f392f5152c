// Package estimates provides the estimate workflow bounded context: token
// accessed customer estimates generated from recommendation candidates, plus
// the reconciliation of customer responses back onto those recommendations.
package estimates

import (
	"workshop_backend/internal/estimates/handler"
	"workshop_backend/internal/estimates/repository"
	"workshop_backend/internal/estimates/service"
	"workshop_backend/internal/events"
	apphttp "workshop_backend/internal/http"
	"workshop_backend/platform/config"
	"workshop_backend/platform/logger"
	"workshop_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the estimates bounded context module implementing http.Module.
type Module struct {
	handler       *handler.Handler
	publicHandler *handler.PublicHandler
	service       *service.Service
}

// NewModule creates and initializes the estimates module.
func NewModule(pool *pgxpool.Pool, cfg config.EstimateConfig, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, bus, log)

	return &Module{
		handler:       handler.New(svc, val),
		publicHandler: handler.NewPublic(svc),
		service:       svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "estimates"
}

// Service returns the service layer for cross-module use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts staff and public estimate routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/work-orders/:id/estimates", m.handler.GenerateEstimate)
	ctx.Protected.GET("/work-orders/:id/estimates", m.handler.ListEstimates)
	ctx.Protected.POST("/work-orders/:id/estimates/:estimateId/regenerate", m.handler.RegenerateEstimate)
	ctx.Protected.GET("/estimates/:estimateId", m.handler.GetEstimate)
	ctx.Protected.GET("/estimates/:estimateId/qrcode", m.handler.GetEstimateQRCode)

	// Token-only access, no authentication. Rate limited per IP.
	public := ctx.V1.Group("/public/estimates")
	public.Use(ctx.PublicRateLimiter.RateLimit())
	public.GET("/:token", m.publicHandler.ViewEstimate)
	public.POST("/:token/response", m.publicHandler.SubmitResponse)
}

var _ apphttp.Module = (*Module)(nil)

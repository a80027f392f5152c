// Package notification bridges domain events to outbound customer email.
// Delivery is fire-and-forget: the lifecycle engine never depends on it.
package notification

import (
	"context"

	"workshop_backend/internal/email"
	"workshop_backend/internal/events"
	"workshop_backend/platform/config"
	"workshop_backend/platform/logger"
)

// Module subscribes to estimate events and emails the relevant parties.
type Module struct {
	sender email.Sender
	cfg    config.NotificationConfig
	logger *logger.Logger
}

// NewModule creates the notification module.
func NewModule(sender email.Sender, cfg config.NotificationConfig, log *logger.Logger) *Module {
	return &Module{sender: sender, cfg: cfg, logger: log}
}

// RegisterHandlers subscribes to the domain events this module cares about.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.EstimateGenerated{}.EventName(), m)
	bus.Subscribe(events.EstimateResponded{}.EventName(), m)
}

// Handle routes events to the appropriate email.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.EstimateGenerated:
		return m.handleEstimateGenerated(ctx, e)
	case events.EstimateResponded:
		return m.handleEstimateResponded(ctx, e)
	default:
		return nil
	}
}

func (m *Module) handleEstimateGenerated(ctx context.Context, e events.EstimateGenerated) error {
	if e.CustomerEmail == "" {
		m.logger.Info("estimate customer has no email, skipping notification", "estimate_id", e.EstimateID)
		return nil
	}
	err := m.sender.SendEstimateEmail(ctx, e.CustomerEmail, e.CustomerName, e.VehicleLabel, e.ApprovalURL, e.TotalCents)
	if err != nil {
		m.logger.Error("failed to send estimate email", "estimate_id", e.EstimateID, "error", err)
		return err
	}
	return nil
}

func (m *Module) handleEstimateResponded(ctx context.Context, e events.EstimateResponded) error {
	inbox := m.cfg.GetEmailFromAddress()
	if inbox == "" {
		return nil
	}
	err := m.sender.SendEstimateRespondedEmail(ctx, inbox, e.Status, e.ApprovedAmountCents)
	if err != nil {
		m.logger.Error("failed to send response notification", "estimate_id", e.EstimateID, "error", err)
		return err
	}
	return nil
}

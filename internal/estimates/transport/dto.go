// Package transport contains request/response DTOs for the estimates API.
package transport

import (
	"time"

	"workshop_backend/internal/estimates/repository"
	"workshop_backend/internal/estimates/service"

	"github.com/google/uuid"
)

// GenerateEstimateRequest is the staff payload for creating an estimate.
type GenerateEstimateRequest struct {
	RecommendationIDs []uuid.UUID `json:"recommendationIds" validate:"required,min=1"`
	ExpiresInHours    int         `json:"expiresInHours" validate:"omitempty,gt=0,lte=720"`
}

// SubmitResponseRequest is the public payload for a customer decision. Keys
// of declineReasons are estimate service IDs.
type SubmitResponseRequest struct {
	ApprovedServiceIDs []uuid.UUID          `json:"approvedServiceIds"`
	DeclineReasons     map[uuid.UUID]string `json:"declineReasons"`
	CustomerNotes      *string              `json:"customerNotes" validate:"omitempty,max=2000"`
}

// EstimateResponse is the API shape of an estimate.
type EstimateResponse struct {
	ID                  uuid.UUID  `json:"id"`
	WorkOrderID         uuid.UUID  `json:"workOrderId"`
	CustomerID          uuid.UUID  `json:"customerId"`
	VehicleID           uuid.UUID  `json:"vehicleId"`
	Status              string     `json:"status"`
	TotalAmountCents    int64      `json:"totalAmountCents"`
	ApprovedAmountCents int64      `json:"approvedAmountCents"`
	SentAt              time.Time  `json:"sentAt"`
	ViewedAt            *time.Time `json:"viewedAt,omitempty"`
	RespondedAt         *time.Time `json:"respondedAt,omitempty"`
	ExpiresAt           time.Time  `json:"expiresAt"`
	CustomerNotes       *string    `json:"customerNotes,omitempty"`
	PreviousEstimateID  *uuid.UUID `json:"previousEstimateId,omitempty"`
}

// EstimateServiceResponse is the API shape of a line item.
type EstimateServiceResponse struct {
	ID                  uuid.UUID  `json:"id"`
	RecommendationID    *uuid.UUID `json:"recommendationId,omitempty"`
	ServiceTitle        string     `json:"serviceTitle"`
	CustomerExplanation string     `json:"customerExplanation"`
	EstimatedCostCents  int64      `json:"estimatedCostCents"`
	Status              string     `json:"status"`
	ApprovedAt          *time.Time `json:"approvedAt,omitempty"`
	DeclinedAt          *time.Time `json:"declinedAt,omitempty"`
	DeclineReason       *string    `json:"declineReason,omitempty"`
}

// GeneratedEstimateResponse is returned to staff after generation.
type GeneratedEstimateResponse struct {
	Estimate    EstimateResponse          `json:"estimate"`
	Services    []EstimateServiceResponse `json:"services"`
	ApprovalURL string                    `json:"approvalUrl"`
}

// PublicEstimateResponse is the customer-facing view. The token holder sees
// no internal identifiers beyond what the page needs.
type PublicEstimateResponse struct {
	Status              string                    `json:"status"`
	TotalAmountCents    int64                     `json:"totalAmountCents"`
	ApprovedAmountCents int64                     `json:"approvedAmountCents"`
	SentAt              time.Time                 `json:"sentAt"`
	RespondedAt         *time.Time                `json:"respondedAt,omitempty"`
	ExpiresAt           time.Time                 `json:"expiresAt"`
	CustomerName        string                    `json:"customerName"`
	VehicleLabel        string                    `json:"vehicleLabel"`
	Services            []EstimateServiceResponse `json:"services"`
}

// ToEstimateResponse converts a repository model to its API shape.
func ToEstimateResponse(e repository.Estimate) EstimateResponse {
	return EstimateResponse{
		ID:                  e.ID,
		WorkOrderID:         e.WorkOrderID,
		CustomerID:          e.CustomerID,
		VehicleID:           e.VehicleID,
		Status:              e.Status,
		TotalAmountCents:    e.TotalAmountCents,
		ApprovedAmountCents: e.ApprovedAmountCents,
		SentAt:              e.SentAt,
		ViewedAt:            e.ViewedAt,
		RespondedAt:         e.RespondedAt,
		ExpiresAt:           e.ExpiresAt,
		CustomerNotes:       e.CustomerNotes,
		PreviousEstimateID:  e.PreviousEstimateID,
	}
}

// ToEstimateResponses converts a slice of repository models.
func ToEstimateResponses(estimates []repository.Estimate) []EstimateResponse {
	out := make([]EstimateResponse, 0, len(estimates))
	for _, e := range estimates {
		out = append(out, ToEstimateResponse(e))
	}
	return out
}

// ToServiceResponses converts line items.
func ToServiceResponses(services []repository.EstimateService) []EstimateServiceResponse {
	out := make([]EstimateServiceResponse, 0, len(services))
	for _, s := range services {
		out = append(out, EstimateServiceResponse{
			ID:                  s.ID,
			RecommendationID:    s.RecommendationID,
			ServiceTitle:        s.ServiceTitle,
			CustomerExplanation: s.CustomerExplanation,
			EstimatedCostCents:  s.EstimatedCostCents,
			Status:              s.Status,
			ApprovedAt:          s.ApprovedAt,
			DeclinedAt:          s.DeclinedAt,
			DeclineReason:       s.DeclineReason,
		})
	}
	return out
}

// ToGeneratedResponse converts a generation result.
func ToGeneratedResponse(g service.GeneratedEstimate) GeneratedEstimateResponse {
	return GeneratedEstimateResponse{
		Estimate:    ToEstimateResponse(g.Estimate),
		Services:    ToServiceResponses(g.Services),
		ApprovalURL: g.ApprovalURL,
	}
}

// ToPublicResponse converts the customer-facing view.
func ToPublicResponse(v service.EstimateView) PublicEstimateResponse {
	return PublicEstimateResponse{
		Status:              v.Estimate.Status,
		TotalAmountCents:    v.Estimate.TotalAmountCents,
		ApprovedAmountCents: v.Estimate.ApprovedAmountCents,
		SentAt:              v.Estimate.SentAt,
		RespondedAt:         v.Estimate.RespondedAt,
		ExpiresAt:           v.Estimate.ExpiresAt,
		CustomerName:        v.CustomerName,
		VehicleLabel:        v.VehicleLabel,
		Services:            ToServiceResponses(v.Services),
	}
}

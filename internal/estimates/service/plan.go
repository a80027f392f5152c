package service

import (
	"time"

	"workshop_backend/internal/estimates/repository"
	"workshop_backend/platform/apperr"

	"github.com/google/uuid"
)

// Estimate statuses.
const (
	EstimatePending           = "pending"
	EstimateApproved          = "approved"
	EstimatePartiallyApproved = "partially_approved"
	EstimateDeclined          = "declined"
	EstimateSuperseded        = "superseded"
)

// Recommendation statuses the workflow reads or writes.
const (
	RecAwaitingApproval = "awaiting_approval"
	RecSentToCustomer   = "sent_to_customer"
	RecCustomerApproved = "customer_approved"
	RecCustomerDeclined = "customer_declined"
)

// DefaultDeclineReason is stamped on declined services the customer gave no
// reason for.
const DefaultDeclineReason = "Not at this time"

// minTokenLength rejects obviously malformed tokens before touching the
// database. Minted tokens are 43 characters (32 bytes, base64 raw URL).
const minTokenLength = 20

// fallbackExplanation is used when a recommendation carries no
// customer-facing text.
const fallbackExplanation = "Recommended by your service team based on your vehicle's condition."

// ValidateToken rejects malformed or implausibly short tokens.
func ValidateToken(token string) error {
	if len(token) < minTokenLength {
		return apperr.Validation("malformed estimate token")
	}
	return nil
}

// CheckExpiry fails with Gone once the deadline passes, regardless of any
// prior view state.
func CheckExpiry(expiresAt, now time.Time) error {
	if now.After(expiresAt) {
		return apperr.Gone("this estimate has expired; contact the shop for a new one")
	}
	return nil
}

// SelectCandidates keeps the requested recommendations that are still
// awaiting approval. An empty result is invalid input: there is nothing to
// put in front of the customer.
func SelectCandidates(recs []repository.Recommendation, requestedIDs []uuid.UUID) ([]repository.Recommendation, error) {
	requested := make(map[uuid.UUID]struct{}, len(requestedIDs))
	for _, id := range requestedIDs {
		requested[id] = struct{}{}
	}

	var candidates []repository.Recommendation
	for _, rec := range recs {
		if _, ok := requested[rec.ID]; !ok {
			continue
		}
		if rec.Status != RecAwaitingApproval {
			continue
		}
		candidates = append(candidates, rec)
	}
	if len(candidates) == 0 {
		return nil, apperr.Validation("no valid recommendations to include in the estimate")
	}
	return candidates, nil
}

// BuildLines prepares line items from the selected recommendations, carrying
// over title and cost and falling back to a generic explanation.
func BuildLines(candidates []repository.Recommendation) []repository.ServiceLine {
	lines := make([]repository.ServiceLine, 0, len(candidates))
	for _, rec := range candidates {
		explanation := fallbackExplanation
		if rec.CustomerExplanation != nil && *rec.CustomerExplanation != "" {
			explanation = *rec.CustomerExplanation
		}
		lines = append(lines, repository.ServiceLine{
			RecommendationID:    rec.ID,
			ServiceTitle:        rec.Title,
			CustomerExplanation: explanation,
			EstimatedCostCents:  rec.EstimatedCostCents,
		})
	}
	return lines
}

// TotalCents sums the selected recommendations' estimated costs.
func TotalCents(candidates []repository.Recommendation) int64 {
	var total int64
	for _, rec := range candidates {
		total += rec.EstimatedCostCents
	}
	return total
}

// ResponsePlan is the computed outcome of a customer response before any
// database write.
type ResponsePlan struct {
	Decisions           []repository.ServiceDecision
	Status              string
	ApprovedAmountCents int64
	ApprovedCount       int
	DeclinedCount       int
}

// PlanResponse computes per-service decisions for a customer submission:
// every line is either approved or declined (with the caller's reason or the
// default), the approved amount is the sum of approved costs, and the overall
// status follows from the split.
func PlanResponse(services []repository.EstimateService, approvedServiceIDs []uuid.UUID, declineReasons map[uuid.UUID]string) ResponsePlan {
	approved := make(map[uuid.UUID]struct{}, len(approvedServiceIDs))
	for _, id := range approvedServiceIDs {
		approved[id] = struct{}{}
	}

	plan := ResponsePlan{Decisions: make([]repository.ServiceDecision, 0, len(services))}
	for _, svc := range services {
		decision := repository.ServiceDecision{
			ServiceID:        svc.ID,
			RecommendationID: svc.RecommendationID,
		}
		if _, ok := approved[svc.ID]; ok {
			decision.Approved = true
			plan.ApprovedAmountCents += svc.EstimatedCostCents
			plan.ApprovedCount++
		} else {
			decision.DeclineReason = DefaultDeclineReason
			if reason, ok := declineReasons[svc.ID]; ok && reason != "" {
				decision.DeclineReason = reason
			}
			plan.DeclinedCount++
		}
		plan.Decisions = append(plan.Decisions, decision)
	}

	plan.Status = deriveStatus(plan.ApprovedCount, len(services))
	return plan
}

func deriveStatus(approvedCount, totalCount int) string {
	switch {
	case totalCount > 0 && approvedCount == totalCount:
		return EstimateApproved
	case approvedCount > 0:
		return EstimatePartiallyApproved
	default:
		return EstimateDeclined
	}
}

package model

import (
	"time"

	"github.com/google/uuid"
)

type POStatus string

const (
	POStatusPendingVerification POStatus = "pending_verification"
	POStatusVerified            POStatus = "verified"
	POStatusRejected            POStatus = "rejected"
)

type PODecision string

const (
	PODecisionVerified PODecision = "verified"
	PODecisionRejected PODecision = "rejected"
)

func ParsePODecision(raw string) (PODecision, bool) {
	switch PODecision(raw) {
	case PODecisionVerified, PODecisionRejected:
		return PODecision(raw), true
	}
	return "", false
}

type PurchaseOrder struct {
	ID            uuid.UUID  `json:"id"`
	RequirementID uuid.UUID  `json:"requirement_id"`
	PONumber      string     `json:"po_number"`
	Status        POStatus   `json:"status"`
	SubmittedBy   uuid.UUID  `json:"submitted_by"`
	ReviewedBy    *uuid.UUID `json:"reviewed_by,omitempty"`
	DecisionAt    *time.Time `json:"decision_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

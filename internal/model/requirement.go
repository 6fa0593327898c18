package model

import (
	"time"

	"github.com/google/uuid"
)

type RequirementStatus string

const (
	StatusPendingAEEstimate      RequirementStatus = "pending_ae_estimate"
	StatusAwaitingClientDecision RequirementStatus = "awaiting_client_decision"
	StatusClientGoodToGo         RequirementStatus = "client_good_to_go"
	StatusAECallRequested        RequirementStatus = "ae_call_requested"
	StatusPendingVerification    RequirementStatus = "pending_verification"
	StatusVerified               RequirementStatus = "verified"
	StatusRejected               RequirementStatus = "rejected"
)

type RequirementType string

const (
	RequirementTypeHardware RequirementType = "hardware"
	RequirementTypeSoftware RequirementType = "software"
)

type SoftwareSubtype string

const (
	SubtypeNew     SoftwareSubtype = "new"
	SubtypeRenewal SoftwareSubtype = "renewal"
	SubtypeUpgrade SoftwareSubtype = "upgrade"
)

type Requirement struct {
	ID        uuid.UUID         `json:"id"`
	Type      RequirementType   `json:"type"`
	Subtype   *SoftwareSubtype  `json:"subtype,omitempty"` // set iff Type == software
	Details   map[string]any    `json:"details"`
	Status    RequirementStatus `json:"status"`
	OwnerID   uuid.UUID         `json:"owner_id"`
	CreatedAt time.Time         `json:"created_at"`
}

func ParseRequirementType(raw string) (RequirementType, bool) {
	switch RequirementType(raw) {
	case RequirementTypeHardware, RequirementTypeSoftware:
		return RequirementType(raw), true
	}
	return "", false
}

func ParseSoftwareSubtype(raw string) (SoftwareSubtype, bool) {
	switch SoftwareSubtype(raw) {
	case SubtypeNew, SubtypeRenewal, SubtypeUpgrade:
		return SoftwareSubtype(raw), true
	}
	return "", false
}

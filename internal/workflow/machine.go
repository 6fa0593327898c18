// Package workflow is the single source of truth for the requirement
// lifecycle: which events exist, which status each event moves a requirement
// from and into, and which role is allowed to trigger it.
package workflow

import (
	"errors"

	"github.com/nurpe/procureflow/internal/model"
)

type Event string

const (
	EventCreate       Event = "create"
	EventSendEstimate Event = "send_estimate"
	EventGoodToGo     Event = "good_to_go"
	EventRequestCall  Event = "request_call"
	EventSubmitPO     Event = "submit_po"
	EventVerify       Event = "verify"
	EventReject       Event = "reject"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrRoleNotAllowed    = errors.New("role not allowed")
)

type edge struct {
	from model.RequirementStatus // empty for creation
	to   model.RequirementStatus
	role model.Role
}

var transitions = map[Event]edge{
	EventCreate:       {from: "", to: model.StatusPendingAEEstimate, role: model.RoleClient},
	EventSendEstimate: {from: model.StatusPendingAEEstimate, to: model.StatusAwaitingClientDecision, role: model.RoleAE},
	EventGoodToGo:     {from: model.StatusAwaitingClientDecision, to: model.StatusClientGoodToGo, role: model.RoleClient},
	EventRequestCall:  {from: model.StatusAwaitingClientDecision, to: model.StatusAECallRequested, role: model.RoleClient},
	EventSubmitPO:     {from: model.StatusClientGoodToGo, to: model.StatusPendingVerification, role: model.RoleClient},
	EventVerify:       {from: model.StatusPendingVerification, to: model.StatusVerified, role: model.RoleVerifier},
	EventReject:       {from: model.StatusPendingVerification, to: model.StatusRejected, role: model.RoleVerifier},
}

// Initial is the status every requirement is created in. No entity ever
// starts in any other status.
func Initial() model.RequirementStatus {
	return model.StatusPendingAEEstimate
}

// Next validates that actor may trigger ev on a requirement currently in
// current, and returns the target status. Role is checked before state so a
// caller with the wrong role learns nothing about the entity's state.
func Next(current model.RequirementStatus, ev Event, actor model.Role) (model.RequirementStatus, error) {
	e, ok := transitions[ev]
	if !ok {
		return "", ErrInvalidTransition
	}
	if actor != e.role {
		return "", ErrRoleNotAllowed
	}
	if current != e.from {
		return "", ErrInvalidTransition
	}
	return e.to, nil
}

func IsTerminal(s model.RequirementStatus) bool {
	return s == model.StatusVerified || s == model.StatusRejected
}

func ValidStatus(s model.RequirementStatus) bool {
	switch s {
	case model.StatusPendingAEEstimate,
		model.StatusAwaitingClientDecision,
		model.StatusClientGoodToGo,
		model.StatusAECallRequested,
		model.StatusPendingVerification,
		model.StatusVerified,
		model.StatusRejected:
		return true
	}
	return false
}

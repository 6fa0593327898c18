package workflow

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nurpe/procureflow/internal/model"
)

func TestNextValidEdges(t *testing.T) {
	tests := []struct {
		name    string
		current model.RequirementStatus
		event   Event
		actor   model.Role
		want    model.RequirementStatus
	}{
		{"create", "", EventCreate, model.RoleClient, model.StatusPendingAEEstimate},
		{"send estimate", model.StatusPendingAEEstimate, EventSendEstimate, model.RoleAE, model.StatusAwaitingClientDecision},
		{"good to go", model.StatusAwaitingClientDecision, EventGoodToGo, model.RoleClient, model.StatusClientGoodToGo},
		{"request call", model.StatusAwaitingClientDecision, EventRequestCall, model.RoleClient, model.StatusAECallRequested},
		{"submit po", model.StatusClientGoodToGo, EventSubmitPO, model.RoleClient, model.StatusPendingVerification},
		{"verify", model.StatusPendingVerification, EventVerify, model.RoleVerifier, model.StatusVerified},
		{"reject", model.StatusPendingVerification, EventReject, model.RoleVerifier, model.StatusRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(tt.current, tt.event, tt.actor)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNextRejectsWrongRole(t *testing.T) {
	tests := []struct {
		name    string
		current model.RequirementStatus
		event   Event
		actor   model.Role
	}{
		{"ae cannot create", "", EventCreate, model.RoleAE},
		{"client cannot estimate", model.StatusPendingAEEstimate, EventSendEstimate, model.RoleClient},
		{"verifier cannot decide for client", model.StatusAwaitingClientDecision, EventGoodToGo, model.RoleVerifier},
		{"client cannot verify", model.StatusPendingVerification, EventVerify, model.RoleClient},
		{"admin cannot reject", model.StatusPendingVerification, EventReject, model.RoleAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Next(tt.current, tt.event, tt.actor)
			require.ErrorIs(t, err, ErrRoleNotAllowed)
		})
	}
}

func TestNextRejectsWrongSourceState(t *testing.T) {
	tests := []struct {
		name    string
		current model.RequirementStatus
		event   Event
		actor   model.Role
	}{
		{"no skipping to verified", model.StatusPendingAEEstimate, EventVerify, model.RoleVerifier},
		{"no estimate twice", model.StatusAwaitingClientDecision, EventSendEstimate, model.RoleAE},
		{"no po before decision", model.StatusAwaitingClientDecision, EventSubmitPO, model.RoleClient},
		{"no po after call request", model.StatusAECallRequested, EventSubmitPO, model.RoleClient},
		{"terminal verified", model.StatusVerified, EventReject, model.RoleVerifier},
		{"terminal rejected", model.StatusRejected, EventGoodToGo, model.RoleClient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Next(tt.current, tt.event, tt.actor)
			require.ErrorIs(t, err, ErrInvalidTransition)
		})
	}
}

func TestNextRoleCheckedBeforeState(t *testing.T) {
	// wrong role and wrong state at once must report the role failure
	_, err := Next(model.StatusVerified, EventSendEstimate, model.RoleClient)
	require.ErrorIs(t, err, ErrRoleNotAllowed)
}

func TestEveryEdgeTargetsValidStatus(t *testing.T) {
	for ev, e := range transitions {
		require.True(t, ValidStatus(e.to), "event %s targets unknown status %s", ev, e.to)
		if e.from != "" {
			require.True(t, ValidStatus(e.from), "event %s fires from unknown status %s", ev, e.from)
		}
		require.False(t, IsTerminal(e.from), "event %s fires from terminal status %s", ev, e.from)
	}
}

func TestInitial(t *testing.T) {
	require.Equal(t, model.StatusPendingAEEstimate, Initial())
	require.False(t, IsTerminal(Initial()))
}

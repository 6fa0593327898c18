package repository

import (
	"github.com/google/uuid"

	"github.com/nurpe/procureflow/internal/model"
)

// RequirementFilter narrows ListRequirements. The zero value lists everything.
type RequirementFilter struct {
	OwnerID  *uuid.UUID
	Statuses []model.RequirementStatus
}

// POFilter narrows ListPurchaseOrders. The zero value lists everything.
type POFilter struct {
	RequirementID *uuid.UUID
	Status        *model.POStatus
}

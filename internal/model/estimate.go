package model

import (
	"time"

	"github.com/google/uuid"
)

type BreakdownItem struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

type Estimate struct {
	ID            uuid.UUID       `json:"id"`
	RequirementID uuid.UUID       `json:"requirement_id"`
	Amount        float64         `json:"amount"`
	Currency      string          `json:"currency"`
	Breakdown     []BreakdownItem `json:"breakdown"`
	Notes         string          `json:"notes"`
	CreatedBy     uuid.UUID       `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

package service

import (
	"context"
	"fmt"

	"github.com/nurpe/procureflow/internal/model"
	"github.com/nurpe/procureflow/internal/repository"
	"github.com/nurpe/procureflow/internal/workflow"
)

type SeedResult struct {
	Requirements   int  `json:"requirements"`
	Estimates      int  `json:"estimates"`
	PurchaseOrders int  `json:"purchase_orders"`
	Skipped        bool `json:"skipped"`
}

// SeedSamples populates demo requirements at every interesting point of the
// lifecycle, owned by the demo client and advanced through the same guarded
// store transitions as real traffic. Idempotent: a second call is a no-op.
func (s *ProcurementService) SeedSamples(ctx context.Context) (*SeedResult, error) {
	client, _ := model.DemoPrincipal(model.RoleClient)
	ae, _ := model.DemoPrincipal(model.RoleAE)

	existing, err := s.store.ListRequirements(ctx, repository.RequirementFilter{OwnerID: &client.UserID})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return &SeedResult{Skipped: true}, nil
	}

	result := &SeedResult{}

	seeds := []struct {
		reqType model.RequirementType
		subtype model.SoftwareSubtype
		details map[string]any
		target  model.RequirementStatus
	}{
		{model.RequirementTypeHardware, "", map[string]any{"name": "Rack servers", "quantity": 4}, model.StatusPendingAEEstimate},
		{model.RequirementTypeSoftware, model.SubtypeNew, map[string]any{"name": "CRM licenses", "quantity": 25}, model.StatusAwaitingClientDecision},
		{model.RequirementTypeHardware, "", map[string]any{"name": "Laptops", "quantity": 10}, model.StatusClientGoodToGo},
		{model.RequirementTypeSoftware, model.SubtypeRenewal, map[string]any{"name": "Backup suite", "quantity": 1}, model.StatusPendingVerification},
	}

	for i, seed := range seeds {
		var subtype *model.SoftwareSubtype
		if seed.subtype != "" {
			st := seed.subtype
			subtype = &st
		}
		req, err := s.store.CreateRequirement(ctx, model.Requirement{
			Type:    seed.reqType,
			Subtype: subtype,
			Details: seed.details,
			Status:  workflow.Initial(),
			OwnerID: client.UserID,
		})
		if err != nil {
			return nil, err
		}
		result.Requirements++

		if seed.target == model.StatusPendingAEEstimate {
			continue
		}

		_, err = s.store.CreateEstimate(ctx, model.Estimate{
			RequirementID: req.ID,
			Amount:        999,
			Currency:      "USD",
			Breakdown:     []model.BreakdownItem{{Label: "Item", Amount: 999}},
			Notes:         "Seeded estimate",
			CreatedBy:     ae.UserID,
		}, model.StatusPendingAEEstimate, model.StatusAwaitingClientDecision)
		if err != nil {
			return nil, err
		}
		result.Estimates++

		if seed.target == model.StatusAwaitingClientDecision {
			continue
		}

		if _, err := s.store.UpdateRequirementStatus(ctx, req.ID, model.StatusAwaitingClientDecision, model.StatusClientGoodToGo); err != nil {
			return nil, err
		}
		if seed.target == model.StatusClientGoodToGo {
			continue
		}

		_, err = s.store.CreatePurchaseOrder(ctx, model.PurchaseOrder{
			RequirementID: req.ID,
			PONumber:      fmt.Sprintf("PO-SEED-%d", i+1),
			Status:        model.POStatusPendingVerification,
			SubmittedBy:   client.UserID,
		}, model.StatusClientGoodToGo, model.StatusPendingVerification)
		if err != nil {
			return nil, err
		}
		result.PurchaseOrders++
	}

	return result, nil
}

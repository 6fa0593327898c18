package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/procureflow/internal/model"
	"github.com/nurpe/procureflow/internal/repository"
)

type ExportResult struct {
	FileName string
	Content  []byte
}

// ExportRequirements renders the full requirements register as an xlsx
// workbook. Back-office roles only.
func (s *ProcurementService) ExportRequirements(ctx context.Context, p model.Principal) (*ExportResult, error) {
	if !p.IsAdmin() && !p.IsAE() {
		return nil, ErrPermissionDenied
	}

	reqs, err := s.store.ListRequirements(ctx, repository.RequirementFilter{})
	if err != nil {
		return nil, err
	}

	rows := make([]model.RegisterRow, 0, len(reqs))
	for _, req := range reqs {
		row := model.RegisterRow{Requirement: req}

		est, err := s.store.LatestEstimate(ctx, req.ID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		row.Estimate = est

		po, err := s.latestPO(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		row.PO = po

		rows = append(rows, row)
	}

	register := model.RequirementRegister{
		GeneratedBy: p,
		GeneratedAt: time.Now().UTC(),
		Rows:        rows,
	}
	content, err := s.excel.Generate(register)
	if err != nil {
		return nil, err
	}

	return &ExportResult{
		FileName: fmt.Sprintf("requirements-register-%s.xlsx", register.GeneratedAt.Format("20060102-150405")),
		Content:  content,
	}, nil
}

// GeneratePODocument renders a purchase order as a signable PDF. Available
// to the verifier side, admins, and the submitting client.
func (s *ProcurementService) GeneratePODocument(ctx context.Context, poID uuid.UUID, p model.Principal) (*ExportResult, error) {
	po, err := s.store.GetPurchaseOrder(ctx, poID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	req, err := s.store.GetRequirement(ctx, po.RequirementID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	if !p.IsVerifier() && !p.IsAdmin() && req.OwnerID != p.UserID {
		return nil, ErrPermissionDenied
	}

	est, err := s.store.LatestEstimate(ctx, req.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	content, err := s.pdf.Generate(model.PODocument{
		PO:          *po,
		Requirement: *req,
		Estimate:    est,
	})
	if err != nil {
		return nil, err
	}

	name := sanitizeFileName(po.PONumber)
	if name == "" {
		name = po.ID.String()
	}
	return &ExportResult{
		FileName: fmt.Sprintf("po-%s.pdf", name),
		Content:  content,
	}, nil
}

func (s *ProcurementService) latestPO(ctx context.Context, requirementID uuid.UUID) (*model.PurchaseOrder, error) {
	pos, err := s.store.ListPurchaseOrders(ctx, repository.POFilter{RequirementID: &requirementID})
	if err != nil {
		return nil, err
	}
	if len(pos) == 0 {
		return nil, nil
	}
	return &pos[0], nil
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}

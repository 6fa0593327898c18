package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/procureflow/internal/model"
)

// WorkflowRepository persists requirements, estimates and purchase orders in
// Postgres. Every status transition is a compare-and-swap on the source
// status inside a transaction, so a racing writer loses with ErrStaleState
// instead of double-applying.
type WorkflowRepository struct {
	db *gorm.DB
}

func NewWorkflowRepository(db *gorm.DB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

type requirementRow struct {
	ID        uuid.UUID
	Type      string
	Subtype   *string
	Details   []byte
	Status    string
	OwnerID   uuid.UUID
	CreatedAt time.Time
}

type estimateRow struct {
	ID            uuid.UUID
	RequirementID uuid.UUID
	Amount        float64
	Currency      string
	Breakdown     []byte
	Notes         string
	CreatedBy     uuid.UUID
	CreatedAt     time.Time
}

const requirementColumns = `id, type, subtype, details, status, owner_id, created_at`
const estimateColumns = `id, requirement_id, amount, currency, breakdown, notes, created_by, created_at`
const poColumns = `id, requirement_id, po_number, status, submitted_by, reviewed_by, decision_at, created_at`

func (r *WorkflowRepository) CreateRequirement(ctx context.Context, req model.Requirement) (*model.Requirement, error) {
	details, err := json.Marshal(req.Details)
	if err != nil {
		return nil, fmt.Errorf("marshal details: %w", err)
	}

	var subtype *string
	if req.Subtype != nil {
		s := string(*req.Subtype)
		subtype = &s
	}

	var row requirementRow
	err = r.db.WithContext(ctx).Raw(`
		INSERT INTO requirements (type, subtype, details, status, owner_id)
		VALUES (?, ?, ?, ?, ?)
		RETURNING `+requirementColumns+`
	`, req.Type, subtype, details, req.Status, req.OwnerID).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return rowToRequirement(row)
}

func (r *WorkflowRepository) GetRequirement(ctx context.Context, id uuid.UUID) (*model.Requirement, error) {
	var row requirementRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+requirementColumns+`
		FROM requirements
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, ErrNotFound
	}
	return rowToRequirement(row)
}

func (r *WorkflowRepository) ListRequirements(ctx context.Context, filter RequirementFilter) ([]model.Requirement, error) {
	query := `SELECT ` + requirementColumns + ` FROM requirements`
	var clauses []string
	var args []interface{}

	if filter.OwnerID != nil {
		clauses = append(clauses, "owner_id = ?")
		args = append(args, *filter.OwnerID)
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY created_at DESC"

	var rows []requirementRow
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]model.Requirement, 0, len(rows))
	for _, row := range rows {
		req, err := rowToRequirement(row)
		if err != nil {
			return nil, err
		}
		result = append(result, *req)
	}
	return result, nil
}

func (r *WorkflowRepository) UpdateRequirementStatus(ctx context.Context, id uuid.UUID, from, to model.RequirementStatus) (*model.Requirement, error) {
	var updated *model.Requirement
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := casRequirementStatus(tx, id, from, to)
		if err != nil {
			return err
		}
		updated, err = rowToRequirement(*row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *WorkflowRepository) CreateEstimate(ctx context.Context, est model.Estimate, from, to model.RequirementStatus) (*model.Estimate, error) {
	breakdown, err := json.Marshal(est.Breakdown)
	if err != nil {
		return nil, fmt.Errorf("marshal breakdown: %w", err)
	}

	var saved *model.Estimate
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := casRequirementStatus(tx, est.RequirementID, from, to); err != nil {
			return err
		}

		var row estimateRow
		err := tx.Raw(`
			INSERT INTO estimates (requirement_id, amount, currency, breakdown, notes, created_by)
			VALUES (?, ?, ?, ?, ?, ?)
			RETURNING `+estimateColumns+`
		`, est.RequirementID, est.Amount, est.Currency, breakdown, est.Notes, est.CreatedBy).Scan(&row).Error
		if err != nil {
			return err
		}
		saved, err = rowToEstimate(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *WorkflowRepository) LatestEstimate(ctx context.Context, requirementID uuid.UUID) (*model.Estimate, error) {
	var row estimateRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+estimateColumns+`
		FROM estimates
		WHERE requirement_id = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, requirementID).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, ErrNotFound
	}
	return rowToEstimate(row)
}

func (r *WorkflowRepository) CreatePurchaseOrder(ctx context.Context, po model.PurchaseOrder, from, to model.RequirementStatus) (*model.PurchaseOrder, error) {
	var saved model.PurchaseOrder
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists bool
		err := tx.Raw(`
			SELECT EXISTS (
				SELECT 1 FROM purchase_orders
				WHERE requirement_id = ? AND po_number = ?
			)
		`, po.RequirementID, po.PONumber).Scan(&exists).Error
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicatePONumber
		}

		if _, err := casRequirementStatus(tx, po.RequirementID, from, to); err != nil {
			return err
		}

		return tx.Raw(`
			INSERT INTO purchase_orders (requirement_id, po_number, status, submitted_by)
			VALUES (?, ?, ?, ?)
			RETURNING `+poColumns+`
		`, po.RequirementID, po.PONumber, po.Status, po.SubmittedBy).Scan(&saved).Error
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *WorkflowRepository) GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+poColumns+`
		FROM purchase_orders
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&po).Error
	if err != nil {
		return nil, err
	}
	if po.ID == uuid.Nil {
		return nil, ErrNotFound
	}
	return &po, nil
}

func (r *WorkflowRepository) ListPurchaseOrders(ctx context.Context, filter POFilter) ([]model.PurchaseOrder, error) {
	query := `SELECT ` + poColumns + ` FROM purchase_orders`
	var clauses []string
	var args []interface{}

	if filter.RequirementID != nil {
		clauses = append(clauses, "requirement_id = ?")
		args = append(args, *filter.RequirementID)
	}
	if filter.Status != nil {
		clauses = append(clauses, "status = ?")
		args = append(args, string(*filter.Status))
	}
	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY created_at DESC"

	var pos []model.PurchaseOrder
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&pos).Error; err != nil {
		return nil, err
	}
	return pos, nil
}

func (r *WorkflowRepository) ReviewPurchaseOrder(ctx context.Context, id uuid.UUID, poStatus model.POStatus, reqStatus model.RequirementStatus, reviewer uuid.UUID, at time.Time) (*model.PurchaseOrder, error) {
	var saved model.PurchaseOrder
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Raw(`
			UPDATE purchase_orders
			SET status = ?, reviewed_by = ?, decision_at = ?
			WHERE id = ? AND status = ?
			RETURNING `+poColumns+`
		`, poStatus, reviewer, at, id, model.POStatusPendingVerification).Scan(&saved).Error
		if err != nil {
			return err
		}
		if saved.ID == uuid.Nil {
			return ErrStaleState
		}

		_, err = casRequirementStatus(tx, saved.RequirementID, model.StatusPendingVerification, reqStatus)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// casRequirementStatus flips a requirement from one status to another,
// failing with ErrStaleState when the row is no longer in the source status.
func casRequirementStatus(tx *gorm.DB, id uuid.UUID, from, to model.RequirementStatus) (*requirementRow, error) {
	var row requirementRow
	err := tx.Raw(`
		UPDATE requirements
		SET status = ?
		WHERE id = ? AND status = ?
		RETURNING `+requirementColumns+`
	`, to, id, from).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, ErrStaleState
	}
	return &row, nil
}

func rowToRequirement(row requirementRow) (*model.Requirement, error) {
	var details map[string]any
	if len(row.Details) > 0 {
		if err := json.Unmarshal(row.Details, &details); err != nil {
			return nil, fmt.Errorf("unmarshal details: %w", err)
		}
	}

	var subtype *model.SoftwareSubtype
	if row.Subtype != nil {
		s := model.SoftwareSubtype(*row.Subtype)
		subtype = &s
	}

	return &model.Requirement{
		ID:        row.ID,
		Type:      model.RequirementType(row.Type),
		Subtype:   subtype,
		Details:   details,
		Status:    model.RequirementStatus(row.Status),
		OwnerID:   row.OwnerID,
		CreatedAt: row.CreatedAt,
	}, nil
}

func rowToEstimate(row estimateRow) (*model.Estimate, error) {
	var breakdown []model.BreakdownItem
	if len(row.Breakdown) > 0 {
		if err := json.Unmarshal(row.Breakdown, &breakdown); err != nil {
			return nil, fmt.Errorf("unmarshal breakdown: %w", err)
		}
	}

	return &model.Estimate{
		ID:            row.ID,
		RequirementID: row.RequirementID,
		Amount:        row.Amount,
		Currency:      row.Currency,
		Breakdown:     breakdown,
		Notes:         row.Notes,
		CreatedBy:     row.CreatedBy,
		CreatedAt:     row.CreatedAt,
	}, nil
}

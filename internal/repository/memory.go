package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/procureflow/internal/model"
)

// MemoryStore is a mutex-guarded in-memory implementation of the same store
// contract as WorkflowRepository. It backs tests and DB-less development
// runs, with the same compare-and-swap semantics on status transitions.
type MemoryStore struct {
	mu           sync.RWMutex
	requirements map[uuid.UUID]model.Requirement
	estimates    map[uuid.UUID]model.Estimate
	orders       map[uuid.UUID]model.PurchaseOrder
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		requirements: make(map[uuid.UUID]model.Requirement),
		estimates:    make(map[uuid.UUID]model.Estimate),
		orders:       make(map[uuid.UUID]model.PurchaseOrder),
	}
}

func (s *MemoryStore) CreateRequirement(_ context.Context, req model.Requirement) (*model.Requirement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req.ID = uuid.New()
	req.CreatedAt = time.Now().UTC()
	s.requirements[req.ID] = copyRequirement(req)
	return &req, nil
}

func (s *MemoryStore) GetRequirement(_ context.Context, id uuid.UUID) (*model.Requirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requirements[id]
	if !ok {
		return nil, ErrNotFound
	}
	req = copyRequirement(req)
	return &req, nil
}

func (s *MemoryStore) ListRequirements(_ context.Context, filter RequirementFilter) ([]model.Requirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.Requirement, 0, len(s.requirements))
	for _, req := range s.requirements {
		if filter.OwnerID != nil && req.OwnerID != *filter.OwnerID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, req.Status) {
			continue
		}
		result = append(result, copyRequirement(req))
	}
	sortRequirements(result)
	return result, nil
}

func (s *MemoryStore) UpdateRequirementStatus(_ context.Context, id uuid.UUID, from, to model.RequirementStatus) (*model.Requirement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.casRequirementStatus(id, from, to)
	if err != nil {
		return nil, err
	}
	out := copyRequirement(*req)
	return &out, nil
}

func (s *MemoryStore) CreateEstimate(_ context.Context, est model.Estimate, from, to model.RequirementStatus) (*model.Estimate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.casRequirementStatus(est.RequirementID, from, to); err != nil {
		return nil, err
	}

	est.ID = uuid.New()
	est.CreatedAt = time.Now().UTC()
	s.estimates[est.ID] = copyEstimate(est)
	return &est, nil
}

func (s *MemoryStore) LatestEstimate(_ context.Context, requirementID uuid.UUID) (*model.Estimate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *model.Estimate
	for _, est := range s.estimates {
		if est.RequirementID != requirementID {
			continue
		}
		if latest == nil || est.CreatedAt.After(latest.CreatedAt) {
			e := copyEstimate(est)
			latest = &e
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}

func (s *MemoryStore) CreatePurchaseOrder(_ context.Context, po model.PurchaseOrder, from, to model.RequirementStatus) (*model.PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.orders {
		if existing.RequirementID == po.RequirementID && existing.PONumber == po.PONumber {
			return nil, ErrDuplicatePONumber
		}
	}

	if _, err := s.casRequirementStatus(po.RequirementID, from, to); err != nil {
		return nil, err
	}

	po.ID = uuid.New()
	po.CreatedAt = time.Now().UTC()
	s.orders[po.ID] = po
	return &po, nil
}

func (s *MemoryStore) GetPurchaseOrder(_ context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	po, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &po, nil
}

func (s *MemoryStore) ListPurchaseOrders(_ context.Context, filter POFilter) ([]model.PurchaseOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.PurchaseOrder, 0, len(s.orders))
	for _, po := range s.orders {
		if filter.RequirementID != nil && po.RequirementID != *filter.RequirementID {
			continue
		}
		if filter.Status != nil && po.Status != *filter.Status {
			continue
		}
		result = append(result, po)
	}
	sortPurchaseOrders(result)
	return result, nil
}

func (s *MemoryStore) ReviewPurchaseOrder(_ context.Context, id uuid.UUID, poStatus model.POStatus, reqStatus model.RequirementStatus, reviewer uuid.UUID, at time.Time) (*model.PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	po, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	if po.Status != model.POStatusPendingVerification {
		return nil, ErrStaleState
	}

	if _, err := s.casRequirementStatus(po.RequirementID, model.StatusPendingVerification, reqStatus); err != nil {
		return nil, err
	}

	po.Status = poStatus
	po.ReviewedBy = &reviewer
	po.DecisionAt = &at
	s.orders[id] = po
	return &po, nil
}

func (s *MemoryStore) casRequirementStatus(id uuid.UUID, from, to model.RequirementStatus) (*model.Requirement, error) {
	req, ok := s.requirements[id]
	if !ok {
		return nil, ErrStaleState
	}
	if req.Status != from {
		return nil, ErrStaleState
	}
	req.Status = to
	s.requirements[id] = req
	return &req, nil
}

func copyRequirement(req model.Requirement) model.Requirement {
	if req.Details != nil {
		details := make(map[string]any, len(req.Details))
		for k, v := range req.Details {
			details[k] = v
		}
		req.Details = details
	}
	if req.Subtype != nil {
		subtype := *req.Subtype
		req.Subtype = &subtype
	}
	return req
}

func copyEstimate(est model.Estimate) model.Estimate {
	if est.Breakdown != nil {
		breakdown := make([]model.BreakdownItem, len(est.Breakdown))
		copy(breakdown, est.Breakdown)
		est.Breakdown = breakdown
	}
	return est
}

func containsStatus(statuses []model.RequirementStatus, status model.RequirementStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func sortRequirements(reqs []model.Requirement) {
	sort.Slice(reqs, func(i, j int) bool {
		return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
	})
}

func sortPurchaseOrders(pos []model.PurchaseOrder) {
	sort.Slice(pos, func(i, j int) bool {
		return pos[i].CreatedAt.After(pos[j].CreatedAt)
	})
}

package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/procureflow/internal/config"
	"github.com/nurpe/procureflow/internal/model"
	"github.com/nurpe/procureflow/internal/repository"
	"github.com/nurpe/procureflow/internal/workflow"
)

// Store is the persistence contract the gateway mutates through. Both the
// Postgres repository and the in-memory store implement it. Transition
// methods take the expected source status and fail with
// repository.ErrStaleState when the entity has already moved on.
type Store interface {
	CreateRequirement(ctx context.Context, req model.Requirement) (*model.Requirement, error)
	GetRequirement(ctx context.Context, id uuid.UUID) (*model.Requirement, error)
	ListRequirements(ctx context.Context, filter repository.RequirementFilter) ([]model.Requirement, error)
	UpdateRequirementStatus(ctx context.Context, id uuid.UUID, from, to model.RequirementStatus) (*model.Requirement, error)
	CreateEstimate(ctx context.Context, est model.Estimate, from, to model.RequirementStatus) (*model.Estimate, error)
	LatestEstimate(ctx context.Context, requirementID uuid.UUID) (*model.Estimate, error)
	CreatePurchaseOrder(ctx context.Context, po model.PurchaseOrder, from, to model.RequirementStatus) (*model.PurchaseOrder, error)
	GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context, filter repository.POFilter) ([]model.PurchaseOrder, error)
	ReviewPurchaseOrder(ctx context.Context, id uuid.UUID, poStatus model.POStatus, reqStatus model.RequirementStatus, reviewer uuid.UUID, at time.Time) (*model.PurchaseOrder, error)
}

type ExcelGenerator interface {
	Generate(register model.RequirementRegister) ([]byte, error)
}

type PDFGenerator interface {
	Generate(doc model.PODocument) ([]byte, error)
}

// ProcurementService is the workflow gateway: it validates role and state
// preconditions against the lifecycle engine, then applies each transition as
// a single atomic store commit.
type ProcurementService struct {
	store      Store
	excel      ExcelGenerator
	pdf        PDFGenerator
	currencies map[string]struct{}
}

func NewProcurementService(store Store, excel ExcelGenerator, pdf PDFGenerator, cfg *config.Config) *ProcurementService {
	currencies := make(map[string]struct{}, len(cfg.Procurement.AllowedCurrencies))
	for _, c := range cfg.Procurement.AllowedCurrencies {
		currencies[strings.ToUpper(c)] = struct{}{}
	}
	return &ProcurementService{
		store:      store,
		excel:      excel,
		pdf:        pdf,
		currencies: currencies,
	}
}

type CreateRequirementInput struct {
	Type      string
	Subtype   string
	Details   map[string]any
	Principal model.Principal
}

func (s *ProcurementService) CreateRequirement(ctx context.Context, input CreateRequirementInput) (*model.Requirement, error) {
	if _, err := workflow.Next("", workflow.EventCreate, input.Principal.Role); err != nil {
		return nil, mapEngineErr(err)
	}

	reqType, ok := model.ParseRequirementType(input.Type)
	if !ok {
		return nil, fmt.Errorf("%w: type must be hardware or software", ErrInvalidInput)
	}

	var subtype *model.SoftwareSubtype
	switch reqType {
	case model.RequirementTypeSoftware:
		parsed, ok := model.ParseSoftwareSubtype(input.Subtype)
		if !ok {
			return nil, fmt.Errorf("%w: software requirements need subtype new, renewal or upgrade", ErrInvalidInput)
		}
		subtype = &parsed
	case model.RequirementTypeHardware:
		if strings.TrimSpace(input.Subtype) != "" {
			return nil, fmt.Errorf("%w: subtype is only valid for software requirements", ErrInvalidInput)
		}
	}

	return s.store.CreateRequirement(ctx, model.Requirement{
		Type:    reqType,
		Subtype: subtype,
		Details: input.Details,
		Status:  workflow.Initial(),
		OwnerID: input.Principal.UserID,
	})
}

// ListRequirements returns only what the actor is entitled to see: clients
// their own requirements, verifiers the ones with a PO awaiting review, AE
// and admin everything.
func (s *ProcurementService) ListRequirements(ctx context.Context, p model.Principal) ([]model.Requirement, error) {
	switch p.Role {
	case model.RoleClient:
		return s.store.ListRequirements(ctx, repository.RequirementFilter{OwnerID: &p.UserID})
	case model.RoleAE, model.RoleAdmin:
		return s.store.ListRequirements(ctx, repository.RequirementFilter{})
	case model.RoleVerifier:
		return s.store.ListRequirements(ctx, repository.RequirementFilter{
			Statuses: []model.RequirementStatus{model.StatusPendingVerification},
		})
	default:
		return nil, ErrPermissionDenied
	}
}

type SubmitEstimateInput struct {
	RequirementID uuid.UUID
	Amount        float64
	Currency      string
	Breakdown     []model.BreakdownItem
	Notes         string
	Principal     model.Principal
}

func (s *ProcurementService) SubmitEstimate(ctx context.Context, input SubmitEstimateInput) (*model.Estimate, error) {
	if input.Amount < 0 {
		return nil, fmt.Errorf("%w: amount must be non-negative", ErrInvalidInput)
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if _, ok := s.currencies[currency]; !ok {
		return nil, fmt.Errorf("%w: currency %q is not allowed", ErrInvalidInput, input.Currency)
	}
	if len(input.Breakdown) > 0 {
		var sum float64
		for _, item := range input.Breakdown {
			if item.Amount < 0 {
				return nil, fmt.Errorf("%w: breakdown amounts must be non-negative", ErrInvalidInput)
			}
			sum += item.Amount
		}
		if math.Abs(sum-input.Amount) > 0.005 {
			return nil, fmt.Errorf("%w: amount must equal the sum of breakdown items", ErrInvalidInput)
		}
	}

	req, err := s.store.GetRequirement(ctx, input.RequirementID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	to, err := workflow.Next(req.Status, workflow.EventSendEstimate, input.Principal.Role)
	if err != nil {
		return nil, s.mapEstimateErr(ctx, err, *req)
	}

	est, err := s.store.CreateEstimate(ctx, model.Estimate{
		RequirementID: req.ID,
		Amount:        input.Amount,
		Currency:      currency,
		Breakdown:     input.Breakdown,
		Notes:         input.Notes,
		CreatedBy:     input.Principal.UserID,
	}, req.Status, to)
	if err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			// lost the race: re-read to tell a duplicate from any other move
			current, getErr := s.store.GetRequirement(ctx, req.ID)
			if getErr == nil {
				return nil, s.mapEstimateErr(ctx, workflow.ErrInvalidTransition, *current)
			}
			return nil, ErrInvalidState
		}
		return nil, mapStoreErr(err)
	}
	return est, nil
}

// mapEstimateErr distinguishes a second estimate on an already-estimated
// requirement from every other bad-state submission.
func (s *ProcurementService) mapEstimateErr(ctx context.Context, err error, req model.Requirement) error {
	if !errors.Is(err, workflow.ErrInvalidTransition) {
		return mapEngineErr(err)
	}
	if req.Status == model.StatusAwaitingClientDecision {
		if _, estErr := s.store.LatestEstimate(ctx, req.ID); estErr == nil {
			return ErrDuplicateEstimate
		}
	}
	return ErrInvalidState
}

type ClientActionInput struct {
	RequirementID uuid.UUID
	Action        string
	Principal     model.Principal
}

func (s *ProcurementService) ClientAction(ctx context.Context, input ClientActionInput) (*model.Requirement, error) {
	var ev workflow.Event
	switch input.Action {
	case "good_to_go":
		ev = workflow.EventGoodToGo
	case "request_call":
		ev = workflow.EventRequestCall
	default:
		return nil, fmt.Errorf("%w: action must be good_to_go or request_call", ErrInvalidInput)
	}

	req, err := s.store.GetRequirement(ctx, input.RequirementID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	to, err := workflow.Next(req.Status, ev, input.Principal.Role)
	if err != nil {
		return nil, mapEngineErr(err)
	}
	if req.OwnerID != input.Principal.UserID {
		return nil, ErrPermissionDenied
	}

	updated, err := s.store.UpdateRequirementStatus(ctx, req.ID, req.Status, to)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return updated, nil
}

type SubmitPOInput struct {
	RequirementID uuid.UUID
	PONumber      string
	Principal     model.Principal
}

func (s *ProcurementService) SubmitPO(ctx context.Context, input SubmitPOInput) (*model.PurchaseOrder, error) {
	poNumber := strings.TrimSpace(input.PONumber)
	if poNumber == "" {
		return nil, fmt.Errorf("%w: po_number is required", ErrInvalidInput)
	}

	req, err := s.store.GetRequirement(ctx, input.RequirementID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	to, err := workflow.Next(req.Status, workflow.EventSubmitPO, input.Principal.Role)
	if err != nil {
		return nil, mapEngineErr(err)
	}
	if req.OwnerID != input.Principal.UserID {
		return nil, ErrPermissionDenied
	}

	po, err := s.store.CreatePurchaseOrder(ctx, model.PurchaseOrder{
		RequirementID: req.ID,
		PONumber:      poNumber,
		Status:        model.POStatusPendingVerification,
		SubmittedBy:   input.Principal.UserID,
	}, req.Status, to)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return po, nil
}

func (s *ProcurementService) ListPendingPOs(ctx context.Context, p model.Principal) ([]model.PurchaseOrder, error) {
	if !p.IsVerifier() && !p.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	status := model.POStatusPendingVerification
	return s.store.ListPurchaseOrders(ctx, repository.POFilter{Status: &status})
}

type ReviewPOInput struct {
	POID      uuid.UUID
	Decision  string
	Principal model.Principal
}

func (s *ProcurementService) ReviewPO(ctx context.Context, input ReviewPOInput) (*model.PurchaseOrder, error) {
	decision, ok := model.ParsePODecision(input.Decision)
	if !ok {
		return nil, fmt.Errorf("%w: decision must be verified or rejected", ErrInvalidInput)
	}
	ev := workflow.EventVerify
	poStatus := model.POStatusVerified
	if decision == model.PODecisionRejected {
		ev = workflow.EventReject
		poStatus = model.POStatusRejected
	}

	po, err := s.store.GetPurchaseOrder(ctx, input.POID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	req, err := s.store.GetRequirement(ctx, po.RequirementID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	reqStatus, err := workflow.Next(req.Status, ev, input.Principal.Role)
	if err != nil {
		return nil, mapEngineErr(err)
	}

	reviewed, err := s.store.ReviewPurchaseOrder(ctx, po.ID, poStatus, reqStatus, input.Principal.UserID, time.Now().UTC())
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return reviewed, nil
}

func mapEngineErr(err error) error {
	switch {
	case errors.Is(err, workflow.ErrRoleNotAllowed):
		return ErrPermissionDenied
	case errors.Is(err, workflow.ErrInvalidTransition):
		return ErrInvalidState
	default:
		return err
	}
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrStaleState):
		return ErrInvalidState
	case errors.Is(err, repository.ErrDuplicatePONumber):
		return ErrDuplicatePONumber
	default:
		return err
	}
}

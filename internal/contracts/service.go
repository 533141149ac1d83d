package contracts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"contract-platform/contract-portal-backend/internal/apperr"
	"contract-platform/contract-portal-backend/internal/auth"
)

// Auditor records business events. Implementations are best-effort: a
// failed audit write never fails the triggering operation.
type Auditor interface {
	Record(ctx context.Context, actor, action, entityType, entityID, detail string)
}

type CreateRequest struct {
	ContractNo     string     `json:"contract_no" binding:"required"`
	ContractName   string     `json:"contract_name" binding:"required"`
	ProjectName    string     `json:"project_name" binding:"required"`
	OwnerOrg       string     `json:"owner_org" binding:"required"`
	ContractorOrg  string     `json:"contractor_org" binding:"required"`
	TenderPrice    float64    `json:"tender_price" binding:"required"`
	ContractPrice  float64    `json:"contract_price" binding:"required"`
	ApprovedBudget float64    `json:"approved_budget" binding:"required"`
	Clauses        *string    `json:"clauses,omitempty"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
}

type UpdateRequest struct {
	ContractName   *string    `json:"contract_name,omitempty"`
	ProjectName    *string    `json:"project_name,omitempty"`
	ApprovedBudget *float64   `json:"approved_budget,omitempty"`
	Clauses        *string    `json:"clauses,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
}

type Service struct {
	repo    Repository
	auditor Auditor
	logger  *zap.Logger
}

func NewService(repo Repository, auditor Auditor, logger *zap.Logger) *Service {
	return &Service{repo: repo, auditor: auditor, logger: logger}
}

func (s *Service) Create(ctx context.Context, actor auth.Identity, req CreateRequest) (*Contract, error) {
	existing, err := s.repo.GetByNo(ctx, req.ContractNo)
	if err != nil {
		return nil, fmt.Errorf("failed to check contract number: %w", err)
	}
	if existing != nil {
		return nil, apperr.Validationf("contract number %s already exists", req.ContractNo)
	}
	if err := EnforcePriceEqualsTender(req.TenderPrice, req.ContractPrice); err != nil {
		return nil, err
	}

	c := &Contract{
		ContractNo:      req.ContractNo,
		ContractName:    req.ContractName,
		ProjectName:     req.ProjectName,
		OwnerOrg:        req.OwnerOrg,
		ContractorOrg:   req.ContractorOrg,
		TenderPrice:     req.TenderPrice,
		ContractPrice:   req.ContractPrice,
		PerformanceBond: PerformanceBond(req.TenderPrice),
		ApprovedBudget:  req.ApprovedBudget,
		Clauses:         req.Clauses,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Status:          StatusDraft,
		CreatedBy:       actor.Username,
		CreatedAt:       time.Now(),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create contract: %w", err)
	}
	s.auditor.Record(ctx, actor.Username, "CREATE", "Contract", fmt.Sprint(c.ID),
		fmt.Sprintf("create contract %s", c.ContractNo))
	return c, nil
}

// CanView applies the visibility rule: owner-side roles see everything,
// contractors only contracts of their own organisation.
func CanView(identity auth.Identity, c *Contract) bool {
	if identity.IsOwnerSide() {
		return true
	}
	if identity.Role == auth.RoleContractor {
		return identity.Company == nil || c.ContractorOrg == *identity.Company
	}
	return false
}

func (s *Service) List(ctx context.Context, identity auth.Identity) ([]Contract, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	visible := make([]Contract, 0, len(items))
	for i := range items {
		if CanView(identity, &items[i]) {
			visible = append(visible, items[i])
		}
	}
	return visible, nil
}

func (s *Service) Get(ctx context.Context, identity auth.Identity, id uint) (*Contract, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}
	if c == nil {
		return nil, apperr.NotFoundf("contract %d not found", id)
	}
	if !CanView(identity, c) {
		return nil, apperr.Forbiddenf("not allowed to view contract %d", id)
	}
	return c, nil
}

func (s *Service) Update(ctx context.Context, actor auth.Identity, id uint, req UpdateRequest) (*Contract, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}
	if c == nil {
		return nil, apperr.NotFoundf("contract %d not found", id)
	}
	if req.ContractName != nil {
		c.ContractName = *req.ContractName
	}
	if req.ProjectName != nil {
		c.ProjectName = *req.ProjectName
	}
	if req.ApprovedBudget != nil {
		c.ApprovedBudget = *req.ApprovedBudget
	}
	if req.Clauses != nil {
		c.Clauses = req.Clauses
	}
	if req.EndDate != nil {
		c.EndDate = req.EndDate
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to update contract: %w", err)
	}
	s.auditor.Record(ctx, actor.Username, "UPDATE", "Contract", fmt.Sprint(c.ID), "update contract")
	return c, nil
}

// Submit moves a draft contract to ACTIVE. Contracts flagged with
// unresolved high-risk clauses cannot be submitted.
func (s *Service) Submit(ctx context.Context, actor auth.Identity, id uint) (*Contract, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}
	if c == nil {
		return nil, apperr.NotFoundf("contract %d not found", id)
	}
	if c.Status != StatusDraft {
		return nil, apperr.InvalidStatef("contract %d is %s, only drafts can be submitted", id, c.Status)
	}
	if c.Clauses != nil && strings.Contains(strings.ToUpper(*c.Clauses), "HIGH RISK") {
		return nil, apperr.Validationf("contract has unresolved high-risk clauses, revise before submitting")
	}
	c.Status = StatusActive
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to activate contract: %w", err)
	}
	s.auditor.Record(ctx, actor.Username, "SUBMIT", "Contract", fmt.Sprint(c.ID), "submit contract -> ACTIVE")
	return c, nil
}

// Archive retires a contract. Archived contracts keep their history;
// nothing is deleted.
func (s *Service) Archive(ctx context.Context, actor auth.Identity, id uint) (*Contract, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}
	if c == nil {
		return nil, apperr.NotFoundf("contract %d not found", id)
	}
	if c.Status != StatusActive {
		return nil, apperr.InvalidStatef("contract %d is %s, only active contracts can be archived", id, c.Status)
	}
	c.Status = StatusArchived
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to archive contract: %w", err)
	}
	s.auditor.Record(ctx, actor.Username, "ARCHIVE", "Contract", fmt.Sprint(c.ID), "archive contract")
	return c, nil
}

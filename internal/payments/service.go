package payments

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"contract-platform/contract-portal-backend/internal/apperr"
	"contract-platform/contract-portal-backend/internal/auth"
	"contract-platform/contract-portal-backend/internal/codes"
	"contract-platform/contract-portal-backend/internal/contracts"
)

// ceilingEpsilon absorbs floating-point rounding when comparing a request
// against the ceiling.
const ceilingEpsilon = 1e-6

type Notifier interface {
	Notify(ctx context.Context, toUser, title, content string)
}

type Auditor interface {
	Record(ctx context.Context, actor, action, entityType, entityID, detail string)
}

type SubmitRequest struct {
	ContractID   uint    `json:"contract_id" binding:"required"`
	Amount       float64 `json:"amount" binding:"required"`
	Purpose      string  `json:"purpose" binding:"required"`
	ProgressDesc string  `json:"progress_desc"`
	Period       string  `json:"period"`
}

type Service struct {
	repo     Repository
	codes    *codes.Generator
	notifier Notifier
	auditor  Auditor
	logger   *zap.Logger
}

func NewService(repo Repository, gen *codes.Generator, notifier Notifier, auditor Auditor, logger *zap.Logger) *Service {
	return &Service{repo: repo, codes: gen, notifier: notifier, auditor: auditor, logger: logger}
}

func (s *Service) Submit(ctx context.Context, actor auth.Identity, req SubmitRequest) (*PaymentRequest, error) {
	if req.Amount <= 0 {
		return nil, apperr.Validationf("amount must be positive")
	}
	contract, err := s.repo.GetContract(ctx, req.ContractID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}
	if contract == nil {
		return nil, apperr.NotFoundf("contract %d not found", req.ContractID)
	}
	if actor.Role == auth.RoleContractor && actor.Company != nil && contract.ContractorOrg != *actor.Company {
		return nil, apperr.Forbiddenf("contract belongs to a different contractor")
	}

	code, err := s.codes.Next(ctx, codes.PrefixPayment, s.repo.CodeExists)
	if err != nil {
		return nil, err
	}

	p := &PaymentRequest{
		Code:         code,
		ContractID:   req.ContractID,
		Amount:       req.Amount,
		Purpose:      req.Purpose,
		ProgressDesc: req.ProgressDesc,
		Period:       req.Period,
		Status:       PaymentSubmitted,
		CreatedBy:    actor.Username,
		CreatedAt:    time.Now(),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create payment request: %w", err)
	}

	s.notifier.Notify(ctx, "owner_contract", "New payment request pending review",
		fmt.Sprintf("%s, amount %.2f", p.Code, p.Amount))
	s.auditor.Record(ctx, actor.Username, "CREATE", "Payment", fmt.Sprint(p.ID),
		fmt.Sprintf("submit payment %s", p.Code))
	return p, nil
}

func (s *Service) List(ctx context.Context, identity auth.Identity) ([]PaymentRequest, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	visible := make([]PaymentRequest, 0, len(items))
	for i := range items {
		contract, err := s.repo.GetContract(ctx, items[i].ContractID)
		if err != nil || contract == nil {
			continue
		}
		if contracts.CanView(identity, contract) {
			visible = append(visible, items[i])
		}
	}
	return visible, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*PaymentRequest, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	if p == nil {
		return nil, apperr.NotFoundf("payment %d not found", id)
	}
	return p, nil
}

// CeilingFor returns the live ceiling for a payment's contract.
func (s *Service) CeilingFor(ctx context.Context, paymentID uint) (*Ceiling, error) {
	p, err := s.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	contract, err := s.repo.GetContract(ctx, p.ContractID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}
	if contract == nil {
		return nil, apperr.NotFoundf("contract %d not found", p.ContractID)
	}
	ceiling := Calc(contract.ApprovedBudget, contract.CompletionRatio, contract.PaidTotal)
	return &ceiling, nil
}

// ContractReview moves a submitted request into finance review.
func (s *Service) ContractReview(ctx context.Context, actor auth.Identity, paymentID uint) (*PaymentRequest, error) {
	var p *PaymentRequest
	err := s.repo.InTx(ctx, func(tx Repository) error {
		var err error
		p, err = tx.GetForUpdate(ctx, paymentID)
		if err != nil {
			return fmt.Errorf("failed to load payment: %w", err)
		}
		if p == nil {
			return apperr.NotFoundf("payment %d not found", paymentID)
		}
		if p.Status != PaymentSubmitted && p.Status != PaymentContractReview {
			return apperr.InvalidStatef("payment %d is %s, not reviewable", paymentID, p.Status)
		}
		p.Status = PaymentFinanceReview
		return tx.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, "owner_finance", "Payment request in finance review",
		fmt.Sprintf("%s, amount %.2f", p.Code, p.Amount))
	s.auditor.Record(ctx, actor.Username, "REVIEW", "Payment", fmt.Sprint(p.ID),
		"contract review -> finance")
	return p, nil
}

// FinanceApprove settles a payment. The ceiling is recomputed inside the
// transaction; over-ceiling requests are blocked, not rejected, and stay
// in finance review for correction. Settled payments bump the contract's
// paid total in the same atomic unit, and that total only ever grows.
func (s *Service) FinanceApprove(ctx context.Context, actor auth.Identity, paymentID uint) (*PaymentRequest, error) {
	var p *PaymentRequest
	var blockedMsg string

	err := s.repo.InTx(ctx, func(tx Repository) error {
		var err error
		p, err = tx.GetForUpdate(ctx, paymentID)
		if err != nil {
			return fmt.Errorf("failed to load payment: %w", err)
		}
		if p == nil {
			return apperr.NotFoundf("payment %d not found", paymentID)
		}
		if p.Status != PaymentFinanceReview {
			return apperr.InvalidStatef("payment %d is %s, not in finance review", paymentID, p.Status)
		}

		contract, err := tx.GetContractForUpdate(ctx, p.ContractID)
		if err != nil {
			return fmt.Errorf("failed to load contract: %w", err)
		}
		if contract == nil {
			return apperr.NotFoundf("contract %d not found", p.ContractID)
		}

		ceiling := Calc(contract.ApprovedBudget, contract.CompletionRatio, contract.PaidTotal)
		if p.Amount > ceiling.MaxApply+ceilingEpsilon {
			over := math.Round((p.Amount-ceiling.MaxApply)*100) / 100
			blockedMsg = fmt.Sprintf(
				"requested amount exceeds the applicable maximum by %.2f; "+
					"approved budget=%.2f, completion ratio=%.2f, payable limit=%.2f, "+
					"paid total=%.2f, max applicable=%.2f, requested=%.2f",
				over, ceiling.ApprovedBudget, ceiling.CompletionRatio, ceiling.PayableLimit,
				ceiling.PaidTotal, ceiling.MaxApply, p.Amount)
			p.IsBlocked = true
			p.BlockReason = &blockedMsg
			return tx.Update(ctx, p)
		}

		p.Status = PaymentPaid
		p.IsBlocked = false
		p.BlockReason = nil
		if err := tx.Update(ctx, p); err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}
		contract.PaidTotal = math.Round((contract.PaidTotal+p.Amount)*100) / 100
		return tx.UpdateContract(ctx, contract)
	})
	if err != nil {
		return nil, err
	}

	if blockedMsg != "" {
		s.notifier.Notify(ctx, "owner_contract", "Payment blocked over ceiling",
			fmt.Sprintf("%s: %s", p.Code, blockedMsg))
		s.notifier.Notify(ctx, p.CreatedBy, "Payment request blocked",
			fmt.Sprintf("%s: %s", p.Code, blockedMsg))
		s.auditor.Record(ctx, actor.Username, "BLOCK", "Payment", fmt.Sprint(p.ID), blockedMsg)
		return p, nil
	}

	s.notifier.Notify(ctx, p.CreatedBy, "Payment settled",
		fmt.Sprintf("%s paid %.2f", p.Code, p.Amount))
	s.auditor.Record(ctx, actor.Username, "PAY", "Payment", fmt.Sprint(p.ID),
		fmt.Sprintf("paid %.2f", p.Amount))
	return p, nil
}

// FinanceReject terminally rejects a payment request.
func (s *Service) FinanceReject(ctx context.Context, actor auth.Identity, paymentID uint, reason string) (*PaymentRequest, error) {
	var p *PaymentRequest
	err := s.repo.InTx(ctx, func(tx Repository) error {
		var err error
		p, err = tx.GetForUpdate(ctx, paymentID)
		if err != nil {
			return fmt.Errorf("failed to load payment: %w", err)
		}
		if p == nil {
			return apperr.NotFoundf("payment %d not found", paymentID)
		}
		if p.Status == PaymentPaid || p.Status == PaymentRejected {
			return apperr.InvalidStatef("payment %d is already %s", paymentID, p.Status)
		}
		p.Status = PaymentRejected
		if reason != "" {
			p.RejectReason = &reason
		}
		return tx.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, p.CreatedBy, "Payment request rejected",
		fmt.Sprintf("%s has been rejected", p.Code))
	s.auditor.Record(ctx, actor.Username, "REJECT", "Payment", fmt.Sprint(p.ID), "finance reject")
	return p, nil
}

package quantities

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"contract-platform/contract-portal-backend/internal/apperr"
	"contract-platform/contract-portal-backend/internal/auth"
)

type Auditor interface {
	Record(ctx context.Context, actor, action, entityType, entityID, detail string)
}

// PasswordVerifier re-checks the caller's password for seal confirmation.
type PasswordVerifier interface {
	VerifyPassword(ctx context.Context, username, password string) error
}

type CreateRequest struct {
	ContractID      uint    `json:"contract_id" binding:"required"`
	Period          string  `json:"period"`
	CompletionRatio float64 `json:"completion_ratio"`
	Note            string  `json:"note"`
	SealPassword    string  `json:"seal_password,omitempty"`
}

type Service struct {
	repo     Repository
	verifier PasswordVerifier
	auditor  Auditor
	logger   *zap.Logger
}

func NewService(repo Repository, verifier PasswordVerifier, auditor Auditor, logger *zap.Logger) *Service {
	return &Service{repo: repo, verifier: verifier, auditor: auditor, logger: logger}
}

// Create records a completion-ratio reading and mirrors it onto the
// contract in the same transaction. An optional seal password turns the
// record into a sealed (signed-off) reading.
func (s *Service) Create(ctx context.Context, actor auth.Identity, clientIP string, req CreateRequest) (*QuantityRecord, error) {
	if req.CompletionRatio < 0 || req.CompletionRatio > 1 {
		return nil, apperr.Validationf("completion ratio must be between 0 and 1")
	}
	if strings.TrimSpace(req.Note) == "" {
		return nil, apperr.Validationf("note is required")
	}

	now := time.Now()
	q := &QuantityRecord{
		ContractID:      req.ContractID,
		Period:          req.Period,
		CompletionRatio: req.CompletionRatio,
		Note:            req.Note,
		CreatedBy:       actor.Username,
		CreatedAt:       now,
	}

	if req.SealPassword != "" {
		if err := s.verifier.VerifyPassword(ctx, actor.Username, req.SealPassword); err != nil {
			return nil, err
		}
		q.Sealed = true
		q.SealedBy = &actor.Username
		q.SealedAt = &now
		if clientIP != "" {
			q.SealedIP = &clientIP
		}
	}

	err := s.repo.InTx(ctx, func(tx Repository) error {
		contract, err := tx.GetContract(ctx, req.ContractID)
		if err != nil {
			return fmt.Errorf("failed to load contract: %w", err)
		}
		if contract == nil {
			return apperr.NotFoundf("contract %d not found", req.ContractID)
		}
		if err := tx.Create(ctx, q); err != nil {
			return fmt.Errorf("failed to create quantity record: %w", err)
		}
		contract.CompletionRatio = req.CompletionRatio
		return tx.UpdateContract(ctx, contract)
	})
	if err != nil {
		return nil, err
	}

	detail := fmt.Sprintf("set completion_ratio=%.2f", req.CompletionRatio)
	if q.Sealed {
		detail += fmt.Sprintf(", sealed by %s", actor.Username)
	}
	s.auditor.Record(ctx, actor.Username, "CREATE", "Quantity", fmt.Sprint(q.ID), detail)
	return q, nil
}

func (s *Service) ListForContract(ctx context.Context, contractID uint) ([]QuantityRecord, error) {
	return s.repo.ListForContract(ctx, contractID)
}

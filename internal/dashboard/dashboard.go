package dashboard

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"contract-platform/contract-portal-backend/internal/auth"
	"contract-platform/contract-portal-backend/internal/changes"
	"contract-platform/contract-portal-backend/internal/contracts"
	"contract-platform/contract-portal-backend/internal/payments"
)

type StatCard struct {
	Title string `json:"title"`
	Value any    `json:"value"`
	Unit  string `json:"unit,omitempty"`
	Color string `json:"color"`
}

type Item struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Link        string    `json:"link"`
	CreatedAt   time.Time `json:"created_at"`
}

type Stats struct {
	Stats        []StatCard `json:"stats"`
	PendingItems []Item     `json:"pending_items"`
	RecentItems  []Item     `json:"recent_items"`
}

const maxItems = 5

type Service struct {
	contracts contracts.Repository
	changes   *changes.Service
	payments  payments.Repository
	logger    *zap.Logger
}

func NewService(contractRepo contracts.Repository, changeService *changes.Service, paymentRepo payments.Repository, logger *zap.Logger) *Service {
	return &Service{
		contracts: contractRepo,
		changes:   changeService,
		payments:  paymentRepo,
		logger:    logger,
	}
}

// StatsFor builds the role-specific dashboard.
func (s *Service) StatsFor(ctx context.Context, identity auth.Identity) (*Stats, error) {
	switch identity.Role {
	case auth.RoleOwnerContract:
		return s.contractAdminStats(ctx, identity)
	case auth.RoleOwnerFinance:
		return s.financeStats(ctx)
	case auth.RoleOwnerLeader, auth.RoleOwnerStaff:
		return s.approverStats(ctx, identity)
	default:
		return s.genericStats(ctx, identity)
	}
}

func (s *Service) contractAdminStats(ctx context.Context, identity auth.Identity) (*Stats, error) {
	all, err := s.contracts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	var mine, drafts []contracts.Contract
	for _, c := range all {
		if c.CreatedBy != identity.Username {
			continue
		}
		mine = append(mine, c)
		if c.Status == contracts.StatusDraft {
			drafts = append(drafts, c)
		}
	}

	stats := &Stats{
		Stats: []StatCard{
			{Title: "Draft contracts", Value: len(drafts), Color: "info"},
			{Title: "Contracts total", Value: len(mine), Color: "primary"},
		},
	}
	for _, c := range drafts {
		if len(stats.PendingItems) >= maxItems {
			break
		}
		stats.PendingItems = append(stats.PendingItems, Item{
			ID:          c.ID,
			Title:       fmt.Sprintf("Contract: %s", c.ContractName),
			Description: fmt.Sprintf("No. %s", c.ContractNo),
			Link:        fmt.Sprintf("/contracts/%d", c.ID),
			CreatedAt:   c.CreatedAt,
		})
	}
	for _, c := range mine {
		if len(stats.RecentItems) >= maxItems {
			break
		}
		stats.RecentItems = append(stats.RecentItems, Item{
			ID:          c.ID,
			Title:       fmt.Sprintf("Contract: %s", c.ContractName),
			Description: fmt.Sprintf("Status: %s", c.Status),
			Link:        fmt.Sprintf("/contracts/%d", c.ID),
			CreatedAt:   c.CreatedAt,
		})
	}
	return stats, nil
}

func (s *Service) financeStats(ctx context.Context) (*Stats, error) {
	all, err := s.payments.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	monthStart := time.Date(time.Now().Year(), time.Now().Month(), 1, 0, 0, 0, 0, time.Local)

	var inReview, blocked []payments.PaymentRequest
	var monthTotal float64
	for _, p := range all {
		if p.Status == payments.PaymentFinanceReview {
			inReview = append(inReview, p)
			if p.IsBlocked {
				blocked = append(blocked, p)
			}
		}
		if p.Status == payments.PaymentPaid && p.CreatedAt.After(monthStart) {
			monthTotal += p.Amount
		}
	}

	stats := &Stats{
		Stats: []StatCard{
			{Title: "Awaiting finance review", Value: len(inReview), Color: "warning"},
			{Title: "Blocked over ceiling", Value: len(blocked), Color: "danger"},
			{Title: "Paid this month", Value: fmt.Sprintf("%.0f", monthTotal), Color: "success"},
		},
	}
	for _, p := range inReview {
		if len(stats.PendingItems) >= maxItems {
			break
		}
		desc := fmt.Sprintf("Amount %.0f", p.Amount)
		if p.IsBlocked {
			desc += " (blocked)"
		}
		stats.PendingItems = append(stats.PendingItems, Item{
			ID:          p.ID,
			Title:       fmt.Sprintf("Payment: %s", p.Code),
			Description: desc,
			Link:        "/payments",
			CreatedAt:   p.CreatedAt,
		})
	}
	return stats, nil
}

func (s *Service) approverStats(ctx context.Context, identity auth.Identity) (*Stats, error) {
	tasks, err := s.changes.PendingForUser(ctx, identity)
	if err != nil {
		return nil, err
	}
	stats := &Stats{
		Stats: []StatCard{
			{Title: "Changes awaiting my approval", Value: len(tasks), Color: "warning"},
		},
	}
	for _, t := range tasks {
		if len(stats.PendingItems) >= maxItems {
			break
		}
		ch, err := s.changes.Get(ctx, t.ChangeID)
		if err != nil {
			continue
		}
		stats.PendingItems = append(stats.PendingItems, Item{
			ID:          ch.ID,
			Title:       fmt.Sprintf("Change: %s", ch.Code),
			Description: fmt.Sprintf("Amount %.0f, step %s", ch.Amount, t.StepName),
			Link:        "/changes",
			CreatedAt:   ch.CreatedAt,
		})
	}
	return stats, nil
}

func (s *Service) genericStats(ctx context.Context, identity auth.Identity) (*Stats, error) {
	visible, err := s.changes.List(ctx, identity)
	if err != nil {
		return nil, err
	}
	var approving int
	for _, ch := range visible {
		if ch.Status == changes.ChangeApproving {
			approving++
		}
	}
	return &Stats{
		Stats: []StatCard{
			{Title: "Changes in approval", Value: approving, Color: "warning"},
			{Title: "Changes total", Value: len(visible), Color: "primary"},
		},
	}, nil
}

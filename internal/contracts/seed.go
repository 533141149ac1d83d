package contracts

import (
	"context"
	"time"
)

// SeedSampleContract inserts a demo contract so a fresh database has
// something to exercise changes and payments against. It is a no-op when
// the contract already exists.
func SeedSampleContract(ctx context.Context, repo Repository) error {
	if existing, err := repo.GetByNo(ctx, "HT-2025-001"); err == nil && existing != nil {
		return nil
	}

	clauses := "Standard construction terms. Payment on monthly progress certification."
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	c := &Contract{
		ContractNo:      "HT-2025-001",
		ContractName:    "Municipal Pipeline Renewal, Phase II",
		ProjectName:     "East District Water Network",
		OwnerOrg:        "Employer A",
		ContractorOrg:   "Contractor B",
		TenderPrice:     10000000,
		ContractPrice:   10000000,
		PerformanceBond: PerformanceBond(10000000),
		ApprovedBudget:  20000000,
		CompletionRatio: 0.40,
		Clauses:         &clauses,
		StartDate:       &start,
		EndDate:         &end,
		Status:          StatusActive,
		CreatedBy:       "owner_contract",
	}
	return repo.Create(ctx, c)
}

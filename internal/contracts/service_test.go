package contracts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"contract-platform/contract-portal-backend/internal/apperr"
	"contract-platform/contract-portal-backend/internal/auth"
)

type fakeRepo struct {
	byID   map[uint]*Contract
	nextID uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: map[uint]*Contract{}, nextID: 1}
}

func (f *fakeRepo) Create(ctx context.Context, c *Contract) error {
	c.ID = f.nextID
	f.nextID++
	cp := *c
	f.byID[c.ID] = &cp
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id uint) (*Contract, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeRepo) GetByNo(ctx context.Context, contractNo string) (*Contract, error) {
	for _, c := range f.byID {
		if c.ContractNo == contractNo {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) List(ctx context.Context) ([]Contract, error) {
	out := make([]Contract, 0, len(f.byID))
	for _, c := range f.byID {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeRepo) Update(ctx context.Context, c *Contract) error {
	cp := *c
	f.byID[c.ID] = &cp
	return nil
}

func (f *fakeRepo) ListExpiring(ctx context.Context, withinDays int) ([]Contract, error) {
	cutoff := time.Now().AddDate(0, 0, withinDays)
	var out []Contract
	for _, c := range f.byID {
		if c.EndDate != nil && c.EndDate.Before(cutoff) {
			out = append(out, *c)
		}
	}
	return out, nil
}

type noopAuditor struct{}

func (noopAuditor) Record(ctx context.Context, actor, action, entityType, entityID, detail string) {}

func ownerAdmin() auth.Identity {
	return auth.Identity{Username: "owner_contract", Role: auth.RoleOwnerContract}
}

func validCreate() CreateRequest {
	return CreateRequest{
		ContractNo:     "HT-2025-009",
		ContractName:   "Road Resurfacing",
		ProjectName:    "Ring Road North",
		OwnerOrg:       "City Roads Authority",
		ContractorOrg:  "Northern Construction Group",
		TenderPrice:    5000000,
		ContractPrice:  5000000,
		ApprovedBudget: 6000000,
	}
}

func TestCreateSetsBondAndDraftStatus(t *testing.T) {
	svc := NewService(newFakeRepo(), noopAuditor{}, zap.NewNop())

	c, err := svc.Create(context.Background(), ownerAdmin(), validCreate())
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, c.Status)
	assert.InDelta(t, 500000, c.PerformanceBond, 0.001)
}

func TestCreateRejectsPriceMismatch(t *testing.T) {
	svc := NewService(newFakeRepo(), noopAuditor{}, zap.NewNop())

	req := validCreate()
	req.ContractPrice = 4999999
	_, err := svc.Create(context.Background(), ownerAdmin(), req)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestCreateRejectsDuplicateNumber(t *testing.T) {
	svc := NewService(newFakeRepo(), noopAuditor{}, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Create(ctx, ownerAdmin(), validCreate())
	require.NoError(t, err)

	_, err = svc.Create(ctx, ownerAdmin(), validCreate())
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestSubmitLifecycle(t *testing.T) {
	svc := NewService(newFakeRepo(), noopAuditor{}, zap.NewNop())
	ctx := context.Background()

	c, err := svc.Create(ctx, ownerAdmin(), validCreate())
	require.NoError(t, err)

	c, err = svc.Submit(ctx, ownerAdmin(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, c.Status)

	// active contracts cannot be submitted again
	_, err = svc.Submit(ctx, ownerAdmin(), c.ID)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))

	c, err = svc.Archive(ctx, ownerAdmin(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusArchived, c.Status)

	_, err = svc.Archive(ctx, ownerAdmin(), c.ID)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
}

func TestSubmitBlocksHighRiskClauses(t *testing.T) {
	svc := NewService(newFakeRepo(), noopAuditor{}, zap.NewNop())
	ctx := context.Background()

	req := validCreate()
	clauses := "Clause 14 marked high risk by legal review."
	req.Clauses = &clauses
	c, err := svc.Create(ctx, ownerAdmin(), req)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, ownerAdmin(), c.ID)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestGetEnforcesVisibility(t *testing.T) {
	svc := NewService(newFakeRepo(), noopAuditor{}, zap.NewNop())
	ctx := context.Background()

	c, err := svc.Create(ctx, ownerAdmin(), validCreate())
	require.NoError(t, err)

	other := "Rival Builders"
	rival := auth.Identity{Username: "r", Role: auth.RoleContractor, Company: &other}
	_, err = svc.Get(ctx, rival, c.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	mine := "Northern Construction Group"
	me := auth.Identity{Username: "c1", Role: auth.RoleContractor, Company: &mine}
	got, err := svc.Get(ctx, me, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
}

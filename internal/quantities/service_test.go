package quantities

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"contract-platform/contract-portal-backend/internal/apperr"
	"contract-platform/contract-portal-backend/internal/auth"
	"contract-platform/contract-portal-backend/internal/contracts"
)

type fakeRepo struct {
	records   []QuantityRecord
	contracts map[uint]*contracts.Contract
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{contracts: map[uint]*contracts.Contract{}}
}

func (f *fakeRepo) InTx(ctx context.Context, fn func(Repository) error) error {
	return fn(f)
}

func (f *fakeRepo) Create(ctx context.Context, q *QuantityRecord) error {
	q.ID = uint(len(f.records) + 1)
	f.records = append(f.records, *q)
	return nil
}

func (f *fakeRepo) ListForContract(ctx context.Context, contractID uint) ([]QuantityRecord, error) {
	var out []QuantityRecord
	for _, q := range f.records {
		if q.ContractID == contractID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetContract(ctx context.Context, id uint) (*contracts.Contract, error) {
	c, ok := f.contracts[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeRepo) UpdateContract(ctx context.Context, c *contracts.Contract) error {
	cp := *c
	f.contracts[c.ID] = &cp
	return nil
}

type fakeVerifier struct {
	accepted string
}

func (v fakeVerifier) VerifyPassword(ctx context.Context, username, password string) error {
	if password != v.accepted {
		return apperr.Forbiddenf("wrong password")
	}
	return nil
}

type fakeAuditor struct{}

func (fakeAuditor) Record(ctx context.Context, actor, action, entityType, entityID, detail string) {}

func supervisor() auth.Identity {
	return auth.Identity{Username: "supervisor1", Role: auth.RoleSupervisor}
}

func newTestService() (*Service, *fakeRepo) {
	repo := newFakeRepo()
	repo.contracts[1] = &contracts.Contract{ID: 1, CompletionRatio: 0.25}
	svc := NewService(repo, fakeVerifier{accepted: "secret"}, fakeAuditor{}, zap.NewNop())
	return svc, repo
}

func TestCreateMirrorsRatioOntoContract(t *testing.T) {
	svc, repo := newTestService()

	q, err := svc.Create(context.Background(), supervisor(), "", CreateRequest{
		ContractID:      1,
		Period:          "2025-06",
		CompletionRatio: 0.40,
		Note:            "June measurement complete",
	})
	require.NoError(t, err)
	assert.False(t, q.Sealed)

	contract, err := repo.GetContract(context.Background(), 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.40, contract.CompletionRatio, 0.0001)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, supervisor(), "", CreateRequest{ContractID: 1, CompletionRatio: 1.2, Note: "n"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.Create(ctx, supervisor(), "", CreateRequest{ContractID: 1, CompletionRatio: -0.1, Note: "n"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.Create(ctx, supervisor(), "", CreateRequest{ContractID: 1, CompletionRatio: 0.5, Note: "   "})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.Create(ctx, supervisor(), "", CreateRequest{ContractID: 9, CompletionRatio: 0.5, Note: "n"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCreateSealedRecord(t *testing.T) {
	svc, _ := newTestService()

	q, err := svc.Create(context.Background(), supervisor(), "10.0.0.5", CreateRequest{
		ContractID:      1,
		CompletionRatio: 0.50,
		Note:            "sealed reading",
		SealPassword:    "secret",
	})
	require.NoError(t, err)
	assert.True(t, q.Sealed)
	require.NotNil(t, q.SealedBy)
	assert.Equal(t, "supervisor1", *q.SealedBy)
	require.NotNil(t, q.SealedIP)
	assert.Equal(t, "10.0.0.5", *q.SealedIP)
	assert.NotNil(t, q.SealedAt)
}

func TestCreateSealWrongPassword(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.Create(context.Background(), supervisor(), "", CreateRequest{
		ContractID:      1,
		CompletionRatio: 0.50,
		Note:            "sealed reading",
		SealPassword:    "nope",
	})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	assert.Empty(t, repo.records, "nothing persisted on a failed seal")

	contract, err := repo.GetContract(context.Background(), 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, contract.CompletionRatio, 0.0001, "ratio untouched")
}

package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"contract-platform/contract-portal-backend/internal/contracts"
)

type fakeContractRepo struct {
	expiring []contracts.Contract
}

func (f *fakeContractRepo) Create(ctx context.Context, c *contracts.Contract) error { return nil }
func (f *fakeContractRepo) GetByID(ctx context.Context, id uint) (*contracts.Contract, error) {
	return nil, nil
}
func (f *fakeContractRepo) GetByNo(ctx context.Context, no string) (*contracts.Contract, error) {
	return nil, nil
}
func (f *fakeContractRepo) List(ctx context.Context) ([]contracts.Contract, error) { return nil, nil }
func (f *fakeContractRepo) Update(ctx context.Context, c *contracts.Contract) error {
	return nil
}
func (f *fakeContractRepo) ListExpiring(ctx context.Context, withinDays int) ([]contracts.Contract, error) {
	return f.expiring, nil
}

type captureNotifier struct {
	messages []string
}

func (n *captureNotifier) Notify(ctx context.Context, toUser, title, content string) {
	n.messages = append(n.messages, toUser+": "+title)
}

func datePtr(t time.Time) *time.Time { return &t }

func TestScanNotifiesNearAndPastDeadlines(t *testing.T) {
	repo := &fakeContractRepo{expiring: []contracts.Contract{
		{ContractNo: "HT-1", CreatedBy: "alice", EndDate: datePtr(time.Now().AddDate(0, 0, 5))},
		{ContractNo: "HT-2", CreatedBy: "bob", EndDate: datePtr(time.Now().AddDate(0, 0, -3))},
		{ContractNo: "HT-3", CreatedBy: "carol"}, // no end date, skipped
	}}
	notifier := &captureNotifier{}
	w := NewDeadlineWatcher(repo, notifier, 14, zap.NewNop())

	w.Scan(context.Background())

	assert.Len(t, notifier.messages, 2)
	assert.Contains(t, notifier.messages, "alice: Contract approaching its end date")
	assert.Contains(t, notifier.messages, "bob: Contract past its end date")
}

func TestScanNoMatches(t *testing.T) {
	notifier := &captureNotifier{}
	w := NewDeadlineWatcher(&fakeContractRepo{}, notifier, 14, zap.NewNop())
	w.Scan(context.Background())
	assert.Empty(t, notifier.messages)
}

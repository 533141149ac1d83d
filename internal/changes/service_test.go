package changes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"contract-platform/contract-portal-backend/internal/apperr"
	"contract-platform/contract-portal-backend/internal/auth"
	"contract-platform/contract-portal-backend/internal/codes"
	"contract-platform/contract-portal-backend/internal/contracts"
)

// fakeRepo is an in-memory Repository. Transactions are simulated as
// plain calls against the same store, which is enough for single-threaded
// state machine tests.
type fakeRepo struct {
	changes   map[uint]*ChangeRequest
	tasks     map[uint]*ApprovalTask
	contracts map[uint]*contracts.Contract
	nextID    uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		changes:   map[uint]*ChangeRequest{},
		tasks:     map[uint]*ApprovalTask{},
		contracts: map[uint]*contracts.Contract{},
		nextID:    1,
	}
}

func (f *fakeRepo) id() uint {
	id := f.nextID
	f.nextID++
	return id
}

func (f *fakeRepo) InTx(ctx context.Context, fn func(Repository) error) error {
	return fn(f)
}

func (f *fakeRepo) CreateChange(ctx context.Context, ch *ChangeRequest) error {
	ch.ID = f.id()
	cp := *ch
	f.changes[ch.ID] = &cp
	return nil
}

func (f *fakeRepo) GetChange(ctx context.Context, id uint) (*ChangeRequest, error) {
	ch, ok := f.changes[id]
	if !ok {
		return nil, nil
	}
	cp := *ch
	return &cp, nil
}

func (f *fakeRepo) ListChanges(ctx context.Context) ([]ChangeRequest, error) {
	out := make([]ChangeRequest, 0, len(f.changes))
	for _, ch := range f.changes {
		out = append(out, *ch)
	}
	return out, nil
}

func (f *fakeRepo) UpdateChange(ctx context.Context, ch *ChangeRequest) error {
	cp := *ch
	f.changes[ch.ID] = &cp
	return nil
}

func (f *fakeRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	for _, ch := range f.changes {
		if ch.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) CreateTasks(ctx context.Context, tasks []ApprovalTask) error {
	for i := range tasks {
		tasks[i].ID = f.id()
		cp := tasks[i]
		f.tasks[cp.ID] = &cp
	}
	return nil
}

func (f *fakeRepo) GetTask(ctx context.Context, id uint) (*ApprovalTask, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (f *fakeRepo) GetTaskForUpdate(ctx context.Context, id uint) (*ApprovalTask, error) {
	return f.GetTask(ctx, id)
}

func (f *fakeRepo) UpdateTask(ctx context.Context, t *ApprovalTask) error {
	cp := *t
	f.tasks[t.ID] = &cp
	return nil
}

func (f *fakeRepo) TasksForChange(ctx context.Context, changeID uint) ([]ApprovalTask, error) {
	var out []ApprovalTask
	for _, t := range f.tasks {
		if t.ChangeID == changeID {
			out = append(out, *t)
		}
	}
	// callers rely on step order
	for i := range out {
		for j := i + 1; j < len(out); j++ {
			if out[j].StepOrder < out[i].StepOrder {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) PendingTasksForRole(ctx context.Context, role auth.Role, level *auth.Level) ([]ApprovalTask, error) {
	var out []ApprovalTask
	for _, t := range f.tasks {
		if t.AssigneeRole != role || t.Status != TaskPending {
			continue
		}
		if level != nil {
			if t.RequiredLevel != nil && *t.RequiredLevel != *level {
				continue
			}
		} else if t.RequiredLevel != nil {
			continue
		}
		out = append(out, *t)
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

func (f *fakeRepo) GetContractForUpdate(ctx context.Context, id uint) (*contracts.Contract, error) {
	return f.GetContract(ctx, id)
}

func (f *fakeRepo) UpdateContract(ctx context.Context, c *contracts.Contract) error {
	cp := *c
	f.contracts[c.ID] = &cp
	return nil
}

type fakeNotifier struct {
	sent []string
}

func (n *fakeNotifier) Notify(ctx context.Context, toUser, title, content string) {
	n.sent = append(n.sent, toUser+": "+title)
}

type fakeAuditor struct {
	actions []string
}

func (a *fakeAuditor) Record(ctx context.Context, actor, action, entityType, entityID, detail string) {
	a.actions = append(a.actions, action+" "+entityType)
}

type fakeResolver struct{}

func (fakeResolver) ResolveApprover(ctx context.Context, role auth.Role, level *auth.Level) (string, error) {
	if level != nil {
		return "leader_" + string(*level), nil
	}
	return string(role), nil
}

func strPtr(s string) *string { return &s }

func newTestService(t *testing.T) (*Service, *fakeRepo, *fakeNotifier, *fakeAuditor) {
	t.Helper()
	repo := newFakeRepo()
	end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo.contracts[1] = &contracts.Contract{
		ID:            1,
		ContractNo:    "HT-2025-001",
		ContractorOrg: "Northern Construction Group",
		TenderPrice:   10000000,
		ContractPrice: 10000000,
		EndDate:       &end,
		Status:        contracts.StatusActive,
	}
	notifier := &fakeNotifier{}
	auditor := &fakeAuditor{}
	svc := NewService(repo, codes.NewGenerator(), notifier, auditor, fakeResolver{}, zap.NewNop())
	return svc, repo, notifier, auditor
}

func contractor() auth.Identity {
	return auth.Identity{
		Username: "contractor1",
		Role:     auth.RoleContractor,
		Company:  strPtr("Northern Construction Group"),
	}
}

func approver(role auth.Role, level *auth.Level) auth.Identity {
	return auth.Identity{Username: "approver", Role: role, Level: level}
}

func levelOf(l auth.Level) *auth.Level { return &l }

func TestSubmitBuildsChainAndMovesToApproving(t *testing.T) {
	svc, repo, notifier, _ := newTestService(t)
	ctx := context.Background()

	ch, err := svc.Submit(ctx, contractor(), SubmitRequest{
		ContractID: 1,
		Amount:     600000,
		Reason:     "extra excavation",
	})
	require.NoError(t, err)
	assert.Equal(t, ChangeApproving, ch.Status)
	assert.Regexp(t, `^BQ-\d{4}-\d{3}$`, ch.Code)

	tasks, err := repo.TasksForChange(ctx, ch.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 4)
	for i, task := range tasks {
		assert.Equal(t, i+1, task.StepOrder)
		assert.Equal(t, TaskPending, task.Status)
	}
	assert.NotEmpty(t, notifier.sent, "first approver must be notified")
}

func TestSubmitRejectsEmptyChange(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Submit(context.Background(), contractor(), SubmitRequest{
		ContractID: 1,
		Reason:     "nothing changes",
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestSubmitRejectsNegativeValues(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, contractor(), SubmitRequest{ContractID: 1, Amount: -5, Reason: "r"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.Submit(ctx, contractor(), SubmitRequest{ContractID: 1, ScheduleImpactDays: -1, Reason: "r"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestSubmitForbiddenForOtherContractor(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	outsider := auth.Identity{
		Username: "rival",
		Role:     auth.RoleContractor,
		Company:  strPtr("Rival Builders"),
	}
	_, err := svc.Submit(context.Background(), outsider, SubmitRequest{
		ContractID: 1, Amount: 1000, Reason: "r",
	})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestSubmitUnknownContract(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Submit(context.Background(), contractor(), SubmitRequest{
		ContractID: 99, Amount: 1000, Reason: "r",
	})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

// walk approves every step of a change in order with the matching identity.
func walk(t *testing.T, svc *Service, repo *fakeRepo, changeID uint) {
	t.Helper()
	ctx := context.Background()
	for {
		tasks, err := repo.TasksForChange(ctx, changeID)
		require.NoError(t, err)
		next := NextPending(tasks)
		if next == nil {
			return
		}
		require.NoError(t, svc.ApproveTask(ctx, approver(next.AssigneeRole, next.RequiredLevel), next.ID, "ok"))
	}
}

func TestFullApprovalAppliesContractEffects(t *testing.T) {
	svc, repo, notifier, _ := newTestService(t)
	ctx := context.Background()

	ch, err := svc.Submit(ctx, contractor(), SubmitRequest{
		ContractID:         1,
		Amount:             600000,
		ScheduleImpactDays: 10,
		Reason:             "extra excavation",
	})
	require.NoError(t, err)

	walk(t, svc, repo, ch.ID)

	got, err := repo.GetChange(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, ChangeApproved, got.Status)

	contract, err := repo.GetContract(ctx, 1)
	require.NoError(t, err)
	assert.InDelta(t, 10600000, contract.ContractPrice, 0.001)
	require.NotNil(t, contract.EndDate)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), *contract.EndDate)

	var financeNotified bool
	for _, msg := range notifier.sent {
		if msg == "owner_finance: Change approved" {
			financeNotified = true
		}
	}
	assert.True(t, financeNotified, "finance must hear about approved changes")
}

func TestApproveOutOfOrderIsRejected(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	ch, err := svc.Submit(ctx, contractor(), SubmitRequest{
		ContractID: 1, Amount: 600000, Reason: "r",
	})
	require.NoError(t, err)

	tasks, err := repo.TasksForChange(ctx, ch.ID)
	require.NoError(t, err)
	third := tasks[2]

	err = svc.ApproveTask(ctx, approver(third.AssigneeRole, third.RequiredLevel), third.ID, "")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
}

func TestDoubleApproveFailsAndContractChangesOnce(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	ch, err := svc.Submit(ctx, contractor(), SubmitRequest{
		ContractID: 1, Amount: 30000, Reason: "r",
	})
	require.NoError(t, err)

	walk(t, svc, repo, ch.ID)

	tasks, err := repo.TasksForChange(ctx, ch.ID)
	require.NoError(t, err)
	last := tasks[len(tasks)-1]

	err = svc.ApproveTask(ctx, approver(last.AssigneeRole, last.RequiredLevel), last.ID, "again")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))

	contract, err := repo.GetContract(ctx, 1)
	require.NoError(t, err)
	assert.InDelta(t, 10030000, contract.ContractPrice, 0.001, "price applied exactly once")
}

func TestRejectMidChainTerminates(t *testing.T) {
	svc, repo, notifier, _ := newTestService(t)
	ctx := context.Background()

	ch, err := svc.Submit(ctx, contractor(), SubmitRequest{
		ContractID: 1, Amount: 600000, Reason: "r",
	})
	require.NoError(t, err)

	tasks, err := repo.TasksForChange(ctx, ch.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 4)

	// approve steps 1 and 2, reject at 3
	for _, task := range tasks[:2] {
		require.NoError(t, svc.ApproveTask(ctx, approver(task.AssigneeRole, task.RequiredLevel), task.ID, ""))
	}
	third := tasks[2]
	require.NoError(t, svc.RejectTask(ctx, approver(third.AssigneeRole, third.RequiredLevel), third.ID, "budget concerns"))

	got, err := repo.GetChange(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, ChangeRejected, got.Status)

	after, err := repo.TasksForChange(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, TaskRejected, after[2].Status)
	assert.Equal(t, TaskPending, after[3].Status, "later steps are left untouched")

	contract, err := repo.GetContract(ctx, 1)
	require.NoError(t, err)
	assert.InDelta(t, 10000000, contract.ContractPrice, 0.001, "rejected changes never touch the contract")

	var creatorTold bool
	for _, msg := range notifier.sent {
		if msg == "contractor1: Change rejected" {
			creatorTold = true
		}
	}
	assert.True(t, creatorTold)
}

func TestApproveWrongRoleForbidden(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	ch, err := svc.Submit(ctx, contractor(), SubmitRequest{
		ContractID: 1, Amount: 30000, Reason: "r",
	})
	require.NoError(t, err)

	tasks, err := repo.TasksForChange(ctx, ch.ID)
	require.NoError(t, err)

	err = svc.ApproveTask(ctx, approver(auth.RoleOwnerFinance, nil), tasks[0].ID, "")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestApproveWrongLevelForbidden(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	ch, err := svc.Submit(ctx, contractor(), SubmitRequest{
		ContractID: 1, Amount: 30000, Reason: "r",
	})
	require.NoError(t, err)

	tasks, err := repo.TasksForChange(ctx, ch.ID)
	require.NoError(t, err)
	require.NoError(t, svc.ApproveTask(ctx, approver(auth.RoleOwnerContract, nil), tasks[0].ID, ""))

	// step 2 pins SECTION_CHIEF; a bureau chief may not take it
	err = svc.ApproveTask(ctx, approver(auth.RoleOwnerLeader, levelOf(auth.LevelBureauChief)), tasks[1].ID, "")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestAdminOverridesRoleCheck(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	ch, err := svc.Submit(ctx, contractor(), SubmitRequest{
		ContractID: 1, Amount: 30000, Reason: "r",
	})
	require.NoError(t, err)

	tasks, err := repo.TasksForChange(ctx, ch.ID)
	require.NoError(t, err)

	admin := auth.Identity{Username: "admin", Role: auth.RoleAdmin}
	assert.NoError(t, svc.ApproveTask(ctx, admin, tasks[0].ID, "override"))
}

func TestPendingForUserFiltersUnactionable(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	// two changes, both starting at the contract administrator step
	_, err := svc.Submit(ctx, contractor(), SubmitRequest{ContractID: 1, Amount: 30000, Reason: "a"})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, contractor(), SubmitRequest{ContractID: 1, Amount: 600000, Reason: "b"})
	require.NoError(t, err)

	adminQueue, err := svc.PendingForUser(ctx, approver(auth.RoleOwnerContract, nil))
	require.NoError(t, err)
	assert.Len(t, adminQueue, 2, "both first steps are actionable")

	chiefQueue, err := svc.PendingForUser(ctx, approver(auth.RoleOwnerLeader, levelOf(auth.LevelSectionChief)))
	require.NoError(t, err)
	assert.Empty(t, chiefQueue, "section chief steps wait on the administrator")

	// resolve the first step of the first change; exactly one chief task opens
	for _, task := range adminQueue[:1] {
		require.NoError(t, svc.ApproveTask(ctx, approver(auth.RoleOwnerContract, nil), task.ID, ""))
	}
	chiefQueue, err = svc.PendingForUser(ctx, approver(auth.RoleOwnerLeader, levelOf(auth.LevelSectionChief)))
	require.NoError(t, err)
	assert.Len(t, chiefQueue, 1)
}

func TestListVisibility(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	repo.contracts[2] = &contracts.Contract{
		ID:            2,
		ContractNo:    "HT-2025-002",
		ContractorOrg: "Rival Builders",
		Status:        contracts.StatusActive,
	}

	_, err := svc.Submit(ctx, contractor(), SubmitRequest{ContractID: 1, Amount: 1000, Reason: "mine"})
	require.NoError(t, err)
	rival := auth.Identity{Username: "rival", Role: auth.RoleContractor, Company: strPtr("Rival Builders")}
	_, err = svc.Submit(ctx, rival, SubmitRequest{ContractID: 2, Amount: 1000, Reason: "theirs"})
	require.NoError(t, err)

	mine, err := svc.List(ctx, contractor())
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := svc.List(ctx, auth.Identity{Username: "owner", Role: auth.RoleOwnerContract})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

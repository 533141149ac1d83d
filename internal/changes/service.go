package changes

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"contract-platform/contract-portal-backend/internal/apperr"
	"contract-platform/contract-portal-backend/internal/auth"
	"contract-platform/contract-portal-backend/internal/codes"
	"contract-platform/contract-portal-backend/internal/contracts"
)

// Notifier delivers a message to a user. Best-effort: failures are the
// implementation's problem, never the caller's.
type Notifier interface {
	Notify(ctx context.Context, toUser, title, content string)
}

// Auditor records business events, best-effort.
type Auditor interface {
	Record(ctx context.Context, actor, action, entityType, entityID, detail string)
}

// ApproverResolver maps a role/level step to the account it should be
// routed to.
type ApproverResolver interface {
	ResolveApprover(ctx context.Context, role auth.Role, level *auth.Level) (string, error)
}

type SubmitRequest struct {
	ContractID         uint    `json:"contract_id" binding:"required"`
	Amount             float64 `json:"amount"`
	Reason             string  `json:"reason" binding:"required"`
	ScopeDesc          string  `json:"scope_desc"`
	ScheduleImpactDays int     `json:"schedule_impact_days"`
}

type Service struct {
	repo     Repository
	codes    *codes.Generator
	notifier Notifier
	auditor  Auditor
	resolver ApproverResolver
	logger   *zap.Logger
}

func NewService(repo Repository, gen *codes.Generator, notifier Notifier, auditor Auditor, resolver ApproverResolver, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		codes:    gen,
		notifier: notifier,
		auditor:  auditor,
		resolver: resolver,
		logger:   logger,
	}
}

// Submit validates and files a change request, building its approval
// chain in the same transaction.
func (s *Service) Submit(ctx context.Context, actor auth.Identity, req SubmitRequest) (*ChangeRequest, error) {
	if req.Amount < 0 {
		return nil, apperr.Validationf("amount cannot be negative")
	}
	if req.ScheduleImpactDays < 0 {
		return nil, apperr.Validationf("schedule impact days cannot be negative")
	}
	if req.Amount == 0 && req.ScheduleImpactDays == 0 {
		return nil, apperr.Validationf("a change must adjust the amount, the schedule, or both")
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

	code, err := s.codes.Next(ctx, codes.PrefixChange, s.repo.CodeExists)
	if err != nil {
		return nil, err
	}

	ch := &ChangeRequest{
		Code:               code,
		ContractID:         req.ContractID,
		Amount:             req.Amount,
		Reason:             req.Reason,
		ScopeDesc:          req.ScopeDesc,
		ScheduleImpactDays: req.ScheduleImpactDays,
		Status:             ChangeSubmitted,
		CreatedBy:          actor.Username,
		CreatedAt:          time.Now(),
	}

	err = s.repo.InTx(ctx, func(tx Repository) error {
		if err := tx.CreateChange(ctx, ch); err != nil {
			return fmt.Errorf("failed to create change: %w", err)
		}
		tasks := BuildTasks(ch.ID, BuildSteps(req.Amount, req.ScheduleImpactDays))
		if err := tx.CreateTasks(ctx, tasks); err != nil {
			return fmt.Errorf("failed to create approval tasks: %w", err)
		}
		ch.Status = ChangeApproving
		return tx.UpdateChange(ctx, ch)
	})
	if err != nil {
		return nil, err
	}

	s.notifyStep(ctx, ch, &ApprovalTask{
		AssigneeRole: auth.RoleOwnerContract,
		StepName:     "Contract Administrator",
	}, "New change request pending", fmt.Sprintf("%s, amount %.2f", ch.Code, ch.Amount))
	s.auditor.Record(ctx, actor.Username, "CREATE", "Change", fmt.Sprint(ch.ID),
		fmt.Sprintf("submit change %s", ch.Code))
	return ch, nil
}

func (s *Service) List(ctx context.Context, identity auth.Identity) ([]ChangeRequest, error) {
	items, err := s.repo.ListChanges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list changes: %w", err)
	}
	visible := make([]ChangeRequest, 0, len(items))
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

func (s *Service) Get(ctx context.Context, id uint) (*ChangeRequest, error) {
	ch, err := s.repo.GetChange(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load change: %w", err)
	}
	if ch == nil {
		return nil, apperr.NotFoundf("change %d not found", id)
	}
	return ch, nil
}

func (s *Service) Tasks(ctx context.Context, changeID uint) ([]ApprovalTask, error) {
	ch, err := s.Get(ctx, changeID)
	if err != nil {
		return nil, err
	}
	return s.repo.TasksForChange(ctx, ch.ID)
}

// PendingForUser returns the actionable tasks in the caller's role/level
// queue. Queues span many open changes, so each candidate is checked
// against its siblings: earlier steps must already be approved.
func (s *Service) PendingForUser(ctx context.Context, identity auth.Identity) ([]ApprovalTask, error) {
	tasks, err := s.repo.PendingTasksForRole(ctx, identity.Role, identity.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending tasks: %w", err)
	}
	actionable := make([]ApprovalTask, 0, len(tasks))
	for i := range tasks {
		siblings, err := s.repo.TasksForChange(ctx, tasks[i].ChangeID)
		if err != nil {
			return nil, fmt.Errorf("failed to load chain for change %d: %w", tasks[i].ChangeID, err)
		}
		if IsActionable(&tasks[i], siblings) {
			actionable = append(actionable, tasks[i])
		}
	}
	return actionable, nil
}

// authorize checks that the actor may act on the task: admins override,
// otherwise the role must match and, when the step pins a level, the
// actor's level must equal it.
func authorize(actor auth.Identity, task *ApprovalTask) error {
	if actor.Role == auth.RoleAdmin {
		return nil
	}
	if actor.Role != task.AssigneeRole {
		return apperr.Forbiddenf("task %d is assigned to role %s", task.ID, task.AssigneeRole)
	}
	if task.RequiredLevel != nil {
		if actor.Level == nil || *actor.Level != *task.RequiredLevel {
			return apperr.Forbiddenf("task %d requires level %s", task.ID, *task.RequiredLevel)
		}
	}
	return nil
}

// sideEffect is a notification or audit entry computed inside the
// transaction but emitted only after it commits, so sink failures can
// never roll back the transition and rollbacks never leak messages.
type sideEffect struct {
	notifyTo, title, content             string
	actor, action, entity, entityID, detail string
}

// ApproveTask resolves one approval step. The whole transition — task
// check-and-set, chain evaluation, terminal contract mutation — is one
// transaction with the task row locked, so a concurrent second approve
// observes the resolved status and fails with an invalid-state error.
func (s *Service) ApproveTask(ctx context.Context, actor auth.Identity, taskID uint, comment string) error {
	var notifications []sideEffect
	var audits []sideEffect

	err := s.repo.InTx(ctx, func(tx Repository) error {
		task, err := tx.GetTaskForUpdate(ctx, taskID)
		if err != nil {
			return fmt.Errorf("failed to load task: %w", err)
		}
		if task == nil {
			return apperr.NotFoundf("task %d not found", taskID)
		}
		if err := authorize(actor, task); err != nil {
			return err
		}
		if task.Status != TaskPending {
			return apperr.InvalidStatef("task %d already handled", taskID)
		}

		allTasks, err := tx.TasksForChange(ctx, task.ChangeID)
		if err != nil {
			return fmt.Errorf("failed to load chain: %w", err)
		}
		if !IsActionable(task, allTasks) {
			return apperr.InvalidStatef("task %d is not actionable yet, earlier steps are unresolved", taskID)
		}

		now := time.Now()
		task.Status = TaskApproved
		if comment != "" {
			task.Comment = &comment
		}
		task.ActionAt = &now
		if err := tx.UpdateTask(ctx, task); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}

		ch, err := tx.GetChange(ctx, task.ChangeID)
		if err != nil {
			return fmt.Errorf("failed to load change: %w", err)
		}
		if ch == nil {
			return apperr.NotFoundf("change %d not found", task.ChangeID)
		}

		// Refresh the chain with this task's new status
		for i := range allTasks {
			if allTasks[i].ID == task.ID {
				allTasks[i] = *task
			}
		}

		if AllApproved(allTasks) {
			ch.Status = ChangeApproved
			if err := tx.UpdateChange(ctx, ch); err != nil {
				return fmt.Errorf("failed to update change: %w", err)
			}
			contract, err := tx.GetContractForUpdate(ctx, ch.ContractID)
			if err != nil {
				return fmt.Errorf("failed to load contract: %w", err)
			}
			if contract == nil {
				return apperr.NotFoundf("contract %d not found", ch.ContractID)
			}
			if ch.Amount > 0 {
				contract.ContractPrice += ch.Amount
			}
			if ch.ScheduleImpactDays > 0 && contract.EndDate != nil {
				extended := contract.EndDate.AddDate(0, 0, ch.ScheduleImpactDays)
				contract.EndDate = &extended
			}
			if err := tx.UpdateContract(ctx, contract); err != nil {
				return fmt.Errorf("failed to update contract: %w", err)
			}

			notifications = append(notifications,
				sideEffect{notifyTo: "owner_finance", title: "Change approved",
					content: fmt.Sprintf("%s approved, review the payment ceiling", ch.Code)},
				sideEffect{notifyTo: ch.CreatedBy, title: "Change approved",
					content: fmt.Sprintf("%s has been approved", ch.Code)},
			)
			audits = append(audits, sideEffect{actor: actor.Username, action: "APPROVE",
				entity: "Change", entityID: fmt.Sprint(ch.ID), detail: "all steps approved"})
			return nil
		}

		next := NextPending(allTasks)
		if next != nil {
			toUser, err := s.resolver.ResolveApprover(ctx, next.AssigneeRole, next.RequiredLevel)
			if err != nil {
				s.logger.Warn("failed to resolve next approver",
					zap.Uint("task_id", next.ID), zap.Error(err))
				toUser = "owner_contract"
			}
			notifications = append(notifications, sideEffect{notifyTo: toUser,
				title: "Change approval pending",
				content: fmt.Sprintf("%s reached the %s step", ch.Code, next.StepName)})
		}
		audits = append(audits, sideEffect{actor: actor.Username, action: "APPROVE",
			entity: "ChangeTask", entityID: fmt.Sprint(task.ID),
			detail: fmt.Sprintf("approve step %s", task.StepName)})
		return nil
	})
	if err != nil {
		return err
	}

	s.emit(ctx, notifications, audits)
	return nil
}

// RejectTask resolves one step as rejected, which terminates the whole
// chain: the change goes REJECTED immediately and later steps stay
// PENDING, never auto-resolved.
func (s *Service) RejectTask(ctx context.Context, actor auth.Identity, taskID uint, comment string) error {
	var notifications []sideEffect
	var audits []sideEffect

	err := s.repo.InTx(ctx, func(tx Repository) error {
		task, err := tx.GetTaskForUpdate(ctx, taskID)
		if err != nil {
			return fmt.Errorf("failed to load task: %w", err)
		}
		if task == nil {
			return apperr.NotFoundf("task %d not found", taskID)
		}
		if err := authorize(actor, task); err != nil {
			return err
		}
		if task.Status != TaskPending {
			return apperr.InvalidStatef("task %d already handled", taskID)
		}

		allTasks, err := tx.TasksForChange(ctx, task.ChangeID)
		if err != nil {
			return fmt.Errorf("failed to load chain: %w", err)
		}
		if !IsActionable(task, allTasks) {
			return apperr.InvalidStatef("task %d is not actionable yet, earlier steps are unresolved", taskID)
		}

		now := time.Now()
		task.Status = TaskRejected
		if comment != "" {
			task.Comment = &comment
		}
		task.ActionAt = &now
		if err := tx.UpdateTask(ctx, task); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}

		ch, err := tx.GetChange(ctx, task.ChangeID)
		if err != nil {
			return fmt.Errorf("failed to load change: %w", err)
		}
		if ch == nil {
			return apperr.NotFoundf("change %d not found", task.ChangeID)
		}
		ch.Status = ChangeRejected
		if err := tx.UpdateChange(ctx, ch); err != nil {
			return fmt.Errorf("failed to update change: %w", err)
		}

		reason := comment
		if reason == "" {
			reason = "no reason given"
		}
		notifications = append(notifications, sideEffect{notifyTo: ch.CreatedBy,
			title:   "Change rejected",
			content: fmt.Sprintf("%s rejected: %s", ch.Code, reason)})
		audits = append(audits, sideEffect{actor: actor.Username, action: "REJECT",
			entity: "Change", entityID: fmt.Sprint(ch.ID),
			detail: fmt.Sprintf("reject at %s", task.StepName)})
		return nil
	})
	if err != nil {
		return err
	}

	s.emit(ctx, notifications, audits)
	return nil
}

func (s *Service) notifyStep(ctx context.Context, ch *ChangeRequest, step *ApprovalTask, title, content string) {
	toUser, err := s.resolver.ResolveApprover(ctx, step.AssigneeRole, step.RequiredLevel)
	if err != nil {
		s.logger.Warn("failed to resolve approver", zap.String("change", ch.Code), zap.Error(err))
		return
	}
	s.notifier.Notify(ctx, toUser, title, content)
}

func (s *Service) emit(ctx context.Context, notifications, audits []sideEffect) {
	for _, n := range notifications {
		s.notifier.Notify(ctx, n.notifyTo, n.title, n.content)
	}
	for _, a := range audits {
		s.auditor.Record(ctx, a.actor, a.action, a.entity, a.entityID, a.detail)
	}
}

package changes

import "sort"

// BuildTasks materialises a chain into ordered approval tasks for a change.
// StepOrder runs 1..N in chain order.
func BuildTasks(changeID uint, steps []Step) []ApprovalTask {
	tasks := make([]ApprovalTask, 0, len(steps))
	for i, step := range steps {
		tasks = append(tasks, ApprovalTask{
			ChangeID:      changeID,
			StepOrder:     i + 1,
			StepName:      step.Name,
			AssigneeRole:  step.Role,
			RequiredLevel: step.Level,
			Status:        TaskPending,
		})
	}
	return tasks
}

// NextPending returns the pending task with the smallest step order, or nil.
func NextPending(tasks []ApprovalTask) *ApprovalTask {
	sorted := make([]ApprovalTask, len(tasks))
	copy(sorted, tasks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StepOrder < sorted[j].StepOrder })
	for i := range sorted {
		if sorted[i].Status == TaskPending {
			return &sorted[i]
		}
	}
	return nil
}

// AllApproved reports whether every task in the chain has been approved.
func AllApproved(tasks []ApprovalTask) bool {
	for i := range tasks {
		if tasks[i].Status != TaskApproved {
			return false
		}
	}
	return true
}

// IsActionable reports whether a task may be acted on now: it must be
// pending and every task with a smaller step order must already be
// approved. Tasks are created PENDING in bulk, so without this guard a
// step-3 task would surface in role queues while steps 1-2 are unresolved.
func IsActionable(task *ApprovalTask, siblings []ApprovalTask) bool {
	if task.Status != TaskPending {
		return false
	}
	for i := range siblings {
		if siblings[i].StepOrder < task.StepOrder && siblings[i].Status != TaskApproved {
			return false
		}
	}
	return true
}

package changes

import (
	"time"

	"contract-platform/contract-portal-backend/internal/auth"
)

type ChangeStatus string

const (
	ChangeSubmitted ChangeStatus = "SUBMITTED"
	ChangeApproving ChangeStatus = "APPROVING"
	ChangeApproved  ChangeStatus = "APPROVED"
	ChangeRejected  ChangeStatus = "REJECTED"
)

type TaskStatus string

const (
	TaskPending  TaskStatus = "PENDING"
	TaskApproved TaskStatus = "APPROVED"
	TaskRejected TaskStatus = "REJECTED"
	TaskSkipped  TaskStatus = "SKIPPED"
)

// ChangeRequest is a proposed contract amendment: a monetary adjustment,
// a schedule extension, or both. At least one of the two must be non-zero.
type ChangeRequest struct {
	ID                 uint         `json:"id" gorm:"primaryKey"`
	Code               string       `json:"code" gorm:"size:32;uniqueIndex"`
	ContractID         uint         `json:"contract_id" gorm:"index"`
	Amount             float64      `json:"amount"`
	Reason             string       `json:"reason" gorm:"size:500"`
	ScopeDesc          string       `json:"scope_desc" gorm:"size:500"`
	ScheduleImpactDays int          `json:"schedule_impact_days" gorm:"default:0"`
	Status             ChangeStatus `json:"status" gorm:"size:32"`
	CreatedBy          string       `json:"created_by" gorm:"size:64"`
	CreatedAt          time.Time    `json:"created_at"`

	Tasks []ApprovalTask `json:"tasks,omitempty" gorm:"foreignKey:ChangeID;constraint:OnDelete:CASCADE"`
}

func (ChangeRequest) TableName() string { return "change_requests" }

// ApprovalTask is one step of a change's approval chain. StepOrder values
// form a dense ascending sequence starting at 1, and a task leaves PENDING
// exactly once.
type ApprovalTask struct {
	ID            uint        `json:"id" gorm:"primaryKey"`
	ChangeID      uint        `json:"change_id" gorm:"index"`
	StepOrder     int         `json:"step_order"`
	StepName      string      `json:"step_name" gorm:"size:64"`
	AssigneeRole  auth.Role   `json:"assignee_role" gorm:"size:64;index"`
	RequiredLevel *auth.Level `json:"required_level,omitempty" gorm:"size:64"`
	Status        TaskStatus  `json:"status" gorm:"size:32;default:PENDING"`
	Comment       *string     `json:"comment,omitempty" gorm:"size:500"`
	ActionAt      *time.Time  `json:"action_at,omitempty"`
}

func (ApprovalTask) TableName() string { return "change_tasks" }

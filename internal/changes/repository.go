package changes

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"contract-platform/contract-portal-backend/internal/auth"
	"contract-platform/contract-portal-backend/internal/contracts"
)

// Repository is the unit-of-work surface for the approval state machine.
// InTx runs fn against a repository bound to one transaction; every
// approve/reject transition executes entirely inside it so task, change
// and contract mutations commit or roll back together.
type Repository interface {
	InTx(ctx context.Context, fn func(Repository) error) error

	CreateChange(ctx context.Context, ch *ChangeRequest) error
	GetChange(ctx context.Context, id uint) (*ChangeRequest, error)
	ListChanges(ctx context.Context) ([]ChangeRequest, error)
	UpdateChange(ctx context.Context, ch *ChangeRequest) error
	CodeExists(ctx context.Context, code string) (bool, error)

	CreateTasks(ctx context.Context, tasks []ApprovalTask) error
	GetTask(ctx context.Context, id uint) (*ApprovalTask, error)
	// GetTaskForUpdate locks the task row for the duration of the
	// surrounding transaction, serialising concurrent transitions.
	GetTaskForUpdate(ctx context.Context, id uint) (*ApprovalTask, error)
	UpdateTask(ctx context.Context, t *ApprovalTask) error
	TasksForChange(ctx context.Context, changeID uint) ([]ApprovalTask, error)
	PendingTasksForRole(ctx context.Context, role auth.Role, level *auth.Level) ([]ApprovalTask, error)

	GetContract(ctx context.Context, id uint) (*contracts.Contract, error)
	GetContractForUpdate(ctx context.Context, id uint) (*contracts.Contract, error)
	UpdateContract(ctx context.Context, c *contracts.Contract) error
}

type gormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) InTx(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

func (r *gormRepository) CreateChange(ctx context.Context, ch *ChangeRequest) error {
	return r.db.WithContext(ctx).Create(ch).Error
}

func (r *gormRepository) GetChange(ctx context.Context, id uint) (*ChangeRequest, error) {
	var ch ChangeRequest
	err := r.db.WithContext(ctx).First(&ch, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (r *gormRepository) ListChanges(ctx context.Context) ([]ChangeRequest, error) {
	var items []ChangeRequest
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *gormRepository) UpdateChange(ctx context.Context, ch *ChangeRequest) error {
	return r.db.WithContext(ctx).Save(ch).Error
}

func (r *gormRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&ChangeRequest{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

func (r *gormRepository) CreateTasks(ctx context.Context, tasks []ApprovalTask) error {
	if len(tasks) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&tasks).Error
}

func (r *gormRepository) GetTask(ctx context.Context, id uint) (*ApprovalTask, error) {
	var t ApprovalTask
	err := r.db.WithContext(ctx).First(&t, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *gormRepository) GetTaskForUpdate(ctx context.Context, id uint) (*ApprovalTask, error) {
	var t ApprovalTask
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&t, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *gormRepository) UpdateTask(ctx context.Context, t *ApprovalTask) error {
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *gormRepository) TasksForChange(ctx context.Context, changeID uint) ([]ApprovalTask, error) {
	var tasks []ApprovalTask
	err := r.db.WithContext(ctx).
		Where("change_id = ?", changeID).
		Order("step_order asc").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *gormRepository) PendingTasksForRole(ctx context.Context, role auth.Role, level *auth.Level) ([]ApprovalTask, error) {
	var tasks []ApprovalTask
	q := r.db.WithContext(ctx).
		Where("assignee_role = ? AND status = ?", role, TaskPending)
	if level != nil {
		q = q.Where("required_level IS NULL OR required_level = ?", *level)
	} else {
		q = q.Where("required_level IS NULL")
	}
	if err := q.Order("change_id asc, step_order asc").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *gormRepository) GetContract(ctx context.Context, id uint) (*contracts.Contract, error) {
	var c contracts.Contract
	err := r.db.WithContext(ctx).First(&c, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *gormRepository) GetContractForUpdate(ctx context.Context, id uint) (*contracts.Contract, error) {
	var c contracts.Contract
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&c, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *gormRepository) UpdateContract(ctx context.Context, c *contracts.Contract) error {
	return r.db.WithContext(ctx).Save(c).Error
}

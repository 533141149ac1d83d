package payments

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"contract-platform/contract-portal-backend/internal/contracts"
)

// Repository is the unit-of-work surface for payment transitions. Finance
// approval mutates both the payment and the contract's paid total, so it
// runs inside InTx with both rows locked.
type Repository interface {
	InTx(ctx context.Context, fn func(Repository) error) error

	Create(ctx context.Context, p *PaymentRequest) error
	GetByID(ctx context.Context, id uint) (*PaymentRequest, error)
	GetForUpdate(ctx context.Context, id uint) (*PaymentRequest, error)
	List(ctx context.Context) ([]PaymentRequest, error)
	Update(ctx context.Context, p *PaymentRequest) error
	CodeExists(ctx context.Context, code string) (bool, error)

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

func (r *gormRepository) Create(ctx context.Context, p *PaymentRequest) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *gormRepository) GetByID(ctx context.Context, id uint) (*PaymentRequest, error) {
	var p PaymentRequest
	err := r.db.WithContext(ctx).First(&p, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) GetForUpdate(ctx context.Context, id uint) (*PaymentRequest, error) {
	var p PaymentRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) List(ctx context.Context) ([]PaymentRequest, error) {
	var items []PaymentRequest
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *gormRepository) Update(ctx context.Context, p *PaymentRequest) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *gormRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&PaymentRequest{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
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

package quantities

import (
	"context"

	"gorm.io/gorm"

	"contract-platform/contract-portal-backend/internal/contracts"
)

type Repository interface {
	InTx(ctx context.Context, fn func(Repository) error) error
	Create(ctx context.Context, q *QuantityRecord) error
	ListForContract(ctx context.Context, contractID uint) ([]QuantityRecord, error)
	GetContract(ctx context.Context, id uint) (*contracts.Contract, error)
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

func (r *gormRepository) Create(ctx context.Context, q *QuantityRecord) error {
	return r.db.WithContext(ctx).Create(q).Error
}

func (r *gormRepository) ListForContract(ctx context.Context, contractID uint) ([]QuantityRecord, error) {
	var items []QuantityRecord
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("created_at desc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
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

func (r *gormRepository) UpdateContract(ctx context.Context, c *contracts.Contract) error {
	return r.db.WithContext(ctx).Save(c).Error
}

package contracts

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, c *Contract) error
	GetByID(ctx context.Context, id uint) (*Contract, error)
	GetByNo(ctx context.Context, contractNo string) (*Contract, error)
	List(ctx context.Context) ([]Contract, error)
	Update(ctx context.Context, c *Contract) error
	ListExpiring(ctx context.Context, withinDays int) ([]Contract, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, c *Contract) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *gormRepository) GetByID(ctx context.Context, id uint) (*Contract, error) {
	var c Contract
	err := r.db.WithContext(ctx).First(&c, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *gormRepository) GetByNo(ctx context.Context, contractNo string) (*Contract, error) {
	var c Contract
	err := r.db.WithContext(ctx).Where("contract_no = ?", contractNo).First(&c).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *gormRepository) List(ctx context.Context) ([]Contract, error) {
	var items []Contract
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *gormRepository) Update(ctx context.Context, c *Contract) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *gormRepository) ListExpiring(ctx context.Context, withinDays int) ([]Contract, error) {
	var items []Contract
	err := r.db.WithContext(ctx).
		Where("status = ? AND end_date IS NOT NULL AND end_date <= NOW() + (? * INTERVAL '1 day')",
			StatusActive, withinDays).
		Order("end_date asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

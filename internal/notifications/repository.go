package notifications

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListForUser(ctx context.Context, username string) ([]Notification, error)
	GetByID(ctx context.Context, id uint) (*Notification, error)
	MarkRead(ctx context.Context, id uint) error
}

type gormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, n *Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *gormRepository) ListForUser(ctx context.Context, username string) ([]Notification, error) {
	var items []Notification
	err := r.db.WithContext(ctx).
		Where("to_username = ?", username).
		Order("created_at desc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *gormRepository) GetByID(ctx context.Context, id uint) (*Notification, error) {
	var n Notification
	err := r.db.WithContext(ctx).First(&n, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *gormRepository) MarkRead(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ?", id).
		Update("is_read", true).Error
}

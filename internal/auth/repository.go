package auth

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	FindByRoleAndLevel(ctx context.Context, role Role, level *Level) ([]User, error)
	Create(ctx context.Context, user *User) error
}

type gormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *gormRepository) FindByRoleAndLevel(ctx context.Context, role Role, level *Level) ([]User, error) {
	var users []User
	q := r.db.WithContext(ctx).Where("role = ? AND is_active = ?", role, true)
	if level != nil {
		q = q.Where("level = ?", *level)
	}
	if err := q.Order("username asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *gormRepository) Create(ctx context.Context, user *User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/carebook/carebook/internal/category/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, c *domain.Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*domain.Category, error) {
	var c domain.Category
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) Update(ctx context.Context, c *domain.Category) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *repository) Delete(ctx context.Context, id snowflake.ID) error {
	res := r.db.WithContext(ctx).Delete(&domain.Category{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func (r *repository) ListByOwners(ctx context.Context, owners []snowflake.ID) ([]domain.Category, error) {
	if len(owners) == 0 {
		return []domain.Category{}, nil
	}
	var rows []domain.Category
	err := r.db.WithContext(ctx).
		Where("owner_id IN ?", owners).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

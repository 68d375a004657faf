package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/carebook/carebook/internal/patient/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *domain.Patient) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*domain.Patient, error) {
	var p domain.Patient
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) Update(ctx context.Context, p *domain.Patient) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *repository) Delete(ctx context.Context, id snowflake.ID) error {
	res := r.db.WithContext(ctx).Delete(&domain.Patient{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrPatientNotFound
	}
	return nil
}

func (r *repository) ListByOwners(ctx context.Context, owners []snowflake.ID) ([]domain.Patient, error) {
	if len(owners) == 0 {
		return []domain.Patient{}, nil
	}
	var rows []domain.Patient
	err := r.db.WithContext(ctx).
		Where("owner_id IN ?", owners).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

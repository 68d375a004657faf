package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/carebook/carebook/internal/attachment/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, a *domain.Attachment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*domain.Attachment, error) {
	var a domain.Attachment
	err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAttachmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *repository) Delete(ctx context.Context, id snowflake.ID) error {
	res := r.db.WithContext(ctx).Delete(&domain.Attachment{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrAttachmentNotFound
	}
	return nil
}

func (r *repository) ListByAppointment(ctx context.Context, appointmentID snowflake.ID) ([]domain.Attachment, error) {
	var rows []domain.Attachment
	err := r.db.WithContext(ctx).
		Where("appointment_id = ?", appointmentID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

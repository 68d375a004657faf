package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/carebook/carebook/internal/appointment/domain"
	sharing "github.com/carebook/carebook/internal/sharing/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, a *domain.Appointment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*domain.Appointment, error) {
	var a domain.Appointment
	err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAppointmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *repository) Update(ctx context.Context, a *domain.Appointment) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *repository) Delete(ctx context.Context, id snowflake.ID) error {
	res := r.db.WithContext(ctx).Delete(&domain.Appointment{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrAppointmentNotFound
	}
	return nil
}

func (r *repository) ListInRange(ctx context.Context, owners []snowflake.ID, ids []snowflake.ID, from, to time.Time) ([]domain.Appointment, error) {
	if len(owners) == 0 && len(ids) == 0 {
		return []domain.Appointment{}, nil
	}

	tx := r.db.WithContext(ctx).
		Where("start_at < ? AND end_at > ?", to, from)

	switch {
	case len(owners) > 0 && len(ids) > 0:
		tx = tx.Where("owner_id IN ? OR id IN ?", owners, ids)
	case len(owners) > 0:
		tx = tx.Where("owner_id IN ?", owners)
	default:
		tx = tx.Where("id IN ?", ids)
	}

	var rows []domain.Appointment
	if err := tx.Order("start_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) AppendActivity(ctx context.Context, act *domain.Activity) error {
	return r.db.WithContext(ctx).Create(act).Error
}

func (r *repository) ListActivities(ctx context.Context, appointmentID snowflake.ID) ([]domain.Activity, error) {
	var rows []domain.Activity
	err := r.db.WithContext(ctx).
		Where("appointment_id = ?", appointmentID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

type resourceDirectory struct {
	db *gorm.DB
}

// NewResourceDirectory exposes appointment ownership to the sharing module.
func NewResourceDirectory(db *gorm.DB) sharing.ResourceDirectory {
	return &resourceDirectory{db: db}
}

func (d *resourceDirectory) AppointmentInfo(ctx context.Context, appointmentID snowflake.ID) (*sharing.AppointmentInfo, error) {
	var a domain.Appointment
	err := d.db.WithContext(ctx).
		Select("owner_id", "title").
		First(&a, "id = ?", appointmentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAppointmentNotFound
		}
		return nil, err
	}
	return &sharing.AppointmentInfo{OwnerID: a.OwnerID, Title: a.Title}, nil
}

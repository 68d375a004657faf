package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/carebook/carebook/internal/sharing/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) CreateAppointmentGrant(ctx context.Context, g *domain.AppointmentGrant) error {
	return r.db.WithContext(ctx).Create(g).Error
}

func (r *repository) CreateDashboardGrant(ctx context.Context, g *domain.DashboardGrant) error {
	return r.db.WithContext(ctx).Create(g).Error
}

// RedeemByToken is the only path to the accepted status. The WHERE clause on
// (token, status) makes concurrent redemptions race safely: one attempt
// affects a row, every other observes zero rows and reports not found.
func (r *repository) RedeemByToken(ctx context.Context, token string, userID snowflake.ID, now time.Time) (*domain.Grant, error) {
	return r.transitionByToken(ctx, token, domain.StatusAccepted, &userID, now)
}

func (r *repository) DeclineByToken(ctx context.Context, token string, userID snowflake.ID, now time.Time) (*domain.Grant, error) {
	return r.transitionByToken(ctx, token, domain.StatusDeclined, &userID, now)
}

func (r *repository) transitionByToken(ctx context.Context, token string, to domain.GrantStatus, bindUserID *snowflake.ID, now time.Time) (*domain.Grant, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": now,
	}
	if bindUserID != nil {
		updates["invited_user_id"] = *bindUserID
	}

	// Both kinds share one token space; check appointment grants first,
	// then dashboard grants.
	res := r.db.WithContext(ctx).
		Model(&domain.AppointmentGrant{}).
		Where("token = ? AND status = ?", token, domain.StatusPending).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 1 {
		var g domain.AppointmentGrant
		if err := r.db.WithContext(ctx).First(&g, "token = ?", token).Error; err != nil {
			return nil, err
		}
		grant := g.AsGrant()
		return &grant, nil
	}

	res = r.db.WithContext(ctx).
		Model(&domain.DashboardGrant{}).
		Where("token = ? AND status = ?", token, domain.StatusPending).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 1 {
		var g domain.DashboardGrant
		if err := r.db.WithContext(ctx).First(&g, "token = ?", token).Error; err != nil {
			return nil, err
		}
		grant := g.AsGrant()
		return &grant, nil
	}

	return nil, domain.ErrGrantNotFound
}

func (r *repository) GetGrant(ctx context.Context, kind domain.GrantKind, id snowflake.ID) (*domain.Grant, error) {
	switch kind {
	case domain.KindAppointment:
		var g domain.AppointmentGrant
		if err := r.db.WithContext(ctx).First(&g, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.ErrGrantNotFound
			}
			return nil, err
		}
		grant := g.AsGrant()
		return &grant, nil
	case domain.KindDashboard:
		var g domain.DashboardGrant
		if err := r.db.WithContext(ctx).First(&g, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.ErrGrantNotFound
			}
			return nil, err
		}
		grant := g.AsGrant()
		return &grant, nil
	default:
		return nil, domain.ErrGrantNotFound
	}
}

func (r *repository) DeleteGrant(ctx context.Context, kind domain.GrantKind, id snowflake.ID) error {
	var res *gorm.DB
	switch kind {
	case domain.KindAppointment:
		res = r.db.WithContext(ctx).Delete(&domain.AppointmentGrant{}, "id = ?", id)
	case domain.KindDashboard:
		res = r.db.WithContext(ctx).Delete(&domain.DashboardGrant{}, "id = ?", id)
	default:
		return domain.ErrGrantNotFound
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrGrantNotFound
	}
	return nil
}

func (r *repository) ListByAppointment(ctx context.Context, appointmentID snowflake.ID) ([]domain.Grant, error) {
	var rows []domain.AppointmentGrant
	err := r.db.WithContext(ctx).
		Where("appointment_id = ?", appointmentID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	grants := make([]domain.Grant, 0, len(rows))
	for _, row := range rows {
		grants = append(grants, row.AsGrant())
	}
	return grants, nil
}

func (r *repository) ListDashboardByOwner(ctx context.Context, ownerID snowflake.ID) ([]domain.Grant, error) {
	var rows []domain.DashboardGrant
	err := r.db.WithContext(ctx).
		Where("owner_user_id = ?", ownerID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	grants := make([]domain.Grant, 0, len(rows))
	for _, row := range rows {
		grants = append(grants, row.AsGrant())
	}
	return grants, nil
}

func (r *repository) ListByInvitee(ctx context.Context, invitee domain.InviteeRef) ([]domain.Grant, error) {
	grants := make([]domain.Grant, 0)

	var appts []domain.AppointmentGrant
	if err := r.scopeInvitee(ctx, invitee).Order("created_at ASC").Find(&appts).Error; err != nil {
		return nil, err
	}
	for _, row := range appts {
		grants = append(grants, row.AsGrant())
	}

	var dash []domain.DashboardGrant
	if err := r.scopeInvitee(ctx, invitee).Order("created_at ASC").Find(&dash).Error; err != nil {
		return nil, err
	}
	for _, row := range dash {
		grants = append(grants, row.AsGrant())
	}

	return grants, nil
}

func (r *repository) AcceptedAppointmentIDs(ctx context.Context, invitee domain.InviteeRef) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := r.scopeInvitee(ctx, invitee).
		Model(&domain.AppointmentGrant{}).
		Where("status = ?", domain.StatusAccepted).
		Distinct("appointment_id").
		Pluck("appointment_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) AcceptedDashboardOwners(ctx context.Context, invitee domain.InviteeRef) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := r.scopeInvitee(ctx, invitee).
		Model(&domain.DashboardGrant{}).
		Where("status = ?", domain.StatusAccepted).
		Distinct("owner_user_id").
		Pluck("owner_user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// scopeInvitee matches grants by bound user id or lowercased email. An
// empty ref matches nothing rather than everything.
func (r *repository) scopeInvitee(ctx context.Context, invitee domain.InviteeRef) *gorm.DB {
	tx := r.db.WithContext(ctx)
	switch {
	case invitee.UserID != 0 && invitee.Email != "":
		return tx.Where("invited_user_id = ? OR LOWER(invited_email) = ?", invitee.UserID, invitee.Email)
	case invitee.UserID != 0:
		return tx.Where("invited_user_id = ?", invitee.UserID)
	case invitee.Email != "":
		return tx.Where("LOWER(invited_email) = ?", invitee.Email)
	default:
		return tx.Where("1 = 0")
	}
}

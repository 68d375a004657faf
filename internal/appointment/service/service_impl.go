package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/carebook/carebook/internal/appointment/domain"
	"github.com/carebook/carebook/internal/clock"
	sharing "github.com/carebook/carebook/internal/sharing/domain"
	"go.uber.org/zap"
)

type Service struct {
	log    *zap.Logger
	repo   domain.Repository
	shares sharing.Service
	genID  *snowflake.Node
	clock  clock.Clock
}

func New(log *zap.Logger, repo domain.Repository, shares sharing.Service, genID *snowflake.Node, clk clock.Clock) domain.Service {
	return &Service{
		log:    log.Named("appointment.service"),
		repo:   repo,
		shares: shares,
		genID:  genID,
		clock:  clk,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Appointment, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}
	if !req.EndAt.After(req.StartAt) {
		return nil, domain.ErrInvalidTimeRange
	}
	status := req.Status
	if status == "" {
		status = domain.StatusPending
	}
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	now := s.clock.Now()
	appt := &domain.Appointment{
		ID:         s.genID.Generate(),
		OwnerID:    req.OwnerID,
		PatientID:  req.PatientID,
		CategoryID: req.CategoryID,
		Title:      title,
		Notes:      strings.TrimSpace(req.Notes),
		Location:   strings.TrimSpace(req.Location),
		StartAt:    req.StartAt.UTC(),
		EndAt:      req.EndAt.UTC(),
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, appt); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, appt.ID, req.OwnerID, domain.ActionCreated, "")
	return appt, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID, actor sharing.InviteeRef) (*domain.Appointment, error) {
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	level, err := s.shares.PermissionOnAppointment(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	// Unauthorized reads report not-found rather than forbidden, so the
	// response does not confirm the appointment exists.
	if !level.CanRead() {
		return nil, domain.ErrAppointmentNotFound
	}
	return appt, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req domain.UpdateRequest, actor sharing.InviteeRef) (*domain.Appointment, error) {
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	level, err := s.shares.PermissionOnAppointment(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if !level.CanRead() {
		return nil, domain.ErrAppointmentNotFound
	}
	if !level.CanWrite() {
		return nil, sharing.ErrForbidden
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}
	if !req.EndAt.After(req.StartAt) {
		return nil, domain.ErrInvalidTimeRange
	}

	appt.PatientID = req.PatientID
	appt.CategoryID = req.CategoryID
	appt.Title = title
	appt.Notes = strings.TrimSpace(req.Notes)
	appt.Location = strings.TrimSpace(req.Location)
	appt.StartAt = req.StartAt.UTC()
	appt.EndAt = req.EndAt.UTC()
	appt.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, appt); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, appt.ID, actor.UserID, domain.ActionUpdated, "")
	return appt, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id snowflake.ID, status domain.Status, actor sharing.InviteeRef) (*domain.Appointment, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	level, err := s.shares.PermissionOnAppointment(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if !level.CanRead() {
		return nil, domain.ErrAppointmentNotFound
	}
	if !level.CanWrite() {
		return nil, sharing.ErrForbidden
	}

	previous := appt.Status
	appt.Status = status
	appt.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, appt); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, appt.ID, actor.UserID, domain.ActionStatusChanged,
		fmt.Sprintf("%s -> %s", previous, status))
	return appt, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID, actor sharing.InviteeRef) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}

	level, err := s.shares.PermissionOnAppointment(ctx, id, actor)
	if err != nil {
		return err
	}
	if !level.CanRead() {
		return domain.ErrAppointmentNotFound
	}
	if !level.CanDelete() {
		return sharing.ErrForbidden
	}

	return s.repo.Delete(ctx, id)
}

func (s *Service) ListRange(ctx context.Context, actor sharing.InviteeRef, q domain.RangeQuery) ([]domain.Appointment, error) {
	if !q.To.After(q.From) {
		return nil, domain.ErrInvalidTimeRange
	}
	if actor.UserID == 0 && actor.Email == "" {
		return []domain.Appointment{}, nil
	}

	owners := make([]snowflake.ID, 0, 4)
	if actor.UserID != 0 {
		owners = append(owners, actor.UserID)
	}

	// Accepted account-wide grants expose whole calendars; accepted
	// appointment grants expose single entries.
	sharedOwners, err := s.shares.SharedDashboardOwners(ctx, actor)
	if err != nil {
		return nil, err
	}
	owners = append(owners, sharedOwners...)

	sharedIDs, err := s.shares.SharedAppointmentIDs(ctx, actor)
	if err != nil {
		return nil, err
	}

	return s.repo.ListInRange(ctx, owners, sharedIDs, q.From.UTC(), q.To.UTC())
}

func (s *Service) ListActivities(ctx context.Context, id snowflake.ID, actor sharing.InviteeRef) ([]domain.Activity, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	level, err := s.shares.PermissionOnAppointment(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if !level.CanRead() {
		return nil, domain.ErrAppointmentNotFound
	}
	return s.repo.ListActivities(ctx, id)
}

func (s *Service) RecordActivity(ctx context.Context, appointmentID, actorID snowflake.ID, action, detail string) error {
	act := &domain.Activity{
		ID:            s.genID.Generate(),
		AppointmentID: appointmentID,
		ActorUserID:   actorID,
		Action:        action,
		Detail:        detail,
		CreatedAt:     s.clock.Now(),
	}
	return s.repo.AppendActivity(ctx, act)
}

// recordActivity is best effort; the appointment row is the source of truth.
func (s *Service) recordActivity(ctx context.Context, appointmentID, actorID snowflake.ID, action, detail string) {
	if err := s.RecordActivity(ctx, appointmentID, actorID, action, detail); err != nil {
		s.log.Warn("failed to record appointment activity",
			zap.Int64("appointment_id", int64(appointmentID)),
			zap.String("action", action),
			zap.Error(err))
	}
}

package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bwmarrin/snowflake"
	apptdomain "github.com/carebook/carebook/internal/appointment/domain"
	"github.com/carebook/carebook/internal/attachment/domain"
	"github.com/carebook/carebook/internal/clock"
	"github.com/carebook/carebook/internal/providers/blob"
	sharing "github.com/carebook/carebook/internal/sharing/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	log          *zap.Logger
	repo         domain.Repository
	store        blob.Store
	shares       sharing.Service
	appointments apptdomain.Service
	genID        *snowflake.Node
	clock        clock.Clock
}

func New(log *zap.Logger, repo domain.Repository, store blob.Store, shares sharing.Service, appointments apptdomain.Service, genID *snowflake.Node, clk clock.Clock) domain.Service {
	return &Service{
		log:          log.Named("attachment.service"),
		repo:         repo,
		store:        store,
		shares:       shares,
		appointments: appointments,
		genID:        genID,
		clock:        clk,
	}
}

func (s *Service) Upload(ctx context.Context, req domain.UploadRequest, actor sharing.InviteeRef) (*domain.Attachment, error) {
	fileName := sanitizeFileName(req.FileName)
	if fileName == "" {
		return nil, domain.ErrInvalidFileName
	}
	if req.SizeBytes <= 0 || req.Body == nil {
		return nil, domain.ErrEmptyFile
	}

	level, err := s.shares.PermissionOnAppointment(ctx, req.AppointmentID, actor)
	if err != nil {
		return nil, err
	}
	if !level.CanRead() {
		return nil, apptdomain.ErrAppointmentNotFound
	}
	if !level.CanWrite() {
		return nil, sharing.ErrForbidden
	}

	key := fmt.Sprintf("appointments/%d/%s%s", req.AppointmentID, uuid.NewString(), filepath.Ext(fileName))
	if err := s.store.Put(ctx, key, req.Body, req.SizeBytes, req.ContentType); err != nil {
		return nil, err
	}

	att := &domain.Attachment{
		ID:            s.genID.Generate(),
		AppointmentID: req.AppointmentID,
		UploaderID:    actor.UserID,
		FileName:      fileName,
		ContentType:   req.ContentType,
		SizeBytes:     req.SizeBytes,
		StorageKey:    key,
		CreatedAt:     s.clock.Now(),
	}
	if err := s.repo.Create(ctx, att); err != nil {
		// Orphaned object cleanup is best effort.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.log.Warn("failed to clean up blob after metadata insert failure",
				zap.String("storage_key", key), zap.Error(delErr))
		}
		return nil, err
	}

	if err := s.appointments.RecordActivity(ctx, req.AppointmentID, actor.UserID, apptdomain.ActionAttachmentAdded, fileName); err != nil {
		s.log.Warn("failed to record attachment activity", zap.Error(err))
	}

	return att, nil
}

func (s *Service) List(ctx context.Context, appointmentID snowflake.ID, actor sharing.InviteeRef) ([]domain.Attachment, error) {
	level, err := s.shares.PermissionOnAppointment(ctx, appointmentID, actor)
	if err != nil {
		return nil, err
	}
	if !level.CanRead() {
		return nil, apptdomain.ErrAppointmentNotFound
	}
	return s.repo.ListByAppointment(ctx, appointmentID)
}

func (s *Service) Open(ctx context.Context, appointmentID, attachmentID snowflake.ID, actor sharing.InviteeRef) (*domain.Download, error) {
	att, err := s.attachmentOn(ctx, appointmentID, attachmentID)
	if err != nil {
		return nil, err
	}

	level, err := s.shares.PermissionOnAppointment(ctx, appointmentID, actor)
	if err != nil {
		return nil, err
	}
	if !level.CanRead() {
		return nil, apptdomain.ErrAppointmentNotFound
	}

	body, err := s.store.Get(ctx, att.StorageKey)
	if err != nil {
		return nil, err
	}
	return &domain.Download{Attachment: *att, Body: body}, nil
}

func (s *Service) Delete(ctx context.Context, appointmentID, attachmentID snowflake.ID, actor sharing.InviteeRef) error {
	att, err := s.attachmentOn(ctx, appointmentID, attachmentID)
	if err != nil {
		return err
	}

	level, err := s.shares.PermissionOnAppointment(ctx, appointmentID, actor)
	if err != nil {
		return err
	}
	if !level.CanRead() {
		return apptdomain.ErrAppointmentNotFound
	}
	// Full permission, or having uploaded the file, allows removal.
	if !level.CanDelete() && att.UploaderID != actor.UserID {
		return sharing.ErrForbidden
	}

	if err := s.repo.Delete(ctx, attachmentID); err != nil {
		return err
	}

	// The metadata row is the source of truth; a stale object is cleaned
	// up out of band if this fails.
	if err := s.store.Delete(ctx, att.StorageKey); err != nil {
		s.log.Warn("failed to delete blob for removed attachment",
			zap.String("storage_key", att.StorageKey), zap.Error(err))
	}
	return nil
}

func (s *Service) attachmentOn(ctx context.Context, appointmentID, attachmentID snowflake.ID) (*domain.Attachment, error) {
	att, err := s.repo.FindByID(ctx, attachmentID)
	if err != nil {
		return nil, err
	}
	if att.AppointmentID != appointmentID {
		return nil, domain.ErrAttachmentNotFound
	}
	return att, nil
}

func sanitizeFileName(name string) string {
	name = strings.TrimSpace(filepath.Base(name))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return name
}

package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/carebook/carebook/internal/clock"
	"github.com/carebook/carebook/internal/patient/domain"
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
		log:    log.Named("patient.service"),
		repo:   repo,
		shares: shares,
		genID:  genID,
		clock:  clk,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Patient, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	now := s.clock.Now()
	p := &domain.Patient{
		ID:        s.genID.Generate(),
		OwnerID:   req.OwnerID,
		Name:      name,
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		Notes:     strings.TrimSpace(req.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID, actor sharing.InviteeRef) (*domain.Patient, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	level, err := s.shares.PermissionOnDashboard(ctx, p.OwnerID, actor)
	if err != nil {
		return nil, err
	}
	if !level.CanRead() {
		return nil, domain.ErrPatientNotFound
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req domain.UpdateRequest, actor sharing.InviteeRef) (*domain.Patient, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	level, err := s.shares.PermissionOnDashboard(ctx, p.OwnerID, actor)
	if err != nil {
		return nil, err
	}
	if !level.CanRead() {
		return nil, domain.ErrPatientNotFound
	}
	if !level.CanWrite() {
		return nil, sharing.ErrForbidden
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	p.Name = name
	p.Email = strings.TrimSpace(req.Email)
	p.Phone = strings.TrimSpace(req.Phone)
	p.Notes = strings.TrimSpace(req.Notes)
	p.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID, actor sharing.InviteeRef) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	level, err := s.shares.PermissionOnDashboard(ctx, p.OwnerID, actor)
	if err != nil {
		return err
	}
	if !level.CanRead() {
		return domain.ErrPatientNotFound
	}
	if !level.CanDelete() {
		return sharing.ErrForbidden
	}

	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, actor sharing.InviteeRef) ([]domain.Patient, error) {
	if actor.UserID == 0 && actor.Email == "" {
		return []domain.Patient{}, nil
	}

	owners := make([]snowflake.ID, 0, 4)
	if actor.UserID != 0 {
		owners = append(owners, actor.UserID)
	}
	shared, err := s.shares.SharedDashboardOwners(ctx, actor)
	if err != nil {
		return nil, err
	}
	owners = append(owners, shared...)

	return s.repo.ListByOwners(ctx, owners)
}

package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/carebook/carebook/internal/category/domain"
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
		log:    log.Named("category.service"),
		repo:   repo,
		shares: shares,
		genID:  genID,
		clock:  clk,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	now := s.clock.Now()
	c := &domain.Category{
		ID:        s.genID.Generate(),
		OwnerID:   req.OwnerID,
		Name:      name,
		Color:     strings.TrimSpace(req.Color),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req domain.UpdateRequest, actor sharing.InviteeRef) (*domain.Category, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	level, err := s.shares.PermissionOnDashboard(ctx, c.OwnerID, actor)
	if err != nil {
		return nil, err
	}
	if !level.CanRead() {
		return nil, domain.ErrCategoryNotFound
	}
	if !level.CanWrite() {
		return nil, sharing.ErrForbidden
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	c.Name = name
	c.Color = strings.TrimSpace(req.Color)
	c.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID, actor sharing.InviteeRef) error {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	level, err := s.shares.PermissionOnDashboard(ctx, c.OwnerID, actor)
	if err != nil {
		return err
	}
	if !level.CanRead() {
		return domain.ErrCategoryNotFound
	}
	if !level.CanDelete() {
		return sharing.ErrForbidden
	}

	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, actor sharing.InviteeRef) ([]domain.Category, error) {
	if actor.UserID == 0 && actor.Email == "" {
		return []domain.Category{}, nil
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

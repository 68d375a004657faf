package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/mail"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/carebook/carebook/internal/clock"
	"github.com/carebook/carebook/internal/config"
	"github.com/carebook/carebook/internal/providers/email"
	"github.com/carebook/carebook/internal/sharing/domain"
	"go.uber.org/zap"
)

// Grant tokens carry 256 bits of entropy and are the only protection on the
// redemption link.
const grantTokenBytes = 32

type Service struct {
	log       *zap.Logger
	cfg       config.Config
	repo      domain.Repository
	resources domain.ResourceDirectory
	users     domain.UserDirectory
	genID     *snowflake.Node
	clock     clock.Clock
	mailer    email.Provider
}

func New(log *zap.Logger, cfg config.Config, repo domain.Repository, resources domain.ResourceDirectory, users domain.UserDirectory, genID *snowflake.Node, clk clock.Clock, mailer email.Provider) domain.Service {
	return &Service{
		log:       log.Named("sharing.service"),
		cfg:       cfg,
		repo:      repo,
		resources: resources,
		users:     users,
		genID:     genID,
		clock:     clk,
		mailer:    mailer,
	}
}

func (s *Service) ShareAppointment(ctx context.Context, req domain.ShareAppointmentRequest) (*domain.ShareResult, error) {
	if !req.Permission.Valid() {
		return nil, domain.ErrInvalidPermission
	}
	address, err := normalizeEmail(req.InviteeEmail)
	if err != nil {
		return nil, domain.ErrInvalidInvitee
	}

	info, err := s.resources.AppointmentInfo(ctx, req.AppointmentID)
	if err != nil {
		return nil, err
	}
	// Only the owner may share; the precondition is checked before any
	// grant row is written.
	if info.OwnerID != req.InviterID {
		return nil, domain.ErrForbidden
	}

	inviteeID, err := s.resolveInvitee(ctx, req.InviterID, address)
	if err != nil {
		return nil, err
	}

	token, err := newGrantToken()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	grant := &domain.AppointmentGrant{
		ID:              s.genID.Generate(),
		AppointmentID:   req.AppointmentID,
		InvitedUserID:   inviteeID,
		InvitedEmail:    &address,
		InvitedByUserID: req.InviterID,
		Permission:      req.Permission,
		Status:          domain.StatusPending,
		Token:           token,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.CreateAppointmentGrant(ctx, grant); err != nil {
		return nil, err
	}

	s.notify(req.InviterID, address, "invite_appointment", map[string]any{
		"appointment_title": info.Title,
		"permission":        string(req.Permission),
		"accept_url":        s.acceptURL(token),
	})

	result := grant.AsGrant()
	return &domain.ShareResult{Grant: result, Token: token}, nil
}

func (s *Service) ShareDashboard(ctx context.Context, req domain.ShareDashboardRequest) (*domain.ShareResult, error) {
	if !req.Permission.Valid() {
		return nil, domain.ErrInvalidPermission
	}
	address, err := normalizeEmail(req.InviteeEmail)
	if err != nil {
		return nil, domain.ErrInvalidInvitee
	}

	inviteeID, err := s.resolveInvitee(ctx, req.OwnerID, address)
	if err != nil {
		return nil, err
	}

	token, err := newGrantToken()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	grant := &domain.DashboardGrant{
		ID:              s.genID.Generate(),
		OwnerUserID:     req.OwnerID,
		InvitedUserID:   inviteeID,
		InvitedEmail:    &address,
		InvitedByUserID: req.OwnerID,
		Permission:      req.Permission,
		Status:          domain.StatusPending,
		Token:           token,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.CreateDashboardGrant(ctx, grant); err != nil {
		return nil, err
	}

	s.notify(req.OwnerID, address, "invite_dashboard", map[string]any{
		"permission": string(req.Permission),
		"accept_url": s.acceptURL(token),
	})

	result := grant.AsGrant()
	return &domain.ShareResult{Grant: result, Token: token}, nil
}

func (s *Service) Redeem(ctx context.Context, token string, redeemerID snowflake.ID) (*domain.Grant, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrGrantNotFound
	}
	// The conditional update in the repository makes this exactly-once: a
	// consumed token is indistinguishable from one that never existed.
	return s.repo.RedeemByToken(ctx, token, redeemerID, s.clock.Now())
}

func (s *Service) Decline(ctx context.Context, token string, declinerID snowflake.ID) (*domain.Grant, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrGrantNotFound
	}
	return s.repo.DeclineByToken(ctx, token, declinerID, s.clock.Now())
}

func (s *Service) Discard(ctx context.Context, kind domain.GrantKind, grantID snowflake.ID, actor domain.InviteeRef) error {
	grant, err := s.repo.GetGrant(ctx, kind, grantID)
	if err != nil {
		return err
	}
	// Discard is gated on the relationship, not on resource ownership:
	// either side of the invitation may remove it, in any status.
	if grant.InvitedByUserID != actor.UserID && !grant.Matches(actor) {
		return domain.ErrForbidden
	}
	return s.repo.DeleteGrant(ctx, kind, grantID)
}

func (s *Service) ListForAppointment(ctx context.Context, appointmentID snowflake.ID, requesterID snowflake.ID) ([]domain.Grant, error) {
	info, err := s.resources.AppointmentInfo(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if info.OwnerID != requesterID {
		return nil, domain.ErrForbidden
	}
	return s.repo.ListByAppointment(ctx, appointmentID)
}

func (s *Service) ListForDashboard(ctx context.Context, ownerID snowflake.ID) ([]domain.Grant, error) {
	return s.repo.ListDashboardByOwner(ctx, ownerID)
}

func (s *Service) ListForInvitee(ctx context.Context, invitee domain.InviteeRef) ([]domain.Grant, error) {
	return s.repo.ListByInvitee(ctx, invitee)
}

func (s *Service) PermissionOnAppointment(ctx context.Context, appointmentID snowflake.ID, actor domain.InviteeRef) (domain.Level, error) {
	info, err := s.resources.AppointmentInfo(ctx, appointmentID)
	if err != nil {
		return domain.LevelNone, err
	}

	grants, err := s.repo.ListByAppointment(ctx, appointmentID)
	if err != nil {
		return domain.LevelNone, err
	}
	// An account-wide grant from the owner applies to each of the owner's
	// appointments at the granted level.
	dashboard, err := s.repo.ListDashboardByOwner(ctx, info.OwnerID)
	if err != nil {
		return domain.LevelNone, err
	}
	grants = append(grants, dashboard...)

	return domain.Resolve(info.OwnerID, grants, actor), nil
}

func (s *Service) PermissionOnDashboard(ctx context.Context, ownerID snowflake.ID, actor domain.InviteeRef) (domain.Level, error) {
	grants, err := s.repo.ListDashboardByOwner(ctx, ownerID)
	if err != nil {
		return domain.LevelNone, err
	}
	return domain.Resolve(ownerID, grants, actor), nil
}

func (s *Service) SharedAppointmentIDs(ctx context.Context, actor domain.InviteeRef) ([]snowflake.ID, error) {
	return s.repo.AcceptedAppointmentIDs(ctx, actor)
}

func (s *Service) SharedDashboardOwners(ctx context.Context, actor domain.InviteeRef) ([]snowflake.ID, error) {
	return s.repo.AcceptedDashboardOwners(ctx, actor)
}

// resolveInvitee binds the grant to an existing account when the address
// already belongs to one, and rejects sharing with oneself.
func (s *Service) resolveInvitee(ctx context.Context, inviterID snowflake.ID, address string) (*snowflake.ID, error) {
	id, ok, err := s.users.UserIDByEmail(ctx, address)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	if id == inviterID {
		return nil, domain.ErrSelfInvite
	}
	return &id, nil
}

// notify dispatches the invitation mail without blocking the caller. The
// grant row is the source of truth; delivery failures are logged and
// swallowed.
func (s *Service) notify(inviterID snowflake.ID, to, templateName string, data map[string]any) {
	go func() {
		ctx := context.Background()
		name, err := s.users.DisplayName(ctx, inviterID)
		if err != nil {
			s.log.Warn("failed to look up inviter for invitation email", zap.Error(err))
			name = "A carebook user"
		}
		data["inviter_name"] = name
		if err := s.mailer.SendTemplate(ctx, []string{to}, templateName, data); err != nil {
			s.log.Warn("failed to send invitation email",
				zap.String("email", to),
				zap.String("template", templateName),
				zap.Error(err))
		}
	}()
}

func (s *Service) acceptURL(token string) string {
	return fmt.Sprintf("%s/accept-invitation?token=%s", s.cfg.BaseURL, token)
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(addr.Address)), nil
}

func newGrantToken() (string, error) {
	buf := make([]byte, grantTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

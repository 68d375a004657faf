package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Repository persists grants of both kinds. Lookups that take an InviteeRef
// match by bound user id or by lowercased email.
type Repository interface {
	CreateAppointmentGrant(ctx context.Context, g *AppointmentGrant) error
	CreateDashboardGrant(ctx context.Context, g *DashboardGrant) error

	// RedeemByToken performs the status-guarded conditional update that
	// makes redemption exactly-once: it flips the grant with the given
	// token from pending to accepted and binds userID, reporting whether
	// a row was affected. It checks appointment grants first, then
	// dashboard grants, since both kinds share one token space.
	RedeemByToken(ctx context.Context, token string, userID snowflake.ID, now time.Time) (*Grant, error)

	// DeclineByToken flips a pending grant to declined under the same
	// conditional-update guard.
	DeclineByToken(ctx context.Context, token string, userID snowflake.ID, now time.Time) (*Grant, error)

	GetGrant(ctx context.Context, kind GrantKind, id snowflake.ID) (*Grant, error)
	DeleteGrant(ctx context.Context, kind GrantKind, id snowflake.ID) error

	ListByAppointment(ctx context.Context, appointmentID snowflake.ID) ([]Grant, error)
	ListDashboardByOwner(ctx context.Context, ownerID snowflake.ID) ([]Grant, error)
	ListByInvitee(ctx context.Context, invitee InviteeRef) ([]Grant, error)

	// AcceptedAppointmentIDs returns distinct appointment ids from the
	// actor's accepted appointment grants.
	AcceptedAppointmentIDs(ctx context.Context, invitee InviteeRef) ([]snowflake.ID, error)

	// AcceptedDashboardOwners returns distinct owner ids from the actor's
	// accepted account-wide grants.
	AcceptedDashboardOwners(ctx context.Context, invitee InviteeRef) ([]snowflake.ID, error)
}

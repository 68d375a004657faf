package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// ShareAppointmentRequest invites someone to a single appointment.
type ShareAppointmentRequest struct {
	AppointmentID snowflake.ID
	InviterID     snowflake.ID
	InviteeEmail  string
	Permission    Permission
}

// ShareDashboardRequest invites someone to the inviter's whole calendar.
type ShareDashboardRequest struct {
	OwnerID      snowflake.ID
	InviteeEmail string
	Permission   Permission
}

// ShareResult carries the created grant and its redemption token. The raw
// token is only ever returned here; listings never expose it.
type ShareResult struct {
	Grant Grant
	Token string
}

type Service interface {
	ShareAppointment(ctx context.Context, req ShareAppointmentRequest) (*ShareResult, error)
	ShareDashboard(ctx context.Context, req ShareDashboardRequest) (*ShareResult, error)

	// Redeem flips a pending grant to accepted and binds it to the
	// redeeming user. The token space spans both grant kinds.
	Redeem(ctx context.Context, token string, redeemerID snowflake.ID) (*Grant, error)

	// Decline flips a pending grant to declined.
	Decline(ctx context.Context, token string, declinerID snowflake.ID) (*Grant, error)

	// Discard hard-deletes a grant. Allowed to the inviter or the invitee,
	// regardless of status.
	Discard(ctx context.Context, kind GrantKind, grantID snowflake.ID, actor InviteeRef) error

	// ListForAppointment returns every grant on an appointment. Owner only.
	ListForAppointment(ctx context.Context, appointmentID snowflake.ID, requesterID snowflake.ID) ([]Grant, error)

	// ListForDashboard returns every account-wide grant issued by the owner.
	ListForDashboard(ctx context.Context, ownerID snowflake.ID) ([]Grant, error)

	// ListForInvitee returns every grant addressed to the user, any status.
	ListForInvitee(ctx context.Context, invitee InviteeRef) ([]Grant, error)

	// PermissionOnAppointment resolves the actor's effective level on one
	// appointment, considering both its own grants and account-wide grants
	// issued by the appointment's owner.
	PermissionOnAppointment(ctx context.Context, appointmentID snowflake.ID, actor InviteeRef) (Level, error)

	// PermissionOnDashboard resolves the actor's effective level on a
	// user's calendar as a whole.
	PermissionOnDashboard(ctx context.Context, ownerID snowflake.ID, actor InviteeRef) (Level, error)

	// SharedAppointmentIDs lists appointments the actor can see through
	// accepted appointment-level grants.
	SharedAppointmentIDs(ctx context.Context, actor InviteeRef) ([]snowflake.ID, error)

	// SharedDashboardOwners lists users whose whole calendar the actor can
	// see through accepted account-wide grants.
	SharedDashboardOwners(ctx context.Context, actor InviteeRef) ([]snowflake.ID, error)
}

// AppointmentInfo is the slice of an appointment this package needs:
// ownership for the precondition checks and a title for the invite mail.
type AppointmentInfo struct {
	OwnerID snowflake.ID
	Title   string
}

// ResourceDirectory answers ownership questions about appointments without
// coupling this package to the appointment module.
type ResourceDirectory interface {
	AppointmentInfo(ctx context.Context, appointmentID snowflake.ID) (*AppointmentInfo, error)
}

// UserDirectory resolves invitee addresses against existing accounts so a
// grant can be bound at creation time when the account already exists.
type UserDirectory interface {
	UserIDByEmail(ctx context.Context, address string) (snowflake.ID, bool, error)
	DisplayName(ctx context.Context, id snowflake.ID) (string, error)
}

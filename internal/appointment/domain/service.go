package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	sharing "github.com/carebook/carebook/internal/sharing/domain"
)

type CreateRequest struct {
	OwnerID    snowflake.ID
	PatientID  *snowflake.ID
	CategoryID *snowflake.ID
	Title      string
	Notes      string
	Location   string
	StartAt    time.Time
	EndAt      time.Time
	Status     Status
}

// UpdateRequest carries the full replacement state for an appointment.
// Status changes go through UpdateStatus.
type UpdateRequest struct {
	PatientID  *snowflake.ID
	CategoryID *snowflake.ID
	Title      string
	Notes      string
	Location   string
	StartAt    time.Time
	EndAt      time.Time
}

// RangeQuery selects appointments overlapping [From, To).
type RangeQuery struct {
	From time.Time
	To   time.Time
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Appointment, error)
	Get(ctx context.Context, id snowflake.ID, actor sharing.InviteeRef) (*Appointment, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateRequest, actor sharing.InviteeRef) (*Appointment, error)
	UpdateStatus(ctx context.Context, id snowflake.ID, status Status, actor sharing.InviteeRef) (*Appointment, error)
	Delete(ctx context.Context, id snowflake.ID, actor sharing.InviteeRef) error

	// ListRange returns the actor's own appointments plus those visible
	// through accepted grants, overlapping the query window.
	ListRange(ctx context.Context, actor sharing.InviteeRef, q RangeQuery) ([]Appointment, error)

	ListActivities(ctx context.Context, id snowflake.ID, actor sharing.InviteeRef) ([]Activity, error)

	// RecordActivity appends an audit row. Callers are expected to have
	// already authorized the underlying action.
	RecordActivity(ctx context.Context, appointmentID, actorID snowflake.ID, action, detail string) error
}

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	FindByID(ctx context.Context, id snowflake.ID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id snowflake.ID) error

	// ListInRange returns appointments overlapping [from, to) that are
	// owned by one of owners or whose id is in ids.
	ListInRange(ctx context.Context, owners []snowflake.ID, ids []snowflake.ID, from, to time.Time) ([]Appointment, error)

	AppendActivity(ctx context.Context, act *Activity) error
	ListActivities(ctx context.Context, appointmentID snowflake.ID) ([]Activity, error)
}

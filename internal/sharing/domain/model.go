// Package domain contains the grant model and the permission resolver.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Permission is the level stored on a grant.
type Permission string

const (
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
	PermissionFull  Permission = "full"
)

func (p Permission) Valid() bool {
	switch p {
	case PermissionRead, PermissionWrite, PermissionFull:
		return true
	default:
		return false
	}
}

func (p Permission) rank() int {
	switch p {
	case PermissionFull:
		return 3
	case PermissionWrite:
		return 2
	case PermissionRead:
		return 1
	default:
		return 0
	}
}

// Level is the effective permission computed for a (resource, user) pair.
// It is derived on every check and never persisted.
type Level int

const (
	LevelNone Level = iota
	LevelRead
	LevelWrite
	LevelFull
	LevelOwner
)

func (l Level) String() string {
	switch l {
	case LevelOwner:
		return "owner"
	case LevelFull:
		return "full"
	case LevelWrite:
		return "write"
	case LevelRead:
		return "read"
	default:
		return "none"
	}
}

func (l Level) CanRead() bool   { return l >= LevelRead }
func (l Level) CanWrite() bool  { return l >= LevelWrite }
func (l Level) CanDelete() bool { return l >= LevelFull }

func levelOf(p Permission) Level {
	switch p {
	case PermissionFull:
		return LevelFull
	case PermissionWrite:
		return LevelWrite
	case PermissionRead:
		return LevelRead
	default:
		return LevelNone
	}
}

// GrantStatus is the invitation lifecycle state.
type GrantStatus string

const (
	StatusPending  GrantStatus = "pending"
	StatusAccepted GrantStatus = "accepted"
	StatusDeclined GrantStatus = "declined"
)

func (s GrantStatus) rank() int {
	switch s {
	case StatusAccepted:
		return 2
	case StatusPending:
		return 1
	default:
		return 0
	}
}

// GrantKind distinguishes appointment-scoped from account-wide grants.
type GrantKind string

const (
	KindAppointment GrantKind = "appointment"
	KindDashboard   GrantKind = "dashboard"
)

// InviteeRef identifies an invitee either by account id or, before the
// account exists, by email address. Email comparison is case-insensitive.
type InviteeRef struct {
	UserID snowflake.ID
	Email  string
}

func ByID(id snowflake.ID) InviteeRef { return InviteeRef{UserID: id} }
func ByEmail(address string) InviteeRef {
	return InviteeRef{Email: strings.ToLower(strings.TrimSpace(address))}
}

// Grant is the neutral view over both grant tables, consumed by the
// resolver and returned by listings.
type Grant struct {
	ID              snowflake.ID  `json:"id"`
	Kind            GrantKind     `json:"kind"`
	ResourceID      snowflake.ID  `json:"resource_id"`
	InvitedUserID   *snowflake.ID `json:"invited_user_id,omitempty"`
	InvitedEmail    *string       `json:"invited_email,omitempty"`
	InvitedByUserID snowflake.ID  `json:"invited_by_user_id"`
	Permission      Permission    `json:"permission"`
	Status          GrantStatus   `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
}

// AppointmentGrant is a share of one appointment.
type AppointmentGrant struct {
	ID              snowflake.ID  `gorm:"primaryKey"`
	AppointmentID   snowflake.ID  `gorm:"column:appointment_id;not null;index"`
	InvitedUserID   *snowflake.ID `gorm:"column:invited_user_id;index"`
	InvitedEmail    *string       `gorm:"column:invited_email;index"`
	InvitedByUserID snowflake.ID  `gorm:"column:invited_by_user_id;not null"`
	Permission      Permission    `gorm:"column:permission;type:text;not null"`
	Status          GrantStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	Token           string        `gorm:"column:token;type:text;not null;uniqueIndex"`
	CreatedAt       time.Time     `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time     `gorm:"column:updated_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (AppointmentGrant) TableName() string { return "appointment_grants" }

func (g AppointmentGrant) AsGrant() Grant {
	return Grant{
		ID:              g.ID,
		Kind:            KindAppointment,
		ResourceID:      g.AppointmentID,
		InvitedUserID:   g.InvitedUserID,
		InvitedEmail:    g.InvitedEmail,
		InvitedByUserID: g.InvitedByUserID,
		Permission:      g.Permission,
		Status:          g.Status,
		CreatedAt:       g.CreatedAt,
	}
}

// DashboardGrant shares a user's whole calendar.
type DashboardGrant struct {
	ID              snowflake.ID  `gorm:"primaryKey"`
	OwnerUserID     snowflake.ID  `gorm:"column:owner_user_id;not null;index"`
	InvitedUserID   *snowflake.ID `gorm:"column:invited_user_id;index"`
	InvitedEmail    *string       `gorm:"column:invited_email;index"`
	InvitedByUserID snowflake.ID  `gorm:"column:invited_by_user_id;not null"`
	Permission      Permission    `gorm:"column:permission;type:text;not null"`
	Status          GrantStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	Token           string        `gorm:"column:token;type:text;not null;uniqueIndex"`
	CreatedAt       time.Time     `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time     `gorm:"column:updated_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (DashboardGrant) TableName() string { return "dashboard_grants" }

func (g DashboardGrant) AsGrant() Grant {
	return Grant{
		ID:              g.ID,
		Kind:            KindDashboard,
		ResourceID:      g.OwnerUserID,
		InvitedUserID:   g.InvitedUserID,
		InvitedEmail:    g.InvitedEmail,
		InvitedByUserID: g.InvitedByUserID,
		Permission:      g.Permission,
		Status:          g.Status,
		CreatedAt:       g.CreatedAt,
	}
}

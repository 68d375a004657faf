// Package domain contains the appointment model and service contracts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status is the appointment's workflow state.
type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusAlert   Status = "alert"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusDone, StatusAlert:
		return true
	default:
		return false
	}
}

// Appointment is a calendar entry owned by one user. end_at is strictly
// after start_at.
type Appointment struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	OwnerID    snowflake.ID  `gorm:"column:owner_id;not null;index" json:"owner_id"`
	PatientID  *snowflake.ID `gorm:"column:patient_id;index" json:"patient_id,omitempty"`
	CategoryID *snowflake.ID `gorm:"column:category_id;index" json:"category_id,omitempty"`
	Title      string        `gorm:"column:title;type:text;not null" json:"title"`
	Notes      string        `gorm:"column:notes;type:text" json:"notes,omitempty"`
	Location   string        `gorm:"column:location;type:text" json:"location,omitempty"`
	StartAt    time.Time     `gorm:"column:start_at;not null;index" json:"start_at"`
	EndAt      time.Time     `gorm:"column:end_at;not null" json:"end_at"`
	Status     Status        `gorm:"column:status;type:text;not null;default:'pending'" json:"status"`
	CreatedAt  time.Time     `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time     `gorm:"column:updated_at;not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Appointment) TableName() string { return "appointments" }

// Activity actions recorded against an appointment.
const (
	ActionCreated         = "created"
	ActionUpdated         = "updated"
	ActionStatusChanged   = "status_changed"
	ActionShared          = "shared"
	ActionAttachmentAdded = "attachment_added"
)

// Activity is an append-only audit row for one appointment.
type Activity struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	AppointmentID snowflake.ID `gorm:"column:appointment_id;not null;index" json:"appointment_id"`
	ActorUserID   snowflake.ID `gorm:"column:actor_user_id;not null" json:"actor_user_id"`
	Action        string       `gorm:"column:action;type:text;not null" json:"action"`
	Detail        string       `gorm:"column:detail;type:text" json:"detail,omitempty"`
	CreatedAt     time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Activity) TableName() string { return "appointment_activities" }

// Package domain contains the patient record model and contracts.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	sharing "github.com/carebook/carebook/internal/sharing/domain"
)

var (
	ErrPatientNotFound = errors.New("patient_not_found")
	ErrInvalidName     = errors.New("invalid_name")
)

// Patient is a care recipient record owned by one user.
type Patient struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OwnerID   snowflake.ID `gorm:"column:owner_id;not null;index" json:"owner_id"`
	Name      string       `gorm:"column:name;type:text;not null" json:"name"`
	Email     string       `gorm:"column:email;type:text" json:"email,omitempty"`
	Phone     string       `gorm:"column:phone;type:text" json:"phone,omitempty"`
	Notes     string       `gorm:"column:notes;type:text" json:"notes,omitempty"`
	CreatedAt time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"column:updated_at;not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Patient) TableName() string { return "patients" }

type CreateRequest struct {
	OwnerID snowflake.ID
	Name    string
	Email   string
	Phone   string
	Notes   string
}

type UpdateRequest struct {
	Name  string
	Email string
	Phone string
	Notes string
}

// Service gates patient records by ownership or an accepted account-wide
// grant on the owner: read level to view, write to modify, full to delete.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Patient, error)
	Get(ctx context.Context, id snowflake.ID, actor sharing.InviteeRef) (*Patient, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateRequest, actor sharing.InviteeRef) (*Patient, error)
	Delete(ctx context.Context, id snowflake.ID, actor sharing.InviteeRef) error
	List(ctx context.Context, actor sharing.InviteeRef) ([]Patient, error)
}

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	FindByID(ctx context.Context, id snowflake.ID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id snowflake.ID) error
	ListByOwners(ctx context.Context, owners []snowflake.ID) ([]Patient, error)
}

// Package domain contains the appointment category model and contracts.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	sharing "github.com/carebook/carebook/internal/sharing/domain"
)

var (
	ErrCategoryNotFound = errors.New("category_not_found")
	ErrInvalidName      = errors.New("invalid_name")
)

// Category labels appointments on a user's calendar.
type Category struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OwnerID   snowflake.ID `gorm:"column:owner_id;not null;index" json:"owner_id"`
	Name      string       `gorm:"column:name;type:text;not null" json:"name"`
	Color     string       `gorm:"column:color;type:text" json:"color,omitempty"`
	CreatedAt time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"column:updated_at;not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Category) TableName() string { return "categories" }

type CreateRequest struct {
	OwnerID snowflake.ID
	Name    string
	Color   string
}

type UpdateRequest struct {
	Name  string
	Color string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Category, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateRequest, actor sharing.InviteeRef) (*Category, error)
	Delete(ctx context.Context, id snowflake.ID, actor sharing.InviteeRef) error
	List(ctx context.Context, actor sharing.InviteeRef) ([]Category, error)
}

type Repository interface {
	Create(ctx context.Context, c *Category) error
	FindByID(ctx context.Context, id snowflake.ID) (*Category, error)
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id snowflake.ID) error
	ListByOwners(ctx context.Context, owners []snowflake.ID) ([]Category, error)
}

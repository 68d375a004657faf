// Package domain contains the appointment attachment model and contracts.
package domain

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/bwmarrin/snowflake"
	sharing "github.com/carebook/carebook/internal/sharing/domain"
)

var (
	ErrAttachmentNotFound = errors.New("attachment_not_found")
	ErrInvalidFileName    = errors.New("invalid_file_name")
	ErrEmptyFile          = errors.New("empty_file")
)

// Attachment is the metadata row for one stored object. The row is the
// source of truth; the blob store holds the bytes under StorageKey.
type Attachment struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	AppointmentID snowflake.ID `gorm:"column:appointment_id;not null;index" json:"appointment_id"`
	UploaderID    snowflake.ID `gorm:"column:uploader_user_id;not null" json:"uploader_user_id"`
	FileName      string       `gorm:"column:file_name;type:text;not null" json:"file_name"`
	ContentType   string       `gorm:"column:content_type;type:text" json:"content_type,omitempty"`
	SizeBytes     int64        `gorm:"column:size_bytes;not null" json:"size_bytes"`
	StorageKey    string       `gorm:"column:storage_key;type:text;not null;uniqueIndex" json:"-"`
	CreatedAt     time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Attachment) TableName() string { return "attachments" }

type UploadRequest struct {
	AppointmentID snowflake.ID
	FileName      string
	ContentType   string
	SizeBytes     int64
	Body          io.Reader
}

// Download pairs the metadata with a reader over the stored bytes. The
// caller owns closing Body.
type Download struct {
	Attachment Attachment
	Body       io.ReadCloser
}

// Service gates attachments by the actor's permission on the appointment:
// write to upload, read to list and download, full (or being the uploader)
// to delete.
type Service interface {
	Upload(ctx context.Context, req UploadRequest, actor sharing.InviteeRef) (*Attachment, error)
	List(ctx context.Context, appointmentID snowflake.ID, actor sharing.InviteeRef) ([]Attachment, error)
	Open(ctx context.Context, appointmentID, attachmentID snowflake.ID, actor sharing.InviteeRef) (*Download, error)
	Delete(ctx context.Context, appointmentID, attachmentID snowflake.ID, actor sharing.InviteeRef) error
}

type Repository interface {
	Create(ctx context.Context, a *Attachment) error
	FindByID(ctx context.Context, id snowflake.ID) (*Attachment, error)
	Delete(ctx context.Context, id snowflake.ID) error
	ListByAppointment(ctx context.Context, appointmentID snowflake.ID) ([]Attachment, error)
}

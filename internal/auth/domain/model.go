// Package domain contains core types for the auth service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// User represents a system user account. Email is stored lowercased and is
// the secondary lookup key for invitations sent before the account existed.
type User struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	ExternalID    string       `gorm:"column:external_id;type:text;not null;uniqueIndex"`
	Email         string       `gorm:"column:email;type:text;not null;uniqueIndex"`
	DisplayName   string       `gorm:"column:display_name;type:text;not null;default:''"`
	PasswordHash  *string      `gorm:"column:password_hash;type:text"`
	EmailVerified bool         `gorm:"column:email_verified;not null;default:false"`
	VerifyToken   *string      `gorm:"column:verify_token;type:text;uniqueIndex"`
	CreatedAt     time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time    `gorm:"column:updated_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// Session represents a persisted login session.
type Session struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	UserID           snowflake.ID `gorm:"column:user_id;not null;index"`
	SessionTokenHash string       `gorm:"column:session_token_hash;type:text;not null;uniqueIndex"`
	UserAgent        string       `gorm:"column:user_agent;type:text"`
	IPAddress        string       `gorm:"column:ip_address;type:text"`
	ExpiresAt        time.Time    `gorm:"column:expires_at;not null;index"`
	RevokedAt        *time.Time   `gorm:"column:revoked_at"`
	CreatedAt        time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
	LastSeenAt       time.Time    `gorm:"column:last_seen_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }

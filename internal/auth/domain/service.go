package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	VerifyEmail(ctx context.Context, token string) error
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	Authenticate(ctx context.Context, rawToken string) (*Session, error)
	GetUser(ctx context.Context, id snowflake.ID) (*User, error)
}

type RegisterRequest struct {
	Email       string
	Password    string
	DisplayName string
}

type LoginRequest struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

type LoginResult struct {
	User      *User
	RawToken  string
	ExpiresAt time.Time
	SessionID snowflake.ID
}

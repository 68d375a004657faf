package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/carebook/carebook/internal/auth/domain"
	"github.com/carebook/carebook/internal/sharing/domain"
)

type userDirectory struct {
	users authdomain.Repository
}

// NewUserDirectory adapts the account store for invitee resolution.
func NewUserDirectory(users authdomain.Repository) domain.UserDirectory {
	return &userDirectory{users: users}
}

func (d *userDirectory) UserIDByEmail(ctx context.Context, address string) (snowflake.ID, bool, error) {
	user, err := d.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(address)))
	if err != nil {
		if errors.Is(err, authdomain.ErrUserNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return user.ID, true, nil
}

func (d *userDirectory) DisplayName(ctx context.Context, id snowflake.ID) (string, error) {
	user, err := d.users.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return user.DisplayName, nil
}

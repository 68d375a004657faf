package domain

import "errors"

var (
	ErrForbidden         = errors.New("forbidden")
	ErrGrantNotFound     = errors.New("grant_not_found")
	ErrInvalidPermission = errors.New("invalid_permission")
	ErrInvalidInvitee    = errors.New("invalid_invitee")
	ErrSelfInvite        = errors.New("self_invite")
)

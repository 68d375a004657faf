package domain

import (
	"strings"

	"github.com/bwmarrin/snowflake"
)

// Matches reports whether the grant is addressed to the invitee, either by
// bound account id or by case-insensitive email.
func (g Grant) Matches(invitee InviteeRef) bool {
	if invitee.UserID != 0 && g.InvitedUserID != nil && *g.InvitedUserID == invitee.UserID {
		return true
	}
	if invitee.Email != "" && g.InvitedEmail != nil &&
		strings.EqualFold(*g.InvitedEmail, invitee.Email) {
		return true
	}
	return false
}

// Resolve computes the effective permission of a user on a resource.
//
// An actor without a bound account id holds LevelNone: email alone never
// confers access. Ownership is absolute: the owner holds LevelOwner no
// matter what grants exist. Otherwise only accepted grants addressed to
// the user count, and when several match the highest permission wins.
// Pending and declined grants confer nothing.
func Resolve(ownerID snowflake.ID, grants []Grant, invitee InviteeRef) Level {
	if invitee.UserID == 0 {
		return LevelNone
	}
	if invitee.UserID == ownerID {
		return LevelOwner
	}

	best := LevelNone
	for _, g := range grants {
		if g.Status != StatusAccepted || !g.Matches(invitee) {
			continue
		}
		if lvl := levelOf(g.Permission); lvl > best {
			best = lvl
		}
	}
	return best
}

// BestGrant deduplicates the raw grant list for display: among all grants
// addressed to the invitee it returns the one with the highest permission,
// breaking ties by status (accepted over pending over declined). Returns
// nil when no grant matches.
func BestGrant(grants []Grant, invitee InviteeRef) *Grant {
	var best *Grant
	for i := range grants {
		g := &grants[i]
		if !g.Matches(invitee) {
			continue
		}
		if best == nil || betterGrant(g, best) {
			best = g
		}
	}
	return best
}

func betterGrant(a, b *Grant) bool {
	if a.Permission.rank() != b.Permission.rank() {
		return a.Permission.rank() > b.Permission.rank()
	}
	return a.Status.rank() > b.Status.rank()
}

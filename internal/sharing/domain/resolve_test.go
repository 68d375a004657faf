package domain

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ownerID   = snowflake.ID(1001)
	aliceID   = snowflake.ID(2002)
	bobID     = snowflake.ID(3003)
	apptID    = snowflake.ID(9009)
)

func grant(invitedID *snowflake.ID, email string, p Permission, s GrantStatus) Grant {
	g := Grant{
		Kind:            KindAppointment,
		ResourceID:      apptID,
		InvitedByUserID: ownerID,
		Permission:      p,
		Status:          s,
	}
	if invitedID != nil {
		g.InvitedUserID = invitedID
	}
	if email != "" {
		g.InvitedEmail = &email
	}
	return g
}

func idp(id snowflake.ID) *snowflake.ID { return &id }

func TestResolveOwnerSupremacy(t *testing.T) {
	// Ownership is structural and outranks every grant, including one
	// mistakenly issued to the owner's own id.
	assert.Equal(t, LevelOwner, Resolve(ownerID, nil, ByID(ownerID)))

	grants := []Grant{grant(idp(ownerID), "", PermissionRead, StatusAccepted)}
	assert.Equal(t, LevelOwner, Resolve(ownerID, grants, ByID(ownerID)))
}

func TestResolveNoGrants(t *testing.T) {
	assert.Equal(t, LevelNone, Resolve(ownerID, nil, ByID(aliceID)))

	actor := InviteeRef{UserID: aliceID, Email: "alice@example.com"}
	assert.Equal(t, LevelNone, Resolve(ownerID, []Grant{}, actor))
}

func TestResolveUnauthenticatedActor(t *testing.T) {
	// Without a bound account id nothing resolves, not even an accepted
	// grant addressed to the same email.
	grants := []Grant{grant(nil, "mallory@example.com", PermissionFull, StatusAccepted)}

	assert.Equal(t, LevelNone, Resolve(ownerID, grants, ByEmail("mallory@example.com")))
	assert.Equal(t, LevelNone, Resolve(ownerID, grants, InviteeRef{}))
}

func TestResolveAcceptedOnly(t *testing.T) {
	cases := []struct {
		name   string
		status GrantStatus
		want   Level
	}{
		{"pending confers nothing", StatusPending, LevelNone},
		{"declined confers nothing", StatusDeclined, LevelNone},
		{"accepted confers the granted level", StatusAccepted, LevelWrite},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			grants := []Grant{grant(idp(aliceID), "", PermissionWrite, tc.status)}
			assert.Equal(t, tc.want, Resolve(ownerID, grants, ByID(aliceID)))
		})
	}
}

func TestResolvePrecedenceHighestWins(t *testing.T) {
	grants := []Grant{
		grant(idp(bobID), "", PermissionWrite, StatusAccepted),
		grant(idp(bobID), "", PermissionFull, StatusAccepted),
	}
	assert.Equal(t, LevelFull, Resolve(ownerID, grants, ByID(bobID)))
}

func TestResolveMatchesByEmailCaseInsensitive(t *testing.T) {
	grants := []Grant{grant(nil, "bob@example.com", PermissionRead, StatusAccepted)}

	bob := InviteeRef{UserID: bobID, Email: "Bob@Example.COM"}
	assert.Equal(t, LevelRead, Resolve(ownerID, grants, bob))

	alice := InviteeRef{UserID: aliceID, Email: "alice@example.com"}
	assert.Equal(t, LevelNone, Resolve(ownerID, grants, alice))
}

func TestResolveConsidersBothIdentityArms(t *testing.T) {
	// The same person can hold an id-linked and an email-linked grant; the
	// higher of the two applies.
	grants := []Grant{
		grant(idp(bobID), "", PermissionRead, StatusAccepted),
		grant(nil, "bob@example.com", PermissionFull, StatusAccepted),
	}
	actor := InviteeRef{UserID: bobID, Email: "bob@example.com"}
	assert.Equal(t, LevelFull, Resolve(ownerID, grants, actor))
}

func TestResolvePendingDoesNotGateBeforeRedemption(t *testing.T) {
	// Invited by email, not yet redeemed: no access even for the invitee's
	// logged-in account.
	grants := []Grant{grant(nil, "bob@example.com", PermissionWrite, StatusPending)}

	actor := InviteeRef{UserID: bobID, Email: "bob@example.com"}
	assert.Equal(t, LevelNone, Resolve(ownerID, grants, actor))
}

func TestBestGrantDedup(t *testing.T) {
	grants := []Grant{
		grant(idp(bobID), "", PermissionRead, StatusAccepted),
		grant(idp(bobID), "", PermissionFull, StatusPending),
		grant(idp(bobID), "", PermissionWrite, StatusAccepted),
	}

	best := BestGrant(grants, ByID(bobID))
	require.NotNil(t, best)
	// Permission rank first, status rank as tiebreak.
	assert.Equal(t, PermissionFull, best.Permission)

	assert.Nil(t, BestGrant(grants, ByID(aliceID)))
}

func TestBestGrantStatusTiebreak(t *testing.T) {
	grants := []Grant{
		grant(idp(bobID), "", PermissionWrite, StatusDeclined),
		grant(idp(bobID), "", PermissionWrite, StatusAccepted),
		grant(idp(bobID), "", PermissionWrite, StatusPending),
	}

	best := BestGrant(grants, ByID(bobID))
	require.NotNil(t, best)
	assert.Equal(t, StatusAccepted, best.Status)
}

func TestLevelChecks(t *testing.T) {
	assert.True(t, LevelRead.CanRead())
	assert.False(t, LevelRead.CanWrite())
	assert.False(t, LevelRead.CanDelete())

	assert.True(t, LevelWrite.CanWrite())
	assert.False(t, LevelWrite.CanDelete())

	assert.True(t, LevelFull.CanDelete())
	assert.True(t, LevelOwner.CanDelete())

	assert.False(t, LevelNone.CanRead())
}

package server

import (
	"github.com/bwmarrin/snowflake"
	authdomain "github.com/carebook/carebook/internal/auth/domain"
	sharingdomain "github.com/carebook/carebook/internal/sharing/domain"
	"github.com/gin-gonic/gin"
)

const contextUserKey = "current_user"

// AuthRequired resolves the session cookie into the current user and makes
// it available to handlers. Requests without a valid session are rejected.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		sess, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		user, err := s.authsvc.GetUser(c.Request.Context(), sess.UserID)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(contextUserKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) (*authdomain.User, bool) {
	v, ok := c.Get(contextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*authdomain.User)
	return user, ok
}

// currentActor builds the invitee reference grants are matched against:
// the account id plus the account email for grants issued before signup.
func currentActor(c *gin.Context) (sharingdomain.InviteeRef, bool) {
	user, ok := currentUser(c)
	if !ok {
		return sharingdomain.InviteeRef{}, false
	}
	return sharingdomain.InviteeRef{UserID: user.ID, Email: user.Email}, true
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, ErrNotFound
	}
	return id, nil
}

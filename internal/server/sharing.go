package server

import (
	"net/http"

	apptdomain "github.com/carebook/carebook/internal/appointment/domain"
	sharingdomain "github.com/carebook/carebook/internal/sharing/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type shareRequest struct {
	Email      string `json:"email" binding:"required"`
	Permission string `json:"permission" binding:"required"`
}

func (s *Server) handleShareAppointment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.sharingSvc.ShareAppointment(c.Request.Context(), sharingdomain.ShareAppointmentRequest{
		AppointmentID: id,
		InviterID:     user.ID,
		InviteeEmail:  req.Email,
		Permission:    sharingdomain.Permission(req.Permission),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.appointmentSvc.RecordActivity(c.Request.Context(), id, user.ID, apptdomain.ActionShared, req.Email); err != nil {
		s.log.Warn("failed to record share activity", zap.Error(err))
	}

	c.JSON(http.StatusCreated, gin.H{
		"grant": result.Grant,
		"token": result.Token,
	})
}

func (s *Server) handleShareDashboard(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.sharingSvc.ShareDashboard(c.Request.Context(), sharingdomain.ShareDashboardRequest{
		OwnerID:      user.ID,
		InviteeEmail: req.Email,
		Permission:   sharingdomain.Permission(req.Permission),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"grant": result.Grant,
		"token": result.Token,
	})
}

// handleAcceptInvitation redeems the token from the mailed link and binds
// the grant to the signed-in account.
func (s *Server) handleAcceptInvitation(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	grant, err := s.sharingSvc.Redeem(c.Request.Context(), c.Query("token"), user.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"grant": grant})
}

func (s *Server) handleDeclineInvitation(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	grant, err := s.sharingSvc.Decline(c.Request.Context(), c.Query("token"), user.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"grant": grant})
}

func (s *Server) handleDiscardInvitation(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	kind := sharingdomain.GrantKind(c.Param("kind"))
	if kind != sharingdomain.KindAppointment && kind != sharingdomain.KindDashboard {
		AbortWithError(c, ErrNotFound)
		return
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.sharingSvc.Discard(c.Request.Context(), kind, id, actor); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"discarded": true})
}

func (s *Server) handleListInvitations(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	grants, err := s.sharingSvc.ListForInvitee(c.Request.Context(), actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invitations": grants})
}

func (s *Server) handleListAppointmentGrants(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	grants, err := s.sharingSvc.ListForAppointment(c.Request.Context(), id, user.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"grants": grants})
}

func (s *Server) handleListDashboardGrants(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	grants, err := s.sharingSvc.ListForDashboard(c.Request.Context(), user.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"grants": grants})
}

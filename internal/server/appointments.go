package server

import (
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	apptdomain "github.com/carebook/carebook/internal/appointment/domain"
	"github.com/gin-gonic/gin"
)

type appointmentRequest struct {
	PatientID  *string   `json:"patient_id"`
	CategoryID *string   `json:"category_id"`
	Title      string    `json:"title" binding:"required"`
	Notes      string    `json:"notes"`
	Location   string    `json:"location"`
	StartAt    time.Time `json:"start_at" binding:"required"`
	EndAt      time.Time `json:"end_at" binding:"required"`
	Status     string    `json:"status"`
}

func parseOptionalID(raw *string) (*snowflake.ID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(*raw)
	if err != nil {
		return nil, ErrInvalidRequest
	}
	return &id, nil
}

func (s *Server) handleCreateAppointment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req appointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	patientID, err := parseOptionalID(req.PatientID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	categoryID, err := parseOptionalID(req.CategoryID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	appt, err := s.appointmentSvc.Create(c.Request.Context(), apptdomain.CreateRequest{
		OwnerID:    user.ID,
		PatientID:  patientID,
		CategoryID: categoryID,
		Title:      req.Title,
		Notes:      req.Notes,
		Location:   req.Location,
		StartAt:    req.StartAt,
		EndAt:      req.EndAt,
		Status:     apptdomain.Status(req.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"appointment": appt})
}

func (s *Server) handleGetAppointment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	appt, err := s.appointmentSvc.Get(c.Request.Context(), id, actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointment": appt})
}

func (s *Server) handleUpdateAppointment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req appointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	patientID, err := parseOptionalID(req.PatientID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	categoryID, err := parseOptionalID(req.CategoryID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	appt, err := s.appointmentSvc.Update(c.Request.Context(), id, apptdomain.UpdateRequest{
		PatientID:  patientID,
		CategoryID: categoryID,
		Title:      req.Title,
		Notes:      req.Notes,
		Location:   req.Location,
		StartAt:    req.StartAt,
		EndAt:      req.EndAt,
	}, actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointment": appt})
}

func (s *Server) handleUpdateAppointmentStatus(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	appt, err := s.appointmentSvc.UpdateStatus(c.Request.Context(), id, apptdomain.Status(req.Status), actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointment": appt})
}

func (s *Server) handleDeleteAppointment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.appointmentSvc.Delete(c.Request.Context(), id, actor); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// handleListAppointments returns the calendar window [from, to), defaulting
// to the current month when no bounds are given.
func (s *Server) handleListAppointments(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	from, to, err := parseRange(c.Query("from"), c.Query("to"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	appts, err := s.appointmentSvc.ListRange(c.Request.Context(), actor, apptdomain.RangeQuery{From: from, To: to})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appts})
}

func (s *Server) handleListAppointmentActivities(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	activities, err := s.appointmentSvc.ListActivities(c.Request.Context(), id, actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": activities})
}

func parseRange(fromRaw, toRaw string) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	if fromRaw != "" {
		parsed, err := time.Parse(time.RFC3339, fromRaw)
		if err != nil {
			return time.Time{}, time.Time{}, ErrInvalidRequest
		}
		from = parsed
	}
	if toRaw != "" {
		parsed, err := time.Parse(time.RFC3339, toRaw)
		if err != nil {
			return time.Time{}, time.Time{}, ErrInvalidRequest
		}
		to = parsed
	}
	return from, to, nil
}

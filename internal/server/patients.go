package server

import (
	"net/http"

	patientdomain "github.com/carebook/carebook/internal/patient/domain"
	"github.com/gin-gonic/gin"
)

type patientRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Notes string `json:"notes"`
}

func (s *Server) handleCreatePatient(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req patientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	p, err := s.patientSvc.Create(c.Request.Context(), patientdomain.CreateRequest{
		OwnerID: user.ID,
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Notes:   req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"patient": p})
}

func (s *Server) handleGetPatient(c *gin.Context) {
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

	p, err := s.patientSvc.Get(c.Request.Context(), id, actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"patient": p})
}

func (s *Server) handleUpdatePatient(c *gin.Context) {
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

	var req patientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	p, err := s.patientSvc.Update(c.Request.Context(), id, patientdomain.UpdateRequest{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Notes: req.Notes,
	}, actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"patient": p})
}

func (s *Server) handleDeletePatient(c *gin.Context) {
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

	if err := s.patientSvc.Delete(c.Request.Context(), id, actor); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (s *Server) handleListPatients(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	patients, err := s.patientSvc.List(c.Request.Context(), actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"patients": patients})
}

package server

import (
	"net/http"

	categorydomain "github.com/carebook/carebook/internal/category/domain"
	"github.com/gin-gonic/gin"
)

type categoryRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
}

func (s *Server) handleCreateCategory(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	cat, err := s.categorySvc.Create(c.Request.Context(), categorydomain.CreateRequest{
		OwnerID: user.ID,
		Name:    req.Name,
		Color:   req.Color,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": cat})
}

func (s *Server) handleUpdateCategory(c *gin.Context) {
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

	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	cat, err := s.categorySvc.Update(c.Request.Context(), id, categorydomain.UpdateRequest{
		Name:  req.Name,
		Color: req.Color,
	}, actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": cat})
}

func (s *Server) handleDeleteCategory(c *gin.Context) {
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

	if err := s.categorySvc.Delete(c.Request.Context(), id, actor); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (s *Server) handleListCategories(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	categories, err := s.categorySvc.List(c.Request.Context(), actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

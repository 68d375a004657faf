package server

import (
	"net/http"

	authdomain "github.com/carebook/carebook/internal/auth/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Login attempts per client IP: burst of 10, refilling one every 6 seconds.
const (
	loginRatePerSecond = 1.0 / 6.0
	loginBurst         = 10
)

type registerRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userResponse struct {
	ID            string `json:"id"`
	ExternalID    string `json:"external_id"`
	Email         string `json:"email"`
	DisplayName   string `json:"display_name"`
	EmailVerified bool   `json:"email_verified"`
}

func toUserResponse(u *authdomain.User) userResponse {
	return userResponse{
		ID:            u.ID.String(),
		ExternalID:    u.ExternalID,
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		EmailVerified: u.EmailVerified,
	}
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	user, err := s.authsvc.Register(c.Request.Context(), authdomain.RegisterRequest{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": toUserResponse(user)})
}

func (s *Server) handleVerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if err := s.authsvc.VerifyEmail(c.Request.Context(), token); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"verified": true})
}

func (s *Server) handleLogin(c *gin.Context) {
	allowed, err := s.limiter.Allow(c.Request.Context(), "login:"+c.ClientIP(), loginRatePerSecond, loginBurst)
	if err != nil {
		// A broken limiter backend must not lock everyone out.
		s.log.Warn("rate limiter unavailable, allowing login attempt", zap.Error(err))
	} else if !allowed {
		AbortWithError(c, ErrRateLimited)
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.authsvc.Login(c.Request.Context(), authdomain.LoginRequest{
		Email:     req.Email,
		Password:  req.Password,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(result.User)})
}

func (s *Server) handleLogout(c *gin.Context) {
	if token, ok := s.sessions.ReadToken(c); ok {
		if err := s.authsvc.Logout(c.Request.Context(), token); err != nil {
			s.log.Debug("logout with stale session", zap.Error(err))
		}
	}
	s.sessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{"logged_out": true})
}

func (s *Server) handleMe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

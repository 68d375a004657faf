package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carebook/carebook/internal/appointment"
	apptdomain "github.com/carebook/carebook/internal/appointment/domain"
	"github.com/carebook/carebook/internal/attachment"
	attachmentdomain "github.com/carebook/carebook/internal/attachment/domain"
	"github.com/carebook/carebook/internal/auth"
	authdomain "github.com/carebook/carebook/internal/auth/domain"
	"github.com/carebook/carebook/internal/auth/session"
	"github.com/carebook/carebook/internal/category"
	categorydomain "github.com/carebook/carebook/internal/category/domain"
	"github.com/carebook/carebook/internal/clock"
	"github.com/carebook/carebook/internal/config"
	"github.com/carebook/carebook/internal/migration"
	"github.com/carebook/carebook/internal/observability"
	obslogger "github.com/carebook/carebook/internal/observability/logger"
	obsmetrics "github.com/carebook/carebook/internal/observability/metrics"
	"github.com/carebook/carebook/internal/patient"
	patientdomain "github.com/carebook/carebook/internal/patient/domain"
	"github.com/carebook/carebook/internal/providers/blob"
	"github.com/carebook/carebook/internal/providers/email"
	"github.com/carebook/carebook/internal/ratelimit"
	"github.com/carebook/carebook/internal/sharing"
	sharingdomain "github.com/carebook/carebook/internal/sharing/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	config.Module,
	observability.Module,
	migration.Module,
	clock.Module,
	email.Module,
	blob.Module,
	ratelimit.Module,
	auth.Module,
	sharing.Module,
	appointment.Module,
	patient.Module,
	category.Module,
	attachment.Module,
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(log))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.ListenAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine         *gin.Engine
	cfg            config.Config
	log            *zap.Logger
	authsvc        authdomain.Service
	sessions       *session.Manager
	appointmentSvc apptdomain.Service
	patientSvc     patientdomain.Service
	categorySvc    categorydomain.Service
	sharingSvc     sharingdomain.Service
	attachmentSvc  attachmentdomain.Service
	limiter        ratelimit.Limiter
	genID          *snowflake.Node
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	Log            *zap.Logger
	Authsvc        authdomain.Service
	Sessions       *session.Manager
	AppointmentSvc apptdomain.Service
	PatientSvc     patientdomain.Service
	CategorySvc    categorydomain.Service
	SharingSvc     sharingdomain.Service
	AttachmentSvc  attachmentdomain.Service
	Limiter        ratelimit.Limiter
	GenID          *snowflake.Node
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		log:            p.Log.Named("server"),
		authsvc:        p.Authsvc,
		sessions:       p.Sessions,
		appointmentSvc: p.AppointmentSvc,
		patientSvc:     p.PatientSvc,
		categorySvc:    p.CategorySvc,
		sharingSvc:     p.SharingSvc,
		attachmentSvc:  p.AttachmentSvc,
		limiter:        p.Limiter,
		genID:          p.GenID,
	}

	s.registerAuthRoutes()
	s.registerInvitationRoutes()
	s.registerAPIRoutes()

	return s
}

func (s *Server) registerAuthRoutes() {
	grp := s.engine.Group("/auth")
	grp.POST("/register", s.handleRegister)
	grp.GET("/verify", s.handleVerifyEmail)
	grp.POST("/login", s.handleLogin)
	grp.POST("/logout", s.handleLogout)
	grp.GET("/me", s.AuthRequired(), s.handleMe)
}

func (s *Server) registerInvitationRoutes() {
	// The redemption link lives outside /api so mailed URLs stay stable.
	s.engine.GET("/accept-invitation", s.AuthRequired(), s.handleAcceptInvitation)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	api.GET("/appointments", s.handleListAppointments)
	api.POST("/appointments", s.handleCreateAppointment)
	api.GET("/appointments/:id", s.handleGetAppointment)
	api.PUT("/appointments/:id", s.handleUpdateAppointment)
	api.DELETE("/appointments/:id", s.handleDeleteAppointment)
	api.PATCH("/appointments/:id/status", s.handleUpdateAppointmentStatus)
	api.GET("/appointments/:id/activities", s.handleListAppointmentActivities)

	api.GET("/patients", s.handleListPatients)
	api.POST("/patients", s.handleCreatePatient)
	api.GET("/patients/:id", s.handleGetPatient)
	api.PUT("/patients/:id", s.handleUpdatePatient)
	api.DELETE("/patients/:id", s.handleDeletePatient)

	api.GET("/categories", s.handleListCategories)
	api.POST("/categories", s.handleCreateCategory)
	api.PUT("/categories/:id", s.handleUpdateCategory)
	api.DELETE("/categories/:id", s.handleDeleteCategory)

	api.POST("/appointments/:id/share", s.handleShareAppointment)
	api.GET("/appointments/:id/grants", s.handleListAppointmentGrants)
	api.POST("/dashboard/share", s.handleShareDashboard)
	api.GET("/dashboard/grants", s.handleListDashboardGrants)
	api.GET("/invitations", s.handleListInvitations)
	api.POST("/invitations/decline", s.handleDeclineInvitation)
	api.POST("/invitations/:kind/:id/discard", s.handleDiscardInvitation)

	api.POST("/appointments/:id/attachments", s.handleUploadAttachment)
	api.GET("/appointments/:id/attachments", s.handleListAttachments)
	api.GET("/appointments/:id/attachments/:attachmentId", s.handleDownloadAttachment)
	api.DELETE("/appointments/:id/attachments/:attachmentId", s.handleDeleteAttachment)
}

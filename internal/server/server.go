package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"hallslot/internal/auth"
	"hallslot/internal/booking"
	"hallslot/internal/config"
	"hallslot/internal/department"
	"hallslot/internal/hall"
	"hallslot/internal/logger"

	"github.com/gin-gonic/gin"
)

// Deps are the services the HTTP layer exposes.
type Deps struct {
	Bookings    booking.Service
	Notifier    booking.Notifier
	Halls       hall.Service
	Departments department.Service
	Mail        MailSender
	Pinger      Pinger
}

type Server struct {
	router *gin.Engine
	http   *http.Server
	config *config.Config
}

func New(cfg *config.Config, deps Deps) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(corsMiddleware())
	if cfg.RateLimitRPS > 0 {
		router.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	adminOnly := []gin.HandlerFunc{authMiddleware, auth.RequireRole(auth.RoleAdmin)}

	router.GET("/health", Health(deps.Pinger))
	router.GET("/metrics", Metrics())
	router.POST("/api/auth/refresh", RefreshToken(cfg.JWTSecret, cfg.JWTRefreshSecret))

	notifier := deps.Notifier
	if notifier == nil {
		notifier = booking.NopNotifier{}
	}
	bookings := router.Group("/api/bookings")
	bookings.Use(auth.OptionalAuth(cfg.JWTSecret))
	booking.NewHandler(deps.Bookings, notifier).RegisterRoutes(bookings, adminOnly...)

	if deps.Halls != nil {
		hall.NewHandler(deps.Halls).RegisterRoutes(router.Group("/api/halls"), router.Group("/api/hall-operators"), adminOnly...)
	}
	if deps.Departments != nil {
		department.NewHandler(deps.Departments).RegisterRoutes(router.Group("/api/departments"), adminOnly...)
	}
	if deps.Mail != nil {
		router.GET("/admin/test-email", append(adminOnly, TestEmail(deps.Mail))...)
	}

	addr := ":" + cfg.Port
	return &Server{
		router: router,
		config: cfg,
		http: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called; a clean shutdown returns nil.
func (s *Server) Start() error {
	logger.Infof("HTTP server listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

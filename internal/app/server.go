// File: internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"devops_platform_backend/internal/activity"
	"devops_platform_backend/internal/admin"
	"devops_platform_backend/internal/alerts"
	"devops_platform_backend/internal/auth"
	"devops_platform_backend/internal/common"
	"devops_platform_backend/internal/config"
	"devops_platform_backend/internal/jobs"
	"devops_platform_backend/internal/middleware"
	"devops_platform_backend/internal/monitor"
	"devops_platform_backend/internal/onboarding"
	"devops_platform_backend/internal/platform/metrics"
	"devops_platform_backend/internal/provisioning"
	"devops_platform_backend/internal/workload"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers mounted under /api.
type Handlers struct {
	Auth       *auth.Handler
	Onboarding *onboarding.Handler
	Admin      *admin.Handler
	Workload   *workload.Handler
	Monitor    *monitor.Handler
	Alerts     *alerts.Handler
	Activity   *activity.Handler
}

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	// Background work
	worker      *provisioning.Worker
	retryJob    *jobs.ProvisioningRetryJob
	limiter     *middleware.RateLimiter
	stopCleanup chan struct{}
}

// NewServer creates a new instance of our application server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	m *metrics.Metrics,
	tokens auth.TokenService,
	blocklist auth.TokenBlocklistService,
	handlers Handlers,
	worker *provisioning.Worker,
	retryJob *jobs.ProvisioningRetryJob,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	common.RegisterValidators()
	router := gin.New()

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())
	router.Use(m.GinMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = []string{"http://localhost:3001"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	// Middleware instances
	authMW := middleware.AuthMiddleware(tokens, blocklist, logger.Named("AuthMiddleware"))
	nsMW := middleware.RequireNamespace()
	platformAdminMW := middleware.RoleAuthMiddleware(common.RolePlatformAdmin)
	adminsMW := middleware.RoleAuthMiddleware(common.RoleAdmin, common.RolePlatformAdmin)
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger.Named("RateLimiter"))
	limitMW := limiter.Handler()

	// --- Setup Routes ---
	router.GET("/metrics", gin.WrapH(m.Handler()))

	api := router.Group("/api")
	api.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Hello! API is running."})
	})
	api.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.Auth.RegisterRoutes(api, authMW, limitMW)
	handlers.Onboarding.RegisterRoutes(api, authMW, limitMW)
	handlers.Admin.RegisterRoutes(api, authMW, platformAdminMW)
	handlers.Workload.RegisterRoutes(api, authMW, nsMW)
	handlers.Monitor.RegisterRoutes(api, authMW, nsMW, handlers.Workload.Status)
	handlers.Alerts.RegisterRoutes(api, limitMW, authMW, platformAdminMW)
	handlers.Activity.RegisterRoutes(api, authMW, adminsMW)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer:  httpServer,
		router:      router,
		cfg:         cfg,
		logger:      logger,
		worker:      worker,
		retryJob:    retryJob,
		limiter:     limiter,
		stopCleanup: make(chan struct{}),
	}, nil
}

// Router exposes the engine for in-process tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start runs background workers and blocks serving HTTP.
func (s *Server) Start() error {
	if s.worker != nil {
		s.worker.Start()
	}
	if s.retryJob != nil {
		if err := s.retryJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start provisioning retry job", zap.Error(err))
		}
	}
	s.limiter.StartCleanup(time.Minute, s.stopCleanup)

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped")
	return nil
}

// Shutdown stops accepting requests, then drains the background workers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	err := s.httpServer.Shutdown(ctx)

	close(s.stopCleanup)
	if s.retryJob != nil {
		s.retryJob.Stop()
	}
	if s.worker != nil {
		s.worker.Stop()
	}
	return err
}

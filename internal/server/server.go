package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aarongarrett/quorum/config"
	"github.com/aarongarrett/quorum/internal/feed"
	"github.com/aarongarrett/quorum/internal/handler"
	"github.com/aarongarrett/quorum/internal/middleware"
	"github.com/aarongarrett/quorum/internal/redis"
	"github.com/aarongarrett/quorum/internal/services"
	"github.com/aarongarrett/quorum/internal/transport/httpdto"
	"github.com/aarongarrett/quorum/pkg/database"
	"github.com/aarongarrett/quorum/pkg/logger"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
	publisher  *feed.Publisher
	cancelFeed context.CancelFunc
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	Checkin *handler.CheckinHandler
	Vote    *handler.VoteHandler
	Meeting *handler.MeetingHandler
	Feed    *handler.FeedHandler
	WSFeed  *WebSocketFeedHandler
}

func New(cfg *config.Config, l *logger.Logger, publisher *feed.Publisher) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.AppPort),
			Handler: engine,
		},
		engine:    engine,
		config:    cfg,
		logger:    l,
		publisher: publisher,
	}
}

func (s *Server) SetupRoutes(handlers *Handlers, adminService *services.AdminService, limiter *redis.RateLimiter, db *sql.DB) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORSMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		if err := database.HealthCheck(db); err != nil {
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(err.Error(), "UNHEALTHY"))
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	api := s.engine.Group("/api/v1")
	{
		api.GET("/meetings", handlers.Meeting.ListAvailable)
		api.GET("/meetings/:id/tallies", handlers.Meeting.PublicTallies)
		api.GET("/meetings/:id/qr", handlers.Meeting.CheckinQR)
		api.POST("/meetings/:id/checkin",
			middleware.RateLimitMiddleware(limiter, middleware.ScopeCheckin),
			handlers.Checkin.CheckIn)
		api.POST("/meetings/:id/polls/:pollID/vote",
			middleware.RateLimitMiddleware(limiter, middleware.ScopeVote),
			handlers.Vote.CastVote)
		api.POST("/meetings/:id/status", handlers.Vote.SelfStatus)

		api.GET("/feed", handlers.Feed.Attendee)
		api.GET("/ws/feed", handlers.WSFeed.Attendee)

		admin := api.Group("/admin")
		{
			admin.POST("/login",
				middleware.RateLimitMiddleware(limiter, middleware.ScopeAuth),
				handlers.Auth.Login)

			authed := admin.Group("", middleware.AdminRequired(adminService))
			{
				authed.GET("/meetings", handlers.Meeting.AdminList)
				authed.POST("/meetings", handlers.Meeting.Create)
				authed.DELETE("/meetings/:id", handlers.Meeting.Delete)
				authed.POST("/meetings/:id/polls", handlers.Meeting.CreatePoll)
				authed.DELETE("/meetings/:id/polls/:pollID", handlers.Meeting.DeletePoll)
				authed.GET("/feed", handlers.Feed.Admin)
				authed.GET("/ws/feed", handlers.WSFeed.Admin)
			}
		}
	}
}

func (s *Server) Start() error {
	// The feed publisher lives exactly as long as the server instance.
	feedCtx, cancel := context.WithCancel(context.Background())
	s.cancelFeed = cancel
	go s.publisher.Run(feedCtx)

	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Errorf("Error in starting the server: %s", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	if s.logger != nil {
		s.logger.Infof("Server is running on :%s", s.config.AppPort)
	}

	<-quit

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")
	}

	ctx, cancelShutdown := context.WithTimeout(context.Background(), time.Second*5)
	defer cancelShutdown()

	s.cancelFeed()
	return s.httpServer.Shutdown(ctx)
}

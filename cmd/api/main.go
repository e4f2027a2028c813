package main

import (
	"log"
	"time"

	"github.com/aarongarrett/quorum/config"
	"github.com/aarongarrett/quorum/internal/feed"
	"github.com/aarongarrett/quorum/internal/handler"
	quorumredis "github.com/aarongarrett/quorum/internal/redis"
	"github.com/aarongarrett/quorum/internal/repository"
	"github.com/aarongarrett/quorum/internal/server"
	"github.com/aarongarrett/quorum/internal/services"
	"github.com/aarongarrett/quorum/pkg/database"
	"github.com/aarongarrett/quorum/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	logMode := logger.DevelopmentMode
	if cfg.AppMode == server.ReleaseMode {
		logMode = logger.ProductionMode
	}
	l := logger.New(logMode)
	logger.SetGlobalLogger(l)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redisClient := quorumredis.NewClient(cfg)
	defer redisClient.Close()

	limiter := quorumredis.NewRateLimiter(
		quorumredis.NewRedisCounter(redisClient),
		quorumredis.RateLimitConfig{
			CheckinLimit: cfg.CheckinLimitPerMin,
			VoteLimit:    cfg.VoteLimitPerMin,
			AuthLimit:    cfg.AuthLimitPerMin,
			Window:       time.Minute,
		})

	meetingRepo := repository.NewMeetingRepository(db)
	pollRepo := repository.NewPollRepository(db)
	credentialRepo := repository.NewCredentialRepository(db)
	voteRepo := repository.NewVoteRepository(db)

	credentialService := services.NewCredentialService(meetingRepo, credentialRepo, cfg.CredentialPepper)
	aggregatorService := services.NewAggregatorService(meetingRepo, pollRepo, voteRepo, credentialRepo, credentialService)

	bus := quorumredis.NewEventBus(redisClient)
	publisher := feed.NewPublisher(aggregatorService, bus, l,
		time.Duration(cfg.AttendeeFeedSeconds)*time.Second,
		time.Duration(cfg.AdminFeedSeconds)*time.Second)

	checkinService := services.NewCheckinService(meetingRepo, credentialService, publisher)
	voteService := services.NewVoteService(meetingRepo, pollRepo, voteRepo, credentialService, publisher)
	meetingService := services.NewMeetingService(meetingRepo, publisher)
	pollService := services.NewPollService(meetingRepo, pollRepo, publisher)
	qrService := services.NewQRCodeService(cfg.BaseURL)

	adminService, err := services.NewAdminService(cfg)
	if err != nil {
		log.Fatalf("Admin auth misconfigured: %v", err)
	}

	srv := server.New(cfg, l, publisher)
	srv.SetupRoutes(&server.Handlers{
		Auth:    handler.NewAuthHandler(adminService),
		Checkin: handler.NewCheckinHandler(checkinService),
		Vote:    handler.NewVoteHandler(voteService, aggregatorService),
		Meeting: handler.NewMeetingHandler(meetingService, pollService, aggregatorService, qrService),
		Feed:    handler.NewFeedHandler(publisher),
		WSFeed:  server.NewWebSocketFeedHandler(publisher, l),
	}, adminService, limiter, db)

	if err := srv.Start(); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}
}

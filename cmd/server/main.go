package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"manganime/internal/cache"
	"manganime/internal/core"
	httpProtocol "manganime/internal/protocols/http"
	wsProtocol "manganime/internal/protocols/websocket"
	"manganime/internal/repository"
	"manganime/pkg/config"
	"manganime/pkg/database"
	"manganime/pkg/logger"
)

func main() {
	configPath := os.Getenv("MANGANIME_CONFIG")
	if configPath == "" {
		configPath = "./configs/development.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	logger.Info("Starting Manganime server...")

	dbCfg := database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		Timeout:         cfg.Database.Timeout,
	}

	// database/sql handle for migrations and health checks, pgx pool for
	// the repositories.
	db, err := database.NewDB(dbCfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db, cfg.Database.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Database migrations applied")

	pool, err := database.NewPGXPool(dbCfg)
	if err != nil {
		log.Fatalf("Failed to create pgx pool: %v", err)
	}
	defer pool.Close()

	probeCtx, cancelProbe := context.WithTimeout(context.Background(), 10*time.Second)
	caps := database.DetectCapabilities(probeCtx, pool)
	cancelProbe()
	logger.Infof("Store capabilities: threaded_comments=%v", caps.ThreadedComments)

	// Repositories
	profileRepo := repository.NewProfileRepository(pool)
	commentRepo := repository.NewCommentRepository(pool, caps)
	likeRepo := repository.NewLikeRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	libraryRepo := repository.NewLibraryRepository(pool)
	contentRepo := repository.NewContentRepository(pool)
	friendRepo := repository.NewFriendRepository(pool)

	// Notification cache: in-process by default, Redis when configured.
	var notificationCache cache.Cache = cache.NewMemory()
	if cfg.Cache.Driver == "redis" {
		redisClient, err := database.NewRedisClient(database.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Warnf("Redis unavailable, using in-process cache: %v", err)
		} else {
			defer redisClient.Close()
			notificationCache = cache.NewRedis(redisClient, "manganime")
			logger.Info("Using Redis notification cache")
		}
	}

	// Live event hub
	wsHub := wsProtocol.NewHub()
	defer wsHub.Stop()

	// Core services
	authSvc := core.NewAuthService(profileRepo, cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiration)
	notificationSvc := core.NewNotificationService(notificationRepo, notificationCache, cfg.Cache.TTL)
	commentSvc := core.NewCommentService(commentRepo, likeRepo, profileRepo, notificationSvc, wsHub, caps)
	likeSvc := core.NewLikeService(likeRepo, commentRepo, profileRepo, notificationSvc)
	librarySvc := core.NewLibraryService(libraryRepo)
	contentSvc := core.NewContentService(contentRepo, notificationSvc)
	friendSvc := core.NewFriendService(friendRepo, profileRepo, notificationSvc)

	wsHandler := wsProtocol.NewHandler(wsHub, contentSvc)

	httpServer := httpProtocol.NewServer(
		cfg,
		authSvc,
		commentSvc,
		likeSvc,
		notificationSvc,
		librarySvc,
		contentSvc,
		friendSvc,
		wsHandler,
		db,
	)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("HTTP server panic recovered: %v", r)
			}
		}()
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		logger.Infof("Starting HTTP server on %s", addr)
		if err := httpServer.Start(addr); err != nil {
			logger.Errorf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
}

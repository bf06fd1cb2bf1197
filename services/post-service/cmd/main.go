package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"seungpyo.lee/MemoryJournal/pkg/jwt"
	"seungpyo.lee/MemoryJournal/pkg/logger"
	"seungpyo.lee/MemoryJournal/services/post-service/internal/config"
	"seungpyo.lee/MemoryJournal/services/post-service/internal/domain"
	"seungpyo.lee/MemoryJournal/services/post-service/internal/handler"
	"seungpyo.lee/MemoryJournal/services/post-service/internal/repository"
	"seungpyo.lee/MemoryJournal/services/post-service/internal/service"
)

func main() {
	conf := config.LoadPostConfig()
	base := logger.New(conf.LogLevel)
	log := base.Named("post-service")

	db, err := gorm.Open(postgres.Open(conf.PostgreConnectionString), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect db: %v", err)
	}
	// auto migration
	if err := db.AutoMigrate(&domain.User{}, &domain.Post{}, &domain.Image{}); err != nil {
		log.Fatalf("failed to migrate db: %v", err)
	}

	var tokens jwt.TokenManager
	var rdb *redis.Client
	if conf.RedisEnabled() {
		rdb = redis.NewClient(&redis.Options{
			Addr:       conf.RedisDBURL + ":" + conf.RedisDBPort,
			Password:   conf.RedisDBPassword,
			MaxRetries: conf.RedisMaxRetries,
			PoolSize:   conf.RedisPoolSize,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		tokens = jwt.NewTokenManager(conf.JWTSecretKey, rdb)
	} else {
		log.Warn("REDIS_DB_URL not set, session revocation disabled")
		tokens = jwt.NewTokenManagerWithoutRedis(conf.JWTSecretKey)
	}

	postRepo := repository.NewPostRepository(db)
	userRepo := repository.NewUserRepository(db)
	svc := service.NewPostService(postRepo, userRepo, base.Named("posts"))
	h := handler.NewPostHandler(svc, tokens, log)

	r := gin.Default()
	h.Register(r)

	srv := &http.Server{
		Addr:         ":" + conf.ServerPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("HTTP server listening on :%s", conf.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("server shutdown error: %v", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server gracefully stopped")
}

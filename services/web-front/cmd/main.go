package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"seungpyo.lee/MemoryJournal/pkg/jwt"
	"seungpyo.lee/MemoryJournal/pkg/logger"
	"seungpyo.lee/MemoryJournal/services/web-front/internal/adapter"
	"seungpyo.lee/MemoryJournal/services/web-front/internal/config"
	auth "seungpyo.lee/MemoryJournal/services/web-front/internal/handler/auth"
	memory "seungpyo.lee/MemoryJournal/services/web-front/internal/handler/memory"
	"seungpyo.lee/MemoryJournal/services/web-front/internal/objectstore"
)

func main() {
	cfg := config.LoadWebConfig()
	base := logger.New(cfg.LogLevel)
	log := base.Named("web-front")

	store, err := objectstore.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to init object storage: %v", err)
	}
	log.Infof("object storage driver: %s", cfg.StorageDriver)

	posts := adapter.NewPostClient(cfg.PostServiceURL, &http.Client{})
	tokens := jwt.NewTokenManagerWithoutRedis(cfg.JWTSecretKey)
	authH := auth.NewAuthHandler(cfg, tokens, posts, base.Named("auth"))
	memoryH := memory.NewMemoryHandler(cfg, posts, store, base.Named("memories"))

	r := gin.Default()
	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/logout", authH.Logout)

	memories := r.Group("/memories", authH.RequireSession())
	memories.GET("", memoryH.List)
	memories.GET("/:id", memoryH.Get)
	memories.POST("", memoryH.Create)
	memories.POST("/:id", memoryH.Update)
	memories.POST("/:id/delete", memoryH.Delete)

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("start web server at port " + cfg.ServerPort)
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
	log.Info("server gracefully stopped")
}

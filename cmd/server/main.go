package main

import (
	"log"

	"github.com/collidersite/internal/config"
	"github.com/collidersite/internal/db"
	"github.com/collidersite/internal/metrics"
	"github.com/collidersite/internal/router"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	if err := db.EnsureUser(cfg.SuperRootUserName, cfg.SuperRootPassword); err != nil {
		log.Fatalf("failed to ensure super root user: %v", err)
	}

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(router.Config{
		SessionSecret: cfg.SessionSecret,
		UploadDir:     cfg.UploadDir,
		UploadURLPath: cfg.UploadURLPath,
		RenditionDir:  cfg.RenditionDir,
		RenditionURL:  cfg.RenditionURLPath,
	}, db.DB, metrics.New())

	log.Printf("collidersite listening on %s (%s)", cfg.ListenAddr, cfg.SiteBaseURL)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}

package config

import (
	"fmt"
	"os"
	"strings"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string
	Port              string
	DatabasePath      string
	SessionSecret     string
	GinMode           string
	UploadDir         string
	UploadURLPath     string
	RenditionDir      string
	RenditionURLPath  string
	SuperRootUserName string
	SuperRootPassword string
	SiteBaseURL       string
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := envOr("PORT", "8080")

	return AppConfig{
		ListenAddr:        envOr("LISTEN_ADDR", fmt.Sprintf(":%s", port)),
		Port:              port,
		DatabasePath:      envOr("DATABASE_PATH", "collidersite.db"),
		SessionSecret:     envOr("SESSION_SECRET", "collidersite-dev-secret"),
		GinMode:           envOr("GIN_MODE", "release"),
		UploadDir:         envOr("UPLOAD_DIR", "web/static/uploads"),
		UploadURLPath:     envOr("UPLOAD_URL_PATH", "/static/uploads"),
		RenditionDir:      envOr("RENDITION_DIR", "web/static/renditions"),
		RenditionURLPath:  envOr("RENDITION_URL_PATH", "/static/renditions"),
		SuperRootUserName: strings.TrimSpace(os.Getenv("SUPER_ROOT_USER_NAME")),
		SuperRootPassword: strings.TrimSpace(os.Getenv("SUPER_ROOT_PASSWORD")),
		SiteBaseURL:       strings.TrimSuffix(envOr("SITE_BASE_URL", "http://localhost:8080"), "/"),
	}
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

package router

import (
	"log"
	"net/http"
	"strings"

	"github.com/collidersite/internal/db"
	"github.com/collidersite/internal/handler"
	"github.com/collidersite/internal/metrics"
	"github.com/collidersite/internal/view"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Config 描述路由所需的路径与密钥配置
type Config struct {
	SessionSecret string
	UploadDir     string
	UploadURLPath string
	RenditionDir  string
	RenditionURL  string
}

// SetupRouter 配置 Gin 引擎和路由。gdb 为空时使用全局 db.DB。
func SetupRouter(cfg Config, gdb *gorm.DB, m *metrics.Metrics) *gin.Engine {
	if gdb == nil {
		gdb = db.DB
	}
	if m == nil {
		m = metrics.New()
	}

	r := gin.Default()
	r.Use(m.Middleware())

	// 配置会话中间件
	secret := cfg.SessionSecret
	if strings.TrimSpace(secret) == "" {
		secret = "collidersite-dev-secret"
	}
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode, MaxAge: 7 * 24 * 60 * 60})
	r.Use(sessions.Sessions("collidersite_session", store))

	tmpl, err := view.Templates()
	if err != nil {
		log.Fatalf("failed to parse templates: %v", err)
	}
	r.SetHTMLTemplate(tmpl)

	uploadURL := normalizeURLPath(cfg.UploadURLPath, "/static/uploads")
	renditionURL := normalizeURLPath(cfg.RenditionURL, "/static/renditions")
	r.Static(uploadURL, cfg.UploadDir)
	r.Static(renditionURL, cfg.RenditionDir)

	api := handler.NewAPI(gdb, handler.Options{
		UploadDir:    cfg.UploadDir,
		UploadURL:    uploadURL,
		RenditionDir: cfg.RenditionDir,
		RenditionURL: renditionURL,
		Metrics:      m,
	})

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/healthz", api.HealthCheck)
	r.GET("/metrics", m.Handler())
	r.GET("/search", api.Search)

	// 后台管理路由
	admin := r.Group("/admin")
	{
		admin.POST("/login", api.Login)
		admin.GET("/logout", api.Logout)

		auth := admin.Group("/api")
		auth.Use(handler.AuthRequired())
		{
			auth.GET("/menu", api.GetMenu)

			auth.GET("/pages", api.GetPages)
			auth.POST("/pages", api.CreatePage)
			auth.GET("/pages/:id", api.GetPage)
			auth.PUT("/pages/:id", api.UpdatePage)
			auth.DELETE("/pages/:id", api.DeletePage)
			auth.POST("/pages/:id/publish", api.PublishPage)
			auth.POST("/pages/:id/unpublish", api.UnpublishPage)
			auth.PUT("/pages/:id/tags", api.SetPageTags)

			auth.GET("/tags", api.GetTags)
			auth.POST("/tags", api.CreateTag)
			auth.DELETE("/tags/:id", api.DeleteTag)

			auth.POST("/uploads", api.UploadImage)

			auth.GET("/settings", api.GetSystemSettings)
			auth.PUT("/settings", api.UpdateSystemSettings)
		}
	}

	// 其余路径交给页面树解析
	r.NoRoute(api.ServePage)

	return r
}

func normalizeURLPath(raw, fallback string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = fallback
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	return strings.TrimSuffix(trimmed, "/")
}

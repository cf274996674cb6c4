package handler

import (
	"strings"

	"github.com/collidersite/internal/metrics"
	"github.com/collidersite/internal/service"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db         *gorm.DB
	pages      *service.PageService
	tags       *service.TagService
	index      *service.IndexService
	profiles   *service.ProfileService
	renditions *service.RenditionService
	system     *service.SystemSettingService
	metrics    *metrics.Metrics
	uploadDir  string
	uploadURL  string
}

// Options 汇总构造 API 时的文件路径与指标配置。
type Options struct {
	UploadDir    string
	UploadURL    string
	RenditionDir string
	RenditionURL string
	Metrics      *metrics.Metrics
}

type siteViewModel struct {
	Name   string `json:"name"`
	Footer string `json:"footer"`
}

const siteSettingsContextKey = "__site_settings"

// NewAPI constructs a handler set with shared services.
func NewAPI(db *gorm.DB, opts Options) *API {
	return &API{
		db:         db,
		pages:      service.NewPageService(db),
		tags:       service.NewTagService(db),
		index:      service.NewIndexService(service.NewStore(db)),
		profiles:   service.NewProfileService(db),
		renditions: service.NewRenditionService(opts.UploadDir, opts.UploadURL, opts.RenditionDir, opts.RenditionURL),
		system:     service.NewSystemSettingService(db),
		metrics:    opts.Metrics,
		uploadDir:  opts.UploadDir,
		uploadURL:  opts.UploadURL,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}

func (a *API) siteSettings(c *gin.Context) siteViewModel {
	if cached, exists := c.Get(siteSettingsContextKey); exists {
		if view, ok := cached.(siteViewModel); ok {
			return view
		}
	}

	settings, err := a.system.GetSettings()
	if err != nil {
		c.Error(err)
	}

	view := siteViewModel{
		Name:   strings.TrimSpace(settings.SiteName),
		Footer: strings.TrimSpace(settings.FooterText),
	}
	c.Set(siteSettingsContextKey, view)
	return view
}

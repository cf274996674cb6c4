package handler

import (
	"net/http"

	"github.com/collidersite/internal/service"
	"github.com/gin-gonic/gin"
)

// HealthCheck 检查数据库连接是否可用。
func (a *API) HealthCheck(c *gin.Context) {
	sqlDB, err := a.db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "database handle unavailable",
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "up",
	})
}

// GetSystemSettings 返回当前系统设置。
func (a *API) GetSystemSettings(c *gin.Context) {
	settings, err := a.system.GetSettings()
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "获取系统设置失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// UpdateSystemSettings 保存系统设置。
func (a *API) UpdateSystemSettings(c *gin.Context) {
	var req service.SystemSettingsInput
	if !bindJSON(c, &req, "请求参数不正确") {
		return
	}

	settings, err := a.system.UpdateSettings(req)
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "保存系统设置失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "系统设置已更新", "settings": settings})
}

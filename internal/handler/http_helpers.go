package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/collidersite/internal/blocks"
	"github.com/collidersite/internal/service"
	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

// splitPath 将请求路径拆分为非空的 slug 段
func splitPath(path string) []string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

// bodyString 接受 JSON 字符串或直接内嵌的 block 数组
func bodyString(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ""
	}
	if strings.HasPrefix(trimmed, `"`) {
		var text string
		if err := json.Unmarshal(raw, &text); err == nil {
			return text
		}
	}
	return trimmed
}

// respondServiceError 将服务层的哨兵错误映射为 HTTP 状态码
func respondServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrPageNotFound):
		respondError(c, http.StatusNotFound, "页面不存在")
	case errors.Is(err, service.ErrTagNotFound):
		respondError(c, http.StatusNotFound, "标签不存在")
	case errors.Is(err, service.ErrSlugTaken):
		respondError(c, http.StatusConflict, "同级页面已使用该 slug")
	case errors.Is(err, service.ErrSiteRootExists):
		respondError(c, http.StatusConflict, "站点根页面已存在")
	case errors.Is(err, service.ErrTagExists):
		respondError(c, http.StatusConflict, "标签已存在")
	case errors.Is(err, service.ErrTagInUse):
		respondError(c, http.StatusConflict, "标签正在被页面使用，无法删除")
	case errors.Is(err, service.ErrTypeNotAllowed):
		respondError(c, http.StatusBadRequest, "该父页面下不允许创建此类型")
	case errors.Is(err, service.ErrPageTypeUnknown):
		respondError(c, http.StatusBadRequest, "未知的页面类型")
	case errors.Is(err, service.ErrPageTitleMissing):
		respondError(c, http.StatusBadRequest, "请填写页面标题")
	case errors.Is(err, service.ErrPageSlugMissing):
		respondError(c, http.StatusBadRequest, "无法生成页面 slug")
	case errors.Is(err, service.ErrTagNameMissing):
		respondError(c, http.StatusBadRequest, "标签名称不能为空")
	case errors.Is(err, blocks.ErrInvalidBlock), errors.Is(err, blocks.ErrUnknownBlock):
		respondError(c, http.StatusBadRequest, "正文内容格式不正确")
	case errors.Is(err, service.ErrProfileTargetInvalid),
		errors.Is(err, service.ErrPersonTypeInvalid),
		errors.Is(err, service.ErrSkillLevelInvalid):
		respondError(c, http.StatusBadRequest, "资料字段不正确")
	case errors.Is(err, service.ErrProfileUnsupported):
		respondError(c, http.StatusBadRequest, "该页面类型没有资料")
	case errors.Is(err, service.ErrNotIndexPage):
		respondError(c, http.StatusBadRequest, "该页面不是索引页")
	case errors.Is(err, service.ErrInvalidFilter):
		respondError(c, http.StatusBadRequest, "无效的图片规格")
	case errors.Is(err, service.ErrImageNotFound):
		respondError(c, http.StatusNotFound, "图片不存在")
	default:
		c.Error(err)
		respondError(c, http.StatusInternalServerError, fallback)
	}
}

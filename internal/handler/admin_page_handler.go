package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/collidersite/internal/db"
	"github.com/collidersite/internal/service"
	"github.com/gin-gonic/gin"
)

type pageCreateRequest struct {
	ParentID         *uint                 `json:"parentId"`
	Type             string                `json:"type" binding:"required"`
	Title            string                `json:"title"`
	Slug             string                `json:"slug"`
	Introduction     string                `json:"introduction"`
	ImageURL         string                `json:"imageUrl"`
	Body             json.RawMessage       `json:"body"`
	Tags             []string              `json:"tags"`
	Live             bool                  `json:"live"`
	FirstPublishedAt *time.Time            `json:"firstPublishedAt"`
	Profile          *service.ProfileInput `json:"profile"`
}

type pageUpdateRequest struct {
	Title        string                `json:"title"`
	Slug         string                `json:"slug"`
	Introduction string                `json:"introduction"`
	ImageURL     string                `json:"imageUrl"`
	Body         json.RawMessage       `json:"body"`
	Profile      *service.ProfileInput `json:"profile"`
}

type publishRequest struct {
	At *time.Time `json:"at"`
}

type adminPage struct {
	ID               uint       `json:"id"`
	ParentID         *uint      `json:"parentId"`
	Type             string     `json:"type"`
	Title            string     `json:"title"`
	Slug             string     `json:"slug"`
	Path             string     `json:"path"`
	Depth            int        `json:"depth"`
	URL              string     `json:"url"`
	Live             bool       `json:"live"`
	FirstPublishedAt *time.Time `json:"firstPublishedAt"`
	LastPublishedAt  *time.Time `json:"lastPublishedAt"`
	Introduction     string     `json:"introduction"`
	ImageURL         string     `json:"imageUrl"`
	Body             string     `json:"body"`
	Tags             []string   `json:"tags"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// GetPages 返回某个父页面的子页面，未指定 parent 时返回站点根页面
func (a *API) GetPages(c *gin.Context) {
	var pages []db.Page
	if raw := strings.TrimSpace(c.Query("parent")); raw != "" {
		parentID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondError(c, http.StatusBadRequest, "无效的父页面ID")
			return
		}
		if _, err := a.pages.Get(uint(parentID)); err != nil {
			respondServiceError(c, err, "获取页面列表失败")
			return
		}
		pages, err = a.pages.Children(uint(parentID))
		if err != nil {
			respondServiceError(c, err, "获取页面列表失败")
			return
		}
	} else {
		root, err := a.pages.SiteRoot()
		if err != nil {
			respondServiceError(c, err, "获取页面列表失败")
			return
		}
		pages = []db.Page{*root}
	}

	response, err := a.adminPages(pages)
	if err != nil {
		respondServiceError(c, err, "获取页面列表失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"pages": response})
}

// GetPage 返回页面及其完整资料，包含未发布的关联页面
func (a *API) GetPage(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的页面ID")
		return
	}
	page, err := a.pages.Get(id)
	if err != nil {
		respondServiceError(c, err, "获取页面失败")
		return
	}
	a.respondPage(c, http.StatusOK, page, "")
}

// CreatePage 创建页面，parentId 为空时创建站点根页面
func (a *API) CreatePage(c *gin.Context) {
	var req pageCreateRequest
	if !bindJSON(c, &req, "页面参数不正确") {
		return
	}

	input := service.PageInput{
		Type:             req.Type,
		Title:            req.Title,
		Slug:             req.Slug,
		Introduction:     req.Introduction,
		ImageURL:         req.ImageURL,
		Body:             bodyString(req.Body),
		Tags:             req.Tags,
		Live:             req.Live,
		FirstPublishedAt: req.FirstPublishedAt,
	}

	var (
		page *db.Page
		err  error
	)
	if req.ParentID == nil {
		page, err = a.pages.CreateRoot(input)
	} else {
		page, err = a.pages.AddChild(*req.ParentID, input)
	}
	if err != nil {
		respondServiceError(c, err, "创建页面失败")
		return
	}

	if req.Profile != nil {
		if err := a.profiles.Save(page, *req.Profile); err != nil {
			// 资料无效时撤销刚创建的页面
			if deleteErr := a.pages.Delete(page.ID); deleteErr != nil {
				c.Error(deleteErr)
			}
			respondServiceError(c, err, "保存页面资料失败")
			return
		}
	}

	a.respondPage(c, http.StatusCreated, page, "页面创建成功")
}

// UpdatePage 更新页面内容与资料
func (a *API) UpdatePage(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的页面ID")
		return
	}

	var req pageUpdateRequest
	if !bindJSON(c, &req, "页面参数不正确") {
		return
	}

	page, err := a.pages.Update(id, service.PageUpdate{
		Title:        req.Title,
		Slug:         req.Slug,
		Introduction: req.Introduction,
		ImageURL:     req.ImageURL,
		Body:         bodyString(req.Body),
	})
	if err != nil {
		respondServiceError(c, err, "更新页面失败")
		return
	}

	if req.Profile != nil {
		if err := a.profiles.Save(page, *req.Profile); err != nil {
			respondServiceError(c, err, "保存页面资料失败")
			return
		}
	}

	a.respondPage(c, http.StatusOK, page, "页面已更新")
}

// DeletePage 删除页面及其所有子页面
func (a *API) DeletePage(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的页面ID")
		return
	}
	if err := a.pages.Delete(id); err != nil {
		respondServiceError(c, err, "删除页面失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "页面已删除"})
}

// PublishPage 发布页面，可指定首次发布时间
func (a *API) PublishPage(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的页面ID")
		return
	}

	var req publishRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req, "发布参数不正确") {
		return
	}

	page, err := a.pages.Publish(id, req.At)
	if err != nil {
		respondServiceError(c, err, "发布页面失败")
		return
	}
	a.respondPage(c, http.StatusOK, page, "页面已发布")
}

// UnpublishPage 将页面撤回为草稿
func (a *API) UnpublishPage(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的页面ID")
		return
	}
	page, err := a.pages.Unpublish(id)
	if err != nil {
		respondServiceError(c, err, "撤回页面失败")
		return
	}
	a.respondPage(c, http.StatusOK, page, "页面已撤回")
}

func (a *API) respondPage(c *gin.Context, status int, page *db.Page, message string) {
	views, err := a.adminPages([]db.Page{*page})
	if err != nil {
		respondServiceError(c, err, "获取页面失败")
		return
	}
	detail, err := a.profiles.Detail(page, false)
	if err != nil {
		respondServiceError(c, err, "获取页面资料失败")
		return
	}

	payload := gin.H{"page": views[0], "profile": detail}
	if message != "" {
		payload["message"] = message
	}
	c.JSON(status, payload)
}

func (a *API) adminPages(pages []db.Page) ([]adminPage, error) {
	urls, err := a.pages.URLs(pages)
	if err != nil {
		return nil, err
	}
	views := make([]adminPage, 0, len(pages))
	for _, page := range pages {
		tags := make([]string, 0, len(page.Tags))
		for _, tag := range page.Tags {
			tags = append(tags, tag.Name)
		}
		views = append(views, adminPage{
			ID:               page.ID,
			ParentID:         page.ParentID,
			Type:             page.Type,
			Title:            page.Title,
			Slug:             page.Slug,
			Path:             page.Path,
			Depth:            page.Depth,
			URL:              urls[page.ID],
			Live:             page.Live,
			FirstPublishedAt: page.FirstPublishedAt,
			LastPublishedAt:  page.LastPublishedAt,
			Introduction:     page.Introduction,
			ImageURL:         page.ImageURL,
			Body:             page.Body,
			Tags:             tags,
			UpdatedAt:        page.UpdatedAt,
		})
	}
	return views, nil
}

package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

type searchView struct {
	Site       siteViewModel  `json:"site"`
	Page       pageView       `json:"page"`
	BaseURL    string         `json:"-"`
	Query      string         `json:"query"`
	Items      []pageView     `json:"items"`
	Pagination paginationView `json:"pagination"`
	Notices    []string       `json:"notices"`
}

// Search 在已发布页面中搜索标题、简介、正文、标签与人员姓名。
func (a *API) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	result, err := a.pages.Search(query, c.Query("page"))
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "search failed")
		return
	}

	urls, err := a.pages.URLs(result.Items)
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "search failed")
		return
	}

	items := make([]pageView, 0, len(result.Items))
	for _, page := range result.Items {
		items = append(items, a.toPageView(page, urls[page.ID], ""))
	}

	base := "/search"
	if query != "" {
		base = "/search?q=" + url.QueryEscape(query)
	}

	c.Negotiate(http.StatusOK, gin.Negotiate{
		Offered:  negotiateOffered,
		HTMLName: "search.html",
		Data: searchView{
			Site:       a.siteSettings(c),
			Page:       pageView{Title: "Search", URL: "/search"},
			BaseURL:    base,
			Query:      query,
			Items:      items,
			Pagination: toPaginationView(result),
			Notices:    a.popNotices(c),
		},
	})
}

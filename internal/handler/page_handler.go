package handler

import (
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/collidersite/internal/blocks"
	"github.com/collidersite/internal/content"
	"github.com/collidersite/internal/db"
	"github.com/collidersite/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	noticeFlashKey = "notice"
	tagsSegment    = "tags"
)

var negotiateOffered = []string{gin.MIMEHTML, gin.MIMEJSON}

type pageView struct {
	ID               uint              `json:"id"`
	Type             string            `json:"type"`
	Title            string            `json:"title"`
	Slug             string            `json:"slug"`
	URL              string            `json:"url"`
	Introduction     string            `json:"introduction,omitempty"`
	ImageURL         string            `json:"imageUrl,omitempty"`
	Thumb            template.HTML     `json:"thumb,omitempty"`
	FirstPublishedAt *time.Time        `json:"firstPublishedAt,omitempty"`
	Tags             []service.TagLink `json:"tags"`
}

type paginationView struct {
	Number      int  `json:"number"`
	TotalPages  int  `json:"totalPages"`
	Total       int  `json:"total"`
	PerPage     int  `json:"perPage"`
	HasPrevious bool `json:"hasPrevious"`
	HasNext     bool `json:"hasNext"`
	Previous    int  `json:"previous,omitempty"`
	Next        int  `json:"next,omitempty"`
}

type indexView struct {
	Site       siteViewModel     `json:"site"`
	Page       pageView          `json:"page"`
	BaseURL    string            `json:"-"`
	Items      []pageView        `json:"items"`
	Pagination paginationView    `json:"pagination"`
	Tags       []service.TagLink `json:"tags"`
	ActiveTag  *service.TagLink  `json:"activeTag"`
	Notices    []string          `json:"notices"`
}

type relatedGroup struct {
	Label string     `json:"label"`
	Pages []pageView `json:"pages"`
}

type contentView struct {
	Site        siteViewModel         `json:"site"`
	Page        pageView              `json:"page"`
	Body        template.HTML         `json:"body"`
	Breadcrumbs []pageView            `json:"breadcrumbs"`
	Profile     service.ProfileDetail `json:"profile"`
	Related     []relatedGroup        `json:"related,omitempty"`
	Notices     []string              `json:"notices"`
}

type homeView struct {
	Site     siteViewModel `json:"site"`
	Page     pageView      `json:"page"`
	Body     template.HTML `json:"body"`
	Children []pageView    `json:"children"`
	Notices  []string      `json:"notices"`
}

// ServePage 按页面树路径响应公开页面，包括可路由索引页的 tags/ 子路由。
func (a *API) ServePage(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		respondError(c, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	page, rest, err := a.pages.Route(splitPath(c.Request.URL.Path))
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			a.notFound(c)
			return
		}
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "failed to load page")
		return
	}

	if len(rest) > 0 {
		info, ok := content.Lookup(page.Type)
		if ok && info.Routable && rest[0] == tagsSegment && len(rest) <= 2 {
			slug := ""
			if len(rest) == 2 {
				slug = rest[1]
			}
			a.serveTagArchive(c, page, slug)
			return
		}
		a.notFound(c)
		return
	}

	info, _ := content.Lookup(page.Type)
	switch {
	case info.IsIndex():
		a.renderIndex(c, page, nil)
	case content.IsRootType(page.Type):
		a.renderHome(c, page)
	default:
		a.renderContent(c, page)
	}
}

func (a *API) serveTagArchive(c *gin.Context, index *db.Page, slug string) {
	resolution, err := a.index.ResolveTag(index, slug)
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "failed to resolve tag")
		return
	}

	if resolution.Redirect {
		if resolution.Notice != "" {
			session := sessions.Default(c)
			session.AddFlash(resolution.Notice, noticeFlashKey)
			if err := session.Save(); err != nil {
				c.Error(err)
			}
		}
		a.metrics.TagRedirect(index.Type, resolution.Notice != "")

		indexURL, err := a.pages.URL(index)
		if err != nil {
			c.Error(err)
			respondError(c, http.StatusInternalServerError, "failed to resolve tag")
			return
		}
		c.Redirect(http.StatusFound, indexURL)
		return
	}

	a.renderIndex(c, index, resolution.Tag)
}

func (a *API) renderIndex(c *gin.Context, index *db.Page, tag *db.Tag) {
	result, err := a.index.ListPage(index, tag, c.Query("page"))
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "failed to list pages")
		return
	}
	union, err := a.index.ChildTagUnion(index)
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "failed to list tags")
		return
	}

	urls, err := a.pages.URLs(append([]db.Page{*index}, result.Items...))
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "failed to list pages")
		return
	}
	indexURL := urls[index.ID]

	items := make([]pageView, 0, len(result.Items))
	for _, page := range result.Items {
		items = append(items, a.toPageView(page, urls[page.ID], indexURL))
	}

	view := indexView{
		Site:       a.siteSettings(c),
		Page:       a.toPageView(*index, indexURL, ""),
		BaseURL:    c.Request.URL.Path,
		Items:      items,
		Pagination: toPaginationView(result),
		Tags:       service.TagLinks(indexURL, union),
		Notices:    a.popNotices(c),
	}
	if tag != nil {
		links := service.TagLinks(indexURL, []db.Tag{*tag})
		view.ActiveTag = &links[0]
	}
	a.metrics.Listing(index.Type, tag != nil)

	c.Negotiate(http.StatusOK, gin.Negotiate{
		Offered:  negotiateOffered,
		HTMLName: "index.html",
		Data:     view,
	})
}

func (a *API) renderContent(c *gin.Context, page *db.Page) {
	ancestors, err := a.pages.Ancestors(page)
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "failed to load page")
		return
	}
	detail, err := a.profiles.Detail(page, true)
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "failed to load page")
		return
	}
	body, err := a.renderBody(page)
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "failed to render page")
		return
	}

	related := relatedPages(detail)
	all := append([]db.Page{*page}, ancestors...)
	for _, group := range related {
		all = append(all, group.pages...)
	}
	urls, err := a.pages.URLs(all)
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "failed to load page")
		return
	}

	parentURL := ""
	breadcrumbs := make([]pageView, 0, len(ancestors))
	for _, ancestor := range ancestors {
		breadcrumbs = append(breadcrumbs, a.toPageView(ancestor, urls[ancestor.ID], ""))
		parentURL = urls[ancestor.ID]
	}

	groups := make([]relatedGroup, 0, len(related))
	for _, group := range related {
		views := make([]pageView, 0, len(group.pages))
		for _, linked := range group.pages {
			views = append(views, a.toPageView(linked, urls[linked.ID], ""))
		}
		groups = append(groups, relatedGroup{Label: group.label, Pages: views})
	}

	c.Negotiate(http.StatusOK, gin.Negotiate{
		Offered:  negotiateOffered,
		HTMLName: "content.html",
		Data: contentView{
			Site:        a.siteSettings(c),
			Page:        a.toPageView(*page, urls[page.ID], parentURL),
			Body:        body,
			Breadcrumbs: breadcrumbs,
			Profile:     detail,
			Related:     groups,
			Notices:     a.popNotices(c),
		},
	})
}

func (a *API) renderHome(c *gin.Context, page *db.Page) {
	children, err := a.pages.LiveChildren(page.ID)
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "failed to load page")
		return
	}
	body, err := a.renderBody(page)
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "failed to render page")
		return
	}
	urls, err := a.pages.URLs(append([]db.Page{*page}, children...))
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "failed to load page")
		return
	}

	views := make([]pageView, 0, len(children))
	for _, child := range children {
		views = append(views, a.toPageView(child, urls[child.ID], ""))
	}

	c.Negotiate(http.StatusOK, gin.Negotiate{
		Offered:  negotiateOffered,
		HTMLName: "home.html",
		Data: homeView{
			Site:     a.siteSettings(c),
			Page:     a.toPageView(*page, urls[page.ID], ""),
			Body:     body,
			Children: views,
			Notices:  a.popNotices(c),
		},
	})
}

func (a *API) notFound(c *gin.Context) {
	c.Negotiate(http.StatusNotFound, gin.Negotiate{
		Offered:  negotiateOffered,
		HTMLName: "not_found.html",
		HTMLData: gin.H{
			"Site": a.siteSettings(c),
			"Page": gin.H{"Title": "Page not found"},
		},
		JSONData: gin.H{"error": "page not found"},
	})
}

func (a *API) renderBody(page *db.Page) (template.HTML, error) {
	stream, err := blocks.Parse(page.Body)
	if err != nil {
		return "", err
	}
	return blocks.Render(stream, blocks.RenderOptions{TeamMembers: a.profiles.TeamMembers})
}

// popNotices 取出并清空 session 中的提示消息
func (a *API) popNotices(c *gin.Context) []string {
	session := sessions.Default(c)
	flashes := session.Flashes(noticeFlashKey)
	if len(flashes) == 0 {
		return []string{}
	}
	if err := session.Save(); err != nil {
		c.Error(err)
	}
	notices := make([]string, 0, len(flashes))
	for _, flash := range flashes {
		if notice, ok := flash.(string); ok {
			notices = append(notices, notice)
		}
	}
	return notices
}

// toPageView 构造列表卡片。tagBase 为空时不生成标签链接
func (a *API) toPageView(page db.Page, url, tagBase string) pageView {
	view := pageView{
		ID:               page.ID,
		Type:             page.Type,
		Title:            page.Title,
		Slug:             page.Slug,
		URL:              url,
		Introduction:     page.Introduction,
		ImageURL:         page.ImageURL,
		FirstPublishedAt: page.FirstPublishedAt,
		Tags:             []service.TagLink{},
	}
	if tagBase != "" {
		view.Tags = service.TagLinks(tagBase, page.Tags)
	}
	if page.Type == content.TypePerson {
		view.Thumb = a.renditions.ThumbImage(page.ImageURL, page.Title)
	}
	return view
}

func toPaginationView(result service.PageResult[db.Page]) paginationView {
	return paginationView{
		Number:      result.Number,
		TotalPages:  result.TotalPages,
		Total:       result.Total,
		PerPage:     result.PerPage,
		HasPrevious: result.HasPrevious(),
		HasNext:     result.HasNext(),
		Previous:    result.PreviousNumber(),
		Next:        result.NextNumber(),
	}
}

type pageGroup struct {
	label string
	pages []db.Page
}

func relatedPages(detail service.ProfileDetail) []pageGroup {
	var groups []pageGroup
	add := func(label string, pages []db.Page) {
		if len(pages) > 0 {
			groups = append(groups, pageGroup{label: label, pages: pages})
		}
	}
	switch {
	case detail.Person != nil:
		if detail.Person.Location != nil {
			add("Location", []db.Page{*detail.Person.Location})
		}
		add("Partners", detail.Person.Partners)
		add("Industries", detail.Person.Industries)
		add("Covered markets", detail.Person.CoveredMarkets)
	case detail.Partner != nil:
		add("People", detail.Partner.People)
	case detail.Industry != nil:
		add("People", detail.Industry.People)
	}
	return groups
}

package service

import (
	"errors"
	"strings"
	"time"

	"github.com/collidersite/internal/blocks"
	"github.com/collidersite/internal/content"
	"github.com/collidersite/internal/db"
	"gorm.io/gorm"
)

var (
	ErrPageNotFound     = errors.New("page not found")
	ErrPageTypeUnknown  = errors.New("page type is not registered")
	ErrTypeNotAllowed   = errors.New("page type is not allowed under this parent")
	ErrSiteRootExists   = errors.New("site root already exists")
	ErrSlugTaken        = errors.New("slug is already used by a sibling page")
	ErrPageTitleMissing = errors.New("page title is required")
	ErrPageSlugMissing  = errors.New("page slug is required")
)

// searchPageSize is the number of search hits shown per page.
const searchPageSize = 12

// PageInput represents fields accepted when creating a page.
type PageInput struct {
	Type             string
	Title            string
	Slug             string
	Introduction     string
	ImageURL         string
	Body             string
	Tags             []string
	Live             bool
	FirstPublishedAt *time.Time
}

// PageUpdate represents editable fields of an existing page.
type PageUpdate struct {
	Title        string
	Slug         string
	Introduction string
	ImageURL     string
	Body         string
}

// PageService manages the page tree.
type PageService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewPageService returns a new PageService instance.
func NewPageService(gdb *gorm.DB) *PageService {
	return &PageService{db: gdb, now: time.Now}
}

// Get fetches a page by id with tags preloaded.
func (s *PageService) Get(id uint) (*db.Page, error) {
	var page db.Page
	if err := s.db.Preload("Tags", orderTagsByName).First(&page, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}
	return &page, nil
}

// SiteRoot returns the first root page.
func (s *PageService) SiteRoot() (*db.Page, error) {
	var page db.Page
	if err := s.db.Where("parent_id IS NULL").Order("path asc").First(&page).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}
	return &page, nil
}

// CreateRoot creates the site root. Only one root is allowed.
func (s *PageService) CreateRoot(input PageInput) (*db.Page, error) {
	if _, ok := content.Lookup(input.Type); !ok {
		return nil, ErrPageTypeUnknown
	}
	if !content.IsRootType(input.Type) {
		return nil, ErrTypeNotAllowed
	}

	var page *db.Page
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&db.Page{}).Where("parent_id IS NULL").Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrSiteRootExists
		}

		created, err := s.insert(tx, nil, input)
		page = created
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.Get(page.ID)
}

// AddChild appends a page as the last child of parentID.
func (s *PageService) AddChild(parentID uint, input PageInput) (*db.Page, error) {
	if _, ok := content.Lookup(input.Type); !ok {
		return nil, ErrPageTypeUnknown
	}

	var page *db.Page
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var parent db.Page
		if err := tx.First(&parent, parentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPageNotFound
			}
			return err
		}
		if !content.CanCreateUnder(parent.Type, input.Type) {
			return ErrTypeNotAllowed
		}

		created, err := s.insert(tx, &parent, input)
		page = created
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.Get(page.ID)
}

// Update changes the editable fields of a page.
func (s *PageService) Update(id uint, input PageUpdate) (*db.Page, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var page db.Page
		if err := tx.First(&page, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPageNotFound
			}
			return err
		}

		title, slug, body, text, err := normalizePageFields(input.Title, input.Slug, input.Body)
		if err != nil {
			return err
		}
		if err := ensureSlugFree(tx, page.ParentID, slug, page.ID); err != nil {
			return err
		}

		return tx.Model(&page).Updates(map[string]interface{}{
			"title":        title,
			"slug":         slug,
			"introduction": strings.TrimSpace(input.Introduction),
			"image_url":    strings.TrimSpace(input.ImageURL),
			"body":         body,
			"search_text":  text,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Publish makes a page live. FirstPublishedAt is set once; LastPublishedAt
// moves on every publish.
func (s *PageService) Publish(id uint, at *time.Time) (*db.Page, error) {
	page, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	publishTime := s.now()
	if at != nil && !at.IsZero() {
		publishTime = *at
	}

	updates := map[string]interface{}{
		"live":              true,
		"last_published_at": publishTime,
	}
	if page.FirstPublishedAt == nil {
		updates["first_published_at"] = publishTime
	}
	if err := s.db.Model(&db.Page{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Unpublish turns a page back into a draft.
func (s *PageService) Unpublish(id uint) (*db.Page, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	if err := s.db.Model(&db.Page{}).Where("id = ?", id).Update("live", false).Error; err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Delete removes a page together with its whole subtree.
func (s *PageService) Delete(id uint) error {
	page, err := s.Get(id)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&db.Page{}).Where("path LIKE ?", page.Path+"%").Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		if err := tx.Exec("DELETE FROM page_tags WHERE page_id IN ?", ids).Error; err != nil {
			return err
		}
		if err := deleteProfiles(tx, ids); err != nil {
			return err
		}
		return tx.Unscoped().Where("id IN ?", ids).Delete(&db.Page{}).Error
	})
}

// Children returns the direct children of a page in tree order.
func (s *PageService) Children(id uint) ([]db.Page, error) {
	return s.children(id, false)
}

// LiveChildren returns the live direct children of a page in tree order.
func (s *PageService) LiveChildren(id uint) ([]db.Page, error) {
	return s.children(id, true)
}

// Ancestors returns the strict ancestors of a page, root first.
func (s *PageService) Ancestors(page *db.Page) ([]db.Page, error) {
	paths := db.AncestorPaths(page.Path)
	if len(paths) == 0 {
		return nil, nil
	}
	var ancestors []db.Page
	if err := s.db.Where("path IN ?", paths).Order("path asc").Find(&ancestors).Error; err != nil {
		return nil, err
	}
	return ancestors, nil
}

// URL returns the public path of a page. The root is "/", its children
// "/<slug>/" and so on.
func (s *PageService) URL(page *db.Page) (string, error) {
	urls, err := s.URLs([]db.Page{*page})
	if err != nil {
		return "", err
	}
	return urls[page.ID], nil
}

// URLs computes public paths for many pages with a single ancestor query.
func (s *PageService) URLs(pages []db.Page) (map[uint]string, error) {
	wanted := make(map[string]struct{})
	for _, page := range pages {
		for _, path := range db.AncestorPaths(page.Path) {
			wanted[path] = struct{}{}
		}
	}

	slugs := make(map[string]string, len(wanted))
	if len(wanted) > 0 {
		paths := make([]string, 0, len(wanted))
		for path := range wanted {
			paths = append(paths, path)
		}
		var ancestors []db.Page
		if err := s.db.Select("path", "slug").Where("path IN ?", paths).Find(&ancestors).Error; err != nil {
			return nil, err
		}
		for _, ancestor := range ancestors {
			slugs[ancestor.Path] = ancestor.Slug
		}
	}

	urls := make(map[uint]string, len(pages))
	for _, page := range pages {
		segments := make([]string, 0, page.Depth)
		// 根页面不出现在 URL 中
		for i, path := range db.AncestorPaths(page.Path) {
			if i == 0 {
				continue
			}
			segments = append(segments, slugs[path])
		}
		if !page.IsRoot() {
			segments = append(segments, page.Slug)
		}
		if len(segments) == 0 {
			urls[page.ID] = "/"
			continue
		}
		urls[page.ID] = "/" + strings.Join(segments, "/") + "/"
	}
	return urls, nil
}

// Route walks live pages from the site root following slugs. It returns the
// deepest page reached and the segments left unmatched.
func (s *PageService) Route(segments []string) (*db.Page, []string, error) {
	current, err := s.SiteRoot()
	if err != nil {
		return nil, nil, err
	}
	if !current.Live {
		return nil, nil, ErrPageNotFound
	}

	for i, segment := range segments {
		var child db.Page
		err := s.db.Where("parent_id = ? AND slug = ? AND live = ?", current.ID, segment, true).
			Order("path asc").
			First(&child).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return current, segments[i:], nil
			}
			return nil, nil, err
		}
		current = &child
	}
	return current, nil, nil
}

// Search finds live pages matching query across titles, introductions,
// bodies, tag names and person names.
func (s *PageService) Search(query, rawPage string) (PageResult[db.Page], error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Paginate([]db.Page{}, rawPage, searchPageSize), nil
	}

	like := "%" + escapeLike(query) + "%"
	scoped := func() *gorm.DB {
		tagged := s.db.Table("page_tags").
			Select("page_tags.page_id").
			Joins("JOIN tags ON tags.id = page_tags.tag_id").
			Where(`tags.name LIKE ? ESCAPE '\'`, like)
		people := s.db.Model(&db.PersonProfile{}).
			Select("person_profiles.page_id").
			Where(`person_profiles.first_name LIKE ? ESCAPE '\' OR person_profiles.last_name LIKE ? ESCAPE '\' OR person_profiles.job_title LIKE ? ESCAPE '\'`, like, like, like)
		return s.db.Model(&db.Page{}).
			Where("pages.live = ?", true).
			Where(`pages.title LIKE ? ESCAPE '\' OR pages.introduction LIKE ? ESCAPE '\' OR pages.search_text LIKE ? ESCAPE '\' OR pages.id IN (?) OR pages.id IN (?)`,
				like, like, like, tagged, people)
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return PageResult[db.Page]{}, err
	}

	totalPages := calculateTotalPages(total, searchPageSize)
	number := ResolvePageNumber(rawPage, totalPages)

	var pages []db.Page
	if err := scoped().
		Preload("Tags", orderTagsByName).
		Order("pages.path asc").
		Limit(searchPageSize).
		Offset((number - 1) * searchPageSize).
		Find(&pages).Error; err != nil {
		return PageResult[db.Page]{}, err
	}

	return PageResult[db.Page]{
		Items:      pages,
		Number:     number,
		TotalPages: totalPages,
		Total:      int(total),
		PerPage:    searchPageSize,
	}, nil
}

// escapeLike 转义 LIKE 通配符，使查询按字面匹配
func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(value)
}

func (s *PageService) children(id uint, liveOnly bool) ([]db.Page, error) {
	query := s.db.Preload("Tags", orderTagsByName).Where("parent_id = ?", id)
	if liveOnly {
		query = query.Where("live = ?", true)
	}
	var pages []db.Page
	if err := query.Order("path asc").Find(&pages).Error; err != nil {
		return nil, err
	}
	return pages, nil
}

func (s *PageService) insert(tx *gorm.DB, parent *db.Page, input PageInput) (*db.Page, error) {
	title, slug, body, text, err := normalizePageFields(input.Title, input.Slug, input.Body)
	if err != nil {
		return nil, err
	}

	var parentID *uint
	prefix := ""
	depth := 1
	if parent != nil {
		parentID = &parent.ID
		prefix = parent.Path
		depth = parent.Depth + 1
	}

	if err := ensureSlugFree(tx, parentID, slug, 0); err != nil {
		return nil, err
	}

	path, err := nextChildPath(tx, parentID, prefix)
	if err != nil {
		return nil, err
	}

	page := db.Page{
		ParentID:     parentID,
		Path:         path,
		Depth:        depth,
		Type:         input.Type,
		Title:        title,
		Slug:         slug,
		Live:         input.Live,
		Introduction: strings.TrimSpace(input.Introduction),
		ImageURL:     strings.TrimSpace(input.ImageURL),
		Body:         body,
		SearchText:   text,
	}
	if input.Live {
		published := s.now()
		if input.FirstPublishedAt != nil && !input.FirstPublishedAt.IsZero() {
			published = *input.FirstPublishedAt
		}
		page.FirstPublishedAt = &published
		page.LastPublishedAt = &published
	}

	if err := tx.Create(&page).Error; err != nil {
		return nil, err
	}

	if len(input.Tags) > 0 {
		tags, err := ensureTags(tx, input.Tags)
		if err != nil {
			return nil, err
		}
		if err := tx.Model(&page).Association("Tags").Replace(tags); err != nil {
			return nil, err
		}
	}
	return &page, nil
}

// normalizePageFields 返回清理后的标题、slug、正文以及正文的纯文本
func normalizePageFields(title, slug, body string) (string, string, string, string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", "", "", "", ErrPageTitleMissing
	}

	slug = strings.TrimSpace(slug)
	if slug == "" {
		slug = Slugify(title)
	} else {
		slug = Slugify(slug)
	}
	if slug == "" {
		return "", "", "", "", ErrPageSlugMissing
	}

	stream, err := blocks.Parse(body)
	if err != nil {
		return "", "", "", "", err
	}
	stream = stream.Normalize()
	encoded, err := stream.Encode()
	if err != nil {
		return "", "", "", "", err
	}
	return title, slug, encoded, stream.Text(), nil
}

func ensureSlugFree(tx *gorm.DB, parentID *uint, slug string, exceptID uint) error {
	query := tx.Model(&db.Page{}).Where("slug = ? AND id <> ?", slug, exceptID)
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrSlugTaken
	}
	return nil
}

func nextChildPath(tx *gorm.DB, parentID *uint, prefix string) (string, error) {
	query := tx.Unscoped().Model(&db.Page{})
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}

	var last db.Page
	next := 1
	err := query.Order("path desc").First(&last).Error
	switch {
	case err == nil:
		step, decodeErr := db.DecodePathStep(last.Path)
		if decodeErr != nil {
			return "", decodeErr
		}
		next = step + 1
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return "", err
	}

	step, err := db.EncodePathStep(next)
	if err != nil {
		return "", err
	}
	return prefix + step, nil
}

func deleteProfiles(tx *gorm.DB, pageIDs []uint) error {
	var personProfileIDs []uint
	if err := tx.Model(&db.PersonProfile{}).Where("page_id IN ?", pageIDs).Pluck("id", &personProfileIDs).Error; err != nil {
		return err
	}
	if len(personProfileIDs) > 0 {
		if err := tx.Exec("DELETE FROM person_profile_skills WHERE person_profile_id IN ?", personProfileIDs).Error; err != nil {
			return err
		}
	}

	var breadProfileIDs []uint
	if err := tx.Model(&db.BreadProfile{}).Where("page_id IN ?", pageIDs).Pluck("id", &breadProfileIDs).Error; err != nil {
		return err
	}
	if len(breadProfileIDs) > 0 {
		if err := tx.Exec("DELETE FROM bread_profile_ingredients WHERE bread_profile_id IN ?", breadProfileIDs).Error; err != nil {
			return err
		}
	}

	if err := tx.Where("person_id IN ? OR target_id IN ?", pageIDs, pageIDs).Delete(&db.PersonRelation{}).Error; err != nil {
		return err
	}
	if err := tx.Model(&db.PersonProfile{}).Where("location_id IN ?", pageIDs).Update("location_id", nil).Error; err != nil {
		return err
	}

	for _, model := range []interface{}{&db.PersonProfile{}, &db.PartnerProfile{}, &db.BreadProfile{}, &db.LocationProfile{}} {
		if err := tx.Where("page_id IN ?", pageIDs).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

func orderTagsByName(tx *gorm.DB) *gorm.DB {
	return tx.Order("tags.name asc")
}

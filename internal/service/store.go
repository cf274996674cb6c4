package service

import (
	"github.com/collidersite/internal/content"
	"github.com/collidersite/internal/db"
	"gorm.io/gorm"
)

// DescendantQuery narrows a descendant lookup.
type DescendantQuery struct {
	PageType string
	LiveOnly bool
	TagID    uint
	Order    content.Ordering
}

// Store reads the page tree from the database.
type Store struct {
	db   *gorm.DB
	tags *TagService
}

// NewStore creates a Store instance.
func NewStore(gdb *gorm.DB) *Store {
	return &Store{db: gdb, tags: NewTagService(gdb)}
}

// Descendants returns the strict descendants of node matching q, with tags
// preloaded in name order.
func (s *Store) Descendants(node *db.Page, q DescendantQuery) ([]db.Page, error) {
	query := s.db.Model(&db.Page{}).
		Preload("Tags", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("tags.name asc")
		}).
		Where("pages.path LIKE ? AND pages.depth > ?", node.Path+"%", node.Depth)

	if q.PageType != "" {
		query = query.Where("pages.type = ?", q.PageType)
	}
	if q.LiveOnly {
		query = query.Where("pages.live = ?", true)
	}
	if q.TagID != 0 {
		tagged := s.db.Table("page_tags").Select("page_tags.page_id").Where("page_tags.tag_id = ?", q.TagID)
		query = query.Where("pages.id IN (?)", tagged)
	}

	switch q.Order {
	case content.OrderFirstPublishedDesc:
		query = query.
			Order("pages.first_published_at IS NULL").
			Order("pages.first_published_at desc").
			Order("pages.path asc")
	default:
		query = query.Order("pages.path asc")
	}

	var pages []db.Page
	if err := query.Find(&pages).Error; err != nil {
		return nil, err
	}
	return pages, nil
}

// Tags returns the tags of a page.
func (s *Store) Tags(page *db.Page) ([]db.Tag, error) {
	return s.tags.ForPage(page.ID)
}

// TagBySlug looks up a tag, returning ErrTagNotFound when absent.
func (s *Store) TagBySlug(slug string) (*db.Tag, error) {
	return s.tags.BySlug(slug)
}

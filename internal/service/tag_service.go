package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/collidersite/internal/db"
	"gorm.io/gorm"
)

var (
	ErrTagExists      = errors.New("tag already exists")
	ErrTagInUse       = errors.New("tag is associated with pages")
	ErrTagNotFound    = errors.New("tag not found")
	ErrTagNameMissing = errors.New("tag name is required")
)

// TagService wraps tag related operations.
type TagService struct {
	db *gorm.DB
}

// TagUsage 描述标签在已发布页面中的使用次数
type TagUsage struct {
	ID    uint
	Name  string
	Slug  string
	Count int64
}

// NewTagService creates a TagService instance.
func NewTagService(gdb *gorm.DB) *TagService {
	return &TagService{db: gdb}
}

// List returns all tags ordered by name.
func (s *TagService) List() ([]db.Tag, error) {
	var tags []db.Tag
	if err := s.db.Order("name asc").Order("id asc").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// LiveUsage counts live pages per tag, skipping unused tags.
func (s *TagService) LiveUsage() ([]TagUsage, error) {
	var rows []TagUsage
	if err := s.db.Table("tags").
		Select("tags.id, tags.name, tags.slug, COUNT(DISTINCT pages.id) AS count").
		Joins("JOIN page_tags ON page_tags.tag_id = tags.id").
		Joins("JOIN pages ON pages.id = page_tags.page_id").
		Where("pages.live = ? AND pages.deleted_at IS NULL AND tags.deleted_at IS NULL", true).
		Group("tags.id, tags.name, tags.slug").
		Order("tags.name asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// BySlug looks a tag up by its slug.
func (s *TagService) BySlug(slug string) (*db.Tag, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrTagNotFound
	}
	var tag db.Tag
	if err := s.db.Where("slug = ?", slug).First(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}
	return &tag, nil
}

// Create inserts a new tag with a unique name and derived slug.
func (s *TagService) Create(name string) (*db.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTagNameMissing
	}

	var existing db.Tag
	if err := s.db.Where("name = ?", name).First(&existing).Error; err == nil {
		return nil, ErrTagExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return createTag(s.db, name)
}

// ForPage returns a page's tags ordered by name.
func (s *TagService) ForPage(pageID uint) ([]db.Tag, error) {
	var tags []db.Tag
	if err := s.db.Model(&db.Tag{}).
		Joins("JOIN page_tags ON page_tags.tag_id = tags.id").
		Where("page_tags.page_id = ?", pageID).
		Order("tags.name asc").
		Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// SetPageTags replaces the tag set of a page, creating unknown tags by name.
func (s *TagService) SetPageTags(pageID uint, names []string) ([]db.Tag, error) {
	var tags []db.Tag
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var page db.Page
		if err := tx.First(&page, pageID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPageNotFound
			}
			return err
		}

		resolved, err := ensureTags(tx, names)
		if err != nil {
			return err
		}
		if err := tx.Model(&page).Association("Tags").Replace(resolved); err != nil {
			return err
		}
		tags = resolved
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// Delete removes a tag if no page uses it.
func (s *TagService) Delete(id uint) error {
	var tag db.Tag
	if err := s.db.First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTagNotFound
		}
		return err
	}

	var count int64
	if err := s.db.Table("page_tags").Where("tag_id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrTagInUse
	}

	return s.db.Unscoped().Delete(&tag).Error
}

// ensureTags finds or creates tags by name, keeping input order and dropping
// blanks and duplicates.
func ensureTags(tx *gorm.DB, names []string) ([]db.Tag, error) {
	tags := make([]db.Tag, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		var tag db.Tag
		err := tx.Where("name = ?", name).First(&tag).Error
		switch {
		case err == nil:
		case errors.Is(err, gorm.ErrRecordNotFound):
			created, createErr := createTag(tx, name)
			if createErr != nil {
				return nil, createErr
			}
			tag = *created
		default:
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func createTag(tx *gorm.DB, name string) (*db.Tag, error) {
	slug, err := uniqueTagSlug(tx, name)
	if err != nil {
		return nil, err
	}
	tag := db.Tag{Name: name, Slug: slug}
	if err := tx.Create(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

func uniqueTagSlug(tx *gorm.DB, name string) (string, error) {
	base := Slugify(name)
	if base == "" {
		base = "tag"
	}
	candidate := base
	for i := 1; ; i++ {
		var count int64
		if err := tx.Model(&db.Tag{}).Unscoped().Where("slug = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%d", base, i)
	}
}

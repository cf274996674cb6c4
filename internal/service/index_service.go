package service

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/collidersite/internal/content"
	"github.com/collidersite/internal/db"
)

// ErrNotIndexPage is returned when a resolver call gets a non-index page.
var ErrNotIndexPage = errors.New("page is not an index page")

// PageStore is the read side of the page tree the resolver depends on.
type PageStore interface {
	Descendants(node *db.Page, q DescendantQuery) ([]db.Page, error)
	Tags(page *db.Page) ([]db.Tag, error)
	TagBySlug(slug string) (*db.Tag, error)
}

// IndexService lists, filters and paginates the content pages under an index.
type IndexService struct {
	store PageStore
}

// TagResolution is the outcome of resolving a tag archive slug. When
// Redirect is set the caller should send the visitor to the unfiltered
// index, showing Notice if it is non-empty.
type TagResolution struct {
	Tag      *db.Tag
	Redirect bool
	Notice   string
}

// TagLink is a tag with the archive URL it points at.
type TagLink struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
	URL  string `json:"url"`
}

// NewIndexService creates an IndexService instance.
func NewIndexService(store PageStore) *IndexService {
	return &IndexService{store: store}
}

// ListDescendants returns the live pages of the index's bound type beneath
// it, restricted to pages carrying tag when tag is non-nil.
func (s *IndexService) ListDescendants(index *db.Page, tag *db.Tag) ([]db.Page, error) {
	info, err := indexInfo(index)
	if err != nil {
		return nil, err
	}

	q := DescendantQuery{
		PageType: info.Binds,
		LiveOnly: true,
		Order:    info.Ordering,
	}
	if tag != nil {
		q.TagID = tag.ID
	}
	return s.store.Descendants(index, q)
}

// ListPage returns one page of the index listing using the index's page size.
func (s *IndexService) ListPage(index *db.Page, tag *db.Tag, rawPage string) (PageResult[db.Page], error) {
	info, err := indexInfo(index)
	if err != nil {
		return PageResult[db.Page]{}, err
	}
	pages, err := s.ListDescendants(index, tag)
	if err != nil {
		return PageResult[db.Page]{}, err
	}
	return Paginate(pages, rawPage, info.PageSize), nil
}

// ResolveTag finds the tag for an archive slug. A blank or unknown slug is
// not an error: the resolution asks for a redirect instead.
func (s *IndexService) ResolveTag(index *db.Page, slug string) (TagResolution, error) {
	info, err := indexInfo(index)
	if err != nil {
		return TagResolution{}, err
	}

	slug = strings.TrimSpace(slug)
	if slug == "" {
		return TagResolution{Redirect: true}, nil
	}

	tag, err := s.store.TagBySlug(slug)
	if err != nil {
		if errors.Is(err, ErrTagNotFound) {
			plural := info.Binds
			if bound, ok := content.Lookup(info.Binds); ok {
				plural = bound.Plural
			}
			return TagResolution{
				Redirect: true,
				Notice:   fmt.Sprintf("There are no %s tagged with %q", plural, slug),
			}, nil
		}
		return TagResolution{}, err
	}
	return TagResolution{Tag: tag}, nil
}

// ChildTagUnion returns every tag used by the index's live descendants,
// deduplicated and sorted by name.
func (s *IndexService) ChildTagUnion(index *db.Page) ([]db.Tag, error) {
	pages, err := s.ListDescendants(index, nil)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]struct{})
	var tags []db.Tag
	for _, page := range pages {
		for _, tag := range page.Tags {
			if _, ok := seen[tag.ID]; ok {
				continue
			}
			seen[tag.ID] = struct{}{}
			tags = append(tags, tag)
		}
	}

	slices.SortFunc(tags, func(a, b db.Tag) int {
		if diff := cmp.Compare(a.Name, b.Name); diff != 0 {
			return diff
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return tags, nil
}

// TagLinks pairs tags with their archive URLs under indexURL.
func TagLinks(indexURL string, tags []db.Tag) []TagLink {
	base := strings.TrimSuffix(indexURL, "/")
	links := make([]TagLink, 0, len(tags))
	for _, tag := range tags {
		links = append(links, TagLink{
			ID:   tag.ID,
			Name: tag.Name,
			Slug: tag.Slug,
			URL:  base + "/tags/" + tag.Slug + "/",
		})
	}
	return links
}

func indexInfo(index *db.Page) (content.TypeInfo, error) {
	if index == nil {
		return content.TypeInfo{}, ErrNotIndexPage
	}
	info, ok := content.Lookup(index.Type)
	if !ok || !info.IsIndex() {
		return content.TypeInfo{}, ErrNotIndexPage
	}
	return info, nil
}

package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/collidersite/internal/content"
	"github.com/collidersite/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:service-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

// testTree builds a page tree under a live home page.
type testTree struct {
	t     *testing.T
	gdb   *gorm.DB
	pages *PageService
	root  *db.Page
}

func newTestTree(t *testing.T) *testTree {
	t.Helper()
	gdb := setupServiceTestDB(t)
	pages := NewPageService(gdb)
	root, err := pages.CreateRoot(PageInput{Type: content.TypeHome, Title: "Home", Slug: "home", Live: true})
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	return &testTree{t: t, gdb: gdb, pages: pages, root: root}
}

func (tr *testTree) add(parent *db.Page, pageType, title string, live bool, tags ...string) *db.Page {
	tr.t.Helper()
	page, err := tr.pages.AddChild(parent.ID, PageInput{Type: pageType, Title: title, Live: live, Tags: tags})
	if err != nil {
		tr.t.Fatalf("add %s %q: %v", pageType, title, err)
	}
	return page
}

func (tr *testTree) addPublished(parent *db.Page, pageType, title string, at time.Time, tags ...string) *db.Page {
	tr.t.Helper()
	page, err := tr.pages.AddChild(parent.ID, PageInput{Type: pageType, Title: title, Live: true, FirstPublishedAt: &at, Tags: tags})
	if err != nil {
		tr.t.Fatalf("add %s %q: %v", pageType, title, err)
	}
	return page
}

func (tr *testTree) tag(slug string) *db.Tag {
	tr.t.Helper()
	tag, err := NewTagService(tr.gdb).BySlug(slug)
	if err != nil {
		tr.t.Fatalf("tag %q: %v", slug, err)
	}
	return tag
}

func titles(pages []db.Page) []string {
	out := make([]string, 0, len(pages))
	for _, page := range pages {
		out = append(out, page.Title)
	}
	return out
}

func tagNames(tags []db.Tag) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		out = append(out, tag.Name)
	}
	return out
}

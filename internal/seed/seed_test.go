package seed

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/collidersite/internal/db"
	"github.com/collidersite/internal/service"
	"github.com/google/go-cmp/cmp"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSeedTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:seed-%d?mode=memory&cache=shared", time.Now().UnixNano())
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

func loadFixture(t *testing.T) *Fixture {
	t.Helper()
	file, err := os.Open("testdata/bakery.yaml")
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer file.Close()

	fixture, err := Parse(file)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return fixture
}

func TestApplyBuildsTree(t *testing.T) {
	gdb := setupSeedTestDB(t)

	result, err := Apply(gdb, loadFixture(t))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result.Pages != 14 || result.Profiles != 5 {
		t.Fatalf("unexpected counts: %d pages, %d profiles", result.Pages, result.Profiles)
	}

	pages := service.NewPageService(gdb)
	index := service.NewIndexService(service.NewStore(gdb))

	people, err := pages.Get(result.URLs["/people/"])
	if err != nil {
		t.Fatalf("get people index: %v", err)
	}
	listed, err := index.ListDescendants(people, nil)
	if err != nil {
		t.Fatalf("list people: %v", err)
	}
	var names []string
	for _, page := range listed {
		names = append(names, page.Title)
	}
	if diff := cmp.Diff([]string{"Grace Hopper", "Ada Lovelace"}, names); diff != "" {
		t.Fatalf("people order mismatch (-want +got):\n%s", diff)
	}

	industries, err := pages.Get(result.URLs["/industries/"])
	if err != nil {
		t.Fatalf("get industries index: %v", err)
	}
	union, err := index.ChildTagUnion(industries)
	if err != nil {
		t.Fatalf("tag union: %v", err)
	}
	var slugs []string
	for _, tag := range union {
		slugs = append(slugs, tag.Slug)
	}
	if diff := cmp.Diff([]string{"high-street", "hotels", "shops"}, slugs); diff != "" {
		t.Fatalf("union mismatch (-want +got):\n%s", diff)
	}

	partners, err := pages.Get(result.URLs["/partners/"])
	if err != nil {
		t.Fatalf("get partners index: %v", err)
	}
	livePartners, err := index.ListDescendants(partners, nil)
	if err != nil {
		t.Fatalf("list partners: %v", err)
	}
	if len(livePartners) != 1 || livePartners[0].Title != "Acme Mills" {
		t.Fatalf("expected only the live partner, got %v", livePartners)
	}

	ada, err := pages.Get(result.URLs["/people/ada-lovelace/"])
	if err != nil {
		t.Fatalf("get ada: %v", err)
	}
	detail, err := service.NewProfileService(gdb).Detail(ada, true)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail.Person == nil || detail.Person.Location == nil || detail.Person.Location.Title != "London" {
		t.Fatalf("expected ada to be located in London, got %+v", detail.Person)
	}
	if len(detail.Person.Partners) != 1 || detail.Person.Partners[0].Title != "Acme Mills" {
		t.Fatalf("expected ada to cover Acme Mills, got %v", detail.Person.Partners)
	}

	settings, err := service.NewSystemSettingService(gdb).GetSettings()
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if settings.SiteName != "Collider Bakery" {
		t.Fatalf("expected site name from fixture, got %q", settings.SiteName)
	}
}

func TestApplyRollsBackOnBadReference(t *testing.T) {
	gdb := setupSeedTestDB(t)

	fixture, err := Parse(strings.NewReader(`
root:
  type: home
  title: Home
  children:
    - type: people_index
      title: People
      children:
        - type: person
          title: Lost
          profile:
            first_name: Lost
            person_type: A
            partners: [/partners/nowhere/]
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if _, err := Apply(gdb, fixture); !errors.Is(err, ErrUnknownReference) {
		t.Fatalf("expected ErrUnknownReference, got %v", err)
	}

	var count int64
	if err := gdb.Model(&db.Page{}).Count(&count).Error; err != nil {
		t.Fatalf("count pages: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback to leave no pages, got %d", count)
	}
}

func TestParseRejectsBadFixtures(t *testing.T) {
	tests := map[string]string{
		"missing root":  "site:\n  name: x\n",
		"unknown field": "root:\n  type: home\n  title: Home\n  colour: red\n",
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(raw)); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestBodyAcceptsYAMLBlocks(t *testing.T) {
	fixture := loadFixture(t)
	input, err := fixture.Root.pageInput()
	if err != nil {
		t.Fatalf("page input: %v", err)
	}
	if !strings.HasPrefix(input.Body, `[{"type":"heading_block"`) {
		t.Fatalf("expected body encoded as JSON, got %q", input.Body)
	}
}

package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/collidersite/internal/content"
	"github.com/collidersite/internal/db"
	"github.com/google/go-cmp/cmp"
)

func TestCreateRootOnlyOnce(t *testing.T) {
	tree := newTestTree(t)

	if tree.root.Path != "0001" || tree.root.Depth != 1 {
		t.Fatalf("unexpected root path/depth %q/%d", tree.root.Path, tree.root.Depth)
	}
	if _, err := tree.pages.CreateRoot(PageInput{Type: content.TypeHome, Title: "Other"}); !errors.Is(err, ErrSiteRootExists) {
		t.Fatalf("expected ErrSiteRootExists, got %v", err)
	}
}

func TestCreateRootRejectsContentTypes(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewPageService(gdb)

	if _, err := svc.CreateRoot(PageInput{Type: content.TypePartner, Title: "Acme"}); !errors.Is(err, ErrTypeNotAllowed) {
		t.Fatalf("expected ErrTypeNotAllowed, got %v", err)
	}
	if _, err := svc.CreateRoot(PageInput{Type: "blog", Title: "Blog"}); !errors.Is(err, ErrPageTypeUnknown) {
		t.Fatalf("expected ErrPageTypeUnknown, got %v", err)
	}
}

func TestAddChildAllocatesPaths(t *testing.T) {
	tree := newTestTree(t)
	index := tree.add(tree.root, content.TypePartnersIndex, "Partners", true)
	first := tree.add(index, content.TypePartner, "Acme", true)
	second := tree.add(index, content.TypePartner, "Globex", true)

	if index.Path != "00010001" || index.Depth != 2 {
		t.Fatalf("unexpected index path/depth %q/%d", index.Path, index.Depth)
	}
	if first.Path != "000100010001" || second.Path != "000100010002" {
		t.Fatalf("unexpected child paths %q, %q", first.Path, second.Path)
	}
	if first.Slug != "acme" {
		t.Fatalf("expected derived slug acme, got %q", first.Slug)
	}

	// 硬删除后末尾步长会被重新分配
	if err := tree.pages.Delete(second.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	third := tree.add(index, content.TypePartner, "Initech", true)
	if third.Path != "000100010002" {
		t.Fatalf("expected freed step to be reused after hard delete, got %q", third.Path)
	}
}

func TestAddChildEnforcesWhitelist(t *testing.T) {
	tree := newTestTree(t)
	partners := tree.add(tree.root, content.TypePartnersIndex, "Partners", true)
	industries := tree.add(tree.root, content.TypeIndustriesIndex, "Industries", true)
	acme := tree.add(partners, content.TypePartner, "Acme", true)

	tests := []struct {
		name     string
		parentID uint
		input    PageInput
		want     error
	}{
		{name: "partner under industries", parentID: industries.ID, input: PageInput{Type: content.TypePartner, Title: "X"}, want: ErrTypeNotAllowed},
		{name: "child of leaf", parentID: acme.ID, input: PageInput{Type: content.TypePartner, Title: "X"}, want: ErrTypeNotAllowed},
		{name: "second home", parentID: tree.root.ID, input: PageInput{Type: content.TypeHome, Title: "X"}, want: ErrTypeNotAllowed},
		{name: "unknown type", parentID: tree.root.ID, input: PageInput{Type: "blog", Title: "X"}, want: ErrPageTypeUnknown},
		{name: "missing parent", parentID: 9999, input: PageInput{Type: content.TypePartner, Title: "X"}, want: ErrPageNotFound},
		{name: "missing title", parentID: partners.ID, input: PageInput{Type: content.TypePartner}, want: ErrPageTitleMissing},
		{name: "duplicate slug", parentID: partners.ID, input: PageInput{Type: content.TypePartner, Title: "ACME"}, want: ErrSlugTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tree.pages.AddChild(tt.parentID, tt.input); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestAddChildRejectsInvalidBody(t *testing.T) {
	tree := newTestTree(t)
	index := tree.add(tree.root, content.TypeIndustriesIndex, "Industries", true)

	_, err := tree.pages.AddChild(index.ID, PageInput{Type: content.TypeIndustry, Title: "Energy", Body: `[{"type":"nope","value":1}]`})
	if err == nil {
		t.Fatal("expected invalid body to be rejected")
	}

	page, err := tree.pages.AddChild(index.ID, PageInput{Type: content.TypeIndustry, Title: "Energy", Body: `[{"type":"paragraph_block","value":"hi"}]`})
	if err != nil {
		t.Fatalf("AddChild returned error: %v", err)
	}
	if page.Body == "" || page.Body == `[{"type":"paragraph_block","value":"hi"}]` {
		t.Fatalf("expected normalized body with block ids, got %q", page.Body)
	}
}

func TestPublishLifecycle(t *testing.T) {
	tree := newTestTree(t)
	index := tree.add(tree.root, content.TypePartnersIndex, "Partners", true)
	draft := tree.add(index, content.TypePartner, "Acme", false)
	if draft.FirstPublishedAt != nil {
		t.Fatal("draft should not have a first published time")
	}

	first := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	published, err := tree.pages.Publish(draft.ID, &first)
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if !published.Live || published.FirstPublishedAt == nil || !published.FirstPublishedAt.Equal(first) {
		t.Fatalf("unexpected publish state %+v", published)
	}

	if _, err := tree.pages.Unpublish(draft.ID); err != nil {
		t.Fatalf("Unpublish returned error: %v", err)
	}
	again := first.Add(48 * time.Hour)
	republished, err := tree.pages.Publish(draft.ID, &again)
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if !republished.FirstPublishedAt.Equal(first) {
		t.Fatalf("first published time moved to %v", republished.FirstPublishedAt)
	}
	if !republished.LastPublishedAt.Equal(again) {
		t.Fatalf("expected last published %v, got %v", again, republished.LastPublishedAt)
	}

	if _, err := tree.pages.Publish(9999, nil); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound, got %v", err)
	}
}

func TestDeleteRemovesSubtree(t *testing.T) {
	tree := newTestTree(t)
	index := tree.add(tree.root, content.TypePeopleIndex, "People", true)
	person := tree.add(index, content.TypePerson, "Ada Lovelace", true, "math")
	profiles := NewProfileService(tree.gdb)
	if err := profiles.Save(person, ProfileInput{FirstName: "Ada", LastName: "Lovelace", PersonType: db.PersonTypeTeam}); err != nil {
		t.Fatalf("save profile: %v", err)
	}

	if err := tree.pages.Delete(index.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	var pageCount, linkCount, profileCount int64
	tree.gdb.Unscoped().Model(&db.Page{}).Count(&pageCount)
	tree.gdb.Table("page_tags").Count(&linkCount)
	tree.gdb.Model(&db.PersonProfile{}).Count(&profileCount)
	if pageCount != 1 || linkCount != 0 || profileCount != 0 {
		t.Fatalf("expected only the root to remain, got pages=%d links=%d profiles=%d", pageCount, linkCount, profileCount)
	}
	if _, err := NewTagService(tree.gdb).BySlug("math"); err != nil {
		t.Fatalf("tags survive page deletion: %v", err)
	}
}

func TestURLsAndRoute(t *testing.T) {
	tree := newTestTree(t)
	index := tree.add(tree.root, content.TypePartnersIndex, "Partners", true)
	acme := tree.add(index, content.TypePartner, "Acme", true)
	draft := tree.add(index, content.TypePartner, "Hidden", false)

	urls, err := tree.pages.URLs([]db.Page{*tree.root, *index, *acme})
	if err != nil {
		t.Fatalf("URLs returned error: %v", err)
	}
	want := map[uint]string{tree.root.ID: "/", index.ID: "/partners/", acme.ID: "/partners/acme/"}
	if diff := cmp.Diff(want, urls); diff != "" {
		t.Fatalf("unexpected urls (-want +got):\n%s", diff)
	}

	tests := []struct {
		name     string
		segments []string
		wantID   uint
		wantRest []string
	}{
		{name: "root", segments: nil, wantID: tree.root.ID},
		{name: "content page", segments: []string{"partners", "acme"}, wantID: acme.ID},
		{name: "tag archive", segments: []string{"partners", "tags", "x"}, wantID: index.ID, wantRest: []string{"tags", "x"}},
		{name: "draft", segments: []string{"partners", draft.Slug}, wantID: index.ID, wantRest: []string{draft.Slug}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, rest, err := tree.pages.Route(tt.segments)
			if err != nil {
				t.Fatalf("Route returned error: %v", err)
			}
			if page.ID != tt.wantID {
				t.Fatalf("expected page %d, got %d", tt.wantID, page.ID)
			}
			if diff := cmp.Diff(tt.wantRest, rest); diff != "" {
				t.Fatalf("unexpected remainder (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAncestorsAndChildren(t *testing.T) {
	tree := newTestTree(t)
	index := tree.add(tree.root, content.TypeBreadsIndex, "Breads", true)
	tree.add(index, content.TypeBread, "Rye", true)
	tree.add(index, content.TypeBread, "Focaccia", false)
	tree.add(index, content.TypeBread, "Bagel", true)

	children, err := tree.pages.Children(index.ID)
	if err != nil {
		t.Fatalf("Children returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"Rye", "Focaccia", "Bagel"}, titles(children)); diff != "" {
		t.Fatalf("children not in tree order (-want +got):\n%s", diff)
	}
	live, err := tree.pages.LiveChildren(index.ID)
	if err != nil {
		t.Fatalf("LiveChildren returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"Rye", "Bagel"}, titles(live)); diff != "" {
		t.Fatalf("unexpected live children (-want +got):\n%s", diff)
	}

	ancestors, err := tree.pages.Ancestors(&children[0])
	if err != nil {
		t.Fatalf("Ancestors returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"Home", "Breads"}, titles(ancestors)); diff != "" {
		t.Fatalf("unexpected ancestors (-want +got):\n%s", diff)
	}
}

func TestUpdateKeepsSiblingSlugsUnique(t *testing.T) {
	tree := newTestTree(t)
	index := tree.add(tree.root, content.TypeLocationsIndex, "Locations", true)
	tree.add(index, content.TypeLocation, "Paris", true)
	berlin := tree.add(index, content.TypeLocation, "Berlin", true)

	if _, err := tree.pages.Update(berlin.ID, PageUpdate{Title: "Berlin", Slug: "paris"}); !errors.Is(err, ErrSlugTaken) {
		t.Fatalf("expected ErrSlugTaken, got %v", err)
	}
	updated, err := tree.pages.Update(berlin.ID, PageUpdate{Title: "Berlin Mitte", Slug: "berlin", Introduction: " office "})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Title != "Berlin Mitte" || updated.Introduction != "office" {
		t.Fatalf("unexpected update result %+v", updated)
	}
}

func TestSearchPaginatesLivePages(t *testing.T) {
	tree := newTestTree(t)
	index := tree.add(tree.root, content.TypeIndustriesIndex, "Industries", true)
	for i := 1; i <= 13; i++ {
		tree.add(index, content.TypeIndustry, fmt.Sprintf("Solar %02d", i), true)
	}
	tree.add(index, content.TypeIndustry, "Solar draft", false)
	tree.add(index, content.TypeIndustry, "Wind", true, "solar-adjacent")

	first, err := tree.pages.Search("solar", "")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if first.Total != 14 || first.TotalPages != 2 || len(first.Items) != 12 {
		t.Fatalf("unexpected first page: total=%d pages=%d items=%d", first.Total, first.TotalPages, len(first.Items))
	}

	last, err := tree.pages.Search("solar", "-3")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"Solar 13", "Wind"}, titles(last.Items)); diff != "" {
		t.Fatalf("unexpected last page (-want +got):\n%s", diff)
	}

	empty, err := tree.pages.Search("  ", "")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if empty.Total != 0 || empty.TotalPages != 1 {
		t.Fatalf("blank query should give one empty page, got %+v", empty)
	}
}

func TestSearchMatchesBlockText(t *testing.T) {
	tree := newTestTree(t)
	index := tree.add(tree.root, content.TypeIndustriesIndex, "Industries", true)
	body := `[{"type":"heading_block","value":{"heading_text":"Our ovens","size":"h2"}},` +
		`{"type":"paragraph_block","value":"<p>Fresh <b>sourdough</b> daily</p>"}]`
	baking, err := tree.pages.AddChild(index.ID, PageInput{Type: content.TypeIndustry, Title: "Baking", Body: body, Live: true})
	if err != nil {
		t.Fatalf("AddChild returned error: %v", err)
	}

	count := func(query string) int {
		t.Helper()
		result, err := tree.pages.Search(query, "")
		if err != nil {
			t.Fatalf("Search(%q) returned error: %v", query, err)
		}
		return result.Total
	}

	for query, want := range map[string]int{
		"sourdough":       1,
		"our ovens":       1,
		"paragraph":       0,
		"heading_block":   0,
		"heading_text":    0,
		"<b>":             0,
		"type":            0,
		"fresh sourdough": 1,
	} {
		if got := count(query); got != want {
			t.Fatalf("Search(%q): expected %d hits, got %d", query, want, got)
		}
	}

	if _, err := tree.pages.Update(baking.ID, PageUpdate{Title: "Baking", Body: `[{"type":"paragraph_block","value":"rye only"}]`}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if got := count("sourdough"); got != 0 {
		t.Fatalf("expected updated body to drop old text, got %d hits", got)
	}
	if got := count("rye"); got != 1 {
		t.Fatalf("expected updated body to be searchable, got %d hits", got)
	}
}

func TestSearchTreatsWildcardsLiterally(t *testing.T) {
	tree := newTestTree(t)
	index := tree.add(tree.root, content.TypeIndustriesIndex, "Industries", true)
	tree.add(index, content.TypeIndustry, "100% rye", true)
	tree.add(index, content.TypeIndustry, "1000 ryes", true)
	tree.add(index, content.TypeIndustry, "a_b", true)
	tree.add(index, content.TypeIndustry, "axb", true)

	for query, want := range map[string][]string{
		"100%": {"100% rye"},
		"a_b":  {"a_b"},
		"%":    {"100% rye"},
	} {
		result, err := tree.pages.Search(query, "")
		if err != nil {
			t.Fatalf("Search(%q) returned error: %v", query, err)
		}
		if diff := cmp.Diff(want, titles(result.Items)); diff != "" {
			t.Fatalf("Search(%q) mismatch (-want +got):\n%s", query, diff)
		}
	}
}

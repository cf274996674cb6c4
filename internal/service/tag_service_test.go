package service

import (
	"errors"
	"testing"

	"github.com/collidersite/internal/content"
	"github.com/google/go-cmp/cmp"
)

func TestTagServiceCreate(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewTagService(gdb)

	tag, err := svc.Create("  Crème Brûlée ")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if tag.Name != "Crème Brûlée" || tag.Slug != "creme-brulee" {
		t.Fatalf("unexpected tag %q/%q", tag.Name, tag.Slug)
	}

	if _, err := svc.Create("Crème Brûlée"); !errors.Is(err, ErrTagExists) {
		t.Fatalf("expected ErrTagExists, got %v", err)
	}
	if _, err := svc.Create("   "); !errors.Is(err, ErrTagNameMissing) {
		t.Fatalf("expected ErrTagNameMissing, got %v", err)
	}

	clash, err := svc.Create("creme brulee")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if clash.Slug != "creme-brulee_1" {
		t.Fatalf("expected suffixed slug, got %q", clash.Slug)
	}
}

func TestTagServiceBySlug(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewTagService(gdb)
	if _, err := svc.Create("Energy"); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	tag, err := svc.BySlug("energy")
	if err != nil || tag.Name != "Energy" {
		t.Fatalf("expected Energy, got %v / %v", tag, err)
	}
	for _, slug := range []string{"", "nope"} {
		if _, err := svc.BySlug(slug); !errors.Is(err, ErrTagNotFound) {
			t.Fatalf("slug %q: expected ErrTagNotFound, got %v", slug, err)
		}
	}
}

func TestTagServiceSetPageTagsAndUsage(t *testing.T) {
	tree := newTestTree(t)
	index := tree.add(tree.root, content.TypeIndustriesIndex, "Industries", true)
	live := tree.add(index, content.TypeIndustry, "Energy", true)
	tree.add(index, content.TypeIndustry, "Mining", false, "b")
	svc := NewTagService(tree.gdb)

	tags, err := svc.SetPageTags(live.ID, []string{"b", " a ", "b", ""})
	if err != nil {
		t.Fatalf("SetPageTags returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"b", "a"}, tagNames(tags)); diff != "" {
		t.Fatalf("unexpected tags (-want +got):\n%s", diff)
	}

	forPage, err := svc.ForPage(live.ID)
	if err != nil {
		t.Fatalf("ForPage returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, tagNames(forPage)); diff != "" {
		t.Fatalf("ForPage not sorted (-want +got):\n%s", diff)
	}

	usage, err := svc.LiveUsage()
	if err != nil {
		t.Fatalf("LiveUsage returned error: %v", err)
	}
	counts := map[string]int64{}
	for _, item := range usage {
		counts[item.Name] = item.Count
	}
	if diff := cmp.Diff(map[string]int64{"a": 1, "b": 1}, counts); diff != "" {
		t.Fatalf("draft pages should not count (-want +got):\n%s", diff)
	}

	if _, err := svc.SetPageTags(9999, []string{"a"}); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound, got %v", err)
	}
}

func TestTagServiceDelete(t *testing.T) {
	tree := newTestTree(t)
	index := tree.add(tree.root, content.TypeIndustriesIndex, "Industries", true)
	tree.add(index, content.TypeIndustry, "Energy", true, "used")
	svc := NewTagService(tree.gdb)

	unused, err := svc.Create("unused")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := svc.Delete(tree.tag("used").ID); !errors.Is(err, ErrTagInUse) {
		t.Fatalf("expected ErrTagInUse, got %v", err)
	}
	if err := svc.Delete(unused.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := svc.Delete(unused.ID); !errors.Is(err, ErrTagNotFound) {
		t.Fatalf("expected ErrTagNotFound, got %v", err)
	}
}

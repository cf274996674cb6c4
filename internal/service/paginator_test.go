package service

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func numbers(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestPaginateClampsRequests(t *testing.T) {
	items := numbers(7)

	tests := []struct {
		name      string
		raw       string
		wantPage  int
		wantItems []int
	}{
		{name: "absent", raw: "", wantPage: 1, wantItems: []int{1, 2, 3, 4, 5, 6}},
		{name: "non-integer", raw: "abc", wantPage: 1, wantItems: []int{1, 2, 3, 4, 5, 6}},
		{name: "float", raw: "2.0", wantPage: 1, wantItems: []int{1, 2, 3, 4, 5, 6}},
		{name: "second page", raw: "2", wantPage: 2, wantItems: []int{7}},
		{name: "padded", raw: " 2 ", wantPage: 2, wantItems: []int{7}},
		{name: "past the end", raw: "9999", wantPage: 2, wantItems: []int{7}},
		{name: "zero", raw: "0", wantPage: 2, wantItems: []int{7}},
		{name: "negative", raw: "-1", wantPage: 2, wantItems: []int{7}},
		{name: "beyond int range", raw: "99999999999999999999", wantPage: 2, wantItems: []int{7}},
		{name: "below int range", raw: "-99999999999999999999", wantPage: 2, wantItems: []int{7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Paginate(items, tt.raw, 6)
			if got.Number != tt.wantPage {
				t.Fatalf("expected page %d, got %d", tt.wantPage, got.Number)
			}
			if got.TotalPages != 2 {
				t.Fatalf("expected 2 total pages, got %d", got.TotalPages)
			}
			if diff := cmp.Diff(tt.wantItems, got.Items); diff != "" {
				t.Fatalf("items mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPaginateInvariants(t *testing.T) {
	for size := 1; size <= 13; size++ {
		for count := 1; count <= 30; count++ {
			items := numbers(count)
			wantPages := (count + size - 1) / size
			for _, raw := range []string{"", "abc", "1", "2", "3", "9999", "-4"} {
				got := Paginate(items, raw, size)
				if len(got.Items) > size {
					t.Fatalf("size=%d count=%d raw=%q: %d items exceed page size", size, count, raw, len(got.Items))
				}
				if got.TotalPages != wantPages {
					t.Fatalf("size=%d count=%d: expected %d pages, got %d", size, count, wantPages, got.TotalPages)
				}
				if len(got.Items) == 0 {
					t.Fatalf("size=%d count=%d raw=%q: non-empty collection produced empty page", size, count, raw)
				}
			}
			if diff := cmp.Diff(Paginate(items, "abc", size), Paginate(items, "", size)); diff != "" {
				t.Fatalf("non-integer and absent requests differ:\n%s", diff)
			}
			if Paginate(items, "9999", size).Number != wantPages {
				t.Fatalf("size=%d count=%d: 9999 should clamp to last page", size, count)
			}
		}
	}
}

func TestPaginateEmptyAndUnbounded(t *testing.T) {
	empty := Paginate([]int{}, "3", 6)
	if empty.Number != 1 || empty.TotalPages != 1 || len(empty.Items) != 0 {
		t.Fatalf("unexpected empty page: %+v", empty)
	}
	if empty.HasNext() || empty.HasPrevious() {
		t.Fatal("single page has no neighbours")
	}

	all := Paginate(numbers(20), "2", 0)
	if all.TotalPages != 1 || len(all.Items) != 20 || all.Number != 1 {
		t.Fatalf("unbounded pagination should hold everything on page 1: %+v", all)
	}
}

func TestPageResultNeighbours(t *testing.T) {
	middle := Paginate(numbers(30), "2", 10)
	if !middle.HasPrevious() || !middle.HasNext() {
		t.Fatal("middle page should have both neighbours")
	}
	if middle.PreviousNumber() != 1 || middle.NextNumber() != 3 {
		t.Fatalf("unexpected neighbours %d/%d", middle.PreviousNumber(), middle.NextNumber())
	}
	last := Paginate(numbers(30), "3", 10)
	if last.NextNumber() != 0 {
		t.Fatalf("last page has no next, got %d", last.NextNumber())
	}
}

package db

import (
	"slices"
	"testing"
)

func TestEncodePathStep(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{n: 1, want: "0001"},
		{n: 10, want: "000A"},
		{n: 36, want: "0010"},
		{n: 1679615, want: "ZZZZ"},
	}

	for _, tt := range tests {
		got, err := EncodePathStep(tt.n)
		if err != nil {
			t.Fatalf("EncodePathStep(%d) returned error: %v", tt.n, err)
		}
		if got != tt.want {
			t.Fatalf("EncodePathStep(%d) = %q, want %q", tt.n, got, tt.want)
		}
		back, err := DecodePathStep("0001" + got)
		if err != nil || back != tt.n {
			t.Fatalf("DecodePathStep round trip for %d gave %d (%v)", tt.n, back, err)
		}
	}

	if _, err := EncodePathStep(0); err == nil {
		t.Fatal("expected error for step 0")
	}
	if _, err := EncodePathStep(1679616); err == nil {
		t.Fatal("expected overflow error")
	}
}

func TestPathStepsSortInTreeOrder(t *testing.T) {
	steps := make([]string, 0, 40)
	for i := 1; i <= 40; i++ {
		step, err := EncodePathStep(i)
		if err != nil {
			t.Fatalf("encode %d: %v", i, err)
		}
		steps = append(steps, step)
	}
	if !slices.IsSorted(steps) {
		t.Fatalf("path steps are not lexicographically ordered: %v", steps)
	}
}

func TestAncestorPaths(t *testing.T) {
	got := AncestorPaths("000100020003")
	want := []string{"0001", "00010002"}
	if !slices.Equal(got, want) {
		t.Fatalf("AncestorPaths = %v, want %v", got, want)
	}
	if AncestorPaths("0001") != nil {
		t.Fatal("root has no ancestors")
	}
}

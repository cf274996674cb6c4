package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/collidersite/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
)

func TestSplitPath(t *testing.T) {
	tests := map[string][]string{
		"/":                    {},
		"":                     {},
		"/partners/":           {"partners"},
		"/partners//tags/x":    {"partners", "tags", "x"},
		"people/ada-lovelace/": {"people", "ada-lovelace"},
	}
	for input, want := range tests {
		if diff := cmp.Diff(want, splitPath(input)); diff != "" {
			t.Fatalf("splitPath(%q) mismatch (-want +got):\n%s", input, diff)
		}
	}
}

func TestBodyString(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "empty", raw: "", want: ""},
		{name: "null", raw: "null", want: ""},
		{name: "encoded string", raw: `"[{\"type\":\"heading\"}]"`, want: `[{"type":"heading"}]`},
		{name: "inline array", raw: ` [{"type":"heading"}] `, want: `[{"type":"heading"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bodyString(json.RawMessage(tt.raw)); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRespondServiceErrorStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err  error
		want int
	}{
		{err: service.ErrPageNotFound, want: http.StatusNotFound},
		{err: fmt.Errorf("wrapped: %w", service.ErrSlugTaken), want: http.StatusConflict},
		{err: service.ErrTypeNotAllowed, want: http.StatusBadRequest},
		{err: service.ErrTagInUse, want: http.StatusConflict},
		{err: errors.New("disk on fire"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rr)
		respondServiceError(c, tt.err, "failed")
		if rr.Code != tt.want {
			t.Fatalf("%v: expected %d, got %d", tt.err, tt.want, rr.Code)
		}
	}
}

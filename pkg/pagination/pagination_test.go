package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestFromContext(t *testing.T) {
	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"", DefaultLimit, 0},
		{"?limit=20&offset=40", 20, 40},
		{"?limit=500", MaxLimit, 0},
		{"?offset=-5", DefaultLimit, 0},
		{"?limit=0&offset=abc", DefaultLimit, 0},
		{"?limit=-3", DefaultLimit, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			e := echo.New()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/treatments"+tt.query, nil), httptest.NewRecorder())

			p := FromContext(c)
			if p.Limit != tt.wantLimit || p.Offset != tt.wantOffset {
				t.Errorf("expected limit=%d offset=%d, got %+v", tt.wantLimit, tt.wantOffset, p)
			}
		})
	}
}

func TestNewResponse(t *testing.T) {
	r := NewResponse([]int{1, 2}, 5, Params{Limit: 2}, "/api/v1/treatments")
	if !r.HasMore || r.Total != 5 || r.Limit != 2 {
		t.Errorf("expected more after first page, got %+v", r)
	}
	if len(r.Links) != 2 || r.Links[1].URL != "/api/v1/treatments?offset=2&limit=2" {
		t.Errorf("unexpected links %+v", r.Links)
	}

	last := NewResponse([]int{5}, 5, Params{Limit: 2, Offset: 4}, "/api/v1/treatments")
	if last.HasMore {
		t.Errorf("expected no more on last page, got %+v", last)
	}
}

func TestParams_Window(t *testing.T) {
	tests := []struct {
		params     Params
		total      int
		start, end int
	}{
		{Params{Limit: 2, Offset: 1}, 5, 1, 3},
		{Params{Limit: 10, Offset: 4}, 5, 4, 5},
		{Params{Limit: 10, Offset: 50}, 5, 5, 5},
		{Params{Limit: 0, Offset: 2}, 5, 2, 5},
		{Params{Limit: 3, Offset: -1}, 5, 0, 3},
		{Params{Limit: 3}, 0, 0, 0},
	}
	for _, tt := range tests {
		start, end := tt.params.Window(tt.total)
		if start != tt.start || end != tt.end {
			t.Errorf("%+v of %d: expected [%d:%d], got [%d:%d]", tt.params, tt.total, tt.start, tt.end, start, end)
		}
	}
}

func TestParams_Offsets(t *testing.T) {
	p := Params{Limit: 10, Offset: 5}
	if p.NextOffset() != 15 {
		t.Errorf("expected next 15, got %d", p.NextOffset())
	}
	if p.PreviousOffset() != 0 {
		t.Errorf("expected previous clamped to 0, got %d", p.PreviousOffset())
	}
	if !p.HasPrevious() || !p.HasNext(16) || p.HasNext(15) {
		t.Errorf("unexpected neighbours for %+v", p)
	}
	if (Params{Limit: 10}).HasPrevious() {
		t.Error("first page has no previous")
	}
}

func TestParams_Links(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		total  int
		want   map[string]string
	}{
		{"first page", Params{Limit: 10, Offset: 0}, 25, map[string]string{
			"self": "/api/v1/treatments?offset=0&limit=10",
			"next": "/api/v1/treatments?offset=10&limit=10",
		}},
		{"middle page", Params{Limit: 10, Offset: 10}, 25, map[string]string{
			"self":     "/api/v1/treatments?offset=10&limit=10",
			"next":     "/api/v1/treatments?offset=20&limit=10",
			"previous": "/api/v1/treatments?offset=0&limit=10",
		}},
		{"last page", Params{Limit: 10, Offset: 20}, 25, map[string]string{
			"self":     "/api/v1/treatments?offset=20&limit=10",
			"previous": "/api/v1/treatments?offset=10&limit=10",
		}},
		{"no results", Params{Limit: 10, Offset: 0}, 0, map[string]string{
			"self": "/api/v1/treatments?offset=0&limit=10",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links := tt.params.Links("/api/v1/treatments", tt.total)
			if len(links) != len(tt.want) {
				t.Fatalf("expected %d links, got %d", len(tt.want), len(links))
			}
			for _, l := range links {
				if tt.want[l.Relation] != l.URL {
					t.Errorf("%s: expected %q, got %q", l.Relation, tt.want[l.Relation], l.URL)
				}
			}
		})
	}
}

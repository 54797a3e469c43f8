package series

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sipforge/internal/grid"
)

func TestListFiltersPublished(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/series" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("status"); got != StatusPublished {
			t.Errorf("status query = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sekrit" {
			t.Errorf("authorization header = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
            {"id":"S-1","name":"Bouwdossiers","status":"Published","valid_from":"2000-01-01","valid_until":"2020-12-31"},
            {"id":"S-2","name":"Concept","status":"Draft"}
        ]`))
	}))
	defer server.Close()

	client := NewClientWith(server.URL, "sekrit", server.Client())
	list, err := client.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != "S-1" {
		t.Fatalf("unexpected series list: %+v", list)
	}
}

func TestGetSeries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/series/S-1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"id":"S-1","name":"Bouwdossiers","status":"Published","valid_from":"2000-01-01","valid_until":"2020-12-31"}`))
	}))
	defer server.Close()

	client := NewClientWith(server.URL, "", server.Client())
	s, err := client.Get(context.Background(), "S-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if s.Name != "Bouwdossiers" {
		t.Fatalf("unexpected series: %+v", s)
	}

	if _, err := client.Get(context.Background(), "S-9"); err == nil {
		t.Fatal("missing series did not error")
	}
	if _, err := client.Get(context.Background(), " "); err == nil {
		t.Fatal("blank id accepted")
	}
}

func TestBoundsConversion(t *testing.T) {
	s := &Series{ID: "S-1", ValidFrom: "2000-01-01", ValidUntil: "2020-12-31"}
	bounds, err := s.Bounds()
	if err != nil {
		t.Fatalf("bounds: %v", err)
	}
	wantStart := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	if bounds.Start == nil || !bounds.Start.Equal(wantStart) {
		t.Fatalf("start = %v", bounds.Start)
	}
	if bounds.End == nil || bounds.End.Format(grid.DateFormat) != "2020-12-31" {
		t.Fatalf("end = %v", bounds.End)
	}

	open := &Series{ID: "S-2"}
	b2, err := open.Bounds()
	if err != nil {
		t.Fatalf("open bounds: %v", err)
	}
	if b2.Start != nil || b2.End != nil {
		t.Fatalf("open series should be unconstrained: %+v", b2)
	}

	bad := &Series{ID: "S-3", ValidFrom: "01/01/2000"}
	if _, err := bad.Bounds(); err == nil {
		t.Fatal("malformed valid_from accepted")
	}
}

func TestClientRequiresBaseURL(t *testing.T) {
	client := NewClientWith("", "", http.DefaultClient)
	if _, err := client.List(context.Background()); err == nil {
		t.Fatal("client without base URL should error")
	}
}

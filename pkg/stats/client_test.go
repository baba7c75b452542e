package stats

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wikidash/wikidash/pkg/client"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultConfig(server.URL, "en.wikipedia.org")
	cfg.MinRequestInterval = 0
	cfg.InitialBackoff = 1 * time.Millisecond

	c, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func TestSimpleEditCount(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user/simple_editcount/en.wikipedia.org/Alice" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(EditCountDTO{
			Username:         "Alice",
			UserID:           12345,
			LiveEditCount:    4000,
			DeletedEditCount: 21,
			TotalEditCount:   4021,
		})
	})

	dto, err := c.SimpleEditCount(context.Background(), "Alice")
	if err != nil {
		t.Fatalf("SimpleEditCount() error = %v", err)
	}
	if dto.TotalEditCount != 4021 || dto.LiveEditCount != 4000 {
		t.Errorf("SimpleEditCount() = %+v", dto)
	}
}

func TestMonthCounts(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user/month_counts/en.wikipedia.org/Alice" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(MonthCountsDTO{
			Username: "Alice",
			Months: []MonthTotalDTO{
				{Month: "2026-07", Count: 120},
				{Month: "2026-08", Count: 95},
			},
		})
	})

	dto, err := c.MonthCounts(context.Background(), "Alice")
	if err != nil {
		t.Fatalf("MonthCounts() error = %v", err)
	}
	if len(dto.Months) != 2 || dto.Months[1].Count != 95 {
		t.Errorf("MonthCounts() = %+v", dto)
	}
}

func TestTopEdits(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user/top_edits/en.wikipedia.org/Alice/0/5" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"top_edits": []map[string]any{
				{"page_title": "Go (programming language)", "count": 88},
				{"page_title": "Concurrency", "count": 41},
			},
		})
	})

	edits, err := c.TopEdits(context.Background(), "Alice", 0, 5)
	if err != nil {
		t.Fatalf("TopEdits() error = %v", err)
	}
	if len(edits) != 2 || edits[0].Count != 88 {
		t.Errorf("TopEdits() = %+v", edits)
	}
}

func TestNamespaceTotals(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"namespace_totals": map[string]int{
				"0": 3200,
				"1": 600,
				"3": 221,
			},
		})
	})

	totals, err := c.NamespaceTotals(context.Background(), "Alice")
	if err != nil {
		t.Fatalf("NamespaceTotals() error = %v", err)
	}
	if totals[0] != 3200 || totals[1] != 600 || totals[3] != 221 {
		t.Errorf("NamespaceTotals() = %v", totals)
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var requests atomic.Int32
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(EditCountDTO{TotalEditCount: 10})
	})

	dto, err := c.SimpleEditCount(context.Background(), "Alice")
	if err != nil {
		t.Fatalf("SimpleEditCount() error = %v, want success after retry", err)
	}
	if dto.TotalEditCount != 10 {
		t.Errorf("TotalEditCount = %d, want 10", dto.TotalEditCount)
	}
	if requests.Load() != 2 {
		t.Errorf("server saw %d requests, want 2", requests.Load())
	}
}

func TestClient_SurfacesClassifiedClientError(t *testing.T) {
	var requests atomic.Int32
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.SimpleEditCount(context.Background(), "Ghost")

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *client.APIError", err)
	}
	if apiErr.Code != client.CodeClient {
		t.Errorf("Code = %s, want client", apiErr.Code)
	}
	if requests.Load() != 1 {
		t.Errorf("server saw %d requests, want 1", requests.Load())
	}
}

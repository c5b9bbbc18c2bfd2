package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func newInfluxServer(t *testing.T, status string) (*httptest.Server, func() string) {
	t.Helper()
	var (
		mu   sync.Mutex
		body strings.Builder
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"name":"influxdb","message":"ready","status":"`+status+`","checks":[]}`)
	})
	mux.HandleFunc("/api/v2/write", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		body.Write(b)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, func() string {
		mu.Lock()
		defer mu.Unlock()
		return body.String()
	}
}

func TestInfluxWritesPoints(t *testing.T) {
	srv, written := newInfluxServer(t, "pass")

	rec, err := NewInflux(context.Background(), InfluxConfig{
		URL: srv.URL, Token: "t", Org: "o", Bucket: "b", RunID: "run1", Scheme: "tox",
	})
	if err != nil {
		t.Fatalf("NewInflux: %v", err)
	}
	rec.RecordRate(2, 1234.5)
	rec.RecordFound("AAFF", 99, 3*time.Second)
	rec.Close()

	got := written()
	for _, want := range []string{"vanity_rate", "worker=2", "run_id=run1", "vanity_found", "address=AAFF"} {
		if !strings.Contains(got, want) {
			t.Errorf("written lines %q missing %q", got, want)
		}
	}
}

func TestInfluxUnhealthy(t *testing.T) {
	srv, _ := newInfluxServer(t, "fail")
	if _, err := NewInflux(context.Background(), InfluxConfig{URL: srv.URL}); err == nil {
		t.Fatal("NewInflux succeeded against an unhealthy server")
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rkaplan/lecture-composer/pkg/types"
)

func TestScraperClientHealth(t *testing.T) {
	t.Run("parses sidecar health payload", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/health" {
				t.Errorf("path = %q", r.URL.Path)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"status":               "ok",
				"playwright_available": true,
				"uptodate_logged_in":   true,
				"mksap_logged_in":      false,
			})
		}))
		defer ts.Close()

		client := &ScraperClient{BaseURL: ts.URL, Client: ts.Client()}
		status := client.Health(context.Background())

		if !status.Reachable || !status.BrowserAvailable {
			t.Errorf("status = %+v", status)
		}
		if !status.LoggedIn[TargetUpToDate] || status.LoggedIn[TargetMKSAP] {
			t.Errorf("logged-in flags = %v", status.LoggedIn)
		}
	})

	t.Run("unreachable sidecar reports, never errors", func(t *testing.T) {
		client := &ScraperClient{BaseURL: "http://127.0.0.1:1"}
		status := client.Health(context.Background())
		if status.Reachable {
			t.Error("unreachable sidecar reported as reachable")
		}
	})
}

func TestScraperClientLogin(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantOK     bool
		wantErr    bool
	}{
		{name: "accepted", statusCode: http.StatusOK, wantOK: true},
		{name: "bad credentials", statusCode: http.StatusUnauthorized, wantOK: false},
		{name: "sidecar failure", statusCode: http.StatusInternalServerError, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/login" {
					t.Errorf("path = %q", r.URL.Path)
				}
				var creds map[string]string
				json.NewDecoder(r.Body).Decode(&creds)
				if creds["username"] != "user" || creds["target"] != "uptodate" {
					t.Errorf("credentials = %v", creds)
				}
				w.WriteHeader(tt.statusCode)
			}))
			defer ts.Close()

			client := &ScraperClient{BaseURL: ts.URL, Client: ts.Client()}
			ok, err := client.Login(context.Background(), TargetUpToDate, "user", "pass")
			if tt.wantErr {
				if err == nil {
					t.Fatal("want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Login: %v", err)
			}
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
		})
	}
}

// sidecarServer fakes the scraper sidecar with counters for assertions.
func sidecarServer(t *testing.T, content string) (*httptest.Server, *int32, *int32) {
	t.Helper()
	var logins, searches int32
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&logins, 1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/search/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&searches, 1)
		if !strings.HasPrefix(r.URL.Path, "/search/uptodate") {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"provider": "uptodate",
			"query":    "q",
			"content":  content,
			"citations": []map[string]any{
				{"id": "utd-0", "title": "Topic Review", "url": "https://example.org/topic"},
			},
		})
	})
	return httptest.NewServer(mux), &logins, &searches
}

func TestInstitutionalAdapterSearch(t *testing.T) {
	t.Run("no session attempts login then searches despite rejection", func(t *testing.T) {
		ts, logins, searches := sidecarServer(t, strings.Repeat("deep content ", 100))
		defer ts.Close()

		adapter := &InstitutionalAdapter{
			Client:   &ScraperClient{BaseURL: ts.URL, Client: ts.Client()},
			Target:   TargetUpToDate,
			Username: "user",
			Password: "pass",
			LoggedIn: false,
		}

		result, err := adapter.Search(context.Background(), "q")
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if atomic.LoadInt32(logins) != 1 {
			t.Errorf("logins = %d, want 1", atomic.LoadInt32(logins))
		}
		if atomic.LoadInt32(searches) != 1 {
			t.Errorf("searches = %d, want 1", atomic.LoadInt32(searches))
		}
		if result.Source != types.SourceUpToDate {
			t.Errorf("source = %q", result.Source)
		}
		if len(result.Citations) != 1 || result.Citations[0].ID != "utd-0" {
			t.Errorf("citations = %+v", result.Citations)
		}
	})

	t.Run("existing session skips login", func(t *testing.T) {
		ts, logins, _ := sidecarServer(t, "content")
		defer ts.Close()

		adapter := &InstitutionalAdapter{
			Client:   &ScraperClient{BaseURL: ts.URL, Client: ts.Client()},
			Target:   TargetUpToDate,
			LoggedIn: true,
		}

		if _, err := adapter.Search(context.Background(), "q"); err != nil {
			t.Fatalf("Search: %v", err)
		}
		if atomic.LoadInt32(logins) != 0 {
			t.Errorf("logins = %d, want 0 when session flag is set", atomic.LoadInt32(logins))
		}
	})

	t.Run("thin result deepened from first citation", func(t *testing.T) {
		page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("<html><head><title>T</title></head><body><p>Fetched page prose about dosing.</p></body></html>"))
		}))
		defer page.Close()

		mux := http.NewServeMux()
		mux.HandleFunc("/search/", func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"provider": "mksap",
				"content":  "thin",
				"citations": []map[string]any{
					{"id": "mksap-0", "title": "Ref", "url": page.URL},
				},
			})
		})
		ts := httptest.NewServer(mux)
		defer ts.Close()

		adapter := &InstitutionalAdapter{
			Client:   &ScraperClient{BaseURL: ts.URL, Client: ts.Client()},
			Target:   TargetMKSAP,
			LoggedIn: true,
			Fetcher:  &PageFetcher{Client: page.Client()},
		}

		result, err := adapter.Search(context.Background(), "q")
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if result.Source != types.SourceMKSAP {
			t.Errorf("source = %q", result.Source)
		}
		if !strings.Contains(result.Content, "thin") || !strings.Contains(result.Content, "Fetched page prose about dosing.") {
			t.Errorf("content not deepened: %q", result.Content)
		}
	})

	t.Run("rich result not deepened", func(t *testing.T) {
		rich := strings.Repeat("rich content ", 100)
		ts, _, _ := sidecarServer(t, rich)
		defer ts.Close()

		fetchCalled := false
		fetcher := &PageFetcher{Client: &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			fetchCalled = true
			return nil, context.Canceled
		})}}

		adapter := &InstitutionalAdapter{
			Client:   &ScraperClient{BaseURL: ts.URL, Client: ts.Client()},
			Target:   TargetUpToDate,
			LoggedIn: true,
			Fetcher:  fetcher,
		}

		result, err := adapter.Search(context.Background(), "q")
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if fetchCalled {
			t.Error("fetcher used for a rich result")
		}
		if !strings.HasPrefix(result.Content, "rich content") {
			t.Errorf("content = %q", result.Content[:20])
		}
	})
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

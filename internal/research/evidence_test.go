// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rkaplan/lecture-composer/pkg/types"
)

// swapURL points a package-level endpoint var at a test server for the
// duration of one test.
func swapURL(t *testing.T, target *string, url string) {
	t.Helper()
	old := *target
	*target = url
	t.Cleanup(func() { *target = old })
}

func TestEvidenceAdapterSearch(t *testing.T) {
	var gotReq perplexityRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "- MAP down 25% max in hour one\n- Nicardipine first line"}},
			},
			"citations": []any{
				"https://example.org/bare-url",
				map[string]any{"title": "AHA Statement", "url": "https://example.org/aha"},
				map[string]any{"url": "https://example.org/untitled"},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer ts.Close()
	swapURL(t, &perplexityAPIURL, ts.URL)

	adapter := &EvidenceAdapter{
		APIKey:       "test-key",
		Model:        types.PerplexitySonarReasoningPro,
		MedicalFocus: true,
		Client:       ts.Client(),
	}

	result, err := adapter.Search(context.Background(), "hypertensive emergency")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotReq.Model != string(types.PerplexitySonarReasoningPro) {
		t.Errorf("model = %q", gotReq.Model)
	}
	if gotReq.Temperature != 0.1 {
		t.Errorf("temperature = %v, want 0.1 for reasoning model", gotReq.Temperature)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Content != "hypertensive emergency" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
	if gotReq.Messages[0].Content != evidenceSystemPrompts[types.PerplexitySonarReasoningPro] {
		t.Error("system prompt does not match the model variant")
	}
	if len(gotReq.DomainFilter) != len(medicalDomains) {
		t.Errorf("domain filter = %v", gotReq.DomainFilter)
	}
	if !gotReq.ReturnCitations {
		t.Error("return_citations not requested")
	}

	if result.Source != types.SourceEvidence {
		t.Errorf("source = %q", result.Source)
	}
	if len(result.KeyPoints) != 2 {
		t.Errorf("key points = %v", result.KeyPoints)
	}

	if len(result.Citations) != 3 {
		t.Fatalf("citations = %+v", result.Citations)
	}
	if result.Citations[0].URL != "https://example.org/bare-url" || result.Citations[0].Title != "https://example.org/bare-url" {
		t.Errorf("bare-URL citation = %+v", result.Citations[0])
	}
	if result.Citations[1].Title != "AHA Statement" {
		t.Errorf("object citation = %+v", result.Citations[1])
	}
	if result.Citations[2].Title != "Source 3" {
		t.Errorf("untitled citation = %+v", result.Citations[2])
	}
}

func TestEvidenceAdapterGeneralMode(t *testing.T) {
	var gotReq perplexityRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "text"}}},
		})
	}))
	defer ts.Close()
	swapURL(t, &perplexityAPIURL, ts.URL)

	adapter := &EvidenceAdapter{APIKey: "k", Model: types.PerplexitySonarPro, Client: ts.Client()}
	if _, err := adapter.Search(context.Background(), "q"); err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotReq.Messages[0].Content != generalSystemPrompt {
		t.Errorf("system prompt = %q, want general prompt without medical focus", gotReq.Messages[0].Content)
	}
	if gotReq.DomainFilter != nil {
		t.Errorf("domain filter sent without medical focus: %v", gotReq.DomainFilter)
	}
	if gotReq.Temperature != 0.2 {
		t.Errorf("temperature = %v, want 0.2", gotReq.Temperature)
	}
}

func TestEvidenceAdapterErrors(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		adapter := &EvidenceAdapter{}
		if _, err := adapter.Search(context.Background(), "q"); err == nil {
			t.Fatal("want error without api key")
		}
	})

	t.Run("http error status", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "bad key", http.StatusForbidden)
		}))
		defer ts.Close()
		swapURL(t, &perplexityAPIURL, ts.URL)

		adapter := &EvidenceAdapter{APIKey: "k", Model: types.PerplexitySonarPro, Client: ts.Client()}
		if _, err := adapter.Search(context.Background(), "q"); err == nil {
			t.Fatal("want error for HTTP 403")
		}
	})

	t.Run("no choices", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
		}))
		defer ts.Close()
		swapURL(t, &perplexityAPIURL, ts.URL)

		adapter := &EvidenceAdapter{APIKey: "k", Model: types.PerplexitySonarPro, Client: ts.Client()}
		if _, err := adapter.Search(context.Background(), "q"); err == nil {
			t.Fatal("want error for empty choices")
		}
	})
}

func TestGuidelineAdapterSearch(t *testing.T) {
	var gotReq tavilyRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"answer": "Guidelines recommend gradual correction.",
			"results": []map[string]any{
				{"title": "2017 ACC/AHA Guideline", "url": "https://www.acc.org/guideline", "content": "Full guideline text."},
				{"url": "https://example.org/untitled"},
			},
		})
	}))
	defer ts.Close()
	swapURL(t, &tavilyAPIURL, ts.URL)

	adapter := &GuidelineAdapter{APIKey: "tvly-key", MaxResults: 5, MedicalFocus: true, Client: ts.Client()}
	result, err := adapter.Search(context.Background(), "hypertensive emergency")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotReq.APIKey != "tvly-key" {
		t.Error("api key not sent in body")
	}
	if gotReq.Query != "hypertensive emergency medical guidelines evidence-based" {
		t.Errorf("query = %q", gotReq.Query)
	}
	if gotReq.SearchDepth != "advanced" || !gotReq.IncludeAnswer {
		t.Errorf("request = %+v", gotReq)
	}
	if len(gotReq.IncludeDomains) != len(medicalDomains) {
		t.Errorf("include domains = %v", gotReq.IncludeDomains)
	}

	if result.Content != "Guidelines recommend gradual correction." {
		t.Errorf("content = %q", result.Content)
	}
	if len(result.Citations) != 2 {
		t.Fatalf("citations = %+v", result.Citations)
	}
	if result.Citations[0].Source != "www.acc.org" {
		t.Errorf("citation source = %q, want host", result.Citations[0].Source)
	}
	if result.Citations[1].Title != "Untitled" {
		t.Errorf("untitled fallback = %q", result.Citations[1].Title)
	}
}

func TestGuidelineAdapterSnippetFallback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"answer": "",
			"results": []map[string]any{
				{"title": "Result One", "url": "https://example.org/1", "content": "Snippet one."},
			},
		})
	}))
	defer ts.Close()
	swapURL(t, &tavilyAPIURL, ts.URL)

	adapter := &GuidelineAdapter{APIKey: "k", Client: ts.Client()}
	result, err := adapter.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if result.Content != "**Result One**\nSnippet one." {
		t.Errorf("content = %q", result.Content)
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rkaplan/lecture-composer/internal/httputil"
	"github.com/rkaplan/lecture-composer/pkg/types"
)

// tavilyAPIURL is the Tavily search endpoint. Var for test substitution.
var tavilyAPIURL = "https://api.tavily.com/search"

// GuidelineAdapter is the guideline search, backed by the Tavily API.
// The query is steered toward society guidelines by suffixing search
// terms rather than by a system prompt.
type GuidelineAdapter struct {
	APIKey       string
	MaxResults   int
	MedicalFocus bool
	UserAgent    string
	Client       *http.Client
}

// NewGuidelineAdapter builds the adapter from research configuration.
func NewGuidelineAdapter(cfg types.ResearchConfig) *GuidelineAdapter {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	return &GuidelineAdapter{
		APIKey:       cfg.TavilyAPIKey,
		MaxResults:   maxResults,
		MedicalFocus: cfg.MedicalFocus,
		UserAgent:    cfg.UserAgent,
		Client:       &http.Client{Timeout: cfg.TimeoutOrDefault()},
	}
}

// Source returns the adapter identifier.
func (a *GuidelineAdapter) Source() types.SourceID { return types.SourceGuideline }

// tavilyRequest is the search request body. Tavily authenticates via a
// body field rather than a header.
type tavilyRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	MaxResults     int      `json:"max_results"`
	IncludeAnswer  bool     `json:"include_answer"`
}

type tavilyResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search queries Tavily for guideline-oriented material on the topic.
func (a *GuidelineAdapter) Search(ctx context.Context, query string) (*types.ResearchResult, error) {
	if a.APIKey == "" {
		return nil, fmt.Errorf("tavily api key not configured")
	}

	reqBody := tavilyRequest{
		APIKey:        a.APIKey,
		Query:         query + " medical guidelines evidence-based",
		SearchDepth:   "advanced",
		MaxResults:    a.MaxResults,
		IncludeAnswer: true,
	}
	if a.MedicalFocus {
		reqBody.IncludeDomains = medicalDomains
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilyAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.UserAgent != "" {
		req.Header.Set("User-Agent", a.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, a.client(), req, 0)
	if err != nil {
		return nil, fmt.Errorf("tavily request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tavily returned HTTP %d: %s", resp.StatusCode, body)
	}

	var tResp tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&tResp); err != nil {
		return nil, fmt.Errorf("parsing tavily response: %w", err)
	}

	var citations []types.Citation
	for i, r := range tResp.Results {
		snippet := r.Content
		if len(snippet) > 300 {
			snippet = snippet[:300]
		}
		citations = append(citations, types.Citation{
			ID:      fmt.Sprintf("tavily-%d", i),
			Title:   firstNonEmpty(r.Title, "Untitled"),
			Source:  hostOf(r.URL, "Tavily"),
			URL:     r.URL,
			Snippet: snippet,
		})
	}

	content := tResp.Answer
	if content == "" && len(citations) > 0 {
		// No synthesized answer: fall back to snippets.
		var parts []string
		for _, c := range citations {
			parts = append(parts, fmt.Sprintf("**%s**\n%s", c.Title, c.Snippet))
		}
		content = strings.Join(parts, "\n\n---\n\n")
	}

	return &types.ResearchResult{
		Source:    types.SourceGuideline,
		Query:     query,
		Content:   content,
		KeyPoints: extractKeyPoints(content, 5),
		Citations: citations,
		Retrieved: time.Now(),
	}, nil
}

func (a *GuidelineAdapter) client() *http.Client {
	if a.Client != nil {
		return a.Client
	}
	return http.DefaultClient
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// hostOf extracts the host part of a URL, falling back when absent.
func hostOf(url, fallback string) string {
	parts := strings.SplitN(url, "/", 4)
	if len(parts) >= 3 && parts[2] != "" {
		return parts[2]
	}
	return fallback
}

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

	"go.uber.org/zap"

	"github.com/rkaplan/lecture-composer/pkg/types"
)

// Target selects one of the credential-gated institutional sources served
// by the scraper sidecar.
type Target string

const (
	TargetUpToDate Target = "uptodate"
	TargetMKSAP    Target = "mksap"
)

// SourceForTarget maps a sidecar target to its SourceID.
func SourceForTarget(t Target) types.SourceID {
	if t == TargetMKSAP {
		return types.SourceMKSAP
	}
	return types.SourceUpToDate
}

// HealthStatus reports the sidecar's reachability and per-target session
// state. Session flags live here, not inside adapters: callers read them
// from Health and pass them into searches explicitly.
type HealthStatus struct {
	Reachable        bool
	BrowserAvailable bool
	LoggedIn         map[Target]bool
}

// ScraperClient talks to the institutional scraper sidecar over HTTP.
type ScraperClient struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
}

// NewScraperClient builds a sidecar client from research configuration.
func NewScraperClient(cfg types.ResearchConfig) *ScraperClient {
	base := cfg.ScraperURL
	if base == "" {
		base = "http://localhost:8765"
	}
	return &ScraperClient{
		BaseURL:   strings.TrimSuffix(base, "/"),
		UserAgent: cfg.UserAgent,
		Client:    &http.Client{Timeout: cfg.TimeoutOrDefault()},
	}
}

// Health queries the sidecar's health endpoint. An unreachable sidecar is
// reported, not returned as an error.
func (c *ScraperClient) Health(ctx context.Context) HealthStatus {
	status := HealthStatus{LoggedIn: map[Target]bool{}}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return status
	}

	resp, err := c.client().Do(req)
	if err != nil {
		return status
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return status
	}

	var body struct {
		Status              string `json:"status"`
		PlaywrightAvailable bool   `json:"playwright_available"`
		UpToDateLoggedIn    bool   `json:"uptodate_logged_in"`
		MKSAPLoggedIn       bool   `json:"mksap_logged_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return status
	}

	status.Reachable = body.Status == "ok"
	status.BrowserAvailable = body.PlaywrightAvailable
	status.LoggedIn[TargetUpToDate] = body.UpToDateLoggedIn
	status.LoggedIn[TargetMKSAP] = body.MKSAPLoggedIn
	return status
}

// Login exchanges credentials for a sidecar session. Bad credentials
// return false without an error; transport problems return an error.
func (c *ScraperClient) Login(ctx context.Context, target Target, username, password string) (bool, error) {
	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
		"target":   string(target),
	})
	if err != nil {
		return false, fmt.Errorf("marshaling credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/login", bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client().Do(req)
	if err != nil {
		return false, fmt.Errorf("scraper login: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusUnauthorized:
		return false, nil
	default:
		return false, fmt.Errorf("scraper login returned HTTP %d", resp.StatusCode)
	}
}

// scraperSearchResponse mirrors the sidecar's normalized search payload.
type scraperSearchResponse struct {
	Provider  string `json:"provider"`
	Query     string `json:"query"`
	Content   string `json:"content"`
	Citations []struct {
		ID      string   `json:"id"`
		Title   string   `json:"title"`
		Authors []string `json:"authors"`
		Source  string   `json:"source"`
		Year    int      `json:"year"`
		URL     string   `json:"url"`
		PMID    string   `json:"pmid"`
		Snippet string   `json:"snippet"`
	} `json:"citations"`
}

// SearchTarget runs the sidecar's internal search for one target.
func (c *ScraperClient) SearchTarget(ctx context.Context, target Target, query string, maxResults int) (*types.ResearchResult, error) {
	body, err := json.Marshal(map[string]any{
		"query":       query,
		"max_results": maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/search/%s", c.BaseURL, target), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("scraper search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("scraper search returned HTTP %d: %s", resp.StatusCode, payload)
	}

	var sResp scraperSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sResp); err != nil {
		return nil, fmt.Errorf("parsing scraper response: %w", err)
	}

	result := &types.ResearchResult{
		Source:    SourceForTarget(target),
		Query:     query,
		Content:   sResp.Content,
		KeyPoints: extractKeyPoints(sResp.Content, 5),
		Retrieved: time.Now(),
	}
	for _, cit := range sResp.Citations {
		result.Citations = append(result.Citations, types.Citation{
			ID:      cit.ID,
			Title:   cit.Title,
			Authors: cit.Authors,
			Source:  cit.Source,
			Year:    cit.Year,
			URL:     cit.URL,
			PMID:    cit.PMID,
			Snippet: cit.Snippet,
		})
	}
	return result, nil
}

func (c *ScraperClient) client() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return http.DefaultClient
}

// thinContentThreshold is the content length below which an institutional
// result is deepened by fetching its first citation.
const thinContentThreshold = 500

// InstitutionalAdapter searches one credential-gated target through the
// sidecar. The LoggedIn flag is supplied by the caller from Health; the
// adapter never flips it behind the caller's back. When the flag is
// false, Search attempts one login and then issues the search regardless
// of the outcome: an unauthenticated search is allowed to fail on its
// own terms rather than being skipped.
type InstitutionalAdapter struct {
	Client     *ScraperClient
	Target     Target
	Username   string
	Password   string
	LoggedIn   bool
	MaxResults int

	// Fetcher deepens thin results via their first citation URL. Nil
	// disables deepening.
	Fetcher *PageFetcher

	// Logger records login attempts and failures. Nil disables logging.
	Logger *zap.Logger
}

// Source returns the adapter identifier.
func (a *InstitutionalAdapter) Source() types.SourceID { return SourceForTarget(a.Target) }

// Search runs the sidecar search for this target, logging in first when
// the caller-supplied session flag says there is no session.
func (a *InstitutionalAdapter) Search(ctx context.Context, query string) (*types.ResearchResult, error) {
	logger := a.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if !a.LoggedIn {
		ok, err := a.Client.Login(ctx, a.Target, a.Username, a.Password)
		switch {
		case err != nil:
			logger.Warn("institutional login errored, searching anyway",
				zap.String("target", string(a.Target)), zap.Error(err))
		case !ok:
			logger.Warn("institutional login rejected, searching anyway",
				zap.String("target", string(a.Target)))
		default:
			logger.Debug("institutional login succeeded",
				zap.String("target", string(a.Target)))
		}
	}

	maxResults := a.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}

	result, err := a.Client.SearchTarget(ctx, a.Target, query, maxResults)
	if err != nil {
		return nil, err
	}

	if a.Fetcher != nil && len(result.Content) < thinContentThreshold {
		a.deepen(ctx, result, logger)
	}
	return result, nil
}

// deepen fetches the first cited page and appends its normalized content.
// Deepening is best-effort: failures leave the thin result as-is.
func (a *InstitutionalAdapter) deepen(ctx context.Context, result *types.ResearchResult, logger *zap.Logger) {
	for _, c := range result.Citations {
		if c.URL == "" {
			continue
		}
		page, err := a.Fetcher.Fetch(ctx, c.URL)
		if err != nil {
			logger.Debug("citation deepening failed",
				zap.String("url", c.URL), zap.Error(err))
			return
		}
		result.Content = result.Content + "\n\n---\n\n" + page.Content
		result.KeyPoints = extractKeyPoints(result.Content, 5)
		return
	}
}

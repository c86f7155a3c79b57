// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rkaplan/lecture-composer/internal/httputil"
	"github.com/rkaplan/lecture-composer/pkg/types"
)

// pubmedAPIBase is the NCBI E-utilities base URL. Var for test substitution.
var pubmedAPIBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// PubMedAdapter is the literature index search. It uses the two-step
// E-utilities flow: esearch for PMIDs, then esummary for metadata. No
// API key is required.
type PubMedAdapter struct {
	MaxResults int
	UserAgent  string
	Client     *http.Client
}

// NewPubMedAdapter builds the adapter from research configuration.
func NewPubMedAdapter(cfg types.ResearchConfig) *PubMedAdapter {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}
	return &PubMedAdapter{
		MaxResults: maxResults,
		UserAgent:  cfg.UserAgent,
		Client:     &http.Client{Timeout: cfg.TimeoutOrDefault()},
	}
}

// Source returns the adapter identifier.
func (a *PubMedAdapter) Source() types.SourceID { return types.SourcePubMed }

// Search looks the topic up on PubMed and summarizes the top hits.
func (a *PubMedAdapter) Search(ctx context.Context, query string) (*types.ResearchResult, error) {
	ids, err := a.searchIDs(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no PubMed results for %q", query)
	}

	summaries, err := a.fetchSummaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	var citations []types.Citation
	var contentParts []string
	for _, pmid := range ids {
		article, ok := summaries[pmid]
		if !ok {
			continue
		}

		authors := article.authorNames(3)
		citations = append(citations, types.Citation{
			ID:      "pubmed-" + pmid,
			Title:   article.Title,
			Authors: authors,
			Source:  article.Source,
			Year:    article.year(),
			PMID:    pmid,
			URL:     fmt.Sprintf("https://pubmed.ncbi.nlm.nih.gov/%s/", pmid),
		})

		authorStr := ""
		if len(authors) > 0 {
			authorStr = strings.Join(authors, ", ") + " et al."
		}
		contentParts = append(contentParts,
			fmt.Sprintf("**%s**\n%s - %s (%s)", article.Title, authorStr, article.Source, article.PubDate))
	}

	content := strings.Join(contentParts, "\n\n")
	return &types.ResearchResult{
		Source:    types.SourcePubMed,
		Query:     query,
		Content:   content,
		KeyPoints: extractKeyPoints(content, 5),
		Citations: citations,
		Retrieved: time.Now(),
	}, nil
}

// searchIDs runs esearch and returns the matching PMIDs.
func (a *PubMedAdapter) searchIDs(ctx context.Context, query string) ([]string, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {query},
		"retmax":  {strconv.Itoa(a.MaxResults)},
		"retmode": {"json"},
	}

	var body struct {
		ESearchResult struct {
			IDList []string `json:"idlist"`
		} `json:"esearchresult"`
	}
	if err := a.getJSON(ctx, pubmedAPIBase+"/esearch.fcgi?"+params.Encode(), &body); err != nil {
		return nil, fmt.Errorf("pubmed esearch: %w", err)
	}
	return body.ESearchResult.IDList, nil
}

// pubmedArticle is the subset of esummary metadata the adapter reads.
type pubmedArticle struct {
	Title   string `json:"title"`
	Source  string `json:"source"`
	PubDate string `json:"pubdate"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
}

func (p pubmedArticle) authorNames(max int) []string {
	var names []string
	for _, a := range p.Authors {
		if a.Name == "" {
			continue
		}
		names = append(names, a.Name)
		if len(names) >= max {
			break
		}
	}
	return names
}

// year parses the leading year out of pubdate strings like "2024 Mar 14".
func (p pubmedArticle) year() int {
	fields := strings.Fields(p.PubDate)
	if len(fields) == 0 {
		return 0
	}
	y, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0
	}
	return y
}

// fetchSummaries runs esummary for the given PMIDs.
func (a *PubMedAdapter) fetchSummaries(ctx context.Context, ids []string) (map[string]pubmedArticle, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"json"},
	}

	// The result object is keyed by PMID alongside a "uids" list, so it
	// decodes as raw messages first.
	var body struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := a.getJSON(ctx, pubmedAPIBase+"/esummary.fcgi?"+params.Encode(), &body); err != nil {
		return nil, fmt.Errorf("pubmed esummary: %w", err)
	}

	summaries := make(map[string]pubmedArticle, len(ids))
	for _, pmid := range ids {
		raw, ok := body.Result[pmid]
		if !ok {
			continue
		}
		var article pubmedArticle
		if err := json.Unmarshal(raw, &article); err != nil {
			continue
		}
		summaries[pmid] = article
	}
	return summaries, nil
}

func (a *PubMedAdapter) getJSON(ctx context.Context, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if a.UserAgent != "" {
		req.Header.Set("User-Agent", a.UserAgent)
	}

	client := a.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

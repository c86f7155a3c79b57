// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rkaplan/lecture-composer/internal/httputil"
	"github.com/rkaplan/lecture-composer/pkg/types"
)

// perplexityAPIURL is the Perplexity chat completions endpoint. Declared
// as a var so tests can substitute an httptest server.
var perplexityAPIURL = "https://api.perplexity.ai/chat/completions"

// medicalDomains restricts evidence and guideline searches to trusted
// medical publishers when medical focus is on.
var medicalDomains = []string{
	"ncbi.nlm.nih.gov",
	"pubmed.ncbi.nlm.nih.gov",
	"uptodate.com",
	"nejm.org",
	"jamanetwork.com",
	"thelancet.com",
	"cochrane.org",
	"mayoclinic.org",
	"acponline.org",
}

// evidenceSystemPrompts maps each Perplexity model variant to its system
// prompt under medical focus.
var evidenceSystemPrompts = map[types.PerplexityModel]string{
	types.PerplexitySonarPro: "You are a medical education researcher. Provide comprehensive, evidence-based information " +
		"with specific citations. Focus on current guidelines, landmark studies, and clinical pearls. " +
		"Always cite sources with author, year, and journal/guideline name.",
	types.PerplexitySonarReasoningPro: "You are an expert clinical educator. Think through this medical topic step-by-step, " +
		"explaining your clinical reasoning. Consider differential diagnoses, pathophysiology, " +
		"and evidence-based management. Cite guidelines and landmark trials. Show your reasoning process.",
	types.PerplexitySonarDeepResearch: "You are a medical literature researcher conducting an exhaustive review. Synthesize " +
		"information from multiple high-quality sources including guidelines, systematic reviews, " +
		"and landmark trials. Provide a comprehensive analysis with extensive citations.",
}

const generalSystemPrompt = "You are a helpful research assistant."

// EvidenceAdapter is the general evidence search, backed by the
// Perplexity API.
type EvidenceAdapter struct {
	APIKey       string
	Model        types.PerplexityModel
	MedicalFocus bool
	UserAgent    string
	Client       *http.Client
}

// NewEvidenceAdapter builds the adapter from research configuration.
func NewEvidenceAdapter(cfg types.ResearchConfig) *EvidenceAdapter {
	model := cfg.PerplexityModel
	if model == "" {
		model = types.PerplexitySonarPro
	}
	return &EvidenceAdapter{
		APIKey:       cfg.PerplexityAPIKey,
		Model:        model,
		MedicalFocus: cfg.MedicalFocus,
		UserAgent:    cfg.UserAgent,
		Client:       &http.Client{Timeout: cfg.TimeoutOrDefault()},
	}
}

// Source returns the adapter identifier.
func (a *EvidenceAdapter) Source() types.SourceID { return types.SourceEvidence }

// perplexityRequest is the chat completions request body.
type perplexityRequest struct {
	Model           string              `json:"model"`
	Messages        []perplexityMessage `json:"messages"`
	Temperature     float64             `json:"temperature"`
	ReturnCitations bool                `json:"return_citations"`
	DomainFilter    []string            `json:"search_domain_filter,omitempty"`
}

type perplexityMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// perplexityResponse is the subset of the response the adapter reads.
// Citations arrive either as bare URL strings or as objects.
type perplexityResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Citations []json.RawMessage `json:"citations"`
}

// Search queries Perplexity for the topic.
func (a *EvidenceAdapter) Search(ctx context.Context, query string) (*types.ResearchResult, error) {
	if a.APIKey == "" {
		return nil, fmt.Errorf("perplexity api key not configured")
	}

	systemPrompt := generalSystemPrompt
	if a.MedicalFocus {
		if p, ok := evidenceSystemPrompts[a.Model]; ok {
			systemPrompt = p
		} else {
			systemPrompt = evidenceSystemPrompts[types.PerplexitySonarPro]
		}
	}

	temperature := 0.2
	if a.Model == types.PerplexitySonarReasoningPro {
		temperature = 0.1
	}

	reqBody := perplexityRequest{
		Model: string(a.Model),
		Messages: []perplexityMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: query},
		},
		Temperature:     temperature,
		ReturnCitations: true,
	}
	if a.MedicalFocus {
		reqBody.DomainFilter = medicalDomains
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, perplexityAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if a.UserAgent != "" {
		req.Header.Set("User-Agent", a.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, a.client(), req, 0)
	if err != nil {
		return nil, fmt.Errorf("perplexity request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("perplexity returned HTTP %d: %s", resp.StatusCode, body)
	}

	var pResp perplexityResponse
	if err := json.NewDecoder(resp.Body).Decode(&pResp); err != nil {
		return nil, fmt.Errorf("parsing perplexity response: %w", err)
	}

	if len(pResp.Choices) == 0 {
		return nil, fmt.Errorf("perplexity returned no choices")
	}
	content := pResp.Choices[0].Message.Content

	return &types.ResearchResult{
		Source:    types.SourceEvidence,
		Query:     query,
		Content:   content,
		KeyPoints: extractKeyPoints(content, 5),
		Citations: decodePerplexityCitations(pResp.Citations),
		Retrieved: time.Now(),
	}, nil
}

func (a *EvidenceAdapter) client() *http.Client {
	if a.Client != nil {
		return a.Client
	}
	return http.DefaultClient
}

// decodePerplexityCitations handles both citation shapes the API emits:
// bare URL strings and {title, url} objects.
func decodePerplexityCitations(raw []json.RawMessage) []types.Citation {
	var citations []types.Citation
	for i, r := range raw {
		c := types.Citation{
			ID:     fmt.Sprintf("pplx-%d", i),
			Source: "Perplexity",
		}

		var url string
		if err := json.Unmarshal(r, &url); err == nil {
			c.Title = url
			c.URL = url
			citations = append(citations, c)
			continue
		}

		var obj struct {
			Title string `json:"title"`
			URL   string `json:"url"`
		}
		if err := json.Unmarshal(r, &obj); err != nil {
			continue
		}
		c.Title = obj.Title
		if c.Title == "" {
			c.Title = fmt.Sprintf("Source %d", i+1)
		}
		c.URL = obj.URL
		citations = append(citations, c)
	}
	return citations
}

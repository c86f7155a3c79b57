// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rkaplan/lecture-composer/pkg/types"
)

// defaultOpenAIEndpoint is the chat completions URL for api.openai.com.
// Config may substitute any OpenAI-compatible gateway.
const defaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"

// OpenAIClient calls an OpenAI-compatible chat completions API.
type OpenAIClient struct {
	Endpoint string
	Model    string
	APIKey   string
	Client   *http.Client
}

// NewOpenAIClient builds a client from configuration.
func NewOpenAIClient(cfg types.AIConfig, timeout time.Duration) *OpenAIClient {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultOpenAIEndpoint
	}
	return &OpenAIClient{
		Endpoint: endpoint,
		Model:    cfg.Model,
		APIKey:   cfg.APIKey,
		Client:   &http.Client{Timeout: timeout},
	}
}

// Complete posts the prompt as a single user message and returns the first
// choice's content.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c.APIKey == "" || c.Model == "" {
		return "", fmt.Errorf("openai client misconfigured: model and api key required")
	}

	body, err := json.Marshal(map[string]any{
		"model": c.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling chat completions API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("chat completions error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var oResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&oResp); err != nil {
		return "", fmt.Errorf("decoding chat completions response: %w", err)
	}

	if len(oResp.Choices) == 0 || oResp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("chat completions API returned no content")
	}
	return oResp.Choices[0].Message.Content, nil
}

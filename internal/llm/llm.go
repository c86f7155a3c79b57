// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm abstracts the language model providers behind a single
// completion interface so generation stages and tests can swap backends.
package llm

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rkaplan/lecture-composer/pkg/types"
)

// Client completes a single prompt. Implementations are single-shot: no
// streaming, no conversation state.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// New builds a Client for the configured provider.
func New(cfg types.AIConfig, timeout time.Duration) (Client, error) {
	switch cfg.Provider {
	case "", "anthropic":
		return NewAnthropicClient(cfg, timeout), nil
	case "openai":
		return NewOpenAIClient(cfg, timeout), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q (known: anthropic, openai)", cfg.Provider)
	}
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// CompleteWithRetry calls the client with exponential backoff. Provider
// rate limits and transient 5xx errors surface as ordinary errors from
// Complete; each attempt after the first waits 2^(n-1) * backoffBase.
func CompleteWithRetry(ctx context.Context, c Client, prompt string, maxRetries int) (string, error) {
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		text, err := c.Complete(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/rkaplan/lecture-composer/internal/compose"
	"github.com/rkaplan/lecture-composer/internal/document"
	"github.com/rkaplan/lecture-composer/internal/llm"
	"github.com/rkaplan/lecture-composer/internal/research"
	"github.com/rkaplan/lecture-composer/pkg/types"
)

// researchConfig assembles the research stage configuration from config
// file, environment, and loaded secrets.
func researchConfig() types.ResearchConfig {
	cfg := types.ResearchConfig{
		MaxResults:          viper.GetInt("research.max_results"),
		PerplexityModel:     types.PerplexityModel(viper.GetString("research.perplexity_model")),
		PerplexityAPIKey:    secretDefault("perplexity-api-key", viper.GetString("research.perplexity_api_key")),
		TavilyAPIKey:        secretDefault("tavily-api-key", viper.GetString("research.tavily_api_key")),
		ScraperURL:          viper.GetString("research.scraper_url"),
		MedicalFocus:        true,
		DeepenInstitutional: true,
	}
	if viper.IsSet("research.medical_focus") {
		cfg.MedicalFocus = viper.GetBool("research.medical_focus")
	}
	if viper.IsSet("research.deepen_institutional") {
		cfg.DeepenInstitutional = viper.GetBool("research.deepen_institutional")
	}
	cfg.Timeout = viper.GetDuration("research.timeout")
	cfg.UserAgent = "lecture-composer/" + version
	return cfg
}

// composeConfig assembles the generation stage configuration.
func composeConfig(cmd *cobra.Command) types.ComposeConfig {
	model, _ := cmd.Flags().GetString("model")
	if model == "" {
		model = viper.GetString("compose.model")
	}

	provider := viper.GetString("compose.provider")
	apiKey := viper.GetString("compose.api_key")
	switch provider {
	case "openai":
		apiKey = secretDefault("openai-api-key", apiKey)
	default:
		apiKey = secretDefault("anthropic-api-key", apiKey)
	}

	return types.ComposeConfig{
		AIConfig: types.AIConfig{
			Provider:   provider,
			Model:      model,
			APIKey:     apiKey,
			Endpoint:   viper.GetString("compose.endpoint"),
			MaxRetries: viper.GetInt("compose.max_retries"),
		},
		MaxResearchChars:  viper.GetInt("compose.max_research_chars"),
		DefaultSlideCount: viper.GetInt("compose.default_slide_count"),
		QuestionCount:     viper.GetInt("compose.question_count"),
	}
}

// storeConfig assembles the document store configuration.
func storeConfig() types.StoreConfig {
	return types.StoreConfig{
		DataDir:    viper.GetString("store.data_dir"),
		MaxResults: viper.GetInt("store.max_results"),
	}
}

// openStore opens the document store.
func openStore() (*document.Store, error) {
	return document.NewStore(storeConfig())
}

// newGenerator builds the LLM-backed generator from configuration.
func newGenerator(cmd *cobra.Command) (*compose.Generator, error) {
	cfg := composeConfig(cmd)
	client, err := llm.New(cfg.AIConfig, 30*time.Second)
	if err != nil {
		return nil, err
	}
	return &compose.Generator{LLM: client, Cfg: cfg}, nil
}

// buildAdapters constructs research adapters for the selected sources.
// Institutional session flags come from one sidecar health probe shared
// across both targets.
func buildAdapters(ctx context.Context, cfg types.ResearchConfig, sources []types.SourceID, logger *zap.Logger) ([]research.Adapter, error) {
	scraper := research.NewScraperClient(cfg)

	var health research.HealthStatus
	needsScraper := false
	for _, s := range sources {
		if s == types.SourceUpToDate || s == types.SourceMKSAP {
			needsScraper = true
		}
	}
	if needsScraper {
		health = scraper.Health(ctx)
		if !health.Reachable {
			logger.Warn("scraper sidecar unreachable, institutional searches will likely fail",
				zap.String("url", cfg.ScraperURL))
		}
	}

	var fetcher *research.PageFetcher
	if cfg.DeepenInstitutional {
		fetcher = &research.PageFetcher{UserAgent: cfg.UserAgent}
	}

	institutional := func(target research.Target, userKey, passKey string) research.Adapter {
		return &research.InstitutionalAdapter{
			Client:     scraper,
			Target:     target,
			Username:   secretDefault(userKey, viper.GetString("research."+userKey)),
			Password:   secretDefault(passKey, viper.GetString("research."+passKey)),
			LoggedIn:   health.LoggedIn[target],
			MaxResults: cfg.MaxResults,
			Fetcher:    fetcher,
			Logger:     logger,
		}
	}

	var adapters []research.Adapter
	for _, s := range sources {
		switch s {
		case types.SourceEvidence:
			adapters = append(adapters, research.NewEvidenceAdapter(cfg))
		case types.SourceGuideline:
			adapters = append(adapters, research.NewGuidelineAdapter(cfg))
		case types.SourceUpToDate:
			adapters = append(adapters, institutional(research.TargetUpToDate, "uptodate-username", "uptodate-password"))
		case types.SourceMKSAP:
			adapters = append(adapters, institutional(research.TargetMKSAP, "mksap-username", "mksap-password"))
		case types.SourcePubMed:
			adapters = append(adapters, research.NewPubMedAdapter(cfg))
		default:
			return nil, fmt.Errorf("unknown research source %q", s)
		}
	}
	return adapters, nil
}

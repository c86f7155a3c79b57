package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the per-call request timeout (default 30s). Every adapter
	// and model call runs under this deadline; a timeout surfaces as an
	// ordinary transport error.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "lecture-composer/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// TimeoutOrDefault returns Timeout, falling back to 30 seconds.
func (c HTTPConfig) TimeoutOrDefault() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return 30 * time.Second
}

// AIConfig holds shared settings for stages that call a language model API.
type AIConfig struct {
	// Provider selects the model API: "anthropic" or "openai".
	Provider string `json:"provider" yaml:"provider"`

	// Model is the model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the model API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Endpoint overrides the provider's default API URL (OpenAI-compatible
	// gateways). Empty uses the provider default.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// PerplexityModel selects the evidence search model variant.
type PerplexityModel string

const (
	PerplexitySonarPro          PerplexityModel = "sonar-pro"
	PerplexitySonarReasoningPro PerplexityModel = "sonar-reasoning-pro"
	PerplexitySonarDeepResearch PerplexityModel = "sonar-deep-research"
)

// ResearchConfig holds settings for the research aggregation stage.
type ResearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults caps per-source result counts where a provider supports it
	// (default 5).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// PerplexityModel selects the evidence search variant (default sonar-pro).
	PerplexityModel PerplexityModel `json:"perplexity_model" yaml:"perplexity_model"`

	// PerplexityAPIKey authenticates the evidence search.
	PerplexityAPIKey string `json:"perplexity_api_key,omitempty" yaml:"perplexity_api_key,omitempty"`

	// TavilyAPIKey authenticates the guideline search.
	TavilyAPIKey string `json:"tavily_api_key,omitempty" yaml:"tavily_api_key,omitempty"`

	// ScraperURL is the base URL of the institutional scraper sidecar
	// (default "http://localhost:8765").
	ScraperURL string `json:"scraper_url" yaml:"scraper_url"`

	// MedicalFocus constrains searches to medical domains and prompts
	// (default true).
	MedicalFocus bool `json:"medical_focus" yaml:"medical_focus"`

	// DeepenInstitutional fetches and normalizes the first citation of a
	// thin institutional result (default true).
	DeepenInstitutional bool `json:"deepen_institutional" yaml:"deepen_institutional"`
}

// ComposeConfig holds settings for outline, question, and expansion generation.
type ComposeConfig struct {
	AIConfig `yaml:",inline"`

	// MaxResearchChars bounds how much of each research result's content
	// is embedded in a prompt (default 2000).
	MaxResearchChars int `json:"max_research_chars" yaml:"max_research_chars"`

	// DefaultSlideCount backfills outline items missing a slide estimate
	// (default 4).
	DefaultSlideCount int `json:"default_slide_count" yaml:"default_slide_count"`

	// QuestionCount is the target number of Socratic follow-ups per call
	// (default 5). Any non-empty parsed batch is accepted.
	QuestionCount int `json:"question_count" yaml:"question_count"`
}

// StoreConfig holds settings for the local document store.
type StoreConfig struct {
	// DataDir is the directory holding the SQLite database (default "data").
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// MaxResults is the default cap for section search queries (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Research ResearchConfig `json:"research" yaml:"research"`
	Compose  ComposeConfig  `json:"compose" yaml:"compose"`
	Store    StoreConfig    `json:"store" yaml:"store"`
}

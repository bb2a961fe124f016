// Package ai wires the assistant's model services together from the server
// profile. The heavy lifting lives in the subpackages; this package only
// holds the shared configuration glue.
package ai

import (
	"errors"

	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/core/embedding"
	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/core/llm"
	"github.com/dharmendra-verma/smartshop-ai-sub000/internal/profile"
)

// Config bundles the model-service configuration derived from the profile.
type Config struct {
	LLM       llm.Config
	Embedding embedding.Config
	Enabled   bool
}

// NewConfigFromProfile builds the AI configuration. Both services speak the
// OpenAI-compatible protocol and share one API key and base URL.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		Enabled: p.IsLLMEnabled(),
	}
	if !cfg.Enabled {
		return cfg
	}

	cfg.LLM = llm.Config{
		Model:       p.OpenAIModel,
		APIKey:      p.OpenAIAPIKey,
		BaseURL:     p.OpenAIBaseURL,
		MaxTokens:   2048,
		Temperature: 0.7,
	}

	cfg.Embedding = embedding.Config{
		Model:      p.EmbeddingModel,
		APIKey:     p.OpenAIAPIKey,
		BaseURL:    p.OpenAIBaseURL,
		Dimensions: p.EmbeddingDimension,
		MaxRetries: p.AgentMaxRetries,
	}

	return cfg
}

// Validate checks the configuration when AI features are enabled.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.LLM.APIKey == "" {
		return errors.New("LLM API key is required")
	}
	if c.LLM.Model == "" {
		return errors.New("LLM model is required")
	}
	if c.Embedding.Model == "" {
		return errors.New("embedding model is required")
	}
	if c.Embedding.Dimensions <= 0 {
		return errors.New("embedding dimensions must be positive")
	}
	return nil
}

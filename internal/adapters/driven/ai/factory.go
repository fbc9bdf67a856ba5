// Package ai builds the embedding and LLM adapters selected in settings.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/coursemate/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/coursemate/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/coursemate/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/coursemate/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/coursemate/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/coursemate/internal/core/domain"
	"github.com/custodia-labs/coursemate/internal/core/ports/driven"
)

// DefaultPingTimeout is the maximum time to wait for connectivity validation.
const DefaultPingTimeout = 5 * time.Second

// fixHint is appended to configuration errors.
const fixHint = "run 'coursemate settings show' to review the configuration"

// Services holds the AI adapters used to answer questions.
type Services struct {
	Embedding driven.EmbeddingService
	LLM       driven.LLMService
}

// Close releases all adapters.
func (s *Services) Close() {
	if s == nil {
		return
	}
	if s.Embedding != nil {
		s.Embedding.Close()
	}
	if s.LLM != nil {
		s.LLM.Close()
	}
}

// NewServices creates both adapters. Embeddings are required for every
// operation; the LLM is only needed to answer questions, so callers that
// only ingest or list courses pass needLLM false and get a nil LLM when it is
// not configured.
func NewServices(settings *domain.AppSettings, needLLM bool) (*Services, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: no settings", domain.ErrNotConfigured)
	}

	embedding, err := CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w; %s", domain.ErrEmbeddingUnavailable, err, fixHint)
	}
	if embedding == nil {
		return nil, fmt.Errorf("%w: embedding provider not configured; %s", domain.ErrNotConfigured, fixHint)
	}

	svc := &Services{Embedding: embedding}
	if !needLLM && !settings.LLM.IsConfigured() {
		return svc, nil
	}

	llm, err := CreateLLMService(&settings.LLM)
	if err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: %w; %s", domain.ErrLLMUnavailable, err, fixHint)
	}
	if llm == nil {
		svc.Close()
		env := settings.LLM.Provider.APIKeyEnv()
		if env != "" {
			return nil, fmt.Errorf("%w: LLM provider %s needs an API key (set %s); %s",
				domain.ErrNotConfigured, settings.LLM.Provider, env, fixHint)
		}
		return nil, fmt.Errorf("%w: LLM provider not configured; %s", domain.ErrNotConfigured, fixHint)
	}
	svc.LLM = llm
	return svc, nil
}

// ValidateEmbeddingConfig creates an embedding service and pings it.
// Unconfigured settings are not an error.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings, timeout time.Duration) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return ping(svc.Ping, timeout)
}

// ValidateLLMConfig creates an LLM service and pings it.
// Unconfigured settings are not an error.
func ValidateLLMConfig(settings *domain.LLMSettings, timeout time.Duration) error {
	svc, err := CreateLLMService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return ping(svc.Ping, timeout)
}

func ping(fn func(context.Context) error, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return fn(ctx)
}

// CreateEmbeddingService creates the embedding service selected in settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("anthropic does not support embeddings, use ollama or openai")
	case domain.AIProviderOllama, domain.AIProviderOpenAI:
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %q", settings.Provider)
	}

	if !settings.IsConfigured() {
		return nil, nil
	}

	dimensions := domain.EmbeddingDimensions()[settings.Model]
	if settings.Provider == domain.AIProviderOllama {
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:           settings.BaseURL,
			Model:             settings.Model,
			Dimensions:        dimensions,
			RequestsPerSecond: settings.RequestsPerSecond,
		}), nil
	}
	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:            settings.APIKey,
		BaseURL:           settings.BaseURL,
		Model:             settings.Model,
		Dimensions:        dimensions,
		RequestsPerSecond: settings.RequestsPerSecond,
	})
}

// CreateLLMService creates the LLM service selected in settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil {
		return nil, nil
	}
	if !settings.Provider.IsValid() {
		return nil, fmt.Errorf("unsupported LLM provider: %q", settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil
	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	default:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	}
}

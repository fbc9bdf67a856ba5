package driven

import "github.com/custodia-labs/coursemate/internal/core/domain"

// AIConfigValidator checks provider settings before the settings service
// persists them. An unconfigured section is not an error.
type AIConfigValidator interface {
	// ValidateEmbedding pings the embedding provider described by config.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM pings the chat model provider described by config.
	ValidateLLM(config *domain.LLMSettings) error
}

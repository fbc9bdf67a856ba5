package ai

import (
	"time"

	"github.com/custodia-labs/coursemate/internal/core/domain"
	"github.com/custodia-labs/coursemate/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator checks provider settings by pinging the provider.
// SettingsService uses it before persisting a provider change.
type ConfigValidator struct {
	timeout time.Duration
}

// NewConfigValidator creates a validator. A zero timeout uses DefaultPingTimeout.
func NewConfigValidator(timeout time.Duration) *ConfigValidator {
	return &ConfigValidator{timeout: timeout}
}

// ValidateEmbedding pings the embedding provider described by config.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	return ValidateEmbeddingConfig(config, v.timeout)
}

// ValidateLLM pings the LLM provider described by config.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	return ValidateLLMConfig(config, v.timeout)
}

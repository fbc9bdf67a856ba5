package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestAIProvider_IsValid tests recognised and unknown providers
func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		provider AIProvider
		expected bool
	}{
		{"ollama is valid", AIProviderOllama, true},
		{"openai is valid", AIProviderOpenAI, true},
		{"anthropic is valid", AIProviderAnthropic, true},
		{"empty is invalid", AIProvider(""), false},
		{"unknown is invalid", AIProvider("cohere"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.True(t, AIProviderAnthropic.RequiresAPIKey())
}

func TestAIProvider_APIKeyEnv(t *testing.T) {
	assert.Equal(t, "ANTHROPIC_API_KEY", AIProviderAnthropic.APIKeyEnv())
	assert.Equal(t, "OPENAI_API_KEY", AIProviderOpenAI.APIKeyEnv())
	assert.Empty(t, AIProviderOllama.APIKeyEnv())
}

func TestAIProvider_Description(t *testing.T) {
	assert.Equal(t, "Ollama (local)", AIProviderOllama.Description())
	assert.Equal(t, "Anthropic (cloud)", AIProviderAnthropic.Description())
	assert.Equal(t, "Unknown", AIProvider("x").Description())
}

// TestEmbeddingSettings_IsConfigured tests provider and key requirements
func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		expected bool
	}{
		{"ollama without key", EmbeddingSettings{Provider: AIProviderOllama}, true},
		{"openai without key", EmbeddingSettings{Provider: AIProviderOpenAI}, false},
		{"openai with key", EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "k"}, true},
		{"anthropic has no embeddings", EmbeddingSettings{Provider: AIProviderAnthropic, APIKey: "k"}, false},
		{"empty provider", EmbeddingSettings{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	assert.True(t, LLMSettings{Provider: AIProviderOllama}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderAnthropic}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderAnthropic, APIKey: "k"}.IsConfigured())
	assert.False(t, LLMSettings{}.IsConfigured())
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, AIProviderOllama, s.Embedding.Provider)
	assert.Equal(t, "all-minilm", s.Embedding.Model)
	assert.Equal(t, AIProviderAnthropic, s.LLM.Provider)
	assert.Equal(t, "claude-sonnet-4-20250514", s.LLM.Model)
	assert.Equal(t, 800, s.LLM.MaxTokens)
	assert.Zero(t, s.LLM.Temperature)
	assert.Equal(t, 800, s.RAG.ChunkSize)
	assert.Equal(t, 100, s.RAG.ChunkOverlap)
	assert.Equal(t, 5, s.RAG.MaxResults)
	assert.Equal(t, 2, s.RAG.MaxHistory)
	assert.Equal(t, 2, s.RAG.MaxToolRounds)
	assert.Zero(t, s.RAG.MaxResolveDistance)
}

func TestEmbeddingDimensions_DefaultModelsKnown(t *testing.T) {
	dims := EmbeddingDimensions()
	for _, model := range DefaultEmbeddingModels() {
		assert.Contains(t, dims, model)
	}
	assert.Equal(t, 384, dims["all-minilm"])
}

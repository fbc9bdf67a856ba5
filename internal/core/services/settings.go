package services

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/custodia-labs/coursemate/internal/core/domain"
	"github.com/custodia-labs/coursemate/internal/core/ports/driven"
	"github.com/custodia-labs/coursemate/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyEmbedRate        = "embedding.requests_per_second"
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyLLMMaxTokens     = "llm.max_tokens"
	keyLLMTemperature   = "llm.temperature"
	keyChunkSize        = "rag.chunk_size"
	keyChunkOverlap     = "rag.chunk_overlap"
	keyMaxResults       = "rag.max_results"
	keyMaxHistory       = "rag.max_history"
	keyMaxToolRounds    = "rag.max_tool_rounds"
	keyMaxResolveDist   = "rag.max_resolve_distance"
	defaultOllamaURL    = "http://localhost:11434"
	settingKindString   = "string"
	settingKindInt      = "int"
	settingKindFloat    = "float"
	settingKindProvider = "provider"
)

// settingKinds maps every key accepted by Set to its value type.
var settingKinds = map[string]string{
	keyEmbedProvider:  settingKindProvider,
	keyEmbedModel:     settingKindString,
	keyEmbedBaseURL:   settingKindString,
	keyEmbedAPIKey:    settingKindString,
	keyEmbedRate:      settingKindFloat,
	keyLLMProvider:    settingKindProvider,
	keyLLMModel:       settingKindString,
	keyLLMBaseURL:     settingKindString,
	keyLLMAPIKey:      settingKindString,
	keyLLMMaxTokens:   settingKindInt,
	keyLLMTemperature: settingKindFloat,
	keyChunkSize:      settingKindInt,
	keyChunkOverlap:   settingKindInt,
	keyMaxResults:     settingKindInt,
	keyMaxHistory:     settingKindInt,
	keyMaxToolRounds:  settingKindInt,
	keyMaxResolveDist: settingKindFloat,
}

// SettingsService manages application settings. Values come from the
// config store, falling back to defaults; API keys not in the config store
// are read from the provider's environment variable.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// SetEnvLookup replaces the environment lookup. Used by tests.
func (s *SettingsService) SetEnvLookup(getenv func(string) string) {
	s.getenv = getenv
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL),
			RequestsPerSecond: s.getFloat(keyEmbedRate, defaults.Embedding.RequestsPerSecond),
		},
		LLM: domain.LLMSettings{
			Provider:    s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			BaseURL:     s.configStore.GetString(keyLLMBaseURL),
			MaxTokens:   s.getInt(keyLLMMaxTokens, defaults.LLM.MaxTokens),
			Temperature: s.getFloat(keyLLMTemperature, defaults.LLM.Temperature),
		},
		RAG: domain.RAGSettings{
			ChunkSize:          s.getInt(keyChunkSize, defaults.RAG.ChunkSize),
			ChunkOverlap:       s.getInt(keyChunkOverlap, defaults.RAG.ChunkOverlap),
			MaxResults:         s.getInt(keyMaxResults, defaults.RAG.MaxResults),
			MaxHistory:         s.getInt(keyMaxHistory, defaults.RAG.MaxHistory),
			MaxToolRounds:      s.getInt(keyMaxToolRounds, defaults.RAG.MaxToolRounds),
			MaxResolveDistance: s.getFloat(keyMaxResolveDist, defaults.RAG.MaxResolveDistance),
		},
	}

	settings.Embedding.Model = s.getString(keyEmbedModel, domain.DefaultEmbeddingModels()[settings.Embedding.Provider])
	settings.LLM.Model = s.getString(keyLLMModel, domain.DefaultLLMModels()[settings.LLM.Provider])
	settings.Embedding.APIKey = s.apiKey(keyEmbedAPIKey, settings.Embedding.Provider)
	settings.LLM.APIKey = s.apiKey(keyLLMAPIKey, settings.LLM.Provider)

	return settings, nil
}

// Save persists application settings. API keys are only written when set
// and differ from the environment, so keys supplied by the environment stay
// out of the config file.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key string
		val any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedRate, settings.Embedding.RequestsPerSecond},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMMaxTokens, settings.LLM.MaxTokens},
		{keyLLMTemperature, settings.LLM.Temperature},
		{keyChunkSize, settings.RAG.ChunkSize},
		{keyChunkOverlap, settings.RAG.ChunkOverlap},
		{keyMaxResults, settings.RAG.MaxResults},
		{keyMaxHistory, settings.RAG.MaxHistory},
		{keyMaxToolRounds, settings.RAG.MaxToolRounds},
		{keyMaxResolveDist, settings.RAG.MaxResolveDistance},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.val); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if err := s.saveAPIKey(keyEmbedAPIKey, settings.Embedding.Provider, settings.Embedding.APIKey); err != nil {
		return err
	}
	return s.saveAPIKey(keyLLMAPIKey, settings.LLM.Provider, settings.LLM.APIKey)
}

func (s *SettingsService) saveAPIKey(key string, provider domain.AIProvider, apiKey string) error {
	if apiKey == "" {
		return nil
	}
	if env := provider.APIKeyEnv(); env != "" && s.getenv(env) == apiKey {
		return nil
	}
	if err := s.configStore.Set(key, apiKey); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns the config keys accepted by Set, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Set updates one setting by key.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	value = strings.TrimSpace(value)

	var parsed any
	switch kind {
	case settingKindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case settingKindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, key)
		}
		parsed = f
	case settingKindProvider:
		p := domain.AIProvider(value)
		if !p.IsValid() {
			return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, value)
		}
		if key == keyEmbedProvider && !slices.Contains(domain.AllEmbeddingProviders(), p) {
			return fmt.Errorf("provider %s does not support embeddings", p)
		}
		parsed = value
	default:
		parsed = value
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	if apiKey == "" && provider == settings.Embedding.Provider {
		apiKey = settings.Embedding.APIKey
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	if apiKey == "" && provider == settings.LLM.Provider {
		apiKey = settings.LLM.APIKey
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

func modelOrDefault(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}

// baseURLFor keeps a custom URL for local providers and clears it for cloud
// providers.
func baseURLFor(provider domain.AIProvider, current string) string {
	if !provider.IsLocal() {
		return ""
	}
	if current == "" {
		return defaultOllamaURL
	}
	return current
}

// Validate checks that the configured providers and tuning values are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %q is not configured", settings.Embedding.Provider)
	}
	if !settings.LLM.IsConfigured() {
		if env := settings.LLM.Provider.APIKeyEnv(); env != "" {
			return fmt.Errorf("LLM provider %q is not configured: set %s or llm.api_key", settings.LLM.Provider, env)
		}
		return fmt.Errorf("LLM provider %q is not configured", settings.LLM.Provider)
	}
	if settings.RAG.ChunkSize <= 0 {
		return fmt.Errorf("%w: rag.chunk_size must be positive", domain.ErrInvalidInput)
	}
	if settings.RAG.ChunkOverlap >= settings.RAG.ChunkSize {
		return fmt.Errorf("%w: rag.chunk_overlap must be smaller than rag.chunk_size", domain.ErrInvalidInput)
	}
	if settings.RAG.MaxResults <= 0 {
		return fmt.Errorf("%w: rag.max_results must be positive", domain.ErrInvalidInput)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) apiKey(key string, provider domain.AIProvider) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	if env := provider.APIKeyEnv(); env != "" && s.getenv != nil {
		return s.getenv(env)
	}
	return ""
}

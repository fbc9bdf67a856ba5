package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyQuery indicates a question with no text.
	ErrEmptyQuery = errors.New("query is required")

	// ErrUnsupportedType indicates an unknown provider or file type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrNotConfigured indicates a required service is missing.
	ErrNotConfigured = errors.New("not configured")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Questions cannot be answered without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Semantic search and course name resolution are disabled without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrToolNotFound indicates a tool name that is not registered.
	ErrToolNotFound = errors.New("tool not found")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

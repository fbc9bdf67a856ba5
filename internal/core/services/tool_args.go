package services

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/custodia-labs/coursemate/internal/core/domain"
)

// Tool inputs arrive as decoded JSON, so numbers may be float64 or
// json.Number and models occasionally quote them.

func requiredString(input map[string]any, key string) (string, error) {
	s, err := optionalString(input, key)
	if err != nil {
		return "", err
	}
	if s == nil || strings.TrimSpace(*s) == "" {
		return "", fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, key)
	}
	return *s, nil
}

// presentString requires key to be set but accepts an empty value.
func presentString(input map[string]any, key string) (string, error) {
	s, err := optionalString(input, key)
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, key)
	}
	return *s, nil
}

func optionalString(input map[string]any, key string) (*string, error) {
	v, ok := input[key]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a string, got %T", domain.ErrInvalidInput, key, v)
	}
	return &s, nil
}

func optionalInt(input map[string]any, key string) (*int, error) {
	v, ok := input[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch n := v.(type) {
	case int:
		return &n, nil
	case int64:
		i := int(n)
		return &i, nil
	case float64:
		if n != math.Trunc(n) {
			return nil, fmt.Errorf("%w: %s must be an integer, got %v", domain.ErrInvalidInput, key, n)
		}
		i := int(n)
		return &i, nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be an integer: %v", domain.ErrInvalidInput, key, err)
		}
		out := int(i)
		return &out, nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be an integer, got %q", domain.ErrInvalidInput, key, n)
		}
		return &i, nil
	}
	return nil, fmt.Errorf("%w: %s must be an integer, got %T", domain.ErrInvalidInput, key, v)
}

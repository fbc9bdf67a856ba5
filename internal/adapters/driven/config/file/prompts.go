package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/coursemate/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
//
// The question template has an embedded default that is written to disk on
// first use. The system prompt has no file until the user creates one: its
// built-in default depends on the configured tool-round budget and lives with
// the response generator, so a missing system.txt reports os.ErrNotExist and
// callers fall back.
//
// Initialisation is lazy. The constructor performs no I/O.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains the prompts that are seeded on disk.
var defaultPrompts = map[string]string{
	driven.PromptQuestion: `Answer this question about course materials: %s`,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.coursemate/prompts/.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".coursemate", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name, preferring the file
// on disk over the embedded default.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)

	s.mu.RLock()
	prompt, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return prompt, nil
	}

	prompt, err := s.loadFromFile(name)
	if err != nil {
		if fallback, ok := defaultPrompts[name]; ok {
			return fallback, nil
		}
		if s.initErr != nil {
			return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory, default files and README.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range defaultPrompts {
		if err := writeIfMissing(filepath.Join(s.promptDir, name+".txt"), content); err != nil {
			s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
			return
		}
	}

	if err := writeIfMissing(filepath.Join(s.promptDir, "README.md"), readme); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk. Blank files count as missing.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.promptDir, name+".txt"))
	if err != nil {
		return "", err
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", os.ErrNotExist
	}
	return prompt, nil
}

func writeIfMissing(path, content string) error {
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return os.WriteFile(path, []byte(content), 0600)
}

const readme = `# Coursemate Prompts

This directory contains customisable prompts used when answering questions.

## Files

- ` + "`question.txt`" + ` - Wraps each question before it is sent to the model.
  Must contain exactly one ` + "`%s`" + ` placeholder for the question.
- ` + "`system.txt`" + ` - Optional. Replaces the built-in system prompt. Create it
  to change how the assistant uses its tools and formats answers.

## Customisation

Edit any file to customise behaviour. Changes take effect on the next
command or after restarting the server.
`

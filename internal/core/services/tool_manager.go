package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/coursemate/internal/core/domain"
	"github.com/custodia-labs/coursemate/internal/core/ports/driving"
	"github.com/custodia-labs/coursemate/internal/logger"
)

// Ensure ToolManager implements the interface.
var _ driving.ToolService = (*ToolManager)(nil)

// ToolExecutor dispatches a tool call by name.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, input map[string]any) (domain.ToolOutput, error)
}

// ToolManager is a registry of tools keyed by their declared name.
//
// It also tracks the sources produced by tools since the last ResetSources:
// the deduplicated union across every executed tool, in execution order.
type ToolManager struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	order   []string
	sources []domain.Source
	seen    map[string]struct{}
}

// NewToolManager creates a registry holding the given tools.
func NewToolManager(tools ...Tool) *ToolManager {
	m := &ToolManager{
		tools: make(map[string]Tool),
		seen:  make(map[string]struct{}),
	}
	for _, t := range tools {
		// Construction-time tools are known to be well formed.
		_ = m.Register(t)
	}
	return m
}

// Register indexes a tool by its definition name. Registering a name again
// replaces the tool but keeps its original position.
func (m *ToolManager) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("%w: nil tool", domain.ErrInvalidInput)
	}
	name := tool.Definition().Name
	if name == "" {
		return fmt.Errorf("%w: tool must have a name", domain.ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.tools[name]; !exists {
		m.order = append(m.order, name)
	}
	m.tools[name] = tool
	return nil
}

// Definitions returns all tool definitions in registration order.
func (m *ToolManager) Definitions() []domain.ToolDefinition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	defs := make([]domain.ToolDefinition, 0, len(m.order))
	for _, name := range m.order {
		defs = append(defs, m.tools[name].Definition())
	}
	return defs
}

// Execute runs the named tool. An unknown name yields the text
// "Tool '<name>' not found" and no error.
func (m *ToolManager) Execute(ctx context.Context, name string, input map[string]any) (domain.ToolOutput, error) {
	m.mu.RLock()
	tool, ok := m.tools[name]
	m.mu.RUnlock()

	if !ok {
		logger.Warn("Unknown tool %q", name)
		return domain.ToolOutput{Text: fmt.Sprintf("Tool '%s' not found", name)}, nil
	}

	logger.Debug("Executing tool %s with %v", name, input)
	out, err := tool.Execute(ctx, input)
	if err != nil {
		return out, err
	}

	m.recordSources(out.Sources)
	return out, nil
}

func (m *ToolManager) recordSources(sources []domain.Source) {
	if len(sources) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range sources {
		key := sourceIdentity(s)
		if _, dup := m.seen[key]; dup {
			continue
		}
		m.seen[key] = struct{}{}
		m.sources = append(m.sources, s)
	}
}

// LastSources returns the sources recorded since the last reset.
func (m *ToolManager) LastSources() []domain.Source {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Source, len(m.sources))
	copy(out, m.sources)
	return out
}

// ResetSources clears the recorded sources.
func (m *ToolManager) ResetSources() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources = nil
	m.seen = make(map[string]struct{})
}

func sourceIdentity(s domain.Source) string {
	if s.URL == nil {
		return s.Display + "\x00"
	}
	return s.Display + "\x00" + *s.URL
}

// MergeSources appends the sources in add that are not already in dst.
func MergeSources(dst, add []domain.Source) []domain.Source {
	seen := make(map[string]struct{}, len(dst)+len(add))
	for _, s := range dst {
		seen[sourceIdentity(s)] = struct{}{}
	}
	for _, s := range add {
		key := sourceIdentity(s)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		dst = append(dst, s)
	}
	return dst
}

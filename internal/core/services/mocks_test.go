package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/coursemate/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/coursemate/internal/core/domain"
	"github.com/custodia-labs/coursemate/internal/core/ports/driven"
)

// --- Mock implementations ---

const mockEmbeddingDims = 512

// mockEmbeddingService implements driven.EmbeddingService with a bag-of-words
// embedding: every distinct lower-cased word gets its own dimension, so
// cosine distance reflects shared vocabulary exactly.
type mockEmbeddingService struct {
	mu         sync.Mutex
	vocab      map[string]int
	embedErr   error
	batchCalls int

	// failBatches makes the next n EmbedBatch calls return embedErr.
	failBatches int
}

func newMockEmbeddingService() *mockEmbeddingService {
	return &mockEmbeddingService{vocab: make(map[string]int)}
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batchCalls++
	if m.failBatches > 0 {
		m.failBatches--
		m.mu.Unlock()
		return nil, errors.New("embedding backend unavailable")
	}
	m.mu.Unlock()
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = m.vector(text)
	}
	return out, nil
}

func (m *mockEmbeddingService) vector(text string) []float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	vec := make([]float32, mockEmbeddingDims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		idx, ok := m.vocab[w]
		if !ok {
			idx = len(m.vocab) % mockEmbeddingDims
			m.vocab[w] = idx
		}
		vec[idx]++
	}
	return vec
}

func (m *mockEmbeddingService) Dimensions() int {
	return mockEmbeddingDims
}

func (m *mockEmbeddingService) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return nil
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

// mockLLMService implements driven.LLMService by replaying scripted
// responses. The last response repeats once the script runs out.
type mockLLMService struct {
	responses []*driven.MessageResponse
	err       error
	errAt     int
	requests  []driven.MessageRequest
}

func (m *mockLLMService) CreateMessage(_ context.Context, req driven.MessageRequest) (*driven.MessageResponse, error) {
	m.requests = append(m.requests, req)
	n := len(m.requests)
	if m.err != nil && (m.errAt == 0 || m.errAt == n) {
		return nil, m.err
	}
	if len(m.responses) == 0 {
		return textResponse(""), nil
	}
	if n > len(m.responses) {
		return m.responses[len(m.responses)-1], nil
	}
	return m.responses[n-1], nil
}

func (m *mockLLMService) ModelName() string {
	return "mock-llm"
}

func (m *mockLLMService) Ping(_ context.Context) error {
	return nil
}

func (m *mockLLMService) Close() error {
	return nil
}

func textResponse(text string) *driven.MessageResponse {
	return &driven.MessageResponse{
		StopReason: domain.StopEndTurn,
		Content:    []domain.ContentBlock{domain.TextBlock(text)},
	}
}

func toolResponse(id, name string, input map[string]any) *driven.MessageResponse {
	return &driven.MessageResponse{
		StopReason: domain.StopToolUse,
		Content:    []domain.ContentBlock{domain.ToolUseBlock(id, name, input)},
	}
}

// mockCollection wraps a memory collection and can fail on demand.
type mockCollection struct {
	*memory.Collection
	queryErr    error
	upsertCalls int
}

func newMockCollection(name string) *mockCollection {
	return &mockCollection{Collection: memory.NewCollection(name)}
}

func (m *mockCollection) Upsert(ctx context.Context, records []driven.VectorRecord) error {
	m.upsertCalls++
	return m.Collection.Upsert(ctx, records)
}

func (m *mockCollection) Query(ctx context.Context, q driven.VectorQuery) (*domain.QueryResult, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.Collection.Query(ctx, q)
}

// mockTool implements Tool with a canned output.
type mockTool struct {
	name   string
	output domain.ToolOutput
	err    error
	inputs []map[string]any
}

func (m *mockTool) Definition() domain.ToolDefinition {
	return domain.ToolDefinition{
		Name:        m.name,
		Description: "mock tool " + m.name,
		InputSchema: domain.ToolSchema{Properties: map[string]domain.ToolProperty{}},
	}
}

func (m *mockTool) Execute(_ context.Context, input map[string]any) (domain.ToolOutput, error) {
	m.inputs = append(m.inputs, input)
	return m.output, m.err
}

var errBoom = errors.New("boom")

// --- Test fixtures ---

func mcpCourse() domain.Course {
	return domain.Course{
		Title:      "Introduction to MCP",
		CourseLink: "https://example.com/mcp",
		Instructor: "Elie Schoppik",
		Lessons: []domain.Lesson{
			{Number: 1, Title: "Why MCP", Link: "https://example.com/mcp/1"},
			{Number: 2, Title: "MCP Architecture"},
			{Number: 3, Title: "Building an MCP Server", Link: "https://example.com/mcp/3"},
		},
	}
}

func chromaCourse() domain.Course {
	return domain.Course{
		Title:      "Advanced Retrieval for AI with Chroma",
		CourseLink: "https://example.com/chroma",
		Instructor: "Anton Troynikov",
		Lessons: []domain.Lesson{
			{Number: 1, Title: "Overview of embeddings-based retrieval", Link: "https://example.com/chroma/1"},
		},
	}
}

type testVectorStore struct {
	store    *VectorStore
	catalog  *mockCollection
	content  *mockCollection
	embedder *mockEmbeddingService
}

func newTestVectorStore(t *testing.T, opts ...VectorStoreOption) *testVectorStore {
	t.Helper()
	tvs := &testVectorStore{
		catalog:  newMockCollection(driven.CollectionCatalog),
		content:  newMockCollection(driven.CollectionContent),
		embedder: newMockEmbeddingService(),
	}
	tvs.store = NewVectorStore(tvs.catalog, tvs.content, tvs.embedder, opts...)
	return tvs
}

// seed stores the MCP and Chroma courses with a few chunks each.
func (tvs *testVectorStore) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, tvs.store.AddCourseMetadata(ctx, mcpCourse()))
	require.NoError(t, tvs.store.AddCourseMetadata(ctx, chromaCourse()))
	require.NoError(t, tvs.store.AddCourseContent(ctx, []domain.CourseChunk{
		{Content: "MCP is a protocol that connects models to tools and data", CourseTitle: "Introduction to MCP", LessonNumber: domain.IntPtr(1), ChunkIndex: 0},
		{Content: "The MCP architecture has clients and servers", CourseTitle: "Introduction to MCP", LessonNumber: domain.IntPtr(2), ChunkIndex: 1},
		{Content: "Embeddings based retrieval finds documents near the query", CourseTitle: "Advanced Retrieval for AI with Chroma", LessonNumber: domain.IntPtr(1), ChunkIndex: 0},
	}))
}

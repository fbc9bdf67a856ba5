package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/coursemate/internal/adapters/driven/ai"
	"github.com/custodia-labs/coursemate/internal/adapters/driving/cli"
	"github.com/custodia-labs/coursemate/internal/core/domain"
	"github.com/custodia-labs/coursemate/internal/core/ports/driven"
)

const courseDoc = `Course Title: Building Towards Computer Use
Course Link: https://example.com/computer-use
Course Instructor: Colt Steele

Lesson 1: Overview
Lesson Link: https://example.com/computer-use/1
Computer use lets a model drive a desktop through screenshots and clicks.

Lesson 2: Tool Calling
Lesson Link: https://example.com/computer-use/2
Tool calling lets the model request actions that the application runs.
`

// letterEmbedder embeds text as normalised letter counts, which is enough
// for nearest neighbour tests.
type letterEmbedder struct{}

func (letterEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 26)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			vec[r-'a']++
		}
	}
	return vec, nil
}

func (e letterEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = e.Embed(ctx, t) //nolint:errcheck // never fails
	}
	return out, nil
}

func (letterEmbedder) Dimensions() int            { return 26 }
func (letterEmbedder) ModelName() string          { return "letters" }
func (letterEmbedder) Ping(context.Context) error { return nil }
func (letterEmbedder) Close() error               { return nil }

// scriptedLLM searches once and then answers.
type scriptedLLM struct {
	mu       sync.Mutex
	requests []driven.MessageRequest
}

func (m *scriptedLLM) CreateMessage(_ context.Context, req driven.MessageRequest) (*driven.MessageResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)

	if len(m.requests) == 1 {
		return &driven.MessageResponse{
			StopReason: domain.StopToolUse,
			Content: []domain.ContentBlock{
				domain.ToolUseBlock("call_1", "search_course_content", map[string]any{
					"query":         "tool calling",
					"course_name":   "computer use",
					"lesson_number": float64(2),
				}),
			},
		}, nil
	}
	return &driven.MessageResponse{
		StopReason: domain.StopEndTurn,
		Content:    []domain.ContentBlock{domain.TextBlock("Lesson 2 covers tool calling.")},
	}, nil
}

func (m *scriptedLLM) ModelName() string          { return "scripted" }
func (m *scriptedLLM) Ping(context.Context) error { return nil }
func (m *scriptedLLM) Close() error               { return nil }

func newTestServices(t *testing.T, llm driven.LLMService) *cli.Services {
	t.Helper()

	settings := domain.DefaultAppSettings()
	store, err := openStorage(cli.Options{Ephemeral: true}, settings.RAG.MaxHistory)
	require.NoError(t, err)

	out := &cli.Services{}
	assembleServices(out, &settings, &ai.Services{Embedding: letterEmbedder{}, LLM: llm}, store, nil)
	return out
}

func writeCourse(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "course1_script.txt"), []byte(courseDoc), 0o600))
	return dir
}

func TestAssembleServices_EndToEnd(t *testing.T) {
	llm := &scriptedLLM{}
	svc := newTestServices(t, llm)
	ctx := context.Background()

	report, err := svc.Ingest.IngestDirectory(ctx, writeCourse(t), false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Courses)
	assert.Positive(t, report.Chunks)

	analytics, err := svc.Query.CourseAnalytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Building Towards Computer Use"}, analytics.CourseTitles)

	answer, err := svc.Query.Query(ctx, "What is lesson 2 about?", "")
	require.NoError(t, err)
	assert.Equal(t, "Lesson 2 covers tool calling.", answer.Answer)
	assert.NotEmpty(t, answer.SessionID)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "Building Towards Computer Use - Lesson 2", answer.Sources[0].Display)
	require.NotNil(t, answer.Sources[0].URL)
	assert.Equal(t, "https://example.com/computer-use/2", *answer.Sources[0].URL)

	require.Len(t, llm.requests, 2)
	assert.True(t, llm.requests[0].HasTools())
}

func TestAssembleServices_WithoutLLM(t *testing.T) {
	svc := newTestServices(t, nil)
	ctx := context.Background()

	_, err := svc.Ingest.IngestDirectory(ctx, writeCourse(t), false)
	require.NoError(t, err)

	course, err := svc.Query.CourseOutline(ctx, "computer")
	require.NoError(t, err)
	assert.Equal(t, "Colt Steele", course.Instructor)
	assert.Len(t, course.Lessons, 2)

	_, err = svc.Query.Query(ctx, "hello", "")
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestAssembleServices_ToolsAreSeparateFromQuery(t *testing.T) {
	svc := newTestServices(t, nil)

	names := make([]string, 0, 2)
	for _, def := range svc.Tools.Definitions() {
		names = append(names, def.Name)
	}

	assert.Equal(t, []string{"search_course_content", "get_course_outline"}, names)
	assert.Contains(t, svc.Extensions, ".txt")
	assert.Contains(t, svc.Extensions, ".docx")
}

func TestOpenStorage_SQLite(t *testing.T) {
	dir := t.TempDir()

	store, err := openStorage(cli.Options{DataDir: dir}, 2)
	require.NoError(t, err)
	defer store.close() //nolint:errcheck // test cleanup

	assert.FileExists(t, filepath.Join(dir, "coursemate.db"))
	assert.NotNil(t, store.catalog)
	assert.NotNil(t, store.content)
	assert.NotNil(t, store.sessions)
}

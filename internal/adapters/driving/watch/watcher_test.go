package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/coursemate/internal/core/domain"
)

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	mu    sync.Mutex
	paths []string
}

func (m *mockIngestService) IngestFile(_ context.Context, path string) (*domain.IngestReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths = append(m.paths, path)
	return &domain.IngestReport{Courses: 1, Chunks: 3}, nil
}

func (m *mockIngestService) IngestDirectory(_ context.Context, _ string, _ bool) (*domain.IngestReport, error) {
	return &domain.IngestReport{}, nil
}

func (m *mockIngestService) ClearAll(_ context.Context) error {
	return nil
}

func (m *mockIngestService) ingested() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.paths))
	copy(out, m.paths)
	return out
}

var testExtensions = []string{".txt", ".md"}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{".hidden.txt", true},
		{"/courses/.drafts/course.txt", true},
		{"/courses/course.txt", false},
		{"course.v2.txt", false},
		{"../courses/course.txt", false},
		{".", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, isHidden(tt.path))
		})
	}
}

func TestHandleFsEvent(t *testing.T) {
	dir := t.TempDir()
	course := filepath.Join(dir, "course1.txt")
	require.NoError(t, os.WriteFile(course, []byte("Course Title: A"), 0o600))
	pdf := filepath.Join(dir, "course.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF"), 0o600))
	hidden := filepath.Join(dir, ".course.txt")
	require.NoError(t, os.WriteFile(hidden, []byte("x"), 0o600))
	sub := filepath.Join(dir, "sub.txt")
	require.NoError(t, os.Mkdir(sub, 0o755))

	w := New(&mockIngestService{}, dir, testExtensions)

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{name: "create", event: fsnotify.Event{Name: course, Op: fsnotify.Create}, want: true},
		{name: "write", event: fsnotify.Event{Name: course, Op: fsnotify.Write}, want: true},
		{name: "write and chmod", event: fsnotify.Event{Name: course, Op: fsnotify.Write | fsnotify.Chmod}, want: true},
		{name: "chmod only", event: fsnotify.Event{Name: course, Op: fsnotify.Chmod}},
		{name: "remove", event: fsnotify.Event{Name: course, Op: fsnotify.Remove}},
		{name: "unsupported extension", event: fsnotify.Event{Name: pdf, Op: fsnotify.Create}},
		{name: "hidden file", event: fsnotify.Event{Name: hidden, Op: fsnotify.Create}},
		{name: "directory", event: fsnotify.Event{Name: sub, Op: fsnotify.Create}},
		{name: "vanished file", event: fsnotify.Event{Name: filepath.Join(dir, "gone.txt"), Op: fsnotify.Create}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, ok := w.handleFsEvent(tt.event)
			assert.Equal(t, tt.want, ok)
			if tt.want {
				assert.Equal(t, tt.event.Name, path)
			}
		})
	}
}

func TestHandleFsEvent_HiddenAncestor(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".coursemate", "docs")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	course := filepath.Join(dir, "course1.txt")
	require.NoError(t, os.WriteFile(course, []byte("Course Title: A"), 0o600))
	draft := filepath.Join(dir, ".draft.txt")
	require.NoError(t, os.WriteFile(draft, []byte("x"), 0o600))

	w := New(&mockIngestService{}, dir, testExtensions)

	path, ok := w.handleFsEvent(fsnotify.Event{Name: course, Op: fsnotify.Create})
	assert.True(t, ok)
	assert.Equal(t, course, path)

	_, ok = w.handleFsEvent(fsnotify.Event{Name: draft, Op: fsnotify.Create})
	assert.False(t, ok)
}

func TestWatcher_DebouncesRepeatedWrites(t *testing.T) {
	ingest := &mockIngestService{}
	w := New(ingest, t.TempDir(), testExtensions, WithDebounce(50*time.Millisecond))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		w.schedule(ctx, "/courses/a.txt")
	}
	w.schedule(ctx, "/courses/b.txt")

	assert.Eventually(t, func() bool {
		return len(ingest.ingested()) == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []string{"/courses/a.txt", "/courses/b.txt"}, ingest.ingested())
}

func TestWatcher_Run(t *testing.T) {
	t.Run("ingests a new course file", func(t *testing.T) {
		dir := t.TempDir()
		ingest := &mockIngestService{}
		reports := make(chan string, 4)
		w := New(ingest, dir, testExtensions,
			WithDebounce(20*time.Millisecond),
			WithReportFunc(func(path string, report *domain.IngestReport, err error) {
				assert.NoError(t, err)
				assert.Equal(t, 1, report.Courses)
				reports <- path
			}),
		)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- w.Run(ctx) }()

		// Give the watcher time to register the directory.
		time.Sleep(100 * time.Millisecond)
		path := filepath.Join(dir, "course4.txt")
		require.NoError(t, os.WriteFile(path, []byte("Course Title: New"), 0o600))

		select {
		case got := <-reports:
			assert.Equal(t, path, got)
		case <-time.After(5 * time.Second):
			t.Fatal("file was not ingested")
		}

		cancel()
		assert.NoError(t, <-done)
	})

	t.Run("missing directory", func(t *testing.T) {
		w := New(&mockIngestService{}, filepath.Join(t.TempDir(), "missing"), testExtensions)
		assert.Error(t, w.Run(context.Background()))
	})

	t.Run("file instead of directory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "course.txt")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

		w := New(&mockIngestService{}, file, testExtensions)
		assert.ErrorIs(t, w.Run(context.Background()), ErrNotDirectory)
	})
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/coursemate/internal/core/domain"
	"github.com/custodia-labs/coursemate/internal/core/ports/driven"
	"github.com/custodia-labs/coursemate/internal/core/ports/driving"
	"github.com/custodia-labs/coursemate/internal/logger"
)

// Ensure VectorStore implements the interface.
var _ driving.SearchService = (*VectorStore)(nil)

// CourseIndex is the part of VectorStore the course tools depend on.
type CourseIndex interface {
	Search(ctx context.Context, query string, opts domain.SearchOptions) domain.SearchResults
	ResolveCourseName(ctx context.Context, name string) (string, bool)
	GetCourse(ctx context.Context, title string) (*domain.Course, error)
	GetCourseLink(ctx context.Context, title string) *string
	GetLessonLink(ctx context.Context, title string, lessonNumber int) *string
}

var _ CourseIndex = (*VectorStore)(nil)

// VectorStore owns the course catalog and course content collections.
// The catalog holds one record per course, keyed and embedded by title, and
// is used to resolve fuzzy course names. The content collection holds the
// chunks that questions are answered from.
type VectorStore struct {
	catalog  driven.VectorCollection
	content  driven.VectorCollection
	embedder driven.EmbeddingService

	maxResults         int
	maxResolveDistance float64
}

// VectorStoreOption configures a VectorStore.
type VectorStoreOption func(*VectorStore)

// WithMaxResults sets the number of chunks returned per search.
func WithMaxResults(n int) VectorStoreOption {
	return func(s *VectorStore) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// WithMaxResolveDistance rejects course name matches whose cosine distance
// exceeds d. Zero, the default, accepts the nearest course unconditionally.
func WithMaxResolveDistance(d float64) VectorStoreOption {
	return func(s *VectorStore) {
		if d >= 0 {
			s.maxResolveDistance = d
		}
	}
}

// NewVectorStore creates a vector store over the two collections.
func NewVectorStore(
	catalog, content driven.VectorCollection,
	embedder driven.EmbeddingService,
	opts ...VectorStoreOption,
) *VectorStore {
	s := &VectorStore{
		catalog:    catalog,
		content:    content,
		embedder:   embedder,
		maxResults: domain.DefaultMaxResults,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxResults returns the per-search result limit.
func (s *VectorStore) MaxResults() int {
	return s.maxResults
}

// Search finds the chunks closest to query. A course name is resolved to a
// catalog title first; failures are reported through SearchResults.Error and
// never as a Go error.
func (s *VectorStore) Search(ctx context.Context, query string, opts domain.SearchOptions) domain.SearchResults {
	logger.Section("Course Search")
	logger.Debug("Query: %q", query)

	var courseTitle *string
	if opts.CourseName != nil && *opts.CourseName != "" {
		title, ok := s.ResolveCourseName(ctx, *opts.CourseName)
		if !ok {
			logger.Info("No course matches %q", *opts.CourseName)
			return domain.EmptySearchResults(fmt.Sprintf("No course found matching '%s'", *opts.CourseName))
		}
		courseTitle = &title
	}

	filter := BuildFilter(courseTitle, opts.LessonNumber)
	logger.Debug("Filter: %v", filter.Map())

	embedding, err := s.embed(ctx, query)
	if err != nil {
		return searchError(err)
	}

	raw, err := s.content.Query(ctx, driven.VectorQuery{
		Embeddings: [][]float32{embedding},
		NResults:   s.maxResults,
		Where:      filter,
	})
	if err != nil {
		return searchError(err)
	}

	results, err := domain.SearchResultsFromQuery(raw)
	if err != nil {
		return searchError(err)
	}

	logger.Debug("Search returned %d chunks", results.Len())
	return results
}

func searchError(err error) domain.SearchResults {
	logger.Warn("Search failed: %v", err)
	return domain.EmptySearchResults("Search error: " + err.Error())
}

// BuildFilter composes the content filter from an optional resolved course
// title and an optional lesson number.
func BuildFilter(courseTitle *string, lessonNumber *int) *domain.Filter {
	var course, lesson *domain.Filter
	if courseTitle != nil {
		course = domain.Eq(domain.MetaCourseTitle, *courseTitle)
	}
	if lessonNumber != nil {
		lesson = domain.Eq(domain.MetaLessonNumber, *lessonNumber)
	}
	return domain.AllOf(course, lesson)
}

// ResolveCourseName maps a free-text course name to the closest catalog
// title with a single top-1 lookup. It reports false when the catalog is
// empty, the lookup fails, or the best match is farther than the configured
// maximum distance.
func (s *VectorStore) ResolveCourseName(ctx context.Context, name string) (string, bool) {
	embedding, err := s.embed(ctx, name)
	if err != nil {
		logger.Warn("Resolve %q: %v", name, err)
		return "", false
	}

	raw, err := s.catalog.Query(ctx, driven.VectorQuery{
		Embeddings: [][]float32{embedding},
		NResults:   1,
	})
	if err != nil {
		logger.Warn("Resolve %q: %v", name, err)
		return "", false
	}

	res, err := domain.SearchResultsFromQuery(raw)
	if err != nil || res.IsEmpty() {
		return "", false
	}

	if s.maxResolveDistance > 0 && res.Distances[0] > s.maxResolveDistance {
		logger.Info("Closest course to %q is %.3f away, over the %.3f limit",
			name, res.Distances[0], s.maxResolveDistance)
		return "", false
	}

	title := res.Metadata[0].String(domain.MetaTitle)
	if title == "" {
		title = res.Documents[0]
	}
	logger.Debug("Resolved %q to %q (distance %.3f)", name, title, res.Distances[0])
	return title, true
}

// AddCourseMetadata upserts the catalog entry for a course.
func (s *VectorStore) AddCourseMetadata(ctx context.Context, course domain.Course) error {
	if err := course.Validate(); err != nil {
		return fmt.Errorf("add course %q: %w", course.Title, err)
	}

	lessonsJSON, err := domain.MarshalLessons(course.Lessons)
	if err != nil {
		return fmt.Errorf("add course %q: encode lessons: %w", course.Title, err)
	}

	embedding, err := s.embed(ctx, course.Title)
	if err != nil {
		return fmt.Errorf("add course %q: %w", course.Title, err)
	}

	record := driven.VectorRecord{
		ID:       course.Title,
		Document: course.Title,
		Metadata: domain.Metadata{
			domain.MetaTitle:       course.Title,
			domain.MetaInstructor:  course.Instructor,
			domain.MetaCourseLink:  course.CourseLink,
			domain.MetaLessonsJSON: lessonsJSON,
			domain.MetaLessonCount: len(course.Lessons),
		},
		Embedding: embedding,
	}

	if err := s.catalog.Upsert(ctx, []driven.VectorRecord{record}); err != nil {
		return fmt.Errorf("add course %q: %w", course.Title, err)
	}
	return nil
}

// AddCourseContent embeds and upserts chunks. An empty slice is a no-op.
func (s *VectorStore) AddCourseContent(ctx context.Context, chunks []domain.CourseChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}

	if s.embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}
	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embed chunks: got %d embeddings for %d chunks", len(embeddings), len(chunks))
	}

	records := make([]driven.VectorRecord, len(chunks))
	for i, c := range chunks {
		meta := domain.Metadata{
			domain.MetaCourseTitle: c.CourseTitle,
			domain.MetaChunkIndex:  c.ChunkIndex,
		}
		if c.LessonNumber != nil {
			meta[domain.MetaLessonNumber] = *c.LessonNumber
		}
		records[i] = driven.VectorRecord{
			ID:        c.ID(),
			Document:  c.Content,
			Metadata:  meta,
			Embedding: embeddings[i],
		}
	}

	if err := s.content.Upsert(ctx, records); err != nil {
		return fmt.Errorf("store chunks: %w", err)
	}
	logger.Debug("Stored %d chunks", len(records))
	return nil
}

// GetCourse rebuilds a course from its catalog entry.
// Returns domain.ErrNotFound if the title is not in the catalog.
func (s *VectorStore) GetCourse(ctx context.Context, title string) (*domain.Course, error) {
	records, err := s.catalog.Get(ctx, []string{title})
	if err != nil {
		return nil, fmt.Errorf("get course %q: %w", title, err)
	}
	if len(records) == 0 {
		return nil, domain.ErrNotFound
	}

	meta := records[0].Metadata
	lessons, err := domain.UnmarshalLessons(meta.String(domain.MetaLessonsJSON))
	if err != nil {
		return nil, fmt.Errorf("get course %q: decode lessons: %w", title, err)
	}

	course := &domain.Course{
		Title:      meta.String(domain.MetaTitle),
		CourseLink: meta.String(domain.MetaCourseLink),
		Instructor: meta.String(domain.MetaInstructor),
		Lessons:    lessons,
	}
	if course.Title == "" {
		course.Title = records[0].ID
	}
	return course, nil
}

// GetCourseLink returns the course URL, or nil when the course or its link
// is missing.
func (s *VectorStore) GetCourseLink(ctx context.Context, title string) *string {
	course, err := s.GetCourse(ctx, title)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Course link for %q: %v", title, err)
		}
		return nil
	}
	if course.CourseLink == "" {
		return nil
	}
	return &course.CourseLink
}

// GetLessonLink returns the URL of one lesson, or nil when the course, the
// lesson, or its link is missing.
func (s *VectorStore) GetLessonLink(ctx context.Context, title string, lessonNumber int) *string {
	course, err := s.GetCourse(ctx, title)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Lesson link for %q lesson %d: %v", title, lessonNumber, err)
		}
		return nil
	}
	lesson, ok := course.Lesson(lessonNumber)
	if !ok || lesson.Link == "" {
		return nil
	}
	return &lesson.Link
}

// GetCourseCount returns the number of catalog entries.
func (s *VectorStore) GetCourseCount(ctx context.Context) (int, error) {
	n, err := s.catalog.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return n, nil
}

// GetExistingCourseTitles returns every catalog title in insertion order.
func (s *VectorStore) GetExistingCourseTitles(ctx context.Context) ([]string, error) {
	ids, err := s.catalog.IDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// ClearAllData empties both collections.
func (s *VectorStore) ClearAllData(ctx context.Context) error {
	if err := s.catalog.Clear(ctx); err != nil {
		return fmt.Errorf("clear catalog: %w", err)
	}
	if err := s.content.Clear(ctx); err != nil {
		return fmt.Errorf("clear content: %w", err)
	}
	return nil
}

func (s *VectorStore) embed(ctx context.Context, text string) ([]float32, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty text", domain.ErrInvalidInput)
	}
	return s.embedder.Embed(ctx, text)
}

package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/custodia-labs/coursemate/internal/core/domain"
	"github.com/custodia-labs/coursemate/internal/core/ports/driven"
	"github.com/custodia-labs/coursemate/internal/core/ports/driving"
	"github.com/custodia-labs/coursemate/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService parses course documents and stores them in the vector store.
// Courses whose title is already in the catalog are skipped.
type IngestService struct {
	store  *VectorStore
	parser driven.CourseParser
}

// NewIngestService creates an ingestion service.
func NewIngestService(store *VectorStore, parser driven.CourseParser) *IngestService {
	return &IngestService{store: store, parser: parser}
}

// Supports reports whether path has an extension the parser accepts.
func (s *IngestService) Supports(path string) bool {
	if s.parser == nil {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(s.parser.SupportedExtensions(), ext)
}

// IngestFile parses and stores a single course document.
func (s *IngestService) IngestFile(ctx context.Context, path string) (*domain.IngestReport, error) {
	if s.parser == nil {
		return nil, fmt.Errorf("ingest: parser %w", domain.ErrNotConfigured)
	}
	if !s.Supports(path) {
		return nil, fmt.Errorf("ingest %s: %w", path, domain.ErrUnsupportedType)
	}

	existing, err := s.existingTitles(ctx)
	if err != nil {
		return nil, err
	}

	report := &domain.IngestReport{}
	if err := s.ingest(ctx, path, existing, report); err != nil {
		return nil, err
	}
	return report, nil
}

// IngestDirectory stores every supported document directly inside dir.
// Files that fail to parse or store are recorded in the report and do not
// stop the run.
func (s *IngestService) IngestDirectory(ctx context.Context, dir string, clear bool) (*domain.IngestReport, error) {
	if s.parser == nil {
		return nil, fmt.Errorf("ingest: parser %w", domain.ErrNotConfigured)
	}
	defer logger.Timed("ingest " + dir)()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", dir, err)
	}

	if clear {
		logger.Info("Clearing existing course data")
		if err := s.store.ClearAllData(ctx); err != nil {
			return nil, fmt.Errorf("ingest: %w", err)
		}
	}

	existing, err := s.existingTitles(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !s.Supports(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	report := &domain.IngestReport{}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		path := filepath.Join(dir, name)
		if err := s.ingest(ctx, path, existing, report); err != nil {
			logger.Warn("Ingest %s: %v", path, err)
			if report.Failed == nil {
				report.Failed = make(map[string]string)
			}
			report.Failed[path] = err.Error()
		}
	}

	logger.Info("Ingested %d courses with %d chunks", report.Courses, report.Chunks)
	return report, nil
}

func (s *IngestService) ingest(ctx context.Context, path string, existing map[string]struct{}, report *domain.IngestReport) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	parsed, err := s.parser.Parse(filepath.Base(path), data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	title := parsed.Course.Title
	if _, ok := existing[title]; ok {
		logger.Debug("Course %q already stored, skipping", title)
		report.Skipped = append(report.Skipped, title)
		return nil
	}

	// The catalog entry is written last: it marks the course as stored, and
	// chunk IDs are stable, so a failed run is repaired by ingesting again.
	if err := s.store.AddCourseContent(ctx, parsed.Chunks); err != nil {
		return err
	}
	if err := s.store.AddCourseMetadata(ctx, parsed.Course); err != nil {
		return err
	}

	existing[title] = struct{}{}
	report.Courses++
	report.Chunks += len(parsed.Chunks)
	logger.Debug("Stored %q with %d chunks", title, len(parsed.Chunks))
	return nil
}

func (s *IngestService) existingTitles(ctx context.Context) (map[string]struct{}, error) {
	titles, err := s.store.GetExistingCourseTitles(ctx)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	set := make(map[string]struct{}, len(titles))
	for _, t := range titles {
		set[t] = struct{}{}
	}
	return set, nil
}

// ClearAll removes every course and chunk.
func (s *IngestService) ClearAll(ctx context.Context) error {
	return s.store.ClearAllData(ctx)
}

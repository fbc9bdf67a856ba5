package driving

import (
	"context"

	"github.com/custodia-labs/coursemate/internal/core/domain"
)

// IngestService loads course documents into the catalog and content index.
type IngestService interface {
	// IngestFile parses and stores a single course document.
	IngestFile(ctx context.Context, path string) (*domain.IngestReport, error)

	// IngestDirectory stores every supported document in dir. When clear is
	// true both collections are emptied first.
	IngestDirectory(ctx context.Context, dir string, clear bool) (*domain.IngestReport, error)

	// ClearAll removes every course and chunk.
	ClearAll(ctx context.Context) error
}

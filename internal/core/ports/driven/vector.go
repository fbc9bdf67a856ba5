package driven

import (
	"context"

	"github.com/custodia-labs/coursemate/internal/core/domain"
)

// VectorRecord is a stored document with its embedding and metadata.
type VectorRecord struct {
	ID        string
	Document  string
	Metadata  domain.Metadata
	Embedding []float32
}

// VectorQuery searches a collection with one or more query embeddings.
type VectorQuery struct {
	// Embeddings holds one vector per query row.
	Embeddings [][]float32

	// NResults is the maximum number of hits per row.
	NResults int

	// Where restricts candidates by metadata. Nil means unrestricted.
	Where *domain.Filter
}

// VectorCollection is a named set of embedded documents supporting
// similarity search. The course catalog and the course content are each
// stored in their own collection.
type VectorCollection interface {
	// Name returns the collection name.
	Name() string

	// Upsert inserts records or replaces records with the same ID.
	Upsert(ctx context.Context, records []VectorRecord) error

	// Query returns, per query embedding, the closest records ordered by
	// ascending cosine distance.
	Query(ctx context.Context, q VectorQuery) (*domain.QueryResult, error)

	// Get returns the records with the given IDs. Unknown IDs are skipped.
	// Returned records do not carry embeddings.
	Get(ctx context.Context, ids []string) ([]VectorRecord, error)

	// IDs returns every record ID in insertion order.
	IDs(ctx context.Context) ([]string, error)

	// Count returns the number of records.
	Count(ctx context.Context) (int, error)

	// Clear removes all records.
	Clear(ctx context.Context) error
}

// Well-known collection names.
const (
	CollectionCatalog = "course_catalog"
	CollectionContent = "course_content"
)

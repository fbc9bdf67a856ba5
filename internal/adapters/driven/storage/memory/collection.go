package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/custodia-labs/coursemate/internal/adapters/driven/storage/vecindex"
	"github.com/custodia-labs/coursemate/internal/core/domain"
	"github.com/custodia-labs/coursemate/internal/core/ports/driven"
)

// Ensure Collection implements the interface.
var _ driven.VectorCollection = (*Collection)(nil)

// Collection is an in-memory implementation of driven.VectorCollection.
// Queries are an exact cosine scan over every record matching the filter.
type Collection struct {
	mu      sync.RWMutex
	name    string
	records map[string]vecindex.Candidate
	order   []string
}

// NewCollection creates an empty in-memory collection.
func NewCollection(name string) *Collection {
	return &Collection{
		name:    name,
		records: make(map[string]vecindex.Candidate),
	}
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// Upsert inserts records or replaces records with the same ID. A replaced
// record keeps its original position.
func (c *Collection) Upsert(_ context.Context, records []driven.VectorRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range records {
		if _, exists := c.records[r.ID]; !exists {
			c.order = append(c.order, r.ID)
		}
		c.records[r.ID] = vecindex.Candidate{
			ID:        r.ID,
			Document:  r.Document,
			Metadata:  maps.Clone(r.Metadata),
			Embedding: append([]float32(nil), r.Embedding...),
		}
	}
	return nil
}

// Query returns the closest records per query embedding.
func (c *Collection) Query(ctx context.Context, q driven.VectorQuery) (*domain.QueryResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	candidates := make([]vecindex.Candidate, 0, len(c.order))
	for _, id := range c.order {
		rec := c.records[id]
		if q.Where.Matches(rec.Metadata) {
			candidates = append(candidates, rec)
		}
	}
	c.mu.RUnlock()

	return vecindex.Query(q.Embeddings, candidates, q.NResults), nil
}

// Get returns the records with the given IDs, skipping unknown IDs.
func (c *Collection) Get(_ context.Context, ids []string) ([]driven.VectorRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]driven.VectorRecord, 0, len(ids))
	for _, id := range ids {
		rec, ok := c.records[id]
		if !ok {
			continue
		}
		out = append(out, driven.VectorRecord{
			ID:       rec.ID,
			Document: rec.Document,
			Metadata: maps.Clone(rec.Metadata),
		})
	}
	return out, nil
}

// IDs returns every record ID in insertion order.
func (c *Collection) IDs(_ context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string{}, c.order...), nil
}

// Count returns the number of records.
func (c *Collection) Count(_ context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records), nil
}

// Clear removes all records.
func (c *Collection) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = make(map[string]vecindex.Candidate)
	c.order = nil
	return nil
}

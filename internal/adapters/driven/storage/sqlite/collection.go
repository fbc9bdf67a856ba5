package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/coursemate/internal/adapters/driven/storage/vecindex"
	"github.com/custodia-labs/coursemate/internal/core/domain"
	"github.com/custodia-labs/coursemate/internal/core/ports/driven"
)

// collection implements driven.VectorCollection over the vector_records
// table. Metadata filters run in SQL via json_extract; ranking is an exact
// cosine scan of the remaining rows.
type collection struct {
	store *Store
	name  string
}

var _ driven.VectorCollection = (*collection)(nil)

// Name returns the collection name.
func (c *collection) Name() string {
	return c.name
}

// Upsert inserts records or replaces records with the same ID. A replaced
// record keeps its original position.
func (c *collection) Upsert(ctx context.Context, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vector_records (collection, id, document, metadata, embedding)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			document = excluded.document,
			metadata = excluded.metadata,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		meta := r.Metadata
		if meta == nil {
			meta = domain.Metadata{}
		}
		metaJSON, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("marshalling metadata for %s: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, c.name, r.ID, r.Document, string(metaJSON), vecindex.Encode(r.Embedding)); err != nil {
			return fmt.Errorf("upserting %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing upsert: %w", err)
	}
	return nil
}

// Query returns the closest records per query embedding.
func (c *collection) Query(ctx context.Context, q driven.VectorQuery) (*domain.QueryResult, error) {
	where, args := whereClause(q.Where)
	query := `SELECT id, document, metadata, embedding FROM vector_records WHERE collection = ?` + where + ` ORDER BY seq`

	rows, err := c.store.db.QueryContext(ctx, query, append([]any{c.name}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", c.name, err)
	}
	defer rows.Close()

	var candidates []vecindex.Candidate
	for rows.Next() {
		var (
			cand     vecindex.Candidate
			metaJSON string
			blob     []byte
		)
		if err := rows.Scan(&cand.ID, &cand.Document, &metaJSON, &blob); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", c.name, err)
		}
		if cand.Metadata, err = decodeMetadata(metaJSON); err != nil {
			return nil, fmt.Errorf("decoding metadata for %s: %w", cand.ID, err)
		}
		if cand.Embedding, err = vecindex.Decode(blob); err != nil {
			return nil, fmt.Errorf("decoding embedding for %s: %w", cand.ID, err)
		}
		candidates = append(candidates, cand)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", c.name, err)
	}

	return vecindex.Query(q.Embeddings, candidates, q.NResults), nil
}

// whereClause renders a filter's equality predicates as json_extract
// comparisons. A nil filter adds nothing.
func whereClause(f *domain.Filter) (string, []any) {
	preds := f.Predicates()
	if len(preds) == 0 {
		return "", nil
	}
	var b strings.Builder
	args := make([]any, 0, 2*len(preds))
	for _, p := range preds {
		b.WriteString(" AND json_extract(metadata, ?) = ?")
		args = append(args, "$."+p.Field, p.Value)
	}
	return b.String(), args
}

// Get returns the records with the given IDs, in the order requested.
// Unknown IDs are skipped.
func (c *collection) Get(ctx context.Context, ids []string) ([]driven.VectorRecord, error) {
	if len(ids) == 0 {
		return []driven.VectorRecord{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, c.name)
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := c.store.db.QueryContext(ctx,
		`SELECT id, document, metadata FROM vector_records WHERE collection = ? AND id IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("getting from %s: %w", c.name, err)
	}
	defer rows.Close()

	found := make(map[string]driven.VectorRecord, len(ids))
	for rows.Next() {
		var (
			rec      driven.VectorRecord
			metaJSON string
		)
		if err := rows.Scan(&rec.ID, &rec.Document, &metaJSON); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", c.name, err)
		}
		if rec.Metadata, err = decodeMetadata(metaJSON); err != nil {
			return nil, fmt.Errorf("decoding metadata for %s: %w", rec.ID, err)
		}
		found[rec.ID] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", c.name, err)
	}

	out := make([]driven.VectorRecord, 0, len(found))
	for _, id := range ids {
		if rec, ok := found[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// IDs returns every record ID in insertion order.
func (c *collection) IDs(ctx context.Context) ([]string, error) {
	rows, err := c.store.db.QueryContext(ctx,
		`SELECT id FROM vector_records WHERE collection = ? ORDER BY seq`, c.name)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", c.name, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", c.name, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", c.name, err)
	}
	return ids, nil
}

// Count returns the number of records.
func (c *collection) Count(ctx context.Context) (int, error) {
	var n int
	err := c.store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vector_records WHERE collection = ?`, c.name).Scan(&n)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("counting %s: %w", c.name, err)
	}
	return n, nil
}

// Clear removes all records.
func (c *collection) Clear(ctx context.Context) error {
	if _, err := c.store.db.ExecContext(ctx, `DELETE FROM vector_records WHERE collection = ?`, c.name); err != nil {
		return fmt.Errorf("clearing %s: %w", c.name, err)
	}
	return nil
}

// decodeMetadata parses stored metadata. Whole numbers come back as int so
// they compare equal to the values that were stored.
func decodeMetadata(raw string) (domain.Metadata, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var meta domain.Metadata
	if err := dec.Decode(&meta); err != nil {
		return nil, err
	}
	for k, v := range meta {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		if i, err := n.Int64(); err == nil {
			meta[k] = int(i)
		} else if f, err := n.Float64(); err == nil {
			meta[k] = f
		}
	}
	if meta == nil {
		meta = domain.Metadata{}
	}
	return meta, nil
}

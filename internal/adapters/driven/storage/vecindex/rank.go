package vecindex

import (
	"sort"

	"github.com/custodia-labs/coursemate/internal/core/domain"
)

// Candidate is a stored record considered by a scan.
type Candidate struct {
	ID        string
	Document  string
	Metadata  domain.Metadata
	Embedding []float32
}

// Hit is a ranked candidate.
type Hit struct {
	Candidate
	Distance float64
}

// Rank returns up to k candidates closest to query by cosine distance.
// Candidates are expected in insertion order; ties keep that order.
// Candidates whose dimension differs from the query are skipped.
func Rank(query []float32, candidates []Candidate, k int) []Hit {
	hits := make([]Hit, 0, len(candidates))
	for _, c := range candidates {
		d, err := CosineDistance(query, c.Embedding)
		if err != nil {
			continue
		}
		hits = append(hits, Hit{Candidate: c, Distance: d})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if k > 0 && k < len(hits) {
		hits = hits[:k]
	}
	return hits
}

// Query ranks candidates once per query embedding and assembles the batched
// result. Every row is non-nil, so an empty collection yields empty rows.
func Query(embeddings [][]float32, candidates []Candidate, k int) *domain.QueryResult {
	res := &domain.QueryResult{
		IDs:       make([][]string, len(embeddings)),
		Documents: make([][]string, len(embeddings)),
		Metadatas: make([][]domain.Metadata, len(embeddings)),
		Distances: make([][]float64, len(embeddings)),
	}
	for row, q := range embeddings {
		hits := Rank(q, candidates, k)
		res.IDs[row] = make([]string, len(hits))
		res.Documents[row] = make([]string, len(hits))
		res.Metadatas[row] = make([]domain.Metadata, len(hits))
		res.Distances[row] = make([]float64, len(hits))
		for i, h := range hits {
			res.IDs[row][i] = h.ID
			res.Documents[row][i] = h.Document
			res.Metadatas[row][i] = h.Metadata
			res.Distances[row][i] = h.Distance
		}
	}
	return res
}

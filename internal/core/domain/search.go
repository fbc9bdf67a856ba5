package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// Metadata keys shared by the catalog and content collections.
const (
	MetaCourseTitle  = "course_title"
	MetaLessonNumber = "lesson_number"
	MetaChunkIndex   = "chunk_index"
	MetaTitle        = "title"
	MetaInstructor   = "instructor"
	MetaCourseLink   = "course_link"
	MetaLessonsJSON  = "lessons_json"
	MetaLessonCount  = "lesson_count"
)

// Metadata is the scalar key-value data stored alongside a vector record.
type Metadata map[string]any

// String returns the string value for key, or "" when absent.
func (m Metadata) String(key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// Int returns the integer value for key. Numbers decoded from JSON arrive as
// float64 or json.Number and are accepted when they hold a whole value.
func (m Metadata) Int(key string) (int, bool) {
	return toInt(m[key])
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float32:
		if float64(n) == math.Trunc(float64(n)) {
			return int(n), true
		}
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
	}
	return 0, false
}

// QueryResult is the raw result of a batched similarity query. Each outer
// slice holds one row per query embedding.
type QueryResult struct {
	IDs       [][]string
	Documents [][]string
	Metadatas [][]Metadata
	Distances [][]float64
}

// SearchResults holds the ranked hits of a single content search.
// Documents, Metadata and Distances are parallel slices. When Error is set
// all three are empty.
type SearchResults struct {
	Documents []string
	Metadata  []Metadata
	Distances []float64
	Error     string
}

// EmptySearchResults returns a result set carrying only an error message.
func EmptySearchResults(msg string) SearchResults {
	return SearchResults{
		Documents: []string{},
		Metadata:  []Metadata{},
		Distances: []float64{},
		Error:     msg,
	}
}

// SearchResultsFromQuery takes the first row of a batched query result.
func SearchResultsFromQuery(raw *QueryResult) (SearchResults, error) {
	res := SearchResults{
		Documents: []string{},
		Metadata:  []Metadata{},
		Distances: []float64{},
	}
	if raw == nil {
		return res, nil
	}
	if len(raw.Documents) > 0 {
		res.Documents = append(res.Documents, raw.Documents[0]...)
	}
	if len(raw.Metadatas) > 0 {
		res.Metadata = append(res.Metadata, raw.Metadatas[0]...)
	}
	if len(raw.Distances) > 0 {
		res.Distances = append(res.Distances, raw.Distances[0]...)
	}
	if len(res.Documents) != len(res.Metadata) || len(res.Documents) != len(res.Distances) {
		return SearchResults{}, fmt.Errorf("%w: %d documents, %d metadata, %d distances",
			ErrInvalidInput, len(res.Documents), len(res.Metadata), len(res.Distances))
	}
	return res, nil
}

// IsEmpty reports whether there are no documents, independent of Error.
func (r SearchResults) IsEmpty() bool {
	return len(r.Documents) == 0
}

// Len returns the number of hits.
func (r SearchResults) Len() int {
	return len(r.Documents)
}

// Source attributes a piece of an answer to a course or lesson.
type Source struct {
	Display string  `json:"display"`
	URL     *string `json:"url"`
}

// Answer is the result of a course question.
type Answer struct {
	Answer    string   `json:"answer"`
	Sources   []Source `json:"sources"`
	SessionID string   `json:"session_id"`
}

// SearchOptions narrows a content search.
type SearchOptions struct {
	// CourseName is a fuzzy course name, resolved against the catalog.
	CourseName *string

	// LessonNumber restricts results to one lesson.
	LessonNumber *int
}

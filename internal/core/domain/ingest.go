package domain

// IngestReport summarises an ingestion run.
type IngestReport struct {
	// Courses is the number of new courses added to the catalog.
	Courses int `json:"courses"`

	// Chunks is the number of content chunks stored.
	Chunks int `json:"chunks"`

	// Skipped lists course titles already present in the catalog.
	Skipped []string `json:"skipped,omitempty"`

	// Failed maps file paths to parse or storage errors.
	Failed map[string]string `json:"failed,omitempty"`
}

// Add folds another report into r.
func (r *IngestReport) Add(other *IngestReport) {
	if other == nil {
		return
	}
	r.Courses += other.Courses
	r.Chunks += other.Chunks
	r.Skipped = append(r.Skipped, other.Skipped...)
	for k, v := range other.Failed {
		if r.Failed == nil {
			r.Failed = make(map[string]string)
		}
		r.Failed[k] = v
	}
}

// ParsedCourse is a course document split into its catalog entry and chunks.
type ParsedCourse struct {
	Course Course
	Chunks []CourseChunk
}

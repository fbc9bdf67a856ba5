package driven

import "github.com/custodia-labs/coursemate/internal/core/domain"

// CourseParser turns a course document into a catalog entry and its chunks.
type CourseParser interface {
	// Parse reads one course document. name is the file name and is used as
	// the course title when the document does not declare one.
	Parse(name string, content []byte) (*domain.ParsedCourse, error)

	// SupportedExtensions lists the file extensions the parser accepts,
	// including the leading dot.
	SupportedExtensions() []string
}

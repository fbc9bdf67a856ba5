package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Course is a unit of course material identified by its title.
// Titles are unique across the catalog and are used as the primary key.
type Course struct {
	// Title is the unique course title.
	Title string

	// CourseLink is the optional URL of the course landing page.
	CourseLink string

	// Instructor is the optional instructor name.
	Instructor string

	// Lessons is the ordered list of lessons.
	Lessons []Lesson
}

// Lesson is a numbered lesson owned by a Course.
type Lesson struct {
	// Number is the positive lesson number, unique within its course.
	Number int `json:"lesson_number"`

	// Title is the lesson title.
	Title string `json:"lesson_title"`

	// Link is the optional lesson URL.
	Link string `json:"lesson_link,omitempty"`
}

// Lesson returns the lesson with the given number.
func (c *Course) Lesson(number int) (Lesson, bool) {
	for _, l := range c.Lessons {
		if l.Number == number {
			return l, true
		}
	}
	return Lesson{}, false
}

// Validate reports whether the course can be stored in the catalog.
func (c *Course) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return ErrInvalidInput
	}
	seen := make(map[int]struct{}, len(c.Lessons))
	for _, l := range c.Lessons {
		if l.Number <= 0 {
			return ErrInvalidInput
		}
		if _, dup := seen[l.Number]; dup {
			return ErrInvalidInput
		}
		seen[l.Number] = struct{}{}
	}
	return nil
}

// MarshalLessons serialises lessons in the catalog's lessons_json format.
func MarshalLessons(lessons []Lesson) (string, error) {
	if lessons == nil {
		lessons = []Lesson{}
	}
	data, err := json.Marshal(lessons)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// UnmarshalLessons parses a lessons_json value.
func UnmarshalLessons(raw string) ([]Lesson, error) {
	if raw == "" {
		return nil, nil
	}
	var lessons []Lesson
	if err := json.Unmarshal([]byte(raw), &lessons); err != nil {
		return nil, err
	}
	return lessons, nil
}

// CourseChunk is a unit of retrievable course text.
type CourseChunk struct {
	// Content is the chunk text.
	Content string

	// CourseTitle references the owning Course.
	CourseTitle string

	// LessonNumber is nil for course-level text.
	LessonNumber *int

	// ChunkIndex orders chunks within a course.
	ChunkIndex int
}

// ID returns the content-unique identifier for the chunk.
func (c CourseChunk) ID() string {
	return ChunkID(c.CourseTitle, c.ChunkIndex)
}

// ChunkID derives a chunk identifier from a course title and chunk index.
func ChunkID(courseTitle string, chunkIndex int) string {
	return strings.ReplaceAll(courseTitle, " ", "_") + "_" + strconv.Itoa(chunkIndex)
}

// CourseAnalytics summarises the catalog.
type CourseAnalytics struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

// IntPtr returns a pointer to n.
func IntPtr(n int) *int {
	return &n
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

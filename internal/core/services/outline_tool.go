package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/coursemate/internal/core/domain"
)

// OutlineToolName is the name the model uses to call CourseOutlineTool.
const OutlineToolName = "get_course_outline"

// Ensure CourseOutlineTool implements the interface.
var _ Tool = (*CourseOutlineTool)(nil)

// CourseOutlineTool returns a course's catalog entry: link, instructor and
// numbered lesson list.
type CourseOutlineTool struct {
	index CourseIndex
}

// NewCourseOutlineTool creates an outline tool over the given index.
func NewCourseOutlineTool(index CourseIndex) *CourseOutlineTool {
	return &CourseOutlineTool{index: index}
}

// Definition returns the get_course_outline schema.
func (t *CourseOutlineTool) Definition() domain.ToolDefinition {
	return domain.ToolDefinition{
		Name:        OutlineToolName,
		Description: "Get a course outline: title, link, instructor and the complete lesson list",
		InputSchema: domain.ToolSchema{
			Properties: map[string]domain.ToolProperty{
				"course_name": {
					Type:        "string",
					Description: "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
			},
			Required: []string{"course_name"},
		},
	}
}

// Execute resolves the course and renders its outline.
func (t *CourseOutlineTool) Execute(ctx context.Context, input map[string]any) (domain.ToolOutput, error) {
	name, err := requiredString(input, "course_name")
	if err != nil {
		return domain.ToolOutput{}, err
	}

	title, ok := t.index.ResolveCourseName(ctx, name)
	if !ok {
		return domain.ToolOutput{Text: fmt.Sprintf("No course found matching '%s'", name)}, nil
	}

	course, err := t.index.GetCourse(ctx, title)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ToolOutput{Text: fmt.Sprintf("No course found matching '%s'", name)}, nil
	}
	if err != nil {
		return domain.ToolOutput{}, err
	}

	var url *string
	if course.CourseLink != "" {
		link := course.CourseLink
		url = &link
	}
	return domain.ToolOutput{
		Text:    FormatOutline(course),
		Sources: []domain.Source{{Display: course.Title, URL: url}},
	}, nil
}

// FormatOutline renders a course as plain text.
func FormatOutline(course *domain.Course) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Course Title: %s\n", course.Title)
	if course.CourseLink != "" {
		fmt.Fprintf(&b, "Course Link: %s\n", course.CourseLink)
	}
	if course.Instructor != "" {
		fmt.Fprintf(&b, "Course Instructor: %s\n", course.Instructor)
	}
	fmt.Fprintf(&b, "Lessons (%d total):", len(course.Lessons))
	for _, l := range course.Lessons {
		fmt.Fprintf(&b, "\nLesson %d: %s", l.Number, l.Title)
	}
	return b.String()
}

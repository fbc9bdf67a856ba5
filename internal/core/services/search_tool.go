package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/coursemate/internal/core/domain"
	"github.com/custodia-labs/coursemate/internal/logger"
)

// Tool is a capability the model can call by name.
type Tool interface {
	// Definition returns the tool's name, description and input schema.
	Definition() domain.ToolDefinition

	// Execute runs the tool. Data-level outcomes (no results, unknown course)
	// are returned as text; invalid input and infrastructure failures are
	// returned as errors.
	Execute(ctx context.Context, input map[string]any) (domain.ToolOutput, error)
}

// SearchToolName is the name the model uses to call CourseSearchTool.
const SearchToolName = "search_course_content"

// Ensure CourseSearchTool implements the interface.
var _ Tool = (*CourseSearchTool)(nil)

// CourseSearchTool searches course content with optional course and lesson
// filters and formats the hits for the model.
type CourseSearchTool struct {
	index CourseIndex
}

// NewCourseSearchTool creates a search tool over the given index.
func NewCourseSearchTool(index CourseIndex) *CourseSearchTool {
	return &CourseSearchTool{index: index}
}

// Definition returns the search_course_content schema.
func (t *CourseSearchTool) Definition() domain.ToolDefinition {
	return domain.ToolDefinition{
		Name:        SearchToolName,
		Description: "Search course materials with smart course name matching and lesson filtering",
		InputSchema: domain.ToolSchema{
			Properties: map[string]domain.ToolProperty{
				"query": {
					Type:        "string",
					Description: "What to search for in the course content",
				},
				"course_name": {
					Type:        "string",
					Description: "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
				"lesson_number": {
					Type:        "integer",
					Description: "Specific lesson number to search within (e.g. 1, 2, 3)",
				},
			},
			Required: []string{"query"},
		},
	}
}

// Execute runs the search and formats the results. The query is passed to
// the index as given, blank included.
func (t *CourseSearchTool) Execute(ctx context.Context, input map[string]any) (domain.ToolOutput, error) {
	query, err := presentString(input, "query")
	if err != nil {
		return domain.ToolOutput{}, err
	}
	courseName, err := optionalString(input, "course_name")
	if err != nil {
		return domain.ToolOutput{}, err
	}
	lessonNumber, err := optionalInt(input, "lesson_number")
	if err != nil {
		return domain.ToolOutput{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.ToolOutput{}, err
	}

	results := t.index.Search(ctx, query, domain.SearchOptions{
		CourseName:   courseName,
		LessonNumber: lessonNumber,
	})

	if results.Error != "" {
		return domain.ToolOutput{Text: results.Error}, nil
	}

	if results.IsEmpty() {
		return domain.ToolOutput{Text: noResultsMessage(courseName, lessonNumber)}, nil
	}

	return t.format(ctx, results), nil
}

func noResultsMessage(courseName *string, lessonNumber *int) string {
	var b strings.Builder
	b.WriteString("No relevant content found")
	if courseName != nil && *courseName != "" {
		fmt.Fprintf(&b, " in course '%s'", *courseName)
	}
	if lessonNumber != nil {
		fmt.Fprintf(&b, " in lesson %d", *lessonNumber)
	}
	return b.String()
}

type sourceKey struct {
	course    string
	lesson    int
	hasLesson bool
}

// format renders one block per hit and collects one source per distinct
// (course, lesson) pair in first-seen order.
func (t *CourseSearchTool) format(ctx context.Context, results domain.SearchResults) domain.ToolOutput {
	blocks := make([]string, 0, results.Len())
	sources := make([]domain.Source, 0, results.Len())
	seen := make(map[sourceKey]struct{}, results.Len())

	for i, doc := range results.Documents {
		meta := results.Metadata[i]
		course := meta.String(domain.MetaCourseTitle)
		if course == "" {
			course = "unknown"
		}
		lesson, hasLesson := meta.Int(domain.MetaLessonNumber)

		header := "[" + course + "]"
		display := course
		if hasLesson {
			header = fmt.Sprintf("[%s - Lesson %d]", course, lesson)
			display = fmt.Sprintf("%s - Lesson %d", course, lesson)
		}
		blocks = append(blocks, header+"\n"+doc)

		key := sourceKey{course: course, lesson: lesson, hasLesson: hasLesson}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		sources = append(sources, domain.Source{
			Display: display,
			URL:     t.sourceURL(ctx, course, lesson, hasLesson),
		})
	}

	logger.Debug("Formatted %d hits from %d sources", len(blocks), len(sources))
	return domain.ToolOutput{
		Text:    strings.Join(blocks, "\n\n"),
		Sources: sources,
	}
}

func (t *CourseSearchTool) sourceURL(ctx context.Context, course string, lesson int, hasLesson bool) *string {
	if hasLesson {
		if link := t.index.GetLessonLink(ctx, course, lesson); link != nil {
			return link
		}
	}
	return t.index.GetCourseLink(ctx, course)
}

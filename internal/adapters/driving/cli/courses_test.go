package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/coursemate/internal/core/domain"
)

func TestCoursesCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0, len(coursesCmd.Commands()))
	for _, cmd := range coursesCmd.Commands() {
		names = append(names, cmd.Name())
	}

	assert.Contains(t, names, "list")
	assert.Contains(t, names, "show")
}

func TestCoursesList_Empty(t *testing.T) {
	cleanup := setupTestServices(&Services{Query: &mockQueryService{}})
	defer cleanup()

	out, err := execute([]string{"courses"}, "")

	require.NoError(t, err)
	assert.Contains(t, out, "No courses indexed.")
}

func TestCoursesList_PrintsTitles(t *testing.T) {
	query := &mockQueryService{analytics: &domain.CourseAnalytics{
		TotalCourses: 2,
		CourseTitles: []string{"Intro to MCP", "Prompt Compression"},
	}}
	cleanup := setupTestServices(&Services{Query: query})
	defer cleanup()

	out, err := execute([]string{"courses", "list"}, "")

	require.NoError(t, err)
	assert.Contains(t, out, "Courses (2):")
	assert.Contains(t, out, "- Intro to MCP")
	assert.Contains(t, out, "- Prompt Compression")
}

func TestCoursesList_JSONUsesEmptyArray(t *testing.T) {
	cleanup := setupTestServices(&Services{Query: &mockQueryService{}})
	defer cleanup()

	out, err := execute([]string{"courses", "list", "--json"}, "")

	require.NoError(t, err)
	assert.JSONEq(t, `{"total_courses":0,"course_titles":[]}`, out)
}

func TestCoursesShow(t *testing.T) {
	query := &mockQueryService{course: &domain.Course{
		Title:      "Intro to MCP",
		CourseLink: "https://example.com/mcp",
		Instructor: "Ada",
		Lessons: []domain.Lesson{
			{Number: 1, Title: "Why MCP"},
			{Number: 2, Title: "Tools"},
		},
	}}
	cleanup := setupTestServices(&Services{Query: query})
	defer cleanup()

	out, err := execute([]string{"courses", "show", "mcp"}, "")

	require.NoError(t, err)
	assert.Contains(t, out, "Intro to MCP")
	assert.Contains(t, out, "Link: https://example.com/mcp")
	assert.Contains(t, out, "Instructor: Ada")
	assert.Contains(t, out, "Lessons (2):")
	assert.Contains(t, out, "2. Tools")
}

func TestCoursesShow_JSON(t *testing.T) {
	query := &mockQueryService{course: &domain.Course{Title: "Intro to MCP"}}
	cleanup := setupTestServices(&Services{Query: query})
	defer cleanup()

	out, err := execute([]string{"courses", "show", "--json", "mcp"}, "")

	require.NoError(t, err)
	var got courseOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Intro to MCP", got.Title)
	assert.NotNil(t, got.Lessons)
}

func TestCoursesShow_NotFound(t *testing.T) {
	cleanup := setupTestServices(&Services{Query: &mockQueryService{}})
	defer cleanup()

	_, err := execute([]string{"courses", "show", "nothing"}, "")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), `no course found matching "nothing"`)
}

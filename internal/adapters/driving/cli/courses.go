package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/coursemate/internal/core/domain"
)

var coursesJSON bool

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "Browse the course catalog",
	RunE:  runCoursesList,
}

var coursesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed courses",
	RunE:  runCoursesList,
}

var coursesShowCmd = &cobra.Command{
	Use:   "show [course]",
	Short: "Show a course outline",
	Long: `Prints the title, link, instructor and lessons of a course.
The name may be partial; it is resolved to the closest title in the catalog.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCoursesShow,
}

func init() {
	coursesCmd.PersistentFlags().BoolVar(&coursesJSON, "json", false, "output as JSON")
	coursesCmd.AddCommand(coursesListCmd)
	coursesCmd.AddCommand(coursesShowCmd)
	rootCmd.AddCommand(coursesCmd)
}

// courseOutput is the JSON shape of a course outline.
type courseOutput struct {
	Title      string          `json:"title"`
	CourseLink string          `json:"course_link,omitempty"`
	Instructor string          `json:"instructor,omitempty"`
	Lessons    []domain.Lesson `json:"lessons"`
}

func runCoursesList(cmd *cobra.Command, _ []string) error {
	svc, err := loadServices(NeedIndex)
	if err != nil {
		return err
	}
	if err := requireQuery(svc); err != nil {
		return err
	}

	analytics, err := svc.Query.CourseAnalytics(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load courses: %w", err)
	}

	if coursesJSON {
		if analytics.CourseTitles == nil {
			analytics.CourseTitles = []string{}
		}
		return printJSON(cmd, analytics)
	}

	if analytics.TotalCourses == 0 {
		cmd.Println("No courses indexed. Run 'coursemate ingest <dir>' to add some.")
		return nil
	}
	cmd.Printf("Courses (%d):\n", analytics.TotalCourses)
	for _, title := range analytics.CourseTitles {
		cmd.Printf("  - %s\n", title)
	}
	return nil
}

func runCoursesShow(cmd *cobra.Command, args []string) error {
	name := strings.Join(args, " ")

	svc, err := loadServices(NeedIndex)
	if err != nil {
		return err
	}
	if err := requireQuery(svc); err != nil {
		return err
	}

	course, err := svc.Query.CourseOutline(cmd.Context(), name)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("no course found matching %q", name)
	}
	if err != nil {
		return fmt.Errorf("failed to load course: %w", err)
	}

	if coursesJSON {
		out := courseOutput{
			Title:      course.Title,
			CourseLink: course.CourseLink,
			Instructor: course.Instructor,
			Lessons:    course.Lessons,
		}
		if out.Lessons == nil {
			out.Lessons = []domain.Lesson{}
		}
		return printJSON(cmd, out)
	}

	cmd.Println(course.Title)
	if course.CourseLink != "" {
		cmd.Printf("  Link: %s\n", course.CourseLink)
	}
	if course.Instructor != "" {
		cmd.Printf("  Instructor: %s\n", course.Instructor)
	}
	cmd.Printf("  Lessons (%d):\n", len(course.Lessons))
	for _, lesson := range course.Lessons {
		cmd.Printf("    %d. %s\n", lesson.Number, lesson.Title)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

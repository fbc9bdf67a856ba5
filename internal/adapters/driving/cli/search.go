package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/coursemate/internal/core/domain"
)

var (
	searchCourse string
	searchLesson int
	searchJSON   bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search course content",
	Long: `Runs a semantic search over the course content without a language model.

--course takes a partial course name; it is resolved to the closest title
in the catalog. --lesson restricts hits to one lesson.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchCourse, "course", "c", "", "course name (partial matches work)")
	searchCmd.Flags().IntVarP(&searchLesson, "lesson", "l", 0, "lesson number")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

// searchHit is the JSON shape of one result.
type searchHit struct {
	Course   string  `json:"course_title"`
	Lesson   *int    `json:"lesson_number,omitempty"`
	Distance float64 `json:"distance"`
	Content  string  `json:"content"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	svc, err := loadServices(NeedIndex)
	if err != nil {
		return err
	}
	if svc.Search == nil {
		return errors.New("search service not configured")
	}

	var opts domain.SearchOptions
	if searchCourse != "" {
		opts.CourseName = domain.StringPtr(searchCourse)
	}
	if cmd.Flags().Changed("lesson") {
		opts.LessonNumber = domain.IntPtr(searchLesson)
	}

	results := svc.Search.Search(cmd.Context(), query, opts)
	if results.Error != "" {
		return errors.New(results.Error)
	}

	hits := toSearchHits(results)
	if searchJSON {
		return outputSearchJSON(cmd, hits)
	}
	outputSearchTable(cmd, hits)
	return nil
}

func toSearchHits(results domain.SearchResults) []searchHit {
	hits := make([]searchHit, 0, len(results.Documents))
	for i, doc := range results.Documents {
		hit := searchHit{Content: doc}
		if i < len(results.Metadata) {
			hit.Course = results.Metadata[i].String(domain.MetaCourseTitle)
			if n, ok := results.Metadata[i].Int(domain.MetaLessonNumber); ok {
				hit.Lesson = domain.IntPtr(n)
			}
		}
		if i < len(results.Distances) {
			hit.Distance = results.Distances[i]
		}
		hits = append(hits, hit)
	}
	return hits
}

func outputSearchJSON(cmd *cobra.Command, hits []searchHit) error {
	data, err := json.MarshalIndent(hits, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, hits []searchHit) {
	if len(hits) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, hit := range hits {
		// [N] Course - Lesson L (distance)
		header := hit.Course
		if hit.Lesson != nil {
			header = fmt.Sprintf("%s - Lesson %d", header, *hit.Lesson)
		}
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, header, hit.Distance)
		cmd.Printf("      %s\n", snippet(hit.Content, 200))
		cmd.Println()
	}
}

// snippet collapses whitespace and truncates s to n runes.
func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

package coursedoc

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/coursemate/internal/core/domain"
	"github.com/custodia-labs/coursemate/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.CourseParser = (*Parser)(nil)

var (
	titleLine      = regexp.MustCompile(`(?i)^course\s+title:\s*(.*)$`)
	courseLinkLine = regexp.MustCompile(`(?i)^course\s+link:\s*(.*)$`)
	instructorLine = regexp.MustCompile(`(?i)^course\s+instructor:\s*(.*)$`)
	lessonLine     = regexp.MustCompile(`(?i)^lesson\s+(\d+)\s*:\s*(.*)$`)
	lessonLinkLine = regexp.MustCompile(`(?i)^lesson\s+link:\s*(.*)$`)
)

// Parser reads course documents in the course transcript format.
type Parser struct {
	chunker *Chunker
}

// Option configures the parser.
type Option func(*Parser)

// WithChunking sets the chunk size and overlap in characters.
func WithChunking(chunkSize, overlap int) Option {
	return func(p *Parser) {
		p.chunker = NewChunker(chunkSize, overlap)
	}
}

// NewParser creates a parser with the given options.
func NewParser(opts ...Option) *Parser {
	p := &Parser{chunker: NewChunker(DefaultChunkSize, DefaultChunkOverlap)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SupportedExtensions returns the extensions the parser reads.
func (p *Parser) SupportedExtensions() []string {
	return []string{".txt", ".md", ".markdown", ".html", ".htm", ".docx"}
}

// section is a run of text belonging to one lesson, or to the course when
// lesson is nil.
type section struct {
	lesson *int
	lines  []string
}

// Parse reads one course document.
func (p *Parser) Parse(name string, content []byte) (*domain.ParsedCourse, error) {
	doc, err := extract(name, content)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(doc.text, "\n")

	course := domain.Course{}
	body := p.readHeader(lines, &course)
	if course.Title == "" {
		course.Title = doc.title
	}
	if course.Title == "" {
		course.Title = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	if strings.TrimSpace(course.Title) == "" {
		return nil, fmt.Errorf("%w: document has no title", domain.ErrInvalidInput)
	}

	sections, lessons, err := splitLessons(body)
	if err != nil {
		return nil, err
	}
	course.Lessons = lessons

	parsed := &domain.ParsedCourse{Course: course}
	for _, sec := range sections {
		for i, chunk := range p.chunker.Split(strings.Join(sec.lines, "\n")) {
			if sec.lesson != nil && i == 0 {
				chunk = "Lesson " + strconv.Itoa(*sec.lesson) + " content: " + chunk
			}
			parsed.Chunks = append(parsed.Chunks, domain.CourseChunk{
				Content:      chunk,
				CourseTitle:  course.Title,
				LessonNumber: sec.lesson,
				ChunkIndex:   len(parsed.Chunks),
			})
		}
	}

	if len(parsed.Chunks) == 0 && len(course.Lessons) == 0 {
		return nil, fmt.Errorf("%w: %s has no content", domain.ErrInvalidInput, name)
	}
	return parsed, nil
}

// readHeader consumes the leading header lines and returns the remaining body.
// Blank lines inside the header are skipped.
func (p *Parser) readHeader(lines []string, course *domain.Course) []string {
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
		case titleLine.MatchString(line):
			course.Title = strings.TrimSpace(titleLine.FindStringSubmatch(line)[1])
		case courseLinkLine.MatchString(line):
			course.CourseLink = strings.TrimSpace(courseLinkLine.FindStringSubmatch(line)[1])
		case instructorLine.MatchString(line):
			course.Instructor = strings.TrimSpace(instructorLine.FindStringSubmatch(line)[1])
		default:
			return lines[i:]
		}
	}
	return nil
}

// splitLessons groups body lines by lesson marker. Lesson 0 and text before
// the first marker are course-level sections.
func splitLessons(body []string) ([]section, []domain.Lesson, error) {
	var (
		sections []section
		lessons  []domain.Lesson
		current  = section{}
		seen     = make(map[int]bool)
	)

	flush := func() {
		if len(current.lines) > 0 {
			sections = append(sections, current)
		}
	}

	for i := 0; i < len(body); i++ {
		line := strings.TrimSpace(body[i])
		m := lessonLine.FindStringSubmatch(line)
		if m == nil {
			current.lines = append(current.lines, body[i])
			continue
		}

		number, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, nil, fmt.Errorf("%w: lesson number %q", domain.ErrInvalidInput, m[1])
		}
		flush()

		if number == 0 {
			current = section{}
			continue
		}
		if seen[number] {
			return nil, nil, fmt.Errorf("%w: duplicate lesson %d", domain.ErrInvalidInput, number)
		}
		seen[number] = true

		lesson := domain.Lesson{Number: number, Title: strings.TrimSpace(m[2])}
		if j := nextNonBlank(body, i+1); j >= 0 {
			if link := lessonLinkLine.FindStringSubmatch(strings.TrimSpace(body[j])); link != nil {
				lesson.Link = strings.TrimSpace(link[1])
				i = j
			}
		}
		lessons = append(lessons, lesson)
		current = section{lesson: domain.IntPtr(number)}
	}
	flush()

	return sections, lessons, nil
}

func nextNonBlank(lines []string, from int) int {
	for j := from; j < len(lines); j++ {
		if strings.TrimSpace(lines[j]) != "" {
			return j
		}
	}
	return -1
}

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/coursemate/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for course resources.
	uriScheme = "courses://"

	catalogURI    = uriScheme + "catalog"
	outlinePrefix = uriScheme + "outline/"
	jsonMIMEType  = "application/json"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         catalogURI,
		Name:        "catalog",
		Description: "Number of courses and their titles",
		MIMEType:    jsonMIMEType,
	}, s.handleCatalogResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: outlinePrefix + "{course}",
		Name:        "course-outline",
		Description: "Outline of a course, matched by a partial title",
		MIMEType:    jsonMIMEType,
	}, s.handleOutlineResource)
}

// outlineResource is the JSON shape of a course outline.
type outlineResource struct {
	Title      string          `json:"title"`
	CourseLink string          `json:"course_link,omitempty"`
	Instructor string          `json:"instructor,omitempty"`
	Lessons    []domain.Lesson `json:"lessons"`
}

// handleCatalogResource returns catalog statistics.
func (s *Server) handleCatalogResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	stats, err := s.ports.Query.CourseAnalytics(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	if stats.CourseTitles == nil {
		stats.CourseTitles = []string{}
	}
	return jsonResource(req.Params.URI, stats)
}

// handleOutlineResource returns the outline of the course named in the URI.
func (s *Server) handleOutlineResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	name := extractCourseName(req.Params.URI)
	if name == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	course, err := s.ports.Query.CourseOutline(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("reading outline: %w", err)
	}

	lessons := course.Lessons
	if lessons == nil {
		lessons = []domain.Lesson{}
	}
	return jsonResource(req.Params.URI, outlineResource{
		Title:      course.Title,
		CourseLink: course.CourseLink,
		Instructor: course.Instructor,
		Lessons:    lessons,
	})
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: jsonMIMEType,
			Text:     string(data),
		}},
	}, nil
}

// extractCourseName extracts the unescaped course name from a URI like
// courses://outline/{course}.
func extractCourseName(uri string) string {
	if !strings.HasPrefix(uri, outlinePrefix) {
		return ""
	}
	name, err := url.PathUnescape(strings.TrimPrefix(uri, outlinePrefix))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(name)
}

// Package domain defines the core business entities for Coursemate.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Course, Lesson: catalog entries describing course material
//   - CourseChunk: a retrievable unit of course text
//   - SearchResults, Filter, Metadata: the retrieval vocabulary
//   - Message, ContentBlock, ToolDefinition: the tool-use conversation model
//   - Exchange: one turn of session history
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain

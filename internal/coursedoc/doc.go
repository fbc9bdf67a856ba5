// Package coursedoc parses course transcript documents into catalog entries
// and content chunks.
//
// A course document starts with a header:
//
//	Course Title: Introduction to MCP
//	Course Link: https://example.com/mcp
//	Course Instructor: Elie Schoppik
//
// followed by lessons, each introduced by a marker line and an optional link:
//
//	Lesson 1: Why MCP
//	Lesson Link: https://example.com/mcp/1
//	...lesson transcript...
//
// Lesson text is split into sentence-aligned chunks. The first chunk of each
// lesson is prefixed with "Lesson N content: " so that a chunk retrieved on
// its own still names its lesson. Text outside any lesson, including a
// "Lesson 0" introduction, becomes course-level content with no lesson number.
//
// Plain text is read as is. Markdown, HTML and DOCX files are first reduced
// to lines of text, so markers may be written as headings or paragraphs.
// When the header has no title, the document's own title (first H1, <title>
// or docProps title) is used, then the file name.
package coursedoc

// Package mcp provides an MCP (Model Context Protocol) server adapter for
// the course assistant. It exposes the course tools, a question-answering
// tool and catalog resources to MCP clients such as Claude Desktop.
package mcp

import "errors"

// ErrMissingToolService is returned when the tool service is not provided.
var ErrMissingToolService = errors.New("mcp: tool service is required")

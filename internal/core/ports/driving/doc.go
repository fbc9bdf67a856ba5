// Package driving defines what the CLI, HTTP API, MCP server, chat TUI and
// folder watcher may ask of the core: answering questions, searching
// content, running tools, ingesting documents and changing settings.
//
// Implementations live in internal/core/services.
package driving

// Package migrations holds the schema for vector records and chat sessions.
// Files are applied in name order; each NNN_name.up.sql has a matching down file.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

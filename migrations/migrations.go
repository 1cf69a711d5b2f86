// Package migrations embeds the schema migrations for each storage backend.
package migrations

import "embed"

// FS holds the sqlite/ and postgres/ migration directories.
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS

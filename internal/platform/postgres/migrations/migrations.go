// Package migrations embeds the goose SQL migrations of the task schema.
package migrations

import "embed"

// FS holds every migration file at its root.
//
//go:embed *.sql
var FS embed.FS

// TableName is the goose version table.
const TableName = "schema_migrations"

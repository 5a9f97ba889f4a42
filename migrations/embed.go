// Package migrations embeds the supervisor store's SQL migrations.
package migrations

import "embed"

//go:embed *.sql
var files embed.FS

// FS holds the migration files at its root, ready for database.Migrate.
var FS = files

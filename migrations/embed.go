// Package migrations embeds the schema files applied by pkg/database.Migrator.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

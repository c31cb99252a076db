// Package migrations embeds the SQLite schema so the collector can migrate
// its database without the SQL files present on disk.
package migrations

import "embed"

// FS holds every *.up.sql and *.down.sql file in this directory.
//
//go:embed *.sql
var FS embed.FS

// Package migrations embeds the SQL schema migrations applied at startup.
package migrations

import "embed"

// FS holds the versioned migration files (NNN_name.sql)
//
//go:embed *.sql
var FS embed.FS

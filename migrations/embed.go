// Package migrations embeds the SQL schema so binaries do not depend on a
// migrations directory at runtime.
package migrations

import "embed"

// FS holds every *.up.sql and *.down.sql file in this directory
//
//go:embed *.sql
var FS embed.FS

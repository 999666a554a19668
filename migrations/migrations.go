// Package migrations embeds the SQL schema migrations applied by cmd/migrate
// and the server's optional auto-migrate step.
package migrations

import "embed"

// FS holds every *.up.sql / *.down.sql file in this directory
//
//go:embed *.sql
var FS embed.FS

// Package migrations embeds the SQL schema files applied at start-up.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS

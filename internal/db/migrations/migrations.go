// Package migrations embeds the goose schema migrations for the channel
// server's definition and server-data tables.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// Package migrations embeds the local SQLite schema, applied with goose.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS

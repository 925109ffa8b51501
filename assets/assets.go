// Package assets embeds the SQL migrations so the binary can migrate a fresh database on its own.
package assets

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS

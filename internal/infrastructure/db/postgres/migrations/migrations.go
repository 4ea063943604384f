// Package migrations embeds the relational schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// Package migrations embeds the history cache schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

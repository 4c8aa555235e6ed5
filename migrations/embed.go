// Package migrations holds the goose migrations of the postgres record store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// Package migrations содержит SQL-схему, которую goose применяет при старте
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

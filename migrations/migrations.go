// Package migrations содержит SQL-схему хранилища проектов.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

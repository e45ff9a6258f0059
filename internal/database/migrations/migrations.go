// Package migrations встраивает SQL-миграции схемы в бинарник.
package migrations

import "embed"

// FS содержит файлы миграций в формате golang-migrate (каталог sql/).
//
//go:embed sql/*.sql
var FS embed.FS

// Dir — каталог миграций внутри FS.
const Dir = "sql"

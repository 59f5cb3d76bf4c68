// Package migrations holds the schema, applied with bun/migrate by the
// migrate command and on server start. Each file registers one step; bun
// names the step after the file.
package migrations

import "github.com/uptrace/bun/migrate"

var Migrations = migrate.NewMigrations()

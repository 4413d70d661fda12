package repo

import "embed"

// Migrations holds the schema, applied in file name order by postgres.Migrate.
//
//go:embed migrations/*.sql
var Migrations embed.FS

const MigrationsDir = "migrations"

package database

import "embed"

// MigrationsFS - SQL миграции схемы, встроенные в бинарник.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS

// MigrationsPath - каталог миграций внутри MigrationsFS.
const MigrationsPath = "migrations"

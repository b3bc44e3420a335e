package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/fiscal-ingest-api/pkg/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationFiles lista los scripts embebidos en orden de ejecución.
func MigrationFiles() ([]string, error) {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// RunMigrations ejecuta los scripts en orden. Son idempotentes (IF NOT EXISTS).
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, log *logger.Logger) error {
	files, err := MigrationFiles()
	if err != nil {
		return fmt.Errorf("listar migraciones: %w", err)
	}
	for _, name := range files {
		sqlBytes, err := migrationsFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("leer migración %s: %w", name, err)
		}
		if _, err := pool.Exec(ctx, string(sqlBytes)); err != nil {
			return fmt.Errorf("ejecutar migración %s: %w", name, err)
		}
		log.Info().Str("file", name).Msg("migración aplicada")
	}
	return nil
}

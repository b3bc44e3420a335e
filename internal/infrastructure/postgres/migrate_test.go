package postgres_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fiscal-ingest-api/internal/infrastructure/postgres"
)

func TestMigrationFiles_Orden(t *testing.T) {
	files, err := postgres.MigrationFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"migrations/001_create_vendors.sql",
		"migrations/002_create_categories.sql",
		"migrations/003_create_payable_documents.sql",
		"migrations/004_create_installments.sql",
	}, files)
}

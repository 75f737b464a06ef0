package postgres

import (
	"context"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/api-sage/funds-transfer-service/src/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFilesSortedAndFiltered(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_seed.sql":   {Data: []byte("SELECT 1")},
		"0001_schema.SQL": {Data: []byte("SELECT 1")},
		"README.md":       {Data: []byte("docs")},
		"nested/0003.sql": {Data: []byte("SELECT 1")},
	}

	files, err := migrationFiles(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_schema.SQL", "0002_seed.sql"}, files)
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	fsys, err := MigrationsFS("")
	require.NoError(t, err)

	files, err := migrationFiles(fsys)
	require.NoError(t, err)
	require.NotEmpty(t, files)

	schema, err := fs.ReadFile(fsys, files[0])
	require.NoError(t, err)
	assert.Contains(t, string(schema), "CHECK (balance >= 0)")
}

type otherScope struct{}

func (otherScope) ScopeID() string { return "other" }

func TestRepositoriesRejectForeignScope(t *testing.T) {
	ctx := context.Background()

	err := NewAccountRepository(nil).ApplyMutations(ctx, otherScope{}, domain.CreditMutation("a", decimal.NewFromInt(1)))
	assert.ErrorIs(t, err, errForeignScope)

	_, err = NewLedgerRepository().Append(ctx, otherScope{}, domain.LedgerEntry{})
	assert.ErrorIs(t, err, errForeignScope)
}

package postgres

import (
	"context"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPool_InvalidDSN(t *testing.T) {
	t.Parallel()
	_, err := NewPool(context.Background(), "://bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=postgres.new_pool")
}

func TestEnsureSchema(t *testing.T) {
	t.Parallel()
	m, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer m.Close()

	m.ExpectExec("CREATE TABLE IF NOT EXISTS candidates").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	require.NoError(t, EnsureSchema(context.Background(), m))

	m.ExpectExec("CREATE TABLE").WillReturnError(assert.AnError)
	err = EnsureSchema(context.Background(), m)
	require.ErrorIs(t, err, assert.AnError)

	require.NoError(t, m.ExpectationsWereMet())
}

func TestSchemaCoversColumns(t *testing.T) {
	t.Parallel()
	for _, col := range candidateColumns {
		assert.Contains(t, schemaSQL, col+" ")
	}
}

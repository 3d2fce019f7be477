package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"testing/fstest"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unique", &pgconn.PgError{Code: "23505", ConstraintName: "uq_stock_batches_item_batch"}, domain.ErrConstraintViolation},
		{"serialization", &pgconn.PgError{Code: "40001"}, domain.ErrTransactionConflict},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, domain.ErrTransactionConflict},
		{"lock timeout", &pgconn.PgError{Code: "55P03"}, domain.ErrTransactionConflict},
		{"statement timeout", &pgconn.PgError{Code: "57014"}, domain.ErrTransactionConflict},
		{"wrapped pg error", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505"}), domain.ErrConstraintViolation},
		{"deadline", context.DeadlineExceeded, domain.ErrTransactionConflict},
		{"check violation", &pgconn.PgError{Code: "23514"}, domain.ErrUnexpected},
		{"other", errors.New("connection reset"), domain.ErrUnexpected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError("op", tt.err)
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestClassifyError_KeepsCause(t *testing.T) {
	cause := errors.New("boom")
	got := classifyError("insert batch", cause)
	assert.ErrorIs(t, got, cause)
	assert.Contains(t, got.Error(), "insert batch")
}

func TestClassifyError_AlreadyClassified(t *testing.T) {
	err := fmt.Errorf("x: %w", domain.ErrTransactionConflict)
	assert.Equal(t, err, classifyError("op", err))
	assert.NoError(t, classifyError("op", nil))
}

func TestMigrationsFromFS_Order(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0002_b.sql": {Data: []byte("SELECT 2;")},
		"m/0001_a.sql": {Data: []byte("SELECT 1;")},
		"m/README.md":  {Data: []byte("ignore")},
		"m/0010_c.sql": {Data: []byte("SELECT 10;")},
		"m/sub/x.sql":  {Data: []byte("nested")},
	}
	list, err := migrationsFromFS(fsys, "m")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "0001_a.sql", list[0].Name)
	assert.Equal(t, "0002_b.sql", list[1].Name)
	assert.Equal(t, "0010_c.sql", list[2].Name)
	assert.Equal(t, "SELECT 1;", list[0].SQL)
}

func TestEmbeddedMigrations(t *testing.T) {
	list, err := Migrations()
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Contains(t, list[1].SQL, "UNIQUE (item_id, batch_number)")
	assert.Contains(t, list[1].SQL, "current_quantity >= 0")
}

func TestOrderClauseAndEscapeLike(t *testing.T) {
	assert.Equal(t, "b.expiry_date ASC NULLS LAST", orderClause("b.expiry_date", "asc"))
	assert.Equal(t, "b.expiry_date DESC NULLS FIRST", orderClause("b.expiry_date", "desc"))
	assert.Equal(t, `50\%\_off\\x`, escapeLike(`50%_off\x`))
}

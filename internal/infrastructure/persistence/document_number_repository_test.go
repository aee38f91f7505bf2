package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/gescom/backend/internal/domain/numbering"
	"github.com/gescom/backend/internal/domain/shared"
)

// newMockDB creates a GORM connection backed by sqlmock
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func TestGormDocumentNumberRepository_NextSequence(t *testing.T) {
	t.Run("includes released rows in the scan", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormDocumentNumberRepository(db)

		rows := sqlmock.NewRows([]string{"coalesce"}).AddRow(int64(41))
		// Unscoped: no deleted_at filter in the query
		mock.ExpectQuery(`SELECT COALESCE\(MAX\(sequence\), 0\) FROM "document_numbers" WHERE type = \$1 AND year = \$2`).
			WithArgs("INVOICE", 2026).
			WillReturnRows(rows)

		next, err := repo.NextSequence(context.Background(), numbering.DocumentTypeInvoice, 2026)
		require.NoError(t, err)
		assert.Equal(t, int64(42), next)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("starts every series at one", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormDocumentNumberRepository(db)

		rows := sqlmock.NewRows([]string{"coalesce"}).AddRow(int64(0))
		mock.ExpectQuery(`SELECT COALESCE\(MAX\(sequence\), 0\) FROM "document_numbers"`).
			WithArgs("JOURNAL", 2026).
			WillReturnRows(rows)

		next, err := repo.NextSequence(context.Background(), numbering.DocumentTypeJournal, 2026)
		require.NoError(t, err)
		assert.Equal(t, int64(1), next)
	})
}

func TestGormDocumentNumberRepository_Insert_Conflict(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormDocumentNumberRepository(db)

	pqErr := &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}
	mock.ExpectExec(`INSERT INTO "document_numbers"`).
		WillReturnError(pqErr)

	allocation := numbering.NewDocumentNumber(numbering.DocumentTypeInvoice, 2026, 42, uuid.New())
	err := repo.Insert(context.Background(), allocation)
	require.Error(t, err)
	assert.True(t, shared.IsConflict(err), "unique violations map to the conflict code")
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, isUniqueViolation(nil))
	assert.False(t, isUniqueViolation(gorm.ErrRecordNotFound))
	assert.True(t, isUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
}

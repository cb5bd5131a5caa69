package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/costiq/backend/internal/domain/ingest"
	"github.com/costiq/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockUploadBatchRepository(t *testing.T) (*GormUploadBatchRepository, sqlmock.Sqlmock, *sql.DB) {
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

	return NewGormUploadBatchRepository(gormDB), mock, mockDB
}

func TestGormUploadBatchRepository_Save(t *testing.T) {
	t.Run("upserts batch", func(t *testing.T) {
		repo, mock, mockDB := newMockUploadBatchRepository(t)
		defer mockDB.Close()

		batch := ingest.NewUploadBatch("orders.csv", ingest.FileTypePO)

		mock.ExpectExec(`INSERT INTO "upload_batches" .* ON CONFLICT .* DO UPDATE SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Save(context.Background(), batch)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormUploadBatchRepository_FindByID(t *testing.T) {
	t.Run("finds existing batch", func(t *testing.T) {
		repo, mock, mockDB := newMockUploadBatchRepository(t)
		defer mockDB.Close()

		batchID := uuid.New()
		now := time.Now()

		rows := sqlmock.NewRows([]string{"id", "created_at", "updated_at", "filename", "file_type", "status", "record_count", "warnings"}).
			AddRow(batchID, now, now, "orders.csv", "po", "completed", 12, []byte(`["Missing columns: department"]`))

		mock.ExpectQuery(`SELECT \* FROM "upload_batches" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(batchID, 1).
			WillReturnRows(rows)

		batch, err := repo.FindByID(context.Background(), batchID)

		require.NoError(t, err)
		assert.Equal(t, batchID, batch.ID)
		assert.Equal(t, ingest.FileTypePO, batch.FileType)
		assert.Equal(t, ingest.StatusCompleted, batch.Status)
		assert.Equal(t, 12, batch.RecordCount)
		require.Len(t, batch.Warnings, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for missing batch", func(t *testing.T) {
		repo, mock, mockDB := newMockUploadBatchRepository(t)
		defer mockDB.Close()

		batchID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "upload_batches" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(batchID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		batch, err := repo.FindByID(context.Background(), batchID)

		assert.Nil(t, batch)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormUploadBatchRepository_FindAll(t *testing.T) {
	t.Run("returns batches newest first with count", func(t *testing.T) {
		repo, mock, mockDB := newMockUploadBatchRepository(t)
		defer mockDB.Close()

		now := time.Now()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "upload_batches"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		rows := sqlmock.NewRows([]string{"id", "created_at", "updated_at", "filename", "file_type", "status", "record_count", "warnings"}).
			AddRow(uuid.New(), now, now, "stock.csv", "inventory", "completed", 4, nil).
			AddRow(uuid.New(), now.Add(-time.Minute), now.Add(-time.Minute), "orders.csv", "po", "failed", 0, nil)

		mock.ExpectQuery(`SELECT \* FROM "upload_batches" ORDER BY created_at DESC, id DESC LIMIT \$1`).
			WithArgs(50).
			WillReturnRows(rows)

		batches, total, err := repo.FindAll(context.Background(), 1, 0)

		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, batches, 2)
		assert.Equal(t, "stock.csv", batches[0].Filename)
		assert.Equal(t, ingest.StatusFailed, batches[1].Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormUploadBatchRepository_InterfaceCompliance(t *testing.T) {
	repo, _, mockDB := newMockUploadBatchRepository(t)
	defer mockDB.Close()

	var _ ingest.UploadBatchRepository = repo
}

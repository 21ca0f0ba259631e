package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newGormMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return db, mock
}

func TestFetchPending_IncludesFailedRowsDueForRetry(t *testing.T) {
	db, mock := newGormMock(t)
	repo := NewOutboxRepository(db)

	failedID := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "outbox_messages" WHERE status IN \(\$1,\$2\) AND \(next_retry_at IS NULL OR next_retry_at <= \$3\)`).
		WithArgs(OutboxPending, OutboxFailed, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "topic", "key", "payload", "status", "attempts"}).
			AddRow(failedID, "payroll.run.finalized", "run-1", []byte(`{}`), OutboxFailed, 2))

	messages, err := repo.FetchPending(context.Background(), 100)
	require.NoError(t, err)

	require.Len(t, messages, 1)
	assert.Equal(t, failedID, messages[0].ID)
	assert.Equal(t, OutboxFailed, messages[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkFailed_SchedulesNextRetry(t *testing.T) {
	db, mock := newGormMock(t)
	repo := NewOutboxRepository(db)

	id := uuid.New()
	mock.ExpectExec(`UPDATE "outbox_messages" SET .*"next_retry_at"=NOW\(\) \+ \(LEAST\(attempts \+ 1, 10\) \* INTERVAL '15 seconds'\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkFailed(context.Background(), id, "broker unreachable")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkSent_ClearsLastError(t *testing.T) {
	db, mock := newGormMock(t)
	repo := NewOutboxRepository(db)

	id := uuid.New()
	mock.ExpectExec(`UPDATE "outbox_messages" SET .*"last_error"=\$1.*"status"=\$3`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkSent(context.Background(), id, time.Now().UTC())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package job

import (
	"context"
	"testing"
	"time"

	"corebank/internal/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

type stubPublisher struct {
	err  error
	sent []string
}

func (p *stubPublisher) Send(topic, key, value string) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, key)
	return nil
}

func newTestSender(t *testing.T) (*OutboxSender, sqlmock.Sqlmock, *stubPublisher) {
	db, mock := newTestDB(t)
	publisher := &stubPublisher{}
	cfg := &config.Config{Outbox: config.OutboxConfig{MaxRetryCount: 3}}
	return NewOutboxSender(db, publisher, cfg), mock, publisher
}

func pendingEventRow(id int64, retryCount int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "message_key", "topic", "payload", "status", "retry_count", "created_at", "updated_at"}).
		AddRow(id, "TXN100", "bank.transaction.created", `{"transaction_no":"TXN100"}`, "PENDING", retryCount, now, now)
}

const listPendingSQL = "SELECT \\* FROM `outbox_message` WHERE status = \\?"

func TestOutboxSenderMarksSent(t *testing.T) {
	sender, mock, publisher := newTestSender(t)

	mock.ExpectQuery(listPendingSQL).
		WithArgs("PENDING", 100).
		WillReturnRows(pendingEventRow(1, 0))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `outbox_message` SET `status`").
		WithArgs("SENT", sqlmock.AnyArg(), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	sender.drainPending(context.Background())

	assert.Equal(t, []string{"TXN100"}, publisher.sent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxSenderRetriesBelowThreshold(t *testing.T) {
	sender, mock, publisher := newTestSender(t)
	publisher.err = assert.AnError

	mock.ExpectQuery(listPendingSQL).
		WithArgs("PENDING", 100).
		WillReturnRows(pendingEventRow(1, 0))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `outbox_message` SET `retry_count`").
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	sender.drainPending(context.Background())

	assert.Empty(t, publisher.sent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxSenderParksAfterMaxRetries(t *testing.T) {
	sender, mock, publisher := newTestSender(t)
	publisher.err = assert.AnError

	// two failed attempts already recorded; this one reaches the cap
	mock.ExpectQuery(listPendingSQL).
		WithArgs("PENDING", 100).
		WillReturnRows(pendingEventRow(1, 2))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `outbox_message` SET").
		WithArgs("FAILED", sqlmock.AnyArg(), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	sender.drainPending(context.Background())

	assert.NoError(t, mock.ExpectationsWereMet())
}

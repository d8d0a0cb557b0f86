package repository

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bengkelhub/wa-bridge/internal/model"
)

func TestOutboundCreateFillsID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO outbound_messages")).
		WithArgs(
			"628123456789", "Halo Budi", "pending",
			nil, nil, nil, nil,
			false, "manual", sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	repo := &OutboundMessageRepository{DB: db}
	msg := &model.OutboundMessage{
		Phone:   "628123456789",
		Content: "Halo Budi",
		Trigger: "manual",
	}
	require.NoError(t, repo.Create(msg))
	assert.Equal(t, int64(7), msg.ID)
	assert.Equal(t, model.OutboundStatusPending, msg.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboundGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM outbound_messages")).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := &OutboundMessageRepository{DB: db}
	msg, err := repo.GetByID(99)
	require.NoError(t, err)
	assert.Nil(t, msg)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboundMarkSentGuardsPendingOnly(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("status='pending'")).
		WithArgs(int64(7), "WA-123", `{"success":true}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := &OutboundMessageRepository{DB: db}
	require.NoError(t, repo.MarkSent(7, "WA-123", `{"success":true}`))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboundMarkFailed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("status='failed'")).
		WithArgs(int64(7), "session not ready").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := &OutboundMessageRepository{DB: db}
	require.NoError(t, repo.MarkFailed(7, "session not ready"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboundUpdateDeliveryStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("delivery_status=$2")).
		WithArgs("WA-123", "delivered", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := &OutboundMessageRepository{DB: db}
	matched, err := repo.UpdateDeliveryStatus("WA-123", "delivered", at)
	require.NoError(t, err)
	assert.True(t, matched)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboundUpdateDeliveryStatusNoMatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("delivery_status=$2")).
		WithArgs("WA-unknown", "read", at).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &OutboundMessageRepository{DB: db}
	matched, err := repo.UpdateDeliveryStatus("WA-unknown", "read", at)
	require.NoError(t, err)
	assert.False(t, matched)
	assert.NoError(t, mock.ExpectationsWereMet())
}

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

func TestListEligibleForFollowUp(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	staleBefore := time.Now().Add(-90 * 24 * time.Hour)
	cooldownSince := time.Now().Add(-30 * 24 * time.Hour)
	lastService := time.Now().Add(-120 * 24 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("FROM customers c")).
		WithArgs(staleBefore, model.TriggerServiceCompletion, cooldownSince, 10).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "name", "phone", "vehicle_info", "active", "last_service_at"},
		).
			AddRow(1, "Budi Santoso", "08123456789", "Toyota Avanza", true, lastService).
			AddRow(2, "Agus Wijaya", "8123450001", "Suzuki Ertiga", true, nil))

	repo := &CustomerRepository{DB: db}
	customers, err := repo.ListEligibleForFollowUp(model.TriggerServiceCompletion, staleBefore, cooldownSince, 10)
	require.NoError(t, err)
	require.Len(t, customers, 2)
	assert.Equal(t, "Budi Santoso", customers[0].Name)
	assert.Nil(t, customers[1].LastServiceAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLatestServiceNone(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM service_records")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := &CustomerRepository{DB: db}
	svc, err := repo.GetLatestService(9)
	require.NoError(t, err)
	assert.Nil(t, svc)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCustomerByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM customers")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := &CustomerRepository{DB: db}
	c, err := repo.GetByID(9)
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.NoError(t, mock.ExpectationsWereMet())
}

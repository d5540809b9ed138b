package models

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/flaboy/aira-books/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)
	return db, mock
}

func TestStartRunCreatesLedgerRow(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT count").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO .ar_sync_runs.").
		WillReturnResult(sqlmock.NewResult(42, 1))

	run, err := StartRun(db, 7)

	require.NoError(t, err)
	assert.Equal(t, uint(42), run.ID)
	assert.Equal(t, uint(7), run.TeamID)
	assert.Equal(t, SyncRunStatusRunning, run.Status)
	assert.False(t, run.StartTime.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStartRunRefusesConcurrentRun(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT count").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	run, err := StartRun(db, 7)

	assert.Nil(t, run)
	assert.Equal(t, errors.ErrSyncAlreadyRunning, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendBatchErrorsMerges(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("UPDATE .ar_sync_runs.").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE .ar_sync_runs.").WillReturnResult(sqlmock.NewResult(0, 1))

	run := &SyncRun{ID: 1, TeamID: 7, Status: SyncRunStatusRunning}

	require.NoError(t, run.AppendBatchErrors(db, []BatchErrorRecord{
		{Endpoint: "Items", Reference: "SKU-1", Errors: "Code is invalid"},
	}))
	require.NoError(t, run.AppendBatchErrors(db, []BatchErrorRecord{
		{Endpoint: "Invoices", Reference: "1001", Errors: "Account code missing"},
	}))

	require.Len(t, run.ErrorDetails.BatchErrors, 2)
	assert.Equal(t, "Items", run.ErrorDetails.BatchErrors[0].Endpoint)
	assert.Equal(t, "Invoices", run.ErrorDetails.BatchErrors[1].Endpoint)

	// nothing to write, nothing hits the database
	require.NoError(t, run.AppendBatchErrors(db, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFinishFailurePreservesBatchErrors(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("UPDATE .ar_sync_runs.").WillReturnResult(sqlmock.NewResult(0, 1))

	run := &SyncRun{ID: 1, TeamID: 7, Status: SyncRunStatusRunning}
	run.ErrorDetails.BatchErrors = []BatchErrorRecord{
		{Endpoint: "Items", Reference: "SKU-1", Errors: "Code is invalid"},
	}

	err := run.FinishFailure(db, assert.AnError, "create_invoices", 3, 1)

	require.NoError(t, err)
	assert.Equal(t, SyncRunStatusFailure, run.Status)
	require.NotNil(t, run.EndTime)
	assert.Equal(t, assert.AnError.Error(), run.ErrorDetails.Message)
	assert.Equal(t, "create_invoices", run.ErrorDetails.SourceLocation)
	assert.Equal(t, 3, run.SuccessfulInvoices)
	assert.Equal(t, 1, run.FailedInvoices)
	require.Len(t, run.ErrorDetails.BatchErrors, 1)
}

func TestErrorDetailsScan(t *testing.T) {
	var details ErrorDetails
	err := details.Scan(`{"message":"boom","source_location":"create_payments","batch_errors":[{"endpoint":"Payments","reference":"Payment: Card","name":"N/A","errors":"Invoice not found"}]}`)

	require.NoError(t, err)
	assert.Equal(t, "boom", details.Message)
	assert.Equal(t, "create_payments", details.SourceLocation)
	require.Len(t, details.BatchErrors, 1)
	assert.Equal(t, "Payments", details.BatchErrors[0].Endpoint)

	require.NoError(t, details.Scan(nil))
	assert.Empty(t, details.Message)
}

func TestPaymentAccountCode(t *testing.T) {
	conn := &SourceConnection{PaymentAccountMap: []byte(`{"stripe":"090","cod":"091"}`)}
	assert.Equal(t, "090", conn.PaymentAccountCode("stripe"))
	assert.Equal(t, "", conn.PaymentAccountCode("paypal"))

	empty := &SourceConnection{}
	assert.Equal(t, "", empty.PaymentAccountCode("stripe"))

	malformed := &SourceConnection{PaymentAccountMap: []byte(`not json`)}
	assert.Equal(t, "", malformed.PaymentAccountCode("stripe"))
}

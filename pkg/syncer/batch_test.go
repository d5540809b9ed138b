package syncer

import (
	"context"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/flaboy/aira-books/pkg/extensions/accounting/xero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkSlice(t *testing.T) {
	assert.Nil(t, chunkSlice([]int{}, 10))
	assert.Nil(t, chunkSlice([]int{1, 2}, 0))

	chunks := chunkSlice([]int{1, 2, 3, 4, 5}, 2)
	require.Len(t, chunks, 3)
	assert.Equal(t, []int{1, 2}, chunks[0])
	assert.Equal(t, []int{5}, chunks[2])
}

func TestSubmitBatchChunksAndAggregates(t *testing.T) {
	payloads := make([]xero.Invoice, 230)
	for i := range payloads {
		payloads[i] = xero.Invoice{Reference: fmt.Sprintf("ref-%d", i)}
	}

	api := &fakeXeroAPI{}
	api.handler = func(call apiCall) (*xero.Response, error) {
		chunk := call.payload.([]xero.Invoice)
		echoed := make([]xero.Invoice, len(chunk))
		copy(echoed, chunk)
		return &xero.Response{Invoices: echoed}, nil
	}

	rc, _ := newTestRunContext(t, api, `{}`)
	resp, err := submitBatch(context.Background(), rc, "Invoices", payloads)

	require.NoError(t, err)
	require.Len(t, api.calls, 3)
	assert.Len(t, api.calls[0].payload.([]xero.Invoice), 100)
	assert.Len(t, api.calls[1].payload.([]xero.Invoice), 100)
	assert.Len(t, api.calls[2].payload.([]xero.Invoice), 30)

	// aggregated response preserves submission order across chunks
	require.Len(t, resp.Invoices, 230)
	assert.Equal(t, "ref-0", resp.Invoices[0].Reference)
	assert.Equal(t, "ref-100", resp.Invoices[100].Reference)
	assert.Equal(t, "ref-229", resp.Invoices[229].Reference)
}

func TestSubmitBatchRecordsElementRejections(t *testing.T) {
	payloads := []xero.Item{
		{Code: "OK-1"},
		{Code: "BAD-2"},
		{Code: "OK-3"},
	}

	api := &fakeXeroAPI{}
	api.handler = func(call apiCall) (*xero.Response, error) {
		return &xero.Response{Items: []xero.Item{
			{Code: "OK-1", ItemID: "item-1"},
			{Code: "BAD-2", HasErrors: true, ValidationErrors: []xero.ValidationError{
				{Message: "Code is invalid"},
				{Message: "Name is required"},
			}},
			{Code: "OK-3", ItemID: "item-3"},
		}}, nil
	}

	rc, mock := newTestRunContext(t, api, `{}`)
	mock.ExpectExec("UPDATE .ar_sync_runs.").WillReturnResult(sqlmock.NewResult(0, 1))

	resp, err := submitBatch(context.Background(), rc, "Items", payloads)

	// element rejection is recorded, not raised
	require.NoError(t, err)
	assert.Len(t, resp.Items, 3)
	require.Len(t, rc.run.ErrorDetails.BatchErrors, 1)
	record := rc.run.ErrorDetails.BatchErrors[0]
	assert.Equal(t, "Items", record.Endpoint)
	assert.Equal(t, "BAD-2", record.Reference)
	assert.Equal(t, "Code is invalid; Name is required", record.Errors)
	assert.Equal(t, "N/A", record.Name)
}

func TestSubmitBatchTransportErrorReturnsPartial(t *testing.T) {
	payloads := make([]xero.Payment, 150)
	for i := range payloads {
		payloads[i] = xero.Payment{Reference: fmt.Sprintf("pay-%d", i)}
	}

	api := &fakeXeroAPI{}
	api.handler = func(call apiCall) (*xero.Response, error) {
		if len(api.calls) > 1 {
			return nil, assert.AnError
		}
		chunk := call.payload.([]xero.Payment)
		echoed := make([]xero.Payment, len(chunk))
		copy(echoed, chunk)
		return &xero.Response{Payments: echoed}, nil
	}

	rc, _ := newTestRunContext(t, api, `{}`)
	resp, err := submitBatch(context.Background(), rc, "Payments", payloads)

	require.Error(t, err)
	// the first chunk's echoes survive the second chunk's failure
	assert.Len(t, resp.Payments, 100)
}

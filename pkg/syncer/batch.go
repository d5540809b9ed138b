package syncer

import (
	"context"
	"strings"

	"github.com/flaboy/aira-books/pkg/extensions/accounting/xero"
	"github.com/flaboy/aira-books/pkg/models"
)

func chunkSlice[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) == 0 {
		return nil
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

// submitBatch posts payloads to an endpoint in provider-sized chunks,
// sequentially, and aggregates the echoed elements in submission order.
// Per-element rejections are recorded on the run ledger and do not stop
// the batch; a transport or decode failure aborts remaining chunks and
// returns what was aggregated so far.
func submitBatch[T any](ctx context.Context, rc *runContext, endpoint string, payloads []T) (*xero.Response, error) {
	aggregated := &xero.Response{}

	for _, chunk := range chunkSlice(payloads, rc.syncer.cfg.Sync.BatchSize) {
		resp, err := rc.syncer.api.Call(ctx, rc.xeroConn, "POST", endpoint, nil, chunk)
		if err != nil {
			return aggregated, err
		}
		aggregated.Merge(resp)
		recordBatchErrors(rc, endpoint, resp)
	}

	return aggregated, nil
}

// recordBatchErrors appends one ledger record per rejected element. Failed
// writes of the records themselves are logged and swallowed so bookkeeping
// never kills a run.
func recordBatchErrors(rc *runContext, endpoint string, resp *xero.Response) {
	var records []models.BatchErrorRecord
	for _, el := range resp.Elements(endpoint) {
		if !el.ElementFailed() {
			continue
		}
		messages := make([]string, 0, len(el.ElementErrors()))
		for _, ve := range el.ElementErrors() {
			messages = append(messages, ve.Message)
		}
		record := models.BatchErrorRecord{
			Endpoint:  endpoint,
			Reference: valueOr(el.ElementReference(), "N/A"),
			Name:      valueOr(el.ElementName(), "N/A"),
			Errors:    strings.Join(messages, "; "),
		}
		records = append(records, record)
		rc.log.Error("batch element rejected",
			"endpoint", endpoint,
			"reference", record.Reference,
			"name", record.Name,
			"errors", record.Errors)
	}
	if len(records) == 0 {
		return
	}
	if err := rc.run.AppendBatchErrors(rc.syncer.db, records); err != nil {
		rc.log.Error("failed to persist batch errors", "error", err)
	}
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

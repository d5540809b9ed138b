package syncer

import (
	"context"
	"net/url"
	"strings"

	"github.com/flaboy/aira-books/pkg/extensions/accounting/xero"
	"github.com/flaboy/aira-books/pkg/types"
)

// Lookup where-clauses are bounded by URL length, so reference and SKU
// filters use smaller chunks than write batches.

// findInvoicesByReference looks up invoices carrying any of the given
// references, across every lifecycle status. The map built from completed
// chunks is returned alongside a chunk error so callers never re-create
// invoices already confirmed to exist.
func (rc *runContext) findInvoicesByReference(ctx context.Context, references []string) (map[string]xero.Invoice, error) {
	invoices := map[string]xero.Invoice{}

	for _, chunk := range chunkSlice(references, rc.syncer.cfg.Sync.ReferenceChunkSize) {
		query := url.Values{}
		query.Set("where", xero.EqualityFilter("Reference", chunk))
		query.Set("Statuses", strings.Join(xero.AllInvoiceStatuses, ","))

		resp, err := rc.syncer.api.Call(ctx, rc.xeroConn, "GET", "Invoices", query, nil)
		if err != nil {
			return invoices, err
		}
		for _, inv := range resp.Invoices {
			if inv.Reference == "" {
				continue
			}
			invoices[inv.Reference] = inv
		}
	}

	return invoices, nil
}

// findItemsBySKU indexes existing items by code. Items without a sales
// account are unusable for invoice lines and are left out of the index so
// the defaults apply instead.
func (rc *runContext) findItemsBySKU(ctx context.Context, skus []string) (map[string]xero.Item, error) {
	items := map[string]xero.Item{}

	for _, chunk := range chunkSlice(skus, rc.syncer.cfg.Sync.SKUChunkSize) {
		query := url.Values{}
		query.Set("where", xero.EqualityFilter("Code", chunk))

		resp, err := rc.syncer.api.Call(ctx, rc.xeroConn, "GET", "Items", query, nil)
		if err != nil {
			return items, err
		}
		for _, item := range resp.Items {
			if item.Code == "" {
				continue
			}
			if item.SalesDetails == nil || item.SalesDetails.AccountCode == "" {
				rc.log.Warn("item has no sales account, falling back to defaults", "sku", item.Code)
				continue
			}
			items[item.Code] = item
		}
	}

	return items, nil
}

// findOrCreateContacts resolves every distinct customer in the orders to a
// ContactID, keyed by contact key. The whole de-duplicated set is POSTed in
// one batch: Xero matches existing contacts by name and echoes them back with
// their IDs, so lookup and creation collapse into the same call. Echoed
// elements are matched back to payloads by exact name first, then by
// case-insensitive email; rejected or unmatched elements are dropped and the
// affected orders skipped later.
func (rc *runContext) findOrCreateContacts(ctx context.Context, orders []types.Order) (map[string]string, error) {
	var keys []string
	payloads := map[string]xero.Contact{}
	for i := range orders {
		key := contactKey(&orders[i])
		if _, seen := payloads[key]; seen {
			continue
		}
		payloads[key] = orderToContactPayload(&orders[i])
		keys = append(keys, key)
	}

	ordered := make([]xero.Contact, 0, len(keys))
	for _, key := range keys {
		ordered = append(ordered, payloads[key])
	}

	resp, err := submitBatch(ctx, rc, "Contacts", ordered)
	if err != nil {
		return nil, err
	}

	contactIDs := map[string]string{}
	for _, echoed := range resp.Contacts {
		if echoed.HasErrors || echoed.ContactID == "" {
			continue
		}
		for i, key := range keys {
			payload := ordered[i]
			if echoed.Name != "" && payload.Name == echoed.Name {
				contactIDs[key] = echoed.ContactID
				break
			}
			if echoed.EmailAddress != "" && strings.EqualFold(payload.EmailAddress, echoed.EmailAddress) {
				contactIDs[key] = echoed.ContactID
				break
			}
		}
	}

	return contactIDs, nil
}

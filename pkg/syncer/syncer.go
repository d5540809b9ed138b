package syncer

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/flaboy/aira-books/pkg/config"
	"github.com/flaboy/aira-books/pkg/errors"
	"github.com/flaboy/aira-books/pkg/events"
	"github.com/flaboy/aira-books/pkg/extensions/accounting/xero"
	"github.com/flaboy/aira-books/pkg/extensions/source"
	"github.com/flaboy/aira-books/pkg/models"
	"github.com/flaboy/aira-books/pkg/runlog"
	"github.com/flaboy/aira-books/pkg/types"
	"gorm.io/gorm"
)

// XeroAPI is the slice of the accounting client the engine depends on.
type XeroAPI interface {
	Call(ctx context.Context, conn *models.XeroConnection, method, endpoint string, query url.Values, payload interface{}) (*xero.Response, error)
}

type Syncer struct {
	api XeroAPI
	db  *gorm.DB
	cfg *config.BooksConfig

	// logHandler receives run log records in addition to the per-run
	// database handler. Defaults to the process logger.
	logHandler slog.Handler
}

func New(api XeroAPI, db *gorm.DB, cfg *config.BooksConfig) *Syncer {
	return &Syncer{
		api:        api,
		db:         db,
		cfg:        cfg,
		logHandler: slog.Default().Handler(),
	}
}

// orderOutcome records an order a step decided not to act on, with the
// reason kept for the run summary. Skips are routine results, not errors.
type orderOutcome struct {
	OrderID int64
	Reason  string
}

// runContext carries the per-invocation state shared by the pipeline steps.
type runContext struct {
	syncer     *Syncer
	sourceConn *models.SourceConnection
	xeroConn   *models.XeroConnection
	run        *models.SyncRun
	log        *slog.Logger

	skipped            []orderOutcome
	successfulInvoices int
	failedInvoices     int
}

func (rc *runContext) skip(level slog.Level, orderID int64, reason string) {
	rc.skipped = append(rc.skipped, orderOutcome{OrderID: orderID, Reason: reason})
	rc.log.Log(context.Background(), level, "order skipped", "order_id", orderID, "reason", reason)
}

// Run synchronizes a team's recent orders into its Xero organisation and
// returns the finalized ledger row. Configuration problems surface before
// any ledger row or API call is made; past that point every failure is
// recorded on the run.
func (s *Syncer) Run(ctx context.Context, teamID uint) (*models.SyncRun, error) {
	sourceConn := &models.SourceConnection{}
	if err := s.db.Where("team_id = ?", teamID).First(sourceConn).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrWooCommerceNotConfigured
		}
		return nil, err
	}
	platform := source.Get(sourceConn.Platform)
	if platform == nil {
		return nil, errors.ErrSourceNotSupported
	}

	xeroConn := &models.XeroConnection{}
	if err := s.db.Where("team_id = ?", teamID).First(xeroConn).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrXeroNotConnected
		}
		return nil, err
	}
	if !xeroConn.Connected() {
		return nil, errors.ErrXeroNotConnected
	}

	run, err := models.StartRun(s.db, teamID)
	if err != nil {
		return nil, err
	}

	rc := &runContext{
		syncer:     s,
		sourceConn: sourceConn,
		xeroConn:   xeroConn,
		run:        run,
		log:        runlog.Logger(s.db, run.ID, s.logHandler),
	}
	rc.log.Info("sync run started", "team_id", teamID)

	if err := s.execute(ctx, rc, platform); err != nil {
		return run, err
	}
	return run, nil
}

// fail finalizes the run as Failure, attributing the error to the step that
// raised it, and emits the failure event.
func (rc *runContext) fail(step string, cause error) error {
	rc.log.Error("sync run failed", "step", step, "error", cause)
	if err := rc.run.FinishFailure(rc.syncer.db, cause, step, rc.successfulInvoices, rc.failedInvoices); err != nil {
		rc.log.Error("failed to finalize run", "error", err)
	}
	if err := events.EmitSyncFailed(&types.SyncFailedEvent{
		TeamID:    rc.run.TeamID,
		SyncRunID: rc.run.ID,
		Error:     cause.Error(),
		CreatedAt: time.Now(),
	}); err != nil {
		rc.log.Error("failed to emit sync failed event", "error", err)
	}
	return cause
}

// succeed finalizes the run as Success and emits the completion event.
func (rc *runContext) succeed() error {
	if err := rc.run.FinishSuccess(rc.syncer.db, rc.successfulInvoices, rc.failedInvoices); err != nil {
		rc.log.Error("failed to finalize run", "error", err)
	}
	rc.log.Info("sync run completed",
		"total_orders", rc.run.TotalOrders,
		"successful_invoices", rc.successfulInvoices,
		"failed_invoices", rc.failedInvoices,
		"skipped_orders", len(rc.skipped))
	if err := events.EmitSyncCompleted(&types.SyncCompletedEvent{
		TeamID:             rc.run.TeamID,
		SyncRunID:          rc.run.ID,
		TotalOrders:        rc.run.TotalOrders,
		SuccessfulInvoices: rc.successfulInvoices,
		FailedInvoices:     rc.failedInvoices,
		CreatedAt:          time.Now(),
	}); err != nil {
		rc.log.Error("failed to emit sync completed event", "error", err)
	}
	return nil
}

func (s *Syncer) execute(ctx context.Context, rc *runContext, platform source.SourcePlatform) error {
	orders, err := platform.FetchRecentOrders(ctx, rc.sourceConn, types.FetchOptions{
		Days:      s.cfg.Sync.Days,
		MaxOrders: s.cfg.Sync.MaxOrders,
	})
	if err != nil {
		return rc.fail("fetch_orders", err)
	}
	if err := rc.run.SetTotalOrders(s.db, len(orders)); err != nil {
		return rc.fail("fetch_orders", err)
	}
	rc.log.Info("fetched orders", "count", len(orders))
	if len(orders) == 0 {
		return rc.succeed()
	}

	// Pass 0: which orders already have invoices, and in what state?
	references := make([]string, 0, len(orders))
	for i := range orders {
		references = append(references, orderReference(&orders[i]))
	}
	existingInvoices, err := rc.findInvoicesByReference(ctx, references)
	if err != nil {
		return rc.fail("reconcile_invoices", err)
	}

	// A PAID invoice means the order is fully synced; drop it from the run.
	pending := make([]types.Order, 0, len(orders))
	for i := range orders {
		inv, ok := existingInvoices[orderReference(&orders[i])]
		if ok && inv.Status == xero.InvoiceStatusPaid {
			rc.skip(slog.LevelInfo, orders[i].ID, "invoice already paid")
			continue
		}
		pending = append(pending, orders[i])
	}
	if len(pending) == 0 {
		rc.log.Info("no orders left to process")
		return rc.succeed()
	}

	itemIndex, err := rc.ensureItems(ctx, pending)
	if err != nil {
		return rc.fail("reconcile_items", err)
	}

	contactIDs, err := rc.findOrCreateContacts(ctx, pending)
	if err != nil {
		return rc.fail("reconcile_contacts", err)
	}

	if err := rc.createInvoices(ctx, pending, existingInvoices, itemIndex, contactIDs); err != nil {
		return rc.fail("create_invoices", err)
	}

	// Re-read after creation: payments need real InvoiceIDs, including for
	// invoices that existed before this run.
	pendingRefs := make([]string, 0, len(pending))
	for i := range pending {
		pendingRefs = append(pendingRefs, orderReference(&pending[i]))
	}
	finalInvoices, err := rc.findInvoicesByReference(ctx, pendingRefs)
	if err != nil {
		return rc.fail("reconcile_invoices_final", err)
	}

	if err := rc.createPayments(ctx, pending, finalInvoices); err != nil {
		return rc.fail("create_payments", err)
	}

	return rc.succeed()
}

// ensureItems builds the SKU index, creating missing items first so that
// invoice lines can reference real item codes with real sales accounts.
func (rc *runContext) ensureItems(ctx context.Context, orders []types.Order) (map[string]xero.Item, error) {
	details, skus := collectSKUDetails(orders)
	if len(skus) == 0 {
		return map[string]xero.Item{}, nil
	}

	itemIndex, err := rc.findItemsBySKU(ctx, skus)
	if err != nil {
		return nil, err
	}

	var missing []xero.Item
	for _, sku := range skus {
		if _, ok := itemIndex[sku]; ok {
			continue
		}
		missing = append(missing, skuToItemPayload(sku, details[sku],
			rc.syncer.cfg.Sync.DefaultAccountCode, rc.syncer.cfg.Sync.DefaultTaxType))
	}
	if len(missing) == 0 {
		return itemIndex, nil
	}

	rc.log.Info("creating missing items", "count", len(missing))
	if _, err := submitBatch(ctx, rc, "Items", missing); err != nil {
		return nil, err
	}

	// Re-read rather than trusting the creation echo, so every indexed item
	// carries its server-side sales details.
	return rc.findItemsBySKU(ctx, skus)
}

// createInvoices posts invoices for the orders that do not already have one.
// Orders whose contact could not be resolved are skipped; the failure counter
// only reflects rejections reported in the API response.
func (rc *runContext) createInvoices(ctx context.Context, orders []types.Order, existingInvoices map[string]xero.Invoice, itemIndex map[string]xero.Item, contactIDs map[string]string) error {
	salesAccount := rc.xeroConn.SalesAccountCode
	if salesAccount == "" {
		salesAccount = rc.syncer.cfg.Sync.DefaultAccountCode
	}
	shippingAccount := rc.xeroConn.ShippingAccountCode
	if shippingAccount == "" {
		shippingAccount = salesAccount
	}

	var payloads []xero.Invoice
	for i := range orders {
		order := &orders[i]
		if _, ok := existingInvoices[orderReference(order)]; ok {
			rc.log.Info("invoice already exists, skipping creation", "order_id", order.ID)
			continue
		}
		contactID := contactIDs[contactKey(order)]
		if contactID == "" {
			rc.skip(slog.LevelError, order.ID, "no contact resolved")
			continue
		}
		payloads = append(payloads, orderToInvoicePayload(order, contactID, itemIndex,
			salesAccount, shippingAccount, rc.syncer.cfg.Sync.DefaultTaxType))
	}
	if len(payloads) == 0 {
		return nil
	}

	rc.log.Info("creating invoices", "count", len(payloads))
	resp, err := submitBatch(ctx, rc, "Invoices", payloads)
	for _, inv := range resp.Invoices {
		if !inv.HasErrors && inv.Status == xero.InvoiceStatusAuthorised {
			rc.successfulInvoices++
		} else if inv.HasErrors {
			rc.failedInvoices++
		}
	}
	return err
}

// createPayments applies payments for paid orders whose invoice is present
// and not yet PAID. An unmapped payment method skips the order.
func (rc *runContext) createPayments(ctx context.Context, orders []types.Order, invoices map[string]xero.Invoice) error {
	var payloads []xero.Payment
	for i := range orders {
		order := &orders[i]
		if !order.Status.Paid() {
			rc.log.Debug("order not paid, no payment", "order_id", order.ID, "status", order.Status)
			continue
		}
		inv, ok := invoices[orderReference(order)]
		if !ok || inv.InvoiceID == "" {
			rc.skip(slog.LevelWarn, order.ID, "no invoice found for paid order")
			continue
		}
		if inv.Status == xero.InvoiceStatusPaid {
			continue
		}
		accountCode := rc.sourceConn.PaymentAccountCode(order.PaymentMethod)
		if accountCode == "" {
			rc.skip(slog.LevelError, order.ID, "payment method "+order.PaymentMethod+" has no account mapping")
			continue
		}
		payloads = append(payloads, orderToPaymentPayload(order, inv.InvoiceID, accountCode))
	}
	if len(payloads) == 0 {
		return nil
	}

	rc.log.Info("creating payments", "count", len(payloads))
	_, err := submitBatch(ctx, rc, "Payments", payloads)
	return err
}

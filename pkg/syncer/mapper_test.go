package syncer

import (
	"testing"
	"time"

	"github.com/flaboy/aira-books/pkg/extensions/accounting/xero"
	"github.com/flaboy/aira-books/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrder() types.Order {
	return types.Order{
		ID:                 1001,
		Number:             "1001",
		Status:             types.OrderStatusProcessing,
		Currency:           "NZD",
		Total:              decimal.NewFromFloat(50.00),
		TotalTax:           decimal.NewFromFloat(7.50),
		CreatedAt:          time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC),
		PaymentMethod:      "stripe",
		PaymentMethodTitle: "Credit Card (Stripe)",
		Billing: types.OrderAddress{
			FirstName: "Jane",
			LastName:  "Doe",
			Email:     "jane@example.com",
			Phone:     "021-555-000",
			Address1:  "1 Billing St",
			City:      "Auckland",
			Country:   "NZ",
		},
		LineItems: []types.OrderLineItem{
			{SKU: "WIDGET-1", Name: "Widget", Quantity: 2, Price: decimal.NewFromFloat(25.00), TaxStatus: "taxable"},
		},
	}
}

func TestContactKey(t *testing.T) {
	order := testOrder()
	assert.Equal(t, "jane@example.com", contactKey(&order))

	order.Billing.Email = ""
	assert.Equal(t, "Jane Doe", contactKey(&order))

	order.Billing.FirstName = ""
	order.Billing.LastName = ""
	assert.Equal(t, "Unknown Customer", contactKey(&order))
}

func TestCollectSKUDetailsFirstSeenWins(t *testing.T) {
	first := testOrder()
	second := testOrder()
	second.ID = 1002
	second.LineItems = []types.OrderLineItem{
		{SKU: "WIDGET-1", Name: "Widget (renamed)", Quantity: 1, Price: decimal.NewFromFloat(99.00)},
		{SKU: "GADGET-2", Name: "Gadget", Quantity: 1, Price: decimal.NewFromFloat(10.00)},
		{SKU: "", Name: "Custom line", Quantity: 1, Price: decimal.NewFromFloat(5.00)},
	}

	details, skus := collectSKUDetails([]types.Order{first, second})

	assert.Equal(t, []string{"WIDGET-1", "GADGET-2"}, skus)
	assert.Equal(t, "Widget", details["WIDGET-1"].Name)
	assert.True(t, details["WIDGET-1"].Price.Equal(decimal.NewFromFloat(25.00)))
}

func TestOrderToContactPayloadPrefersShippingAddress(t *testing.T) {
	order := testOrder()
	order.Shipping = types.OrderAddress{
		Address1: "2 Shipping Rd",
		City:     "Wellington",
		Country:  "NZ",
	}

	contact := orderToContactPayload(&order)

	assert.Equal(t, "Jane Doe", contact.Name)
	assert.Equal(t, "jane@example.com", contact.EmailAddress)
	require.Len(t, contact.Addresses, 1)
	assert.Equal(t, "2 Shipping Rd", contact.Addresses[0].AddressLine1)
	assert.Equal(t, "Wellington", contact.Addresses[0].City)

	// Empty shipping primary line falls back to billing.
	order.Shipping = types.OrderAddress{City: "Nowhere"}
	contact = orderToContactPayload(&order)
	assert.Equal(t, "1 Billing St", contact.Addresses[0].AddressLine1)
	assert.Equal(t, "Auckland", contact.Addresses[0].City)
}

func TestSkuToItemPayload(t *testing.T) {
	item := skuToItemPayload("WIDGET-1", skuDetails{
		Name:      "Widget",
		Price:     decimal.NewFromFloat(25.00),
		TaxStatus: "taxable",
	}, "200", "NONE")

	assert.Equal(t, "WIDGET-1", item.Code)
	assert.Equal(t, "Automated creation for SKU: WIDGET-1", item.Description)
	assert.True(t, item.IsSold)
	assert.False(t, item.IsTrackedAsInventory)
	require.NotNil(t, item.SalesDetails)
	assert.Equal(t, "200", item.SalesDetails.AccountCode)
	assert.Equal(t, "OUTPUT", item.SalesDetails.TaxType)
	assert.Equal(t, 25.00, item.SalesDetails.UnitPrice)

	nonTaxable := skuToItemPayload("GADGET-2", skuDetails{Name: "Gadget"}, "200", "NONE")
	assert.Equal(t, "NONE", nonTaxable.SalesDetails.TaxType)
}

func TestOrderToInvoicePayload(t *testing.T) {
	order := testOrder()
	order.ShippingLines = []types.OrderShippingLine{
		{MethodTitle: "Courier", Total: decimal.NewFromFloat(8.00)},
	}
	order.FeeLines = []types.OrderFeeLine{
		{Name: "Handling", Total: decimal.NewFromFloat(1.50)},
	}

	itemIndex := map[string]xero.Item{
		"WIDGET-1": {
			Code:         "WIDGET-1",
			SalesDetails: &xero.SalesDetails{AccountCode: "210", TaxType: "OUTPUT"},
		},
	}

	inv := orderToInvoicePayload(&order, "contact-1", itemIndex, "200", "250", "NONE")

	assert.Equal(t, "ACCREC", inv.Type)
	assert.Equal(t, "AUTHORISED", inv.Status)
	assert.Equal(t, "1001", inv.Reference)
	assert.Equal(t, "2024-03-10", inv.Date)
	assert.Equal(t, "2024-03-17", inv.DueDate)
	assert.Equal(t, "contact-1", inv.Contact.ContactID)
	assert.Equal(t, "Exclusive", inv.LineAmountTypes)
	require.Len(t, inv.LineItems, 3)

	product := inv.LineItems[0]
	assert.Equal(t, "WIDGET-1", product.ItemCode)
	assert.Equal(t, "210", product.AccountCode)
	assert.Equal(t, "OUTPUT", product.TaxType)
	assert.Equal(t, 2.0, product.Quantity)
	assert.Equal(t, 25.00, product.UnitAmount)

	shipping := inv.LineItems[1]
	assert.Equal(t, "Shipping: Courier", shipping.Description)
	assert.Equal(t, "250", shipping.AccountCode)
	assert.Equal(t, "NONE", shipping.TaxType)

	fee := inv.LineItems[2]
	assert.Equal(t, "Fee: Handling", fee.Description)
	assert.Equal(t, "200", fee.AccountCode)
}

func TestOrderToInvoicePayloadUnknownSKUUsesDefaults(t *testing.T) {
	order := testOrder()
	inv := orderToInvoicePayload(&order, "contact-1", map[string]xero.Item{}, "200", "250", "NONE")

	require.Len(t, inv.LineItems, 1)
	assert.Equal(t, "200", inv.LineItems[0].AccountCode)
	assert.Equal(t, "NONE", inv.LineItems[0].TaxType)
}

func TestOrderToPaymentPayload(t *testing.T) {
	order := testOrder()
	payment := orderToPaymentPayload(&order, "inv-1", "090")

	assert.Equal(t, "inv-1", payment.Invoice.InvoiceID)
	assert.Equal(t, "090", payment.Account.Code)
	assert.Equal(t, 57.50, payment.Amount)
	assert.Equal(t, "Payment: Credit Card (Stripe)", payment.Reference)
	assert.Equal(t, "2024-03-10", payment.Date)

	paidAt := time.Date(2024, 3, 12, 15, 0, 0, 0, time.UTC)
	order.PaidAt = &paidAt
	payment = orderToPaymentPayload(&order, "inv-1", "090")
	assert.Equal(t, "2024-03-12", payment.Date)
}

package syncer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/flaboy/aira-books/pkg/extensions/accounting/xero"
	"github.com/flaboy/aira-books/pkg/types"
	"github.com/shopspring/decimal"
)

const (
	xeroDateLayout = "2006-01-02"

	invoiceTypeSales = "ACCREC"
	// Invoices must be authorised, not draft, for payments to apply.
	invoiceCreateStatus  = "AUTHORISED"
	lineAmountsExclusive = "Exclusive"

	// Default sales tax rate for taxable items.
	taxTypeOutput = "OUTPUT"

	invoiceDueDays = 7

	fallbackContactKey = "Unknown Customer"
)

// skuDetails carries the first-seen name/price/tax status for a SKU across
// all orders in a run.
type skuDetails struct {
	Name      string
	Price     decimal.Decimal
	TaxStatus string
}

// collectSKUDetails gathers every SKU referenced by the orders' line items,
// retaining the first-seen details per SKU. Returns the details map and the
// SKUs in first-seen order.
func collectSKUDetails(orders []types.Order) (map[string]skuDetails, []string) {
	details := map[string]skuDetails{}
	var skus []string
	for _, order := range orders {
		for _, item := range order.LineItems {
			if item.SKU == "" {
				continue
			}
			if _, seen := details[item.SKU]; seen {
				continue
			}
			details[item.SKU] = skuDetails{
				Name:      item.Name,
				Price:     item.Price,
				TaxStatus: item.TaxStatus,
			}
			skus = append(skus, item.SKU)
		}
	}
	return details, skus
}

// contactKey is the idempotency key for a customer: email when present,
// otherwise the trimmed full name, otherwise a sentinel.
func contactKey(order *types.Order) string {
	if order.Billing.Email != "" {
		return order.Billing.Email
	}
	if name := fullName(order); name != "" {
		return name
	}
	return fallbackContactKey
}

func fullName(order *types.Order) string {
	return strings.TrimSpace(order.Billing.FirstName + " " + order.Billing.LastName)
}

func orderReference(order *types.Order) string {
	return strconv.FormatInt(order.ID, 10)
}

func orderToContactPayload(order *types.Order) xero.Contact {
	billing := order.Billing

	// Shipping address is preferred; an empty primary line means the
	// customer shipped nowhere useful and billing takes over.
	address := order.Shipping
	if address.Address1 == "" {
		address = billing
	}

	return xero.Contact{
		Name:         fullName(order),
		FirstName:    billing.FirstName,
		LastName:     billing.LastName,
		EmailAddress: billing.Email,
		Phones: []xero.Phone{
			{PhoneType: "DEFAULT", PhoneNumber: billing.Phone},
		},
		Addresses: []xero.Address{
			{
				AddressType:  "STREET",
				AddressLine1: address.Address1,
				AddressLine2: address.Address2,
				City:         address.City,
				Region:       address.State,
				PostalCode:   address.Postcode,
				Country:      address.Country,
			},
		},
	}
}

// skuToItemPayload maps a SKU to a minimal sales-only item: sellable, not
// tracked as inventory, no purchase details.
func skuToItemPayload(sku string, details skuDetails, defaultAccountCode, defaultTaxType string) xero.Item {
	taxType := defaultTaxType
	if details.TaxStatus == "taxable" {
		taxType = taxTypeOutput
	}
	price, _ := details.Price.Float64()

	return xero.Item{
		Code:                 sku,
		Name:                 details.Name,
		Description:          fmt.Sprintf("Automated creation for SKU: %s", sku),
		IsSold:               true,
		IsTrackedAsInventory: false,
		SalesDetails: &xero.SalesDetails{
			UnitPrice:   price,
			AccountCode: defaultAccountCode,
			TaxType:     taxType,
		},
	}
}

// orderToInvoicePayload builds the invoice for an order. Line account and
// tax resolution comes from the item index when the SKU is known there;
// otherwise the default sales account and tax type apply, so an unknown
// SKU never blocks invoice creation.
func orderToInvoicePayload(order *types.Order, contactID string, itemIndex map[string]xero.Item, salesAccountCode, shippingAccountCode, defaultTaxType string) xero.Invoice {
	lineItems := make([]xero.LineItem, 0, len(order.LineItems)+len(order.ShippingLines)+len(order.FeeLines))

	for _, item := range order.LineItems {
		accountCode := salesAccountCode
		taxType := defaultTaxType
		if xeroItem, ok := itemIndex[item.SKU]; ok && xeroItem.SalesDetails != nil {
			if xeroItem.SalesDetails.AccountCode != "" {
				accountCode = xeroItem.SalesDetails.AccountCode
			}
			if xeroItem.SalesDetails.TaxType != "" {
				taxType = xeroItem.SalesDetails.TaxType
			}
		}

		price, _ := item.Price.Float64()
		lineItems = append(lineItems, xero.LineItem{
			Description: item.Name,
			Quantity:    float64(item.Quantity),
			UnitAmount:  price,
			AccountCode: accountCode,
			TaxType:     taxType,
			ItemCode:    item.SKU,
		})
	}

	for _, line := range order.ShippingLines {
		total, _ := line.Total.Float64()
		lineItems = append(lineItems, xero.LineItem{
			Description: "Shipping: " + line.MethodTitle,
			Quantity:    1,
			UnitAmount:  total,
			AccountCode: shippingAccountCode,
			TaxType:     defaultTaxType,
		})
	}

	for _, fee := range order.FeeLines {
		total, _ := fee.Total.Float64()
		lineItems = append(lineItems, xero.LineItem{
			Description: "Fee: " + fee.Name,
			Quantity:    1,
			UnitAmount:  total,
			AccountCode: salesAccountCode,
			TaxType:     defaultTaxType,
		})
	}

	return xero.Invoice{
		Type:            invoiceTypeSales,
		Contact:         &xero.ContactRef{ContactID: contactID},
		Date:            order.CreatedAt.Format(xeroDateLayout),
		DueDate:         order.CreatedAt.AddDate(0, 0, invoiceDueDays).Format(xeroDateLayout),
		Reference:       orderReference(order),
		Status:          invoiceCreateStatus,
		LineItems:       lineItems,
		InvoiceNumber:   order.Number,
		CurrencyCode:    order.Currency,
		LineAmountTypes: lineAmountsExclusive,
	}
}

// orderToPaymentPayload maps an order to a payment applying its full value
// (net plus tax, major currency units) against the invoice.
func orderToPaymentPayload(order *types.Order, invoiceID, accountCode string) xero.Payment {
	paymentDate := order.CreatedAt
	if order.PaidAt != nil {
		paymentDate = *order.PaidAt
	}

	total, _ := order.Total.Add(order.TotalTax).Float64()

	return xero.Payment{
		Invoice:      &xero.InvoiceRef{InvoiceID: invoiceID},
		Account:      &xero.AccountRef{Code: accountCode},
		Date:         paymentDate.Format(xeroDateLayout),
		Amount:       total,
		Reference:    "Payment: " + order.PaymentMethodTitle,
		CurrencyCode: order.Currency,
	}
}

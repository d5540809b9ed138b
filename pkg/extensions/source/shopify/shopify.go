package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/flaboy/aira-books/pkg/errors"
	"github.com/flaboy/aira-books/pkg/models"
	"github.com/flaboy/aira-books/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

type Shopify struct{}

type Credential struct {
	AccessToken string `json:"access_token"`
}

func (p *Shopify) GetPlatformName() string {
	return "shopify"
}

func (p *Shopify) client(conn *models.SourceConnection) (*goshopify.Client, error) {
	if conn.StoreURL == "" || len(conn.Credentials) == 0 {
		return nil, errors.ErrSourceCredentials
	}
	creds := &Credential{}
	if err := json.Unmarshal(conn.Credentials, creds); err != nil {
		return nil, errors.ErrSourceCredentials
	}
	if creds.AccessToken == "" {
		return nil, errors.ErrSourceCredentials
	}

	domain := strings.TrimPrefix(strings.TrimPrefix(conn.StoreURL, "https://"), "http://")
	domain = strings.TrimRight(domain, "/")

	httpClient := &http.Client{Timeout: 30 * time.Second}
	return goshopify.NewClient(goshopify.App{}, domain, creds.AccessToken, goshopify.WithHTTPClient(httpClient))
}

func (p *Shopify) TestConnection(ctx context.Context, conn *models.SourceConnection) error {
	client, err := p.client(conn)
	if err != nil {
		return err
	}
	if _, err := client.Shop.Get(ctx, nil); err != nil {
		return fmt.Errorf("failed to get shop info: %w", err)
	}
	return nil
}

// FetchRecentOrders lists paid orders created within the window and maps
// them into the platform-neutral order shape.
func (p *Shopify) FetchRecentOrders(ctx context.Context, conn *models.SourceConnection, opts types.FetchOptions) ([]types.Order, error) {
	client, err := p.client(conn)
	if err != nil {
		return nil, err
	}

	options := goshopify.OrderListOptions{
		ListOptions: goshopify.ListOptions{
			Limit:        opts.MaxOrders,
			CreatedAtMin: time.Now().AddDate(0, 0, -opts.Days).UTC(),
			Order:        "created_at asc",
		},
		Status:          "any",
		FinancialStatus: "paid",
	}

	shopifyOrders, err := client.Order.List(ctx, options)
	if err != nil {
		return nil, fmt.Errorf("failed to list shopify orders: %w", err)
	}

	orders := make([]types.Order, 0, len(shopifyOrders))
	for _, o := range shopifyOrders {
		orders = append(orders, toOrder(&o))
	}
	return orders, nil
}

func amount(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func toAddress(addr *goshopify.Address, email, phone string) types.OrderAddress {
	if addr == nil {
		return types.OrderAddress{Email: email, Phone: phone}
	}
	return types.OrderAddress{
		FirstName: addr.FirstName,
		LastName:  addr.LastName,
		Company:   addr.Company,
		Address1:  addr.Address1,
		Address2:  addr.Address2,
		City:      addr.City,
		State:     addr.Province,
		Postcode:  addr.Zip,
		Country:   addr.Country,
		Email:     email,
		Phone:     phone,
	}
}

func toOrder(o *goshopify.Order) types.Order {
	// A listed order with financial_status=paid is equivalent to a
	// WooCommerce order in "processing".
	order := types.Order{
		ID:                 int64(o.Id),
		Number:             cast.ToString(o.OrderNumber),
		Status:             types.OrderStatusProcessing,
		Currency:           o.Currency,
		Total:              amount(o.TotalPrice),
		TotalTax:           amount(o.TotalTax),
		PaymentMethod:      o.Gateway,
		PaymentMethodTitle: o.Gateway,
		Billing:            toAddress(o.BillingAddress, o.Email, o.Phone),
		Shipping:           toAddress(o.ShippingAddress, "", ""),
	}

	if o.CreatedAt != nil {
		order.CreatedAt = *o.CreatedAt
	}
	if o.ProcessedAt != nil {
		order.PaidAt = o.ProcessedAt
	}

	for _, item := range o.LineItems {
		taxStatus := "none"
		if item.Taxable {
			taxStatus = "taxable"
		}
		order.LineItems = append(order.LineItems, types.OrderLineItem{
			SKU:       item.SKU,
			Name:      item.Title,
			Quantity:  item.Quantity,
			Price:     amount(item.Price),
			Subtotal:  amount(item.Price).Mul(decimal.New(int64(item.Quantity), 0)),
			TaxStatus: taxStatus,
		})
	}
	for _, line := range o.ShippingLines {
		order.ShippingLines = append(order.ShippingLines, types.OrderShippingLine{
			MethodTitle: line.Title,
			Total:       amount(line.Price),
		})
	}
	return order
}

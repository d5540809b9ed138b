package woocommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/flaboy/aira-books/pkg/errors"
	"github.com/flaboy/aira-books/pkg/models"
	"github.com/flaboy/aira-books/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Orders ready for accounting: paid or in fulfilment.
var syncStatuses = []string{"processing", "completed"}

type WooCommerce struct{}

type Credential struct {
	ConsumerKey    string `json:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret"`
}

func (p *WooCommerce) GetPlatformName() string {
	return "woocommerce"
}

func (p *WooCommerce) httpClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}

func (p *WooCommerce) credentials(conn *models.SourceConnection) (*Credential, error) {
	if conn.StoreURL == "" || len(conn.Credentials) == 0 {
		return nil, errors.ErrWooCommerceNotConfigured
	}
	creds := &Credential{}
	if err := json.Unmarshal(conn.Credentials, creds); err != nil {
		return nil, errors.ErrSourceCredentials
	}
	if creds.ConsumerKey == "" || creds.ConsumerSecret == "" {
		return nil, errors.ErrWooCommerceNotConfigured
	}
	return creds, nil
}

func (p *WooCommerce) get(ctx context.Context, conn *models.SourceConnection, path string, query url.Values) ([]byte, int, error) {
	creds, err := p.credentials(conn)
	if err != nil {
		return nil, 0, err
	}

	endpoint := strings.TrimRight(conn.StoreURL, "/") + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, err
	}
	req.SetBasicAuth(creds.ConsumerKey, creds.ConsumerSecret)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient().Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("woocommerce request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read woocommerce response: %w", err)
	}
	return data, resp.StatusCode, nil
}

func (p *WooCommerce) TestConnection(ctx context.Context, conn *models.SourceConnection) error {
	data, status, err := p.get(ctx, conn, "/wp-json/wc/v3/system_status", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("woocommerce api error: HTTP %d", status)
	}
	var body struct {
		Environment *struct {
			SiteName string `json:"site_name"`
		} `json:"environment"`
	}
	if err := json.Unmarshal(data, &body); err != nil || body.Environment == nil {
		return fmt.Errorf("connection succeeded but response format was unexpected, check key permissions")
	}
	return nil
}

type ConnectionStatus struct {
	Configured bool   `json:"configured"`
	Connected  bool   `json:"connected"`
	StoreURL   string `json:"store_url"`
	Message    string `json:"message"`
}

// ConnectionStatus reports whether the store credentials are present and
// whether the store currently answers with them.
func (p *WooCommerce) ConnectionStatus(ctx context.Context, conn *models.SourceConnection) ConnectionStatus {
	status := ConnectionStatus{StoreURL: conn.StoreURL, Message: "WooCommerce credentials are not configured."}
	if _, err := p.credentials(conn); err != nil {
		return status
	}
	status.Configured = true
	if err := p.TestConnection(ctx, conn); err != nil {
		status.Message = err.Error()
		return status
	}
	status.Connected = true
	status.Message = "Successfully connected to the WooCommerce store."
	return status
}

// FetchRecentOrders retrieves processing/completed orders created within
// the window, oldest first. The result is a finite page bounded by
// opts.MaxOrders, never a lazy stream.
func (p *WooCommerce) FetchRecentOrders(ctx context.Context, conn *models.SourceConnection, opts types.FetchOptions) ([]types.Order, error) {
	after := time.Now().AddDate(0, 0, -opts.Days).UTC().Format(time.RFC3339)

	query := url.Values{}
	query.Set("status", strings.Join(syncStatuses, ","))
	query.Set("after", after)
	query.Set("per_page", cast.ToString(opts.MaxOrders))
	query.Set("orderby", "date")
	query.Set("order", "asc")

	data, status, err := p.get(ctx, conn, "/wp-json/wc/v3/orders", query)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		message := "WooCommerce API error."
		var errBody struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &errBody) == nil && errBody.Message != "" {
			message = errBody.Message
		}
		return nil, fmt.Errorf("failed to fetch orders from woocommerce: [HTTP %d] %s", status, message)
	}

	var wireOrders []wcOrder
	if err := json.Unmarshal(data, &wireOrders); err != nil {
		return nil, fmt.Errorf("failed to decode woocommerce orders: %w", err)
	}

	orders := make([]types.Order, 0, len(wireOrders))
	for _, wire := range wireOrders {
		orders = append(orders, wire.toOrder())
	}

	slog.Info("Retrieved WooCommerce orders", "team_id", conn.TeamID, "count", len(orders))
	return orders, nil
}

type wcAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type wcLineItem struct {
	SKU       string      `json:"sku"`
	Name      string      `json:"name"`
	Quantity  int         `json:"quantity"`
	Price     interface{} `json:"price"`
	Subtotal  string      `json:"subtotal"`
	TaxStatus string      `json:"tax_status"`
}

type wcShippingLine struct {
	MethodTitle string `json:"method_title"`
	Total       string `json:"total"`
}

type wcFeeLine struct {
	Name  string `json:"name"`
	Total string `json:"total"`
}

type wcOrder struct {
	ID                 int64            `json:"id"`
	Number             string           `json:"number"`
	Status             string           `json:"status"`
	Currency           string           `json:"currency"`
	Total              string           `json:"total"`
	TotalTax           string           `json:"total_tax"`
	DateCreatedGMT     string           `json:"date_created_gmt"`
	DatePaidGMT        string           `json:"date_paid_gmt"`
	PaymentMethod      string           `json:"payment_method"`
	PaymentMethodTitle string           `json:"payment_method_title"`
	Billing            wcAddress        `json:"billing"`
	Shipping           wcAddress        `json:"shipping"`
	LineItems          []wcLineItem     `json:"line_items"`
	ShippingLines      []wcShippingLine `json:"shipping_lines"`
	FeeLines           []wcFeeLine      `json:"fee_lines"`
}

// WooCommerce serializes GMT dates without a zone suffix.
const wcTimeLayout = "2006-01-02T15:04:05"

func parseTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(wcTimeLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func parseAmount(value interface{}) decimal.Decimal {
	d, err := decimal.NewFromString(cast.ToString(value))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (w *wcOrder) toOrder() types.Order {
	order := types.Order{
		ID:                 w.ID,
		Number:             w.Number,
		Status:             types.OrderStatus(w.Status),
		Currency:           w.Currency,
		Total:              parseAmount(w.Total),
		TotalTax:           parseAmount(w.TotalTax),
		PaymentMethod:      w.PaymentMethod,
		PaymentMethodTitle: w.PaymentMethodTitle,
		Billing:            types.OrderAddress(w.Billing),
		Shipping:           types.OrderAddress(w.Shipping),
	}

	if t, ok := parseTime(w.DateCreatedGMT); ok {
		order.CreatedAt = t
	}
	if t, ok := parseTime(w.DatePaidGMT); ok {
		order.PaidAt = &t
	}

	for _, item := range w.LineItems {
		order.LineItems = append(order.LineItems, types.OrderLineItem{
			SKU:       item.SKU,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     parseAmount(item.Price),
			Subtotal:  parseAmount(item.Subtotal),
			TaxStatus: item.TaxStatus,
		})
	}
	for _, line := range w.ShippingLines {
		order.ShippingLines = append(order.ShippingLines, types.OrderShippingLine{
			MethodTitle: line.MethodTitle,
			Total:       parseAmount(line.Total),
		})
	}
	for _, fee := range w.FeeLines {
		order.FeeLines = append(order.FeeLines, types.OrderFeeLine{
			Name:  fee.Name,
			Total: parseAmount(fee.Total),
		})
	}
	return order
}

package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusOnHold     OrderStatus = "on-hold"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
	OrderStatusFailed     OrderStatus = "failed"
)

// Paid 订单在源平台是否已支付
func (s OrderStatus) Paid() bool {
	return s == OrderStatusProcessing || s == OrderStatusCompleted
}

type OrderAddress struct {
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

type OrderLineItem struct {
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	TaxStatus string          `json:"tax_status"`
}

type OrderShippingLine struct {
	MethodTitle string          `json:"method_title"`
	Total       decimal.Decimal `json:"total"`
}

type OrderFeeLine struct {
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
}

// Order 平台无关的订单数据
type Order struct {
	ID                 int64               `json:"id"`
	Number             string              `json:"number"`
	Status             OrderStatus         `json:"status"`
	Currency           string              `json:"currency"`
	Total              decimal.Decimal     `json:"total"`
	TotalTax           decimal.Decimal     `json:"total_tax"`
	CreatedAt          time.Time           `json:"created_at"`
	PaidAt             *time.Time          `json:"paid_at"`
	PaymentMethod      string              `json:"payment_method"`
	PaymentMethodTitle string              `json:"payment_method_title"`
	Billing            OrderAddress        `json:"billing"`
	Shipping           OrderAddress        `json:"shipping"`
	LineItems          []OrderLineItem     `json:"line_items"`
	ShippingLines      []OrderShippingLine `json:"shipping_lines"`
	FeeLines           []OrderFeeLine      `json:"fee_lines"`
}

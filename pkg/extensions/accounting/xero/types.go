package xero

import (
	"fmt"
	"strings"
)

// Payload and response structures share the same shapes: Xero echoes
// created objects back under the pluralized resource key, each element
// optionally flagged with HasErrors plus validation messages.

type ValidationError struct {
	Message string `json:"Message"`
}

type Phone struct {
	PhoneType   string `json:"PhoneType,omitempty"`
	PhoneNumber string `json:"PhoneNumber,omitempty"`
}

type Address struct {
	AddressType  string `json:"AddressType,omitempty"`
	AddressLine1 string `json:"AddressLine1,omitempty"`
	AddressLine2 string `json:"AddressLine2,omitempty"`
	City         string `json:"City,omitempty"`
	Region       string `json:"Region,omitempty"`
	PostalCode   string `json:"PostalCode,omitempty"`
	Country      string `json:"Country,omitempty"`
}

type Contact struct {
	ContactID        string            `json:"ContactID,omitempty"`
	Name             string            `json:"Name,omitempty"`
	FirstName        string            `json:"FirstName,omitempty"`
	LastName         string            `json:"LastName,omitempty"`
	EmailAddress     string            `json:"EmailAddress,omitempty"`
	Phones           []Phone           `json:"Phones,omitempty"`
	Addresses        []Address         `json:"Addresses,omitempty"`
	HasErrors        bool              `json:"HasErrors,omitempty"`
	ValidationErrors []ValidationError `json:"ValidationErrors,omitempty"`
}

type SalesDetails struct {
	UnitPrice   float64 `json:"UnitPrice,omitempty"`
	AccountCode string  `json:"AccountCode,omitempty"`
	TaxType     string  `json:"TaxType,omitempty"`
}

type Item struct {
	ItemID               string            `json:"ItemID,omitempty"`
	Code                 string            `json:"Code,omitempty"`
	Name                 string            `json:"Name,omitempty"`
	Description          string            `json:"Description,omitempty"`
	IsSold               bool              `json:"IsSold,omitempty"`
	IsTrackedAsInventory bool              `json:"IsTrackedAsInventory"`
	SalesDetails         *SalesDetails     `json:"SalesDetails,omitempty"`
	HasErrors            bool              `json:"HasErrors,omitempty"`
	ValidationErrors     []ValidationError `json:"ValidationErrors,omitempty"`
}

type LineItem struct {
	Description string  `json:"Description,omitempty"`
	Quantity    float64 `json:"Quantity,omitempty"`
	UnitAmount  float64 `json:"UnitAmount"`
	AccountCode string  `json:"AccountCode,omitempty"`
	TaxType     string  `json:"TaxType,omitempty"`
	ItemCode    string  `json:"ItemCode,omitempty"`
}

type ContactRef struct {
	ContactID string `json:"ContactID,omitempty"`
}

type Invoice struct {
	InvoiceID        string            `json:"InvoiceID,omitempty"`
	Type             string            `json:"Type,omitempty"`
	Contact          *ContactRef       `json:"Contact,omitempty"`
	Date             string            `json:"Date,omitempty"`
	DueDate          string            `json:"DueDate,omitempty"`
	InvoiceNumber    string            `json:"InvoiceNumber,omitempty"`
	Reference        string            `json:"Reference,omitempty"`
	Status           string            `json:"Status,omitempty"`
	LineItems        []LineItem        `json:"LineItems,omitempty"`
	CurrencyCode     string            `json:"CurrencyCode,omitempty"`
	LineAmountTypes  string            `json:"LineAmountTypes,omitempty"`
	HasErrors        bool              `json:"HasErrors,omitempty"`
	ValidationErrors []ValidationError `json:"ValidationErrors,omitempty"`
}

type InvoiceRef struct {
	InvoiceID string `json:"InvoiceID,omitempty"`
}

type AccountRef struct {
	Code string `json:"Code,omitempty"`
}

type Payment struct {
	PaymentID        string            `json:"PaymentID,omitempty"`
	Invoice          *InvoiceRef       `json:"Invoice,omitempty"`
	Account          *AccountRef       `json:"Account,omitempty"`
	Date             string            `json:"Date,omitempty"`
	Amount           float64           `json:"Amount"`
	Reference        string            `json:"Reference,omitempty"`
	CurrencyCode     string            `json:"CurrencyCode,omitempty"`
	HasErrors        bool              `json:"HasErrors,omitempty"`
	ValidationErrors []ValidationError `json:"ValidationErrors,omitempty"`
}

type Account struct {
	AccountID    string `json:"AccountID,omitempty"`
	Code         string `json:"Code,omitempty"`
	Name         string `json:"Name,omitempty"`
	Type         string `json:"Type,omitempty"`
	Status       string `json:"Status,omitempty"`
	CurrencyCode string `json:"CurrencyCode,omitempty"`
}

// Invoice lifecycle statuses. Lookups must request all of them so that an
// existing-but-unpaid invoice is distinguishable from a paid one.
const (
	InvoiceStatusDraft      = "DRAFT"
	InvoiceStatusSubmitted  = "SUBMITTED"
	InvoiceStatusAuthorised = "AUTHORISED"
	InvoiceStatusPaid       = "PAID"
)

var AllInvoiceStatuses = []string{
	InvoiceStatusDraft, InvoiceStatusSubmitted, InvoiceStatusAuthorised, InvoiceStatusPaid,
}

// Element is the batch-executor view of a response entry: enough to decide
// whether the provider rejected it and how to attribute the failure.
type Element interface {
	ElementReference() string
	ElementName() string
	ElementFailed() bool
	ElementErrors() []ValidationError
}

func (i *Invoice) ElementReference() string { return i.Reference }
func (i *Invoice) ElementName() string { return i.InvoiceNumber }
func (i *Invoice) ElementFailed() bool { return i.HasErrors }
func (i *Invoice) ElementErrors() []ValidationError { return i.ValidationErrors }
func (c *Contact) ElementReference() string { return "" }
func (c *Contact) ElementName() string { return c.Name }
func (c *Contact) ElementFailed() bool { return c.HasErrors }
func (c *Contact) ElementErrors() []ValidationError { return c.ValidationErrors }
func (it *Item) ElementReference() string { return it.Code }
func (it *Item) ElementName() string { return it.Name }
func (it *Item) ElementFailed() bool { return it.HasErrors }
func (it *Item) ElementErrors() []ValidationError { return it.ValidationErrors }
func (p *Payment) ElementReference() string { return p.Reference }
func (p *Payment) ElementName() string { return p.PaymentID }
func (p *Payment) ElementFailed() bool { return p.HasErrors }
func (p *Payment) ElementErrors() []ValidationError { return p.ValidationErrors }

// Response is the decoded body of any Xero call; only the slice matching
// the requested resource is populated.
type Response struct {
	Invoices []Invoice `json:"Invoices,omitempty"`
	Contacts []Contact `json:"Contacts,omitempty"`
	Items    []Item    `json:"Items,omitempty"`
	Payments []Payment `json:"Payments,omitempty"`
	Accounts []Account `json:"Accounts,omitempty"`
}

// Merge appends the elements of other, preserving submission order across
// chunked calls.
func (r *Response) Merge(other *Response) {
	if other == nil {
		return
	}
	r.Invoices = append(r.Invoices, other.Invoices...)
	r.Contacts = append(r.Contacts, other.Contacts...)
	r.Items = append(r.Items, other.Items...)
	r.Payments = append(r.Payments, other.Payments...)
	r.Accounts = append(r.Accounts, other.Accounts...)
}

// Elements returns the entries for the given endpoint as batch elements.
func (r *Response) Elements(endpoint string) []Element {
	switch endpoint {
	case "Invoices":
		out := make([]Element, len(r.Invoices))
		for i := range r.Invoices {
			out[i] = &r.Invoices[i]
		}
		return out
	case "Contacts":
		out := make([]Element, len(r.Contacts))
		for i := range r.Contacts {
			out[i] = &r.Contacts[i]
		}
		return out
	case "Items":
		out := make([]Element, len(r.Items))
		for i := range r.Items {
			out[i] = &r.Items[i]
		}
		return out
	case "Payments":
		out := make([]Element, len(r.Payments))
		for i := range r.Payments {
			out[i] = &r.Payments[i]
		}
		return out
	}
	return nil
}

// EqualityFilter builds the disjunctive where-expression Xero accepts:
// Field=="v1" || Field=="v2" || ...
func EqualityFilter(field string, values []string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprintf("%s==%q", field, v))
	}
	return strings.Join(parts, " || ")
}

package woocommerce

import (
	"time"

	"github.com/shopspring/decimal"
)

// wooTimeLayout is the GMT timestamp format used by the REST API.
const wooTimeLayout = "2006-01-02T15:04:05"

// wooOrder mirrors the order payload of the WooCommerce v3 REST API. Monetary
// fields arrive as strings.
type wooOrder struct {
	ID              int64         `json:"id"`
	Number          string        `json:"number"`
	Status          string        `json:"status"`
	Currency        string        `json:"currency"`
	DateCreatedGMT  string        `json:"date_created_gmt"`
	DateModifiedGMT string        `json:"date_modified_gmt"`
	Total           string        `json:"total"`
	TotalTax        string        `json:"total_tax"`
	ShippingTotal   string        `json:"shipping_total"`
	ShippingTax     string        `json:"shipping_tax"`
	CustomerID      int64         `json:"customer_id"`
	Billing         wooAddress    `json:"billing"`
	Shipping        wooAddress    `json:"shipping"`
	LineItems       []wooLineItem `json:"line_items"`
	TaxLines        []wooTaxLine  `json:"tax_lines"`
}

type wooAddress struct {
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

type wooLineItem struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	ProductID   int64   `json:"product_id"`
	SKU         string  `json:"sku"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
	Subtotal    string  `json:"subtotal"`
	SubtotalTax string  `json:"subtotal_tax"`
	Total       string  `json:"total"`
	TotalTax    string  `json:"total_tax"`
	TaxClass    string  `json:"tax_class"`
}

type wooTaxLine struct {
	RateID           int64  `json:"rate_id"`
	Label            string `json:"label"`
	RatePercent      string `json:"rate_percent"`
	TaxTotal         string `json:"tax_total"`
	ShippingTaxTotal string `json:"shipping_tax_total"`
}

type wooProduct struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	SKU           string `json:"sku"`
	Price         string `json:"price"`
	StockQuantity *int64 `json:"stock_quantity"`
	ManageStock   bool   `json:"manage_stock"`
	TaxClass      string `json:"tax_class"`
}

type wooTaxClass struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type wooTaxRate struct {
	ID      int64  `json:"id"`
	Country string `json:"country"`
	State   string `json:"state"`
	Rate    string `json:"rate"`
	Name    string `json:"name"`
	Class   string `json:"class"`
}

// wooError is the REST API error envelope.
type wooError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ParseDecimal parses a WooCommerce money string, returning zero for empty or
// malformed values.
func ParseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// parseWooTime parses a GMT timestamp, returning the zero time on failure.
func parseWooTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(wooTimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

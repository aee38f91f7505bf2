package woocommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gescom/backend/internal/domain/commerce"
	"github.com/gescom/backend/internal/domain/tax"
)

// maxResponseSize is the maximum allowed response size from the store (10MB)
const maxResponseSize = 10 * 1024 * 1024

const apiPrefix = "/wp-json/wc/v3"

// Adapter implements the commerce.Platform port against the WooCommerce v3
// REST API using basic auth with consumer key/secret.
type Adapter struct {
	config     *Config
	httpClient *http.Client
}

// NewAdapter creates a WooCommerce adapter with the given configuration.
func NewAdapter(config *Config) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Adapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// ---------------------------------------------------------------------------
// Order operations
// ---------------------------------------------------------------------------

// FetchOrders lists orders matching the query, one page at a time.
func (a *Adapter) FetchOrders(ctx context.Context, query commerce.OrderQuery) ([]commerce.Order, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("context", "edit")
	params.Set("page", strconv.Itoa(query.Page))
	params.Set("per_page", strconv.Itoa(query.PerPage))
	params.Set("order", "asc")
	params.Set("orderby", "date")
	if query.Status != nil {
		params.Set("status", query.Status.String())
	}
	if query.After != nil {
		params.Set("after", query.After.UTC().Format(wooTimeLayout))
	}
	if query.ModifiedAfter != nil {
		params.Set("modified_after", query.ModifiedAfter.UTC().Format(wooTimeLayout))
	}

	body, err := a.doRequest(ctx, http.MethodGet, "/orders", params, nil)
	if err != nil {
		return nil, err
	}

	var wire []wooOrder
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", commerce.ErrPlatformInvalidResponse, err)
	}

	orders := make([]commerce.Order, 0, len(wire))
	for i := range wire {
		orders = append(orders, convertOrder(&wire[i]))
	}
	return orders, nil
}

// GetOrder retrieves a single order by its upstream id.
func (a *Adapter) GetOrder(ctx context.Context, externalID int64) (*commerce.Order, error) {
	body, err := a.doRequest(ctx, http.MethodGet, fmt.Sprintf("/orders/%d", externalID), nil, nil)
	if err != nil {
		return nil, orderNotFoundOr(err)
	}

	var wire wooOrder
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", commerce.ErrPlatformInvalidResponse, err)
	}
	order := convertOrder(&wire)
	return &order, nil
}

// UpdateOrderStatus pushes a status change to the store.
func (a *Adapter) UpdateOrderStatus(ctx context.Context, externalID int64, status commerce.OrderStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("woocommerce: invalid order status %q", status)
	}
	payload := map[string]string{"status": status.String()}
	_, err := a.doRequest(ctx, http.MethodPut, fmt.Sprintf("/orders/%d", externalID), nil, payload)
	return orderNotFoundOr(err)
}

// AddOrderNote attaches a note to the upstream order.
func (a *Adapter) AddOrderNote(ctx context.Context, externalID int64, note string, customerVisible bool) error {
	payload := map[string]any{
		"note":          note,
		"customer_note": customerVisible,
	}
	_, err := a.doRequest(ctx, http.MethodPost, fmt.Sprintf("/orders/%d/notes", externalID), nil, payload)
	return orderNotFoundOr(err)
}

// CreateRefund creates a refund against the upstream order.
func (a *Adapter) CreateRefund(ctx context.Context, externalID int64, req commerce.RefundRequest) error {
	payload := map[string]string{
		"amount": req.Amount.StringFixed(2),
		"reason": req.Reason,
	}
	_, err := a.doRequest(ctx, http.MethodPost, fmt.Sprintf("/orders/%d/refunds", externalID), nil, payload)
	return orderNotFoundOr(err)
}

// ---------------------------------------------------------------------------
// Product operations
// ---------------------------------------------------------------------------

// GetProduct retrieves an upstream product.
func (a *Adapter) GetProduct(ctx context.Context, productID int64) (*commerce.Product, error) {
	body, err := a.doRequest(ctx, http.MethodGet, fmt.Sprintf("/products/%d", productID), nil, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, commerce.ErrProductNotFound
		}
		return nil, err
	}

	var wire wooProduct
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", commerce.ErrPlatformInvalidResponse, err)
	}

	product := &commerce.Product{
		ExternalID:   wire.ID,
		Name:         wire.Name,
		SKU:          wire.SKU,
		Price:        ParseDecimal(wire.Price),
		ManagesStock: wire.ManageStock,
		TaxClass:     wire.TaxClass,
	}
	if wire.StockQuantity != nil {
		product.StockQuantity = *wire.StockQuantity
	}
	return product, nil
}

// UpdateProductStock sets the stock quantity of an upstream product.
func (a *Adapter) UpdateProductStock(ctx context.Context, productID int64, quantity int64) error {
	payload := map[string]any{
		"manage_stock":   true,
		"stock_quantity": quantity,
	}
	_, err := a.doRequest(ctx, http.MethodPut, fmt.Sprintf("/products/%d", productID), nil, payload)
	if isNotFound(err) {
		return commerce.ErrProductNotFound
	}
	return err
}

// ---------------------------------------------------------------------------
// Tax catalog
// ---------------------------------------------------------------------------

// FetchTaxClasses lists the store's tax classes.
func (a *Adapter) FetchTaxClasses(ctx context.Context) ([]tax.TaxClass, error) {
	body, err := a.doRequest(ctx, http.MethodGet, "/products/tax_classes", nil, nil)
	if err != nil {
		return nil, err
	}

	var wire []wooTaxClass
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", commerce.ErrPlatformInvalidResponse, err)
	}

	classes := make([]tax.TaxClass, 0, len(wire))
	for _, c := range wire {
		classes = append(classes, tax.TaxClass{Slug: c.Slug, Name: c.Name})
	}
	return classes, nil
}

// FetchTaxRates lists the store's tax-rate table.
func (a *Adapter) FetchTaxRates(ctx context.Context) ([]tax.TaxRateEntry, error) {
	params := url.Values{}
	params.Set("per_page", "100")

	body, err := a.doRequest(ctx, http.MethodGet, "/taxes", params, nil)
	if err != nil {
		return nil, err
	}

	var wire []wooTaxRate
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", commerce.ErrPlatformInvalidResponse, err)
	}

	entries := make([]tax.TaxRateEntry, 0, len(wire))
	for _, r := range wire {
		entries = append(entries, tax.TaxRateEntry{
			Class:   r.Class,
			Country: r.Country,
			Label:   r.Name,
			Percent: ParseDecimal(r.Rate),
		})
	}
	return entries, nil
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

// doRequest performs one authenticated API call and returns the raw body.
func (a *Adapter) doRequest(ctx context.Context, method, path string, params url.Values, payload any) ([]byte, error) {
	endpoint := a.config.BaseURL + apiPrefix + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("woocommerce: failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("woocommerce: failed to build request: %w", err)
	}
	req.SetBasicAuth(a.config.ConsumerKey, a.config.ConsumerSecret)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", commerce.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("woocommerce: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, mapHTTPError(resp.StatusCode, body)
	}
	return body, nil
}

// mapHTTPError translates an HTTP failure into the platform error vocabulary.
func mapHTTPError(status int, body []byte) error {
	var apiErr wooError
	detail := ""
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
		detail = ": " + apiErr.Message
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d%s", commerce.ErrPlatformAuthFailed, status, detail)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: HTTP %d%s", errHTTPNotFound, status, detail)
	case status >= 500:
		return fmt.Errorf("%w: HTTP %d%s", commerce.ErrPlatformUnavailable, status, detail)
	default:
		return fmt.Errorf("%w: HTTP %d%s", commerce.ErrPlatformRequestFailed, status, detail)
	}
}

// errHTTPNotFound marks a 404 before the caller knows which resource it was
// asking about.
var errHTTPNotFound = errors.New("woocommerce: resource not found")

func isNotFound(err error) bool {
	return errors.Is(err, errHTTPNotFound)
}

func orderNotFoundOr(err error) error {
	if isNotFound(err) {
		return commerce.ErrOrderNotFound
	}
	return err
}

// ---------------------------------------------------------------------------
// Conversion
// ---------------------------------------------------------------------------

func convertOrder(wire *wooOrder) commerce.Order {
	order := commerce.Order{
		ExternalID:    wire.ID,
		Number:        wire.Number,
		Status:        commerce.ParseOrderStatus(wire.Status),
		Currency:      wire.Currency,
		CustomerID:    wire.CustomerID,
		Total:         ParseDecimal(wire.Total),
		TotalTax:      ParseDecimal(wire.TotalTax),
		ShippingTotal: ParseDecimal(wire.ShippingTotal),
		ShippingTax:   ParseDecimal(wire.ShippingTax),
		Billing:       convertAddress(wire.Billing),
		Shipping:      convertAddress(wire.Shipping),
		DateCreated:   parseWooTime(wire.DateCreatedGMT),
		DateModified:  parseWooTime(wire.DateModifiedGMT),
	}

	order.LineItems = make([]commerce.LineItem, 0, len(wire.LineItems))
	for _, item := range wire.LineItems {
		order.LineItems = append(order.LineItems, commerce.LineItem{
			ExternalID:  item.ID,
			ProductID:   item.ProductID,
			Name:        item.Name,
			SKU:         item.SKU,
			Quantity:    decimal.NewFromFloat(item.Quantity),
			UnitPrice:   decimal.NewFromFloat(item.Price),
			Subtotal:    ParseDecimal(item.Subtotal),
			SubtotalTax: ParseDecimal(item.SubtotalTax),
			Total:       ParseDecimal(item.Total),
			TotalTax:    ParseDecimal(item.TotalTax),
			TaxClass:    item.TaxClass,
		})
	}

	order.TaxLines = make([]commerce.TaxLine, 0, len(wire.TaxLines))
	for _, line := range wire.TaxLines {
		order.TaxLines = append(order.TaxLines, commerce.TaxLine{
			RateID:      line.RateID,
			Label:       line.Label,
			RatePercent: ParseDecimal(line.RatePercent),
			TaxTotal:    ParseDecimal(line.TaxTotal),
			ShippingTax: ParseDecimal(line.ShippingTaxTotal),
		})
	}

	return order
}

func convertAddress(wire wooAddress) commerce.Address {
	return commerce.Address{
		FirstName: wire.FirstName,
		LastName:  wire.LastName,
		Company:   wire.Company,
		Address1:  wire.Address1,
		Address2:  wire.Address2,
		City:      wire.City,
		PostCode:  wire.Postcode,
		Country:   wire.Country,
		Email:     wire.Email,
		Phone:     wire.Phone,
	}
}

// Ensure Adapter implements the platform port
var _ commerce.Platform = (*Adapter)(nil)

package woocommerce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gescom/backend/internal/domain/commerce"
	"github.com/gescom/backend/internal/domain/tax"
)

// ---------------------------------------------------------------------------
// Config Tests
// ---------------------------------------------------------------------------

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr error
	}{
		{
			name: "valid config",
			config: &Config{
				BaseURL:        "https://shop.example.com",
				ConsumerKey:    "ck_test",
				ConsumerSecret: "cs_test",
			},
			wantErr: nil,
		},
		{
			name: "missing base URL",
			config: &Config{
				ConsumerKey:    "ck_test",
				ConsumerSecret: "cs_test",
			},
			wantErr: ErrConfigMissingBaseURL,
		},
		{
			name: "missing consumer key",
			config: &Config{
				BaseURL:        "https://shop.example.com",
				ConsumerSecret: "cs_test",
			},
			wantErr: ErrConfigMissingConsumerKey,
		},
		{
			name: "missing consumer secret",
			config: &Config{
				BaseURL:     "https://shop.example.com",
				ConsumerKey: "ck_test",
			},
			wantErr: ErrConfigMissingConsumerSecret,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.True(t, tt.config.TimeoutSeconds > 0)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Adapter Tests
// ---------------------------------------------------------------------------

func newTestAdapter(t *testing.T, handler http.Handler) (*Adapter, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	adapter, err := NewAdapter(NewConfig(server.URL, "ck_test", "cs_test"))
	require.NoError(t, err)
	return adapter, server
}

const sampleOrderJSON = `{
	"id": 7421,
	"number": "7421",
	"status": "processing",
	"currency": "EUR",
	"date_created_gmt": "2026-03-14T09:15:00",
	"date_modified_gmt": "2026-03-14T10:00:00",
	"total": "119.90",
	"total_tax": "19.98",
	"shipping_total": "5.90",
	"shipping_tax": "0.98",
	"customer_id": 42,
	"billing": {
		"first_name": "Jean",
		"last_name": "Dupont",
		"address_1": "12 rue de la Paix",
		"city": "Paris",
		"postcode": "75002",
		"country": "FR",
		"email": "jean@example.com"
	},
	"shipping": {"first_name": "Jean", "last_name": "Dupont"},
	"line_items": [{
		"id": 311,
		"name": "Clavier mécanique",
		"product_id": 88,
		"sku": "KB-88",
		"quantity": 1,
		"price": 95.0,
		"subtotal": "95.00",
		"subtotal_tax": "19.00",
		"total": "95.00",
		"total_tax": "19.00",
		"tax_class": ""
	}],
	"tax_lines": [{
		"rate_id": 3,
		"label": "TVA",
		"rate_percent": "20",
		"tax_total": "19.00",
		"shipping_tax_total": "0.98"
	}]
}`

func TestFetchOrders(t *testing.T) {
	var gotPath, gotQuery string
	var gotAuthUser string
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuthUser, _, _ = r.BasicAuth()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[" + sampleOrderJSON + "]"))
	}))

	after := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	orders, err := adapter.FetchOrders(context.Background(), commerce.OrderQuery{
		After:   &after,
		Page:    1,
		PerPage: 50,
	})
	require.NoError(t, err)
	require.Len(t, orders, 1)

	assert.Equal(t, "/wp-json/wc/v3/orders", gotPath)
	assert.Contains(t, gotQuery, "after=2026-02-14T00%3A00%3A00")
	assert.Contains(t, gotQuery, "per_page=50")
	assert.Equal(t, "ck_test", gotAuthUser)

	order := orders[0]
	assert.Equal(t, int64(7421), order.ExternalID)
	assert.Equal(t, commerce.OrderStatusProcessing, order.Status)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("119.90")))
	assert.Equal(t, "Jean Dupont", order.Billing.DisplayName())
	assert.Equal(t, time.Date(2026, 3, 14, 9, 15, 0, 0, time.UTC), order.DateCreated)

	require.Len(t, order.LineItems, 1)
	item := order.LineItems[0]
	assert.Equal(t, int64(88), item.ProductID)
	assert.True(t, item.Subtotal.Equal(decimal.RequireFromString("95.00")))
	assert.Equal(t, "", item.TaxClass)

	require.Len(t, order.TaxLines, 1)
	assert.True(t, order.TaxLines[0].RatePercent.Equal(decimal.NewFromInt(20)))
}

func TestFetchOrders_ModifiedWindow(t *testing.T) {
	var gotQuery string
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte("[]"))
	}))

	modified := time.Date(2026, 3, 14, 8, 30, 0, 0, time.UTC)
	_, err := adapter.FetchOrders(context.Background(), commerce.OrderQuery{ModifiedAfter: &modified})
	require.NoError(t, err)

	values, err := url.ParseQuery(gotQuery)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-14T08:30:00", values.Get("modified_after"))
	assert.Empty(t, values.Get("after"))
}

func TestFetchOrders_RejectsConflictingWindows(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request must not reach the store")
	}))

	now := time.Now()
	_, err := adapter.FetchOrders(context.Background(), commerce.OrderQuery{After: &now, ModifiedAfter: &now})
	assert.Error(t, err)
}

func TestGetOrder(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wc/v3/orders/7421", r.URL.Path)
		w.Write([]byte(sampleOrderJSON))
	}))

	order, err := adapter.GetOrder(context.Background(), 7421)
	require.NoError(t, err)
	assert.Equal(t, int64(7421), order.ExternalID)
	assert.Equal(t, "7421", order.Number)
}

func TestGetOrder_NotFound(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"code":"woocommerce_rest_shop_order_invalid_id","message":"Invalid ID."}`))
	}))

	_, err := adapter.GetOrder(context.Background(), 999)
	assert.ErrorIs(t, err, commerce.ErrOrderNotFound)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, commerce.ErrPlatformAuthFailed},
		{"forbidden", http.StatusForbidden, commerce.ErrPlatformAuthFailed},
		{"server error", http.StatusInternalServerError, commerce.ErrPlatformUnavailable},
		{"bad gateway", http.StatusBadGateway, commerce.ErrPlatformUnavailable},
		{"bad request", http.StatusBadRequest, commerce.ErrPlatformRequestFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			_, err := adapter.FetchOrders(context.Background(), commerce.OrderQuery{})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	var gotBody map[string]string
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/wp-json/wc/v3/orders/7421", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(sampleOrderJSON))
	}))

	err := adapter.UpdateOrderStatus(context.Background(), 7421, commerce.OrderStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, "completed", gotBody["status"])
}

func TestUpdateOrderStatus_InvalidStatus(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("request must not reach the store")
	}))
	assert.Error(t, adapter.UpdateOrderStatus(context.Background(), 7421, "bogus"))
}

func TestAddOrderNote(t *testing.T) {
	var gotBody map[string]any
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/wp-json/wc/v3/orders/7421/notes", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":1}`))
	}))

	err := adapter.AddOrderNote(context.Background(), 7421, "Facture FA-2026-00042 émise", false)
	require.NoError(t, err)
	assert.Equal(t, "Facture FA-2026-00042 émise", gotBody["note"])
	assert.Equal(t, false, gotBody["customer_note"])
}

func TestCreateRefund(t *testing.T) {
	var gotBody map[string]string
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wc/v3/orders/7421/refunds", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":55}`))
	}))

	err := adapter.CreateRefund(context.Background(), 7421, commerce.RefundRequest{
		Amount: decimal.RequireFromString("19.90"),
		Reason: "Article endommagé",
	})
	require.NoError(t, err)
	assert.Equal(t, "19.90", gotBody["amount"])
}

func TestGetProduct(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wc/v3/products/88", r.URL.Path)
		w.Write([]byte(`{"id":88,"name":"Clavier mécanique","sku":"KB-88","price":"95.00","stock_quantity":12,"manage_stock":true,"tax_class":""}`))
	}))

	product, err := adapter.GetProduct(context.Background(), 88)
	require.NoError(t, err)
	assert.Equal(t, "KB-88", product.SKU)
	assert.Equal(t, int64(12), product.StockQuantity)
	assert.True(t, product.ManagesStock)
}

func TestGetProduct_NotFound(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := adapter.GetProduct(context.Background(), 999)
	assert.ErrorIs(t, err, commerce.ErrProductNotFound)
}

func TestUpdateProductStock(t *testing.T) {
	var gotBody map[string]any
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"id":88}`))
	}))

	require.NoError(t, adapter.UpdateProductStock(context.Background(), 88, 7))
	assert.Equal(t, float64(7), gotBody["stock_quantity"])
}

func TestFetchTaxCatalog(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/wp-json/wc/v3/products/tax_classes":
			w.Write([]byte(`[{"slug":"standard","name":"Standard"},{"slug":"reduced-rate","name":"Taux réduit"}]`))
		case "/wp-json/wc/v3/taxes":
			w.Write([]byte(`[
				{"id":1,"country":"FR","rate":"20.0000","name":"TVA","class":"standard"},
				{"id":2,"country":"FR","rate":"10.0000","name":"TVA réduite","class":"reduced-rate"}
			]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	ctx := context.Background()

	classes, err := adapter.FetchTaxClasses(ctx)
	require.NoError(t, err)
	require.Len(t, classes, 2)
	assert.Equal(t, tax.TaxClass{Slug: "standard", Name: "Standard"}, classes[0])

	rates, err := adapter.FetchTaxRates(ctx)
	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.Equal(t, "FR", rates[0].Country)
	assert.True(t, rates[0].Percent.Equal(decimal.NewFromInt(20)))
}

func TestFetchOrders_MalformedResponse(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"an array"}`))
	}))

	_, err := adapter.FetchOrders(context.Background(), commerce.OrderQuery{})
	assert.ErrorIs(t, err, commerce.ErrPlatformInvalidResponse)
}

//go:build integration

package integration

import (
	"bytes"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceOrderDecrementsStock(t *testing.T) {
	resetDB(t)
	p1 := createProduct(t, "Coffee", 4.50, 10, 3)
	p2 := createProduct(t, "Tea", 3.00, 8, 3)

	resp := doPost(t, "/api/orders", map[string]any{
		"items": []map[string]any{
			{"productId": p1, "quantity": 2},
			{"productId": p2, "quantity": 1},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	o := decodeJSON[orderResponse](t, resp)
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, 12.00, o.TotalPrice)
	require.Len(t, o.Items, 2)

	got := decodeJSON[productResponse](t, doGet(t, "/api/products/"+p1))
	assert.Equal(t, 8, got.Stock)
	got = decodeJSON[productResponse](t, doGet(t, "/api/products/"+p2))
	assert.Equal(t, 7, got.Stock)

	list := decodeJSON[[]orderResponse](t, doGet(t, "/api/orders"))
	require.Len(t, list, 1)
	assert.Equal(t, o.ID, list[0].ID)
}

func TestPlaceOrderPriceSnapshot(t *testing.T) {
	resetDB(t)
	id := createProduct(t, "Mug", 7.00, 5, 2)

	o := decodeJSON[orderResponse](t, doPost(t, "/api/orders", map[string]any{
		"items": []map[string]any{{"productId": id, "quantity": 1}},
	}))

	// Raising the price later must not change the recorded order.
	resp := doRequest(t, http.MethodPut, "/api/products/"+id, map[string]any{"price": 99.0})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	list := decodeJSON[[]orderResponse](t, doGet(t, "/api/orders"))
	require.Len(t, list, 1)
	assert.Equal(t, o.TotalPrice, list[0].TotalPrice)
	assert.Equal(t, 7.00, list[0].Items[0].Price)
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	resetDB(t)
	id := createProduct(t, "Rare item", 100.00, 3, 1)

	resp := doPost(t, "/api/orders", map[string]any{
		"items": []map[string]any{{"productId": id, "quantity": 4}},
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decodeJSON[errorResponse](t, resp)
	require.Len(t, body.Shortages, 1)
	assert.Equal(t, id, body.Shortages[0].ProductID)
	assert.Equal(t, 4, body.Shortages[0].Requested)
	assert.Equal(t, 3, body.Shortages[0].Available)

	// The failed order must leave no trace.
	got := decodeJSON[productResponse](t, doGet(t, "/api/products/"+id))
	assert.Equal(t, 3, got.Stock)
	assert.Empty(t, decodeJSON[[]orderResponse](t, doGet(t, "/api/orders")))
}

func TestPlaceOrderDuplicateLinesAggregated(t *testing.T) {
	resetDB(t)
	id := createProduct(t, "Notebook", 2.00, 5, 1)

	// 3 + 3 over two lines exceeds the 5 in stock even though each line
	// alone would fit.
	resp := doPost(t, "/api/orders", map[string]any{
		"items": []map[string]any{
			{"productId": id, "quantity": 3},
			{"productId": id, "quantity": 3},
		},
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	got := decodeJSON[productResponse](t, doGet(t, "/api/products/"+id))
	assert.Equal(t, 5, got.Stock)
}

func TestPlaceOrderRejections(t *testing.T) {
	resetDB(t)
	id := createProduct(t, "Pen", 1.00, 10, 2)

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
	}{
		{"empty items", map[string]any{"items": []map[string]any{}}, http.StatusBadRequest},
		{"zero quantity", map[string]any{"items": []map[string]any{{"productId": id, "quantity": 0}}}, http.StatusUnprocessableEntity},
		{"negative quantity", map[string]any{"items": []map[string]any{{"productId": id, "quantity": -1}}}, http.StatusUnprocessableEntity},
		{"unknown product", map[string]any{"items": []map[string]any{{"productId": "ghost", "quantity": 1}}}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doPost(t, "/api/orders", tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			resp.Body.Close()
		})
	}

	got := decodeJSON[productResponse](t, doGet(t, "/api/products/"+id))
	assert.Equal(t, 10, got.Stock)
}

func TestConcurrentOrdersNeverOversell(t *testing.T) {
	resetDB(t)
	id := createProduct(t, "Limited run", 25.00, 10, 2)

	// 5 buyers racing for 10 units, 3 each: at most 3 can win.
	const buyers = 5
	body := []byte(`{"items":[{"productId":"` + id + `","quantity":3}]}`)
	statuses := make([]int, buyers)
	errs := make([]error, buyers)

	var wg sync.WaitGroup
	for i := range buyers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := httpClient.Post(baseURL+"/api/orders", "application/json", bytes.NewReader(body))
			if err != nil {
				errs[i] = err
				return
			}
			statuses[i] = resp.StatusCode
			resp.Body.Close()
		}(i)
	}
	wg.Wait()

	wins := 0
	for i, s := range statuses {
		require.NoError(t, errs[i])
		switch s {
		case http.StatusCreated:
			wins++
		case http.StatusConflict:
		default:
			t.Fatalf("unexpected status %d", s)
		}
	}
	assert.Equal(t, 3, wins)

	got := decodeJSON[productResponse](t, doGet(t, "/api/products/"+id))
	assert.Equal(t, 10-3*wins, got.Stock)
	assert.Len(t, decodeJSON[[]orderResponse](t, doGet(t, "/api/orders")), wins)
}

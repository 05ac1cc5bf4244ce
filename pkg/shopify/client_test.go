package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarsh-dev/lumapos-backend/pkg/config"
	pkgerrors "github.com/dmarsh-dev/lumapos-backend/pkg/errors"
	"github.com/dmarsh-dev/lumapos-backend/pkg/logger"
)

func testClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test"})
	client, err := NewClient(context.Background(), config.ShopifyConfig{
		ShopDomain:  "demo-store.myshopify.com",
		AccessToken: "shpat_test_token",
		APIVersion:  "2024-07",
		Timeout:     5 * time.Second,
		MaxRetries:  1,
	}, logg)
	require.NoError(t, err)
	if server != nil {
		client.baseURL = server.URL
	}
	return client
}

func productJSON(id int, title string, qty int) string {
	return fmt.Sprintf(`{
		"id": %d,
		"title": %q,
		"body_html": "<p>desc</p>",
		"vendor": "Acme",
		"product_type": "widget",
		"status": "active",
		"handle": "handle-%d",
		"tags": "pos, retail",
		"image": {"src": "https://cdn.example/%d.png"},
		"variants": [{
			"id": %d,
			"product_id": %d,
			"inventory_item_id": %d,
			"title": "Default",
			"price": "19.99",
			"compare_at_price": "24.99",
			"sku": "SKU-%d",
			"barcode": "850",
			"inventory_quantity": %d,
			"inventory_management": "shopify",
			"position": 1,
			"weight": 0.4,
			"weight_unit": "kg"
		}]
	}`, id, title, id, id, id*10, id, id*10, id, qty)
}

func TestNewClientRejectsMissingToken(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test"})
	_, err := NewClient(context.Background(), config.ShopifyConfig{ShopDomain: "x.myshopify.com"}, logg)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConfiguration, typed.Code())
}

func TestListProductsPageParsesPayloadAndLink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "shpat_test_token", r.Header.Get(accessTokenHeader))
		require.Equal(t, "50", r.URL.Query().Get("limit"))
		w.Header().Set("Link", `<https://demo-store.myshopify.com/admin/api/2024-07/products.json?page_info=tok-next&limit=50>; rel="next"`)
		fmt.Fprintf(w, `{"products": [%s, %s]}`, productJSON(11, "First", 5), productJSON(12, "Second", 3))
	}))
	defer server.Close()

	client := testClient(t, server)
	page, err := client.ListProductsPage(context.Background(), PageParams{})
	require.NoError(t, err)

	require.Len(t, page.Products, 2)
	first := page.Products[0]
	assert.Equal(t, "11", first.ID.String())
	assert.Equal(t, "First", first.Title)
	assert.Equal(t, []string{"pos", "retail"}, first.Tags)
	require.Len(t, first.Variants, 1)
	variant := first.Variants[0]
	assert.Equal(t, "110", variant.InventoryItemID.String())
	assert.Equal(t, "19.99", variant.Price.StringFixed(2))
	require.NotNil(t, variant.CompareAtPrice)
	assert.Equal(t, "24.99", variant.CompareAtPrice.StringFixed(2))
	assert.Equal(t, 5, variant.InventoryQuantity)

	assert.True(t, page.HasMore)
	assert.Equal(t, Cursor("tok-next"), page.NextCursor)
}

func TestListProductsPageCursorOrderRejectedLocally(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, `{"products": []}`)
	}))
	defer server.Close()

	client := testClient(t, server)
	_, err := client.ListProductsPage(context.Background(), PageParams{Cursor: "tok", Order: "title asc"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Zero(t, requests, "caller bug must be rejected before any network call")
}

func TestListProductsPageLoopGuards(t *testing.T) {
	t.Run("identicalCursor", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Link", `<https://demo/products.json?page_info=stuck>; rel="next"`)
			fmt.Fprintf(w, `{"products": [%s]}`, productJSON(21, "Stuck", 1))
		}))
		defer server.Close()

		client := testClient(t, server)
		page, err := client.ListProductsPage(context.Background(), PageParams{Cursor: "stuck"})
		require.NoError(t, err)
		assert.False(t, page.HasMore)
		assert.True(t, page.NextCursor.IsZero())
	})

	t.Run("emptyPageClaimsMore", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Link", `<https://demo/products.json?page_info=ghost>; rel="next"`)
			fmt.Fprint(w, `{"products": []}`)
		}))
		defer server.Close()

		client := testClient(t, server)
		page, err := client.ListProductsPage(context.Background(), PageParams{})
		require.NoError(t, err)
		assert.False(t, page.HasMore)
		assert.Empty(t, page.Products)
	})
}

func TestAuthAndPermissionErrorsAreDistinguished(t *testing.T) {
	tests := []struct {
		status int
		code   pkgerrors.Code
	}{
		{http.StatusUnauthorized, pkgerrors.CodeUnauthorized},
		{http.StatusForbidden, pkgerrors.CodeForbidden},
	}
	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"errors":"denied"}`, tt.status)
		}))
		client := testClient(t, server)
		_, err := client.ListProductsPage(context.Background(), PageParams{})
		server.Close()
		require.Error(t, err)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, tt.code, typed.Code())
	}
}

func TestAdjustInventorySendsSignedDelta(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.True(t, strings.HasSuffix(r.URL.Path, "/inventory_levels/adjust.json"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		fmt.Fprint(w, `{"inventory_level": {}}`)
	}))
	defer server.Close()

	client := testClient(t, server)
	err := client.AdjustInventory(context.Background(), "600", "110", -2)
	require.NoError(t, err)
	assert.Equal(t, "600", received["location_id"])
	assert.Equal(t, "110", received["inventory_item_id"])
	assert.Equal(t, float64(-2), received["available_adjustment"])
}

func TestAdjustInventoryPassesNonNumericIDsVerbatim(t *testing.T) {
	var received map[string]any
	hit := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		fmt.Fprint(w, `{"inventory_level": {}}`)
	}))
	defer server.Close()

	client := testClient(t, server)
	err := client.AdjustInventory(context.Background(), "loc_abc", "gid://shopify/InventoryItem/42", -1)
	require.NoError(t, err)
	require.True(t, hit, "non-numeric ids must still reach the remote")
	assert.Equal(t, "loc_abc", received["location_id"])
	assert.Equal(t, "gid://shopify/InventoryItem/42", received["inventory_item_id"])
}

func TestAdjustInventoryRemoteFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":"not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := testClient(t, server)
	err := client.AdjustInventory(context.Background(), "600", "110", -2)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeRemote, typed.Code())
}

func TestDoRetriesTransientStatusOnce(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, `{"errors":"throttled"}`, http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"products": []}`)
	}))
	defer server.Close()

	client := testClient(t, server)
	_, err := client.ListProductsPage(context.Background(), PageParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestListLocations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"locations": [{"id": 600, "name": "Main", "active": true}]}`)
	}))
	defer server.Close()

	client := testClient(t, server)
	locations, err := client.ListLocations(context.Background())
	require.NoError(t, err)
	require.Len(t, locations, 1)
	assert.Equal(t, "600", locations[0].ID.String())
	assert.True(t, locations[0].Active)
}

package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmarsh-dev/lumapos-backend/pkg/config"
	pkgerrors "github.com/dmarsh-dev/lumapos-backend/pkg/errors"
	"github.com/dmarsh-dev/lumapos-backend/pkg/logger"
	"github.com/dmarsh-dev/lumapos-backend/pkg/types"
)

const accessTokenHeader = "X-Shopify-Access-Token"

var (
	errLoggerRequired = errors.New("shopify logger is required")

	// retryableStatus marks responses worth retrying before giving up.
	retryableStatus = map[int]bool{
		http.StatusTooManyRequests:    true,
		http.StatusBadGateway:         true,
		http.StatusServiceUnavailable: true,
		http.StatusGatewayTimeout:     true,
	}
)

// Client wraps the remote platform's admin REST API with centralized auth,
// logging, retry, and error mapping. It is the only component that talks to
// the remote platform.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	locationID types.RemoteID
	maxRetries uint64
	logger     *logger.Logger
}

// NewClient validates the credentials and builds the API wrapper. Placeholder
// or missing credentials fail here, before any network call is made.
func NewClient(ctx context.Context, cfg config.ShopifyConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "shopify access token is required")
	}
	if strings.TrimSpace(cfg.ShopDomain) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "shopify shop domain is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL(),
		token:      token,
		locationID: types.RemoteID(strings.TrimSpace(cfg.LocationID)),
		maxRetries: uint64(maxRetries),
		logger:     logg,
	}

	logg.Info(ctx, "shopify client initialized")
	return c, nil
}

// DefaultLocationID returns the configured stock location, if any.
func (c *Client) DefaultLocationID() types.RemoteID {
	if c == nil {
		return ""
	}
	return c.locationID
}

// ListProductsPage fetches one page of the remote product list. Supplying an
// order together with a cursor is rejected locally, before any request.
// End-of-stream guards: a next cursor identical to the requested one, or an
// empty page that still claims more, both terminate pagination.
func (c *Client) ListProductsPage(ctx context.Context, params PageParams) (*ProductPage, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	c.log(ctx, "request", "list_products", map[string]any{
		"limit":      params.Limit,
		"status":     params.Status,
		"has_cursor": !params.Cursor.IsZero(),
	})

	body, header, err := c.do(ctx, http.MethodGet, "/products.json", params.query(), nil)
	if err != nil {
		c.log(ctx, "error", "list_products", map[string]any{"error": err.Error()})
		return nil, err
	}

	var payload productListResponse
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRemote, err, "decode product list response")
	}

	page := &ProductPage{
		NextCursor: parseNextCursor(header.Get("Link")),
	}
	for _, wire := range payload.Products {
		page.Products = append(page.Products, wire.toProduct())
	}
	page.HasMore = !page.NextCursor.IsZero()

	// Loop guards: a server echoing the same cursor, or claiming more pages
	// while returning nothing, would otherwise paginate forever.
	if page.NextCursor != "" && page.NextCursor == params.Cursor {
		page.NextCursor = ""
		page.HasMore = false
	}
	if len(page.Products) == 0 {
		page.NextCursor = ""
		page.HasMore = false
	}

	c.log(ctx, "response", "list_products", map[string]any{
		"count":    len(page.Products),
		"has_more": page.HasMore,
	})
	return page, nil
}

// AdjustInventory applies a signed delta to one inventory level.
func (c *Client) AdjustInventory(ctx context.Context, locationID, inventoryItemID types.RemoteID, delta int) error {
	if locationID.IsZero() || inventoryItemID.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "location and inventory item are required")
	}

	c.log(ctx, "request", "adjust_inventory", map[string]any{
		"location_id":       locationID.String(),
		"inventory_item_id": inventoryItemID.String(),
		"delta":             delta,
	})

	// Remote IDs go out verbatim as strings; the remote ID space is not
	// guaranteed numeric and must never be coerced.
	reqBody := map[string]any{
		"location_id":          locationID.String(),
		"inventory_item_id":    inventoryItemID.String(),
		"available_adjustment": delta,
	}
	if _, _, err := c.do(ctx, http.MethodPost, "/inventory_levels/adjust.json", nil, reqBody); err != nil {
		c.log(ctx, "error", "adjust_inventory", map[string]any{"error": err.Error()})
		return err
	}

	c.log(ctx, "response", "adjust_inventory", map[string]any{
		"inventory_item_id": inventoryItemID.String(),
	})
	return nil
}

// ListLocations fetches the remote stock locations.
func (c *Client) ListLocations(ctx context.Context) ([]Location, error) {
	c.log(ctx, "request", "list_locations", nil)

	body, _, err := c.do(ctx, http.MethodGet, "/locations.json", nil, nil)
	if err != nil {
		c.log(ctx, "error", "list_locations", map[string]any{"error": err.Error()})
		return nil, err
	}

	var payload locationListResponse
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRemote, err, "decode location list response")
	}

	locations := make([]Location, 0, len(payload.Locations))
	for _, wire := range payload.Locations {
		locations = append(locations, wire.toLocation())
	}

	c.log(ctx, "response", "list_locations", map[string]any{"count": len(locations)})
	return locations, nil
}

// do performs one API request with bounded retries on transport faults and
// retryable statuses. Definitive 4xx responses are never retried.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, http.Header, error) {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request body")
		}
		payload = encoded
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var respBody []byte
	var respHeader http.Header

	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
		}
		req.Header.Set(accessTokenHeader, c.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// Transport faults (timeouts, resets) are retryable.
			return retry.RetryableError(pkgerrors.Wrap(pkgerrors.CodeRemote, err, "remote request failed"))
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(pkgerrors.Wrap(pkgerrors.CodeRemote, err, "read response body"))
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			respBody = data
			respHeader = resp.Header
			return nil
		}

		mapped := c.mapStatusError(resp.StatusCode, data)
		if retryableStatus[resp.StatusCode] {
			return retry.RetryableError(mapped)
		}
		return mapped
	})
	if err != nil {
		return nil, nil, err
	}
	return respBody, respHeader, nil
}

// mapStatusError distinguishes credential and scope failures from generic
// remote faults so callers can surface actionable messages.
func (c *Client) mapStatusError(status int, body []byte) error {
	detail := map[string]any{"status": status, "body": truncateBody(body)}
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.New(pkgerrors.CodeUnauthorized,
			"remote platform rejected the access token; verify the configured credential").
			WithDetails(detail)
	case http.StatusForbidden:
		return pkgerrors.New(pkgerrors.CodeForbidden,
			"remote platform denied access; the token is missing a required API scope (read_products, write_inventory)").
			WithDetails(detail)
	case http.StatusTooManyRequests:
		return pkgerrors.New(pkgerrors.CodeRateLimit, "remote platform rate limit hit").WithDetails(detail)
	default:
		return pkgerrors.New(pkgerrors.CodeRemote,
			fmt.Sprintf("remote platform returned status %d", status)).
			WithDetails(detail)
	}
}

func truncateBody(body []byte) string {
	const maxLen = 512
	if len(body) > maxLen {
		return string(body[:maxLen])
	}
	return string(body)
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("shopify %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("shopify %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"token", "secret", "password", "credential"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

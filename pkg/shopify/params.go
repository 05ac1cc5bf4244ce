package shopify

import (
	"net/url"
	"strconv"
	"strings"

	pkgerrors "github.com/dmarsh-dev/lumapos-backend/pkg/errors"
)

const (
	// MaxPageSize is the remote platform's hard cap per page.
	MaxPageSize = 250
	// DefaultPageSize is used when the caller does not specify a limit.
	DefaultPageSize = 50

	// DefaultOrder is applied to the first page when no order is given.
	DefaultOrder = "created_at desc"
)

// PageParams are the inputs to ListProductsPage. Cursor and Order are
// mutually exclusive past the first page: the remote API defines the cursor
// as carrying its own ordering, so supplying both is a caller bug.
type PageParams struct {
	Cursor Cursor
	Limit  int
	Status string
	Order  string
}

func (p PageParams) validate() error {
	if !p.Cursor.IsZero() && strings.TrimSpace(p.Order) != "" {
		return pkgerrors.New(pkgerrors.CodeValidation,
			"order cannot be combined with a page cursor; the cursor already encodes ordering").
			WithDetails(map[string]any{"order": p.Order})
	}
	if p.Limit > MaxPageSize {
		return pkgerrors.New(pkgerrors.CodeValidation,
			"page size exceeds the remote maximum of 250").
			WithDetails(map[string]any{"limit": p.Limit})
	}
	if p.Status != "" {
		switch p.Status {
		case "active", "draft", "archived":
		default:
			return pkgerrors.New(pkgerrors.CodeValidation, "status must be active, draft, or archived").
				WithDetails(map[string]any{"status": p.Status})
		}
	}
	return nil
}

func (p PageParams) query() url.Values {
	q := url.Values{}

	limit := p.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	q.Set("limit", strconv.Itoa(limit))

	if !p.Cursor.IsZero() {
		q.Set("page_info", string(p.Cursor))
		return q
	}

	if p.Status != "" {
		q.Set("status", p.Status)
	}
	order := strings.TrimSpace(p.Order)
	if order == "" {
		order = DefaultOrder
	}
	q.Set("order", order)
	return q
}

// parseNextCursor extracts the page_info token from a Link response header of
// the form `<https://host/path?page_info=tok&limit=n>; rel="next"`.
func parseNextCursor(linkHeader string) Cursor {
	for _, part := range strings.Split(linkHeader, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		if !strings.Contains(segments[1], `rel="next"`) {
			continue
		}
		raw := strings.TrimSpace(segments[0])
		raw = strings.TrimPrefix(raw, "<")
		raw = strings.TrimSuffix(raw, ">")
		parsed, err := url.Parse(raw)
		if err != nil {
			return ""
		}
		return Cursor(parsed.Query().Get("page_info"))
	}
	return ""
}

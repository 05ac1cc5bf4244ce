package shopify

import (
	"testing"

	pkgerrors "github.com/dmarsh-dev/lumapos-backend/pkg/errors"
)

func TestPageParamsRejectCursorWithOrder(t *testing.T) {
	params := PageParams{Cursor: "abc123", Order: "created_at asc"}
	err := params.validate()
	if err == nil {
		t.Fatal("expected cursor+order to be rejected")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPageParamsLimitCap(t *testing.T) {
	if err := (PageParams{Limit: 251}).validate(); err == nil {
		t.Fatal("expected limit above 250 to be rejected")
	}
	if err := (PageParams{Limit: 250}).validate(); err != nil {
		t.Fatalf("250 is the documented maximum: %v", err)
	}
}

func TestPageParamsStatusValues(t *testing.T) {
	for _, status := range []string{"active", "draft", "archived"} {
		if err := (PageParams{Status: status}).validate(); err != nil {
			t.Fatalf("status %q should be valid: %v", status, err)
		}
	}
	if err := (PageParams{Status: "deleted"}).validate(); err == nil {
		t.Fatal("unknown status must be rejected")
	}
}

func TestPageParamsQueryShape(t *testing.T) {
	q := PageParams{Limit: 100, Status: "active"}.query()
	if q.Get("limit") != "100" {
		t.Fatalf("unexpected limit %q", q.Get("limit"))
	}
	if q.Get("status") != "active" {
		t.Fatalf("unexpected status %q", q.Get("status"))
	}
	if q.Get("order") != DefaultOrder {
		t.Fatalf("first page should carry the default order, got %q", q.Get("order"))
	}

	q = PageParams{Cursor: "tok-2"}.query()
	if q.Get("page_info") != "tok-2" {
		t.Fatalf("expected page_info to carry the cursor, got %q", q.Get("page_info"))
	}
	if q.Get("order") != "" || q.Get("status") != "" {
		t.Fatal("cursor pages must not carry order or status")
	}
	if q.Get("limit") != "50" {
		t.Fatalf("expected default limit 50, got %q", q.Get("limit"))
	}
}

func TestParseNextCursor(t *testing.T) {
	header := `<https://demo.myshopify.com/admin/api/2024-07/products.json?limit=50&page_info=prevtok>; rel="previous", ` +
		`<https://demo.myshopify.com/admin/api/2024-07/products.json?limit=50&page_info=nexttok>; rel="next"`
	if got := parseNextCursor(header); got != "nexttok" {
		t.Fatalf("expected nexttok, got %q", got)
	}
	if got := parseNextCursor(""); got != "" {
		t.Fatalf("expected empty cursor for empty header, got %q", got)
	}
	if got := parseNextCursor(`<https://x>; rel="previous"`); got != "" {
		t.Fatalf("previous-only header should yield no cursor, got %q", got)
	}
}

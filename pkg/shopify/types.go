package shopify

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmarsh-dev/lumapos-backend/pkg/types"
)

// Cursor is the opaque page token returned by the remote platform. Callers
// checkpoint and replay it verbatim; it is never parsed or constructed.
type Cursor string

func (c Cursor) IsZero() bool { return strings.TrimSpace(string(c)) == "" }

// Product is the client-facing view of a remote catalog product.
type Product struct {
	ID          types.RemoteID
	Title       string
	Description string
	Vendor      string
	ProductType string
	Status      string
	Handle      string
	ImageURL    string
	Tags        []string
	UpdatedAt   time.Time
	Variants    []Variant
}

// Variant is the client-facing view of a remote product variant.
type Variant struct {
	ID                  types.RemoteID
	ProductID           types.RemoteID
	InventoryItemID     types.RemoteID
	Title               string
	Price               decimal.Decimal
	CompareAtPrice      *decimal.Decimal
	SKU                 string
	Barcode             string
	InventoryQuantity   int
	InventoryManagement string
	Position            int
	Weight              float64
	WeightUnit          string
}

// Location is a remote stock location.
type Location struct {
	ID     types.RemoteID
	Name   string
	Active bool
}

// ProductPage is one page of the remote product list.
type ProductPage struct {
	Products   []Product
	NextCursor Cursor
	HasMore    bool
}

// Wire payloads. Remote IDs arrive as JSON numbers and are widened to opaque
// strings immediately; they are never handled as integers past this point.

type wireImage struct {
	Src string `json:"src"`
}

type wireVariant struct {
	ID                  json.Number `json:"id"`
	ProductID           json.Number `json:"product_id"`
	InventoryItemID     json.Number `json:"inventory_item_id"`
	Title               string      `json:"title"`
	Price               string      `json:"price"`
	CompareAtPrice      *string     `json:"compare_at_price"`
	SKU                 string      `json:"sku"`
	Barcode             *string     `json:"barcode"`
	InventoryQuantity   int         `json:"inventory_quantity"`
	InventoryManagement *string     `json:"inventory_management"`
	Position            int         `json:"position"`
	Weight              float64     `json:"weight"`
	WeightUnit          string      `json:"weight_unit"`
}

type wireProduct struct {
	ID          json.Number   `json:"id"`
	Title       string        `json:"title"`
	BodyHTML    string        `json:"body_html"`
	Vendor      string        `json:"vendor"`
	ProductType string        `json:"product_type"`
	Status      string        `json:"status"`
	Handle      string        `json:"handle"`
	Tags        string        `json:"tags"`
	UpdatedAt   time.Time     `json:"updated_at"`
	Image       *wireImage    `json:"image"`
	Variants    []wireVariant `json:"variants"`
}

type productListResponse struct {
	Products []wireProduct `json:"products"`
}

type wireLocation struct {
	ID     json.Number `json:"id"`
	Name   string      `json:"name"`
	Active bool        `json:"active"`
}

type locationListResponse struct {
	Locations []wireLocation `json:"locations"`
}

func (w wireLocation) toLocation() Location {
	return Location{
		ID:     types.RemoteID(w.ID.String()),
		Name:   w.Name,
		Active: w.Active,
	}
}

func (w wireProduct) toProduct() Product {
	p := Product{
		ID:          types.RemoteID(w.ID.String()),
		Title:       w.Title,
		Description: w.BodyHTML,
		Vendor:      w.Vendor,
		ProductType: w.ProductType,
		Status:      w.Status,
		Handle:      w.Handle,
		UpdatedAt:   w.UpdatedAt,
		Tags:        splitTags(w.Tags),
	}
	if w.Image != nil {
		p.ImageURL = w.Image.Src
	}
	for _, v := range w.Variants {
		p.Variants = append(p.Variants, v.toVariant())
	}
	return p
}

func (w wireVariant) toVariant() Variant {
	v := Variant{
		ID:                types.RemoteID(w.ID.String()),
		ProductID:         types.RemoteID(w.ProductID.String()),
		InventoryItemID:   types.RemoteID(w.InventoryItemID.String()),
		Title:             w.Title,
		Price:             parsePrice(w.Price),
		SKU:               w.SKU,
		InventoryQuantity: w.InventoryQuantity,
		Position:          w.Position,
		Weight:            w.Weight,
		WeightUnit:        w.WeightUnit,
	}
	if w.CompareAtPrice != nil && strings.TrimSpace(*w.CompareAtPrice) != "" {
		price := parsePrice(*w.CompareAtPrice)
		v.CompareAtPrice = &price
	}
	if w.Barcode != nil {
		v.Barcode = *w.Barcode
	}
	if w.InventoryManagement != nil {
		v.InventoryManagement = *w.InventoryManagement
	}
	return v
}

func parsePrice(raw string) decimal.Decimal {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return price
}

func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

package enums

import "fmt"

// ProductStatus mirrors the remote platform's product status values.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusArchived ProductStatus = "archived"
)

var validProductStatuses = []ProductStatus{
	ProductStatusActive,
	ProductStatusDraft,
	ProductStatusArchived,
}

// IsValid reports whether the value matches the canonical product status enum.
func (p ProductStatus) IsValid() bool {
	for _, candidate := range validProductStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductStatus converts the raw string to ProductStatus.
func ParseProductStatus(value string) (ProductStatus, error) {
	for _, candidate := range validProductStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product status %q", value)
}

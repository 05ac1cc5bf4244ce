package enums

import "fmt"

// PaymentMethod is how the customer settled a sale at the register.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodOnline PaymentMethod = "online"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCash,
	PaymentMethodCard,
	PaymentMethodOnline,
}

// IsValid reports whether the value matches the canonical payment method enum.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMethod converts the raw string to PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}

// SaleStatus tracks the lifecycle of a recorded sale. Sales are created as
// completed and only ever transition status; line items never change.
type SaleStatus string

const (
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusRefunded  SaleStatus = "refunded"
	SaleStatusVoided    SaleStatus = "voided"
)

var validSaleStatuses = []SaleStatus{
	SaleStatusCompleted,
	SaleStatusRefunded,
	SaleStatusVoided,
}

// IsValid reports whether the value matches the canonical sale status enum.
func (s SaleStatus) IsValid() bool {
	for _, candidate := range validSaleStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSaleStatus converts the raw string to SaleStatus.
func ParseSaleStatus(value string) (SaleStatus, error) {
	for _, candidate := range validSaleStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sale status %q", value)
}

package enums

import (
	"fmt"
	"strings"
)

// PaymentType is the card product used to pay a cart.
type PaymentType string

const (
	PaymentTypeDebit  PaymentType = "debito"
	PaymentTypeCredit PaymentType = "credito"
)

var validPaymentTypes = []PaymentType{
	PaymentTypeDebit,
	PaymentTypeCredit,
}

// String implements fmt.Stringer.
func (p PaymentType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentType.
func (p PaymentType) IsValid() bool {
	for _, candidate := range validPaymentTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentType normalizes case and surrounding whitespace before matching.
func ParsePaymentType(value string) (PaymentType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validPaymentTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment type %q", value)
}

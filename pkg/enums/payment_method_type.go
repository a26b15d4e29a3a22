package enums

import "fmt"

// PaymentMethodType mirrors the payment vault's method categories.
type PaymentMethodType string

const (
	PaymentMethodTypeCard     PaymentMethodType = "card"
	PaymentMethodTypePaypal   PaymentMethodType = "paypal"
	PaymentMethodTypeBankWire PaymentMethodType = "bank_wire"
)

var validPaymentMethodTypes = []PaymentMethodType{
	PaymentMethodTypeCard,
	PaymentMethodTypePaypal,
	PaymentMethodTypeBankWire,
}

// String implements fmt.Stringer.
func (p PaymentMethodType) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p PaymentMethodType) IsValid() bool {
	for _, candidate := range validPaymentMethodTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMethodType converts raw input into a PaymentMethodType.
func ParsePaymentMethodType(value string) (PaymentMethodType, error) {
	for _, candidate := range validPaymentMethodTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method type %q", value)
}

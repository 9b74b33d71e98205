package enums

import (
	"fmt"
	"strings"
)

// PaymentMethod describes how a customer settles an order.
type PaymentMethod string

const (
	PaymentMethodCOD  PaymentMethod = "cod"
	PaymentMethodUPI  PaymentMethod = "upi"
	PaymentMethodCard PaymentMethod = "card"
)

// paymentMethodAliases maps what checkout screens send to the stored value.
var paymentMethodAliases = map[string]PaymentMethod{
	"cod":              PaymentMethodCOD,
	"cash":             PaymentMethodCOD,
	"cash_on_delivery": PaymentMethodCOD,
	"upi":              PaymentMethodUPI,
	"card":             PaymentMethodCard,
	"credit_card":      PaymentMethodCard,
	"debit_card":       PaymentMethodCard,
}

func (p PaymentMethod) String() string {
	return string(p)
}

func (p PaymentMethod) IsValid() bool {
	switch p {
	case PaymentMethodCOD, PaymentMethodUPI, PaymentMethodCard:
		return true
	}
	return false
}

// Online reports whether the method settles before delivery and so needs a
// payment intent. Cash on delivery never does.
func (p PaymentMethod) Online() bool {
	return p == PaymentMethodUPI || p == PaymentMethodCard
}

// ParsePaymentMethod accepts the stored values and their common aliases,
// ignoring case and separators.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	key := strings.ToLower(strings.TrimSpace(value))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	if method, ok := paymentMethodAliases[key]; ok {
		return method, nil
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}

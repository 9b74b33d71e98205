package orders

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// PhoneVariants lists the spellings an order's customer_phone may have
// been recorded with, most literal first and without duplicates.
func PhoneVariants(phone string) []string {
	raw := strings.TrimSpace(phone)
	if raw == "" {
		return nil
	}

	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)

	candidates := []string{raw, digits}
	if len(digits) > 10 && strings.HasPrefix(digits, "91") {
		candidates = append(candidates, strings.TrimPrefix(digits, "91"))
	}
	candidates = append(candidates, strings.TrimPrefix(digits, "0"))

	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Requester is the customer acting on an order.
type Requester struct {
	CustomerID uuid.UUID
	Phone      string
}

// Owns reports whether the order belongs to r: recorded under r's customer
// id, or under one of the spellings of r's phone that history lookups match.
func (r Requester) Owns(customerID uuid.UUID, customerPhone string) bool {
	if customerID == r.CustomerID {
		return true
	}
	if customerPhone == "" {
		return false
	}
	for _, variant := range PhoneVariants(r.Phone) {
		if variant == customerPhone {
			return true
		}
	}
	return false
}

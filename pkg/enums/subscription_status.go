package enums

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// SubscriptionStatus is the store's plan state as recorded by the backend.
// Values the backend adds later decode as SubscriptionStatusUnknown.
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "ACTIVE"
	SubscriptionStatusInactive SubscriptionStatus = "INACTIVE"
	SubscriptionStatusExpired  SubscriptionStatus = "EXPIRED"
	SubscriptionStatusUnknown  SubscriptionStatus = "UNKNOWN"
)

var validSubscriptionStatuses = []SubscriptionStatus{
	SubscriptionStatusActive,
	SubscriptionStatusInactive,
	SubscriptionStatusExpired,
	SubscriptionStatusUnknown,
}

// String implements fmt.Stringer.
func (s SubscriptionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s SubscriptionStatus) IsValid() bool {
	for _, candidate := range validSubscriptionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSubscriptionStatus converts raw input into a SubscriptionStatus.
func ParseSubscriptionStatus(value string) (SubscriptionStatus, error) {
	normalized := SubscriptionStatus(strings.ToUpper(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid subscription status %q", value)
}

// SubscriptionStatusOf is the lenient form of ParseSubscriptionStatus.
func SubscriptionStatusOf(value string) SubscriptionStatus {
	status, err := ParseSubscriptionStatus(value)
	if err != nil {
		return SubscriptionStatusUnknown
	}
	return status
}

// Scan implements sql.Scanner.
func (s *SubscriptionStatus) Scan(value any) error {
	raw, err := scanString(value)
	if err != nil {
		return fmt.Errorf("subscription status: %w", err)
	}
	*s = SubscriptionStatusOf(raw)
	return nil
}

// Value implements driver.Valuer.
func (s SubscriptionStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func (s *SubscriptionStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = SubscriptionStatusOf(raw)
	return nil
}

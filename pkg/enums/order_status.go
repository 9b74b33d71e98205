package enums

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// OrderStatus tracks the lifecycle of a customer order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusFailed     OrderStatus = "FAILED"
	OrderStatusUnknown    OrderStatus = "UNKNOWN"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusCompleted,
	OrderStatusCancelled,
	OrderStatusFailed,
	OrderStatusUnknown,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// Cancellable reports whether the customer may still cancel.
func (o OrderStatus) Cancellable() bool {
	return o == OrderStatusPending || o == OrderStatusProcessing
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	normalized := OrderStatus(strings.ToUpper(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// OrderStatusOf maps unrecognised labels to OrderStatusUnknown.
func OrderStatusOf(value string) OrderStatus {
	status, err := ParseOrderStatus(value)
	if err != nil {
		return OrderStatusUnknown
	}
	return status
}

// Scan implements sql.Scanner.
func (o *OrderStatus) Scan(value any) error {
	raw, err := scanString(value)
	if err != nil {
		return fmt.Errorf("order status: %w", err)
	}
	*o = OrderStatusOf(raw)
	return nil
}

// Value implements driver.Valuer.
func (o OrderStatus) Value() (driver.Value, error) {
	return string(o), nil
}

func (o *OrderStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*o = OrderStatusOf(raw)
	return nil
}

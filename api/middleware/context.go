package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	ctxCustomerID    contextKey = "customer_id"
	ctxCustomerName  contextKey = "customer_name"
	ctxCustomerPhone contextKey = "customer_phone"
)

// Customer is the authenticated caller.
type Customer struct {
	ID    uuid.UUID
	Name  string
	Phone string
}

func CustomerFromContext(ctx context.Context) (Customer, bool) {
	if ctx == nil {
		return Customer{}, false
	}
	id, ok := ctx.Value(ctxCustomerID).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return Customer{}, false
	}
	name, _ := ctx.Value(ctxCustomerName).(string)
	phone, _ := ctx.Value(ctxCustomerPhone).(string)
	return Customer{ID: id, Name: name, Phone: phone}, true
}

func CustomerIDFromContext(ctx context.Context) string {
	if c, ok := CustomerFromContext(ctx); ok {
		return c.ID.String()
	}
	return ""
}

// WithCustomer injects the caller into the context.
func WithCustomer(ctx context.Context, c Customer) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxCustomerID, c.ID)
	ctx = context.WithValue(ctx, ctxCustomerName, c.Name)
	return context.WithValue(ctx, ctxCustomerPhone, c.Phone)
}

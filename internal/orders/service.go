package orders

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/nearbuy-backend/internal/stores"
	"github.com/angelmondragon/nearbuy-backend/pkg/db/models"
	"github.com/angelmondragon/nearbuy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/nearbuy-backend/pkg/errors"
	"github.com/angelmondragon/nearbuy-backend/pkg/logger"
	"github.com/angelmondragon/nearbuy-backend/pkg/pagination"
	"github.com/angelmondragon/nearbuy-backend/pkg/remote"
	"github.com/angelmondragon/nearbuy-backend/pkg/syncpolicy"
)

type rowPolicy[T any] interface {
	Remote(ctx context.Context, q remote.Query) ([]T, error)
	Cached(ctx context.Context, index string, match func(T) bool) ([]T, error)
	Lookup(ctx context.Context, id string) (T, bool, error)
	Insert(ctx context.Context, rows ...T) ([]T, error)
	Update(ctx context.Context, f remote.Filter, patch map[string]any, updated ...T) error
	WriteThrough(ctx context.Context, rows ...T) error
}

type storeLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*stores.StoreDTO, enums.DataSource, error)
}

// Service coordinates order writes across the remote and the local cache.
type Service interface {
	PlaceOrder(ctx context.Context, in PlaceOrderInput) (uuid.UUID, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*OrderDTO, enums.DataSource, error)
	GetCustomerOrders(ctx context.Context, customerID uuid.UUID, phone string, limit int) (syncpolicy.Result[OrderDTO], error)
	CancelOrder(ctx context.Context, who Requester, id uuid.UUID) (*OrderDTO, error)
}

type service struct {
	orders rowPolicy[models.Order]
	items  rowPolicy[models.OrderItem]
	stores storeLoader
	logg   *logger.Logger
	now    func() time.Time
}

// NewService wires the order and order item policies.
func NewService(orderPolicy rowPolicy[models.Order], itemPolicy rowPolicy[models.OrderItem], storeSvc storeLoader, logg *logger.Logger) (Service, error) {
	if orderPolicy == nil {
		return nil, fmt.Errorf("order policy required")
	}
	if itemPolicy == nil {
		return nil, fmt.Errorf("order item policy required")
	}
	if storeSvc == nil {
		return nil, fmt.Errorf("store loader required")
	}
	return &service{
		orders: orderPolicy,
		items:  itemPolicy,
		stores: storeSvc,
		logg:   logg,
		now:    time.Now,
	}, nil
}

// PlaceOrder writes the header, then the items under the header's id. A
// failed header write leaves nothing behind. A failed item write returns
// PARTIAL_WRITE carrying the order id; the cache still holds the full order.
func (s *service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (uuid.UUID, error) {
	if err := validatePlaceOrder(in); err != nil {
		return uuid.Nil, err
	}

	now := s.now().UTC()
	header := models.Order{
		CustomerID:      in.CustomerID,
		StoreID:         in.StoreID,
		TotalAmount:     in.Subtotal().Add(in.DeliveryFee),
		DeliveryFee:     in.DeliveryFee,
		Status:          enums.OrderStatusPending,
		DeliveryAddress: strings.TrimSpace(in.DeliveryAddress),
		CustomerPhone:   strings.TrimSpace(in.CustomerPhone),
		CustomerName:    strings.TrimSpace(in.CustomerName),
		PaymentMethod:   strings.TrimSpace(in.PaymentMethod),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	saved, err := s.orders.Insert(ctx, header)
	if err != nil {
		return uuid.Nil, err
	}
	if len(saved) > 0 {
		header = saved[0]
	}
	if header.ID == uuid.Nil {
		header.ID = uuid.New()
		s.warn(ctx, header.ID, "remote returned no order id, using a local one", nil)
		if err := s.orders.WriteThrough(ctx, header); err != nil {
			s.warn(ctx, header.ID, "cache write-through failed", err)
		}
	}

	items := make([]models.OrderItem, 0, len(in.Items))
	for _, item := range in.Items {
		items = append(items, models.OrderItem{
			ID:          uuid.New(),
			OrderID:     header.ID,
			ProductID:   item.ProductID,
			ProductName: strings.TrimSpace(item.ProductName),
			Quantity:    item.Quantity,
			Price:       item.Price,
		})
	}

	if _, err := s.items.Insert(ctx, items...); err != nil {
		if cacheErr := s.items.WriteThrough(ctx, items...); cacheErr != nil {
			s.warn(ctx, header.ID, "cache write-through failed", cacheErr)
		}
		return header.ID, pkgerrors.Wrap(pkgerrors.CodePartialWrite, err, "order saved without its items").
			WithDetails(map[string]any{"order_id": header.ID})
	}
	return header.ID, nil
}

func (s *service) GetOrderByID(ctx context.Context, id uuid.UUID) (*OrderDTO, enums.DataSource, error) {
	order, err := s.remoteOrder(ctx, id)
	if err == nil && order != nil {
		dto := FromModel(*order)
		return &dto, enums.DataSourceRemote, nil
	}
	if err != nil {
		s.warn(ctx, id, "remote order read failed, serving cache", err)
	}

	header, found, cacheErr := s.orders.Lookup(ctx, id.String())
	if cacheErr != nil {
		return nil, enums.DataSourceCache, cacheErr
	}
	if !found {
		return nil, enums.DataSourceCache, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	items, cacheErr := s.items.Cached(ctx, id.String(), nil)
	if cacheErr != nil {
		return nil, enums.DataSourceCache, cacheErr
	}
	header.Items = items
	header.StoreName = s.storeName(ctx, header.StoreID)
	dto := FromModel(header)
	return &dto, enums.DataSourceCache, nil
}

// remoteOrder returns nil, nil when the remote has no such order.
func (s *service) remoteOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	headers, err := s.orders.Remote(ctx, remote.Query{Filter: remote.Where(remote.Eq("id", id)), Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(headers) == 0 {
		return nil, nil
	}
	items, err := s.items.Remote(ctx, remote.Query{Filter: remote.Where(remote.Eq("order_id", id))})
	if err != nil {
		return nil, err
	}
	order := headers[0]
	order.Items = items
	order.StoreName = s.storeName(ctx, order.StoreID)
	return &order, nil
}

// GetCustomerOrders looks orders up by customer id, then by the spellings
// of phone, then in the cache. Any remote failure goes straight to the cache.
func (s *service) GetCustomerOrders(ctx context.Context, customerID uuid.UUID, phone string, limit int) (syncpolicy.Result[OrderDTO], error) {
	limit = pagination.NormalizeLimit(limit)
	byNewest := []remote.Order{{Column: "created_at", Desc: true}}

	attempts := []remote.Filter{remote.Where(remote.Eq("customer_id", customerID))}
	for _, variant := range PhoneVariants(phone) {
		attempts = append(attempts, remote.Where(remote.Eq("customer_phone", variant)))
	}

	if s.logg != nil && phone != "" {
		ctx = s.logg.WithPhone(ctx, phone)
	}

	var cause error
	for i, f := range attempts {
		if i == 1 && s.logg != nil {
			s.logg.Info(ctx, "no orders by customer id, trying phone variants")
		}
		rows, err := s.orders.Remote(ctx, remote.Query{Filter: f, OrderBy: byNewest, Limit: limit})
		if err != nil {
			cause = err
			s.warn(ctx, customerID, "remote order history failed, serving cache", err)
			break
		}
		if len(rows) > 0 {
			return s.summaries(ctx, rows, enums.DataSourceRemote, nil), nil
		}
	}

	rows, err := s.orders.Cached(ctx, customerID.String(), nil)
	if err != nil {
		return syncpolicy.Result[OrderDTO]{Source: enums.DataSourceCache, Cause: cause}, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return s.summaries(ctx, rows, enums.DataSourceCache, cause), nil
}

// CancelOrder moves a PENDING or PROCESSING order owned by who to
// CANCELLED, remotely first and then in the cache.
func (s *service) CancelOrder(ctx context.Context, who Requester, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.remoteOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil || !who.Owns(order.CustomerID, order.CustomerPhone) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if !order.Status.Cancellable() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled").
			WithDetails(map[string]any{"status": order.Status})
	}

	order.Status = enums.OrderStatusCancelled
	order.UpdatedAt = s.now().UTC()
	filter := remote.Where(remote.Eq("id", id), remote.Eq("customer_id", order.CustomerID))
	patch := map[string]any{"status": order.Status, "updated_at": order.UpdatedAt}
	if err := s.orders.Update(ctx, filter, patch, *order); err != nil {
		return nil, err
	}
	dto := FromModel(*order)
	return &dto, nil
}

func (s *service) summaries(ctx context.Context, rows []models.Order, source enums.DataSource, cause error) syncpolicy.Result[OrderDTO] {
	names := map[uuid.UUID]string{}
	res := syncpolicy.Result[OrderDTO]{Items: make([]OrderDTO, 0, len(rows)), Source: source, Cause: cause}
	for _, row := range rows {
		name, ok := names[row.StoreID]
		if !ok {
			name = s.storeName(ctx, row.StoreID)
			names[row.StoreID] = name
		}
		row.StoreName = name
		res.Items = append(res.Items, FromModel(row))
	}
	return res
}

// storeName falls back to the raw store id when the store cannot be read.
func (s *service) storeName(ctx context.Context, storeID uuid.UUID) string {
	store, _, err := s.stores.GetByID(ctx, storeID)
	if err != nil || store == nil {
		return storeID.String()
	}
	return store.Name
}

func (s *service) warn(ctx context.Context, orderID uuid.UUID, msg string, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithField(ctx, "order_id", orderID.String())
	if err != nil {
		ctx = s.logg.WithField(ctx, "error", err.Error())
	}
	s.logg.Warn(ctx, msg)
}

func validatePlaceOrder(in PlaceOrderInput) error {
	switch {
	case in.CustomerID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	case in.StoreID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	case len(in.Items) == 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	case strings.TrimSpace(in.DeliveryAddress) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required")
	case strings.TrimSpace(in.PaymentMethod) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "payment method is required")
	case in.DeliveryFee.IsNegative():
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery fee cannot be negative")
	}
	for _, item := range in.Items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "item product id is required")
		}
		if item.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be at least 1")
		}
		if item.Price.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "item price cannot be negative")
		}
	}
	return nil
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/storefront/pkg/events"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/notify"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ItemInput is one order line as submitted by the app. Older app builds send
// the quantity as "qty".
type ItemInput struct {
	ProductID   string   `json:"productId"`
	ProductName string   `json:"productName"`
	Quantity    *int     `json:"quantity"`
	Qty         *int     `json:"qty"`
	Price       *float64 `json:"price"`
}

type CODInput struct {
	UserID      string         `json:"userId"`
	Items       []ItemInput    `json:"items"`
	TotalAmount float64        `json:"totalAmount"`
	Address     models.Address `json:"address"`
}

// OrderQuery holds the raw admin order list filters.
type OrderQuery struct {
	Status   string `form:"status"`
	UserID   string `form:"userId"`
	FromDate string `form:"fromDate"`
	ToDate   string `form:"toDate"`
}

func normalizeItems(in []ItemInput) ([]models.OrderItem, error) {
	if len(in) == 0 {
		return nil, fail(ErrValidation, "items are required")
	}
	items := make([]models.OrderItem, 0, len(in))
	for i, it := range in {
		productID, err := primitive.ObjectIDFromHex(it.ProductID)
		if err != nil {
			return nil, fail(ErrValidation, "items[%d]: invalid productId", i)
		}
		qty := it.Quantity
		if qty == nil {
			qty = it.Qty
		}
		if qty == nil || *qty <= 0 {
			return nil, fail(ErrValidation, "items[%d]: quantity must be a positive number", i)
		}
		if it.Price == nil || *it.Price <= 0 {
			return nil, fail(ErrValidation, "items[%d]: price must be a positive number", i)
		}
		items = append(items, models.OrderItem{
			ProductID:   productID,
			ProductName: strings.TrimSpace(it.ProductName),
			Quantity:    *qty,
			Price:       *it.Price,
		})
	}
	return items, nil
}

func validateAddress(a models.Address) error {
	if missing := a.MissingFields(); len(missing) > 0 {
		return fail(ErrValidation, "address is missing %s (streetArea, state, city and pincode are mandatory)", strings.Join(missing, ", "))
	}
	return nil
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// orderHooks runs the best-effort side effects that follow a committed order
// write. None of them can fail the request.
type orderHooks struct {
	notifier *Notifier
	events   EventPublisher
	audit    *auditor
	logger   *zap.Logger
}

func shortID(id primitive.ObjectID) string {
	h := id.Hex()
	return strings.ToUpper(h[len(h)-6:])
}

func (h *orderHooks) publish(ctx context.Context, eventType string, order *models.Order) {
	if h.events == nil {
		return
	}
	if err := h.events.PublishOrder(ctx, events.NewOrderEvent(eventType, order)); err != nil {
		h.logger.Warn("Failed to publish order event", zap.String("type", eventType), zap.String("order_id", order.ID.Hex()), zap.Error(err))
	}
}

func (h *orderHooks) placed(ctx context.Context, order *models.Order) NotifyResult {
	ctx = context.WithoutCancel(ctx)
	h.publish(ctx, events.OrderPlaced, order)
	h.audit.record(ctx, "order.placed", order.ID.Hex(), bson.M{
		"userId":        order.UserID.Hex(),
		"paymentMethod": order.PaymentMethod,
		"totalAmount":   order.TotalAmount,
	})

	data := map[string]string{"orderId": order.ID.Hex(), "type": "order_placed"}
	return h.notifier.NotifyOrder(ctx, order.UserID,
		notify.Message{
			Title: "Order placed",
			Body:  fmt.Sprintf("Your order #%s of %.2f has been placed.", shortID(order.ID), order.TotalAmount),
			Data:  data,
		},
		notify.Message{
			Title: "New order received",
			Body:  fmt.Sprintf("Order #%s for %.2f (%s)", shortID(order.ID), order.TotalAmount, order.PaymentMethod),
			Data:  data,
		},
	)
}

func (h *orderHooks) statusChanged(ctx context.Context, order *models.Order, from models.OrderStatus) NotifyResult {
	ctx = context.WithoutCancel(ctx)
	h.publish(ctx, events.OrderStatusChanged, order)
	h.audit.record(ctx, "order.status_changed", order.ID.Hex(), bson.M{
		"from": from,
		"to":   order.OrderStatus,
	})

	data := map[string]string{"orderId": order.ID.Hex(), "type": "order_status", "status": string(order.OrderStatus)}
	return h.notifier.NotifyOrder(ctx, order.UserID,
		notify.Message{
			Title: "Order " + strings.ToLower(string(order.OrderStatus)),
			Body:  fmt.Sprintf("Your order #%s is now %s.", shortID(order.ID), order.OrderStatus),
			Data:  data,
		},
		notify.Message{
			Title: "Order status updated",
			Body:  fmt.Sprintf("Order #%s moved from %s to %s.", shortID(order.ID), from, order.OrderStatus),
			Data:  data,
		},
	)
}

type OrderService struct {
	orders OrderStore
	users  MobileUserStore
	hooks  *orderHooks
	logger *zap.Logger
}

func NewOrderService(orders OrderStore, users MobileUserStore, notifier *Notifier, publisher EventPublisher, audit AuditLogger, logger *zap.Logger) *OrderService {
	logger = logger.Named("orders")
	return &OrderService{
		orders: orders,
		users:  users,
		hooks: &orderHooks{
			notifier: notifier,
			events:   publisher,
			audit:    newAuditor(audit, "orders", logger),
			logger:   logger,
		},
		logger: logger,
	}
}

// PlaceCOD validates and persists a cash-on-delivery order. Nothing is
// written when any item is rejected.
func (s *OrderService) PlaceCOD(ctx context.Context, in CODInput) (*models.Order, error) {
	userID, err := parseID("userId", in.UserID)
	if err != nil {
		return nil, err
	}
	if in.TotalAmount <= 0 {
		return nil, fail(ErrValidation, "totalAmount must be a positive number")
	}
	if err := validateAddress(in.Address); err != nil {
		return nil, err
	}
	items, err := normalizeItems(in.Items)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.FindMobileUser(ctx, userID); err != nil {
		return nil, notFound(err, "user")
	}

	order := &models.Order{
		UserID:        userID,
		Items:         items,
		TotalAmount:   money(in.TotalAmount).InexactFloat64(),
		Address:       in.Address,
		PaymentMethod: models.PaymentMethodCOD,
		OrderStatus:   models.OrderStatusPlaced,
	}
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info("COD order placed", zap.String("order_id", order.ID.Hex()), zap.String("user_id", userID.Hex()))
	s.hooks.placed(ctx, order)
	return order, nil
}

// UpdateStatus moves an order to status and reports how many push
// notifications went out. An unknown status leaves the order untouched.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, status string) (*models.Order, NotifyResult, error) {
	id, err := parseID("orderId", orderID)
	if err != nil {
		return nil, NotifyResult{}, err
	}
	next, ok := models.ParseOrderStatus(status)
	if !ok {
		return nil, NotifyResult{}, fail(ErrValidation, "invalid orderStatus %q, allowed: %s", status, joinStatuses())
	}

	current, err := s.orders.FindOrder(ctx, id)
	if err != nil {
		return nil, NotifyResult{}, notFound(err, "order")
	}

	order, err := s.orders.UpdateOrderStatus(ctx, id, next)
	if err != nil {
		return nil, NotifyResult{}, notFound(err, "order")
	}

	s.logger.Info("Order status updated",
		zap.String("order_id", id.Hex()),
		zap.String("from", string(current.OrderStatus)),
		zap.String("to", string(next)))

	sent := s.hooks.statusChanged(ctx, order, current.OrderStatus)
	return order, sent, nil
}

func joinStatuses() string {
	statuses := models.OrderStatuses()
	names := make([]string, len(statuses))
	for i, st := range statuses {
		names[i] = string(st)
	}
	return strings.Join(names, ", ")
}

func (s *OrderService) UpdateTracking(ctx context.Context, orderID, trackingID, trackingURL string) (*models.Order, error) {
	id, err := parseID("orderId", orderID)
	if err != nil {
		return nil, err
	}
	trackingID, trackingURL = strings.TrimSpace(trackingID), strings.TrimSpace(trackingURL)
	if trackingID == "" && trackingURL == "" {
		return nil, fail(ErrValidation, "trackingId or trackingUrl is required")
	}
	order, err := s.orders.UpdateOrderTracking(ctx, id, trackingID, trackingURL)
	if err != nil {
		return nil, notFound(err, "order")
	}
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	id, err := parseID("orderId", orderID)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.FindOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "order")
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, q OrderQuery) ([]models.Order, error) {
	var f models.OrderFilter
	if q.Status != "" {
		st, ok := models.ParseOrderStatus(q.Status)
		if !ok {
			return nil, fail(ErrValidation, "invalid status %q", q.Status)
		}
		f.Status = &st
	}
	if q.UserID != "" {
		id, err := parseID("userId", q.UserID)
		if err != nil {
			return nil, err
		}
		f.UserID = &id
	}
	if q.FromDate != "" {
		from, _, err := parseDate(q.FromDate)
		if err != nil {
			return nil, fail(ErrValidation, "invalid fromDate")
		}
		f.From = &from
	}
	if q.ToDate != "" {
		to, dateOnly, err := parseDate(q.ToDate)
		if err != nil {
			return nil, fail(ErrValidation, "invalid toDate")
		}
		if dateOnly {
			to = to.Add(24*time.Hour - time.Nanosecond)
		}
		f.To = &to
	}
	return s.orders.ListOrders(ctx, f)
}

func (s *OrderService) MyOrders(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return s.orders.ListOrders(ctx, models.OrderFilter{UserID: &userID})
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func parseDate(s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	return t, true, err
}

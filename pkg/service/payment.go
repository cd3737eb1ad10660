package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/storefront/pkg/ledger"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/payment"
	"github.com/example/storefront/pkg/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const reasonAmountMismatch = "amount_mismatch"

type IntentInput struct {
	UserID      string  `json:"userId"`
	TotalAmount float64 `json:"totalAmount"`
}

type VerifyInput struct {
	GatewayOrderID   string         `json:"razorpay_order_id"`
	GatewayPaymentID string         `json:"razorpay_payment_id"`
	Signature        string         `json:"razorpay_signature"`
	UserID           string         `json:"userId"`
	Items            []ItemInput    `json:"items"`
	TotalAmount      float64        `json:"totalAmount"`
	Address          models.Address `json:"address"`
}

// VerifyResult carries the order for a verified payment. Created is false
// when the payment had already been turned into an order.
type VerifyResult struct {
	Order   *models.Order
	Created bool
}

type PaymentService struct {
	users    MobileUserStore
	payments PaymentStore
	orders   OrderStore
	gateway  PaymentGateway
	locker   Locker
	ledger   Ledger
	hooks    *orderHooks
	currency string
	logger   *zap.Logger
}

type PaymentDeps struct {
	Users     MobileUserStore
	Payments  PaymentStore
	Orders    OrderStore
	Gateway   PaymentGateway
	Locker    Locker
	Ledger    Ledger
	Notifier  *Notifier
	Publisher EventPublisher
	Audit     AuditLogger
	Currency  string
}

func NewPaymentService(deps PaymentDeps, logger *zap.Logger) *PaymentService {
	logger = logger.Named("payments")
	currency := deps.Currency
	if currency == "" {
		currency = "INR"
	}
	return &PaymentService{
		users:    deps.Users,
		payments: deps.Payments,
		orders:   deps.Orders,
		gateway:  deps.Gateway,
		locker:   deps.Locker,
		ledger:   deps.Ledger,
		hooks: &orderHooks{
			notifier: deps.Notifier,
			events:   deps.Publisher,
			audit:    newAuditor(deps.Audit, "payments", logger),
			logger:   logger,
		},
		currency: currency,
		logger:   logger,
	}
}

func newReceipt() string {
	return "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// CreateIntent opens a gateway order for the user's total and records it
// as a CREATED payment.
func (s *PaymentService) CreateIntent(ctx context.Context, in IntentInput) (*payment.Intent, error) {
	if in.UserID == "" || !money(in.TotalAmount).IsPositive() {
		return nil, fail(ErrValidation, "userId and totalAmount are required")
	}
	userID, err := parseID("userId", in.UserID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.FindMobileUser(ctx, userID); err != nil {
		return nil, notFound(err, "user")
	}

	amount := money(in.TotalAmount)
	intent, err := s.gateway.CreateOrder(ctx, amount, newReceipt())
	if err != nil {
		s.logger.Error("Gateway order creation failed", zap.String("user_id", userID.Hex()), zap.Error(err))
		return nil, fail(ErrGateway, "%s", err.Error())
	}

	record := &models.PaymentRecord{
		UserID:          userID,
		RazorpayOrderID: intent.ID,
		Amount:          amount.InexactFloat64(),
		Currency:        s.currency,
		Status:          models.PaymentStatusCreated,
	}
	if err := s.payments.CreatePayment(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	s.logger.Info("Payment intent created",
		zap.String("gateway_order_id", intent.ID),
		zap.String("user_id", userID.Hex()),
		zap.String("amount", amount.StringFixed(2)))
	return intent, nil
}

// VerifyPayment turns a gateway callback into an order. The order is only
// written once the signature verifies and the submitted total equals the
// amount recorded when the intent was opened.
func (s *PaymentService) VerifyPayment(ctx context.Context, in VerifyInput) (*VerifyResult, error) {
	if in.GatewayOrderID == "" || in.GatewayPaymentID == "" || in.Signature == "" {
		return nil, fail(ErrValidation, "razorpay_order_id, razorpay_payment_id and razorpay_signature are required")
	}
	if err := validateAddress(in.Address); err != nil {
		return nil, err
	}
	userID, err := parseID("userId", in.UserID)
	if err != nil {
		return nil, err
	}
	items, err := normalizeItems(in.Items)
	if err != nil {
		return nil, err
	}

	release, err := s.lock(ctx, in.GatewayPaymentID)
	if err != nil {
		return nil, err
	}
	defer release()

	existing, err := s.orders.FindOrderByPaymentID(ctx, in.GatewayPaymentID)
	if err == nil {
		if existing.UserID != userID {
			s.logger.Warn("Payment id replayed by another user",
				zap.String("gateway_payment_id", in.GatewayPaymentID),
				zap.String("user_id", userID.Hex()))
			return nil, fail(ErrValidation, "payment verification failed")
		}
		s.logger.Info("Payment already processed", zap.String("gateway_payment_id", in.GatewayPaymentID), zap.String("order_id", existing.ID.Hex()))
		return &VerifyResult{Order: existing}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up order: %w", err)
	}

	if !payment.VerifySignature(s.gateway.Secret(), in.GatewayOrderID, in.GatewayPaymentID, in.Signature) {
		s.logger.Warn("Payment signature mismatch", zap.String("gateway_order_id", in.GatewayOrderID))
		return nil, fail(ErrValidation, "payment verification failed")
	}

	record, err := s.payments.FindPayment(ctx, in.GatewayOrderID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fail(ErrValidation, "no payment record for this order")
		}
		return nil, fmt.Errorf("failed to look up payment: %w", err)
	}
	if !money(record.Amount).Equal(money(in.TotalAmount)) {
		s.rejectAmount(ctx, record, in)
		return nil, fail(ErrValidation, "amount mismatch")
	}

	order := &models.Order{
		UserID:        userID,
		Items:         items,
		TotalAmount:   money(in.TotalAmount).InexactFloat64(),
		Address:       in.Address,
		PaymentMethod: models.PaymentMethodOnline,
		PaymentInfo: &models.PaymentInfo{
			RazorpayOrderID:   in.GatewayOrderID,
			RazorpayPaymentID: in.GatewayPaymentID,
		},
		OrderStatus: models.OrderStatusPlaced,
	}
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			if existing, ferr := s.orders.FindOrderByPaymentID(ctx, in.GatewayPaymentID); ferr == nil {
				return &VerifyResult{Order: existing}, nil
			}
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err := s.payments.MarkPaymentPaid(ctx, record.ID, in.GatewayPaymentID); err != nil {
		s.logger.Error("Failed to mark payment paid", zap.String("payment_id", record.ID.Hex()), zap.Error(err))
	}
	s.recordLedger(ctx, &ledger.PaymentTransaction{
		OrderID:           order.ID.Hex(),
		UserID:            userID.Hex(),
		RazorpayOrderID:   in.GatewayOrderID,
		RazorpayPaymentID: in.GatewayPaymentID,
		RazorpaySignature: in.Signature,
		Amount:            order.TotalAmount,
		Currency:          record.Currency,
		Status:            ledger.StatusSuccess,
	})

	s.logger.Info("Payment verified and order placed",
		zap.String("order_id", order.ID.Hex()),
		zap.String("gateway_payment_id", in.GatewayPaymentID))

	s.hooks.placed(ctx, order)
	return &VerifyResult{Order: order, Created: true}, nil
}

// lock serialises verification of one gateway payment id. Without a lock
// backend, or when it is unreachable, verification proceeds unserialised.
func (s *PaymentService) lock(ctx context.Context, paymentID string) (func(), error) {
	noop := func() {}
	if s.locker == nil {
		return noop, nil
	}
	release, err := s.locker.AcquireLock(ctx, "verify-payment:"+paymentID)
	switch {
	case err == nil:
		return release, nil
	case errors.Is(err, repository.ErrLockHeld):
		return nil, fail(ErrConflict, "payment is already being verified")
	default:
		s.logger.Warn("Verify lock unavailable", zap.Error(err))
		return noop, nil
	}
}

func (s *PaymentService) rejectAmount(ctx context.Context, record *models.PaymentRecord, in VerifyInput) {
	s.logger.Warn("Payment amount mismatch",
		zap.String("gateway_order_id", in.GatewayOrderID),
		zap.Float64("recorded", record.Amount),
		zap.Float64("submitted", in.TotalAmount))

	if err := s.payments.MarkPaymentFailed(ctx, record.ID, reasonAmountMismatch); err != nil {
		s.logger.Error("Failed to mark payment failed", zap.String("payment_id", record.ID.Hex()), zap.Error(err))
	}
	s.recordLedger(ctx, &ledger.PaymentTransaction{
		UserID:            record.UserID.Hex(),
		RazorpayOrderID:   in.GatewayOrderID,
		RazorpayPaymentID: in.GatewayPaymentID,
		RazorpaySignature: in.Signature,
		Amount:            in.TotalAmount,
		Currency:          record.Currency,
		Status:            ledger.StatusFailed,
		FailureReason:     reasonAmountMismatch,
	})
}

func (s *PaymentService) recordLedger(ctx context.Context, tx *ledger.PaymentTransaction) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.Record(context.WithoutCancel(ctx), tx); err != nil {
		s.logger.Warn("Failed to write payment ledger", zap.String("gateway_order_id", tx.RazorpayOrderID), zap.Error(err))
	}
}

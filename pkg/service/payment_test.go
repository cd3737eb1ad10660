package service

import (
	"context"
	"errors"
	"testing"

	"github.com/example/storefront/pkg/ledger"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/payment"
	"github.com/example/storefront/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (f *fixture) openIntent(t *testing.T, userID primitive.ObjectID, total float64) *payment.Intent {
	t.Helper()
	intent, err := f.payments.CreateIntent(context.Background(), IntentInput{UserID: userID.Hex(), TotalAmount: total})
	require.NoError(t, err)
	return intent
}

func verifyInput(intentID, paymentID string, userID primitive.ObjectID, total float64) VerifyInput {
	return VerifyInput{
		GatewayOrderID:   intentID,
		GatewayPaymentID: paymentID,
		Signature:        payment.Sign(testSecret, intentID, paymentID),
		UserID:           userID.Hex(),
		Items: []ItemInput{{
			ProductID: primitive.NewObjectID().Hex(),
			Quantity:  intPtr(2),
			Price:     floatPtr(249.75),
		}},
		TotalAmount: total,
		Address:     validAddress(),
	}
}

func (f *fixture) onlyPayment(t *testing.T) models.PaymentRecord {
	t.Helper()
	require.Len(t, f.store.Payments, 1)
	for _, p := range f.store.Payments {
		return p
	}
	return models.PaymentRecord{}
}

func TestCreateIntent(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "asha@example.com", "")

	intent := f.openIntent(t, user.ID, 499.5)
	assert.Equal(t, "order_test1", intent.ID)
	assert.Equal(t, int64(49950), intent.Amount)
	assert.Regexp(t, `^rcpt_[0-9a-f]{32}$`, intent.Receipt)

	record := f.onlyPayment(t)
	assert.Equal(t, user.ID, record.UserID)
	assert.Equal(t, "order_test1", record.RazorpayOrderID)
	assert.Equal(t, 499.5, record.Amount)
	assert.Equal(t, models.PaymentStatusCreated, record.Status)
}

func TestCreateIntentErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.payments.CreateIntent(ctx, IntentInput{TotalAmount: 10})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.payments.CreateIntent(ctx, IntentInput{UserID: primitive.NewObjectID().Hex()})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.payments.CreateIntent(ctx, IntentInput{UserID: primitive.NewObjectID().Hex(), TotalAmount: 10})
	assert.ErrorIs(t, err, ErrNotFound)

	user := f.addUser(t, "asha@example.com", "")
	f.gateway.Err = errors.New("BAD_REQUEST_ERROR: amount exceeds maximum")
	_, err = f.payments.CreateIntent(ctx, IntentInput{UserID: user.ID.Hex(), TotalAmount: 10})
	assert.ErrorIs(t, err, ErrGateway)
	assert.Equal(t, "BAD_REQUEST_ERROR: amount exceeds maximum", Message(err))
	assert.Empty(t, f.store.Payments)
}

func TestCreateIntentRejectsSubPaiseTotal(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "asha@example.com", "")

	for _, total := range []float64{0.004, 0.001, -1} {
		_, err := f.payments.CreateIntent(context.Background(), IntentInput{UserID: user.ID.Hex(), TotalAmount: total})
		assert.ErrorIs(t, err, ErrValidation, "total %v", total)
	}
	assert.Empty(t, f.gateway.Intents)
	assert.Empty(t, f.store.Payments)

	intent := f.openIntent(t, user.ID, 0.005)
	assert.Equal(t, int64(1), intent.Amount)
}

func TestVerifyPaymentCreatesOrder(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "asha@example.com", "user-token")
	f.addAdmin(t, "a1@example.com", "admin-1", true)
	f.addAdmin(t, "a2@example.com", "admin-2", true)
	f.addAdmin(t, "a3@example.com", "admin-3", false)
	intent := f.openIntent(t, user.ID, 499.5)

	res, err := f.payments.VerifyPayment(context.Background(), verifyInput(intent.ID, "pay_1", user.ID, 499.5))
	require.NoError(t, err)
	require.True(t, res.Created)

	order := res.Order
	assert.Equal(t, models.PaymentMethodOnline, order.PaymentMethod)
	assert.Equal(t, models.OrderStatusPlaced, order.OrderStatus)
	assert.Equal(t, "pay_1", order.PaymentInfo.RazorpayPaymentID)
	assert.Equal(t, intent.ID, order.PaymentInfo.RazorpayOrderID)
	require.Len(t, f.store.Orders, 1)

	record := f.onlyPayment(t)
	assert.Equal(t, models.PaymentStatusPaid, record.Status)
	assert.Equal(t, "pay_1", record.RazorpayPaymentID)

	require.Len(t, f.ledger.Rows, 1)
	assert.Equal(t, ledger.StatusSuccess, f.ledger.Rows[0].Status)
	assert.Equal(t, order.ID.Hex(), f.ledger.Rows[0].OrderID)

	require.Len(t, f.publisher.Events, 1)
	assert.Equal(t, "order.placed", f.publisher.Events[0].Type)

	assert.ElementsMatch(t, []string{"user-token", "admin-1", "admin-2"}, f.pusher.Tokens())
}

func TestVerifyPaymentRejectsMutatedSignature(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "asha@example.com", "user-token")
	intent := f.openIntent(t, user.ID, 100)

	good := verifyInput(intent.ID, "pay_1", user.ID, 100)
	for i := 0; i < len(good.Signature); i += 7 {
		in := good
		sig := []byte(in.Signature)
		if sig[i] == '0' {
			sig[i] = '1'
		} else {
			sig[i] = '0'
		}
		in.Signature = string(sig)

		_, err := f.payments.VerifyPayment(context.Background(), in)
		require.ErrorIs(t, err, ErrValidation, "position %d", i)
	}

	assert.Empty(t, f.store.Orders)
	record := f.onlyPayment(t)
	assert.Equal(t, models.PaymentStatusCreated, record.Status)
	assert.Empty(t, record.FailureReason)
	assert.Empty(t, f.ledger.Rows)
	assert.Empty(t, f.pusher.Sent)
}

func TestVerifyPaymentIsIdempotent(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "asha@example.com", "")
	intent := f.openIntent(t, user.ID, 100)
	in := verifyInput(intent.ID, "pay_1", user.ID, 100)

	first, err := f.payments.VerifyPayment(context.Background(), in)
	require.NoError(t, err)
	second, err := f.payments.VerifyPayment(context.Background(), in)
	require.NoError(t, err)

	assert.True(t, first.Created)
	assert.False(t, second.Created)
	assert.Equal(t, first.Order.ID, second.Order.ID)
	assert.Len(t, f.store.Orders, 1)
	assert.Len(t, f.publisher.Events, 1)
}

func TestVerifyPaymentDoesNotLeakOrderToOtherUser(t *testing.T) {
	f := newFixture(t)
	owner := f.addUser(t, "asha@example.com", "")
	other := f.addUser(t, "ravi@example.com", "")
	intent := f.openIntent(t, owner.ID, 100)

	_, err := f.payments.VerifyPayment(context.Background(), verifyInput(intent.ID, "pay_1", owner.ID, 100))
	require.NoError(t, err)

	replay := verifyInput(intent.ID, "pay_1", other.ID, 100)
	replay.Signature = "deadbeef"
	res, err := f.payments.VerifyPayment(context.Background(), replay)
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "payment verification failed", Message(err))
	assert.Nil(t, res)

	replay.Signature = payment.Sign(testSecret, intent.ID, "pay_1")
	res, err = f.payments.VerifyPayment(context.Background(), replay)
	require.ErrorIs(t, err, ErrValidation)
	assert.Nil(t, res)
	assert.Len(t, f.store.Orders, 1)
}

func TestVerifyPaymentRejectsAmountMismatch(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "asha@example.com", "")
	intent := f.openIntent(t, user.ID, 100)

	for _, total := range []float64{1, 99.99, 100.01, 1000} {
		_, err := f.payments.VerifyPayment(context.Background(), verifyInput(intent.ID, "pay_1", user.ID, total))
		require.ErrorIs(t, err, ErrValidation, "total %v", total)
		assert.Equal(t, "amount mismatch", Message(err))
	}

	assert.Empty(t, f.store.Orders)
	record := f.onlyPayment(t)
	assert.Equal(t, models.PaymentStatusFailed, record.Status)
	assert.Equal(t, "amount_mismatch", record.FailureReason)
	require.NotEmpty(t, f.ledger.Rows)
	assert.Equal(t, ledger.StatusFailed, f.ledger.Rows[0].Status)
}

func TestVerifyPaymentRequiresRecordForUser(t *testing.T) {
	f := newFixture(t)
	owner := f.addUser(t, "asha@example.com", "")
	other := f.addUser(t, "ravi@example.com", "")
	intent := f.openIntent(t, owner.ID, 100)

	_, err := f.payments.VerifyPayment(context.Background(), verifyInput(intent.ID, "pay_1", other.ID, 100))
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, f.store.Orders)
}

func TestVerifyPaymentValidatesAddressFirst(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "asha@example.com", "")
	intent := f.openIntent(t, user.ID, 100)

	in := verifyInput(intent.ID, "pay_1", user.ID, 100)
	in.Address.Pincode = " "
	in.Signature = "bogus"

	_, err := f.payments.VerifyPayment(context.Background(), in)
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, Message(err), "pincode")
}

func TestVerifyPaymentLocking(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "asha@example.com", "")
	intent := f.openIntent(t, user.ID, 100)
	in := verifyInput(intent.ID, "pay_1", user.ID, 100)

	f.locker.Hold("verify-payment:pay_1")
	_, err := f.payments.VerifyPayment(context.Background(), in)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Empty(t, f.store.Orders)

	// An unreachable lock backend does not block verification.
	f.locker.Err = errors.New("redis: connection refused")
	res, err := f.payments.VerifyPayment(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, res.Created)
}

func TestVerifyPaymentSurvivesSideEffectFailures(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "asha@example.com", "user-token")
	f.addAdmin(t, "a1@example.com", "admin-1", true)
	f.pusher.Fail["user-token"] = true
	f.pusher.Fail["admin-1"] = true
	f.publisher.Err = errors.New("kafka down")
	f.ledger.Err = errors.New("mysql down")
	intent := f.openIntent(t, user.ID, 100)

	res, err := f.payments.VerifyPayment(context.Background(), verifyInput(intent.ID, "pay_1", user.ID, 100))
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Len(t, f.store.Orders, 1)
	assert.Equal(t, models.PaymentStatusPaid, f.onlyPayment(t).Status)
}

func TestVerifyPaymentResolvesDuplicateInsert(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "asha@example.com", "")
	intent := f.openIntent(t, user.ID, 100)

	// A concurrent verification commits between the idempotence lookup and
	// the insert.
	f.payments.orders = &racingOrders{Store: f.store}

	res, err := f.payments.VerifyPayment(context.Background(), verifyInput(intent.ID, "pay_1", user.ID, 100))
	require.NoError(t, err)
	assert.False(t, res.Created)
	require.Len(t, f.store.Orders, 1)
	assert.Equal(t, f.store.Orders[0].ID, res.Order.ID)
	assert.Empty(t, f.publisher.Events)
}

type racingOrders struct {
	*testutil.Store
	raced bool
}

func (r *racingOrders) CreateOrder(ctx context.Context, order *models.Order) error {
	if !r.raced {
		r.raced = true
		winner := *order
		if err := r.Store.CreateOrder(ctx, &winner); err != nil {
			return err
		}
	}
	return r.Store.CreateOrder(ctx, order)
}

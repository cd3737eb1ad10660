package service

import (
	"context"
	"testing"

	"github.com/example/storefront/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func codInput(userID primitive.ObjectID, items ...ItemInput) CODInput {
	return CODInput{
		UserID:      userID.Hex(),
		Items:       items,
		TotalAmount: 300,
		Address:     validAddress(),
	}
}

func item(qty *int, price float64) ItemInput {
	return ItemInput{ProductID: primitive.NewObjectID().Hex(), ProductName: "Tea", Quantity: qty, Price: &price}
}

func TestPlaceCOD(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "asha@example.com", "user-token")
	f.addAdmin(t, "a1@example.com", "admin-1", true)

	legacy := item(nil, 100)
	legacy.Qty = intPtr(2)
	order, err := f.orders.PlaceCOD(context.Background(), codInput(user.ID, item(intPtr(1), 100), legacy))
	require.NoError(t, err)

	assert.Equal(t, models.PaymentMethodCOD, order.PaymentMethod)
	assert.Equal(t, models.OrderStatusPlaced, order.OrderStatus)
	assert.Nil(t, order.PaymentInfo)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 2, order.Items[1].Quantity)
	assert.Len(t, f.store.Orders, 1)
	assert.ElementsMatch(t, []string{"user-token", "admin-1"}, f.pusher.Tokens())
	assert.Contains(t, f.audit.Actions(), "order.placed")
}

func TestPlaceCODRejectsBadItems(t *testing.T) {
	cases := []struct {
		name  string
		items []ItemInput
		want  string
	}{
		{"no items", nil, "items are required"},
		{"zero quantity", []ItemInput{item(intPtr(1), 10), item(intPtr(0), 10)}, "items[1]: quantity must be a positive number"},
		{"missing quantity", []ItemInput{item(nil, 10)}, "items[0]: quantity must be a positive number"},
		{"negative price", []ItemInput{item(intPtr(1), 10), item(intPtr(1), 10), item(intPtr(1), -5)}, "items[2]: price must be a positive number"},
		{"bad product id", []ItemInput{{ProductID: "nope", Quantity: intPtr(1), Price: floatPtr(10)}}, "items[0]: invalid productId"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			user := f.addUser(t, "asha@example.com", "")

			_, err := f.orders.PlaceCOD(context.Background(), codInput(user.ID, tc.items...))
			require.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, tc.want, Message(err))
			assert.Empty(t, f.store.Orders)
			assert.Empty(t, f.pusher.Sent)
		})
	}
}

func TestPlaceCODRequiresAddressAndUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := codInput(primitive.NewObjectID(), item(intPtr(1), 10))
	_, err := f.orders.PlaceCOD(ctx, in)
	assert.ErrorIs(t, err, ErrNotFound)

	user := f.addUser(t, "asha@example.com", "")
	in = codInput(user.ID, item(intPtr(1), 10))
	in.Address.City = ""
	in.Address.State = ""
	_, err = f.orders.PlaceCOD(ctx, in)
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, Message(err), "state, city")

	in = codInput(user.ID, item(intPtr(1), 10))
	in.TotalAmount = 0
	_, err = f.orders.PlaceCOD(ctx, in)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, f.store.Orders)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "asha@example.com", "user-token")
	f.addAdmin(t, "a1@example.com", "admin-1", true)
	f.addAdmin(t, "a2@example.com", "admin-2", true)
	order, err := f.orders.PlaceCOD(context.Background(), codInput(user.ID, item(intPtr(1), 10)))
	require.NoError(t, err)
	f.pusher.Sent = nil
	f.pusher.Fail["admin-2"] = true

	updated, sent, err := f.orders.UpdateStatus(context.Background(), order.ID.Hex(), "SHIPPED")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, updated.OrderStatus)
	assert.Equal(t, NotifyResult{User: 1, Admins: 1}, sent)
	assert.Equal(t, 2, sent.Total())

	require.Len(t, f.publisher.Events, 2)
	assert.Equal(t, "order.status_changed", f.publisher.Events[1].Type)
	assert.Equal(t, models.OrderStatusShipped, f.publisher.Events[1].Status)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "asha@example.com", "")
	order, err := f.orders.PlaceCOD(context.Background(), codInput(user.ID, item(intPtr(1), 10)))
	require.NoError(t, err)

	for _, status := range []string{"shipped", "LOST", "", " PLACED"} {
		_, _, err := f.orders.UpdateStatus(context.Background(), order.ID.Hex(), status)
		require.ErrorIs(t, err, ErrValidation, "status %q", status)
	}

	stored, err := f.orders.GetOrder(context.Background(), order.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPlaced, stored.OrderStatus)
	assert.Len(t, f.publisher.Events, 1)
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.orders.UpdateStatus(context.Background(), primitive.NewObjectID().Hex(), "DELIVERED")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = f.orders.UpdateStatus(context.Background(), "not-an-id", "DELIVERED")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateTracking(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "asha@example.com", "")
	order, err := f.orders.PlaceCOD(context.Background(), codInput(user.ID, item(intPtr(1), 10)))
	require.NoError(t, err)

	_, err = f.orders.UpdateTracking(context.Background(), order.ID.Hex(), " ", "")
	assert.ErrorIs(t, err, ErrValidation)

	updated, err := f.orders.UpdateTracking(context.Background(), order.ID.Hex(), "AWB123", "https://track.example/AWB123")
	require.NoError(t, err)
	require.NotNil(t, updated.TrackingID)
	assert.Equal(t, "AWB123", *updated.TrackingID)
}

func TestListOrdersFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	asha := f.addUser(t, "asha@example.com", "")
	ravi := f.addUser(t, "ravi@example.com", "")

	first, err := f.orders.PlaceCOD(ctx, codInput(asha.ID, item(intPtr(1), 10)))
	require.NoError(t, err)
	second, err := f.orders.PlaceCOD(ctx, codInput(ravi.ID, item(intPtr(1), 10)))
	require.NoError(t, err)
	_, _, err = f.orders.UpdateStatus(ctx, second.ID.Hex(), "DELIVERED")
	require.NoError(t, err)

	all, err := f.orders.ListOrders(ctx, OrderQuery{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	delivered, err := f.orders.ListOrders(ctx, OrderQuery{Status: "DELIVERED"})
	require.NoError(t, err)
	require.Len(t, delivered, 1)
	assert.Equal(t, second.ID, delivered[0].ID)

	mine, err := f.orders.MyOrders(ctx, asha.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, mine[0].ID)

	// The fake store clock starts on 2024-01-01; a date-only upper bound
	// covers the whole day.
	sameDay, err := f.orders.ListOrders(ctx, OrderQuery{FromDate: "2024-01-01", ToDate: "2024-01-01"})
	require.NoError(t, err)
	assert.Len(t, sameDay, 2)

	before, err := f.orders.ListOrders(ctx, OrderQuery{ToDate: "2023-12-31"})
	require.NoError(t, err)
	assert.Empty(t, before)

	_, err = f.orders.ListOrders(ctx, OrderQuery{Status: "shipped"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.orders.ListOrders(ctx, OrderQuery{FromDate: "01/02/2024"})
	assert.ErrorIs(t, err, ErrValidation)
}

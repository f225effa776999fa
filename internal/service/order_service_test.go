package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/shop-service/internal/auth"
	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/events"
)

func TestOrderService_Create(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	alice := principalOf(f.register(t, "alice", "a@x.com", "pw"))
	bob := f.register(t, "bob", "b@x.com", "pw")
	mug := f.product(t, "mug")
	lamp := f.product(t, "lamp")

	order, err := f.orderSvc.Create(ctx, alice, CreateOrderInput{
		ShippingAddress: " 1 Main St ",
		Items: []OrderItemInput{
			{ProductID: mug.ID, Quantity: 1},
			{ProductID: lamp.ID, Quantity: 1},
			{ProductID: mug.ID, Quantity: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, alice.UserID, order.UserID)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, "1 Main St", order.ShippingAddress)
	require.Len(t, order.Items, 2, "repeated products are merged")
	quantities := map[string]int64{}
	for _, item := range order.Items {
		quantities[item.ProductID] = item.Quantity
	}
	assert.Equal(t, map[string]int64{mug.ID: 3, lamp.ID: 1}, quantities)
	assert.Contains(t, f.eventTypes(), events.EventOrderCreated)

	_, err = f.orderSvc.Create(ctx, alice, CreateOrderInput{UserID: bob.ID, ShippingAddress: "x", Items: []OrderItemInput{{ProductID: mug.ID, Quantity: 1}}})
	requireCode(t, err, "FORBIDDEN")

	_, err = f.orderSvc.Create(ctx, alice, CreateOrderInput{ShippingAddress: "x"})
	requireCode(t, err, "VALIDATION_FAILED")
	_, err = f.orderSvc.Create(ctx, alice, CreateOrderInput{ShippingAddress: "x", Items: []OrderItemInput{{ProductID: mug.ID, Quantity: 0}}})
	requireCode(t, err, "VALIDATION_FAILED")
	_, err = f.orderSvc.Create(ctx, alice, CreateOrderInput{Items: []OrderItemInput{{ProductID: mug.ID, Quantity: 1}}})
	requireCode(t, err, "VALIDATION_FAILED")
	_, err = f.orderSvc.Create(ctx, alice, CreateOrderInput{ShippingAddress: "x", Items: []OrderItemInput{{ProductID: uuid.NewString(), Quantity: 1}}})
	requireCode(t, err, "NOT_FOUND")
}

func TestOrderService_AdminOrdersForOthers(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	root := &auth.Principal{UserID: "admin-id", Status: domain.UserStatusAdmin}
	bob := f.register(t, "bob", "b@x.com", "pw")
	mug := f.product(t, "mug")

	order, err := f.orderSvc.Create(ctx, root, CreateOrderInput{UserID: bob.ID, ShippingAddress: "x", Items: []OrderItemInput{{ProductID: mug.ID, Quantity: 1}}})
	require.NoError(t, err)
	assert.Equal(t, bob.ID, order.UserID)

	_, err = f.orderSvc.Create(ctx, root, CreateOrderInput{UserID: uuid.NewString(), ShippingAddress: "x", Items: []OrderItemInput{{ProductID: mug.ID, Quantity: 1}}})
	requireCode(t, err, "NOT_FOUND")

	all, err := f.orderSvc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	mine, err := f.orderSvc.ListForUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, order.ID, mine[0].ID)

	_, err = f.orderSvc.ListForUser(ctx, "not-a-uuid")
	requireCode(t, err, "NOT_FOUND")
}

func TestOrderService_UpdateRules(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	alice := principalOf(f.register(t, "alice", "a@x.com", "pw"))
	bob := principalOf(f.register(t, "bob", "b@x.com", "pw"))
	root := &auth.Principal{UserID: "admin-id", Status: domain.UserStatusAdmin}
	mug := f.product(t, "mug")

	order, err := f.orderSvc.Create(ctx, alice, CreateOrderInput{ShippingAddress: "1 Main St", Items: []OrderItemInput{{ProductID: mug.ID, Quantity: 1}}})
	require.NoError(t, err)

	_, err = f.orderSvc.Update(ctx, bob, order.ID, UpdateOrderInput{ShippingAddress: strPtr("elsewhere")})
	requireCode(t, err, "FORBIDDEN")
	_, err = f.orderSvc.Update(ctx, alice, order.ID, UpdateOrderInput{Status: strPtr("shipped")})
	requireCode(t, err, "FORBIDDEN")
	_, err = f.orderSvc.Update(ctx, alice, order.ID, UpdateOrderInput{Status: strPtr("lost")})
	requireCode(t, err, "VALIDATION_FAILED")
	_, err = f.orderSvc.Update(ctx, alice, order.ID, UpdateOrderInput{ShippingAddress: strPtr("  ")})
	requireCode(t, err, "VALIDATION_FAILED")

	updated, err := f.orderSvc.Update(ctx, alice, order.ID, UpdateOrderInput{ShippingAddress: strPtr("2 Side St")})
	require.NoError(t, err)
	assert.Equal(t, "2 Side St", updated.ShippingAddress)
	assert.Equal(t, domain.OrderStatusPending, updated.Status)

	paid, err := f.orderSvc.Update(ctx, root, order.ID, UpdateOrderInput{Status: strPtr("Paid")})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, paid.Status)

	_, err = f.orderSvc.Update(ctx, alice, order.ID, UpdateOrderInput{Status: strPtr("cancelled")})
	de := requireCode(t, err, "ORDER_NOT_PENDING")
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)

	_, err = f.orderSvc.Update(ctx, alice, uuid.NewString(), UpdateOrderInput{Status: strPtr("cancelled")})
	requireCode(t, err, "NOT_FOUND")
	assert.Contains(t, f.eventTypes(), events.EventOrderUpdated)
}

func TestOrderService_CancelAndDelete(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	alice := principalOf(f.register(t, "alice", "a@x.com", "pw"))
	bob := principalOf(f.register(t, "bob", "b@x.com", "pw"))
	root := &auth.Principal{UserID: "admin-id", Status: domain.UserStatusAdmin}
	mug := f.product(t, "mug")

	place := func() *domain.Order {
		order, err := f.orderSvc.Create(ctx, alice, CreateOrderInput{ShippingAddress: "x", Items: []OrderItemInput{{ProductID: mug.ID, Quantity: 1}}})
		require.NoError(t, err)
		return order
	}

	first := place()
	cancelled, err := f.orderSvc.Update(ctx, alice, first.ID, UpdateOrderInput{Status: strPtr("cancelled")})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)

	second := place()
	requireCode(t, f.orderSvc.Delete(ctx, bob, second.ID), "FORBIDDEN")
	require.NoError(t, f.orderSvc.Delete(ctx, alice, second.ID))
	requireCode(t, f.orderSvc.Delete(ctx, alice, second.ID), "NOT_FOUND")

	require.NoError(t, f.orderSvc.Delete(ctx, root, first.ID))
	requireCode(t, f.orderSvc.Delete(ctx, root, "nope"), "NOT_FOUND")
	assert.Contains(t, f.eventTypes(), events.EventOrderDeleted)
}

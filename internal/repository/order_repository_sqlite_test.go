package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/testutil"
)

func newOrder(userID string, items ...domain.OrderItem) *domain.Order {
	return &domain.Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Status:          domain.OrderStatusPending,
		ShippingAddress: "1 Main St",
		Items:           items,
	}
}

func TestSQLiteOrderRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	users := NewSQLiteUserRepository(db)
	repo := NewSQLiteOrderRepository(db)

	alice := newUser("alice", "alice@example.com")
	bob := newUser("bob", "bob@example.com")
	require.NoError(t, users.Create(ctx, alice))
	require.NoError(t, users.Create(ctx, bob))

	first := newOrder(alice.ID,
		domain.OrderItem{ProductID: "b-product", Quantity: 1},
		domain.OrderItem{ProductID: "a-product", Quantity: 2},
	)
	require.NoError(t, repo.Create(ctx, first))
	assert.False(t, first.CreatedAt.IsZero())
	require.NoError(t, repo.Create(ctx, newOrder(alice.ID, domain.OrderItem{ProductID: "c", Quantity: 1})))
	require.NoError(t, repo.Create(ctx, newOrder(bob.ID, domain.OrderItem{ProductID: "c", Quantity: 4})))

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, got.Status)
	assert.Equal(t, []domain.OrderItem{{ProductID: "a-product", Quantity: 2}, {ProductID: "b-product", Quantity: 1}}, got.Items)

	all, err := repo.List(ctx, OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, first.ID, all[0].ID, "ordered by creation")

	mine, err := repo.List(ctx, OrderFilter{UserID: &alice.ID})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, o := range mine {
		assert.Equal(t, alice.ID, o.UserID)
		assert.NotEmpty(t, o.Items)
	}

	paid := domain.OrderStatusPaid
	affected, err := repo.UpdateFields(ctx, first.ID, domain.OrderPatch{Status: &paid})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	got, err = repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, got.Status)
	assert.Equal(t, "1 Main St", got.ShippingAddress)

	affected, err = repo.UpdateFields(ctx, uuid.NewString(), domain.OrderPatch{Status: &paid})
	require.NoError(t, err)
	assert.Zero(t, affected)

	affected, err = repo.Delete(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	_, err = repo.GetByID(ctx, first.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteOrderRepository_Integrity(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	users := NewSQLiteUserRepository(db)
	repo := NewSQLiteOrderRepository(db)

	require.ErrorIs(t, repo.Create(ctx, newOrder(uuid.NewString(), domain.OrderItem{ProductID: "p", Quantity: 1})), ErrInvalidReference)

	alice := newUser("alice", "alice@example.com")
	require.NoError(t, users.Create(ctx, alice))

	// A failing item rolls the whole order back.
	broken := newOrder(alice.ID, domain.OrderItem{ProductID: "p", Quantity: 0})
	require.Error(t, repo.Create(ctx, broken))
	_, err := repo.GetByID(ctx, broken.ID)
	require.ErrorIs(t, err, ErrNotFound)

	order := newOrder(alice.ID, domain.OrderItem{ProductID: "p", Quantity: 1})
	require.NoError(t, repo.Create(ctx, order))
	affected, err := users.DeleteByIdentifier(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	_, err = repo.GetByID(ctx, order.ID)
	require.ErrorIs(t, err, ErrNotFound, "orders follow their user")
}

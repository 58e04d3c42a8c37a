package redisclient

import (
	"context"
	"testing"
	"time"

	"github.com/OscarIvaVP/inventario-ventas/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartKeyLayout(t *testing.T) {
	assert.Equal(t, "cart:sale:sess-1", cartKey("sess-1", "sale"))
	assert.Equal(t, "cart:purchase:sess-1", cartKey("sess-1", "purchase"))
}

func TestIdempotencyKeyRoundTrip(t *testing.T) {
	t.Skip("Integration test - requires redis")

	client, err := NewClient("localhost:6379", "", 1)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()

	// unseen key resolves to nothing
	id, err := client.GetIdempotencyKey(ctx, "checkout-abc")
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, client.SetIdempotencyKey(ctx, "checkout-abc", "VENTA-AAAA0001", time.Hour))

	id, err = client.GetIdempotencyKey(ctx, "checkout-abc")
	require.NoError(t, err)
	assert.Equal(t, "VENTA-AAAA0001", id)
}

func TestCartRoundTrip(t *testing.T) {
	t.Skip("Integration test - requires redis")

	client, err := NewClient("localhost:6379", "", 1)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	ttl := time.Minute

	require.NoError(t, client.PushCartItem(ctx, "sess-1", "sale",
		models.CartItem{Product: "Bata", Size: "S", Quantity: 2, UnitPrice: 50}, ttl))
	require.NoError(t, client.PushCartItem(ctx, "sess-1", "sale",
		models.CartItem{Product: "Bata", Size: "M", Quantity: 1, UnitPrice: 55}, ttl))

	items, err := client.GetCart(ctx, "sess-1", "sale")
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.NoError(t, client.RemoveCartItem(ctx, "sess-1", "sale", 0, ttl))
	items, err = client.GetCart(ctx, "sess-1", "sale")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "M", items[0].Size)

	require.NoError(t, client.ClearCart(ctx, "sess-1", "sale"))
}

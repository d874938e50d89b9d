package store

import (
	"context"
	"testing"

	"vetpos-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateProductoStock(t *testing.T) {
	t.Skip("Integration test - requires database")

	store, err := NewStore(testDatabaseURL)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.EnsureSchema())

	ctx := context.Background()

	online := &models.Producto{Source: models.SourceOnline, Name: "arena", Price: 20, Stock: 5}
	require.NoError(t, store.CreateProducto(ctx, online))

	require.NoError(t, store.UpdateProductoStock(ctx, online.ID, 12))

	updated, err := store.GetProducto(ctx, online.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, updated.Stock)

	// Presencial items carry no tracked stock; the guarded update is a no-op.
	presencial := &models.Producto{Source: models.SourcePresencial, Name: "consulta", Price: 80}
	require.NoError(t, store.CreateProducto(ctx, presencial))

	require.NoError(t, store.UpdateProductoStock(ctx, presencial.ID, 99))

	unchanged, err := store.GetProducto(ctx, presencial.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, unchanged.Stock)
}

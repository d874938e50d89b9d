package service

import (
	"testing"

	"vetpos-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discreteProducto(id int64, price float64, stock int) *models.Producto {
	return &models.Producto{
		ID:     id,
		Source: models.SourceOnline,
		Name:   "producto",
		Price:  price,
		Stock:  stock,
	}
}

func TestAddItemMergesDiscreteLines(t *testing.T) {
	cart := &Cart{}
	p := discreteProducto(1, 100, 10)

	require.NoError(t, cart.AddItem(p, 0))
	require.NoError(t, cart.AddItem(p, 0))

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2.0, cart.Items[0].Quantity)
	assert.InDelta(t, 200.0, cart.Items[0].Price, Epsilon)
}

func TestAddItemDoseNeverMerges(t *testing.T) {
	cart := &Cart{}
	p := &models.Producto{
		ID:     5,
		Source: models.SourcePresencial,
		Name:   "antibiotico inyectable",
		Price:  10, // per ml
		Unit:   "ml",
		Dose:   true,
	}

	require.NoError(t, cart.AddItem(p, 2.5))
	require.NoError(t, cart.AddItem(p, 1.0))

	require.Len(t, cart.Items, 2)
	assert.InDelta(t, 25.0, cart.Items[0].Price, Epsilon)
	assert.InDelta(t, 10.0, cart.Items[1].Price, Epsilon)
}

func TestAddItemDoseRequiresAmount(t *testing.T) {
	cart := &Cart{}
	p := &models.Producto{ID: 5, Source: models.SourcePresencial, Price: 10, Dose: true}

	err := cart.AddItem(p, 0)
	assert.Error(t, err)
	assert.IsType(t, &models.ValidationError{}, err)
}

func TestAddItemRejectsOutOfStockOnline(t *testing.T) {
	cart := &Cart{}
	p := discreteProducto(1, 100, 0)

	err := cart.AddItem(p, 0)
	require.Error(t, err)
	assert.IsType(t, &models.StockConflictError{}, err)
	assert.Empty(t, cart.Items)
}

func TestChangeQuantityCapsAtStock(t *testing.T) {
	cart := &Cart{}
	p := discreteProducto(1, 50, 3)
	require.NoError(t, cart.AddItem(p, 0))

	err := cart.ChangeQuantity(0, 5, p.Stock)
	require.Error(t, err)

	conflict, ok := err.(*models.StockConflictError)
	require.True(t, ok)
	assert.Equal(t, 5, conflict.Requested)
	assert.Equal(t, 3, conflict.Available)

	// Line survives at the cap.
	assert.Equal(t, 3.0, cart.Items[0].Quantity)
	assert.InDelta(t, 150.0, cart.Items[0].Price, Epsilon)
}

func TestChangeQuantityBelowOneRemovesLine(t *testing.T) {
	cart := &Cart{}
	require.NoError(t, cart.AddItem(discreteProducto(1, 50, 3), 0))

	require.NoError(t, cart.ChangeQuantity(0, 0, 3))
	assert.Empty(t, cart.Items)
}

func TestApplyDiscountPercentage(t *testing.T) {
	cart := &Cart{}
	p := discreteProducto(1, 100, 10)
	require.NoError(t, cart.AddItem(p, 0))
	require.NoError(t, cart.ChangeQuantity(0, 2, p.Stock))

	require.NoError(t, cart.ApplyDiscount(0, models.DiscountPercentage, 10))

	item := cart.Items[0]
	assert.InDelta(t, 200.0, item.PriceBeforeDiscount, Epsilon)
	assert.InDelta(t, 20.0, item.DiscountAmount, Epsilon)
	assert.InDelta(t, 180.0, item.Price, Epsilon)
}

func TestApplyDiscountFixedNotClamped(t *testing.T) {
	cart := &Cart{}
	require.NoError(t, cart.AddItem(discreteProducto(1, 30, 10), 0))

	require.NoError(t, cart.ApplyDiscount(0, models.DiscountFixed, 50))

	// A fixed discount above the line subtotal drives the line negative.
	assert.InDelta(t, -20.0, cart.Items[0].Price, Epsilon)
}

func TestApplyDiscountRejectsNegativeValue(t *testing.T) {
	cart := &Cart{}
	require.NoError(t, cart.AddItem(discreteProducto(1, 30, 10), 0))

	assert.Error(t, cart.ApplyDiscount(0, models.DiscountPercentage, -5))
}

func TestSetUnitPriceRecomputesDiscount(t *testing.T) {
	cart := &Cart{}
	p := discreteProducto(1, 100, 10)
	require.NoError(t, cart.AddItem(p, 0))
	require.NoError(t, cart.ApplyDiscount(0, models.DiscountPercentage, 50))
	require.NoError(t, cart.SetUnitPrice(0, 80))

	item := cart.Items[0]
	assert.InDelta(t, 80.0, item.PriceBeforeDiscount, Epsilon)
	assert.InDelta(t, 40.0, item.DiscountAmount, Epsilon)
	assert.InDelta(t, 40.0, item.Price, Epsilon)
	// Catalog price is untouched.
	assert.Equal(t, 100.0, p.Price)
}

func TestSummaryAggregates(t *testing.T) {
	cart := &Cart{}
	require.NoError(t, cart.AddItem(discreteProducto(1, 100, 10), 0))
	require.NoError(t, cart.AddItem(discreteProducto(2, 59.99, 10), 0))
	require.NoError(t, cart.ApplyDiscount(1, models.DiscountPercentage, 10))

	summary := cart.Summary()
	assert.InDelta(t, 159.99, summary.Subtotal, Epsilon)
	assert.InDelta(t, 6.0, summary.TotalDiscount, Epsilon)
	assert.InDelta(t, 153.99, summary.Total, Epsilon)
}

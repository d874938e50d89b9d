package worker

import (
	"testing"

	"vetpos-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCajaDeltasConfirmada(t *testing.T) {
	payments := []models.PagoData{
		{Method: models.PaymentEfectivo, Amount: 600},
		{Method: models.PaymentEfectivo, Amount: -100, IsVuelto: true},
		{Method: models.PaymentCredito, Amount: 550},
	}

	deltas := cajaDeltas(1050, 0, payments, 1)

	assert.InDelta(t, 1050.0, deltas["total"], 0.001)
	assert.InDelta(t, 0.0, deltas["debt"], 0.001)
	assert.InDelta(t, 1.0, deltas["count"], 0.001)
	// Change folds into the cash field.
	assert.InDelta(t, 500.0, deltas[models.PaymentEfectivo], 0.001)
	assert.InDelta(t, 550.0, deltas[models.PaymentCredito], 0.001)
}

func TestCajaDeltasAnuladaMirrorsConfirmada(t *testing.T) {
	payments := []models.PagoData{
		{Method: models.PaymentDebito, Amount: 300},
	}

	add := cajaDeltas(300, 0, payments, 1)
	sub := cajaDeltas(300, 0, payments, -1)

	for field, v := range add {
		assert.InDelta(t, -v, sub[field], 0.001, field)
	}
}

func TestCajaDeltasCarriesDebt(t *testing.T) {
	payments := []models.PagoData{{Method: models.PaymentEfectivo, Amount: 200}}

	deltas := cajaDeltas(500, 300, payments, 1)

	assert.InDelta(t, 500.0, deltas["total"], 0.001)
	assert.InDelta(t, 300.0, deltas["debt"], 0.001)
	assert.InDelta(t, 200.0, deltas[models.PaymentEfectivo], 0.001)
}

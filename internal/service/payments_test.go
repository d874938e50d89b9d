package service

import (
	"testing"
	"time"

	"vetpos-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSurchargePercent(t *testing.T) {
	assert.Equal(t, 0.0, SurchargePercent(models.PaymentEfectivo, ""))
	assert.Equal(t, 0.0, SurchargePercent(models.PaymentDebito, ""))
	assert.Equal(t, 0.0, SurchargePercent(models.PaymentTransferencia, ""))
	assert.Equal(t, 10.0, SurchargePercent(models.PaymentCredito, "visa"))
	assert.Equal(t, 15.0, SurchargePercent(models.PaymentCredito, CardBrandNaranja))
}

func TestApplySurchargeAgainstBaseTotal(t *testing.T) {
	p := models.PaymentEntry{Method: models.PaymentCredito, CardBrand: CardBrandNaranja}
	ApplySurcharge(&p, 1000)

	assert.Equal(t, 15.0, p.SurchargePercent)
	assert.InDelta(t, 150.0, p.SurchargeAmount, Epsilon)
}

func TestTotalWithSurchargesSkipsVuelto(t *testing.T) {
	payments := []models.PaymentEntry{
		{Method: models.PaymentCredito, SurchargeAmount: 100},
		{Method: models.PaymentEfectivo, Amount: -50, IsVuelto: true, SurchargeAmount: 0},
	}
	assert.InDelta(t, 1100.0, TotalWithSurcharges(1000, payments), Epsilon)
}

func TestSetCardBrandClosesGap(t *testing.T) {
	base := 1000.0
	payments := []models.PaymentEntry{
		{Method: models.PaymentEfectivo, Amount: 400},
		{Method: models.PaymentCredito, Amount: 600},
	}
	ApplySurcharge(&payments[1], base)

	payments, err := SetCardBrand(payments, 1, base, CardBrandNaranja)
	require.NoError(t, err)

	assert.Equal(t, CardBrandNaranja, payments[1].CardBrand)
	assert.InDelta(t, 150.0, payments[1].SurchargeAmount, Epsilon)
	// Card amount absorbs the surcharged total minus the cash part.
	assert.InDelta(t, 750.0, payments[1].Amount, Epsilon)
}

func TestSetCardBrandRejectsNonCredit(t *testing.T) {
	payments := []models.PaymentEntry{{Method: models.PaymentEfectivo, Amount: 100}}
	_, err := SetCardBrand(payments, 0, 100, CardBrandNaranja)
	assert.Error(t, err)
}

func TestComputeBalanceExactPayment(t *testing.T) {
	payments := []models.PaymentEntry{{Method: models.PaymentEfectivo, Amount: 500}}

	kept, balance, err := ComputeBalance(payments, 500, false)
	require.NoError(t, err)

	assert.Len(t, kept, 1)
	assert.Zero(t, balance.Debt)
	assert.Zero(t, balance.Vuelto)
	assert.InDelta(t, 0.0, balance.Remaining, Epsilon)
}

func TestComputeBalanceInjectsVuelto(t *testing.T) {
	payments := []models.PaymentEntry{{Method: models.PaymentEfectivo, Amount: 600}}

	kept, balance, err := ComputeBalance(payments, 500, false)
	require.NoError(t, err)

	require.Len(t, kept, 2)
	vuelto := kept[1]
	assert.True(t, vuelto.IsVuelto)
	assert.Equal(t, models.PaymentEfectivo, vuelto.Method)
	assert.InDelta(t, -100.0, vuelto.Amount, Epsilon)
	assert.InDelta(t, 100.0, balance.Vuelto, Epsilon)
	assert.Zero(t, balance.Debt)
}

func TestComputeBalanceIsIdempotent(t *testing.T) {
	payments := []models.PaymentEntry{{Method: models.PaymentEfectivo, Amount: 600}}

	kept, _, err := ComputeBalance(payments, 500, false)
	require.NoError(t, err)

	// Reconciling again with the synthetic entry present must not stack a
	// second one.
	kept, balance, err := ComputeBalance(kept, 500, false)
	require.NoError(t, err)

	require.Len(t, kept, 2)
	assert.InDelta(t, 100.0, balance.Vuelto, Epsilon)
}

func TestComputeBalanceDebtRequiresTutor(t *testing.T) {
	payments := []models.PaymentEntry{{Method: models.PaymentEfectivo, Amount: 300}}

	_, _, err := ComputeBalance(payments, 500, false)
	require.Error(t, err)
	assert.IsType(t, &models.ValidationError{}, err)

	kept, balance, err := ComputeBalance(payments, 500, true)
	require.NoError(t, err)
	assert.Len(t, kept, 1)
	assert.InDelta(t, 200.0, balance.Debt, Epsilon)
	assert.Zero(t, balance.Vuelto)
}

func TestComputeBalanceRejectsNegativeAmount(t *testing.T) {
	payments := []models.PaymentEntry{{Method: models.PaymentEfectivo, Amount: -10}}
	_, _, err := ComputeBalance(payments, 500, true)
	assert.Error(t, err)
}

func TestComputeBalanceToleratesCentDrift(t *testing.T) {
	payments := []models.PaymentEntry{{Method: models.PaymentEfectivo, Amount: 499.995}}

	_, balance, err := ComputeBalance(payments, 500, false)
	require.NoError(t, err)
	assert.Zero(t, balance.Debt)
	assert.Zero(t, balance.Vuelto)
}

func TestApplyCupon(t *testing.T) {
	expires := time.Now().Add(24 * time.Hour)

	fixed := &models.Cupon{Code: "FIX50", Type: models.DiscountFixed, Value: 50, Status: models.CuponActivo, ExpiresAt: expires}
	total, err := ApplyCupon(200, fixed, time.Now())
	require.NoError(t, err)
	assert.InDelta(t, 150.0, total, Epsilon)

	pct := &models.Cupon{Code: "PCT10", Type: models.DiscountPercentage, Value: 10, Status: models.CuponActivo, ExpiresAt: expires}
	total, err = ApplyCupon(200, pct, time.Now())
	require.NoError(t, err)
	assert.InDelta(t, 180.0, total, Epsilon)
}

func TestApplyCuponClampsAtZero(t *testing.T) {
	c := &models.Cupon{Code: "BIG", Type: models.DiscountFixed, Value: 500, Status: models.CuponActivo, ExpiresAt: time.Now().Add(time.Hour)}
	total, err := ApplyCupon(200, c, time.Now())
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestApplyCuponRejectsExpired(t *testing.T) {
	c := &models.Cupon{Code: "OLD", Type: models.DiscountFixed, Value: 10, Status: models.CuponActivo, ExpiresAt: time.Now().Add(-time.Hour)}
	_, err := ApplyCupon(200, c, time.Now())
	assert.Error(t, err)
}

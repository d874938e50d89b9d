package service

import (
	"testing"

	"vetpos-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocatePaymentsAppliesBrandChange(t *testing.T) {
	reqs := []PaymentRequest{
		{Method: models.PaymentEfectivo, Amount: 400},
		{Method: models.PaymentCredito, Amount: 600, CardBrand: "visa"},
	}

	payments, balance, err := allocatePayments(1000,
		reqs, &BrandChangeRequest{Index: 1, CardBrand: CardBrandNaranja}, false)
	require.NoError(t, err)

	require.Len(t, payments, 2)
	assert.Equal(t, CardBrandNaranja, payments[1].CardBrand)
	assert.InDelta(t, 150.0, payments[1].SurchargeAmount, Epsilon)
	// Card amount recomputed to close the gap after the cash part.
	assert.InDelta(t, 750.0, payments[1].Amount, Epsilon)
	assert.InDelta(t, 1150.0, balance.TotalWithSurcharges, Epsilon)
	assert.Zero(t, balance.Debt)
	assert.Zero(t, balance.Vuelto)
}

func TestAllocatePaymentsBrandChangeRejectsBadIndex(t *testing.T) {
	reqs := []PaymentRequest{{Method: models.PaymentEfectivo, Amount: 100}}

	_, _, err := allocatePayments(100, reqs, &BrandChangeRequest{Index: 3, CardBrand: CardBrandNaranja}, false)
	require.Error(t, err)
	assert.IsType(t, &models.ValidationError{}, err)
}

func TestAllocatePaymentsRejectsUnknownMethod(t *testing.T) {
	reqs := []PaymentRequest{{Method: "cheque", Amount: 100}}

	_, _, err := allocatePayments(100, reqs, nil, false)
	require.Error(t, err)
	assert.IsType(t, &models.ValidationError{}, err)
}

func TestEffectiveStockPrefersSnapshot(t *testing.T) {
	// A fresher snapshot overrides the catalog read for the advisory check.
	assert.Equal(t, 2, effectiveStock(10, 2, true))
	assert.Equal(t, 0, effectiveStock(10, 0, true))
	assert.Equal(t, 10, effectiveStock(10, 0, false))
}

func TestConsolidateHistoriaOnlyTaggedLines(t *testing.T) {
	s := &SaleService{}
	tutorID, pacienteID := int64(1), int64(2)

	items := []models.CartItem{
		{Name: "consulta", ClinicalTag: true},
		{Name: "alimento"},
		{Name: "vacuna", ClinicalTag: true},
	}
	req := &CommitVentaRequest{TutorID: &tutorID, PacienteID: &pacienteID}

	h := s.consolidateHistoria(items, req)
	require.NotNil(t, h)
	assert.Equal(t, pacienteID, h.PacienteID)
	assert.Equal(t, "Venta: consulta, vacuna", h.Motivo)

	// No tagged lines, no entry.
	assert.Nil(t, s.consolidateHistoria([]models.CartItem{{Name: "alimento"}}, req))

	// No patient attached, no entry even with tags.
	assert.Nil(t, s.consolidateHistoria(items, &CommitVentaRequest{TutorID: &tutorID}))
}

package service

import (
	"time"

	"vetpos-service/internal/models"
)

// Epsilon absorbs floating-point currency arithmetic in balance comparisons.
const Epsilon = 0.01

// Card surcharge policy: one designated brand carries 15%, every other
// credit card 10%. Debit, cash and transfers carry none. The surcharge is
// always computed against the base total, never against other payments.
const (
	CardBrandNaranja        = "naranja"
	SurchargeNaranjaPercent = 15.0
	SurchargeCreditoPercent = 10.0
)

// SurchargePercent returns the surcharge rate for a payment method/brand.
func SurchargePercent(method, cardBrand string) float64 {
	if method != models.PaymentCredito {
		return 0
	}
	if cardBrand == CardBrandNaranja {
		return SurchargeNaranjaPercent
	}
	return SurchargeCreditoPercent
}

// ApplySurcharge fills the surcharge fields of a payment from the base total.
func ApplySurcharge(p *models.PaymentEntry, baseTotal float64) {
	p.SurchargePercent = SurchargePercent(p.Method, p.CardBrand)
	p.SurchargeAmount = Round2(baseTotal * p.SurchargePercent / 100)
}

// TotalWithSurcharges returns the base total plus every payment's surcharge.
func TotalWithSurcharges(baseTotal float64, payments []models.PaymentEntry) float64 {
	total := baseTotal
	for _, p := range payments {
		if p.IsVuelto {
			continue
		}
		total += p.SurchargeAmount
	}
	return Round2(total)
}

// SetCardBrand changes the brand of one card payment and recomputes that
// payment's amount to close the remaining gap after the other payments.
func SetCardBrand(payments []models.PaymentEntry, index int, baseTotal float64, brand string) ([]models.PaymentEntry, error) {
	if index < 0 || index >= len(payments) {
		return nil, models.NewValidationError("no payment at position %d", index)
	}
	if payments[index].Method != models.PaymentCredito {
		return nil, models.NewValidationError("payment %d is not a credit card payment", index)
	}

	payments[index].CardBrand = brand
	ApplySurcharge(&payments[index], baseTotal)

	var others float64
	for i, p := range payments {
		if i == index || p.IsVuelto {
			continue
		}
		others += p.Amount
	}
	payments[index].Amount = Round2(TotalWithSurcharges(baseTotal, payments) - others)
	return payments, nil
}

// Balance is the reconciliation of a payment set against the surcharged total.
// Exactly one of Debt > 0, a vuelto entry, or a settled remainder holds.
type Balance struct {
	TotalWithSurcharges float64 `json:"total_with_surcharges"`
	Paid                float64 `json:"paid"`
	Remaining           float64 `json:"remaining"`
	Debt                float64 `json:"debt"`
	Vuelto              float64 `json:"vuelto"`
}

// ComputeBalance reconciles the payments against the surcharged total.
// Overpayment injects a synthetic negative cash entry marked as change and
// zeroes the debt. Underpayment without a tutor attached is a hard
// validation error; with a tutor it becomes generated debt. Any previous
// synthetic change entry is dropped before reconciling, so the computation
// is idempotent.
func ComputeBalance(payments []models.PaymentEntry, totalWithSurcharges float64, hasTutor bool) ([]models.PaymentEntry, Balance, error) {
	kept := make([]models.PaymentEntry, 0, len(payments))
	var paid float64
	for _, p := range payments {
		if p.IsVuelto {
			continue
		}
		if p.Amount < 0 {
			return nil, Balance{}, models.NewValidationError("payment amount cannot be negative")
		}
		kept = append(kept, p)
		paid += p.Amount
	}

	balance := Balance{
		TotalWithSurcharges: totalWithSurcharges,
		Paid:                Round2(paid),
		Remaining:           Round2(totalWithSurcharges - paid),
	}

	switch {
	case balance.Remaining < -Epsilon:
		balance.Vuelto = Round2(-balance.Remaining)
		kept = append(kept, models.PaymentEntry{
			Method:   models.PaymentEfectivo,
			Amount:   Round2(balance.Remaining),
			IsVuelto: true,
		})
	case balance.Remaining > Epsilon:
		if !hasTutor {
			return nil, Balance{}, models.NewValidationError(
				"sale without a tutor cannot generate debt: remaining %.2f", balance.Remaining)
		}
		balance.Debt = balance.Remaining
	}

	return kept, balance, nil
}

// ApplyCupon applies a redeemed coupon against the base cart total. The
// result never goes below zero.
func ApplyCupon(total float64, c *models.Cupon, now time.Time) (float64, error) {
	if c.Status != models.CuponActivo {
		return 0, models.NewValidationError("coupon %s is not active", c.Code)
	}
	if now.After(c.ExpiresAt) {
		return 0, models.NewValidationError("coupon %s expired on %s", c.Code, c.ExpiresAt.Format("2006-01-02"))
	}

	switch c.Type {
	case models.DiscountFixed:
		total -= c.Value
	case models.DiscountPercentage:
		total -= total * c.Value / 100
	default:
		return 0, models.NewValidationError("unknown coupon type %q", c.Type)
	}

	if total < 0 {
		total = 0
	}
	return Round2(total), nil
}

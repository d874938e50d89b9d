package service

import (
	"context"
	"strings"
	"time"

	"vetpos-service/internal/models"
	"vetpos-service/internal/store"
	"vetpos-service/internal/util"

	"go.uber.org/zap"
)

// CuponService manages loyalty coupons. Batch expiry of stale coupons runs
// elsewhere; redemption still checks the expiry date itself.
type CuponService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewCuponService creates a new coupon service
func NewCuponService(store *store.Store) *CuponService {
	return &CuponService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// Create inserts a new active coupon.
func (cs *CuponService) Create(ctx context.Context, c *models.Cupon) error {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	if c.Code == "" {
		return models.NewValidationError("coupon code is required")
	}
	switch c.Type {
	case models.DiscountFixed, models.DiscountPercentage:
	default:
		return models.NewValidationError("coupon type must be fixed or percentage")
	}
	if c.Value <= 0 {
		return models.NewValidationError("coupon value must be positive")
	}
	if c.ExpiresAt.Before(time.Now()) {
		return models.NewValidationError("coupon expiry must be in the future")
	}

	c.Status = models.CuponActivo
	if err := cs.store.CreateCupon(ctx, c); err != nil {
		return &models.RemoteWriteError{Op: "create cupon", Err: err}
	}
	return nil
}

// ListActivos returns the active coupons.
func (cs *CuponService) ListActivos(ctx context.Context) ([]models.Cupon, error) {
	return cs.store.GetCuponesActivos(ctx)
}

// Validate checks a code and returns the coupon when it is redeemable. An
// expired coupon found here is marked vencido on the spot.
func (cs *CuponService) Validate(ctx context.Context, code string) (*models.Cupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	c, err := cs.store.GetCuponByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, models.NewValidationError("coupon %s does not exist", code)
	}
	if c.Status != models.CuponActivo {
		return nil, models.NewValidationError("coupon %s is %s", code, c.Status)
	}
	if time.Now().After(c.ExpiresAt) {
		if err := cs.store.UpdateCuponStatus(ctx, c.ID, models.CuponVencido); err != nil {
			cs.logger.Warn("Failed to mark coupon as expired",
				zap.String("code", code), zap.Error(err))
		}
		return nil, models.NewValidationError("coupon %s has expired", code)
	}
	return c, nil
}

package store

import (
	"context"
	"database/sql"

	"vetpos-service/internal/models"
)

// CreateCupon inserts a coupon
func (s *Store) CreateCupon(ctx context.Context, c *models.Cupon) error {
	query := `
		INSERT INTO cupones (code, type, value, status, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, c, query,
		c.Code, c.Type, c.Value, c.Status, c.ExpiresAt)
}

// GetCuponByCode retrieves a coupon by its code
func (s *Store) GetCuponByCode(ctx context.Context, code string) (*models.Cupon, error) {
	var c models.Cupon
	err := s.db.GetContext(ctx, &c, "SELECT * FROM cupones WHERE code = $1", code)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCuponesActivos retrieves all active coupons
func (s *Store) GetCuponesActivos(ctx context.Context) ([]models.Cupon, error) {
	var cupones []models.Cupon
	err := s.db.SelectContext(ctx, &cupones,
		"SELECT * FROM cupones WHERE status = $1 ORDER BY expires_at", models.CuponActivo)
	return cupones, err
}

// UpdateCuponStatus sets a coupon's status
func (s *Store) UpdateCuponStatus(ctx context.Context, id int64, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE cupones SET status = $1 WHERE id = $2", status, id)
	return err
}

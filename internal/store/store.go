package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"vetpos-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// GetProducto retrieves a catalog item by ID
func (s *Store) GetProducto(ctx context.Context, id int64) (*models.Producto, error) {
	var p models.Producto
	err := s.db.GetContext(ctx, &p, "SELECT * FROM productos WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Kind: "producto", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProductos retrieves all catalog items for one source
func (s *Store) GetProductos(ctx context.Context, source string) ([]models.Producto, error) {
	var productos []models.Producto
	err := s.db.SelectContext(ctx, &productos,
		"SELECT * FROM productos WHERE source = $1 ORDER BY name", source)
	return productos, err
}

// GetProductosByIDs retrieves multiple catalog items by IDs
func (s *Store) GetProductosByIDs(ctx context.Context, ids []int64) ([]models.Producto, error) {
	if len(ids) == 0 {
		return []models.Producto{}, nil
	}

	query, args, err := sqlx.In("SELECT * FROM productos WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var productos []models.Producto
	err = s.db.SelectContext(ctx, &productos, query, args...)
	return productos, err
}

// CreateProducto inserts a catalog item
func (s *Store) CreateProducto(ctx context.Context, p *models.Producto) error {
	query := `
		INSERT INTO productos (source, name, price, stock, dose, unit)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, p, query,
		p.Source, p.Name, p.Price, p.Stock, p.Dose, p.Unit)
}

// UpdateProductoStock sets the absolute stock of an online product
func (s *Store) UpdateProductoStock(ctx context.Context, id int64, stock int) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE productos SET stock = $1 WHERE id = $2 AND source = $3",
		stock, id, models.SourceOnline)
	return err
}

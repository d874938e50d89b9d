package redisclient

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"vetpos-service/internal/models"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/decrement_stock.lua
var decrementStockScript string

type Client struct {
	rdb             *redis.Client
	decrementScript *redis.Script
}

// NewClient creates a new Redis client with the stock script loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:             rdb,
		decrementScript: redis.NewScript(decrementStockScript),
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

const tutoresCacheKey = "cache:tutores"

// CacheTutores stores the tutor list as one JSON blob with a TTL. The TTL is
// the cache's whole freshness policy; readers never see stale data past it.
func (c *Client) CacheTutores(ctx context.Context, tutores []models.Tutor, ttl time.Duration) error {
	data, err := json.Marshal(tutores)
	if err != nil {
		return fmt.Errorf("failed to marshal tutores: %w", err)
	}
	return c.rdb.Set(ctx, tutoresCacheKey, data, ttl).Err()
}

// GetCachedTutores returns the cached tutor list, reporting a miss when the
// key is absent or expired.
func (c *Client) GetCachedTutores(ctx context.Context) ([]models.Tutor, bool, error) {
	data, err := c.rdb.Get(ctx, tutoresCacheKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var tutores []models.Tutor
	if err := json.Unmarshal(data, &tutores); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached tutores: %w", err)
	}
	return tutores, true, nil
}

// InvalidateTutores drops the cached tutor list after a write.
func (c *Client) InvalidateTutores(ctx context.Context) error {
	return c.rdb.Del(ctx, tutoresCacheKey).Err()
}

func stockKey(productoID int64) string {
	return fmt.Sprintf("stock:%d", productoID)
}

// InitStockSnapshot seeds the cached stock count for an online product.
func (c *Client) InitStockSnapshot(ctx context.Context, productoID int64, stock int) error {
	return c.rdb.Set(ctx, stockKey(productoID), stock, 0).Err()
}

// DecrementStockSnapshot atomically lowers the cached count, floored at zero,
// and returns the remaining snapshot value.
func (c *Client) DecrementStockSnapshot(ctx context.Context, productoID int64, quantity int) (int, error) {
	result, err := c.decrementScript.Run(ctx, c.rdb, []string{stockKey(productoID)}, quantity).Result()
	if err != nil {
		return 0, fmt.Errorf("decrement stock script failed: %w", err)
	}

	remaining, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected script result type")
	}
	return int(remaining), nil
}

// IncrementStockSnapshot raises the cached count (sale cancellation).
func (c *Client) IncrementStockSnapshot(ctx context.Context, productoID int64, quantity int) error {
	return c.rdb.IncrBy(ctx, stockKey(productoID), int64(quantity)).Err()
}

// GetStockSnapshot reads the cached count for a product.
func (c *Client) GetStockSnapshot(ctx context.Context, productoID int64) (int, bool, error) {
	val, err := c.rdb.Get(ctx, stockKey(productoID)).Int()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return val, true, nil
}

func cajaKey(fecha string) string {
	return fmt.Sprintf("caja:%s", fecha)
}

// AddCajaAmounts applies signed deltas to one register day's counters.
// Fields are payment methods plus the total/debt/count aggregates.
func (c *Client) AddCajaAmounts(ctx context.Context, fecha string, deltas map[string]float64) error {
	pipe := c.rdb.Pipeline()
	for field, delta := range deltas {
		pipe.HIncrByFloat(ctx, cajaKey(fecha), field, delta)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// GetCajaDay returns one register day's counters.
func (c *Client) GetCajaDay(ctx context.Context, fecha string) (map[string]float64, error) {
	raw, err := c.rdb.HGetAll(ctx, cajaKey(fecha)).Result()
	if err != nil {
		return nil, err
	}

	totals := make(map[string]float64, len(raw))
	for field, val := range raw {
		var f float64
		if _, err := fmt.Sscanf(val, "%f", &f); err == nil {
			totals[field] = f
		}
	}
	return totals, nil
}

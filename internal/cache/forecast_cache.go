package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/demand-forecast/internal/config"
	"github.com/andresuchdata/demand-forecast/internal/domain"
)

const (
	forecastKeyPrefix = "forecast:points"
	alertKeyPrefix    = "forecast:alerts"
	scanBatchSize     = 100
)

// ForecastCache fronts the read side of the forecast store. A miss is
// reported as ok=false with a nil error.
type ForecastCache interface {
	GetForecasts(ctx context.Context, productID int64) ([]domain.ForecastPoint, bool, error)
	SetForecasts(ctx context.Context, productID int64, points []domain.ForecastPoint) error
	GetAlerts(ctx context.Context, status domain.AlertStatus) ([]domain.StockAlert, bool, error)
	SetAlerts(ctx context.Context, status domain.AlertStatus, alerts []domain.StockAlert) error
	// InvalidateProduct drops the product's cached forecast and every cached alert list.
	InvalidateProduct(ctx context.Context, productID int64) error
	InvalidateAlerts(ctx context.Context) error
}

type redisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopForecastCache struct{}

func NewForecastCache(cfg config.CacheConfig) (ForecastCache, error) {
	if !cfg.Enabled {
		return &noopForecastCache{}, nil
	}

	client, err := dial(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	return NewRedisForecastCache(client, ttlFromSeconds(cfg.ForecastTTLSeconds)), nil
}

// NewRedisForecastCache wraps an existing client. A non-positive ttl falls back to one minute.
func NewRedisForecastCache(client *redis.Client, ttl time.Duration) ForecastCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &redisForecastCache{client: client, ttl: ttl}
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

func (c *redisForecastCache) GetForecasts(ctx context.Context, productID int64) ([]domain.ForecastPoint, bool, error) {
	var points []domain.ForecastPoint
	ok, err := c.getJSON(ctx, forecastKey(productID), &points)
	return points, ok, err
}

func (c *redisForecastCache) SetForecasts(ctx context.Context, productID int64, points []domain.ForecastPoint) error {
	return c.setJSON(ctx, forecastKey(productID), points)
}

func (c *redisForecastCache) GetAlerts(ctx context.Context, status domain.AlertStatus) ([]domain.StockAlert, bool, error) {
	var alerts []domain.StockAlert
	ok, err := c.getJSON(ctx, alertKey(status), &alerts)
	return alerts, ok, err
}

func (c *redisForecastCache) SetAlerts(ctx context.Context, status domain.AlertStatus, alerts []domain.StockAlert) error {
	return c.setJSON(ctx, alertKey(status), alerts)
}

func (c *redisForecastCache) InvalidateProduct(ctx context.Context, productID int64) error {
	keys, err := matchingKeys(ctx, c.client, alertKeyPrefix)
	if err != nil {
		return err
	}
	return unlink(ctx, c.client, append([]string{forecastKey(productID)}, keys...))
}

func (c *redisForecastCache) InvalidateAlerts(ctx context.Context) error {
	keys, err := matchingKeys(ctx, c.client, alertKeyPrefix)
	if err != nil {
		return err
	}
	return unlink(ctx, c.client, keys)
}

func (c *redisForecastCache) getJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(payload, dst); err != nil {
		return false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return true, nil
}

func (c *redisForecastCache) setJSON(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (n *noopForecastCache) GetForecasts(ctx context.Context, productID int64) ([]domain.ForecastPoint, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) SetForecasts(ctx context.Context, productID int64, points []domain.ForecastPoint) error {
	return nil
}

func (n *noopForecastCache) GetAlerts(ctx context.Context, status domain.AlertStatus) ([]domain.StockAlert, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) SetAlerts(ctx context.Context, status domain.AlertStatus, alerts []domain.StockAlert) error {
	return nil
}

func (n *noopForecastCache) InvalidateProduct(ctx context.Context, productID int64) error {
	return nil
}

func (n *noopForecastCache) InvalidateAlerts(ctx context.Context) error {
	return nil
}

func forecastKey(productID int64) string {
	return fmt.Sprintf("%s:%d", forecastKeyPrefix, productID)
}

func alertKey(status domain.AlertStatus) string {
	return fmt.Sprintf("%s:%s", alertKeyPrefix, status)
}

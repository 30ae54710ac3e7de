package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kapu/competitor-intel-go/internal/constants"
	"github.com/kapu/competitor-intel-go/internal/domain"
	"github.com/kapu/competitor-intel-go/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type CacheService struct {
	client        *redis.Client
	logger        *zap.Logger
	competitorTTL time.Duration
}

type CacheConfig struct {
	Host          string
	Port          int
	Password      string
	DB            int
	CompetitorTTL time.Duration
}

func NewCacheService(cfg CacheConfig, logger *zap.Logger) (*CacheService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.NewCacheError("failed to connect to Redis", "ping", "", err)
	}

	ttl := cfg.CompetitorTTL
	if ttl <= 0 {
		ttl = constants.CacheTTL.Competitor
	}

	logger.Info("Redis connected",
		zap.String("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		zap.Int("db", cfg.DB),
		zap.Duration("competitor_ttl", ttl),
	)

	return &CacheService{
		client:        client,
		logger:        logger,
		competitorTTL: ttl,
	}, nil
}

// Get decodes the value at key into dest. A missing key is a miss, not an
// error: dest is left untouched and nil is returned.
func (c *CacheService) Get(ctx context.Context, key string, dest any) error {
	value, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		c.logger.Error("Cache get failed", zap.String("key", key), zap.Error(err))
		return errors.NewCacheError("get failed", "get", key, err)
	}

	if dest != nil {
		if err := json.Unmarshal([]byte(value), dest); err != nil {
			c.logger.Error("Cache unmarshal failed", zap.String("key", key), zap.Error(err))
			return errors.NewCacheError("unmarshal failed", "get", key, err)
		}
	}

	return nil
}

func (c *CacheService) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return errors.NewCacheError("marshal failed", "set", key, err)
	}

	if ttl < 0 {
		ttl = 0
	}

	if err := c.client.Set(ctx, key, jsonData, ttl).Err(); err != nil {
		c.logger.Error("Cache set failed", zap.String("key", key), zap.Error(err))
		return errors.NewCacheError("set failed", "set", key, err)
	}

	return nil
}

// GetCompetitor returns the cached record for an identifier, or nil on a miss.
func (c *CacheService) GetCompetitor(ctx context.Context, identifier string) (*domain.CompetitorRecord, error) {
	key := competitorKey(identifier)

	var record *domain.CompetitorRecord
	if err := c.Get(ctx, key, &record); err != nil {
		return nil, err
	}
	if record == nil {
		c.logger.Debug("Competitor cache miss", zap.String("identifier", identifier))
		return nil, nil
	}

	record.Normalize()
	c.logger.Debug("Competitor cache hit", zap.String("identifier", identifier))
	return record, nil
}

// SetCompetitor stores a record under competitor:<identifier> with the
// configured expiry.
func (c *CacheService) SetCompetitor(ctx context.Context, identifier string, record *domain.CompetitorRecord) error {
	return c.Set(ctx, competitorKey(identifier), record, c.competitorTTL)
}

func competitorKey(identifier string) string {
	return constants.CompetitorKeyPrefix + identifier
}

func (c *CacheService) Close() error {
	if err := c.client.Close(); err != nil {
		c.logger.Error("Failed to close Redis connection", zap.Error(err))
		return err
	}
	c.logger.Info("Redis disconnected")
	return nil
}

// IsConnected reports whether Redis currently answers a ping. The health
// endpoint uses it to surface cache outages that happen after startup.
func (c *CacheService) IsConnected(ctx context.Context) bool {
	return c.client.Ping(ctx).Err() == nil
}

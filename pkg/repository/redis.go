package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/models"
	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrLockHeld is returned when another request already holds the lock.
var ErrLockHeld = errors.New("repository: lock held")

type RedisRepository struct {
	client *redis.Client
	config *config.RedisConfig
}

func NewRedisRepository(cfg *config.RedisConfig) *RedisRepository {
	return &RedisRepository{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		}),
		config: cfg,
	}
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

func (r *RedisRepository) setJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, expiration).Err()
}

func (r *RedisRepository) getJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

// AcquireLock takes a short-lived exclusive lock on name. The returned
// release func is safe to call once the work is done.
func (r *RedisRepository) AcquireLock(ctx context.Context, name string) (func(), error) {
	key := fmt.Sprintf("lock:%s", name)
	token := primitive.NewObjectID().Hex()

	ok, err := r.client.SetNX(ctx, key, token, r.config.LockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	return func() {
		releaseLock.Run(context.Background(), r.client, []string{key}, token)
	}, nil
}

// releaseLock deletes the lock key only while it still carries our token.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Cache for store settings
func settingsKey(storeID primitive.ObjectID) string {
	return fmt.Sprintf("settings:%s", storeID.Hex())
}

func (r *RedisRepository) CacheSettings(ctx context.Context, s *models.Setting) error {
	return r.setJSON(ctx, settingsKey(s.StoreID), s, r.config.CacheTTL)
}

func (r *RedisRepository) CachedSettings(ctx context.Context, storeID primitive.ObjectID) (*models.Setting, error) {
	var s models.Setting
	if err := r.getJSON(ctx, settingsKey(storeID), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *RedisRepository) InvalidateSettings(ctx context.Context, storeID primitive.ObjectID) error {
	return r.client.Del(ctx, settingsKey(storeID)).Err()
}

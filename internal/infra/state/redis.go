package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ozonms/fbosync/internal/core/domain"
)

// RedisConfig holds Redis backend configuration.
type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	Key      string `yaml:"key"`
}

// RedisStore keeps the memory in a single hash, one field per order id.
type RedisStore struct {
	rdb *redis.Client
	key string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	key := cfg.Key
	if key == "" {
		key = "fbosync:supplies"
	}
	return &RedisStore{rdb: rdb, key: key}, nil
}

// Load reads every hash field. A missing key yields an empty memory.
func (s *RedisStore) Load(ctx context.Context) (*domain.Memory, error) {
	fields, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall failed: %w", err)
	}

	mem := domain.NewMemory()
	for id, raw := range fields {
		var entry domain.MemoryEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal order %s: %w", id, err)
		}
		mem.Put(id, entry)
	}
	return mem, nil
}

// Save rewrites the hash wholesale in one transaction so forgotten orders
// disappear.
func (s *RedisStore) Save(ctx context.Context, mem *domain.Memory) error {
	snap := mem.Snapshot()

	fields := make(map[string]any, len(snap))
	for id, entry := range snap {
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal order %s: %w", id, err)
		}
		fields[id] = data
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, s.key)
	if len(fields) > 0 {
		pipe.HSet(ctx, s.key, fields)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

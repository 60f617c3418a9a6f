package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/ballistics/pointdeck/adapters"
)

// KeyValueAPI is the subset of the Redis client used by Source.
type KeyValueAPI interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// Source reads resources stored as string values under a key prefix, as
// published by a cache warmer in front of the static dataset.
type Source struct {
	config *Config
	client KeyValueAPI
	closer func() error
}

// Config holds Redis source configuration.
type Config struct {
	SourceID  string        `json:"source_id" yaml:"source_id"`
	RedisAddr string        `json:"redis_addr" yaml:"redis_addr"`
	RedisDB   int           `json:"redis_db" yaml:"redis_db"`
	Password  string        `json:"password" yaml:"password"`
	KeyPrefix string        `json:"key_prefix" yaml:"key_prefix"`
	Timeout   time.Duration `json:"timeout" yaml:"timeout"`
}

// NewSource creates a Redis source with its own client.
func NewSource(config *Config) (*Source, error) {
	if config == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if config.SourceID == "" {
		config.SourceID = "redis"
	}
	if config.RedisAddr == "" {
		config.RedisAddr = "localhost:6379"
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        config.RedisAddr,
		Password:    config.Password,
		DB:          config.RedisDB,
		ReadTimeout: config.Timeout,
	})
	return &Source{config: config, client: client, closer: client.Close}, nil
}

// NewSourceWithClient creates a Redis source over an existing client.
func NewSourceWithClient(config *Config, client KeyValueAPI) *Source {
	if config.SourceID == "" {
		config.SourceID = "redis"
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}
	return &Source{config: config, client: client, closer: func() error { return nil }}
}

// Key returns the Redis key holding a resource.
func (s *Source) Key(name string) string {
	return s.config.KeyPrefix + name
}

// Name implements adapters.ResourceSource.
func (s *Source) Name() string {
	return s.config.SourceID
}

// Fetch implements adapters.ResourceSource.
func (s *Source) Fetch(ctx context.Context, name string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	data, err := s.client.Get(ctx, s.Key(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, adapters.NewSourceError(s.config.SourceID, "fetch", name, "no such key", adapters.ErrNotFound)
		}
		return nil, adapters.NewSourceError(s.config.SourceID, "fetch", name, "get failed", err)
	}
	return data, nil
}

// Close implements adapters.ResourceSource.
func (s *Source) Close() error {
	return s.closer()
}

// Factory creates Redis sources.
type Factory struct{}

func (f *Factory) Create(config adapters.SourceConfig) (adapters.ResourceSource, error) {
	return NewSource(&Config{
		SourceID:  config.SourceID,
		RedisAddr: config.String("redis_addr"),
		RedisDB:   int(config.Int64("redis_db")),
		Password:  config.String("password"),
		KeyPrefix: config.String("key_prefix"),
		Timeout:   config.Duration("timeout"),
	})
}

func (f *Factory) ValidateConfig(config adapters.SourceConfig) error {
	if db := config.Int64("redis_db"); db < 0 {
		return fmt.Errorf("invalid redis_db: %d", db)
	}
	return nil
}

func init() {
	adapters.RegisterSourceType("redis", &Factory{})
}

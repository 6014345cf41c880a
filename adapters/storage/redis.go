package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"structcalc/core/types"
	apperrors "structcalc/internal/errors"
	"structcalc/internal/logging"
)

// DefaultRedisKey holds the snapshot when no key is configured
const DefaultRedisKey = "structcalc:workspace"

// RedisOptions configures a RedisStore
type RedisOptions struct {
	Addr     string
	Password string
	DB       int

	// Key is the string key holding the snapshot JSON
	Key string

	// MaxRetries bounds retries of a failed command; 0 means 3
	MaxRetries uint64

	// RetryInterval is the first backoff interval; 0 means 50ms
	RetryInterval time.Duration
}

// RedisStore keeps the snapshot as JSON under one key. Commands that fail
// with a connection error are retried with exponential backoff.
type RedisStore struct {
	client *redis.Client
	key    string
	opts   RedisOptions
	logger *zap.Logger
}

// NewRedisStore connects a client. The connection is opened lazily.
func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	if opts.Addr == "" {
		return nil, apperrors.New(apperrors.TypeConfig, "redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewRedisStoreWithClient(client, opts), nil
}

// NewRedisStoreWithClient wraps an existing client
func NewRedisStoreWithClient(client *redis.Client, opts RedisOptions) *RedisStore {
	if opts.Key == "" {
		opts.Key = DefaultRedisKey
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryInterval == 0 {
		opts.RetryInterval = 50 * time.Millisecond
	}
	return &RedisStore{
		client: client,
		key:    opts.Key,
		opts:   opts,
		logger: logging.Named("storage.redis"),
	}
}

// Load reads the snapshot. A missing key is an empty workspace.
func (s *RedisStore) Load(ctx context.Context) (types.WorkspaceSnapshot, error) {
	var data []byte
	err := s.retry(ctx, "load", func() error {
		var err error
		data, err = s.client.Get(ctx, s.key).Bytes()
		if errors.Is(err, redis.Nil) {
			data = nil
			return nil
		}
		return err
	})
	if err != nil {
		return types.WorkspaceSnapshot{}, apperrors.Storage("failed to read workspace from redis", err)
	}
	return decodeSnapshot(data)
}

// Save overwrites the key with the snapshot
func (s *RedisStore) Save(ctx context.Context, snap types.WorkspaceSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return apperrors.Storage("failed to marshal workspace", err)
	}
	err = s.retry(ctx, "save", func() error {
		return s.client.Set(ctx, s.key, data, 0).Err()
	})
	if err != nil {
		return apperrors.Storage("failed to write workspace to redis", err)
	}
	return nil
}

// Ping checks the connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) retry(ctx context.Context, op string, fn func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.opts.RetryInterval
	policy.MaxElapsedTime = 0

	attempt := 0
	return backoff.Retry(
		func() error {
			attempt++
			err := fn()
			if err == nil {
				return nil
			}
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			s.logger.Warn("redis command failed",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return err
		},
		backoff.WithContext(backoff.WithMaxRetries(policy, s.opts.MaxRetries), ctx),
	)
}

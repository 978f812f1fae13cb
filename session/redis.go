package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisProvider keeps carts server-side in Redis, keyed by a session id
// cookie. Entries expire after TTL of inactivity.
type RedisProvider struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	opts      CookieOptions
}

// NewRedisProvider connects to Redis at addr and checks the connection.
func NewRedisProvider(addr, password string, db int, opts CookieOptions, ttl time.Duration) (*RedisProvider, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisProviderWithClient(client, "cart:session:", opts, ttl), nil
}

// NewRedisProviderWithClient builds a provider over an existing client.
func NewRedisProviderWithClient(client *redis.Client, keyPrefix string, opts CookieOptions, ttl time.Duration) *RedisProvider {
	if keyPrefix == "" {
		keyPrefix = "cart:session:"
	}
	return &RedisProvider{client: client, keyPrefix: keyPrefix, ttl: ttl, opts: opts}
}

func (p *RedisProvider) Open(w http.ResponseWriter, r *http.Request) Session {
	id := sessionID(w, r, p.opts)
	return Session{
		ID: id,
		Storage: &redisStorage{
			provider: p,
			key:      p.keyPrefix + id,
			w:        w,
		},
	}
}

// Close closes the Redis client
func (p *RedisProvider) Close() error {
	return p.client.Close()
}

type redisStorage struct {
	provider *RedisProvider
	key      string
	w        http.ResponseWriter
}

func (s *redisStorage) Load(ctx context.Context) (string, error) {
	value, err := s.provider.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load cart: %w", err)
	}
	return value, nil
}

func (s *redisStorage) Save(ctx context.Context, value string) error {
	if err := s.provider.client.Set(ctx, s.key, value, s.provider.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func (s *redisStorage) Clear(ctx context.Context) error {
	http.SetCookie(s.w, s.provider.opts.expired())
	if err := s.provider.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/go-shop-admin/token"
	"github.com/redis/go-redis/v9"
)

// DefaultKey is the hash holding the access_token and refresh_token fields.
const DefaultKey = "shop-admin:tokens"

var _ token.Store = (*Store)(nil)

// Store keeps the pair in one Redis hash so both fields change in a single MULTI/EXEC.
type Store struct {
	client redis.UniversalClient
	key    string
}

func New(client redis.UniversalClient, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{client: client, key: key}
}

// Connect parses a redis:// or rediss:// URL and verifies the server answers PING.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (s *Store) Get(ctx context.Context) (token.Pair, error) {
	values, err := s.client.HMGet(ctx, s.key, token.AccessTokenKey, token.RefreshTokenKey).Result()
	if err != nil {
		return token.Pair{}, fmt.Errorf("failed to read tokens: %w", err)
	}
	return token.Pair{
		AccessToken:  stringValue(values, 0),
		RefreshToken: stringValue(values, 1),
	}, nil
}

func (s *Store) Set(ctx context.Context, pair token.Pair) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		pipe.HSet(ctx, s.key,
			token.AccessTokenKey, pair.AccessToken,
			token.RefreshTokenKey, pair.RefreshToken,
		)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write tokens: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear tokens: %w", err)
	}
	return nil
}

func stringValue(values []interface{}, i int) string {
	if i >= len(values) {
		return ""
	}
	s, _ := values[i].(string)
	return s
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/usecalistar/checkout-service/internal/models"
	pkgerrors "github.com/usecalistar/checkout-service/pkg/errors"
)

// Records live as long as a transaction can: the 24h expiration window.
const sessionTTL = 24 * time.Hour

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		slog.Error("failed to connect to Redis", "addr", addr, "error", err)
		panic(err)
	}

	slog.Info("connected to Redis", "addr", addr)
	return &RedisStore{client: client}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("checkout:session:%s:payment", sessionID)
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, tx *models.Transaction) error {
	if tx == nil {
		return pkgerrors.ErrNilTransaction
	}
	payload, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %w", err)
	}
	return s.client.Set(ctx, sessionKey(sessionID), payload, sessionTTL).Err()
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (*models.Transaction, error) {
	payload, err := s.client.Get(ctx, sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, pkgerrors.ErrNoTransaction
	}
	if err != nil {
		return nil, err
	}
	var tx models.Transaction
	if err := json.Unmarshal([]byte(payload), &tx); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transaction: %w", err)
	}
	return &tx, nil
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionKey(sessionID)).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Package sessionstate tracks which document is currently active for
// each user. A query without an explicit document id resolves against
// this store before falling back to the latest indexed upload.
package sessionstate

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/medreport/companion/internal/core/ports"
)

type Store struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.ActiveDocumentStore = (*Store)(nil)

// New connects to redis and verifies the connection with a ping.
func New(addr, password string, db int, ttl time.Duration) (*Store, error) {
	if addr == "" {
		addr = "127.0.0.1:6379"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Store{client: client, ttl: ttl}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) SetActive(ctx context.Context, ownerID, documentID string) error {
	if err := s.client.Set(ctx, key(ownerID), documentID, s.ttl).Err(); err != nil {
		return fmt.Errorf("set active document: %w", err)
	}
	return nil
}

// Active returns the active document id, or "" when none is set.
func (s *Store) Active(ctx context.Context, ownerID string) (string, error) {
	val, err := s.client.Get(ctx, key(ownerID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get active document: %w", err)
	}
	return val, nil
}

func (s *Store) ClearActive(ctx context.Context, ownerID string) error {
	if err := s.client.Del(ctx, key(ownerID)).Err(); err != nil {
		return fmt.Errorf("clear active document: %w", err)
	}
	return nil
}

func key(ownerID string) string {
	return "active_doc:" + ownerID
}

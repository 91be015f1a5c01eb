package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wricardo/seabattle/game/engine"
	"github.com/wricardo/seabattle/game/service"
)

const redisKeyPrefix = "seabattle:session:"

// RedisPersistence implements SessionPersistence on a Redis server so several
// processes can share matches
type RedisPersistence struct {
	client  *redis.Client
	ttl     time.Duration
	timeout time.Duration
	newRand func() engine.Rand
}

// NewRedisPersistence wraps client. A zero ttl keeps documents until deleted.
func NewRedisPersistence(client *redis.Client, ttl time.Duration) *RedisPersistence {
	return &RedisPersistence{
		client:  client,
		ttl:     ttl,
		timeout: 5 * time.Second,
		newRand: defaultRand,
	}
}

// NewRedisPersistenceFromURL parses a redis:// URL and checks the connection
func NewRedisPersistenceFromURL(ctx context.Context, url string, ttl time.Duration) (*RedisPersistence, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return NewRedisPersistence(client, ttl), nil
}

func (rp *RedisPersistence) key(id string) string {
	return redisKeyPrefix + strings.ToLower(id)
}

func (rp *RedisPersistence) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), rp.timeout)
}

// Save stores the session document, refreshing its TTL
func (rp *RedisPersistence) Save(session *service.Session) error {
	data, err := encodeSession(session)
	if err != nil {
		return err
	}

	ctx, cancel := rp.ctx()
	defer cancel()
	if err := rp.client.Set(ctx, rp.key(session.ID), data, rp.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session %s: %w", session.ID, err)
	}
	return nil
}

// Load retrieves a session document
func (rp *RedisPersistence) Load(id string) (*service.Session, error) {
	ctx, cancel := rp.ctx()
	defer cancel()

	data, err := rp.client.Get(ctx, rp.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to read session %s: %w", id, err)
	}
	return decodeSession(data, rp.newRand)
}

// Delete removes a session document
func (rp *RedisPersistence) Delete(id string) error {
	ctx, cancel := rp.ctx()
	defer cancel()

	n, err := rp.client.Del(ctx, rp.key(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	if n == 0 {
		return ErrMatchNotFound
	}
	return nil
}

// ListAll returns the IDs of all stored sessions
func (rp *RedisPersistence) ListAll() ([]string, error) {
	ctx, cancel := rp.ctx()
	defer cancel()

	var ids []string
	iter := rp.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), redisKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return ids, nil
}

// Exists checks if a session document is stored
func (rp *RedisPersistence) Exists(id string) bool {
	ctx, cancel := rp.ctx()
	defer cancel()

	n, err := rp.client.Exists(ctx, rp.key(id)).Result()
	return err == nil && n > 0
}

// Close releases the Redis connection pool
func (rp *RedisPersistence) Close() error {
	return rp.client.Close()
}

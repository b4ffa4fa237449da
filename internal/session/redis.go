package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "askdb:session:"

// RedisStore is the shared, lazily-connected document store handle. go-redis
// dials on first use, so constructing the store never blocks; one instance is
// reused across all requests.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

type Options struct {
	Address  string
	Password string
	DB       int
	// TTL expires idle sessions; zero keeps them forever.
	TTL time.Duration
}

func NewRedisStore(opts Options) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Address,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return &RedisStore{client: client, ttl: opts.TTL}
}

// NewRedisStoreWithClient exists for tests running against miniredis.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Client exposes the underlying handle so other Redis-backed repositories
// share the one connection pool.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) EnsureSession(ctx context.Context, id string) (Session, error) {
	if id == "" {
		id = uuid.NewString()
	}
	record := Session{ID: id, CreatedAt: time.Now().UTC()}
	payload, err := json.Marshal(record)
	if err != nil {
		return Session{}, fmt.Errorf("marshal session record: %w", err)
	}

	created, err := s.client.SetNX(ctx, metaKey(id), payload, s.ttl).Result()
	if err != nil {
		return Session{}, fmt.Errorf("ensure session %q: %w", id, err)
	}
	if created {
		return record, nil
	}
	return s.GetSession(ctx, id)
}

func (s *RedisStore) GetSession(ctx context.Context, id string) (Session, error) {
	raw, err := s.client.Get(ctx, metaKey(id)).Result()
	if err == redis.Nil {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session %q: %w", id, err)
	}
	var record Session
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return Session{}, fmt.Errorf("decode session %q: %w", id, err)
	}
	return record, nil
}

// AppendTurn pushes one turn onto the session's list. RPUSH is atomic per
// turn; concurrent appends to the same session interleave in arrival order
// (last-write-wins, no optimistic concurrency).
func (s *RedisStore) AppendTurn(ctx context.Context, id string, turn Turn) error {
	payload, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}
	if err := s.client.RPush(ctx, turnsKey(id), payload).Err(); err != nil {
		return fmt.Errorf("append turn to session %q: %w", id, err)
	}
	if s.ttl > 0 {
		_ = s.client.Expire(ctx, turnsKey(id), s.ttl).Err()
		_ = s.client.Expire(ctx, metaKey(id), s.ttl).Err()
	}
	return nil
}

func (s *RedisStore) RecentTurns(ctx context.Context, id string, n int) ([]Turn, error) {
	if n <= 0 {
		return nil, nil
	}
	return s.rangeTurns(ctx, id, int64(-n), -1)
}

func (s *RedisStore) ListTurns(ctx context.Context, id string) ([]Turn, error) {
	return s.rangeTurns(ctx, id, 0, -1)
}

func (s *RedisStore) rangeTurns(ctx context.Context, id string, start, stop int64) ([]Turn, error) {
	raw, err := s.client.LRange(ctx, turnsKey(id), start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("read turns for session %q: %w", id, err)
	}
	turns := make([]Turn, 0, len(raw))
	for _, item := range raw {
		var turn Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			return nil, fmt.Errorf("decode turn for session %q: %w", id, err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func metaKey(id string) string {
	return keyPrefix + id
}

func turnsKey(id string) string {
	return keyPrefix + id + ":turns"
}

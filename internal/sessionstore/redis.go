package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/facility-coordinator/internal/application"
	"github.com/example/facility-coordinator/internal/persistence"
)

const defaultKeyPrefix = "coordinator:session:"

// RedisOptions configures NewRedisClient.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects to Redis and verifies the server with a ping.
func NewRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	addr := opts.Addr
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return client, nil
}

// RedisStore keeps sessions as JSON strings that expire with the session.
type RedisStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStore returns a store using client. ttl applies to sessions saved
// without a future expiry.
func NewRedisStore(client redis.Cmdable, ttl time.Duration, now func() time.Time) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &RedisStore{client: client, prefix: defaultKeyPrefix, ttl: ttl, now: now}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

// Save stores or replaces a session. A session whose expiry has already
// passed is removed instead, matching the memory store.
func (s *RedisStore) Save(ctx context.Context, session application.AssignmentSession) error {
	if session.ID == "" {
		return fmt.Errorf("session id is required: %w", persistence.ErrConstraintViolation)
	}
	ttl := s.ttl
	if !session.ExpiresAt.IsZero() {
		ttl = session.ExpiresAt.Sub(s.now())
		if ttl <= 0 {
			if err := s.client.Del(ctx, s.key(session.ID)).Err(); err != nil {
				return fmt.Errorf("drop expired session %s: %w", session.ID, err)
			}
			return nil
		}
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(session.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("store session %s: %w", session.ID, err)
	}
	return nil
}

// Load returns a session or persistence.ErrNotFound.
func (s *RedisStore) Load(ctx context.Context, id string) (application.AssignmentSession, error) {
	payload, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return application.AssignmentSession{}, persistence.ErrNotFound
		}
		return application.AssignmentSession{}, fmt.Errorf("load session %s: %w", id, err)
	}
	var session application.AssignmentSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return application.AssignmentSession{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return session, nil
}

// Delete removes a session.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	removed, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if removed == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

var _ application.SessionStore = (*RedisStore)(nil)

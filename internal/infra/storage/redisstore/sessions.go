package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bookingrule/internal/app/bookingwindow"
)

const keyPrefix = "bookingrule:session:"

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewClient connects and pings Redis.
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", opts.Addr, err)
	}
	return client, nil
}

// SessionRepository stores sessions as JSON strings that expire ttl after the
// last save. Save is a WATCH/MULTI compare-and-set on the stored version, so
// instances sharing one Redis cannot overwrite each other's edits.
type SessionRepository struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewSessionRepository(client redis.UniversalClient, ttl time.Duration) *SessionRepository {
	return &SessionRepository{client: client, ttl: ttl}
}

func (r *SessionRepository) Get(ctx context.Context, id string) (bookingwindow.Session, error) {
	raw, err := r.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return bookingwindow.Session{}, bookingwindow.ErrSessionNotFound
	}
	if err != nil {
		return bookingwindow.Session{}, fmt.Errorf("redis: get session %s: %w", id, err)
	}
	var s bookingwindow.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return bookingwindow.Session{}, fmt.Errorf("redis: decode session %s: %w", id, err)
	}
	return s, nil
}

func (r *SessionRepository) Save(ctx context.Context, s bookingwindow.Session) error {
	key := keyPrefix + s.ID
	expected := s.Version
	s.Version++
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, found, err := storedVersion(ctx, tx, key)
		if err != nil {
			return err
		}
		if found && current != expected {
			return bookingwindow.ErrSessionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			return nil
		})
		return err
	}, key)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.TxFailedErr), errors.Is(err, bookingwindow.ErrSessionConflict):
		return fmt.Errorf("redis: save session %s: %w", s.ID, bookingwindow.ErrSessionConflict)
	default:
		return fmt.Errorf("redis: save session %s: %w", s.ID, err)
	}
}

func storedVersion(ctx context.Context, tx *redis.Tx, key string) (int64, bool, error) {
	raw, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	var head struct {
		Version int64 `json:"version"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return 0, false, fmt.Errorf("decode stored session: %w", err)
	}
	return head.Version, true, nil
}

var _ bookingwindow.SessionRepository = (*SessionRepository)(nil)

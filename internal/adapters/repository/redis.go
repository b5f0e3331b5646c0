package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/okian/wayfarer/internal/domain/place"
	"github.com/okian/wayfarer/pkg/metrics"
)

const (
	backendRedis     = "redis"
	defaultKeyPrefix = "place:"
	indexKeyPrefix   = "index:"
)

// RedisStore keeps each record as a JSON string under "<prefix><id>" and the
// set of known ids under "index:<prefix>".
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix overrides the "place:" key prefix.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: defaultKeyPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DialRedis opens a client and verifies it with PING.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", ErrUnavailable, addr, err)
	}
	return client, nil
}

func (s *RedisStore) key(id string) string { return s.prefix + id }

func (s *RedisStore) indexKey() string { return indexKeyPrefix + s.prefix }

// Lookup implements Catalog.Lookup with a single MGET.
func (s *RedisStore) Lookup(ctx context.Context, ids []string) ([]place.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	start := time.Now()
	defer func() {
		metrics.RecordCatalogLookupLatency(backendRedis, float64(time.Since(start).Microseconds())/1000)
	}()

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: mget: %w", ErrUnavailable, err)
	}

	out := make([]place.Record, 0, len(vals))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		rec, err := decodeRecord([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: decode %s: %w", ErrUnavailable, ids[i], err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Get implements Catalog.Get.
func (s *RedisStore) Get(ctx context.Context, id string) (place.Record, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return place.Record{}, ErrNotFound
	}
	if err != nil {
		return place.Record{}, fmt.Errorf("%w: get: %w", ErrUnavailable, err)
	}
	rec, err := decodeRecord(raw)
	if err != nil {
		return place.Record{}, fmt.Errorf("%w: decode %s: %w", ErrUnavailable, id, err)
	}
	return rec, nil
}

// Put implements Catalog.Put. The record and the index are written in one
// transaction.
func (s *RedisStore) Put(ctx context.Context, rec place.Record) error {
	if err := ValidateRecord(rec); err != nil {
		return err
	}
	raw, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.key(rec.PlaceID), raw, 0)
		p.SAdd(ctx, s.indexKey(), rec.PlaceID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: put %s: %w", ErrUnavailable, rec.PlaceID, err)
	}
	return nil
}

// Count implements Catalog.Count.
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	n, err := s.client.SCard(ctx, s.indexKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: scard: %w", ErrUnavailable, err)
	}
	return int(n), nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func encodeRecord(rec place.Record) ([]byte, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", rec.PlaceID, err)
	}
	return raw, nil
}

func decodeRecord(raw []byte) (place.Record, error) {
	var rec place.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return place.Record{}, err
	}
	return rec, nil
}

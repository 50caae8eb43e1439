package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = time.Hour

type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore keeps records for ttl after their last save.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// Dial parses a redis:// URL and pings the server.
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("redis url is empty")
	}
	opts, err := redis.ParseURL(strings.TrimSpace(url))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (s *RedisStore) key(id string) string { return "chessfront:session:" + strings.TrimSpace(id) }
func (s *RedisStore) keyIndex() string     { return "chessfront:sessions" }

func (s *RedisStore) Save(ctx context.Context, rec *Record) error {
	if rec == nil || strings.TrimSpace(rec.ID) == "" {
		return errors.New("session record without id")
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, s.key(rec.ID), raw, s.ttl)
	pipe.ZAdd(ctx, s.keyIndex(), redis.Z{Score: float64(rec.UpdatedAt.Unix()), Member: rec.ID})
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Load(ctx context.Context, id string) (*Record, error) {
	raw, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &rec, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, s.key(id))
	pipe.ZRem(ctx, s.keyIndex(), id)
	_, err := pipe.Exec(ctx)
	return err
}

// Recent lists ids of sessions that are still stored, most recently saved first.
// Index entries whose record expired are pruned.
func (s *RedisStore) Recent(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	ids, err := s.rdb.ZRevRange(ctx, s.keyIndex(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, id := range ids {
		n, err := s.rdb.Exists(ctx, s.key(id)).Result()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			_ = s.rdb.ZRem(ctx, s.keyIndex(), id).Err()
			continue
		}
		if len(out) < limit {
			out = append(out, id)
		}
	}
	return out, nil
}

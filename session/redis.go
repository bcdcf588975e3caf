// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ryichk/agentloop/item"
)

// DefaultKeyPrefix prefixes the Redis key of every session.
const DefaultKeyPrefix = "agentloop:session:"

type (
	// RedisSessionOptions configures a RedisSession.
	RedisSessionOptions struct {
		// Redis is the client used to store items (required).
		Redis *redis.Client
		// KeyPrefix defaults to DefaultKeyPrefix.
		KeyPrefix string
		// TTL expires the session after this long without writes. Zero keeps
		// it forever.
		TTL time.Duration
	}

	// RedisSession stores the history as a Redis list of JSON encoded items,
	// so several processes can continue the same conversation.
	RedisSession struct {
		rdb *redis.Client
		key string
		ttl time.Duration
	}
)

// NewRedisSession returns the session identified by id.
func NewRedisSession(id string, opts RedisSessionOptions) (*RedisSession, error) {
	if opts.Redis == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if id == "" {
		return nil, fmt.Errorf("session id is required")
	}
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisSession{rdb: opts.Redis, key: prefix + id, ttl: opts.TTL}, nil
}

func (s *RedisSession) GetItems(ctx context.Context, limit int) ([]item.Item, error) {
	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}
	raw, err := s.rdb.LRange(ctx, s.key, start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", s.key, err)
	}
	items := make([]item.Item, 0, len(raw))
	for _, r := range raw {
		it, err := item.UnmarshalItem([]byte(r))
		if err != nil {
			return nil, fmt.Errorf("decode session %s: %w", s.key, err)
		}
		items = append(items, it)
	}
	return items, nil
}

func (s *RedisSession) AddItems(ctx context.Context, items ...item.Item) error {
	if len(items) == 0 {
		return nil
	}
	values := make([]any, 0, len(items))
	for _, it := range items {
		raw, err := item.MarshalItem(it)
		if err != nil {
			return fmt.Errorf("encode session item: %w", err)
		}
		values = append(values, raw)
	}

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, s.key, values...)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write session %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisSession) PopItem(ctx context.Context) (item.Item, error) {
	raw, err := s.rdb.RPop(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pop session %s: %w", s.key, err)
	}
	return item.UnmarshalItem(raw)
}

func (s *RedisSession) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear session %s: %w", s.key, err)
	}
	return nil
}

package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces account documents in redis.
const KeyPrefix = "studentdb:accounts:"

// RedisDocument keeps a namespace as one JSON string value, so several
// processes can share accounts without sharing a filesystem.
type RedisDocument struct {
	client *redis.Client
	key    string
}

// NewRedisDocument returns the document for ns on client.
func NewRedisDocument(client *redis.Client, ns Namespace) *RedisDocument {
	return &RedisDocument{client: client, key: KeyPrefix + string(ns)}
}

func (d *RedisDocument) Load(ctx context.Context) (map[string]Entry, error) {
	data, err := d.client.Get(ctx, d.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return map[string]Entry{}, nil
		}
		return nil, fmt.Errorf("RedisDocument.Load: get %s: %w", d.key, err)
	}

	entries := make(map[string]Entry)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, d.key, err)
	}
	return entries, nil
}

func (d *RedisDocument) Save(ctx context.Context, entries map[string]Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("RedisDocument.Save: encode: %w", err)
	}
	if err := d.client.Set(ctx, d.key, data, 0).Err(); err != nil {
		return fmt.Errorf("RedisDocument.Save: set %s: %w", d.key, err)
	}
	return nil
}

// NewRedisClient connects and pings.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("accounts: redis ping %s: %w", addr, err)
	}
	return client, nil
}

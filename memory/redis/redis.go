// Package redis provides a durable core.MemoryBackend on top of Redis.
//
// Entries are stored under "session:{id}:{key}" with SET ... EX so the server
// enforces the TTL. Listing a session uses SCAN with a MATCH pattern followed
// by MGET; KEYS is never used.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/hupe1980/insighthub/core"
)

// Options configure the Redis backend.
type Options struct {
	// KeyPrefix namespaces all keys; defaults to "session".
	KeyPrefix string
	// ScanCount is the COUNT hint for SCAN.
	ScanCount int64
}

// Backend implements core.MemoryBackend using Redis.
type Backend struct {
	client goredis.UniversalClient
	opts   Options
}

type envelope struct {
	Value     json.RawMessage `json:"value"`
	WrittenAt time.Time       `json:"written_at"`
}

// New wraps an existing client.
func New(client goredis.UniversalClient, optFns ...func(o *Options)) *Backend {
	opts := Options{
		KeyPrefix: "session",
		ScanCount: 100,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Backend{client: client, opts: opts}
}

// NewFromURL parses a redis:// URL and connects lazily.
func NewFromURL(url string, optFns ...func(o *Options)) (*Backend, error) {
	clientOpts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	return New(goredis.NewClient(clientOpts), optFns...), nil
}

// Name implements core.MemoryBackend.
func (b *Backend) Name() string { return "redis" }

// Ping implements core.MemoryBackend.
func (b *Backend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Set implements core.MemoryBackend.
func (b *Backend) Set(ctx context.Context, sessionID, key string, value []byte, ttl time.Duration) error {
	data, err := json.Marshal(envelope{Value: value, WrittenAt: time.Now().UTC()})
	if err != nil {
		return err
	}

	return b.client.Set(ctx, b.key(sessionID, key), data, ttl).Err()
}

// Get implements core.MemoryBackend.
func (b *Backend) Get(ctx context.Context, sessionID, key string) ([]byte, bool, error) {
	data, err := b.client.Get(ctx, b.key(sessionID, key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, err
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, false, fmt.Errorf("decode entry %q: %w", key, err)
	}

	return env.Value, true, nil
}

// List implements core.MemoryBackend.
func (b *Backend) List(ctx context.Context, sessionID string) ([]core.MemoryEntry, error) {
	keys, err := b.scan(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if len(keys) == 0 {
		return []core.MemoryEntry{}, nil
	}

	values, err := b.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	prefix := b.sessionPrefix(sessionID)
	entries := make([]core.MemoryEntry, 0, len(keys))

	for i, v := range values {
		s, ok := v.(string)
		if !ok { // expired between SCAN and MGET
			continue
		}

		var env envelope
		if err := json.Unmarshal([]byte(s), &env); err != nil {
			return nil, fmt.Errorf("decode entry %q: %w", keys[i], err)
		}

		entries = append(entries, core.MemoryEntry{
			SessionID: sessionID,
			Key:       strings.TrimPrefix(keys[i], prefix),
			Value:     env.Value,
			WrittenAt: env.WrittenAt,
		})
	}

	return entries, nil
}

// Delete implements core.MemoryBackend.
func (b *Backend) Delete(ctx context.Context, sessionID string) error {
	keys, err := b.scan(ctx, sessionID)
	if err != nil {
		return err
	}

	if len(keys) == 0 {
		return nil
	}

	return b.client.Del(ctx, keys...).Err()
}

// Close implements core.MemoryBackend.
func (b *Backend) Close() error { return b.client.Close() }

func (b *Backend) scan(ctx context.Context, sessionID string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)

	pattern := escapeGlob(b.sessionPrefix(sessionID)) + "*"

	for {
		batch, next, err := b.client.Scan(ctx, cursor, pattern, b.opts.ScanCount).Result()
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", pattern, err)
		}

		keys = append(keys, batch...)
		cursor = next

		if cursor == 0 {
			return keys, nil
		}
	}
}

func (b *Backend) sessionPrefix(sessionID string) string {
	return b.opts.KeyPrefix + ":" + sessionID + ":"
}

func (b *Backend) key(sessionID, key string) string {
	return b.sessionPrefix(sessionID) + key
}

var globReplacer = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string { return globReplacer.Replace(s) }

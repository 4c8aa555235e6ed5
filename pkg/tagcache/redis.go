package tagcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend shares entries and the tag index between processes.
//
// Entries live under "<prefix>:entry:<key>" as JSON, each tag is a set of keys
// under "<prefix>:tag:<type>:<id>". Both expire after ttl when ttl > 0.
type RedisBackend struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisBackend(client redis.Cmdable, prefix string, ttl time.Duration) *RedisBackend {
	if prefix == "" {
		prefix = "tagcache"
	}
	return &RedisBackend{client: client, prefix: prefix, ttl: ttl}
}

func (b *RedisBackend) Get(ctx context.Context, key string) (Entry, bool, error) {
	raw, err := b.client.Get(ctx, b.entryKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Entry{}, false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return entry, true, nil
}

func (b *RedisBackend) Put(ctx context.Context, key string, entry Entry) error {
	entry.Tags = uniqueTags(entry.Tags)
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}

	old, found, err := b.Get(ctx, key)
	if err != nil {
		return err
	}

	_, err = b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if found {
			for _, tag := range old.Tags {
				pipe.SRem(ctx, b.tagKey(tag), key)
			}
		}
		pipe.Set(ctx, b.entryKey(key), payload, b.ttl)
		for _, tag := range entry.Tags {
			pipe.SAdd(ctx, b.tagKey(tag), key)
			if b.ttl > 0 {
				pipe.Expire(ctx, b.tagKey(tag), b.ttl)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis put %s: %w", key, err)
	}
	return nil
}

// MarkStale is not atomic with concurrent Puts of the same key; a racing fetch
// may store a fresh entry that is then flagged stale, which only costs a refetch.
func (b *RedisBackend) MarkStale(ctx context.Context, tags []Tag) ([]string, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	tagKeys := make([]string, 0, len(tags))
	for _, tag := range uniqueTags(tags) {
		tagKeys = append(tagKeys, b.tagKey(tag))
	}

	keys, err := b.client.SUnion(ctx, tagKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis tag lookup: %w", err)
	}
	sort.Strings(keys)

	marked := make([]string, 0, len(keys))
	for _, key := range keys {
		entry, found, err := b.Get(ctx, key)
		if err != nil {
			return marked, err
		}
		if !found {
			continue
		}
		entry.Stale = true
		payload, err := json.Marshal(entry)
		if err != nil {
			return marked, fmt.Errorf("encode cache entry %s: %w", key, err)
		}
		if err := b.client.Set(ctx, b.entryKey(key), payload, redis.KeepTTL).Err(); err != nil {
			return marked, fmt.Errorf("redis mark stale %s: %w", key, err)
		}
		marked = append(marked, key)
	}
	return marked, nil
}

func (b *RedisBackend) Remove(ctx context.Context, key string) error {
	old, found, err := b.Get(ctx, key)
	if err != nil {
		return err
	}
	_, err = b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if found {
			for _, tag := range old.Tags {
				pipe.SRem(ctx, b.tagKey(tag), key)
			}
		}
		pipe.Del(ctx, b.entryKey(key))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis remove %s: %w", key, err)
	}
	return nil
}

func (b *RedisBackend) entryKey(key string) string {
	return b.prefix + ":entry:" + key
}

func (b *RedisBackend) tagKey(tag Tag) string {
	return b.prefix + ":tag:" + tag.Type + ":" + tag.ID
}

package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"dailygraph-quiz/internal/progress"
	"github.com/redis/go-redis/v9"
)

// KV is a Redis implementation of progress.KV. Keys are stored under prefix; progress
// records expire after progressTTL so abandoned attempts do not pile up.
type KV struct {
	client      *redis.Client
	prefix      string
	progressTTL time.Duration
}

func NewKV(client *redis.Client, prefix string, progressTTL time.Duration) *KV {
	return &KV{client: client, prefix: prefix, progressTTL: progressTTL}
}

func (k *KV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := k.client.Get(ctx, k.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (k *KV) Set(ctx context.Context, key, value string) error {
	var ttl time.Duration
	if strings.Contains(key, progress.ProgressPrefix) {
		ttl = k.progressTTL
	}
	return k.client.Set(ctx, k.prefix+key, value, ttl).Err()
}

func (k *KV) Delete(ctx context.Context, key string) error {
	return k.client.Del(ctx, k.prefix+key).Err()
}

// Keys walks the keyspace with SCAN rather than KEYS to avoid blocking the server.
func (k *KV) Keys(ctx context.Context, prefix string) ([]string, error) {
	match := escapeGlob(k.prefix+prefix) + "*"
	keys := make([]string, 0)
	iter := k.client.Scan(ctx, 0, match, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), k.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

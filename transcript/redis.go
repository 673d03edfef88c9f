package transcript

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	ai "github.com/spetersoncode/mcpagent"
)

// DefaultRedisPrefix namespaces transcript keys when no prefix is given.
const DefaultRedisPrefix = "mcpagent:transcripts"

// Redis stores each transcript as a list of JSON lines under
// "<prefix>:<name>" and indexes names in the sorted set "<prefix>:index"
// scored by save time.
type Redis struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
	mu     sync.Mutex // serializes name allocation in Save
}

// NewRedis returns a Redis store using client. An empty prefix uses
// DefaultRedisPrefix.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix, now: time.Now}
}

func (r *Redis) key(name string) string { return r.prefix + ":" + name }

func (r *Redis) indexKey() string { return r.prefix + ":index" }

// Save pushes messages to a new list and records it in the index.
func (r *Redis) Save(ctx context.Context, messages []ai.Message) (string, error) {
	lines, err := encodeLines(messages)
	if err != nil {
		return "", fmt.Errorf("transcript: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	name, err := uniqueName(now, func(name string) (bool, error) {
		err := r.client.ZScore(ctx, r.indexKey(), name).Err()
		if err == redis.Nil {
			return false, nil
		}
		return err == nil, err
	})
	if err != nil {
		return "", fmt.Errorf("transcript: %w", err)
	}

	values := make([]any, len(lines))
	for i, l := range lines {
		values[i] = l
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(values) > 0 {
			pipe.RPush(ctx, r.key(name), values...)
		}
		pipe.ZAdd(ctx, r.indexKey(), redis.Z{Score: float64(now.UnixNano()), Member: name})
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("transcript: save %s: %w", name, err)
	}
	return name, nil
}

// List returns indexed transcript names, newest first.
func (r *Redis) List(ctx context.Context) ([]string, error) {
	names, err := r.client.ZRevRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("transcript: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Load reads the named transcript.
func (r *Redis) Load(ctx context.Context, name string) ([]ai.Message, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := r.client.ZScore(ctx, r.indexKey(), name).Err(); err == redis.Nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	} else if err != nil {
		return nil, fmt.Errorf("transcript: %w", err)
	}

	lines, err := r.client.LRange(ctx, r.key(name), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("transcript: %w", err)
	}

	var buf []byte
	for _, l := range lines {
		buf = append(buf, l...)
		buf = append(buf, '\n')
	}
	return Decode(buf)
}

// Delete removes the named transcript and its index entry.
func (r *Redis) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	var removed *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key(name))
		removed = pipe.ZRem(ctx, r.indexKey(), name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("transcript: %w", err)
	}
	if removed.Val() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

var _ Store = (*Redis)(nil)

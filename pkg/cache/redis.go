package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

// Redis is a Backend shared between server replicas. Snapshots are stored
// as JSON with SET EX.
type Redis struct {
	client *redis.Client
}

// NewRedis connects and pings. Callers fall back to Memory on error.
func NewRedis(ctx context.Context, addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (*model.RawTable, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var table model.RawTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, false, fmt.Errorf("corrupt snapshot %s: %w", key, err)
	}
	return &table, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, table *model.RawTable, ttl time.Duration) error {
	data, err := json.Marshal(table)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

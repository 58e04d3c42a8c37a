package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/OscarIvaVP/inventario-ventas/internal/models"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func cartKey(sessionID, kind string) string {
	return fmt.Sprintf("cart:%s:%s", kind, sessionID)
}

// PushCartItem appends an item to a session cart and refreshes its TTL
func (c *Client) PushCartItem(ctx context.Context, sessionID, kind string, item models.CartItem, ttl time.Duration) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal cart item: %w", err)
	}

	key := cartKey(sessionID, kind)
	pipe := c.rdb.Pipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// GetCart reads all items of a session cart
func (c *Client) GetCart(ctx context.Context, sessionID, kind string) ([]models.CartItem, error) {
	raw, err := c.rdb.LRange(ctx, cartKey(sessionID, kind), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	items := make([]models.CartItem, 0, len(raw))
	for _, entry := range raw {
		var item models.CartItem
		if err := json.Unmarshal([]byte(entry), &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cart item: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

// RemoveCartItem removes one item by position. The whole list is rewritten;
// carts are short, a few entries at most.
func (c *Client) RemoveCartItem(ctx context.Context, sessionID, kind string, index int, ttl time.Duration) error {
	items, err := c.GetCart(ctx, sessionID, kind)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(items) {
		return fmt.Errorf("cart index out of range: %d", index)
	}

	items = append(items[:index], items[index+1:]...)

	key := cartKey(sessionID, kind)
	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, key)
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to marshal cart item: %w", err)
		}
		pipe.RPush(ctx, key, data)
	}
	if len(items) > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// ClearCart drops a session cart
func (c *Client) ClearCart(ctx context.Context, sessionID, kind string) error {
	return c.rdb.Del(ctx, cartKey(sessionID, kind)).Err()
}

// CacheMasterData stores a serialized master list under the given name.
// Callers invalidate explicitly after every master write; there is no
// ambient refresh.
func (c *Client) CacheMasterData(ctx context.Context, name string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal master data: %w", err)
	}
	return c.rdb.Set(ctx, fmt.Sprintf("master:%s", name), data, ttl).Err()
}

// GetMasterData reads a cached master list into out. Returns false on a miss.
func (c *Client) GetMasterData(ctx context.Context, name string, out interface{}) (bool, error) {
	data, err := c.rdb.Get(ctx, fmt.Sprintf("master:%s", name)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal master data: %w", err)
	}
	return true, nil
}

// InvalidateMasterData drops a cached master list
func (c *Client) InvalidateMasterData(ctx context.Context, name string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("master:%s", name)).Err()
}

// SetIdempotencyKey remembers the id recorded under a submission key. The TTL
// bounds how long a retried submission skips the ledger lookup; the
// idempotency_key columns remain the durable record.
func (c *Client) SetIdempotencyKey(ctx context.Context, key, id string, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("idempotency:%s", key), id, ttl).Err()
}

// GetIdempotencyKey returns the id recorded under a submission key, or ""
// when the key is unseen or expired.
func (c *Client) GetIdempotencyKey(ctx context.Context, key string) (string, error) {
	id, err := c.rdb.Get(ctx, fmt.Sprintf("idempotency:%s", key)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return id, err
}

// AcquireLock acquires a distributed lock
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), "1", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("lock:%s", lockKey)).Err()
}

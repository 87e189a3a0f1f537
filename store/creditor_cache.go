package store

import (
	"log"
	"time"

	"github.com/abhinavdhar/creditbook/types"
)

// CreditorCache keeps the unfiltered creditor list hot in Redis. The
// cache is best-effort: a nil cache or a Redis failure falls through to
// Postgres.
type CreditorCache struct {
	client *RedisClient
	ttl    time.Duration
}

func NewCreditorCache(redisClient *RedisClient, ttlSeconds int) *CreditorCache {
	ttl := time.Duration(ttlSeconds) * time.Second
	if ttlSeconds <= 0 {
		ttl = 30 * time.Second
	}

	return &CreditorCache{
		client: redisClient,
		ttl:    ttl,
	}
}

func (c *CreditorCache) GetList() ([]*types.Creditor, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	key := c.client.generateKey("creditors", "all")
	var list []*types.Creditor
	if err := c.client.Get(key, &list); err != nil {
		return nil, false
	}
	if list == nil {
		return nil, false
	}
	return list, true
}

func (c *CreditorCache) SetList(list []*types.Creditor) {
	if c == nil || c.client == nil {
		return
	}
	key := c.client.generateKey("creditors", "all")
	if err := c.client.Set(key, list, c.ttl); err != nil {
		log.Printf("Creditor cache: set failed: %v", err)
	}
}

func (c *CreditorCache) Invalidate() {
	if c == nil || c.client == nil {
		return
	}
	key := c.client.generateKey("creditors", "all")
	if err := c.client.Del(key); err != nil {
		log.Printf("Creditor cache: invalidate failed: %v", err)
	}
}

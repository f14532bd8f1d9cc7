package utils

import (
	"context"
	"log"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
)

// Cache holds shared, viewer-independent render data (post detail
// payloads). Values are JSON bytes so the in-process and Redis
// backends are interchangeable.
type Cache interface {
	Get(ctx context.Context, key string) []byte
	Set(ctx context.Context, key string, data []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

// NewCache returns a Redis-backed cache when addr is set and reachable,
// otherwise a local LRU cache.
func NewCache(addr string) Cache {
	if addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("Redis connection warning: %v (falling back to local cache)", err)
		} else {
			log.Println("Redis connected successfully")
			return &redisCache{client: client}
		}
	}
	return newLRUCache(500)
}

type redisCache struct {
	client *redis.Client
}

func (c *redisCache) Get(ctx context.Context, key string) []byte {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	return data
}

func (c *redisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Printf("Cache set failed for %s: %v", key, err)
	}
}

func (c *redisCache) Delete(ctx context.Context, key string) {
	c.client.Del(ctx, key)
}

type cacheItem struct {
	Data      []byte
	ExpiresAt time.Time
}

type lruCache struct {
	inner *lru.Cache[string, cacheItem]
}

func newLRUCache(size int) *lruCache {
	l, err := lru.New[string, cacheItem](size)
	if err != nil {
		log.Fatalf("Failed to create LRU cache: %v", err)
	}
	return &lruCache{inner: l}
}

func (c *lruCache) Get(ctx context.Context, key string) []byte {
	item, ok := c.inner.Get(key)
	if !ok {
		return nil
	}
	if time.Now().After(item.ExpiresAt) {
		c.inner.Remove(key)
		return nil
	}
	return item.Data
}

func (c *lruCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	c.inner.Add(key, cacheItem{Data: data, ExpiresAt: time.Now().Add(ttl)})
}

func (c *lruCache) Delete(ctx context.Context, key string) {
	c.inner.Remove(key)
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"comments-service/pkg/redis"
)

// CacheService 列表缓存
// Get 未命中时返回 (false, nil)，命中时把缓存值反序列化进dest
type CacheService interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Remove(ctx context.Context, key string) error
	RemoveByPrefix(ctx context.Context, prefix string) error
}

// redisCacheService 基于Redis的缓存实现，值为JSON
type redisCacheService struct {
	client *redis.RedisClient
}

// NewCacheService 创建Redis缓存服务
func NewCacheService(client *redis.RedisClient) CacheService {
	return &redisCacheService{client: client}
}

func (s *redisCacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := s.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("cache unmarshal: %w", err)
	}
	return true, nil
}

func (s *redisCacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	if err := s.client.Set(ctx, key, data, ttl); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (s *redisCacheService) Remove(ctx context.Context, key string) error {
	return s.client.Del(ctx, key)
}

func (s *redisCacheService) RemoveByPrefix(ctx context.Context, prefix string) error {
	keys, err := s.client.Keys(ctx, prefix+"*")
	if err != nil {
		return fmt.Errorf("cache scan keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...)
}

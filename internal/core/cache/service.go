package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"food-recommender/internal/core/food"
	"food-recommender/internal/infrastructure/config"
	"food-recommender/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
)

// Service 資料集快照快取（Redis）
type Service struct {
	client *redis.Client
	config *config.CacheConfig
}

// NewService 創建快取服務，未啟用時回傳不連線的空服務
func NewService(ctx context.Context, cfg *config.CacheConfig) (*Service, error) {
	if !cfg.Enabled {
		return &Service{config: cfg}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 測試連接
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Service{
		client: client,
		config: cfg,
	}, nil
}

// NewServiceWithClient 使用既有的 Redis 客戶端
func NewServiceWithClient(client *redis.Client, cfg *config.CacheConfig) *Service {
	return &Service{client: client, config: cfg}
}

// Enabled 是否實際連線 Redis
func (s *Service) Enabled() bool {
	return s != nil && s.config.Enabled && s.client != nil
}

// Get 讀取快照，未命中時回傳 nil, nil
func (s *Service) Get(ctx context.Context, key string) (*food.Table, error) {
	if !s.Enabled() {
		return nil, nil
	}

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			common.LogCacheMiss("dataset", key)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cache: %w", err)
	}

	var table food.Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache: %w", err)
	}

	common.LogCacheHit("dataset", key)
	return &table, nil
}

// Set 儲存快照
func (s *Service) Set(ctx context.Context, key string, table *food.Table) error {
	if !s.Enabled() || table == nil {
		return nil
	}

	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("failed to marshal table: %w", err)
	}

	if err := s.client.Set(ctx, key, data, s.config.TTL).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Delete 刪除快照
func (s *Service) Delete(ctx context.Context, key string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete cache: %w", err)
	}
	return nil
}

// Close 關閉連線
func (s *Service) Close() error {
	if !s.Enabled() {
		return nil
	}
	return s.client.Close()
}

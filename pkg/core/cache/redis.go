package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

const graphKeyPrefix = "oaflow:graph:"

// RedisGraphCache Redis流程图缓存实现（对外导出）
// 多实例部署时共享缓存并保证失效一致
type RedisGraphCache struct {
	client *redis.Client
}

// RedisOptions Redis连接配置
type RedisOptions struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
}

// NewRedisGraphCache 创建Redis流程图缓存实例
func NewRedisGraphCache(opts RedisOptions) (*RedisGraphCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		MinIdleConns: opts.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("连接Redis失败: %w", err)
	}

	return &RedisGraphCache{client: client}, nil
}

func graphKey(workflowID int64) string {
	return fmt.Sprintf("%s%d", graphKeyPrefix, workflowID)
}

// Get 获取流程图快照，缓存异常时降级为未命中
func (c *RedisGraphCache) Get(ctx context.Context, workflowID int64) (*FlowSnapshot, bool) {
	data, err := c.client.Get(ctx, graphKey(workflowID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[cache] 读取Redis失败 workflowId=%d: %v", workflowID, err)
		}
		return nil, false
	}
	var snap FlowSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Printf("[cache] 解析缓存快照失败 workflowId=%d: %v", workflowID, err)
		return nil, false
	}
	return &snap, true
}

// Set 缓存流程图快照
func (c *RedisGraphCache) Set(ctx context.Context, workflowID int64, snap *FlowSnapshot, ttl time.Duration) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("序列化快照失败: %w", err)
	}
	if err := c.client.Set(ctx, graphKey(workflowID), data, ttl).Err(); err != nil {
		return fmt.Errorf("写入Redis失败: %w", err)
	}
	return nil
}

// Invalidate 删除缓存
func (c *RedisGraphCache) Invalidate(ctx context.Context, workflowID int64) error {
	if err := c.client.Del(ctx, graphKey(workflowID)).Err(); err != nil {
		return fmt.Errorf("删除Redis缓存失败: %w", err)
	}
	return nil
}

// Close 关闭Redis连接
func (c *RedisGraphCache) Close() error {
	return c.client.Close()
}

// 确保实现接口
var (
	_ GraphCache = (*MemoryGraphCache)(nil)
	_ GraphCache = (*RedisGraphCache)(nil)
)

// Package cache 流程图快照缓存，减少审批热路径上的配置表查询
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/oaflow/oaflow/pkg/core/types"
)

// FlowSnapshot 流程图快照（节点、连线与审批人配置）
// 以可序列化的形式缓存，取出后重建flow.Graph
type FlowSnapshot struct {
	WorkflowID int64                   `json:"workflow_id"`
	Nodes      []*types.Node           `json:"nodes"`
	Edges      []*types.Edge           `json:"edges"`
	Approvers  []*types.ApproverConfig `json:"approvers"`
}

// GraphCache 流程图缓存接口（对外导出）
type GraphCache interface {
	// Get 获取流程图快照
	Get(ctx context.Context, workflowID int64) (*FlowSnapshot, bool)

	// Set 缓存流程图快照
	// ttl: 缓存有效期
	Set(ctx context.Context, workflowID int64, snap *FlowSnapshot, ttl time.Duration) error

	// Invalidate 删除缓存（流程定义变更后调用）
	Invalidate(ctx context.Context, workflowID int64) error
}

// cacheEntry 缓存条目（内部使用）
type cacheEntry struct {
	snap       *FlowSnapshot
	expireTime time.Time
}

// MemoryGraphCache 内存流程图缓存实现（对外导出）
type MemoryGraphCache struct {
	mu    sync.RWMutex
	cache map[int64]*cacheEntry
}

// NewMemoryGraphCache 创建内存流程图缓存实例（对外导出）
func NewMemoryGraphCache() *MemoryGraphCache {
	c := &MemoryGraphCache{
		cache: make(map[int64]*cacheEntry),
	}
	// 启动清理协程，定期清理过期缓存
	go c.cleanupExpired()
	return c
}

// Get 获取流程图快照
func (c *MemoryGraphCache) Get(ctx context.Context, workflowID int64) (*FlowSnapshot, bool) {
	c.mu.RLock()
	entry, exists := c.cache[workflowID]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if time.Now().After(entry.expireTime) {
		c.mu.Lock()
		delete(c.cache, workflowID)
		c.mu.Unlock()
		return nil, false
	}
	return entry.snap, true
}

// Set 缓存流程图快照
func (c *MemoryGraphCache) Set(ctx context.Context, workflowID int64, snap *FlowSnapshot, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache[workflowID] = &cacheEntry{
		snap:       snap,
		expireTime: time.Now().Add(ttl),
	}
	return nil
}

// Invalidate 删除缓存
func (c *MemoryGraphCache) Invalidate(ctx context.Context, workflowID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.cache, workflowID)
	return nil
}

// cleanupExpired 清理过期缓存（内部方法）
func (c *MemoryGraphCache) cleanupExpired() {
	ticker := time.NewTicker(1 * time.Minute) // 每分钟清理一次
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		now := time.Now()
		for key, entry := range c.cache {
			if now.After(entry.expireTime) {
				delete(c.cache, key)
			}
		}
		c.mu.Unlock()
	}
}

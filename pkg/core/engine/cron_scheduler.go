package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/oaflow/oaflow/pkg/core/events"
)

// CronScheduler 定时调度器（对外导出）
// 周期扫描超时未处理的待办任务并发布超时事件，不改动任务状态
type CronScheduler struct {
	cron   *cron.Cron
	engine *Engine
	ctx    context.Context
	cancel context.CancelFunc

	// 已经发过超时事件的任务，避免每轮扫描重复提醒
	// cron 的触发在独立 goroutine 上执行，读写需要加锁
	mu       sync.Mutex
	notified map[int64]struct{}
}

// NewCronScheduler 创建定时调度器（对外导出）
func NewCronScheduler(eng *Engine) *CronScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &CronScheduler{
		cron:     cron.New(cron.WithSeconds()), // 支持秒级精度
		engine:   eng,
		ctx:      ctx,
		cancel:   cancel,
		notified: make(map[int64]struct{}),
	}
}

// Register 注册超时扫描任务
// cronExpr 为空时使用默认值（每分钟扫描一次）
func (cs *CronScheduler) Register(cronExpr string) error {
	if cronExpr == "" {
		cronExpr = "0 * * * * *"
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(cronExpr); err != nil {
		return fmt.Errorf("超时扫描Cron表达式无效: %w", err)
	}

	if _, err := cs.cron.AddFunc(cronExpr, cs.sweepOverdue); err != nil {
		return fmt.Errorf("添加Cron任务失败: %w", err)
	}
	log.Printf("[Cron调度器] 已注册超时扫描: CronExpr=%s", cronExpr)
	return nil
}

// sweepOverdue 扫描超时待办并发布超时事件（内部方法）
func (cs *CronScheduler) sweepOverdue() {
	ctx, cancel := context.WithTimeout(cs.ctx, 30*time.Second)
	defer cancel()

	tasks, err := cs.engine.store.ListOverdueTasks(ctx, time.Now())
	if err != nil {
		log.Printf("[Cron调度器] 扫描超时任务失败: %v", err)
		return
	}

	for _, task := range tasks {
		if !cs.markNotified(task.ID) {
			continue
		}
		cs.engine.publishAll(ctx, []*events.Event{{
			Type:       events.EventTaskOverdue,
			InstanceID: task.InstanceID,
			TaskID:     task.ID,
			UserID:     task.AssigneeID,
			Data: map[string]interface{}{
				"node_name": task.NodeName,
				"due_time":  task.DueTime,
			},
		}})
	}
	if len(tasks) > 0 {
		log.Printf("[Cron调度器] 本轮超时任务 %d 个", len(tasks))
	}
}

// markNotified 标记任务已提醒，返回 false 表示此前已提醒过
func (cs *CronScheduler) markNotified(taskID int64) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if _, done := cs.notified[taskID]; done {
		return false
	}
	cs.notified[taskID] = struct{}{}
	return true
}

// Start 启动定时调度器（对外导出）
func (cs *CronScheduler) Start() {
	cs.cron.Start()
	log.Println("[Cron调度器] 已启动")
}

// Stop 停止定时调度器（对外导出）
func (cs *CronScheduler) Stop() {
	cs.cron.Stop()
	cs.cancel()
	log.Println("[Cron调度器] 已停止")
}

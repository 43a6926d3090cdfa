// Package events 审批流事件总线，基于Watermill的进程内Pub/Sub
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// EventType 事件类型
type EventType string

const (
	EventInstanceStarted  EventType = "instance.started"  // 流程发起
	EventInstanceFinished EventType = "instance.finished" // 流程结束（通过/拒绝/撤销）
	EventTaskCreated      EventType = "task.created"      // 任务创建
	EventTaskCompleted    EventType = "task.completed"    // 任务完成（同意/拒绝/转交/取消）
	EventTaskOverdue      EventType = "task.overdue"      // 任务超时
	EventCcCreated        EventType = "cc.created"        // 抄送创建
)

// Event 审批流事件
type Event struct {
	ID         string                 `json:"id"`
	Type       EventType              `json:"type"`
	InstanceID int64                  `json:"instance_id"`
	TaskID     int64                  `json:"task_id,omitempty"`
	UserID     string                 `json:"user_id,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

// Handler 事件处理函数
type Handler func(ctx context.Context, event *Event) error

// Bus 事件总线
type Bus struct {
	pubsub *gochannel.GoChannel
	logger watermill.LoggerAdapter
}

// NewBus 创建事件总线
func NewBus(debug bool) *Bus {
	logger := watermill.NewStdLogger(debug, false)
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{
			Persistent:                     false,
			BlockPublishUntilSubscriberAck: false,
		},
		logger,
	)
	return &Bus{pubsub: pubsub, logger: logger}
}

// Publish 发布事件，自动补全ID与时间戳
func (b *Bus) Publish(ctx context.Context, event *Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("event_type", string(event.Type))
	msg.Metadata.Set("timestamp", event.Timestamp.Format(time.RFC3339Nano))
	msg.SetContext(ctx)

	if err := b.pubsub.Publish(string(event.Type), msg); err != nil {
		return fmt.Errorf("发布事件失败: %w", err)
	}
	return nil
}

// Subscribe 订阅某类事件，返回停止订阅的函数
// handler出错时记录日志并继续，消息始终Ack
func (b *Bus) Subscribe(ctx context.Context, eventType EventType, handler Handler) (func(), error) {
	subCtx, cancel := context.WithCancel(ctx)
	messages, err := b.pubsub.Subscribe(subCtx, string(eventType))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("订阅事件失败: %w", err)
	}

	go func() {
		for msg := range messages {
			var event Event
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				b.logger.Error("解析事件失败", err, watermill.LogFields{"msg_id": msg.UUID})
				msg.Ack()
				continue
			}
			if err := handler(msg.Context(), &event); err != nil {
				b.logger.Error("处理事件失败", err, watermill.LogFields{
					"event_type":  string(event.Type),
					"instance_id": event.InstanceID,
				})
			}
			msg.Ack()
		}
	}()

	return cancel, nil
}

// Close 关闭事件总线
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

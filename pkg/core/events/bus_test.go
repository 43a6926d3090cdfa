package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus(false)
	t.Cleanup(func() { _ = bus.Close() })
	ctx := context.Background()

	received := make(chan *Event, 1)
	cancel, err := bus.Subscribe(ctx, EventTaskCreated, func(ctx context.Context, event *Event) error {
		received <- event
		return nil
	})
	require.NoError(t, err)
	t.Cleanup(cancel)

	require.NoError(t, bus.Publish(ctx, &Event{
		Type:       EventTaskCreated,
		InstanceID: 1,
		TaskID:     10,
		UserID:     "100",
		Data:       map[string]interface{}{"node_name": "审批"},
	}))

	select {
	case event := <-received:
		assert.Equal(t, EventTaskCreated, event.Type)
		assert.EqualValues(t, 1, event.InstanceID)
		assert.EqualValues(t, 10, event.TaskID)
		assert.Equal(t, "100", event.UserID)
		assert.Equal(t, "审批", event.Data["node_name"])
		// 发布时自动补全的字段
		assert.NotEmpty(t, event.ID)
		assert.False(t, event.Timestamp.IsZero())
	case <-time.After(3 * time.Second):
		t.Fatal("没有收到事件")
	}
}

func TestBus_SubscribeOnlyMatchingType(t *testing.T) {
	bus := NewBus(false)
	t.Cleanup(func() { _ = bus.Close() })
	ctx := context.Background()

	received := make(chan *Event, 2)
	cancel, err := bus.Subscribe(ctx, EventInstanceFinished, func(ctx context.Context, event *Event) error {
		received <- event
		return nil
	})
	require.NoError(t, err)
	t.Cleanup(cancel)

	require.NoError(t, bus.Publish(ctx, &Event{Type: EventTaskCreated, InstanceID: 1}))
	require.NoError(t, bus.Publish(ctx, &Event{Type: EventInstanceFinished, InstanceID: 2}))

	select {
	case event := <-received:
		// 只收到订阅的类型
		assert.Equal(t, EventInstanceFinished, event.Type)
		assert.EqualValues(t, 2, event.InstanceID)
	case <-time.After(3 * time.Second):
		t.Fatal("没有收到事件")
	}
	select {
	case event := <-received:
		t.Fatalf("收到了未订阅的事件: %s", event.Type)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBus_HandlerErrorDoesNotStopSubscription(t *testing.T) {
	bus := NewBus(false)
	t.Cleanup(func() { _ = bus.Close() })
	ctx := context.Background()

	received := make(chan *Event, 2)
	cancel, err := bus.Subscribe(ctx, EventTaskOverdue, func(ctx context.Context, event *Event) error {
		received <- event
		return assert.AnError
	})
	require.NoError(t, err)
	t.Cleanup(cancel)

	// handler每次都报错，订阅仍持续收到后续事件
	require.NoError(t, bus.Publish(ctx, &Event{Type: EventTaskOverdue, TaskID: 1}))
	require.NoError(t, bus.Publish(ctx, &Event{Type: EventTaskOverdue, TaskID: 2}))

	for i := 0; i < 2; i++ {
		select {
		case <-received:
		case <-time.After(3 * time.Second):
			t.Fatalf("只收到 %d 个事件", i)
		}
	}
}

func TestBus_CancelStopsSubscription(t *testing.T) {
	bus := NewBus(false)
	t.Cleanup(func() { _ = bus.Close() })
	ctx := context.Background()

	received := make(chan *Event, 1)
	cancel, err := bus.Subscribe(ctx, EventCcCreated, func(ctx context.Context, event *Event) error {
		received <- event
		return nil
	})
	require.NoError(t, err)

	cancel()
	// 取消订阅后发布不再投递
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, bus.Publish(ctx, &Event{Type: EventCcCreated, InstanceID: 1}))

	select {
	case <-received:
		t.Fatal("取消订阅后仍收到事件")
	case <-time.After(200 * time.Millisecond):
	}
}

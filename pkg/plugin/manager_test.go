package plugin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oaflow/oaflow/pkg/core/events"
)

// fakePlugin 记录收到的事件，便于断言
type fakePlugin struct {
	name       string
	initErr    error
	executeErr error

	mu         sync.Mutex
	initParams map[string]string
	received   []*events.Event
}

func (p *fakePlugin) Name() string { return p.name }

func (p *fakePlugin) Init(params map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.initParams = params
	return p.initErr
}

func (p *fakePlugin) Execute(event *events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.received = append(p.received, event)
	return p.executeErr
}

func (p *fakePlugin) events() []*events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*events.Event(nil), p.received...)
}

func TestManager_Register(t *testing.T) {
	m := NewManager()

	require.NoError(t, m.Register(&fakePlugin{name: "email"}))
	assert.Contains(t, m.ListPlugins(), "email")

	// 重名注册报错
	err := m.Register(&fakePlugin{name: "email"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "已注册")

	// 空名称报错
	require.Error(t, m.Register(&fakePlugin{name: ""}))
	require.Error(t, m.Register(nil))
}

func TestManager_RegisterWithInit(t *testing.T) {
	m := NewManager()

	p := &fakePlugin{name: "email"}
	require.NoError(t, m.RegisterWithInit(p, map[string]string{"smtp_host": "localhost"}))
	assert.Equal(t, "localhost", p.initParams["smtp_host"])

	// 初始化失败时插件不保留
	bad := &fakePlugin{name: "dingtalk", initErr: errors.New("缺少token")}
	err := m.RegisterWithInit(bad, nil)
	require.Error(t, err)
	_, exists := m.GetPlugin("dingtalk")
	assert.False(t, exists)
}

func TestManager_BindUnregisteredPlugin(t *testing.T) {
	m := NewManager()

	err := m.Bind(Binding{PluginName: "nobody", Event: events.EventTaskCreated})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "未注册")

	require.NoError(t, m.Register(&fakePlugin{name: "email"}))
	require.Error(t, m.Bind(Binding{PluginName: "email"}))
	require.Error(t, m.Bind(Binding{Event: events.EventTaskCreated}))
	require.NoError(t, m.Bind(Binding{PluginName: "email", Event: events.EventTaskCreated}))
}

func TestManager_Trigger(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	p := &fakePlugin{name: "email"}
	require.NoError(t, m.Register(p))
	require.NoError(t, m.Bind(Binding{PluginName: "email", Event: events.EventTaskCreated}))

	require.NoError(t, m.Trigger(ctx, &events.Event{Type: events.EventTaskCreated, InstanceID: 1}))
	// 没有绑定的事件类型是空操作
	require.NoError(t, m.Trigger(ctx, &events.Event{Type: events.EventCcCreated, InstanceID: 2}))

	got := p.events()
	require.Len(t, got, 1)
	assert.EqualValues(t, 1, got[0].InstanceID)
}

func TestManager_TriggerCondition(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	p := &fakePlugin{name: "email"}
	require.NoError(t, m.Register(p))
	require.NoError(t, m.Bind(Binding{
		PluginName: "email",
		Event:      events.EventInstanceFinished,
		Condition: func(ev *events.Event) bool {
			return ev.Data["status"] == "REJECTED"
		},
	}))

	require.NoError(t, m.Trigger(ctx, &events.Event{
		Type: events.EventInstanceFinished,
		Data: map[string]interface{}{"status": "APPROVED"},
	}))
	require.NoError(t, m.Trigger(ctx, &events.Event{
		Type: events.EventInstanceFinished,
		Data: map[string]interface{}{"status": "REJECTED"},
	}))

	// 条件不满足的事件被过滤掉
	got := p.events()
	require.Len(t, got, 1)
	assert.Equal(t, "REJECTED", got[0].Data["status"])
}

func TestManager_TriggerExecuteError(t *testing.T) {
	m := NewManager()

	p := &fakePlugin{name: "email", executeErr: errors.New("smtp连接失败")}
	require.NoError(t, m.Register(p))
	require.NoError(t, m.Bind(Binding{PluginName: "email", Event: events.EventTaskCreated}))

	err := m.Trigger(context.Background(), &events.Event{Type: events.EventTaskCreated})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email")
}

func TestManager_Unregister(t *testing.T) {
	m := NewManager()

	p := &fakePlugin{name: "email"}
	require.NoError(t, m.Register(p))
	require.NoError(t, m.Bind(Binding{PluginName: "email", Event: events.EventTaskCreated}))

	require.NoError(t, m.Unregister("email"))
	_, exists := m.GetPlugin("email")
	assert.False(t, exists)

	// 绑定随插件一起移除，触发不再到达
	require.NoError(t, m.Trigger(context.Background(), &events.Event{Type: events.EventTaskCreated}))
	assert.Empty(t, p.events())

	require.Error(t, m.Unregister("email"))
}

func TestManager_Attach(t *testing.T) {
	bus := events.NewBus(false)
	t.Cleanup(func() { _ = bus.Close() })
	m := NewManager()
	ctx := context.Background()

	p := &fakePlugin{name: "email"}
	require.NoError(t, m.Register(p))
	require.NoError(t, m.Bind(Binding{PluginName: "email", Event: events.EventTaskOverdue}))

	detach, err := m.Attach(ctx, bus)
	require.NoError(t, err)
	t.Cleanup(detach)

	require.NoError(t, bus.Publish(ctx, &events.Event{Type: events.EventTaskOverdue, TaskID: 7}))

	require.Eventually(t, func() bool {
		return len(p.events()) == 1
	}, 3*time.Second, 10*time.Millisecond)
	assert.EqualValues(t, 7, p.events()[0].TaskID)
}

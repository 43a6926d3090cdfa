package plugin

import (
	"context"
	"fmt"
	"sync"

	"github.com/oaflow/oaflow/pkg/core/events"
)

// Plugin 通知插件接口（对外导出）
// 插件在审批事件发生时被触发，用于对接邮件、IM等外部通知渠道
type Plugin interface {
	// Name 插件名称，注册时作为唯一标识
	Name() string
	// Init 初始化插件
	Init(params map[string]string) error
	// Execute 处理一条审批事件
	Execute(event *events.Event) error
}

// Binding 插件绑定规则（对外导出）
type Binding struct {
	PluginName string                    // 插件名称
	Event      events.EventType          // 触发事件
	Condition  func(*events.Event) bool  // 可选：条件函数，满足条件才触发
}

// Manager 插件管理器接口（对外导出）
type Manager interface {
	// Register 注册插件
	Register(plugin Plugin) error
	// RegisterWithInit 注册并初始化插件
	RegisterWithInit(plugin Plugin, params map[string]string) error
	// Bind 绑定插件到事件
	Bind(binding Binding) error
	// Trigger 触发绑定到某事件的所有插件
	Trigger(ctx context.Context, event *events.Event) error
	// Attach 将已绑定的事件挂到事件总线上，返回取消订阅函数
	Attach(ctx context.Context, bus *events.Bus) (func(), error)
	// GetPlugin 获取已注册的插件
	GetPlugin(name string) (Plugin, bool)
	// ListPlugins 列出所有已注册的插件
	ListPlugins() []string
	// Unregister 取消注册插件
	Unregister(name string) error
}

// managerImpl 插件管理器实现（内部实现）
type managerImpl struct {
	plugins  map[string]Plugin                  // 已注册的插件（插件名称 -> 插件实例）
	bindings map[events.EventType][]Binding     // 事件绑定（事件类型 -> 绑定列表）
	mu       sync.RWMutex                       // 读写锁
}

// NewManager 创建插件管理器（对外导出）
func NewManager() Manager {
	return &managerImpl{
		plugins:  make(map[string]Plugin),
		bindings: make(map[events.EventType][]Binding),
	}
}

// Register 注册插件（实现Manager接口）
func (m *managerImpl) Register(plugin Plugin) error {
	if plugin == nil {
		return fmt.Errorf("插件不能为空")
	}

	name := plugin.Name()
	if name == "" {
		return fmt.Errorf("插件名称不能为空")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.plugins[name]; exists {
		return fmt.Errorf("插件 %s 已注册", name)
	}

	m.plugins[name] = plugin
	return nil
}

// RegisterWithInit 注册并初始化插件（实现Manager接口）
func (m *managerImpl) RegisterWithInit(plugin Plugin, params map[string]string) error {
	if err := m.Register(plugin); err != nil {
		return err
	}

	if err := plugin.Init(params); err != nil {
		// 初始化失败，移除已注册的插件
		m.mu.Lock()
		delete(m.plugins, plugin.Name())
		m.mu.Unlock()
		return fmt.Errorf("插件 %s 初始化失败: %w", plugin.Name(), err)
	}

	return nil
}

// Bind 绑定插件到事件（实现Manager接口）
func (m *managerImpl) Bind(binding Binding) error {
	if binding.PluginName == "" {
		return fmt.Errorf("插件名称不能为空")
	}

	if binding.Event == "" {
		return fmt.Errorf("触发事件不能为空")
	}

	m.mu.RLock()
	_, exists := m.plugins[binding.PluginName]
	m.mu.RUnlock()

	if !exists {
		return fmt.Errorf("插件 %s 未注册", binding.PluginName)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.bindings[binding.Event] = append(m.bindings[binding.Event], binding)
	return nil
}

// Trigger 触发插件（实现Manager接口）
func (m *managerImpl) Trigger(ctx context.Context, event *events.Event) error {
	m.mu.RLock()
	bindings := m.bindings[event.Type]
	m.mu.RUnlock()

	if len(bindings) == 0 {
		return nil
	}

	var errs []error
	for _, binding := range bindings {
		if binding.Condition != nil && !binding.Condition(event) {
			continue
		}

		m.mu.RLock()
		plugin, exists := m.plugins[binding.PluginName]
		m.mu.RUnlock()

		if !exists {
			continue
		}

		if err := plugin.Execute(event); err != nil {
			errs = append(errs, fmt.Errorf("插件 %s 执行失败: %w", binding.PluginName, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("触发插件失败: %v", errs)
	}

	return nil
}

// Attach 挂载到事件总线（实现Manager接口）
// 只订阅已有绑定的事件类型，返回的函数取消全部订阅
func (m *managerImpl) Attach(ctx context.Context, bus *events.Bus) (func(), error) {
	m.mu.RLock()
	types := make([]events.EventType, 0, len(m.bindings))
	for t := range m.bindings {
		types = append(types, t)
	}
	m.mu.RUnlock()

	var cancels []func()
	for _, t := range types {
		cancel, err := bus.Subscribe(ctx, t, func(ctx context.Context, ev *events.Event) error {
			return m.Trigger(ctx, ev)
		})
		if err != nil {
			for _, c := range cancels {
				c()
			}
			return nil, fmt.Errorf("订阅事件 %s 失败: %w", t, err)
		}
		cancels = append(cancels, cancel)
	}

	return func() {
		for _, c := range cancels {
			c()
		}
	}, nil
}

// GetPlugin 获取已注册的插件（实现Manager接口）
func (m *managerImpl) GetPlugin(name string) (Plugin, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	plugin, exists := m.plugins[name]
	return plugin, exists
}

// ListPlugins 列出所有已注册的插件（实现Manager接口）
func (m *managerImpl) ListPlugins() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.plugins))
	for name := range m.plugins {
		names = append(names, name)
	}
	return names
}

// Unregister 取消注册插件（实现Manager接口）
func (m *managerImpl) Unregister(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.plugins[name]; !exists {
		return fmt.Errorf("插件 %s 未注册", name)
	}

	delete(m.plugins, name)

	// 移除所有相关的绑定
	for event := range m.bindings {
		filtered := make([]Binding, 0)
		for _, binding := range m.bindings[event] {
			if binding.PluginName != name {
				filtered = append(filtered, binding)
			}
		}
		m.bindings[event] = filtered
	}

	return nil
}

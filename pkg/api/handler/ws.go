package handler

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/oaflow/oaflow/pkg/core/events"
)

// 订阅并下推给前端的事件类型
var pushEventTypes = []events.EventType{
	events.EventTaskCreated,
	events.EventTaskCompleted,
	events.EventTaskOverdue,
	events.EventCcCreated,
	events.EventInstanceFinished,
}

// WsHandler WebSocket推送处理器
// 按用户维护连接，把该用户相关的审批事件实时推给前端
type WsHandler struct {
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[string][]*websocket.Conn // userID -> 连接列表

	// gorilla连接不允许并发写，所有推送串行化
	writeMu sync.Mutex

	cancels []func()
}

// NewWsHandler 创建WsHandler并订阅事件总线
func NewWsHandler(bus *events.Bus) (*WsHandler, error) {
	h := &WsHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 鉴权在网关层完成，这里不限制来源
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[string][]*websocket.Conn),
	}

	for _, et := range pushEventTypes {
		cancel, err := bus.Subscribe(context.Background(), et, h.dispatch)
		if err != nil {
			h.Close()
			return nil, err
		}
		h.cancels = append(h.cancels, cancel)
	}
	return h, nil
}

// Serve 建立WebSocket连接
// GET /ws
func (h *WsHandler) Serve(c *gin.Context) {
	op, ok := currentOperator(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[ws] 升级连接失败 userId=%s: %v", op.UserID, err)
		return
	}

	h.mu.Lock()
	h.conns[op.UserID] = append(h.conns[op.UserID], conn)
	h.mu.Unlock()

	// 读循环只用于感知断开
	go func() {
		defer h.remove(op.UserID, conn)
		conn.SetReadLimit(512)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// dispatch 把事件推给相关用户的全部连接
func (h *WsHandler) dispatch(ctx context.Context, event *events.Event) error {
	h.mu.RLock()
	conns := append([]*websocket.Conn(nil), h.conns[event.UserID]...)
	h.mu.RUnlock()

	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(event); err != nil {
			log.Printf("[ws] 推送失败 userId=%s type=%s: %v", event.UserID, event.Type, err)
			h.remove(event.UserID, conn)
		}
	}
	return nil
}

func (h *WsHandler) remove(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	list := h.conns[userID]
	for i, c := range list {
		if c == conn {
			h.conns[userID] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(h.conns[userID]) == 0 {
		delete(h.conns, userID)
	}
	h.mu.Unlock()
	conn.Close()
}

// Close 取消事件订阅并关闭全部连接
func (h *WsHandler) Close() {
	for _, cancel := range h.cancels {
		cancel()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, list := range h.conns {
		for _, conn := range list {
			conn.Close()
		}
	}
	h.conns = make(map[string][]*websocket.Conn)
}

package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"comments-service/internal/model"
	"comments-service/pkg/logger"
)

const writeWait = 10 * time.Second

// Hub WebSocket连接管理器
// 广播是尽力而为的：写失败的连接当场摘除，不影响其他连接。
// 每个连接持有自己的写锁：消费组内多个分区的消息会并发广播，
// 而gorilla连接不允许并发写
type Hub struct {
	mu     sync.RWMutex
	conns  map[*websocket.Conn]*sync.Mutex
	logger logger.Logger
}

// NewHub 创建连接管理器
func NewHub(log logger.Logger) *Hub {
	return &Hub{
		conns:  make(map[*websocket.Conn]*sync.Mutex),
		logger: log,
	}
}

// Register 注册连接
func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = &sync.Mutex{}
	h.mu.Unlock()
}

// Unregister 注销并关闭连接
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	conn.Close()
}

// Count 当前连接数
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// NotifyCommentCreated 向所有连接广播新评论通知
func (h *Hub) NotifyCommentCreated(ctx context.Context, event *model.CommentCreatedEvent) error {
	payload, err := json.Marshal(&model.IntegrationEvent{
		Type:           model.EventTypeCommentCreated,
		CommentCreated: event,
	})
	if err != nil {
		return err
	}
	h.broadcast(ctx, payload)
	return nil
}

func (h *Hub) broadcast(ctx context.Context, payload []byte) {
	type target struct {
		conn *websocket.Conn
		wmu  *sync.Mutex
	}
	h.mu.RLock()
	targets := make([]target, 0, len(h.conns))
	for conn, wmu := range h.conns {
		targets = append(targets, target{conn: conn, wmu: wmu})
	}
	h.mu.RUnlock()

	var dead []*websocket.Conn
	for _, tgt := range targets {
		tgt.wmu.Lock()
		tgt.conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := tgt.conn.WriteMessage(websocket.TextMessage, payload)
		tgt.wmu.Unlock()
		if err != nil {
			h.logger.Warn(ctx, "Dropping dead websocket connection",
				logger.F("error", err.Error()))
			dead = append(dead, tgt.conn)
		}
	}
	for _, conn := range dead {
		h.Unregister(conn)
	}
}

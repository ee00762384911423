package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"comments-service/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeWS 升级到WebSocket并订阅新评论通知
// 连接是只写的：服务端忽略客户端消息内容，读循环只用于感知断开
func (h *HTTPHandler) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn(c.Request.Context(), "WebSocket upgrade failed",
			logger.F("error", err.Error()))
		return
	}

	h.hub.Register(conn)
	h.logger.Info(c.Request.Context(), "WebSocket client connected",
		logger.F("remote", conn.RemoteAddr().String()),
		logger.F("connections", h.hub.Count()))

	go func() {
		defer h.hub.Unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

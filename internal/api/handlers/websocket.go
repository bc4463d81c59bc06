package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"telegram_live/internal/service"
)

// 定義 WebSocket 升級器
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 注意：在生產環境中，應該檢查 origin
	},
}

// WebSocketHandler 處理 WebSocket 連接
type WebSocketHandler struct {
	messageService *service.MessageService
	guard          *service.AuthorizationGuard
	registry       service.RoomGroupRegistry
}

// NewWebSocketHandler 創建一個新的 WebSocketHandler 實例
func NewWebSocketHandler(messageService *service.MessageService, guard *service.AuthorizationGuard,
	registry service.RoomGroupRegistry) *WebSocketHandler {
	return &WebSocketHandler{
		messageService: messageService,
		guard:          guard,
		registry:       registry,
	}
}

// HandleWebSocket 處理 WebSocket 連接請求
// 身分由 AuthMiddleware 驗證；成員檢查在會話進入時做，
// 非成員的連線升級後會立即被關閉
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "錯誤的房間ID"})
		return
	}

	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	username, _ := c.Get("username")

	// 升級 HTTP 連接為 WebSocket 連接
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	session := service.NewConnectionSession(conn, userID.(uint), username.(string), uint(roomID),
		h.messageService, h.guard, h.registry)
	session.Run()
}

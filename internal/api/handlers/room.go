package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"telegram_live/internal/service"
)

// RoomHandler 處理與聊天房間相關的請求
type RoomHandler struct {
	roomService    *service.RoomService
	messageService *service.MessageService
	guard          *service.AuthorizationGuard
}

// NewRoomHandler 創建一個新的 RoomHandler 實例
func NewRoomHandler(roomService *service.RoomService, messageService *service.MessageService,
	guard *service.AuthorizationGuard) *RoomHandler {
	return &RoomHandler{
		roomService:    roomService,
		messageService: messageService,
		guard:          guard,
	}
}

// CreateRoom 處理創建新房間的請求，創建者自動成為成員
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var input struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := c.Get("userID")
	room, err := h.roomService.CreateRoom(input.Name, userID.(uint))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "創建房間失敗"})
		return
	}

	c.JSON(http.StatusCreated, room)
}

// ListRooms 處理獲取房間列表的請求
func (h *RoomHandler) ListRooms(c *gin.Context) {
	rooms, err := h.roomService.ListRooms()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "無法取得房間列表"})
		return
	}

	c.JSON(http.StatusOK, rooms)
}

// GetRoom 處理獲取房間訊息的請求
// 已登入用戶首次訪問時自動成為成員
func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "不存在的房間ID"})
		return
	}

	userID, _ := c.Get("userID")
	room, err := h.roomService.GetRoom(uint(roomID), userID.(uint))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "房間不存在"})
		return
	}

	c.JSON(http.StatusOK, room)
}

// DeleteRoom 處理刪除房間的請求，只有創建者可以刪
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "不存在的房間ID"})
		return
	}

	userID, _ := c.Get("userID")
	err = h.roomService.DeleteRoom(uint(roomID), userID.(uint))
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "房間不存在"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "只有房間創建者可以刪除房間"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "刪除房間失敗"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "房間已刪除"})
	}
}

// GetRoomMembers 處理獲取房間成員的請求，只開放給成員
func (h *RoomHandler) GetRoomMembers(c *gin.Context) {
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "不存在的房間ID"})
		return
	}

	userID, _ := c.Get("userID")
	if !h.guard.IsMember(userID.(uint), uint(roomID)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "用戶不是房間成員"})
		return
	}

	members, err := h.roomService.ListMembers(uint(roomID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "無法取得成員列表"})
		return
	}

	type memberView struct {
		UserID   uint      `json:"user_id"`
		Username string    `json:"username"`
		JoinedAt time.Time `json:"joined_at"`
	}
	views := make([]memberView, 0, len(members))
	for _, m := range members {
		views = append(views, memberView{
			UserID:   m.UserID,
			Username: m.User.Username,
			JoinedAt: m.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"members": views})
}

// messageView 訊息歷史的回應形狀
type messageView struct {
	ID        uint       `json:"message_id"`
	User      string     `json:"user"`
	UserID    uint       `json:"user_id"`
	Content   string     `json:"content"`
	FileName  string     `json:"file_name,omitempty"`
	FileSize  int64      `json:"file_size,omitempty"`
	FileType  string     `json:"file_type,omitempty"`
	Timestamp string     `json:"timestamp"`
	ReplyTo   *replyView `json:"reply_to,omitempty"`
}

// replyView 被回覆訊息的預覽
type replyView struct {
	ID      uint   `json:"message_id"`
	User    string `json:"user"`
	Content string `json:"content"`
}

// GetRoomMessages 處理獲取訊息歷史的請求，由舊到新
// 回覆引用防禦性解析：目標訊息已被刪除時直接省略，不報錯
func (h *RoomHandler) GetRoomMessages(c *gin.Context) {
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "不存在的房間ID"})
		return
	}

	userID, _ := c.Get("userID")
	if !h.guard.IsMember(userID.(uint), uint(roomID)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "用戶不是房間成員"})
		return
	}

	messages, err := h.messageService.ListRoomMessages(uint(roomID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "無法取得訊息歷史"})
		return
	}

	views := make([]messageView, 0, len(messages))
	for _, m := range messages {
		view := messageView{
			ID:        m.ID,
			User:      m.User.Username,
			UserID:    m.UserID,
			Content:   m.Content,
			FileName:  m.FileName,
			FileSize:  m.FileSize,
			FileType:  m.FileType,
			Timestamp: m.CreatedAt.Format("15:04"),
		}
		if m.ReplyTo != nil {
			view.ReplyTo = &replyView{
				ID:      m.ReplyTo.ID,
				User:    m.ReplyTo.User.Username,
				Content: m.ReplyTo.Content,
			}
		}
		views = append(views, view)
	}

	c.JSON(http.StatusOK, gin.H{"messages": views})
}

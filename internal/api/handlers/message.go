package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"telegram_live/internal/service"
)

// maxUploadSize 附件大小上限 100MB
const maxUploadSize = 100 << 20

// MessageHandler 處理訊息的 HTTP 路徑：上傳、刪除、下載附件
type MessageHandler struct {
	messageService *service.MessageService
	guard          *service.AuthorizationGuard
	registry       service.RoomGroupRegistry
}

// NewMessageHandler 創建一個新的 MessageHandler 實例
func NewMessageHandler(messageService *service.MessageService, guard *service.AuthorizationGuard,
	registry service.RoomGroupRegistry) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		guard:          guard,
		registry:       registry,
	}
}

// PostMessage 處理 multipart 表單的訊息建立，可帶文字、附件或兩者
// 持久化成功後照樣廣播到房間主題，讓 WebSocket 端即時看到
func (h *MessageHandler) PostMessage(c *gin.Context) {
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "不存在的房間ID"})
		return
	}

	userID, _ := c.Get("userID")
	username, _ := c.Get("username")
	if !h.guard.IsMember(userID.(uint), uint(roomID)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "用戶不是房間成員"})
		return
	}

	content := strings.TrimSpace(c.PostForm("content"))

	var replyTo *uint
	if v, err := strconv.ParseUint(c.PostForm("reply_to"), 10, 32); err == nil {
		id := uint(v)
		replyTo = &id
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		// 沒有附件，純文字訊息
		if content == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "訊息內容為空"})
			return
		}

		message, err := h.messageService.CreateMessage(uint(roomID), userID.(uint), content, replyTo)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "房間不存在"})
			return
		}
		h.registry.Publish(service.RoomTopic(uint(roomID)), service.NewChatMessageEvent(message, username.(string)))
		c.JSON(http.StatusCreated, message)
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "檔案大小超過100MB"})
		return
	}

	fileType := header.Header.Get("Content-Type")
	message, err := h.messageService.CreateFileMessage(uint(roomID), userID.(uint), content,
		header.Filename, header.Size, fileType, file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "儲存訊息失敗"})
		return
	}
	h.registry.Publish(service.RoomTopic(uint(roomID)), service.NewChatMessageEvent(message, username.(string)))
	c.JSON(http.StatusCreated, message)
}

// DeleteMessageContent 處理 HTTP 的刪除路徑，語義與 WebSocket 的 delete_message 相同
// 刪除成功才廣播 message_deleted 事件
func (h *MessageHandler) DeleteMessageContent(c *gin.Context) {
	messageID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "不存在的訊息ID"})
		return
	}
	deleteType := c.Param("delete_type")

	message, err := h.messageService.Find(uint(messageID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "訊息不存在"})
		return
	}

	userID, _ := c.Get("userID")
	err = h.messageService.DeleteMessageContent(uint(messageID), message.RoomID, userID.(uint), deleteType)
	switch {
	case errors.Is(err, service.ErrMessageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "訊息不存在"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "只有訊息作者或房間創建者可以刪除"})
	case errors.Is(err, service.ErrBadDeleteType):
		c.JSON(http.StatusBadRequest, gin.H{"error": "無效的刪除類型"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "刪除訊息失敗"})
	default:
		h.registry.Publish(service.RoomTopic(message.RoomID),
			service.NewMessageDeletedEvent(uint(messageID), deleteType))
		c.JSON(http.StatusOK, gin.H{"message": "已刪除"})
	}
}

// DownloadFile 處理附件下載
// 只開放給訊息作者與房間成員（創建者一定是成員）
func (h *MessageHandler) DownloadFile(c *gin.Context) {
	messageID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "不存在的訊息ID"})
		return
	}

	message, err := h.messageService.Find(uint(messageID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "訊息不存在"})
		return
	}

	userID, _ := c.Get("userID")
	if message.UserID != userID.(uint) && !h.guard.IsMember(userID.(uint), message.RoomID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "沒有權限下載"})
		return
	}

	if !message.HasFile() {
		c.JSON(http.StatusNotFound, gin.H{"error": "檔案不存在"})
		return
	}

	f, err := h.messageService.OpenFile(message)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "檔案不存在"})
		return
	}
	defer f.Close()

	contentType := message.FileType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.DataFromReader(http.StatusOK, message.FileSize, contentType, f, map[string]string{
		"Content-Disposition":    "attachment; filename*=UTF-8''" + url.PathEscape(message.FileName),
		"X-Content-Type-Options": "nosniff",
	})
}

package service

import (
	"encoding/json"
	"fmt"

	"telegram_live/internal/models"
)

// 出站事件類型
const (
	EventChatMessage    = "chat_message"
	EventUserJoin       = "user_join"
	EventUserLeave      = "user_leave"
	EventUserTyping     = "user_typing"
	EventMessageDeleted = "message_deleted"
)

// 入站請求類型
const (
	RequestChatMessage   = "chat_message"
	RequestTyping        = "typing"
	RequestDeleteMessage = "delete_message"
)

// 刪除種類
const (
	DeleteText = "text" // 只清空文字
	DeleteFile = "file" // 只移除附件
	DeleteAll  = "all"  // 整列刪除
)

// Event 是房間廣播事件的封閉集合
// 每個具體類型就是它自己的出站 JSON frame
type Event interface {
	EventType() string
}

// ChatMessageEvent 對應已持久化的聊天訊息
type ChatMessageEvent struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	User      string `json:"user"`
	UserID    uint   `json:"user_id"`
	MessageID uint   `json:"message_id"`
	Timestamp string `json:"timestamp"` // HH:MM
	ReplyTo   *uint  `json:"reply_to"`
}

func (e *ChatMessageEvent) EventType() string { return EventChatMessage }

// NewChatMessageEvent 由持久化後的訊息列建立廣播事件
func NewChatMessageEvent(message *models.Message, username string) *ChatMessageEvent {
	return &ChatMessageEvent{
		Type:      EventChatMessage,
		Message:   message.Content,
		User:      username,
		UserID:    message.UserID,
		MessageID: message.ID,
		Timestamp: message.CreatedAt.Format("15:04"),
		ReplyTo:   message.ReplyToID,
	}
}

type UserJoinEvent struct {
	Type string `json:"type"`
	User string `json:"user"`
}

func (e *UserJoinEvent) EventType() string { return EventUserJoin }

func NewUserJoinEvent(username string) *UserJoinEvent {
	return &UserJoinEvent{Type: EventUserJoin, User: username}
}

type UserLeaveEvent struct {
	Type string `json:"type"`
	User string `json:"user"`
}

func (e *UserLeaveEvent) EventType() string { return EventUserLeave }

func NewUserLeaveEvent(username string) *UserLeaveEvent {
	return &UserLeaveEvent{Type: EventUserLeave, User: username}
}

type UserTypingEvent struct {
	Type     string `json:"type"`
	User     string `json:"user"`
	IsTyping bool   `json:"is_typing"`
}

func (e *UserTypingEvent) EventType() string { return EventUserTyping }

func NewUserTypingEvent(username string, isTyping bool) *UserTypingEvent {
	return &UserTypingEvent{Type: EventUserTyping, User: username, IsTyping: isTyping}
}

type MessageDeletedEvent struct {
	Type       string `json:"type"`
	MessageID  uint   `json:"message_id"`
	DeleteType string `json:"delete_type"`
}

func (e *MessageDeletedEvent) EventType() string { return EventMessageDeleted }

func NewMessageDeletedEvent(messageID uint, deleteType string) *MessageDeletedEvent {
	return &MessageDeletedEvent{Type: EventMessageDeleted, MessageID: messageID, DeleteType: deleteType}
}

// inboundFrame 是客戶端入站 frame 的聯集
// 不同請求類型共用一個結構，依 Type 取用對應欄位
type inboundFrame struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	ReplyTo    *uint  `json:"reply_to"`
	IsTyping   bool   `json:"is_typing"`
	MessageID  uint   `json:"message_id"`
	DeleteType string `json:"delete_type"`
}

// decodeEvent 把序列化過的事件還原成具體類型
// Redis 後端跨節點傳遞時使用
func decodeEvent(data []byte) (Event, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}

	switch probe.Type {
	case EventChatMessage:
		var e ChatMessageEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return &e, nil
	case EventUserJoin:
		var e UserJoinEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return &e, nil
	case EventUserLeave:
		var e UserLeaveEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return &e, nil
	case EventUserTyping:
		var e UserTypingEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return &e, nil
	case EventMessageDeleted:
		var e MessageDeletedEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return &e, nil
	default:
		return nil, fmt.Errorf("unknown event type: %q", probe.Type)
	}
}

package service

import (
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"telegram_live/internal/models"
)

const (
	writeWait      = 10 * time.Second // 單次寫入的超時
	pongWait       = 60 * time.Second // 等待 pong 回應的時限
	pingPeriod     = 54 * time.Second // 心跳間隔，必須小於 pongWait
	maxMessageSize = 4096             // 入站 frame 的大小上限
)

// MessageStore 是會話對訊息持久層的依賴
// 由 MessageService 實作
type MessageStore interface {
	CreateMessage(roomID, userID uint, content string, replyTo *uint) (*models.Message, error)
	DeleteMessageContent(messageID, roomID, requesterID uint, deleteType string) error
}

// MembershipGuard 是會話對成員檢查的依賴
// 由 AuthorizationGuard 實作
type MembershipGuard interface {
	IsMember(userID, roomID uint) bool
}

var (
	_ MessageStore    = (*MessageService)(nil)
	_ MembershipGuard = (*AuthorizationGuard)(nil)
)

// ConnectionSession 代表一條已升級的 WebSocket 連線
// 生命週期 Connecting → Active → Closed，關閉後不重用；
// 新的連線一律建立新的會話
type ConnectionSession struct {
	conn     *websocket.Conn
	userID   uint
	username string
	roomID   uint

	store    MessageStore
	guard    MembershipGuard
	registry RoomGroupRegistry

	sub  *Subscriber
	quit chan struct{}
}

func NewConnectionSession(conn *websocket.Conn, userID uint, username string, roomID uint,
	store MessageStore, guard MembershipGuard, registry RoomGroupRegistry) *ConnectionSession {
	return &ConnectionSession{
		conn:     conn,
		userID:   userID,
		username: username,
		roomID:   roomID,
		store:    store,
		guard:    guard,
		registry: registry,
		sub:      NewSubscriber(),
		quit:     make(chan struct{}),
	}
}

// topic 房間的廣播主題名稱
func (s *ConnectionSession) topic() string {
	return RoomTopic(s.roomID)
}

// Run 執行會話直到連線結束，呼叫端阻塞在這裡
// 成員檢查只在進入時做一次；非成員直接關閉，不訂閱也不廣播
func (s *ConnectionSession) Run() {
	defer s.conn.Close()

	if !s.guard.IsMember(s.userID, s.roomID) {
		return
	}

	s.registry.Subscribe(s.topic(), s.sub)
	defer func() {
		// 任何斷線路徑都要走到這裡：退訂，然後廣播離開
		close(s.quit)
		s.registry.Unsubscribe(s.topic(), s.sub)
		s.registry.Publish(s.topic(), NewUserLeaveEvent(s.username))
	}()

	s.registry.Publish(s.topic(), NewUserJoinEvent(s.username))

	go s.writePump()
	s.readPump()
}

// readPump 持續讀取客戶端的入站 frame
// 解析不了的 frame 直接丟掉，永遠不因壞輸入關連線
func (s *ConnectionSession) readPump() {
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("session: unexpected close: %v", err)
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}

		switch frame.Type {
		case RequestChatMessage:
			s.handleChatMessage(frame)
		case RequestTyping:
			s.handleTyping(frame)
		case RequestDeleteMessage:
			s.handleDeleteMessage(frame)
		default:
			// 未知類型忽略
		}
	}
}

// handleChatMessage 先持久化再廣播
// 持久化失敗（例如房間已被刪除）就不廣播，也不回錯誤給客戶端
func (s *ConnectionSession) handleChatMessage(frame inboundFrame) {
	content := strings.TrimSpace(frame.Message)
	if content == "" {
		return
	}

	message, err := s.store.CreateMessage(s.roomID, s.userID, content, frame.ReplyTo)
	if err != nil {
		log.Printf("session: save message: %v", err)
		return
	}

	s.registry.Publish(s.topic(), NewChatMessageEvent(message, s.username))
}

// handleTyping 不落地，直接轉廣播
func (s *ConnectionSession) handleTyping(frame inboundFrame) {
	s.registry.Publish(s.topic(), NewUserTypingEvent(s.username, frame.IsTyping))
}

// handleDeleteMessage 刪除成功才廣播；找不到或沒權限都靜默略過
func (s *ConnectionSession) handleDeleteMessage(frame inboundFrame) {
	if frame.MessageID == 0 {
		return
	}
	deleteType := frame.DeleteType
	if deleteType == "" {
		deleteType = DeleteAll
	}

	if err := s.store.DeleteMessageContent(frame.MessageID, s.roomID, s.userID, deleteType); err != nil {
		return
	}
	s.registry.Publish(s.topic(), NewMessageDeletedEvent(frame.MessageID, deleteType))
}

// writePump 把訂閱收到的事件依序送給客戶端，並維持心跳
// 事件送達順序就是訂閱收到的順序，這一層不重排
func (s *ConnectionSession) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event := <-s.sub.Events():
			// 自己的 typing 事件不回送給自己
			if typing, ok := event.(*UserTypingEvent); ok && typing.User == s.username {
				continue
			}

			payload, err := json.Marshal(event)
			if err != nil {
				log.Printf("session: encode event: %v", err)
				continue
			}

			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-s.sub.Done():
			// 佇列滿被註冊表丟棄，關連線讓 readPump 結束並走清理
			s.conn.Close()
			return

		case <-s.quit:
			return
		}
	}
}

package service

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"telegram_live/internal/models"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// fakeStore 記錄呼叫並回傳遞增的訊息 ID
type fakeStore struct {
	mu        sync.Mutex
	created   []*models.Message
	deletes   []deleteCall
	deleteErr error
}

type deleteCall struct {
	messageID   uint
	roomID      uint
	requesterID uint
	deleteType  string
}

func (f *fakeStore) CreateMessage(roomID, userID uint, content string, replyTo *uint) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	message := &models.Message{RoomID: roomID, UserID: userID, Content: content, ReplyToID: replyTo}
	message.ID = uint(len(f.created) + 1)
	message.CreatedAt = time.Now()
	f.created = append(f.created, message)
	return message, nil
}

func (f *fakeStore) DeleteMessageContent(messageID, roomID, requesterID uint, deleteType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletes = append(f.deletes, deleteCall{messageID, roomID, requesterID, deleteType})
	return nil
}

func (f *fakeStore) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

type fakeGuard struct {
	members map[uint]bool
}

func (g *fakeGuard) IsMember(userID, roomID uint) bool {
	return g.members[userID]
}

// newSessionServer 啟一個把每條連線交給 ConnectionSession 的測試伺服器
// 身分從 query 參數帶入，房間固定為 1
func newSessionServer(t *testing.T, store MessageStore, guard MembershipGuard, registry RoomGroupRegistry) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := strconv.Atoi(r.URL.Query().Get("user_id"))
		username := r.URL.Query().Get("username")

		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewConnectionSession(conn, uint(userID), username, 1, store, guard, registry).Run()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dialSession(t *testing.T, srv *httptest.Server, userID uint, username string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") +
		fmt.Sprintf("/?user_id=%d&username=%s", userID, username)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var frame map[string]interface{}
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	return frame
}

func sendFrame(t *testing.T, conn *websocket.Conn, frame interface{}) {
	t.Helper()
	if err := conn.WriteJSON(frame); err != nil {
		t.Fatalf("send frame: %v", err)
	}
}

func TestSessionRejectsNonMember(t *testing.T) {
	registry := NewMemoryRegistry()
	observer := NewSubscriber()
	registry.Subscribe("chat_1", observer)

	srv := newSessionServer(t, &fakeStore{}, &fakeGuard{members: map[uint]bool{}}, registry)
	conn := dialSession(t, srv, 7, "mallory")

	// 非成員的連線立刻被關閉
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected connection to be closed")
	}

	// 既沒有 join 也沒有 leave 被廣播
	assertNoEvent(t, observer)
}

func TestSessionJoinBroadcast(t *testing.T) {
	registry := NewMemoryRegistry()
	observer := NewSubscriber()
	registry.Subscribe("chat_1", observer)

	srv := newSessionServer(t, &fakeStore{}, &fakeGuard{members: map[uint]bool{1: true}}, registry)
	conn := dialSession(t, srv, 1, "alice")

	event := recvEvent(t, observer)
	join, ok := event.(*UserJoinEvent)
	if !ok || join.User != "alice" {
		t.Fatalf("expected join from alice, got %#v", event)
	}

	// 加入者自己也會看到自己的 user_join
	frame := readFrame(t, conn)
	if frame["type"] != EventUserJoin || frame["user"] != "alice" {
		t.Fatalf("unexpected frame: %v", frame)
	}
}

func TestSessionChatMessagePersistThenBroadcast(t *testing.T) {
	registry := NewMemoryRegistry()
	store := &fakeStore{}
	srv := newSessionServer(t, store, &fakeGuard{members: map[uint]bool{1: true}}, registry)

	conn := dialSession(t, srv, 1, "alice")
	readFrame(t, conn) // 自己的 user_join

	sendFrame(t, conn, map[string]interface{}{
		"type":    "chat_message",
		"message": "  hello  ",
	})

	frame := readFrame(t, conn)
	if frame["type"] != EventChatMessage {
		t.Fatalf("expected chat_message, got %v", frame)
	}
	if frame["message"] != "hello" {
		t.Errorf("expected trimmed content, got %q", frame["message"])
	}
	if frame["user"] != "alice" || frame["user_id"] != float64(1) {
		t.Errorf("wrong author fields: %v", frame)
	}
	if frame["message_id"] != float64(1) {
		t.Errorf("expected persisted id 1, got %v", frame["message_id"])
	}
	if _, ok := frame["timestamp"]; !ok {
		t.Error("missing timestamp")
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.created) != 1 {
		t.Fatalf("expected one persisted message, got %d", len(store.created))
	}
	if store.created[0].Content != "hello" {
		t.Errorf("persisted content %q", store.created[0].Content)
	}
}

func TestSessionWhitespaceMessageIgnored(t *testing.T) {
	registry := NewMemoryRegistry()
	observer := NewSubscriber()
	registry.Subscribe("chat_1", observer)

	store := &fakeStore{}
	srv := newSessionServer(t, store, &fakeGuard{members: map[uint]bool{1: true}}, registry)

	conn := dialSession(t, srv, 1, "alice")
	recvEvent(t, observer) // join

	sendFrame(t, conn, map[string]interface{}{"type": "chat_message", "message": "   "})

	assertNoEvent(t, observer)
	if store.createdCount() != 0 {
		t.Fatalf("whitespace message was persisted")
	}
}

func TestSessionIgnoresMalformedAndUnknownFrames(t *testing.T) {
	registry := NewMemoryRegistry()
	srv := newSessionServer(t, &fakeStore{}, &fakeGuard{members: map[uint]bool{1: true}}, registry)

	conn := dialSession(t, srv, 1, "alice")
	readFrame(t, conn) // join

	// 壞 JSON 與未知類型都不能弄死連線
	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	sendFrame(t, conn, map[string]interface{}{"type": "presence"})

	sendFrame(t, conn, map[string]interface{}{"type": "chat_message", "message": "still alive"})
	frame := readFrame(t, conn)
	if frame["type"] != EventChatMessage || frame["message"] != "still alive" {
		t.Fatalf("connection did not survive malformed input: %v", frame)
	}
}

func TestSessionTypingNotEchoedToSender(t *testing.T) {
	registry := NewMemoryRegistry()
	srv := newSessionServer(t, &fakeStore{}, &fakeGuard{members: map[uint]bool{1: true, 2: true}}, registry)

	alice := dialSession(t, srv, 1, "alice")
	readFrame(t, alice) // 自己的 join

	bob := dialSession(t, srv, 2, "bob")
	readFrame(t, bob)   // bob 自己的 join
	readFrame(t, alice) // alice 看到 bob 的 join

	sendFrame(t, alice, map[string]interface{}{"type": "typing", "is_typing": true})

	frame := readFrame(t, bob)
	if frame["type"] != EventUserTyping || frame["user"] != "alice" || frame["is_typing"] != true {
		t.Fatalf("expected typing from alice, got %v", frame)
	}

	// alice 不該收到自己的 typing：bob 接著發話，
	// alice 收到的下一個 frame 必須直接是那條訊息
	sendFrame(t, bob, map[string]interface{}{"type": "chat_message", "message": "hi"})
	frame = readFrame(t, alice)
	if frame["type"] != EventChatMessage || frame["message"] != "hi" {
		t.Fatalf("typing indicator was echoed to its sender: %v", frame)
	}
}

func TestSessionDeleteMessageBroadcast(t *testing.T) {
	registry := NewMemoryRegistry()
	store := &fakeStore{}
	srv := newSessionServer(t, store, &fakeGuard{members: map[uint]bool{1: true}}, registry)

	conn := dialSession(t, srv, 1, "alice")
	readFrame(t, conn) // join

	sendFrame(t, conn, map[string]interface{}{
		"type":        "delete_message",
		"message_id":  5,
		"delete_type": "text",
	})

	frame := readFrame(t, conn)
	if frame["type"] != EventMessageDeleted {
		t.Fatalf("expected message_deleted, got %v", frame)
	}
	if frame["message_id"] != float64(5) || frame["delete_type"] != "text" {
		t.Errorf("wrong delete fields: %v", frame)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.deletes) != 1 {
		t.Fatalf("expected one delete call, got %d", len(store.deletes))
	}
	want := deleteCall{messageID: 5, roomID: 1, requesterID: 1, deleteType: "text"}
	if store.deletes[0] != want {
		t.Errorf("delete call %+v, want %+v", store.deletes[0], want)
	}
}

func TestSessionDeleteFailureIsSilent(t *testing.T) {
	registry := NewMemoryRegistry()
	observer := NewSubscriber()
	registry.Subscribe("chat_1", observer)

	store := &fakeStore{deleteErr: ErrForbidden}
	srv := newSessionServer(t, store, &fakeGuard{members: map[uint]bool{1: true}}, registry)

	conn := dialSession(t, srv, 1, "alice")
	recvEvent(t, observer) // join

	sendFrame(t, conn, map[string]interface{}{
		"type":        "delete_message",
		"message_id":  5,
		"delete_type": "all",
	})

	// 失敗不廣播，連線也不關
	assertNoEvent(t, observer)
	sendFrame(t, conn, map[string]interface{}{"type": "typing", "is_typing": true})
	event := recvEvent(t, observer)
	if _, ok := event.(*UserTypingEvent); !ok {
		t.Fatalf("expected typing after silent failure, got %#v", event)
	}
}

func TestSessionLeaveOnDisconnect(t *testing.T) {
	registry := NewMemoryRegistry()
	observer := NewSubscriber()
	registry.Subscribe("chat_1", observer)

	srv := newSessionServer(t, &fakeStore{}, &fakeGuard{members: map[uint]bool{1: true}}, registry)
	conn := dialSession(t, srv, 1, "alice")
	recvEvent(t, observer) // join

	conn.Close()

	event := recvEvent(t, observer)
	leave, ok := event.(*UserLeaveEvent)
	if !ok || leave.User != "alice" {
		t.Fatalf("expected leave from alice, got %#v", event)
	}
	// 只有一次 leave
	assertNoEvent(t, observer)
}

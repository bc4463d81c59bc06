package service

import (
	"fmt"
	"sync"
)

// sendBufferSize 每個訂閱者的事件佇列長度
// 佇列滿表示客戶端已經跟不上，該訂閱者會被標記斷線而不是拖住整個房間
const sendBufferSize = 256

// RoomTopic 房間 ID 對應的廣播主題名稱
func RoomTopic(roomID uint) string {
	return fmt.Sprintf("chat_%d", roomID)
}

// RoomGroupRegistry 是房間層級的發佈/訂閱原語
// Publish 把事件送給呼叫當下訂閱該主題的所有訂閱者，沒有回放；
// 對每個訂閱者的投遞彼此獨立，慢的訂閱者不會擋住其他人
type RoomGroupRegistry interface {
	Subscribe(topic string, sub *Subscriber)
	Unsubscribe(topic string, sub *Subscriber)
	Publish(topic string, event Event)
}

// Subscriber 是一個連線在註冊表中的代理
// 事件經由緩衝通道送達；佇列滿時訂閱者被丟棄（Done 關閉），通道本身不關閉
type Subscriber struct {
	events chan Event
	done   chan struct{}
	once   sync.Once
}

func NewSubscriber() *Subscriber {
	return newSubscriber(sendBufferSize)
}

func newSubscriber(buffer int) *Subscriber {
	return &Subscriber{
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
	}
}

// Events 回傳事件接收通道
func (s *Subscriber) Events() <-chan Event {
	return s.events
}

// Done 在訂閱者被註冊表丟棄後關閉
func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}

func (s *Subscriber) drop() {
	s.once.Do(func() {
		close(s.done)
	})
}

// MemoryRegistry 單一進程內的 RoomGroupRegistry 實作
// 兩層 map: topic -> subscriber -> bool，讀寫鎖保護
type MemoryRegistry struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscriber]bool
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		topics: make(map[string]map[*Subscriber]bool),
	}
}

func (r *MemoryRegistry) Subscribe(topic string, sub *Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.topics[topic] == nil {
		r.topics[topic] = make(map[*Subscriber]bool)
	}
	r.topics[topic][sub] = true
}

func (r *MemoryRegistry) Unsubscribe(topic string, sub *Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if subs, ok := r.topics[topic]; ok {
		delete(subs, sub)
		// 主題沒有訂閱者了就移除
		if len(subs) == 0 {
			delete(r.topics, topic)
		}
	}
}

// Publish 對呼叫當下的訂閱者快照逐一投遞
// 同一個發佈者連續 Publish 的事件對每個訂閱者保持原順序（通道 FIFO）；
// 不同發佈者之間的交錯順序不做保證
func (r *MemoryRegistry) Publish(topic string, event Event) {
	r.mu.RLock()
	subs := make([]*Subscriber, 0, len(r.topics[topic]))
	for sub := range r.topics[topic] {
		subs = append(subs, sub)
	}
	r.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.events <- event:
			// 事件進入訂閱者佇列
		default:
			// 佇列已滿，丟棄這個訂閱者
			sub.drop()
		}
	}
}

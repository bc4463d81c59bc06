package service

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// redisChannelPrefix Redis 頻道名稱前綴，避免與其他用途的 key 撞名
const redisChannelPrefix = "chat:"

// RedisRegistry 以 Redis pub/sub 為骨幹的 RoomGroupRegistry
// 多個 gateway 節點訂閱同一個 Redis 頻道，事件經 Redis 回繞後
// 由本地的 MemoryRegistry fan-out 給節點上的各個連線。
// 單一頻道內 Redis 依發佈順序投遞，per-publisher FIFO 因此成立
type RedisRegistry struct {
	client *redis.Client
	local  *MemoryRegistry

	mu     sync.Mutex
	pubsub map[string]*redis.PubSub // topic -> 這個節點的 Redis 訂閱
	counts map[string]int           // topic -> 本地訂閱者數
}

func NewRedisRegistry(client *redis.Client) *RedisRegistry {
	return &RedisRegistry{
		client: client,
		local:  NewMemoryRegistry(),
		pubsub: make(map[string]*redis.PubSub),
		counts: make(map[string]int),
	}
}

func (r *RedisRegistry) Subscribe(topic string, sub *Subscriber) {
	r.local.Subscribe(topic, sub)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.counts[topic]++
	if r.counts[topic] > 1 {
		return
	}

	// 這個節點上該主題的第一個訂閱者，建立 Redis 訂閱
	ps := r.client.Subscribe(context.Background(), redisChannelPrefix+topic)
	r.pubsub[topic] = ps
	go r.pump(topic, ps)
}

func (r *RedisRegistry) Unsubscribe(topic string, sub *Subscriber) {
	r.local.Unsubscribe(topic, sub)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.counts[topic] == 0 {
		return
	}
	r.counts[topic]--
	if r.counts[topic] > 0 {
		return
	}

	// 本地已無訂閱者，收掉 Redis 訂閱
	delete(r.counts, topic)
	if ps, ok := r.pubsub[topic]; ok {
		delete(r.pubsub, topic)
		if err := ps.Close(); err != nil {
			log.Printf("redis registry: close subscription for %s: %v", topic, err)
		}
	}
}

// Publish 把事件送進 Redis 頻道
// 本地訂閱者的投遞也走 Redis 回繞，所有節點看到同一份順序
func (r *RedisRegistry) Publish(topic string, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("redis registry: encode event: %v", err)
		return
	}
	if err := r.client.Publish(context.Background(), redisChannelPrefix+topic, payload).Err(); err != nil {
		log.Printf("redis registry: publish to %s: %v", topic, err)
	}
}

// pump 把 Redis 頻道的訊息轉成事件，交給本地 fan-out
// 訂閱被 Close 後 Channel() 關閉，goroutine 結束
func (r *RedisRegistry) pump(topic string, ps *redis.PubSub) {
	for msg := range ps.Channel() {
		event, err := decodeEvent([]byte(msg.Payload))
		if err != nil {
			log.Printf("redis registry: decode event: %v", err)
			continue
		}
		r.local.Publish(topic, event)
	}
}

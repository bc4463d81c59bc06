package service

import (
	"fmt"
	"testing"
	"time"
)

func recvEvent(t *testing.T, sub *Subscriber) Event {
	t.Helper()
	select {
	case event := <-sub.Events():
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func assertNoEvent(t *testing.T, sub *Subscriber) {
	t.Helper()
	select {
	case event := <-sub.Events():
		t.Fatalf("unexpected event: %#v", event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestMemoryRegistryFanout(t *testing.T) {
	registry := NewMemoryRegistry()
	a := NewSubscriber()
	b := NewSubscriber()
	registry.Subscribe("chat_1", a)
	registry.Subscribe("chat_1", b)

	registry.Publish("chat_1", NewUserJoinEvent("alice"))

	for _, sub := range []*Subscriber{a, b} {
		event := recvEvent(t, sub)
		join, ok := event.(*UserJoinEvent)
		if !ok {
			t.Fatalf("expected UserJoinEvent, got %#v", event)
		}
		if join.User != "alice" {
			t.Errorf("expected user alice, got %s", join.User)
		}
	}
}

func TestMemoryRegistryTopicIsolation(t *testing.T) {
	registry := NewMemoryRegistry()
	a := NewSubscriber()
	b := NewSubscriber()
	registry.Subscribe("chat_1", a)
	registry.Subscribe("chat_2", b)

	registry.Publish("chat_1", NewUserJoinEvent("alice"))

	recvEvent(t, a)
	assertNoEvent(t, b)
}

func TestMemoryRegistryUnsubscribeStopsDelivery(t *testing.T) {
	registry := NewMemoryRegistry()
	sub := NewSubscriber()
	registry.Subscribe("chat_1", sub)
	registry.Unsubscribe("chat_1", sub)

	registry.Publish("chat_1", NewUserJoinEvent("alice"))

	assertNoEvent(t, sub)
}

func TestMemoryRegistryNoBacklog(t *testing.T) {
	registry := NewMemoryRegistry()
	registry.Publish("chat_1", NewUserJoinEvent("alice"))

	// 發佈之後才訂閱的人收不到舊事件
	late := NewSubscriber()
	registry.Subscribe("chat_1", late)
	assertNoEvent(t, late)
}

func TestMemoryRegistryPublisherOrder(t *testing.T) {
	registry := NewMemoryRegistry()
	sub := NewSubscriber()
	registry.Subscribe("chat_1", sub)

	const n = 50
	for i := 0; i < n; i++ {
		registry.Publish("chat_1", NewUserJoinEvent(fmt.Sprintf("user-%d", i)))
	}

	// 同一個發佈者的事件必須依發佈順序送達
	for i := 0; i < n; i++ {
		event := recvEvent(t, sub)
		join := event.(*UserJoinEvent)
		want := fmt.Sprintf("user-%d", i)
		if join.User != want {
			t.Fatalf("event %d: expected %s, got %s", i, want, join.User)
		}
	}
}

func TestMemoryRegistryOverflowDropsSlowSubscriber(t *testing.T) {
	registry := NewMemoryRegistry()
	slow := newSubscriber(2)
	fast := NewSubscriber()
	registry.Subscribe("chat_1", slow)
	registry.Subscribe("chat_1", fast)

	// slow 的佇列只有兩格，第三個事件把它擠掉
	for i := 0; i < 3; i++ {
		registry.Publish("chat_1", NewUserJoinEvent(fmt.Sprintf("user-%d", i)))
	}

	select {
	case <-slow.Done():
	case <-time.After(time.Second):
		t.Fatal("slow subscriber was not dropped")
	}

	// 其他訂閱者不受影響，三個事件都在
	for i := 0; i < 3; i++ {
		recvEvent(t, fast)
	}
}

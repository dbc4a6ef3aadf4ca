package datasync

import (
	"testing"
)

func TestMemorySynchronizerDeliversToAllSubscribers(t *testing.T) {
	sync := NewMemorySynchronizer("config-topic", nil)

	var first, second []string
	sync.Subscribe(func(key string, payload []byte) {
		first = append(first, key)
	})
	sync.Subscribe(func(key string, payload []byte) {
		second = append(second, key)
	})

	if err := sync.Send("restart-conn1", []byte(`{"epoch":1}`)); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected one delivery per subscriber, got %d and %d", len(first), len(second))
	}
	if first[0] != "restart-conn1" {
		t.Errorf("unexpected key %q", first[0])
	}
}

func TestMemorySynchronizerCancelStopsDelivery(t *testing.T) {
	sync := NewMemorySynchronizer("config-topic", nil)

	var received int
	_, cancel := sync.Subscribe(func(string, []byte) {
		received++
	})

	if err := sync.Send("restart-conn1", nil); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	cancel()
	if err := sync.Send("restart-conn1", nil); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if received != 1 {
		t.Errorf("expected exactly one delivery, got %d", received)
	}
}

func TestMemorySynchronizerNoSubscribers(t *testing.T) {
	sync := NewMemorySynchronizer("config-topic", nil)

	if err := sync.Send("restart-conn1", []byte("payload")); err != nil {
		t.Errorf("send with no subscribers must not fail: %v", err)
	}
}

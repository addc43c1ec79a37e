package logging

import (
	"testing"
	"time"
)

func stageEntry(message, stage string) LogEntry {
	return LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     LevelInfo,
		Message:   message,
		Context:   map[string]string{"session_id": "sess-42", "stage": stage},
	}
}

func TestLogHubDeliversToEveryFollower(t *testing.T) {
	hub := NewLogHub()
	defer hub.Close()

	first, cancelFirst := hub.Subscribe(4)
	second, cancelSecond := hub.Subscribe(4)
	defer cancelFirst()
	defer cancelSecond()

	if got := hub.FollowerCount(); got != 2 {
		t.Fatalf("expected 2 followers, got %d", got)
	}

	hub.Broadcast(stageEntry("stage started", "synthesis"))

	for _, entries := range []<-chan LogEntry{first, second} {
		select {
		case entry := <-entries:
			if entry.Message != "stage started" {
				t.Fatalf("unexpected message %q", entry.Message)
			}
			if entry.Context["stage"] != "synthesis" {
				t.Fatalf("unexpected stage %q", entry.Context["stage"])
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for broadcast")
		}
	}
}

func TestLogHubDropsWhenFollowerIsFull(t *testing.T) {
	hub := NewLogHub()
	defer hub.Close()

	entries, cancel := hub.Subscribe(1)
	defer cancel()

	hub.Broadcast(stageEntry("first", "persona_calibration"))
	hub.Broadcast(stageEntry("second", "persona_calibration"))

	entry := <-entries
	if entry.Message != "first" {
		t.Fatalf("expected oldest entry, got %q", entry.Message)
	}
	select {
	case extra := <-entries:
		t.Fatalf("expected overflow entry to be dropped, got %q", extra.Message)
	default:
	}
}

func TestLogHubUnsubscribeClosesChannel(t *testing.T) {
	hub := NewLogHub()
	defer hub.Close()

	entries, cancel := hub.Subscribe(1)
	cancel()
	cancel()

	if _, open := <-entries; open {
		t.Fatal("expected channel closed after unsubscribe")
	}
	if got := hub.FollowerCount(); got != 0 {
		t.Fatalf("expected 0 followers after unsubscribe, got %d", got)
	}
	hub.Broadcast(stageEntry("after unsubscribe", "optimization"))
}

func TestLogHubClose(t *testing.T) {
	hub := NewLogHub()
	entries, cancel := hub.Subscribe(1)
	defer cancel()

	hub.Close()
	hub.Close()

	if _, open := <-entries; open {
		t.Fatal("expected channel closed after hub close")
	}

	hub.Broadcast(stageEntry("after close", "synthesis"))
	late, cancelLate := hub.Subscribe(1)
	defer cancelLate()
	if _, open := <-late; open {
		t.Fatal("expected subscribe after close to yield a closed channel")
	}
}

func TestNilLogHubIsNoOp(t *testing.T) {
	var hub *LogHub
	entries, cancel := hub.Subscribe(1)
	if entries != nil {
		t.Fatal("expected nil channel from nil hub")
	}
	cancel()
	hub.Broadcast(stageEntry("ignored", "synthesis"))
	hub.Close()
	if got := hub.FollowerCount(); got != 0 {
		t.Fatalf("expected 0 followers on nil hub, got %d", got)
	}
}

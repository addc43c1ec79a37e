package logging

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestLogBufferEvictsOldestWhenFull(t *testing.T) {
	buffer := NewLogBuffer(2)
	buffer.Add(stageEntry("coordinate analysis started", "coordinate_analysis"))
	buffer.Add(stageEntry("persona calibration started", "persona_calibration"))
	buffer.Add(stageEntry("simulation execution started", "simulation_execution"))

	entries := buffer.List()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Context["stage"] != "persona_calibration" {
		t.Fatalf("expected oldest surviving stage persona_calibration, got %q", entries[0].Context["stage"])
	}
	if entries[1].Context["stage"] != "simulation_execution" {
		t.Fatalf("expected newest stage simulation_execution, got %q", entries[1].Context["stage"])
	}
}

func TestLogBufferUnderCapacityKeepsOrder(t *testing.T) {
	buffer := NewLogBuffer(8)
	buffer.Add(stageEntry("session created", "coordinate_analysis"))
	buffer.Add(stageEntry("session completed", "synthesis"))

	if got := buffer.Len(); got != 2 {
		t.Fatalf("expected length 2, got %d", got)
	}
	entries := buffer.List()
	if entries[0].Message != "session created" || entries[1].Message != "session completed" {
		t.Fatalf("entries out of order: %q, %q", entries[0].Message, entries[1].Message)
	}
}

func TestLogBufferConcurrentAdds(t *testing.T) {
	buffer := NewLogBuffer(50)

	var wg sync.WaitGroup
	for worker := 0; worker < 10; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				buffer.Add(LogEntry{
					Timestamp: time.Now().UTC(),
					Level:     LevelDebug,
					Message:   fmt.Sprintf("worker %d entry %d", worker, i),
				})
			}
		}(worker)
	}
	wg.Wait()

	if got := buffer.Len(); got != 50 {
		t.Fatalf("expected buffer capped at 50 entries, got %d", got)
	}
}

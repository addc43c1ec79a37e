package event

import (
	"context"
	"testing"
)

func BenchmarkBusPublish(b *testing.B) {
	bus := NewBus[StageEvent](context.Background(), BusOptions{Name: "bench"})
	defer bus.Close()

	ch, cancel := bus.Subscribe()
	defer cancel()
	go func() {
		for range ch {
		}
	}()

	e := NewStageEvent("s-1", "simulation_execution", StageStarted)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bus.Publish(e)
	}
}

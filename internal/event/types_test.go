package event

import (
	"testing"
	"time"
)

func TestNewSessionEvent(t *testing.T) {
	before := time.Now().UTC()
	e := NewSessionEvent("s-1", "active", SessionCreated)

	if e.Type() != SessionCreated {
		t.Fatalf("expected type %q, got %q", SessionCreated, e.Type())
	}
	if e.SessionID != "s-1" || e.Status != "active" {
		t.Fatalf("unexpected fields: %+v", e)
	}
	if e.Timestamp().Before(before) {
		t.Fatal("timestamp must not predate construction")
	}
}

func TestNewStageEvent(t *testing.T) {
	e := NewStageEvent("s-1", "simulation_execution", StageStarted)
	if e.Type() != StageStarted {
		t.Fatalf("expected type %q, got %q", StageStarted, e.Type())
	}
	if e.Stage != "simulation_execution" {
		t.Fatalf("unexpected stage %q", e.Stage)
	}
	if e.Elapsed != 0 || e.Err != "" {
		t.Fatalf("new stage event must start empty: %+v", e)
	}
}

func TestNewConfigEventDerivesType(t *testing.T) {
	e := NewConfigEvent("/etc/axisim.yaml", "reloaded", "")
	if e.Type() != "config_reloaded" {
		t.Fatalf("expected config_reloaded, got %q", e.Type())
	}
	if e.Path != "/etc/axisim.yaml" {
		t.Fatalf("unexpected path %q", e.Path)
	}
}

func TestNewLogEvent(t *testing.T) {
	e := NewLogEvent("error", "boom", map[string]string{"stage": "synthesis"})
	if e.Type() != "log_entry" {
		t.Fatalf("expected log_entry, got %q", e.Type())
	}
	if e.Level != "error" || e.Message != "boom" {
		t.Fatalf("unexpected fields: %+v", e)
	}
}

package event

import "time"

// Event represents a typed event with an occurrence timestamp.
type Event interface {
	Type() string
	Timestamp() time.Time
}

// Session event types.
const (
	SessionCreated   = "session_created"
	SessionCompleted = "session_completed"
	SessionFailed    = "session_failed"
	SessionReaped    = "session_reaped"
)

// SessionEvent captures session lifecycle changes.
type SessionEvent struct {
	EventType  string
	SessionID  string
	Status     string
	Detail     map[string]any
	OccurredAt time.Time
}

func NewSessionEvent(sessionID, status, eventType string) SessionEvent {
	return SessionEvent{
		EventType:  eventType,
		SessionID:  sessionID,
		Status:     status,
		OccurredAt: time.Now().UTC(),
	}
}

func (e SessionEvent) Type() string {
	return e.EventType
}

func (e SessionEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Stage event types.
const (
	StageStarted   = "stage_started"
	StageCompleted = "stage_completed"
	StageFailed    = "stage_failed"
)

// StageEvent captures workflow stage transitions within a session.
type StageEvent struct {
	EventType  string
	SessionID  string
	Stage      string
	Elapsed    time.Duration
	Err        string
	OccurredAt time.Time
}

func NewStageEvent(sessionID, stage, eventType string) StageEvent {
	return StageEvent{
		EventType:  eventType,
		SessionID:  sessionID,
		Stage:      stage,
		OccurredAt: time.Now().UTC(),
	}
}

func (e StageEvent) Type() string {
	return e.EventType
}

func (e StageEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// ConfigEvent captures config changes.
type ConfigEvent struct {
	EventType  string
	Path       string
	ChangeType string
	Message    string
	OccurredAt time.Time
}

func NewConfigEvent(path, changeType, message string) ConfigEvent {
	return ConfigEvent{
		EventType:  "config_" + changeType,
		Path:       path,
		ChangeType: changeType,
		Message:    message,
		OccurredAt: time.Now().UTC(),
	}
}

func (e ConfigEvent) Type() string {
	return e.EventType
}

func (e ConfigEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// LogEvent wraps log data for streaming.
type LogEvent struct {
	EventType  string
	Level      string
	Message    string
	Context    map[string]string
	OccurredAt time.Time
}

func NewLogEvent(level, message string, context map[string]string) LogEvent {
	return LogEvent{
		EventType:  "log_entry",
		Level:      level,
		Message:    message,
		Context:    context,
		OccurredAt: time.Now().UTC(),
	}
}

func (e LogEvent) Type() string {
	return e.EventType
}

func (e LogEvent) Timestamp() time.Time {
	return e.OccurredAt
}

package logging

import (
	"strings"
	"time"
)

// Level orders log severities. The zero value is not a valid level; callers
// that accept user input go through ParseLevel.
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

var levelRanks = map[Level]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// LogEntry is the unit stored in the ring buffer and streamed to log
// subscribers. Context carries structured fields such as session_id and
// stage.
type LogEntry struct {
	Timestamp time.Time         `json:"timestamp"`
	Level     Level             `json:"level"`
	Message   string            `json:"message"`
	Context   map[string]string `json:"context,omitempty"`
}

// ParseLevel maps user-supplied level names (config, query parameters) onto a
// Level. "warn" is accepted as an alias for warning.
func ParseLevel(value string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warning", "warn":
		return LevelWarning, true
	case "error":
		return LevelError, true
	default:
		return "", false
	}
}

// LevelAtLeast reports whether level meets the minimum. An empty minimum
// accepts every level.
func LevelAtLeast(level, minLevel Level) bool {
	if minLevel == "" {
		return true
	}
	return levelRank(level) >= levelRank(minLevel)
}

func normalizeLevel(level Level) Level {
	if _, ok := levelRanks[level]; ok {
		return level
	}
	return LevelInfo
}

func levelRank(level Level) int {
	if rank, ok := levelRanks[level]; ok {
		return rank
	}
	return levelRanks[LevelInfo]
}

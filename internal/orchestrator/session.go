package orchestrator

import (
	"context"
	"sync"
	"time"

	"axisim/internal/axis"
)

// Session tracks one coordinate's analysis pipeline from creation to
// completion or expiry. All mutable state is guarded by mu; execMu serializes
// whole workflow runs so stages within a session are strictly sequential
// while status queries stay readable mid-run.
type Session struct {
	execMu sync.Mutex
	mu     sync.Mutex

	id           string
	status       Status
	currentStage Stage
	createdAt    time.Time
	lastActivity time.Time
	completedAt  time.Time

	coordinate axis.Coordinate
	request    Request
	plan       []Stage

	complexityFactors map[string]float64
	complexityScore   float64

	artifacts      map[string]Artifact
	stageDurations map[Stage]time.Duration
	confidence     map[string]float64
	results        []Result
	errs           []string
	warnings       []string

	// cancel aborts in-flight stage work when the session is reaped.
	cancel context.CancelFunc
}

func newSession(id string, coordinate axis.Coordinate, now time.Time) *Session {
	return &Session{
		id:             id,
		status:         StatusInitializing,
		currentStage:   StageInitialization,
		createdAt:      now,
		lastActivity:   now,
		coordinate:     coordinate.Clone(),
		artifacts:      make(map[string]Artifact),
		stageDurations: make(map[Stage]time.Duration),
		confidence:     make(map[string]float64),
	}
}

func (s *Session) ID() string {
	return s.id
}

// Age reports how long the session has existed.
func (s *Session) Age(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.createdAt)
}

// ExpiredSince reports whether the session has been inactive longer than ttl.
func (s *Session) ExpiredSince(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastActivity) > ttl
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastActivity = now
	s.mu.Unlock()
}

func (s *Session) currentStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) setStatus(status Status) {
	s.mu.Lock()
	s.status = status
	if status.Terminal() {
		s.completedAt = time.Now().UTC()
	}
	s.mu.Unlock()
}

func (s *Session) setCurrentStage(stage Stage) {
	s.mu.Lock()
	s.currentStage = stage
	s.lastActivity = time.Now().UTC()
	s.mu.Unlock()
}

func (s *Session) setCancel(cancel context.CancelFunc) {
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
}

func (s *Session) takeCancel() context.CancelFunc {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	return cancel
}

func (s *Session) planSnapshot() []Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan := make([]Stage, len(s.plan))
	copy(plan, s.plan)
	return plan
}

func (s *Session) storeArtifact(key string, artifact Artifact) {
	if artifact == nil {
		return
	}
	s.mu.Lock()
	s.artifacts[key] = artifact
	s.mu.Unlock()
}

func (s *Session) artifact(key string) (Artifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	artifact, ok := s.artifacts[key]
	return artifact, ok
}

func (s *Session) recordDuration(stage Stage, elapsed time.Duration) {
	s.mu.Lock()
	s.stageDurations[stage] = elapsed
	s.mu.Unlock()
}

func (s *Session) setConfidence(name string, value float64) {
	s.mu.Lock()
	s.confidence[name] = value
	s.mu.Unlock()
}

func (s *Session) appendError(message string) {
	s.mu.Lock()
	s.errs = append(s.errs, message)
	s.mu.Unlock()
}

func (s *Session) appendResult(result Result) {
	s.mu.Lock()
	s.results = append(s.results, result)
	s.mu.Unlock()
}

// StatusView is the externally visible snapshot of a session.
type StatusView struct {
	SessionID        string             `json:"session_id"`
	Status           Status             `json:"status"`
	CurrentStage     Stage              `json:"current_stage"`
	Plan             []Stage            `json:"plan"`
	DurationSeconds  float64            `json:"duration_seconds"`
	Progress         float64            `json:"progress"`
	ComplexityScore  float64            `json:"complexity_score"`
	StageTimings     map[string]float64 `json:"stage_timings"`
	ConfidenceScores map[string]float64 `json:"confidence_scores"`
	ErrorCount       int                `json:"error_count"`
	WarningCount     int                `json:"warning_count"`
	ResultCount      int                `json:"result_count"`
	CreatedAt        time.Time          `json:"created_at"`
	LastActivity     time.Time          `json:"last_activity"`
}

// Summary is the compact listing form of a session.
type Summary struct {
	SessionID    string    `json:"session_id"`
	Status       Status    `json:"status"`
	CurrentStage Stage     `json:"current_stage"`
	Progress     float64   `json:"progress"`
	CreatedAt    time.Time `json:"created_at"`
}

func (s *Session) statusView(now time.Time) StatusView {
	s.mu.Lock()
	defer s.mu.Unlock()

	timings := make(map[string]float64, len(s.stageDurations))
	for stage, elapsed := range s.stageDurations {
		timings[string(stage)] = elapsed.Seconds()
	}
	confidence := make(map[string]float64, len(s.confidence))
	for name, value := range s.confidence {
		confidence[name] = value
	}
	plan := make([]Stage, len(s.plan))
	copy(plan, s.plan)

	return StatusView{
		SessionID:        s.id,
		Status:           s.status,
		CurrentStage:     s.currentStage,
		Plan:             plan,
		DurationSeconds:  now.Sub(s.createdAt).Seconds(),
		Progress:         progressLocked(s.plan, s.currentStage),
		ComplexityScore:  s.complexityScore,
		StageTimings:     timings,
		ConfidenceScores: confidence,
		ErrorCount:       len(s.errs),
		WarningCount:     len(s.warnings),
		ResultCount:      len(s.results),
		CreatedAt:        s.createdAt,
		LastActivity:     s.lastActivity,
	}
}

func (s *Session) summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summary{
		SessionID:    s.id,
		Status:       s.status,
		CurrentStage: s.currentStage,
		Progress:     progressLocked(s.plan, s.currentStage),
		CreatedAt:    s.createdAt,
	}
}

// progressLocked is (index of current stage + 1) / plan length, or 0 when the
// stage is not part of the plan (including before planning).
func progressLocked(plan []Stage, current Stage) float64 {
	if len(plan) == 0 {
		return 0
	}
	for i, stage := range plan {
		if stage == current {
			return float64(i+1) / float64(len(plan))
		}
	}
	return 0
}

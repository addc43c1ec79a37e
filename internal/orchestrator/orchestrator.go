package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"axisim/internal/event"
	"axisim/internal/logging"
	"axisim/internal/metrics"
)

// Options configures an Orchestrator. Zero-value fields fall back to no-op
// collaborators, the default metrics registry, and default tunables.
type Options struct {
	Engines    Engines
	Logger     *logging.Logger
	Metrics    *metrics.Registry
	SessionBus *event.Bus[event.SessionEvent]
	StageBus   *event.Bus[event.StageEvent]
	Tunables   Tunables
}

// Orchestrator owns the session registry and drives workflow execution. All
// state is in memory; sessions do not survive a restart.
type Orchestrator struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	engines    Engines
	logger     *logging.Logger
	metrics    *metrics.Registry
	sessionBus *event.Bus[event.SessionEvent]
	stageBus   *event.Bus[event.StageEvent]
	tunable    atomic.Pointer[Tunables]

	totalCreated   atomic.Int64
	totalCompleted atomic.Int64
	totalFailed    atomic.Int64
	totalReaped    atomic.Int64
	completedNanos atomic.Int64
	completedRuns  atomic.Int64
}

func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		sessions:   make(map[string]*Session),
		engines:    opts.Engines,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		sessionBus: opts.SessionBus,
		stageBus:   opts.StageBus,
	}
	if o.metrics == nil {
		o.metrics = metrics.Default
	}
	tunables := opts.Tunables.Normalize()
	o.tunable.Store(&tunables)
	return o
}

func (o *Orchestrator) tunables() Tunables {
	return *o.tunable.Load()
}

// SetTunables swaps the policy constants at runtime. In-flight workflow runs
// keep the values they already read; new reads see the update.
func (o *Orchestrator) SetTunables(t Tunables) {
	normalized := t.Normalize()
	o.tunable.Store(&normalized)
}

func (o *Orchestrator) Tunables() Tunables {
	return o.tunables()
}

// CreateSession validates the coordinate, derives the complexity score, plans
// the workflow, and registers the session. The plan is fixed for the life of
// the session.
func (o *Orchestrator) CreateSession(ctx context.Context, request Request) (StatusView, error) {
	if err := request.Coordinate.Validate(); err != nil {
		return StatusView{}, fmt.Errorf("invalid coordinate: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return StatusView{}, err
	}

	now := time.Now().UTC()
	s := newSession(uuid.NewString(), request.Coordinate, now)
	s.request = request

	factors, score := AnalyzeComplexity(s.coordinate)
	plan, err := PlanWorkflow(score, request)
	if err != nil {
		return StatusView{}, err
	}
	s.complexityFactors = factors
	s.complexityScore = score
	s.plan = plan
	s.status = StatusActive

	o.mu.Lock()
	o.sessions[s.id] = s
	o.mu.Unlock()

	o.totalCreated.Add(1)
	o.metrics.IncSessionCreated()
	o.sessionBus.Publish(event.NewSessionEvent(s.id, string(StatusActive), event.SessionCreated))
	o.logger.Info("session created", map[string]string{
		"session_id":       s.id,
		"complexity_score": fmt.Sprintf("%.3f", score),
		"plan_length":      fmt.Sprintf("%d", len(plan)),
	})

	return s.statusView(now), nil
}

// ExecuteSimulation runs the session's planned stages in order. Runs on the
// same session are serialized; a second call waits for the first to finish.
// A reap during execution cancels the run cooperatively between stages.
func (o *Orchestrator) ExecuteSimulation(ctx context.Context, sessionID string) (Result, error) {
	s, ok := o.lookup(sessionID)
	if !ok {
		return Result{}, ErrSessionNotFound
	}

	s.execMu.Lock()
	defer s.execMu.Unlock()

	// The session may have been reaped while this run waited its turn.
	if _, ok := o.lookup(sessionID); !ok {
		return Result{}, ErrSessionNotFound
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.setCancel(cancel)
	defer func() {
		if c := s.takeCancel(); c != nil {
			c()
		}
	}()

	s.setStatus(StatusProcessing)
	started := time.Now()

	for _, stage := range s.planSnapshot() {
		if err := runCtx.Err(); err != nil {
			return Result{}, o.abortRun(s, err)
		}
		if err := o.runStage(runCtx, s, stage, s.request); err != nil {
			s.setStatus(StatusError)
			o.totalFailed.Add(1)
			o.metrics.IncSessionFailed()
			o.sessionBus.Publish(event.NewSessionEvent(sessionID, string(StatusError), event.SessionFailed))
			return Result{}, err
		}
	}
	if err := runCtx.Err(); err != nil {
		return Result{}, o.abortRun(s, err)
	}

	result := o.compileResult(s, s.request)
	result = o.optimizeResult(s, result)
	s.appendResult(result)
	s.setStatus(StatusCompleted)
	s.touch(time.Now().UTC())

	elapsed := time.Since(started)
	o.completedNanos.Add(elapsed.Nanoseconds())
	o.completedRuns.Add(1)
	o.totalCompleted.Add(1)
	o.metrics.IncSessionCompleted()
	o.sessionBus.Publish(event.NewSessionEvent(sessionID, string(StatusCompleted), event.SessionCompleted))
	o.logger.Info("simulation completed", map[string]string{
		"session_id": sessionID,
		"elapsed":    elapsed.String(),
		"confidence": fmt.Sprintf("%.3f", result.Confidence),
	})

	return result, nil
}

func (o *Orchestrator) abortRun(s *Session, cause error) error {
	s.setStatus(StatusError)
	s.appendError("execution cancelled: " + cause.Error())
	o.totalFailed.Add(1)
	o.metrics.IncSessionFailed()
	o.sessionBus.Publish(event.NewSessionEvent(s.id, string(StatusError), event.SessionFailed))
	return cause
}

// SessionStatus returns a point-in-time snapshot, including mid-run: status
// reads never wait on an executing workflow.
func (o *Orchestrator) SessionStatus(sessionID string) (StatusView, error) {
	s, ok := o.lookup(sessionID)
	if !ok {
		return StatusView{}, ErrSessionNotFound
	}
	return s.statusView(time.Now().UTC()), nil
}

// Sessions lists all registered sessions ordered by creation time.
func (o *Orchestrator) Sessions() []Summary {
	o.mu.RLock()
	summaries := make([]Summary, 0, len(o.sessions))
	for _, s := range o.sessions {
		summaries = append(summaries, s.summary())
	}
	o.mu.RUnlock()

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].SessionID < summaries[j].SessionID
		}
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})
	return summaries
}

// SessionCount reports every tracked session, terminal or not.
func (o *Orchestrator) SessionCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.sessions)
}

// ActiveSessionCount reports tracked sessions not yet in a terminal state.
func (o *Orchestrator) ActiveSessionCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	active := 0
	for _, s := range o.sessions {
		if !s.currentStatus().Terminal() {
			active++
		}
	}
	return active
}

// SystemMetrics summarizes registry-wide counters. WorkflowEfficiency scales
// the average completed run duration against the configured baseline: 1.0
// when runs are instant, 0.0 at or beyond the baseline. An empty registry
// scores 1.0; tracked sessions with no completed run yet score 0.0.
type SystemMetrics struct {
	ActiveSessions          int     `json:"active_sessions"`
	TrackedSessions         int     `json:"tracked_sessions"`
	TotalSessionsCreated    int64   `json:"total_sessions_created"`
	TotalSessionsCompleted  int64   `json:"total_sessions_completed"`
	TotalSessionsFailed     int64   `json:"total_sessions_failed"`
	TotalSessionsReaped     int64   `json:"total_sessions_reaped"`
	AverageCompletedSeconds float64 `json:"average_completed_duration_seconds"`
	WorkflowEfficiency      float64 `json:"workflow_efficiency"`
}

func (o *Orchestrator) SystemMetrics() SystemMetrics {
	tracked := o.SessionCount()
	m := SystemMetrics{
		ActiveSessions:         o.ActiveSessionCount(),
		TrackedSessions:        tracked,
		TotalSessionsCreated:   o.totalCreated.Load(),
		TotalSessionsCompleted: o.totalCompleted.Load(),
		TotalSessionsFailed:    o.totalFailed.Load(),
		TotalSessionsReaped:    o.totalReaped.Load(),
		WorkflowEfficiency:     1.0,
	}

	runs := o.completedRuns.Load()
	if runs == 0 {
		if tracked > 0 {
			m.WorkflowEfficiency = 0.0
		}
		return m
	}
	average := time.Duration(o.completedNanos.Load() / runs)
	m.AverageCompletedSeconds = average.Seconds()

	baseline := o.tunables().EfficiencyBaseline
	efficiency := 1.0 - average.Seconds()/baseline.Seconds()
	if efficiency < 0 {
		efficiency = 0
	}
	if efficiency > 1 {
		efficiency = 1
	}
	m.WorkflowEfficiency = efficiency
	return m
}

// CleanupExpiredSessions removes sessions inactive longer than the TTL and
// cancels any in-flight run they own. It returns the number reaped. Queries
// for a reaped id fail with ErrSessionNotFound from that point on.
func (o *Orchestrator) CleanupExpiredSessions(now time.Time) int {
	ttl := o.tunables().SessionTTL

	var expired []*Session
	o.mu.Lock()
	for id, s := range o.sessions {
		if s.ExpiredSince(now, ttl) {
			delete(o.sessions, id)
			expired = append(expired, s)
		}
	}
	o.mu.Unlock()

	for _, s := range expired {
		if cancel := s.takeCancel(); cancel != nil {
			cancel()
		}
		o.sessionBus.Publish(event.NewSessionEvent(s.id, string(StatusSuspended), event.SessionReaped))
		o.logger.Info("session reaped", map[string]string{"session_id": s.id})
	}

	if n := len(expired); n > 0 {
		o.totalReaped.Add(int64(n))
		o.metrics.AddSessionsReaped(n)
	}
	return len(expired)
}

// RunReaper periodically reaps expired sessions until ctx is cancelled. The
// interval is re-read every cycle so config reloads take effect without a
// restart.
func (o *Orchestrator) RunReaper(ctx context.Context) {
	timer := time.NewTimer(o.tunables().ReapInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			reaped := o.CleanupExpiredSessions(time.Now().UTC())
			if reaped > 0 {
				o.logger.Info("reaper pass", map[string]string{
					"reaped": fmt.Sprintf("%d", reaped),
				})
			}
			timer.Reset(o.tunables().ReapInterval)
		}
	}
}

func (o *Orchestrator) lookup(sessionID string) (*Session, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	s, ok := o.sessions[sessionID]
	return s, ok
}

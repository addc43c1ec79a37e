package orchestrator

import "time"

// Tunables are the policy constants of the orchestrator. The confidence and
// efficiency values are heuristics inherited from the platform's operators;
// they are configuration precisely because nobody has a principled derivation
// for them.
type Tunables struct {
	// SessionTTL is the inactivity window after which a session is reaped.
	SessionTTL time.Duration
	// ReapInterval is how often the background reaper scans the registry.
	ReapInterval time.Duration
	// StageTimeout bounds each collaborator call.
	StageTimeout time.Duration
	// ConfidenceFloor is the threshold below which the optimization pass
	// boosts result confidence.
	ConfidenceFloor float64
	// ConfidenceBoost is the increment applied by the optimization pass,
	// capped so confidence never exceeds 1.0.
	ConfidenceBoost float64
	// DefaultConfidence is used when no stage produced an overall score.
	DefaultConfidence float64
	// EfficiencyBaseline is the completed-session duration treated as zero
	// efficiency in the workflow-efficiency metric.
	EfficiencyBaseline time.Duration
}

func DefaultTunables() Tunables {
	return Tunables{
		SessionTTL:         24 * time.Hour,
		ReapInterval:       time.Hour,
		StageTimeout:       30 * time.Second,
		ConfidenceFloor:    0.8,
		ConfidenceBoost:    0.1,
		DefaultConfidence:  0.75,
		EfficiencyBaseline: 300 * time.Second,
	}
}

// Normalize fills zero values from the defaults so partially specified
// configuration stays usable.
func (t Tunables) Normalize() Tunables {
	defaults := DefaultTunables()
	if t.SessionTTL <= 0 {
		t.SessionTTL = defaults.SessionTTL
	}
	if t.ReapInterval <= 0 {
		t.ReapInterval = defaults.ReapInterval
	}
	if t.StageTimeout <= 0 {
		t.StageTimeout = defaults.StageTimeout
	}
	if t.ConfidenceFloor <= 0 || t.ConfidenceFloor > 1 {
		t.ConfidenceFloor = defaults.ConfidenceFloor
	}
	if t.ConfidenceBoost <= 0 {
		t.ConfidenceBoost = defaults.ConfidenceBoost
	}
	if t.DefaultConfidence <= 0 || t.DefaultConfidence > 1 {
		t.DefaultConfidence = defaults.DefaultConfidence
	}
	if t.EfficiencyBaseline <= 0 {
		t.EfficiencyBaseline = defaults.EfficiencyBaseline
	}
	return t
}

package orchestrator

// Stage identifies one unit of work in a session's workflow plan. The set is
// closed: the planner only emits stages listed here and the executor
// dispatches with an exhaustive switch.
type Stage string

const (
	StageInitialization       Stage = "initialization"
	StageCoordinateAnalysis   Stage = "coordinate_analysis"
	StagePersonaCalibration   Stage = "persona_calibration"
	StageSimulationExecution  Stage = "simulation_execution"
	StageRegulatoryValidation Stage = "regulatory_validation"
	StageSynthesis            Stage = "synthesis"
	StageOptimization         Stage = "optimization"
	StageCompletion           Stage = "completion"
)

// Status describes the lifecycle state of a session.
type Status string

const (
	StatusInitializing Status = "initializing"
	StatusActive       Status = "active"
	StatusProcessing   Status = "processing"
	StatusSuspended    Status = "suspended"
	StatusCompleted    Status = "completed"
	StatusError        Status = "error"
)

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

package orchestrator

import (
	"context"

	"axisim/internal/axis"
)

// Artifact is the loosely structured payload a collaborator produces for one
// stage. Artifacts are stored on the session keyed by stage output name.
type Artifact map[string]any

// Request carries everything a caller supplies for one simulation run.
type Request struct {
	Coordinate            axis.Coordinate `json:"coordinate"`
	TargetPersonas        []string        `json:"target_personas,omitempty"`
	RegulatoryConstraints map[string]any  `json:"regulatory_constraints,omitempty"`
	AnalysisDepth         string          `json:"analysis_depth,omitempty"`
	OptimizationGoals     []string        `json:"optimization_goals,omitempty"`
}

// The four collaborator interfaces. Each is independently optional: a nil
// collaborator degrades its stage to a no-op rather than failing the
// workflow.

type CoordinateAnalyzer interface {
	AnalyzeCoordinate(ctx context.Context, coordinate axis.Coordinate) (Artifact, error)
}

type PersonaCalibrator interface {
	CalibratePersonas(ctx context.Context, coordinate axis.Coordinate, targetPersonas []string) (Artifact, error)
}

type SimulationRunner interface {
	RunSimulation(ctx context.Context, request Request) (Artifact, error)
}

type ComplianceValidator interface {
	ValidateCompliance(ctx context.Context, coordinate axis.Coordinate, constraints map[string]any) (Artifact, error)
}

// Engines bundles the collaborators injected at construction time. There is
// no ambient engine state: everything the orchestrator calls into arrives
// through this struct.
type Engines struct {
	Analyzer   CoordinateAnalyzer
	Personas   PersonaCalibrator
	Simulator  SimulationRunner
	Compliance ComplianceValidator
}

package orchestrator

import (
	"reflect"
	"testing"
)

func TestPlanWorkflowShapes(t *testing.T) {
	constraints := map[string]any{"framework": "HIPAA"}

	cases := []struct {
		name        string
		score       float64
		constraints map[string]any
		want        []Stage
	}{
		{
			name:  "baseline",
			score: 0.3,
			want:  []Stage{StageCoordinateAnalysis, StageSimulationExecution},
		},
		{
			name:        "baseline with regulatory constraints",
			score:       0.3,
			constraints: constraints,
			want:        []Stage{StageCoordinateAnalysis, StageRegulatoryValidation, StageSimulationExecution},
		},
		{
			name:  "above calibration threshold",
			score: 0.75,
			want:  []Stage{StageCoordinateAnalysis, StagePersonaCalibration, StageSimulationExecution, StageOptimization},
		},
		{
			name:        "calibration plus regulatory",
			score:       0.75,
			constraints: constraints,
			want: []Stage{
				StageCoordinateAnalysis, StagePersonaCalibration, StageSimulationExecution,
				StageRegulatoryValidation, StageOptimization,
			},
		},
		{
			name:  "above synthesis threshold",
			score: 0.9,
			want: []Stage{
				StageCoordinateAnalysis, StagePersonaCalibration, StageSimulationExecution,
				StageOptimization, StageSynthesis,
			},
		},
		{
			name:        "full plan",
			score:       0.9,
			constraints: constraints,
			want: []Stage{
				StageCoordinateAnalysis, StagePersonaCalibration, StageSimulationExecution,
				StageRegulatoryValidation, StageOptimization, StageSynthesis,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := PlanWorkflow(tc.score, Request{RegulatoryConstraints: tc.constraints})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(plan, tc.want) {
				t.Fatalf("expected plan %v, got %v", tc.want, plan)
			}
		})
	}
}

func TestPlanWorkflowThresholdsAreExclusive(t *testing.T) {
	plan, err := PlanWorkflow(0.7, Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, stage := range plan {
		if stage == StagePersonaCalibration {
			t.Fatal("score exactly at the calibration threshold must not add calibration")
		}
	}

	plan, err = PlanWorkflow(0.8, Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, stage := range plan {
		if stage == StageSynthesis {
			t.Fatal("score exactly at the synthesis threshold must not add synthesis")
		}
	}
}

func TestPlanWorkflowRegulatoryRunsBeforeLastStage(t *testing.T) {
	plan, err := PlanWorkflow(0.9, Request{RegulatoryConstraints: map[string]any{"framework": "SOX"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	regulatoryIndex := -1
	for i, stage := range plan {
		if stage == StageRegulatoryValidation {
			regulatoryIndex = i
		}
	}
	if regulatoryIndex == -1 {
		t.Fatal("expected regulatory validation in plan")
	}
	if regulatoryIndex >= len(plan)-1 {
		t.Fatalf("regulatory validation must not be the final stage, plan %v", plan)
	}
}

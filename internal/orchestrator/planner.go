package orchestrator

// Score thresholds for conditional stages. The rules below are order
// sensitive: each inserts relative to the list as already modified by the
// previous rule, so reordering them changes the emitted plan.
const (
	calibrationThreshold = 0.7
	synthesisThreshold   = 0.8
)

// PlanWorkflow converts a complexity score and the request options into the
// ordered stage list for a session. The plan is computed once at session
// creation and never recomputed mid-run. CoordinateAnalysis and
// SimulationExecution are always present.
func PlanWorkflow(score float64, request Request) ([]Stage, error) {
	plan := []Stage{StageCoordinateAnalysis, StageSimulationExecution}

	if score > calibrationThreshold {
		plan = insertAt(plan, 1, StagePersonaCalibration)
		plan = append(plan, StageOptimization)
	}

	if len(request.RegulatoryConstraints) > 0 {
		plan = insertAt(plan, len(plan)-1, StageRegulatoryValidation)
	}

	if score > synthesisThreshold {
		plan = append(plan, StageSynthesis)
	}

	if err := validatePlan(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func insertAt(plan []Stage, index int, stage Stage) []Stage {
	plan = append(plan, "")
	copy(plan[index+1:], plan[index:])
	plan[index] = stage
	return plan
}

func validatePlan(plan []Stage) error {
	if len(plan) == 0 {
		return ErrEmptyPlan
	}
	required := []Stage{StageCoordinateAnalysis, StageSimulationExecution}
	for _, want := range required {
		found := false
		for _, stage := range plan {
			if stage == want {
				found = true
				break
			}
		}
		if !found {
			return ErrEmptyPlan
		}
	}
	return nil
}

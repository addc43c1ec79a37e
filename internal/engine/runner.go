package engine

import (
	"context"
	"time"

	"axisim/internal/axis"
	"axisim/internal/orchestrator"
)

// Reasoning strategies. The runner picks one per request based on how many
// axes the coordinate fills.
const (
	StrategyLogical       = "logical"
	StrategyProbabilistic = "probabilistic"
	StrategyHeuristic     = "heuristic"
	StrategyNeural        = "neural"
	StrategyHybrid        = "hybrid"
)

var strategyConfidence = map[string]float64{
	StrategyLogical:       0.85,
	StrategyProbabilistic: 0.78,
	StrategyHeuristic:     0.72,
	StrategyNeural:        0.80,
}

var strategySteps = map[string][]string{
	StrategyLogical:       {"premise_analysis", "logical_deduction", "conclusion"},
	StrategyProbabilistic: {"prior_estimation", "evidence_weighting", "posterior_selection"},
	StrategyHeuristic:     {"domain_expertise", "pattern_matching", "best_practices"},
	StrategyNeural:        {"feature_extraction", "pattern_recognition", "prediction"},
}

// Runner is the built-in simulation collaborator. Like Analyzer it is fully
// deterministic; the confidence it reports depends only on the selected
// strategy.
type Runner struct{}

var _ orchestrator.SimulationRunner = (*Runner)(nil)

func (r *Runner) RunSimulation(ctx context.Context, request orchestrator.Request) (orchestrator.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	strategy := SelectStrategy(request.Coordinate)
	confidence, steps := applyStrategy(strategy)

	artifact := orchestrator.Artifact{
		"strategy_used":   strategy,
		"confidence":      confidence,
		"reasoning_steps": steps,
		"result":          "simulation completed",
		"performance_metrics": map[string]float64{
			"efficiency_score":   0.85,
			"accuracy_score":     confidence,
			"completeness_score": 0.90,
		},
		"validation": map[string]float64{
			"consistency_score": 0.88,
			"reliability_score": 0.82,
			"robustness_score":  0.79,
		},
		"recommendations":         simulationRecommendations(strategy, confidence),
		"processing_time_seconds": time.Since(start).Seconds(),
		"timestamp":               time.Now().UTC().Format(time.RFC3339),
	}
	return artifact, nil
}

// SelectStrategy maps coordinate density to a reasoning strategy. Denser
// coordinates get the heavier strategies.
func SelectStrategy(coordinate axis.Coordinate) string {
	density := float64(coordinate.FilledAxes()) / float64(len(axis.AxisKeys))
	switch {
	case density > 0.8:
		return StrategyHybrid
	case density > 0.6:
		return StrategyNeural
	case density > 0.4:
		return StrategyProbabilistic
	default:
		return StrategyLogical
	}
}

func applyStrategy(strategy string) (float64, []string) {
	if strategy == StrategyHybrid {
		// Hybrid averages its component strategies.
		confidence := (strategyConfidence[StrategyLogical] + strategyConfidence[StrategyProbabilistic]) / 2
		steps := append([]string{}, strategySteps[StrategyLogical]...)
		steps = append(steps, strategySteps[StrategyProbabilistic]...)
		return confidence, steps
	}
	return strategyConfidence[strategy], strategySteps[strategy]
}

func simulationRecommendations(strategy string, confidence float64) []string {
	var out []string
	if confidence < 0.8 {
		out = append(out, "Consider additional validation steps to improve confidence")
	}
	if strategy == StrategyLogical {
		out = append(out, "Consider probabilistic analysis for enhanced insights")
	}
	return out
}

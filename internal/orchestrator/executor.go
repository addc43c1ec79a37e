package orchestrator

import (
	"context"
	"time"

	"axisim/internal/event"
)

// runStage executes one stage of the session's plan. Every stage is timed and
// recorded, including the structural ones that call no collaborator, so stage
// timings always cover the whole plan.
func (o *Orchestrator) runStage(ctx context.Context, s *Session, stage Stage, request Request) error {
	s.setCurrentStage(stage)
	o.stageBus.Publish(event.NewStageEvent(s.id, string(stage), event.StageStarted))

	start := time.Now()
	err := o.dispatch(ctx, s, stage, request)
	elapsed := time.Since(start)

	s.recordDuration(stage, elapsed)
	o.metrics.RecordStage(string(stage), elapsed, err)

	completed := event.NewStageEvent(s.id, string(stage), event.StageCompleted)
	completed.Elapsed = elapsed
	if err != nil {
		completed.EventType = event.StageFailed
		completed.Err = err.Error()
	}
	o.stageBus.Publish(completed)

	if err != nil {
		wrapped := &CollaboratorError{Stage: stage, Err: err}
		s.appendError(wrapped.Error())
		o.logger.Error("stage failed", map[string]string{
			"session_id": s.id,
			"stage":      string(stage),
			"error":      err.Error(),
		})
		return wrapped
	}

	o.logger.Debug("stage completed", map[string]string{
		"session_id": s.id,
		"stage":      string(stage),
		"elapsed":    elapsed.String(),
	})
	return nil
}

// dispatch routes a stage to its collaborator. A nil collaborator makes the
// stage a no-op, never an error.
func (o *Orchestrator) dispatch(ctx context.Context, s *Session, stage Stage, request Request) error {
	switch stage {
	case StageCoordinateAnalysis:
		if o.engines.Analyzer == nil {
			return nil
		}
		callCtx, cancel := o.stageContext(ctx)
		defer cancel()
		artifact, err := o.engines.Analyzer.AnalyzeCoordinate(callCtx, s.coordinate)
		if err != nil {
			return err
		}
		s.storeArtifact(artifactDetailedAnalysis, artifact)
		if score, ok := floatField(artifact, "confidence_score"); ok {
			s.setConfidence(string(StageCoordinateAnalysis), score)
		}
		return nil

	case StagePersonaCalibration:
		if o.engines.Personas == nil {
			return nil
		}
		callCtx, cancel := o.stageContext(ctx)
		defer cancel()
		artifact, err := o.engines.Personas.CalibratePersonas(callCtx, s.coordinate, request.TargetPersonas)
		if err != nil {
			return err
		}
		s.storeArtifact(artifactPersonaCalibrations, artifact)
		return nil

	case StageSimulationExecution:
		if o.engines.Simulator == nil {
			return nil
		}
		callCtx, cancel := o.stageContext(ctx)
		defer cancel()
		artifact, err := o.engines.Simulator.RunSimulation(callCtx, request)
		if err != nil {
			return err
		}
		s.storeArtifact(artifactSimulationData, artifact)
		if confidence, ok := floatField(artifact, "confidence"); ok {
			s.setConfidence(confidenceOverall, confidence)
		}
		return nil

	case StageRegulatoryValidation:
		if o.engines.Compliance == nil {
			return nil
		}
		callCtx, cancel := o.stageContext(ctx)
		defer cancel()
		artifact, err := o.engines.Compliance.ValidateCompliance(callCtx, s.coordinate, request.RegulatoryConstraints)
		if err != nil {
			return err
		}
		s.storeArtifact(artifactRegulatoryValidation, artifact)
		return nil

	default:
		// Structural stages: initialization, synthesis, optimization,
		// completion. Synthesis folds existing artifacts together.
		if stage == StageSynthesis {
			o.synthesize(s)
		}
		return nil
	}
}

func (o *Orchestrator) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := o.tunables().StageTimeout
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// synthesize condenses the accumulated artifacts into a single overview
// artifact so high-complexity sessions end with a cross-stage summary.
func (o *Orchestrator) synthesize(s *Session) {
	s.mu.Lock()
	keys := make([]string, 0, len(s.artifacts))
	for key := range s.artifacts {
		keys = append(keys, key)
	}
	score := s.complexityScore
	s.mu.Unlock()

	s.storeArtifact("synthesis", Artifact{
		"artifact_keys":    keys,
		"complexity_score": score,
		"synthesized_at":   time.Now().UTC(),
	})
}

// floatField reads a numeric artifact field, tolerating the types JSON
// decoding typically produces.
func floatField(artifact Artifact, key string) (float64, bool) {
	value, ok := artifact[key]
	if !ok {
		return 0, false
	}
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

package engine

import (
	"context"
	"math"
	"testing"

	"axisim/internal/axis"
	"axisim/internal/orchestrator"
)

func regulatedCoordinate() axis.Coordinate {
	return axis.Coordinate{
		Pillar:              "adaptive",
		Sector:              "healthcare",
		ComplianceLevel:     "strict",
		RegulatoryFramework: "HIPAA",
	}
}

func analyze(t *testing.T, analyzer *Analyzer, coordinate axis.Coordinate) orchestrator.Artifact {
	t.Helper()
	artifact, err := analyzer.AnalyzeCoordinate(context.Background(), coordinate)
	if err != nil {
		t.Fatalf("analyze coordinate: %v", err)
	}
	return artifact
}

func TestAnalyzeCoordinateDeterministicConfidence(t *testing.T) {
	analyzer := &Analyzer{}
	coordinate := regulatedCoordinate()

	first := analyze(t, analyzer, coordinate)
	second := analyze(t, analyzer, coordinate)

	if first["confidence_score"] != second["confidence_score"] {
		t.Fatalf("confidence not deterministic: %v vs %v", first["confidence_score"], second["confidence_score"])
	}
	if first["coordinate_hash"] != coordinate.CoordinateHash() {
		t.Fatal("artifact must carry the coordinate hash")
	}
}

func TestAnalyzeCoordinateRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := (&Analyzer{}).AnalyzeCoordinate(ctx, regulatedCoordinate()); err == nil {
		t.Fatal("expected context error")
	}
}

func TestDepthScalesAxisConfidence(t *testing.T) {
	coordinate := regulatedCoordinate()

	surface := analyze(t, &Analyzer{Depth: DepthSurface}, coordinate)
	comprehensive := analyze(t, &Analyzer{Depth: DepthComprehensive}, coordinate)

	surfaceInsights := surface["axis_insights"].([]AxisInsight)
	comprehensiveInsights := comprehensive["axis_insights"].([]AxisInsight)

	wantSurface := baseAxisConfidence * depthConfidenceModifier[DepthSurface]
	wantComprehensive := baseAxisConfidence * depthConfidenceModifier[DepthComprehensive]
	if math.Abs(surfaceInsights[0].ConfidenceLevel-wantSurface) > 1e-9 {
		t.Fatalf("surface confidence: expected %.4f, got %.4f", wantSurface, surfaceInsights[0].ConfidenceLevel)
	}
	if math.Abs(comprehensiveInsights[0].ConfidenceLevel-wantComprehensive) > 1e-9 {
		t.Fatalf("comprehensive confidence: expected %.4f, got %.4f", wantComprehensive, comprehensiveInsights[0].ConfidenceLevel)
	}
}

func TestUnknownDepthFallsBackToDeep(t *testing.T) {
	artifact := analyze(t, &Analyzer{Depth: "extreme"}, regulatedCoordinate())
	if artifact["analysis_depth"] != DepthDeep {
		t.Fatalf("expected fallback depth %q, got %v", DepthDeep, artifact["analysis_depth"])
	}
}

func TestAnalyzeCorrelationsKeepsStrongPairsOnly(t *testing.T) {
	artifact := analyze(t, &Analyzer{}, regulatedCoordinate())

	correlations := artifact["cross_correlations"].([]Correlation)
	if len(correlations) != 1 {
		t.Fatalf("expected a single significant correlation, got %d: %v", len(correlations), correlations)
	}
	got := correlations[0]
	if got.PrimaryAxis != "regulatory_framework" || got.SecondaryAxis != "compliance_level" {
		t.Fatalf("unexpected correlation pair: %+v", got)
	}
	if math.Abs(got.Strength-0.5) > 1e-9 {
		t.Fatalf("expected strength 0.5, got %.4f", got.Strength)
	}
}

func TestDefaultAxisValueFlagsRisk(t *testing.T) {
	coordinate := axis.Coordinate{Pillar: "adaptive", Sector: "healthcare", Location: "default"}
	artifact := analyze(t, &Analyzer{}, coordinate)

	insights := artifact["axis_insights"].([]AxisInsight)
	var location *AxisInsight
	for i := range insights {
		if insights[i].Axis == "location" {
			location = &insights[i]
		}
	}
	if location == nil {
		t.Fatal("expected insight for location axis")
	}
	if len(location.RiskIndicators) == 0 {
		t.Fatal("default value must carry risk indicators")
	}
	wantRelevance := axisWeights["location"] * 0.8
	if math.Abs(location.RelevanceScore-wantRelevance) > 1e-9 {
		t.Fatalf("expected relevance %.4f for default value, got %.4f", wantRelevance, location.RelevanceScore)
	}

	opportunities := artifact["optimization_opportunities"].([]map[string]any)
	if len(opportunities) != 1 {
		t.Fatalf("expected one optimization opportunity, got %d", len(opportunities))
	}
	if opportunities[0]["axis"] != "location" {
		t.Fatalf("expected opportunity for location, got %v", opportunities[0]["axis"])
	}
}

func TestReasoningChainHasFourSteps(t *testing.T) {
	artifact := analyze(t, &Analyzer{}, regulatedCoordinate())
	chain := artifact["reasoning_chain"].([]map[string]any)
	if len(chain) != 4 {
		t.Fatalf("expected 4 reasoning steps, got %d", len(chain))
	}
	if chain[0]["type"] != "initial_assessment" || chain[3]["type"] != "risk_assessment" {
		t.Fatalf("unexpected reasoning step order: %v ... %v", chain[0]["type"], chain[3]["type"])
	}
}

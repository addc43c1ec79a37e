package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"axisim/internal/axis"
	"axisim/internal/orchestrator"
)

// Analysis depth levels, from cheapest to most thorough. Depth scales the
// per-axis confidence modifier, nothing else.
const (
	DepthSurface       = "surface"
	DepthModerate      = "moderate"
	DepthDeep          = "deep"
	DepthComprehensive = "comprehensive"
)

const baseAxisConfidence = 0.75

var depthConfidenceModifier = map[string]float64{
	DepthSurface:       0.80,
	DepthModerate:      0.85,
	DepthDeep:          0.90,
	DepthComprehensive: 0.95,
}

// axisWeights rank the axes by empirical influence on analysis outcomes.
// Unlisted axes weigh 0.5.
var axisWeights = map[string]float64{
	"pillar":               1.0,
	"sector":               0.9,
	"location":             0.7,
	"role_definition":      0.85,
	"user_authority":       0.8,
	"regulatory_framework": 0.95,
	"compliance_level":     0.9,
	"audit_requirements":   0.75,
	"branch":               0.6,
	"node":                 0.6,
	"regulatory":           0.85,
	"compliance":           0.8,
	"role_sector":          0.65,
	"temporal":             0.55,
}

const defaultAxisWeight = 0.5

// axisInteraction captures a known strong coupling between two axes. The
// strength is a multiplier above the neutral 1.0.
type axisInteraction struct {
	first    string
	second   string
	strength float64
}

var strongInteractions = []axisInteraction{
	{"pillar", "sector", 1.2},
	{"role_definition", "user_authority", 1.3},
	{"regulatory_framework", "compliance_level", 1.4},
	{"regulatory", "compliance", 1.25},
	{"sector", "location", 1.15},
}

// Analyzer is the built-in coordinate analysis collaborator. It is
// deterministic: the same coordinate and depth always produce the same
// insights, correlations, and confidence score.
type Analyzer struct {
	// Depth selects the analysis depth; empty means deep.
	Depth string
}

var _ orchestrator.CoordinateAnalyzer = (*Analyzer)(nil)

func (a *Analyzer) depth() string {
	if a == nil || a.Depth == "" {
		return DepthDeep
	}
	if _, ok := depthConfidenceModifier[a.Depth]; !ok {
		return DepthDeep
	}
	return a.Depth
}

func (a *Analyzer) AnalyzeCoordinate(ctx context.Context, coordinate axis.Coordinate) (orchestrator.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	depth := a.depth()

	insights := analyzeAxes(coordinate, depth)
	correlations := analyzeCorrelations(coordinate)
	complexity := assessComplexity(coordinate)
	metrics := analysisMetrics(insights, correlations, complexity)

	return orchestrator.Artifact{
		"analysis_depth":             depth,
		"axis_insights":              insights,
		"cross_correlations":         correlations,
		"complexity_assessment":      complexity,
		"optimization_opportunities": optimizationOpportunities(insights),
		"reasoning_chain":            reasoningChain(insights, correlations),
		"overall_metrics":            metrics,
		"confidence_score":           metrics["confidence"],
		"coordinate_hash":            coordinate.CoordinateHash(),
		"processing_time_seconds":    time.Since(start).Seconds(),
		"timestamp":                  time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// AxisInsight is the per-axis analysis record.
type AxisInsight struct {
	Axis                  string   `json:"axis"`
	Value                 string   `json:"value"`
	RelevanceScore        float64  `json:"relevance_score"`
	ConfidenceLevel       float64  `json:"confidence_level"`
	OptimizationPotential float64  `json:"optimization_potential"`
	Interdependencies     []string `json:"interdependencies,omitempty"`
	RiskIndicators        []string `json:"risk_indicators,omitempty"`
}

// Correlation records a significant coupling between two filled axes.
type Correlation struct {
	PrimaryAxis   string  `json:"primary_axis"`
	SecondaryAxis string  `json:"secondary_axis"`
	Strength      float64 `json:"strength"`
	Type          string  `json:"type"`
}

func analyzeAxes(coordinate axis.Coordinate, depth string) []AxisInsight {
	filled := filledAxes(coordinate)
	modifier := depthConfidenceModifier[depth]

	insights := make([]AxisInsight, 0, len(filled))
	for _, name := range filled {
		value, _ := coordinate.Value(name)

		weight := defaultAxisWeight
		if w, ok := axisWeights[name]; ok {
			weight = w
		}
		relevance := weight
		if value == "default" {
			relevance = weight * 0.8
		}
		if relevance > 1.0 {
			relevance = 1.0
		}

		insight := AxisInsight{
			Axis:                  name,
			Value:                 value,
			RelevanceScore:        relevance,
			ConfidenceLevel:       baseAxisConfidence * modifier,
			OptimizationPotential: 0.4,
			Interdependencies:     interdependencies(name, filled),
		}
		if value == "default" {
			insight.OptimizationPotential = 0.6
			insight.RiskIndicators = []string{"configuration_risk", "compatibility_risk"}
		}
		insights = append(insights, insight)
	}
	return insights
}

func analyzeCorrelations(coordinate axis.Coordinate) []Correlation {
	filled := make(map[string]struct{})
	for _, name := range filledAxes(coordinate) {
		filled[name] = struct{}{}
	}

	var correlations []Correlation
	for _, interaction := range strongInteractions {
		if _, ok := filled[interaction.first]; !ok {
			continue
		}
		if _, ok := filled[interaction.second]; !ok {
			continue
		}
		// Normalize above the neutral multiplier, plus a flat pattern boost.
		strength := interaction.strength - 1.0 + 0.1
		if strength > 1.0 {
			strength = 1.0
		}
		if strength <= 0.3 {
			continue
		}
		correlations = append(correlations, Correlation{
			PrimaryAxis:   interaction.first,
			SecondaryAxis: interaction.second,
			Strength:      strength,
			Type:          "positive",
		})
	}
	return correlations
}

func assessComplexity(coordinate axis.Coordinate) map[string]any {
	filled := filledAxes(coordinate)

	weighted := 0.0
	for _, name := range filled {
		weight := defaultAxisWeight
		if w, ok := axisWeights[name]; ok {
			weight = w
		}
		weighted += weight
	}
	weighted /= float64(len(axis.AxisKeys))

	regulatory := 0.0
	for _, name := range []string{"regulatory_framework", "compliance_level", "audit_requirements"} {
		if value, _ := coordinate.Value(name); value != "" && value != "none" {
			regulatory += 1.0 / 3.0
		}
	}

	overall := weighted*0.6 + regulatory*0.4
	return map[string]any{
		"overall_score":         overall,
		"active_dimensions":     len(filled),
		"weighted_score":        weighted,
		"regulatory_complexity": regulatory,
		"complexity_level":      complexityLevel(overall),
	}
}

func complexityLevel(score float64) string {
	switch {
	case score > 0.8:
		return "very_high"
	case score > 0.6:
		return "high"
	case score > 0.4:
		return "medium"
	default:
		return "low"
	}
}

func analysisMetrics(insights []AxisInsight, correlations []Correlation, complexity map[string]any) map[string]float64 {
	avgRelevance := 0.5
	if len(insights) > 0 {
		total := 0.0
		for _, insight := range insights {
			total += insight.RelevanceScore
		}
		avgRelevance = total / float64(len(insights))
	}

	avgCorrelation := 0.5
	if len(correlations) > 0 {
		total := 0.0
		for _, correlation := range correlations {
			total += correlation.Strength
		}
		avgCorrelation = total / float64(len(correlations))
	}

	overallComplexity, _ := complexity["overall_score"].(float64)
	confidence := avgRelevance*0.4 + avgCorrelation*0.3 + (1-overallComplexity)*0.3

	return map[string]float64{
		"confidence":        confidence,
		"completeness":      float64(len(insights)) / float64(len(axis.AxisKeys)),
		"correlation_score": avgCorrelation,
		"complexity_score":  overallComplexity,
	}
}

func optimizationOpportunities(insights []AxisInsight) []map[string]any {
	var opportunities []map[string]any
	for _, insight := range insights {
		if insight.OptimizationPotential <= 0.4 {
			continue
		}
		opportunities = append(opportunities, map[string]any{
			"axis":         insight.Axis,
			"description":  fmt.Sprintf("axis %s carries a default value; refining it narrows the analysis", insight.Axis),
			"impact_score": insight.OptimizationPotential,
		})
	}
	sort.Slice(opportunities, func(i, j int) bool {
		return opportunities[i]["axis"].(string) < opportunities[j]["axis"].(string)
	})
	return opportunities
}

func reasoningChain(insights []AxisInsight, correlations []Correlation) []map[string]any {
	primary := make([]AxisInsight, len(insights))
	copy(primary, insights)
	sort.Slice(primary, func(i, j int) bool {
		if primary[i].RelevanceScore == primary[j].RelevanceScore {
			return primary[i].Axis < primary[j].Axis
		}
		return primary[i].RelevanceScore > primary[j].RelevanceScore
	})
	if len(primary) > 3 {
		primary = primary[:3]
	}
	primaryNames := make([]string, 0, len(primary))
	for _, insight := range primary {
		primaryNames = append(primaryNames, insight.Axis)
	}

	riskCount := 0
	for _, insight := range insights {
		riskCount += len(insight.RiskIndicators)
	}

	return []map[string]any{
		{
			"step":        1,
			"type":        "initial_assessment",
			"description": fmt.Sprintf("coordinate has %d active axes", len(insights)),
			"confidence":  0.9,
		},
		{
			"step":        2,
			"type":        "primary_identification",
			"description": "most influential axes identified",
			"evidence":    primaryNames,
			"confidence":  0.85,
		},
		{
			"step":        3,
			"type":        "correlation_analysis",
			"description": fmt.Sprintf("%d significant cross-axis correlations", len(correlations)),
			"confidence":  0.8,
		},
		{
			"step":        4,
			"type":        "risk_assessment",
			"description": fmt.Sprintf("%d risk indicators across active axes", riskCount),
			"confidence":  0.75,
		},
	}
}

func interdependencies(name string, filled []string) []string {
	var deps []string
	for _, other := range filled {
		if other == name {
			continue
		}
		deps = append(deps, other)
		if len(deps) == 5 {
			break
		}
	}
	return deps
}

// filledAxes lists axes with a non-empty, non-"none" value in canonical order.
func filledAxes(coordinate axis.Coordinate) []string {
	var filled []string
	for _, name := range axis.AxisKeys {
		value, _ := coordinate.Value(name)
		if value != "" && value != "none" {
			filled = append(filled, name)
		}
	}
	return filled
}

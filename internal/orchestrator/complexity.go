package orchestrator

import (
	"axisim/internal/axis"
)

// Factor keys reported by AnalyzeComplexity.
const (
	FactorPillarComplexity  = "pillar_complexity"
	FactorSectorDepth       = "sector_depth"
	FactorRegulatoryNeeds   = "regulatory_requirements"
	FactorPersonaNeeds      = "persona_requirements"
	FactorCrossDependencies = "cross_axis_dependencies"
)

const defaultPillarComplexity = 0.5

var pillarComplexity = map[string]float64{
	"foundational":   0.3,
	"organizational": 0.5,
	"technological":  0.7,
	"adaptive":       0.9,
}

var specializedSectors = map[string]struct{}{
	"healthcare": {},
	"finance":    {},
	"aerospace":  {},
	"nuclear":    {},
}

var complexRoles = map[string]struct{}{
	"executive":      {},
	"regulatory":     {},
	"technical_lead": {},
}

// crossDependencyAxes are the axes counted toward the cross-axis dependency
// factor, in no particular order. The divisor is fixed at len(axes).
var crossDependencyAxes = []string{
	"pillar",
	"sector",
	"location",
	"role_definition",
	"user_authority",
	"compliance_level",
	"regulatory_framework",
}

var defaultAxisValues = map[string]struct{}{
	"none":        {},
	"default":     {},
	"unspecified": {},
}

// AnalyzeComplexity derives the workflow complexity score for a coordinate.
// It is pure: same coordinate in, bit-identical factors and score out.
func AnalyzeComplexity(c axis.Coordinate) (map[string]float64, float64) {
	factors := map[string]float64{
		FactorPillarComplexity:  assessPillar(c.Pillar),
		FactorSectorDepth:       assessSector(c.Sector),
		FactorRegulatoryNeeds:   assessRegulatoryNeeds(c),
		FactorPersonaNeeds:      assessPersonaNeeds(c),
		FactorCrossDependencies: assessCrossDependencies(c),
	}

	total := 0.0
	for _, value := range factors {
		total += value
	}
	return factors, total / float64(len(factors))
}

func assessPillar(pillar string) float64 {
	if value, ok := pillarComplexity[pillar]; ok {
		return value
	}
	return defaultPillarComplexity
}

func assessSector(sector string) float64 {
	if _, ok := specializedSectors[sector]; ok {
		return 0.8
	}
	return 0.4
}

func assessRegulatoryNeeds(c axis.Coordinate) float64 {
	indicators := []string{c.ComplianceLevel, c.RegulatoryFramework, c.AuditRequirements}
	present := 0
	for _, indicator := range indicators {
		if indicator != "" && indicator != "none" {
			present++
		}
	}
	return float64(present) / float64(len(indicators))
}

func assessPersonaNeeds(c axis.Coordinate) float64 {
	if _, ok := complexRoles[c.RoleDefinition]; ok {
		return 0.8
	}
	return 0.4
}

func assessCrossDependencies(c axis.Coordinate) float64 {
	nonDefault := 0
	for _, key := range crossDependencyAxes {
		value, _ := c.Value(key)
		if value == "" {
			continue
		}
		if _, isDefault := defaultAxisValues[value]; isDefault {
			continue
		}
		nonDefault++
	}
	score := float64(nonDefault) / float64(len(crossDependencyAxes))
	if score > 1.0 {
		score = 1.0
	}
	return score
}

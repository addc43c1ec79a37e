package axis

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

// AxisKeys lists the coordinate axes in canonical order. The order is part of
// the coordinate identity: NurembergNumber and CoordinateHash depend on it.
var AxisKeys = []string{
	"pillar",
	"sector",
	"honeycomb",
	"branch",
	"node",
	"regulatory",
	"compliance",
	"compliance_level",
	"audit_requirements",
	"regulatory_framework",
	"role_definition",
	"user_authority",
	"role_sector",
	"location",
	"temporal",
}

var ErrMissingAnchor = errors.New("coordinate requires pillar and sector")

// Coordinate is a point in the knowledge/regulatory/persona space. Pillar and
// sector are the anchor axes and always present; everything else is optional.
// Coordinates are plain values: analyses copy them and never mutate the
// caller's coordinate.
type Coordinate struct {
	Pillar              string   `json:"pillar" yaml:"pillar"`
	Sector              string   `json:"sector" yaml:"sector"`
	Honeycomb           []string `json:"honeycomb,omitempty" yaml:"honeycomb,omitempty"`
	Branch              string   `json:"branch,omitempty" yaml:"branch,omitempty"`
	Node                string   `json:"node,omitempty" yaml:"node,omitempty"`
	Regulatory          string   `json:"regulatory,omitempty" yaml:"regulatory,omitempty"`
	Compliance          string   `json:"compliance,omitempty" yaml:"compliance,omitempty"`
	ComplianceLevel     string   `json:"compliance_level,omitempty" yaml:"compliance-level,omitempty"`
	AuditRequirements   string   `json:"audit_requirements,omitempty" yaml:"audit-requirements,omitempty"`
	RegulatoryFramework string   `json:"regulatory_framework,omitempty" yaml:"regulatory-framework,omitempty"`
	RoleDefinition      string   `json:"role_definition,omitempty" yaml:"role-definition,omitempty"`
	UserAuthority       string   `json:"user_authority,omitempty" yaml:"user-authority,omitempty"`
	RoleSector          string   `json:"role_sector,omitempty" yaml:"role-sector,omitempty"`
	Location            string   `json:"location,omitempty" yaml:"location,omitempty"`
	Temporal            string   `json:"temporal,omitempty" yaml:"temporal,omitempty"`
}

// Validate checks the anchor-axis invariant and, when temporal is set, that it
// parses as RFC 3339.
func (c Coordinate) Validate() error {
	if strings.TrimSpace(c.Pillar) == "" || strings.TrimSpace(c.Sector) == "" {
		return ErrMissingAnchor
	}
	if c.Temporal != "" {
		if _, err := time.Parse(time.RFC3339, c.Temporal); err != nil {
			return errors.New("temporal axis must be RFC 3339")
		}
	}
	return nil
}

// Clone returns a copy that shares no mutable state with the receiver.
func (c Coordinate) Clone() Coordinate {
	out := c
	if len(c.Honeycomb) > 0 {
		out.Honeycomb = append([]string(nil), c.Honeycomb...)
	}
	return out
}

// Values returns the axis values in AxisKeys order. List axes are joined with
// commas, absent axes are empty strings.
func (c Coordinate) Values() []string {
	return []string{
		c.Pillar,
		c.Sector,
		strings.Join(c.Honeycomb, ","),
		c.Branch,
		c.Node,
		c.Regulatory,
		c.Compliance,
		c.ComplianceLevel,
		c.AuditRequirements,
		c.RegulatoryFramework,
		c.RoleDefinition,
		c.UserAuthority,
		c.RoleSector,
		c.Location,
		c.Temporal,
	}
}

// Value returns the value of a single axis by key, and whether the key names
// a known axis.
func (c Coordinate) Value(key string) (string, bool) {
	values := c.Values()
	for i, axisKey := range AxisKeys {
		if axisKey == key {
			return values[i], true
		}
	}
	return "", false
}

// FilledAxes counts axes carrying a non-empty value.
func (c Coordinate) FilledAxes() int {
	count := 0
	for _, value := range c.Values() {
		if value != "" {
			count++
		}
	}
	return count
}

// NurembergNumber renders the coordinate as a pipe-delimited string in
// canonical axis order.
func (c Coordinate) NurembergNumber() string {
	return strings.Join(c.Values(), "|")
}

// UnifiedSystemID hashes the core identity axes (pillar, sector, location).
func (c Coordinate) UnifiedSystemID() string {
	sum := sha256.Sum256([]byte(c.Pillar + "|" + c.Sector + "|" + c.Location))
	return hex.EncodeToString(sum[:])
}

// CoordinateHash hashes the full canonical rendering.
func (c Coordinate) CoordinateHash() string {
	sum := sha256.Sum256([]byte(c.NurembergNumber()))
	return hex.EncodeToString(sum[:])
}

package axis

// Metadata describes one axis of the coordinate system for API consumers.
type Metadata struct {
	Index       int      `json:"index"`
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	DataType    string   `json:"data_type"`
	Examples    []string `json:"examples,omitempty"`
}

var metadataTable = []Metadata{
	{1, "pillar", "Pillar", "Pillar level of the knowledge architecture", "string", []string{"foundational", "organizational", "technological", "adaptive"}},
	{2, "sector", "Sector", "Industry or domain sector", "string", []string{"healthcare", "finance", "generic-tech"}},
	{3, "honeycomb", "Honeycomb", "Crosslink mappings to adjacent coordinates", "string list", nil},
	{4, "branch", "Branch", "Branch system hierarchy", "string", nil},
	{5, "node", "Node", "Cross-sector node overlay", "string", nil},
	{6, "regulatory", "Regulatory", "Regulatory framework code", "string", []string{"CFR", "GDPR"}},
	{7, "compliance", "Compliance", "Compliance standard code", "string", []string{"ISO9001", "SOC2"}},
	{8, "compliance_level", "Compliance Level", "Required compliance strictness", "string", []string{"strict", "moderate", "basic"}},
	{9, "audit_requirements", "Audit Requirements", "Audit depth expected for the coordinate", "string", []string{"comprehensive", "periodic", "none"}},
	{10, "regulatory_framework", "Regulatory Framework", "Named regulatory regime", "string", []string{"HIPAA", "SOX"}},
	{11, "role_definition", "Role Definition", "Primary persona role", "string", []string{"executive", "regulatory", "technical_lead"}},
	{12, "user_authority", "User Authority", "Authority level of the acting user", "string", []string{"specialist", "manager"}},
	{13, "role_sector", "Role Sector", "Sector-expert persona role", "string", nil},
	{14, "location", "Location", "Geographic scope (ISO 3166)", "string", []string{"US", "EU"}},
	{15, "temporal", "Temporal", "Time or version reference (RFC 3339)", "string", nil},
}

// MetadataTable returns descriptions of every axis in canonical order.
func MetadataTable() []Metadata {
	out := make([]Metadata, len(metadataTable))
	copy(out, metadataTable)
	return out
}

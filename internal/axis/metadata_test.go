package axis

import "testing"

func TestMetadataTableCoversEveryAxis(t *testing.T) {
	table := MetadataTable()
	if len(table) != len(AxisKeys) {
		t.Fatalf("expected %d entries, got %d", len(AxisKeys), len(table))
	}
	for i, meta := range table {
		if meta.Key != AxisKeys[i] {
			t.Fatalf("entry %d: expected key %q, got %q", i, AxisKeys[i], meta.Key)
		}
		if meta.Index != i+1 {
			t.Fatalf("entry %q: expected index %d, got %d", meta.Key, i+1, meta.Index)
		}
		if meta.Name == "" || meta.Description == "" {
			t.Fatalf("entry %q: missing name or description", meta.Key)
		}
	}
}

func TestMetadataTableReturnsCopy(t *testing.T) {
	first := MetadataTable()
	first[0].Name = "mutated"
	second := MetadataTable()
	if second[0].Name == "mutated" {
		t.Fatal("MetadataTable must not expose shared state")
	}
}

package diagnostics

import "testing"

func TestRuleTaxonomy(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		phase string
	}{
		{"assignment mismatch", TC001, "typecheck"},
		{"missing member", TC003, "typecheck"},
		{"no overload matches", OVL001, "overload"},
		{"MRO failure", MRO001, "mro"},
		{"unreachable code", FLW001, "flow"},
		{"dataclass field ordering", SYN001, "synthesis"},
		{"resolution cycle", CYC001, "cyclical"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, ok := Lookup(tt.code)
			if !ok {
				t.Fatalf("code %s not found in registry", tt.code)
			}
			if info.Phase != tt.phase {
				t.Errorf("phase mismatch for %s: got %s, want %s", tt.code, info.Phase, tt.phase)
			}
			if !IsPhase(tt.code, tt.phase) {
				t.Errorf("IsPhase(%s, %s) = false, want true", tt.code, tt.phase)
			}
		})
	}
}

func TestRegistryConsistency(t *testing.T) {
	for code, info := range Registry {
		if info.Code != code {
			t.Errorf("registry key %s does not match info.Code %s", code, info.Code)
		}
		if info.Description == "" {
			t.Errorf("empty description for %s", code)
		}
	}
}

package model

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		input   string
		want    Role
		wantErr bool
	}{
		{"source", RoleSource, false},
		{"consumer", RoleConsumer, false},
		{"SOURCE", RoleSource, false},
		{" consumer ", RoleConsumer, false},
		{"upstream", RoleSource, false},
		{"client", RoleConsumer, false},
		{"owner", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseRole(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseRole(%q) expected error, got %v", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRole(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRole(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseScope(t *testing.T) {
	tests := []struct {
		input   string
		want    Scope
		wantErr bool
	}{
		{"universal", ScopeUniversal, false},
		{"customizable", ScopeCustomizable, false},
		{"Universal", ScopeUniversal, false},
		{"local", ScopeCustomizable, false},
		{"sacred", "", true},
	}

	for _, tt := range tests {
		got, err := ParseScope(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseScope(%q) expected error, got %v", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseScope(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseScope(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParsePriority(t *testing.T) {
	valid := map[string]Priority{
		"critical": PriorityCritical,
		"high":     PriorityHigh,
		"medium":   PriorityMedium,
		"low":      PriorityLow,
		"normal":   PriorityMedium,
	}
	for input, want := range valid {
		got, err := ParsePriority(input)
		if err != nil {
			t.Errorf("ParsePriority(%q) unexpected error: %v", input, err)
			continue
		}
		if got != want {
			t.Errorf("ParsePriority(%q) = %v, want %v", input, got, want)
		}
	}

	if _, err := ParsePriority("urgent"); err == nil {
		t.Error("ParsePriority(\"urgent\") expected error")
	}
}

func TestPriorityRank(t *testing.T) {
	prev := -1
	for _, p := range AllPriorities() {
		if p.Rank() <= prev {
			t.Errorf("priority %s rank %d not increasing", p, p.Rank())
		}
		prev = p.Rank()
	}
	if Priority("bogus").Rank() != len(AllPriorities()) {
		t.Error("unknown priority should rank last")
	}
}

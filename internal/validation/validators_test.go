package validation

import "testing"

func TestSanitizeText(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims whitespace", "  hello  ", "hello"},
		{"keeps newlines and tabs", "a\n\tb", "a\n\tb"},
		{"strips control characters", "a\x00b\x1fc", "abc"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateUrgencyLevel(t *testing.T) {
	t.Parallel()
	for _, valid := range []string{"none", "low", "medium", "high"} {
		if err := ValidateUrgencyLevel(valid); err != nil {
			t.Errorf("ValidateUrgencyLevel(%q) = %v, want nil", valid, err)
		}
	}
	for _, invalid := range []string{"", "critical", "HIGH"} {
		if err := ValidateUrgencyLevel(invalid); err == nil {
			t.Errorf("ValidateUrgencyLevel(%q) = nil, want error", invalid)
		}
	}
}

func TestValidateEntryFormat(t *testing.T) {
	t.Parallel()
	for _, valid := range []string{"note", "task", "project", "goal"} {
		if err := ValidateEntryFormat(valid); err != nil {
			t.Errorf("ValidateEntryFormat(%q) = %v, want nil", valid, err)
		}
	}
	if err := ValidateEntryFormat("journal"); err == nil {
		t.Error("ValidateEntryFormat(journal) = nil, want error")
	}
}

func TestValidateImportance(t *testing.T) {
	t.Parallel()
	if err := ValidateImportance(0); err != nil {
		t.Errorf("importance 0: %v", err)
	}
	if err := ValidateImportance(10); err != nil {
		t.Errorf("importance 10: %v", err)
	}
	if err := ValidateImportance(11); err == nil {
		t.Error("importance 11 should be rejected")
	}
	if err := ValidateImportance(-1); err == nil {
		t.Error("importance -1 should be rejected")
	}
}

package models

import (
	"testing"
)

func TestMaskedValue(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"empty", "", ""},
		{"short value fully masked", "abcd", "****"},
		{"eight characters fully masked", "abcdefgh", "********"},
		{"long value keeps edges", "sk-abc123def456ghi789", "sk-a****i789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := CredentialRecord{Value: tt.value}
			if got := record.MaskedValue(); got != tt.want {
				t.Errorf("MaskedValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

package models

import (
	"strings"
	"time"
)

// CredentialSource identifies where a resolved credential value came from
type CredentialSource string

const (
	SourceExplicit     CredentialSource = "explicit"
	SourceUserSettings CredentialSource = "user_settings"
	SourceEnvironment  CredentialSource = "environment"
	SourceNone         CredentialSource = "none"
)

// CredentialRecord is the resolved credential for one service. Records are
// replaced wholesale on every re-resolution, never mutated field by field.
type CredentialRecord struct {
	ServiceID   string           `json:"service_id"`
	Value       string           `json:"-"`
	Source      CredentialSource `json:"source"`
	ValidatedAt time.Time        `json:"validated_at"`
	IsValid     bool             `json:"is_valid"`
}

// MaskedValue returns a display-safe rendering of the credential value.
// Full secrets never appear in logs or CLI output.
func (r CredentialRecord) MaskedValue() string {
	if r.Value == "" {
		return ""
	}
	if len(r.Value) <= 8 {
		return strings.Repeat("*", len(r.Value))
	}
	return r.Value[:4] + strings.Repeat("*", 4) + r.Value[len(r.Value)-4:]
}

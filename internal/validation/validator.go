package validation

import (
	"fmt"
	"strings"
)

// placeholderSubstrings are fragments that indicate a template value was
// never replaced with a real credential.
var placeholderSubstrings = []string{
	"your-api-key",
	"your_api_key",
	"changeme",
	"placeholder",
	"example",
	"xxxx",
	"demo-key",
}

// CredentialRule describes the structural pattern a service's credential
// must match. Validation is purely structural; it never calls the service.
type CredentialRule struct {
	MinLength      int
	RequiredPrefix string
}

// Validator provides structural validation for credential values
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateCredential checks a credential value against a service rule.
// It is pure and side-effect-free.
func (v *Validator) ValidateCredential(value string, rule CredentialRule) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("credential value is empty")
	}

	if len(value) < rule.MinLength {
		return fmt.Errorf("credential shorter than %d characters", rule.MinLength)
	}

	if rule.RequiredPrefix != "" && !strings.HasPrefix(value, rule.RequiredPrefix) {
		return fmt.Errorf("credential missing required prefix %q", rule.RequiredPrefix)
	}

	lower := strings.ToLower(value)
	for _, placeholder := range placeholderSubstrings {
		if strings.Contains(lower, placeholder) {
			return fmt.Errorf("credential contains placeholder text %q", placeholder)
		}
	}

	if err := v.checkInjection(value); err != nil {
		return err
	}

	return nil
}

// IsValidCredential is the boolean form of ValidateCredential
func (v *Validator) IsValidCredential(value string, rule CredentialRule) bool {
	return v.ValidateCredential(value, rule) == nil
}

// checkInjection rejects characters that cannot occur in a legitimate API
// key and indicate header or shell injection.
func (v *Validator) checkInjection(value string) error {
	for _, char := range value {
		switch {
		case char == ' ', char == '\t', char == '\n', char == '\r':
			return fmt.Errorf("credential contains whitespace")
		case char == '"', char == '\'', char == '`', char == ';', char == '$':
			return fmt.Errorf("credential contains forbidden character %q", char)
		case char < 0x20 || char > 0x7e:
			return fmt.Errorf("credential contains non-printable character")
		}
	}
	return nil
}

// ValidateRequiredString validates that a string is not empty
func (v *Validator) ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}
